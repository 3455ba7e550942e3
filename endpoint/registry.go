package endpoint

import (
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	ws "github.com/miktim/WebSocketServer"
	"github.com/miktim/WebSocketServer/wsconn"
)

// Endpoint is the process-wide registry of live connections and live
// servers spec.md §4.D describes. It also owns the optional SecureContext
// TLS material every SecureServer and wss:// Connect shares.
//
// The zero value is not usable; build one with New.
type Endpoint struct {
	Secure SecureContext

	inst instruments

	mu          sync.Mutex
	connections map[uuid.UUID]*wsconn.Connection
	servers     map[uuid.UUID]*Server
}

// Options configures New.
type Options struct {
	// TracerProvider and MeterProvider default to the global providers
	// registered with the otel package when left nil.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// New builds an empty Endpoint.
func New(opts Options) *Endpoint {
	return &Endpoint{
		inst:        newInstruments(opts.TracerProvider, opts.MeterProvider),
		connections: make(map[uuid.UUID]*wsconn.Connection),
		servers:     make(map[uuid.UUID]*Server),
	}
}

// ListConnections returns a snapshot of every currently live connection,
// across every server and every client-initiated Connect.
func (e *Endpoint) ListConnections() []*wsconn.Connection {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*wsconn.Connection, 0, len(e.connections))
	for _, c := range e.connections {
		out = append(out, c)
	}
	return out
}

// ListServers returns a snapshot of every currently running server.
func (e *Endpoint) ListServers() []*Server {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*Server, 0, len(e.servers))
	for _, s := range e.servers {
		out = append(out, s)
	}
	return out
}

// CloseAll asks every server to stop accepting and close its children with
// GOING_AWAY, then closes every remaining client-initiated connection with
// the same reason. It does not wait for on_close to be delivered.
func (e *Endpoint) CloseAll(reason string) {
	for _, s := range e.ListServers() {
		s.Stop(reason)
	}
	for _, c := range e.ListConnections() {
		c.Close(ws.StatusGoingAway, reason)
	}
}

func (e *Endpoint) addConnection(id uuid.UUID, c *wsconn.Connection) {
	e.mu.Lock()
	e.connections[id] = c
	e.mu.Unlock()
}

func (e *Endpoint) removeConnection(id uuid.UUID) {
	e.mu.Lock()
	delete(e.connections, id)
	e.mu.Unlock()
}

func (e *Endpoint) addServer(id uuid.UUID, s *Server) {
	e.mu.Lock()
	e.servers[id] = s
	e.mu.Unlock()
}

func (e *Endpoint) removeServer(id uuid.UUID) {
	e.mu.Lock()
	delete(e.servers, id)
	e.mu.Unlock()
}
