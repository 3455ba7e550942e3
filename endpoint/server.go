package endpoint

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	ws "github.com/miktim/WebSocketServer"
	"github.com/miktim/WebSocketServer/handshake"
	"github.com/miktim/WebSocketServer/wsconn"
)

// DefaultMaxConnections is the server capacity spec.md §4.E applies when
// ListenOptions.MaxConnections is left zero.
const DefaultMaxConnections = 8

// ListenOptions configures a Server's listening socket, independent of the
// per-connection Params every accepted Connection then runs under.
type ListenOptions struct {
	// BindAddress is the local address to listen on, e.g. "" (all
	// interfaces) or "127.0.0.1". Combined with Port to form the listen
	// address.
	BindAddress string

	// Backlog is the connection backlog hint spec.md §6 exposes. The Go
	// runtime sizes the kernel listen backlog itself and does not expose a
	// portable per-listener override without raw syscalls, so this is kept
	// for interface parity with the source and is not currently applied;
	// see DESIGN.md.
	Backlog int

	// MaxConnections caps how many connections this server keeps OPEN at
	// once. A handshake completing beyond the cap is answered with
	// TRY_AGAIN_LATER. Zero means DefaultMaxConnections.
	MaxConnections int
}

// Server is one listening socket and the pool of connections accepted
// through it, per spec.md §4.E.
type Server struct {
	id       uuid.UUID
	endpoint *Endpoint
	listener net.Listener
	handler  wsconn.Handler
	params   *wsconn.Params
	opts     ListenOptions

	live atomic.Int64

	mu       sync.Mutex
	children map[uuid.UUID]*wsconn.Connection

	stopping atomic.Bool
	done     chan struct{}
}

// Server starts a plain-text listener on port and returns the running
// Server. handler is invoked for every accepted connection; params
// configures each one (nil selects wsconn.DefaultParams()).
func (e *Endpoint) Server(port int, handler wsconn.Handler, params *wsconn.Params, opts ListenOptions) (*Server, error) {
	ln, err := net.Listen("tcp", listenAddr(opts.BindAddress, port))
	if err != nil {
		return nil, err
	}
	return e.startServer(ln, handler, params, opts)
}

// SecureServer is like Server, but accepts TLS connections using the
// Endpoint's SecureContext. requireClientCert selects mutual TLS.
func (e *Endpoint) SecureServer(port int, handler wsconn.Handler, params *wsconn.Params, opts ListenOptions, requireClientCert bool) (*Server, error) {
	cfg, err := e.Secure.serverConfig(requireClientCert)
	if err != nil {
		return nil, err
	}
	ln, err := tls.Listen("tcp", listenAddr(opts.BindAddress, port), cfg)
	if err != nil {
		return nil, err
	}
	return e.startServer(ln, handler, params, opts)
}

func listenAddr(bind string, port int) string {
	return net.JoinHostPort(bind, strconv.Itoa(port))
}

func (e *Endpoint) startServer(ln net.Listener, handler wsconn.Handler, params *wsconn.Params, opts ListenOptions) (*Server, error) {
	if params == nil {
		params = wsconn.DefaultParams()
	}
	if opts.MaxConnections <= 0 {
		opts.MaxConnections = DefaultMaxConnections
	}

	s := &Server{
		id:       uuid.New(),
		endpoint: e,
		listener: ln,
		handler:  handler,
		params:   params,
		opts:     opts,
		children: make(map[uuid.UUID]*wsconn.Connection),
		done:     make(chan struct{}),
	}
	e.addServer(s.id, s)
	go s.acceptLoop()
	return s, nil
}

// Addr returns the server's bound listening address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

func (s *Server) acceptLoop() {
	defer close(s.done)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.stopping.Load() {
				s.handler.OnError(nil, err)
			}
			return
		}
		go s.handshakeAndServe(conn)
	}
}

func (s *Server) handshakeAndServe(conn net.Conn) {
	ctx, span := s.endpoint.inst.tracer.Start(context.Background(), spanHandshake,
		trace.WithAttributes(attribute.String(attrRole, "server")))
	defer span.End()

	if s.params.HandshakeTimeout > 0 {
		conn.SetDeadline(time.Now().Add(s.params.HandshakeTimeout))
	}

	result, err := handshake.Accept(conn, s.params.Subprotocols)
	if err != nil {
		recordErr(span, err)
		s.endpoint.inst.rejected.Add(ctx, 1)
		conn.Close()
		return
	}
	conn.SetDeadline(time.Time{})

	if s.live.Load() >= int64(s.opts.MaxConnections) {
		s.endpoint.inst.rejected.Add(ctx, 1)
		f := ws.NewCloseFrame(ws.StatusTryAgainLater, "at capacity")
		ws.WriteFrame(conn, f)
		conn.Close()
		return
	}

	s.live.Add(1)
	s.endpoint.inst.accepted.Add(ctx, 1)

	c := wsconn.NewServer(conn, s.params, instrumentHandler(s.handler, s.endpoint.inst, "server"))
	c.RequestURI = result.URI
	c.RequestHeaders = result.Header
	c.PeerHost = conn.RemoteAddr().String()
	c.Subprotocol = result.Protocol
	if tc, ok := conn.(*tls.Conn); ok {
		c.TLSProtocol = tls.VersionName(tc.ConnectionState().Version)
	}

	id := uuid.New()
	s.endpoint.addConnection(id, c)
	s.mu.Lock()
	s.children[id] = c
	s.mu.Unlock()

	c.Serve()

	s.live.Add(-1)
	s.endpoint.removeConnection(id)
	s.mu.Lock()
	delete(s.children, id)
	s.mu.Unlock()
}

// Stop closes the listening socket, so no new connections are accepted, and
// closes every currently live child connection with GOING_AWAY and reason.
// It does not wait for their on_close to be delivered.
func (s *Server) Stop(reason string) {
	if !s.stopping.CompareAndSwap(false, true) {
		return
	}
	s.listener.Close()
	s.endpoint.removeServer(s.id)

	s.mu.Lock()
	children := make([]*wsconn.Connection, 0, len(s.children))
	for _, c := range s.children {
		children = append(children, c)
	}
	s.mu.Unlock()

	for _, c := range children {
		c.Close(ws.StatusGoingAway, reason)
	}
}
