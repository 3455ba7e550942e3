package wsconn

import (
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/miktim/WebSocketServer"
	"github.com/miktim/WebSocketServer/wsutil"
)

// Phase is a Connection's position in the state machine spec.md §4.C
// describes.
type Phase int32

const (
	PhaseConnecting Phase = iota
	PhaseOpen
	PhaseClosing
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "CONNECTING"
	case PhaseOpen:
		return "OPEN"
	case PhaseClosing:
		return "CLOSING"
	case PhaseClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ErrNotOpen is returned by the send methods when the connection is not in
// the OPEN phase.
var ErrNotOpen = errors.New("wsconn: connection is not open")

// pingPayloadSize is the number of opaque bytes carried by liveness pings.
const pingPayloadSize = 4

// Connection is one RFC 6455 connection: the state machine, message
// reassembly, control-frame handling, close protocol, and ping/pong
// liveness described by spec.md §4.C, driven by a single goroutine running
// Serve.
//
// All exported methods are safe to call from any goroutine; Serve itself
// must only ever run once.
type Connection struct {
	conn    net.Conn
	role    ws.State
	params  Params
	handler Handler

	// RequestURI, RequestHeaders, PeerHost, Subprotocol and TLSProtocol
	// describe the handshake this connection was accepted or dialed from.
	RequestURI     string
	RequestHeaders http.Header
	PeerHost       string
	Subprotocol    string
	TLSProtocol    string

	phase atomic.Int32

	writeMu sync.Mutex
	reader  *wsutil.Reader

	closeOnce sync.Once
	statusMu  sync.Mutex
	status    Status

	// localStatus is the status Close recorded when it initiated the close
	// handshake locally; handleClose reports it instead of the peer's echo
	// once the peer's answering CLOSE arrives.
	localStatus Status

	pingOutstanding bool
}

func newConnection(conn net.Conn, role ws.State, params *Params, handler Handler) *Connection {
	if params == nil {
		params = DefaultParams()
	}
	c := &Connection{
		conn:    conn,
		role:    role,
		params:  *params,
		handler: handler,
	}
	c.reader = wsutil.NewReader(conn, role)
	c.reader.CheckUTF8 = true
	c.reader.OnIntermediate = wsutil.ControlHandler(c, role)
	c.phase.Store(int32(PhaseConnecting))
	return c
}

// NewServer builds a Connection for the server role over an already
// upgraded conn.
func NewServer(conn net.Conn, params *Params, handler Handler) *Connection {
	return newConnection(conn, ws.StateServerSide, params, handler)
}

// NewClient builds a Connection for the client role over an already
// upgraded conn.
func NewClient(conn net.Conn, params *Params, handler Handler) *Connection {
	return newConnection(conn, ws.StateClientSide, params, handler)
}

// Write lets Connection serve as the io.Writer that control-frame handlers
// and the liveness ping write through, serializing them against
// application writes made by send_text/send_binary/send_stream. Every
// caller in this package writes a whole frame (header and payload) in one
// call — via ws.WriteFrame or wsutil.Writer, never ws.WriteHeader followed
// by a separate payload write — so holding writeMu per call here is enough
// to keep frames from different goroutines from interleaving on the wire.
func (c *Connection) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.Write(p)
}

// Phase reports the connection's current phase.
func (c *Connection) Phase() Phase { return Phase(c.phase.Load()) }

// IsOpen reports whether the connection is in the OPEN phase.
func (c *Connection) IsOpen() bool { return c.Phase() == PhaseOpen }

// GetStatus returns the terminal close status. It is only meaningful once
// Phase() reports PhaseClosed.
func (c *Connection) GetStatus() Status {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.status
}

// Serve runs the connection's inbound loop until it closes, delivering
// OnOpen, then a serialized sequence of OnMessage/OnError calls, then
// exactly one OnClose. It blocks until the connection is fully torn down.
func (c *Connection) Serve() {
	c.phase.Store(int32(PhaseOpen))
	c.handler.OnOpen(c)

	for c.readOne() {
	}
}

// readOne processes exactly one top-level frame, or one liveness timeout,
// and reports whether the loop should continue.
func (c *Connection) readOne() bool {
	if c.params.ConnectionTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.params.ConnectionTimeout))
	}

	hdr, err := c.reader.NextFrame()
	if err != nil {
		if isTimeout(err) {
			return c.onTimeout()
		}
		c.finish(Status{Code: ws.StatusAbnormalClosure}, err)
		return false
	}
	c.pingOutstanding = false

	switch hdr.OpCode {
	case ws.OpClose:
		return c.handleClose(hdr)
	case ws.OpPing:
		return c.dispatchControl(hdr, wsutil.PingHandler)
	case ws.OpPong:
		return c.dispatchControl(hdr, wsutil.PongHandler)
	default:
		return c.handleMessage(hdr)
	}
}

func (c *Connection) dispatchControl(hdr ws.Header, factory func(w io.Writer, s ws.State) wsutil.FrameHandler) bool {
	if err := factory(c, c.role)(hdr, c.reader); err != nil {
		return c.abort(ws.StatusProtocolError, err.Error(), err)
	}
	return true
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
