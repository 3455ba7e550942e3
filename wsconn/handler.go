package wsconn

import (
	"io"

	ws "github.com/miktim/WebSocketServer"
)

// Status is a Connection's terminal close status: the code and, when known,
// the peer-supplied reason.
type Status struct {
	Code   ws.StatusCode
	Reason string
}

// Handler is the capability set a Connection delivers its lifecycle events
// to. Calls for one Connection are always serialized and form a
// happens-before chain: OnOpen, then every OnMessage/OnError, then exactly
// one final OnClose.
type Handler interface {
	// OnOpen fires once the handshake completes and the connection is OPEN.
	OnOpen(c *Connection)

	// OnMessage delivers one reassembled message's payload as it streams
	// in. r is only valid for the duration of the call; read it fully
	// before returning if you need all of it. isText reports whether the
	// message was sent as TEXT or BINARY. A TEXT payload is checked as UTF-8
	// while it is read: the Read that reaches the end of an invalid one
	// fails with wsutil.ErrInvalidUTF8.
	OnMessage(c *Connection, r io.Reader, isText bool)

	// OnError reports a best-effort failure notification. The connection
	// may already be transitioning to CLOSED by the time this is called.
	OnError(c *Connection, err error)

	// OnClose fires exactly once, after the transport has been released.
	OnClose(c *Connection, status Status)
}

// Funcs adapts a set of functions to Handler; any nil field is a no-op.
type Funcs struct {
	Open    func(c *Connection)
	Message func(c *Connection, r io.Reader, isText bool)
	Error   func(c *Connection, err error)
	Close   func(c *Connection, status Status)
}

func (f Funcs) OnOpen(c *Connection) {
	if f.Open != nil {
		f.Open(c)
	}
}

func (f Funcs) OnMessage(c *Connection, r io.Reader, isText bool) {
	if f.Message != nil {
		f.Message(c, r, isText)
	}
}

func (f Funcs) OnError(c *Connection, err error) {
	if f.Error != nil {
		f.Error(c, err)
	}
}

func (f Funcs) OnClose(c *Connection, status Status) {
	if f.Close != nil {
		f.Close(c, status)
	}
}
