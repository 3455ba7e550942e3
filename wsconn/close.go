package wsconn

import (
	"errors"
	"io"
	"io/ioutil"

	ws "github.com/miktim/WebSocketServer"
	"github.com/miktim/WebSocketServer/wsutil"
)

// Close initiates the closing handshake: it sends a Close frame carrying
// code and reason and moves the connection to CLOSING. The peer's answering
// Close, once it arrives, drives the connection the rest of the way to
// CLOSED and delivers on_close with this status.
//
// Close is a no-op, returning ErrNotOpen, once the connection has already
// left OPEN.
func (c *Connection) Close(code ws.StatusCode, reason string) error {
	if !c.phase.CompareAndSwap(int32(PhaseOpen), int32(PhaseClosing)) {
		return ErrNotOpen
	}

	c.statusMu.Lock()
	c.localStatus = Status{Code: code, Reason: reason}
	c.statusMu.Unlock()

	f := ws.NewCloseFrame(code, reason)
	if c.role.Is(ws.StateClientSide) {
		f = ws.MaskFrameInPlace(f)
	}
	return ws.WriteFrame(c, f)
}

// handleClose answers a received Close frame per spec.md §4.C: the first
// Close seen while OPEN is echoed and reported with the peer's code; a
// Close seen after this side already initiated the handshake is not
// re-echoed, and is reported with the code this side originally sent.
func (c *Connection) handleClose(hdr ws.Header) bool {
	if c.Phase() == PhaseClosing {
		io.Copy(ioutil.Discard, c.reader)
		c.statusMu.Lock()
		status := c.localStatus
		c.statusMu.Unlock()
		c.finish(status, nil)
		return false
	}

	c.phase.Store(int32(PhaseClosing))
	err := wsutil.CloseHandler(c, c.role)(hdr, c.reader)

	var closed wsutil.ClosedError
	if errors.As(err, &closed) {
		c.finish(Status{Code: closed.Code, Reason: closed.Reason}, nil)
		return false
	}
	c.finish(Status{Code: ws.StatusProtocolError, Reason: err.Error()}, err)
	return false
}

// abort tears the connection down immediately without waiting for the peer
// to answer. It is used when this side detects a violation serious enough
// that continuing to read is pointless. If code is one RFC 6455 forbids on
// the wire (transport failures, liveness timeouts), no Close frame is sent
// and the transport is simply dropped; code is still reported to on_close
// as the local status.
func (c *Connection) abort(code ws.StatusCode, reason string, cause error) bool {
	if !code.IsDisallowedOnWire() {
		f := ws.NewCloseFrame(code, reason)
		if c.role.Is(ws.StateClientSide) {
			f = ws.MaskFrameInPlace(f)
		}
		ws.WriteFrame(c, f)
	}
	c.finish(Status{Code: code, Reason: reason}, cause)
	return false
}

// finish tears the connection down exactly once: it records status, closes
// the transport, and delivers OnError (if cause is non-nil) followed by
// exactly one OnClose.
func (c *Connection) finish(status Status, cause error) {
	c.closeOnce.Do(func() {
		c.statusMu.Lock()
		c.status = status
		c.statusMu.Unlock()

		c.phase.Store(int32(PhaseClosed))
		c.conn.Close()

		if cause != nil {
			c.handler.OnError(c, cause)
		}
		c.handler.OnClose(c, status)
	})
}
