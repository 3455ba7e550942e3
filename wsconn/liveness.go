package wsconn

import ws "github.com/miktim/WebSocketServer"

// onTimeout runs when a read deadline expires with no frame received. With
// Ping disabled, an idle connection is simply abnormal; with Ping enabled, a
// connection gets one PING before it is judged dead: the first timeout sends
// a PING and gives the peer one more ConnectionTimeout window to answer with
// any frame, and a second consecutive timeout aborts the connection.
func (c *Connection) onTimeout() bool {
	if !c.params.Ping {
		return c.abort(ws.StatusAbnormalClosure, "connection idle", nil)
	}
	if c.pingOutstanding {
		return c.abort(ws.StatusAbnormalClosure, "ping timeout", nil)
	}

	c.pingOutstanding = true
	f := ws.NewPingFrame(make([]byte, pingPayloadSize))
	if c.role.Is(ws.StateClientSide) {
		f = ws.MaskFrameInPlace(f)
	}
	if err := ws.WriteFrame(c, f); err != nil {
		c.finish(Status{Code: ws.StatusAbnormalClosure}, err)
		return false
	}
	return true
}
