package wsconn

import (
	"bytes"
	"io"
	"strings"

	ws "github.com/miktim/WebSocketServer"
	"github.com/miktim/WebSocketServer/wsutil"
)

// SendText sends s as a single TEXT message, fragmented into frames of at
// most PayloadBufferLength bytes.
func (c *Connection) SendText(s string) error {
	return c.SendStream(true, strings.NewReader(s))
}

// SendBinary sends p as a single BINARY message, fragmented into frames of
// at most PayloadBufferLength bytes.
func (c *Connection) SendBinary(p []byte) error {
	return c.SendStream(false, bytes.NewReader(p))
}

// SendStream streams r as a single message, fragmenting it into frames of
// at most PayloadBufferLength bytes as it goes. It fails with ErrNotOpen if
// the connection is not in the OPEN phase.
func (c *Connection) SendStream(isText bool, r io.Reader) error {
	if !c.IsOpen() {
		return ErrNotOpen
	}

	op := ws.OpBinary
	if isText {
		op = ws.OpText
	}
	w := wsutil.NewWriterSize(c, c.params.PayloadBufferLength, wsutil.WriterConfig{
		Op:   op,
		Mask: c.role.Is(ws.StateClientSide),
	})
	if _, err := w.ReadFrom(r); err != nil {
		return err
	}
	return w.Flush()
}
