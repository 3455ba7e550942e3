package wsconn

import (
	"errors"
	"io"
	"io/ioutil"

	ws "github.com/miktim/WebSocketServer"
	"github.com/miktim/WebSocketServer/wsutil"
)

// errMessageTooBig signals that a message's cumulative payload crossed
// MaxMessageLength.
var errMessageTooBig = errors.New("wsconn: message exceeds max_message_length")

// limitReader caps the number of bytes readable from r, the way
// http.MaxBytesReader caps a request body. It does not stop mid-frame at an
// exact byte, only shortly after crossing max.
type limitReader struct {
	r   io.Reader
	max int64
	n   int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.max > 0 && l.n > l.max {
		return n, errMessageTooBig
	}
	return n, err
}

// handleMessage delivers one reassembled TEXT or BINARY message to the
// handler and enforces MaxMessageLength and, for TEXT, the UTF-8 validity
// wsutil.Reader checks incrementally as the message streams in.
//
// The handler is not required to read the message to completion; whatever
// it leaves unread is drained afterward so the size and UTF-8 checks always
// run over the whole message.
func (c *Connection) handleMessage(hdr ws.Header) bool {
	isText := hdr.OpCode == ws.OpText
	lr := &limitReader{r: c.reader, max: c.params.MaxMessageLength}

	c.handler.OnMessage(c, lr, isText)

	_, err := io.Copy(ioutil.Discard, lr)
	switch {
	case errors.Is(err, errMessageTooBig):
		return c.abort(ws.StatusMessageTooBig, "message too big", err)
	case errors.Is(err, wsutil.ErrInvalidUTF8):
		return c.abort(ws.StatusInvalidFramePayloadData, "invalid utf8 payload", err)
	case errors.Is(err, wsutil.ErrNoFrameAdvance):
		// The handler already read the message through to its end.
	case err != nil:
		c.finish(Status{Code: ws.StatusAbnormalClosure}, err)
		return false
	}
	return true
}
