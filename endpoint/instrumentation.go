package endpoint

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/miktim/WebSocketServer/wsconn"
)

// instrumentedHandler decorates a wsconn.Handler with a span covering the
// connection's whole lifetime and a message-size histogram, the way
// wscengine's WebsocketConnectionAdapterInstrumentationDecorator wraps a
// connection adapter's methods.
type instrumentedHandler struct {
	decorated wsconn.Handler
	inst      instruments
	role      string

	span trace.Span
}

func instrumentHandler(h wsconn.Handler, inst instruments, role string) *instrumentedHandler {
	return &instrumentedHandler{decorated: h, inst: inst, role: role}
}

func (ih *instrumentedHandler) OnOpen(c *wsconn.Connection) {
	_, span := ih.inst.tracer.Start(context.Background(), spanConnection,
		trace.WithAttributes(
			attribute.String(attrRole, ih.role),
			attribute.String(attrRemoteHost, c.PeerHost),
		))
	ih.span = span
	ih.decorated.OnOpen(c)
}

func (ih *instrumentedHandler) OnMessage(c *wsconn.Connection, r io.Reader, isText bool) {
	counting := &countingReader{r: r}
	ih.decorated.OnMessage(c, counting, isText)
	ih.inst.messageSizes.Record(context.Background(), float64(counting.n))
}

func (ih *instrumentedHandler) OnError(c *wsconn.Connection, err error) {
	if ih.span != nil {
		ih.span.RecordError(err)
	}
	ih.decorated.OnError(c, err)
}

func (ih *instrumentedHandler) OnClose(c *wsconn.Connection, status wsconn.Status) {
	if ih.span != nil {
		ih.span.SetAttributes(attribute.Int(attrCloseCode, int(status.Code)))
		ih.span.End()
	}
	ih.decorated.OnClose(c, status)
}

// countingReader tallies bytes read through it without altering them, so
// OnMessage can report a message's size after the handler has read it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
