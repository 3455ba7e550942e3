package endpoint

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/miktim/WebSocketServer/handshake"
	"github.com/miktim/WebSocketServer/wsconn"
)

// Connect dials uri (scheme ws or wss) and runs the client-side handshake.
// On success it registers the connection with the Endpoint, starts its
// Serve loop in a new goroutine, and returns immediately; on_open fires
// from that goroutine once Serve begins. It returns an error if dialing or
// the handshake fails.
func (e *Endpoint) Connect(uri string, handler wsconn.Handler, params *wsconn.Params) (*wsconn.Connection, error) {
	u, err := parseURI(uri)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = wsconn.DefaultParams()
	}

	ctx, span := e.inst.tracer.Start(context.Background(), spanHandshake,
		trace.WithAttributes(attribute.String(attrRole, "client")))
	defer span.End()

	dialer := net.Dialer{Timeout: params.HandshakeTimeout}
	var conn net.Conn
	if u.Scheme == "wss" {
		conn, err = tls.DialWithDialer(&dialer, "tcp", u.Host, e.Secure.clientConfig(u.Hostname()))
	} else {
		conn, err = dialer.Dial("tcp", u.Host)
	}
	if err != nil {
		e.inst.rejected.Add(ctx, 1)
		return nil, recordErr(span, err)
	}

	if params.HandshakeTimeout > 0 {
		conn.SetDeadline(time.Now().Add(params.HandshakeTimeout))
	}
	result, err := handshake.Dial(conn, u, params.Subprotocols)
	if err != nil {
		e.inst.rejected.Add(ctx, 1)
		conn.Close()
		return nil, recordErr(span, err)
	}
	conn.SetDeadline(time.Time{})
	e.inst.accepted.Add(ctx, 1)

	c := wsconn.NewClient(conn, params, instrumentHandler(handler, e.inst, "client"))
	c.RequestURI = u.String()
	c.PeerHost = conn.RemoteAddr().String()
	c.Subprotocol = result.Protocol
	if tc, ok := conn.(*tls.Conn); ok {
		c.TLSProtocol = tls.VersionName(tc.ConnectionState().Version)
	}

	id := uuid.New()
	e.addConnection(id, c)
	go func() {
		c.Serve()
		e.removeConnection(id)
	}()

	return c, nil
}
