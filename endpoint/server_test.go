package endpoint

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ws "github.com/miktim/WebSocketServer"
	"github.com/miktim/WebSocketServer/wsconn"
)

func dialURI(addr net.Addr) string {
	return "ws://" + addr.String() + "/"
}

func TestServerRejectsBeyondMaxConnections(t *testing.T) {
	e := New(Options{})

	serverHandler := wsconn.Funcs{}

	server, err := e.Server(0, serverHandler, nil, ListenOptions{BindAddress: "127.0.0.1", MaxConnections: 2})
	require.NoError(t, err)
	defer server.Stop("test done")

	uri := dialURI(server.Addr())

	dial := func() (*wsconn.Connection, chan wsconn.Status) {
		closed := make(chan wsconn.Status, 1)
		h := wsconn.Funcs{
			Close: func(c *wsconn.Connection, status wsconn.Status) { closed <- status },
		}
		c, err := e.Connect(uri, h, nil)
		require.NoError(t, err)
		return c, closed
	}

	c1, closed1 := dial()
	c2, closed2 := dial()
	require.Eventually(t, func() bool { return c1.IsOpen() && c2.IsOpen() }, time.Second, time.Millisecond)

	_, closed3 := dial()
	select {
	case status := <-closed3:
		require.Equal(t, ws.StatusTryAgainLater, status.Code)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for third connection to be rejected")
	}

	select {
	case <-closed1:
		t.Fatal("first connection should not have closed")
	case <-closed2:
		t.Fatal("second connection should not have closed")
	case <-time.After(100 * time.Millisecond):
	}

	c1.Close(ws.StatusNormalClosure, "")
	c2.Close(ws.StatusNormalClosure, "")
}
