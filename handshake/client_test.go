package handshake

import (
	"bytes"
	"errors"
	"net/url"
	"strings"
	"testing"

	ws "github.com/miktim/WebSocketServer"
)

// fakeServer implements io.ReadWriter. It captures whatever request Dial
// writes, extracts the nonce from it, and lazily builds a matching
// response the first time Dial reads from it, so the accept key always
// matches the nonce Dial actually generated.
type fakeServer struct {
	buildResponse func(nonce string) string

	written bytes.Buffer
	resp    bytes.Buffer
	primed  bool
}

func (s *fakeServer) Write(p []byte) (int, error) { return s.written.Write(p) }

func (s *fakeServer) Read(p []byte) (int, error) {
	if !s.primed {
		s.primed = true
		nonce := extractNonce(s.written.String())
		s.resp.WriteString(s.buildResponse(nonce))
	}
	return s.resp.Read(p)
}

func extractNonce(req string) string {
	for _, line := range strings.Split(req, "\r\n") {
		if strings.HasPrefix(line, "Sec-WebSocket-Key:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "Sec-WebSocket-Key:"))
		}
	}
	return ""
}

func okResponse(nonce string, extra ...string) string {
	lines := append([]string{
		"HTTP/1.1 101 Switching Protocols",
		"Upgrade: websocket",
		"Connection: Upgrade",
		"Sec-WebSocket-Accept: " + ws.AcceptKey(nonce),
	}, extra...)
	return strings.Join(lines, "\r\n") + "\r\n\r\n"
}

func chatURL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("ws://example.com/chat")
	if err != nil {
		t.Fatalf("url.Parse: %v", err)
	}
	return u
}

func TestDialHappyPath(t *testing.T) {
	fs := &fakeServer{buildResponse: func(nonce string) string { return okResponse(nonce) }}

	res, err := Dial(fs, chatURL(t), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if res.Protocol != "" {
		t.Fatalf("got protocol %q, want none", res.Protocol)
	}

	req := fs.written.String()
	if !strings.HasPrefix(req, "GET /chat HTTP/1.1\r\n") {
		t.Fatalf("unexpected request line: %q", req)
	}
	if !strings.Contains(req, "Host: example.com\r\n") {
		t.Fatalf("request missing Host header: %q", req)
	}
}

func TestDialSelectsOfferedSubprotocol(t *testing.T) {
	fs := &fakeServer{buildResponse: func(nonce string) string {
		return okResponse(nonce, "Sec-WebSocket-Protocol: chat")
	}}

	res, err := Dial(fs, chatURL(t), []string{"chat", "superchat"})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if res.Protocol != "chat" {
		t.Fatalf("got protocol %q, want %q", res.Protocol, "chat")
	}
}

func TestDialRejectsUnrequestedProtocol(t *testing.T) {
	fs := &fakeServer{buildResponse: func(nonce string) string {
		return okResponse(nonce, "Sec-WebSocket-Protocol: superchat")
	}}

	_, err := Dial(fs, chatURL(t), []string{"chat"})
	if !errors.Is(err, ErrUnrequestedProtocol) {
		t.Fatalf("got %v, want ErrUnrequestedProtocol", err)
	}
}

func TestDialRejectsNonSwitchingStatus(t *testing.T) {
	fs := &fakeServer{buildResponse: func(nonce string) string {
		return "HTTP/1.1 200 OK\r\n\r\n"
	}}

	_, err := Dial(fs, chatURL(t), nil)
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("got %v, want ErrBadStatus", err)
	}
}

func TestDialRejectsBadAcceptKey(t *testing.T) {
	fs := &fakeServer{buildResponse: func(nonce string) string {
		lines := []string{
			"HTTP/1.1 101 Switching Protocols",
			"Upgrade: websocket",
			"Connection: Upgrade",
			"Sec-WebSocket-Accept: bm90dGhlcmlnaHRrZXk=",
		}
		return strings.Join(lines, "\r\n") + "\r\n\r\n"
	}}

	_, err := Dial(fs, chatURL(t), nil)
	if !errors.Is(err, ErrBadAccept) {
		t.Fatalf("got %v, want ErrBadAccept", err)
	}
}

func TestDialRejectsMissingUpgradeHeader(t *testing.T) {
	fs := &fakeServer{buildResponse: func(nonce string) string {
		lines := []string{
			"HTTP/1.1 101 Switching Protocols",
			"Connection: Upgrade",
			"Sec-WebSocket-Accept: " + ws.AcceptKey(nonce),
		}
		return strings.Join(lines, "\r\n") + "\r\n\r\n"
	}}

	_, err := Dial(fs, chatURL(t), nil)
	if !errors.Is(err, ErrResponseBadUpgrade) {
		t.Fatalf("got %v, want ErrResponseBadUpgrade", err)
	}
}
