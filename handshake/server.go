package handshake

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gobwas/httphead"
	"github.com/gobwas/pool/pbufio"
	ws "github.com/miktim/WebSocketServer"
)

// ServerResult is what a successful Accept learns about the request.
type ServerResult struct {
	// Protocol is the subprotocol selected from the ones the client
	// offered, or "" if none matched.
	Protocol string

	// Host and URI are the request's Host header and request-target, kept
	// for the connection's request_uri/request_headers bookkeeping.
	Host string
	URI  string

	// Header carries every request header not consumed by the handshake
	// itself, for callers that want to inspect cookies, auth, and so on.
	Header http.Header
}

// StatusError is returned by Accept alongside the HTTP status it already
// wrote back to the peer, so callers can log it without re-deriving it.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string { return fmt.Sprintf("handshake: %d %s", e.Status, e.Err) }
func (e *StatusError) Unwrap() error { return e.Err }

// Accept reads one HTTP/1.1 Upgrade request from rw and, if it is a valid
// WebSocket handshake, writes the 101 response and returns the negotiated
// result. protocols lists the subprotocols this endpoint is willing to
// speak, most preferred first; pass nil to accept none.
//
// On any validation failure Accept writes the corresponding error response
// (400 Bad Request, or 426 Upgrade Required for a version mismatch) before
// returning a *StatusError. The caller still owns closing rw.
func Accept(rw io.ReadWriter, protocols []string) (ServerResult, error) {
	br := pbufio.GetReader(rw, 1024)
	defer pbufio.PutReader(br)

	line, err := readLine(br)
	if err != nil {
		return ServerResult{}, err
	}
	method, uri, version, ok := parseRequestLine(line)
	if !ok {
		return ServerResult{}, fail(rw, http.StatusBadRequest, ErrMalformedRequest)
	}
	if method != http.MethodGet {
		return ServerResult{}, fail(rw, http.StatusBadRequest, ErrBadMethod)
	}
	if !httpVersionAtLeast11(version) {
		return ServerResult{}, fail(rw, http.StatusBadRequest, ErrBadProto)
	}

	res := ServerResult{URI: uri, Header: make(http.Header)}

	var (
		haveUpgrade, haveConnection, haveVersion bool
		nonce                                    string
	)
	for {
		line, err := readLine(br)
		if err != nil {
			return ServerResult{}, err
		}
		if line == "" {
			break
		}
		key, value, ok := parseHeaderLine(line)
		if !ok {
			return ServerResult{}, fail(rw, http.StatusBadRequest, ErrMalformedRequest)
		}

		switch key {
		case "Host":
			res.Host = value
		case "Upgrade":
			haveUpgrade = strings.EqualFold(value, "websocket")
		case "Connection":
			haveConnection = hasToken(value, "upgrade")
		case "Sec-Websocket-Version":
			haveVersion = value == "13"
			if !haveVersion {
				return ServerResult{}, fail(rw, http.StatusUpgradeRequired, ErrBadVersion)
			}
		case "Sec-Websocket-Key":
			nonce = value
		case "Sec-Websocket-Extensions":
			if value != "" {
				return ServerResult{}, fail(rw, http.StatusBadRequest, ErrExtensionsUnsupported)
			}
		case "Sec-Websocket-Protocol":
			if res.Protocol == "" {
				res.Protocol = selectProtocol(value, protocols)
			}
		default:
			res.Header.Add(key, value)
		}
	}

	switch {
	case res.Host == "":
		return ServerResult{}, fail(rw, http.StatusBadRequest, ErrBadHost)
	case !haveUpgrade:
		return ServerResult{}, fail(rw, http.StatusBadRequest, ErrBadUpgrade)
	case !haveConnection:
		return ServerResult{}, fail(rw, http.StatusBadRequest, ErrBadConnection)
	case !haveVersion:
		return ServerResult{}, fail(rw, http.StatusBadRequest, ErrBadVersion)
	case len(nonce) != ws.NonceSize:
		return ServerResult{}, fail(rw, http.StatusBadRequest, ErrBadKey)
	}

	bw := pbufio.GetWriter(rw, 512)
	defer pbufio.PutWriter(bw)

	fmt.Fprintf(bw, "HTTP/1.1 101 Switching Protocols\r\n")
	fmt.Fprintf(bw, "Upgrade: websocket\r\n")
	fmt.Fprintf(bw, "Connection: Upgrade\r\n")
	fmt.Fprintf(bw, "Sec-WebSocket-Accept: %s\r\n", ws.AcceptKey(nonce))
	if res.Protocol != "" {
		fmt.Fprintf(bw, "Sec-WebSocket-Protocol: %s\r\n", res.Protocol)
	}
	fmt.Fprintf(bw, "\r\n")

	if err := bw.Flush(); err != nil {
		return ServerResult{}, err
	}
	return res, nil
}

// selectProtocol returns the first token in offered (a comma-separated
// list, per RFC 6455 §4.3) that also appears in accepted, or "" if none
// does.
func selectProtocol(offered string, accepted []string) (selected string) {
	httphead.ScanTokens([]byte(offered), func(tok []byte) bool {
		for _, want := range accepted {
			if string(tok) == want {
				selected = want
				return false
			}
		}
		return true
	})
	return selected
}

func fail(rw io.ReadWriter, status int, cause error) error {
	bw := pbufio.GetWriter(rw, 256)
	defer pbufio.PutWriter(bw)

	fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, http.StatusText(status))
	fmt.Fprintf(bw, "Connection: close\r\n")
	fmt.Fprintf(bw, "Content-Length: 0\r\n\r\n")
	bw.Flush()

	return &StatusError{Status: status, Err: cause}
}
