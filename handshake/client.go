package handshake

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/gobwas/pool/pbufio"
	ws "github.com/miktim/WebSocketServer"
)

// ClientResult is what a successful Dial learns from the server's response.
type ClientResult struct {
	// Protocol is the subprotocol the server selected, or "" if none.
	Protocol string
}

// Dial writes a client Upgrade request for u to rw and validates the
// server's response. protocols lists the subprotocols to offer, most
// preferred first.
//
// The caller is responsible for connecting rw and, for "wss" URIs,
// establishing TLS before calling Dial.
func Dial(rw io.ReadWriter, u *url.URL, protocols []string) (ClientResult, error) {
	nonce := ws.NewNonce()

	bw := pbufio.GetWriter(rw, 1024)
	defer pbufio.PutWriter(bw)

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	fmt.Fprintf(bw, "GET %s HTTP/1.1\r\n", path)
	fmt.Fprintf(bw, "Host: %s\r\n", u.Host)
	fmt.Fprintf(bw, "Upgrade: websocket\r\n")
	fmt.Fprintf(bw, "Connection: Upgrade\r\n")
	fmt.Fprintf(bw, "Sec-WebSocket-Key: %s\r\n", nonce)
	fmt.Fprintf(bw, "Sec-WebSocket-Version: 13\r\n")
	if len(protocols) > 0 {
		fmt.Fprintf(bw, "Sec-WebSocket-Protocol: %s\r\n", strings.Join(protocols, ", "))
	}
	fmt.Fprintf(bw, "\r\n")

	if err := bw.Flush(); err != nil {
		return ClientResult{}, err
	}

	br := pbufio.GetReader(oneByteReader{rw}, 1024)
	defer pbufio.PutReader(br)

	line, err := readLine(br)
	if err != nil {
		return ClientResult{}, err
	}
	version, status, _, ok := parseStatusLine(line)
	if !ok {
		return ClientResult{}, ErrMalformedResponse
	}
	if !httpVersionAtLeast11(version) {
		return ClientResult{}, ErrMalformedResponse
	}
	if status != 101 {
		return ClientResult{}, ErrBadStatus
	}

	var (
		res         ClientResult
		haveUpgrade bool
		haveConnection bool
		haveAccept  bool
	)
	for {
		line, err := readLine(br)
		if err != nil {
			return ClientResult{}, err
		}
		if line == "" {
			break
		}
		key, value, ok := parseHeaderLine(line)
		if !ok {
			return ClientResult{}, ErrMalformedResponse
		}

		switch key {
		case "Upgrade":
			haveUpgrade = strings.EqualFold(value, "websocket")
		case "Connection":
			haveConnection = hasToken(value, "upgrade")
		case "Sec-Websocket-Accept":
			haveAccept = ws.CheckAcceptKey(nonce, value)
		case "Sec-Websocket-Protocol":
			if !containsFold(protocols, value) {
				return ClientResult{}, ErrUnrequestedProtocol
			}
			res.Protocol = value
		}
	}

	switch {
	case !haveUpgrade:
		return ClientResult{}, ErrResponseBadUpgrade
	case !haveConnection:
		return ClientResult{}, ErrResponseBadConnection
	case !haveAccept:
		return ClientResult{}, ErrBadAccept
	}

	return res, nil
}

// oneByteReader limits every Read to a single byte, so the buffered reader
// parsing the response head never consumes bytes past its blank line: frames
// the server sends right after the 101 response stay on rw for the
// connection to read.
type oneByteReader struct{ r io.Reader }

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return o.r.Read(p)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
