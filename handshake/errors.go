package handshake

import "errors"

// Errors returned by Accept while parsing or validating a client's request.
// Each maps to an HTTP status Accept writes back before returning it.
var (
	ErrBadMethod             = errors.New("handshake: method is not GET")
	ErrBadProto              = errors.New("handshake: HTTP version below 1.1")
	ErrBadHost               = errors.New("handshake: missing Host header")
	ErrBadUpgrade            = errors.New("handshake: missing or invalid Upgrade header")
	ErrBadConnection         = errors.New("handshake: missing or invalid Connection header")
	ErrBadKey                = errors.New("handshake: missing or malformed Sec-WebSocket-Key")
	ErrBadVersion            = errors.New("handshake: unsupported Sec-WebSocket-Version")
	ErrExtensionsUnsupported = errors.New("handshake: Sec-WebSocket-Extensions is not supported")
	ErrMalformedRequest      = errors.New("handshake: malformed request")
)

// Errors returned by Dial while validating a server's response.
var (
	ErrBadStatus             = errors.New("handshake: response status is not 101")
	ErrResponseBadUpgrade    = errors.New("handshake: response missing or invalid Upgrade header")
	ErrResponseBadConnection = errors.New("handshake: response missing or invalid Connection header")
	ErrBadAccept             = errors.New("handshake: Sec-WebSocket-Accept does not match the request key")
	ErrUnrequestedProtocol   = errors.New("handshake: server selected a subprotocol we did not offer")
	ErrMalformedResponse     = errors.New("handshake: malformed response")
)
