// Package handshake implements the RFC 6455 opening handshake — the HTTP/1.1
// Upgrade request and response exchanged before a connection may carry
// WebSocket frames — for both roles.
//
// It operates directly on an io.ReadWriter rather than net/http, since the
// server role here owns a raw listening socket (package endpoint) instead of
// an http.Server. Deadlines are the caller's responsibility: set them on the
// underlying connection before calling Accept or Dial.
package handshake
