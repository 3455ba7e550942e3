// Package ws implements the wire-level core of RFC 6455: frame encoding and
// decoding, masking, and the constants and validity checks that both the
// client and server handshake roles and the connection state machine build
// on. It does not open sockets or perform the HTTP upgrade itself; see the
// handshake package for that, and wsconn for the per-connection state
// machine built on top of these primitives.
package ws
