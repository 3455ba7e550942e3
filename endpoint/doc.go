// Package endpoint implements the process-wide registry, TLS configuration,
// and listening/dialing surface described by spec.md's Endpoint Registry
// and Server Acceptor components. It sits on top of package handshake for
// the opening HTTP Upgrade and package wsconn for the connection once it is
// open.
package endpoint
