package wsconn

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Params configures a Connection's timeouts, framing, and liveness policy.
// Build one with DefaultParams and adjust it with the With* setters, or
// populate the struct directly.
type Params struct {
	// HandshakeTimeout bounds how long the opening handshake may take. It
	// is the dial timeout of a client connect and the transport deadline
	// until the upgrade completes (see spec Open Question (b)); it plays no
	// part in the Connection Machine's own liveness policy once OPEN.
	HandshakeTimeout time.Duration `validate:"gt=0"`

	// ConnectionTimeout bounds how long a read may block once OPEN. When
	// Ping is enabled, a deadline expiring here triggers a PING instead of
	// tearing the connection down; see Connection's liveness policy.
	ConnectionTimeout time.Duration `validate:"gt=0"`

	// Ping enables the ping/pong liveness policy.
	Ping bool

	// MaxMessageLength bounds the cumulative payload size of one message
	// across all its fragments. Zero means unbounded.
	MaxMessageLength int64 `validate:"gte=0"`

	// PayloadBufferLength is the outbound fragmentation threshold used by
	// send_text/send_binary/send_stream.
	PayloadBufferLength int `validate:"gt=0"`

	// Subprotocols lists the subprotocols this side offers (client) or
	// accepts (server), in preference order.
	Subprotocols []string
}

// DefaultParams returns Params with the defaults spec.md §6 describes.
func DefaultParams() *Params {
	return &Params{
		HandshakeTimeout:    30 * time.Second,
		ConnectionTimeout:   60 * time.Second,
		Ping:                true,
		MaxMessageLength:    0,
		PayloadBufferLength: 32 * 1024,
	}
}

// WithHandshakeTimeout sets HandshakeTimeout and returns p.
func (p *Params) WithHandshakeTimeout(d time.Duration) *Params {
	p.HandshakeTimeout = d
	return p
}

// WithConnectionTimeout sets ConnectionTimeout and returns p.
func (p *Params) WithConnectionTimeout(d time.Duration) *Params {
	p.ConnectionTimeout = d
	return p
}

// WithPing sets Ping and returns p.
func (p *Params) WithPing(enabled bool) *Params {
	p.Ping = enabled
	return p
}

// WithMaxMessageLength sets MaxMessageLength and returns p.
func (p *Params) WithMaxMessageLength(n int64) *Params {
	p.MaxMessageLength = n
	return p
}

// WithPayloadBufferLength sets PayloadBufferLength and returns p.
func (p *Params) WithPayloadBufferLength(n int) *Params {
	p.PayloadBufferLength = n
	return p
}

// WithSubprotocols sets Subprotocols and returns p.
func (p *Params) WithSubprotocols(protocols ...string) *Params {
	p.Subprotocols = protocols
	return p
}

// Validate reports whether p's fields satisfy their constraints.
func (p *Params) Validate() error {
	return validator.New().Struct(p)
}
