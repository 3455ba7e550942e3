package wsutil

import (
	"io"
	"unicode/utf8"
)

// UTF8Reader wraps a message payload reader and validates the bytes read
// through it as UTF-8 incrementally, so a TEXT message can be checked as it
// streams instead of only after being buffered whole (see spec Open
// Question (c): either granularity is conformant, as long as completion of
// the message fails when the bytes are not valid UTF-8).
//
// A multi-byte sequence split across two Read calls is held back in a small
// internal buffer until enough bytes arrive to decode it, so validity is
// judged against complete runes, not arbitrary byte boundaries.
type UTF8Reader struct {
	Source io.Reader

	pending [utf8.UTFMax]byte
	pendN   int
	invalid bool
}

// NewUTF8Reader wraps r for incremental UTF-8 validation.
func NewUTF8Reader(r io.Reader) *UTF8Reader {
	return &UTF8Reader{Source: r}
}

// Read reads and validates the next chunk of the message. It never returns
// an error solely because the payload is invalid UTF-8; call Valid after the
// underlying stream is exhausted to get the final verdict.
func (u *UTF8Reader) Read(p []byte) (n int, err error) {
	if u.pendN > 0 {
		n = copy(p, u.pending[:u.pendN])
		copy(u.pending[:], u.pending[n:u.pendN])
		u.pendN -= n
	}
	if n < len(p) {
		var rn int
		rn, err = u.Source.Read(p[n:])
		n += rn
	}
	if n == 0 {
		return n, err
	}

	u.validate(p[:n], err == io.EOF)
	return n, err
}

// validate scans the trailing bytes of a chunk, holding back any incomplete
// rune at the end (unless final is true, in which case an incomplete rune is
// itself a validity failure) so the next chunk can complete it.
func (u *UTF8Reader) validate(p []byte, final bool) {
	if u.invalid {
		return
	}
	// Only the tail of p can possibly be an in-progress rune; scan
	// backwards up to UTFMax-1 bytes to find where a full rune boundary is,
	// then validate the completed prefix outright.
	end := len(p)
	start := end - (utf8.UTFMax - 1)
	if start < 0 {
		start = 0
	}
	for i := end; i > start; i-- {
		if utf8.RuneStart(p[i-1]) {
			r, size := utf8.DecodeRune(p[i-1:])
			if r == utf8.RuneError && size <= 1 {
				// Definitely broken, no matter what follows.
				break
			}
			if size == end-(i-1) {
				// A complete rune reaches exactly to the end of p: nothing
				// pending, validate the whole chunk normally below.
				break
			}
			// Rune at i-1 is incomplete pending more bytes; validate
			// everything before it now and hold the rest back.
			if !utf8.Valid(p[:i-1]) {
				u.invalid = true
				return
			}
			if final {
				u.invalid = true
				return
			}
			u.pendN = copy(u.pending[:], p[i-1:end])
			return
		}
	}
	if !utf8.Valid(p) {
		u.invalid = true
	}
}

// Valid reports whether every byte seen so far (across all Read calls) forms
// valid UTF-8, and there is no incomplete trailing sequence outstanding.
func (u *UTF8Reader) Valid() bool {
	return !u.invalid && u.pendN == 0
}
