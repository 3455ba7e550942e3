package ws

import (
	"encoding/binary"
	"io"
)

const (
	maxLen16 = int64(1<<16 - 1)
	maxLen64 = int64(1<<63 - 1)
)

// encodeHeader renders h to its wire bytes, or returns nil and an error if
// h.Length cannot be represented.
func encodeHeader(h Header) ([]byte, error) {
	var extra int
	var lenByte byte
	var wide byte // 0 = none, 16 = uint16 follows, 64 = uint64 follows

	switch {
	case h.Length < 126:
		lenByte = byte(h.Length)
	case h.Length <= maxLen16:
		lenByte = 126
		wide = 16
		extra = 2
	case h.Length <= maxLen64:
		lenByte = 127
		wide = 64
		extra = 8
	default:
		return nil, ErrHeaderLengthUnexpected
	}

	if h.Masked {
		extra += 4
	}

	b := make([]byte, 2+extra)
	if h.Fin {
		b[0] |= 0x80
	}
	b[0] |= h.Rsv << 4
	b[0] |= byte(h.OpCode)
	b[1] = lenByte
	if h.Masked {
		b[1] |= 0x80
	}

	pos := 2
	switch wide {
	case 16:
		binary.BigEndian.PutUint16(b[2:], uint16(h.Length))
		pos += 2
	case 64:
		binary.BigEndian.PutUint64(b[2:], uint64(h.Length))
		pos += 8
	}
	if h.Masked {
		copy(b[pos:], h.Mask[:])
	}

	return b, nil
}

// WriteHeader encodes and writes h to w in a single Write call.
func WriteHeader(w io.Writer, h Header) error {
	b, err := encodeHeader(h)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// WriteFrame writes f (header and payload) to w as a single Write call, so
// that a writer shared by concurrent goroutines never has a chance to
// interleave another frame's bytes between this frame's header and its
// payload.
func WriteFrame(w io.Writer, f Frame) error {
	b, err := encodeHeader(f.Header)
	if err != nil {
		return err
	}
	if len(f.Payload) > 0 {
		b = append(b, f.Payload...)
	}
	_, err = w.Write(b)
	return err
}

// HeaderSize returns the number of bytes WriteHeader would emit for h,
// useful for callers sizing a single buffer for header and payload together.
func HeaderSize(h Header) int {
	size := 2
	switch {
	case h.Length >= 126 && h.Length <= maxLen16:
		size += 2
	case h.Length > maxLen16:
		size += 8
	}
	if h.Masked {
		size += 4
	}
	return size
}
