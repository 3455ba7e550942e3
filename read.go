package ws

import (
	"encoding/binary"
	"io"
)

// ReadHeader reads and decodes one frame header from r, per RFC 6455 §5.2:
//
//  1. two bytes carry FIN, RSV1-3, opcode, the mask bit and the 7-bit length;
//  2. a 7-bit length of 126 means the real length follows as a big-endian
//     uint16; 127 means it follows as a big-endian uint64 whose high bit
//     must be zero;
//  3. if the mask bit is set, a 4-byte masking key follows.
//
// It performs no RFC validity checks beyond what is needed to determine the
// header's own length (reserved opcodes, mask direction, control-frame
// limits, and so on are the caller's responsibility via CheckHeader).
func ReadHeader(r io.Reader) (h Header, err error) {
	var b [8]byte

	if _, err = io.ReadFull(r, b[:2]); err != nil {
		return h, err
	}

	h.Fin = b[0]&0x80 != 0
	h.Rsv = (b[0] & 0x70) >> 4
	h.OpCode = OpCode(b[0] & 0x0f)

	masked := b[1]&0x80 != 0
	length := b[1] & 0x7f

	switch {
	case length < 126:
		h.Length = int64(length)
	case length == 126:
		if _, err = io.ReadFull(r, b[:2]); err != nil {
			return h, err
		}
		h.Length = int64(binary.BigEndian.Uint16(b[:2]))
	case length == 127:
		if _, err = io.ReadFull(r, b[:8]); err != nil {
			return h, err
		}
		if b[0]&0x80 != 0 {
			return h, ErrHeaderLengthMSB
		}
		h.Length = int64(binary.BigEndian.Uint64(b[:8]))
	}

	if masked {
		h.Masked = true
		if _, err = io.ReadFull(r, h.Mask[:]); err != nil {
			return h, err
		}
	}

	return h, nil
}

// ReadFrame reads one complete frame (header and payload) from r. The
// payload is returned exactly as it arrived on the wire: if the frame is
// masked, ReadFrame does not unmask it.
func ReadFrame(r io.Reader) (f Frame, err error) {
	f.Header, err = ReadHeader(r)
	if err != nil {
		return f, err
	}
	if f.Header.Length > 0 {
		f.Payload = make([]byte, f.Header.Length)
		if _, err = io.ReadFull(r, f.Payload); err != nil {
			return f, err
		}
	}
	return f, nil
}

// ParseCloseFrameData splits a Close frame's payload into its status code
// and UTF-8 reason. A payload shorter than 2 bytes yields the empty
// StatusCode (0) rather than StatusNoStatusRcvd, so that callers can tell
// "the peer sent no code at all" apart from an actual 1005 on the wire
// (which would itself be a protocol violation).
func ParseCloseFrameData(payload []byte) (code StatusCode, reason string) {
	if len(payload) < 2 {
		return 0, ""
	}
	code = StatusCode(binary.BigEndian.Uint16(payload))
	reason = string(payload[2:])
	return code, reason
}
