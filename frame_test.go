package ws

import (
	"bytes"
	"testing"
)

func TestWriteHeaderReadHeaderRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		h    Header
	}{
		{"empty", Header{Fin: true, OpCode: OpText, Length: 0}},
		{"short", Header{Fin: true, OpCode: OpBinary, Length: 125}},
		{"extended16-boundary", Header{Fin: true, OpCode: OpBinary, Length: 126}},
		{"extended16-max", Header{Fin: false, OpCode: OpBinary, Length: 1<<16 - 1}},
		{"extended64-boundary", Header{Fin: true, OpCode: OpBinary, Length: 1 << 16}},
		{"large", Header{Fin: true, OpCode: OpBinary, Length: 1 << 31}},
		{"masked", Header{Fin: true, OpCode: OpText, Length: 5, Masked: true, Mask: [4]byte{1, 2, 3, 4}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteHeader(&buf, tc.h); err != nil {
				t.Fatalf("WriteHeader: %v", err)
			}
			got, err := ReadHeader(&buf)
			if err != nil {
				t.Fatalf("ReadHeader: %v", err)
			}
			if got != tc.h {
				t.Fatalf("round trip mismatch: got %+v, want %+v", got, tc.h)
			}
		})
	}
}

func TestReadHeaderRejectsNonZeroMSBOnExtended64Length(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x80 | byte(OpBinary), 127})
	buf.Write([]byte{0x80, 0, 0, 0, 0, 0, 0, 0}) // high bit set

	if _, err := ReadHeader(&buf); err != ErrHeaderLengthMSB {
		t.Fatalf("got %v, want ErrHeaderLengthMSB", err)
	}
}

func TestWriteFrameReadFrameRoundTrip(t *testing.T) {
	f := NewTextFrame("hello")

	var buf bytes.Buffer
	if err := WriteFrame(&buf, f); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got.Header != f.Header || !bytes.Equal(got.Payload, f.Payload) {
		t.Fatalf("got %+v, want %+v", got, f)
	}
}

func TestMaskFrameInPlaceUnmasksWithCipher(t *testing.T) {
	f := NewTextFrame("round trip me")
	original := append([]byte(nil), f.Payload...)

	masked := MaskFrameInPlace(NewTextFrame("round trip me"))
	if !masked.Header.Masked {
		t.Fatal("expected Masked=true")
	}
	if bytes.Equal(masked.Payload, original) {
		t.Fatal("payload was not masked")
	}

	Cipher(masked.Payload, masked.Header.Mask, 0)
	if !bytes.Equal(masked.Payload, original) {
		t.Fatalf("unmask mismatch: got %q, want %q", masked.Payload, original)
	}
}

func TestNewCloseFrameDataRoundTrip(t *testing.T) {
	p := NewCloseFrameData(StatusPolicyViolation, "because")
	code, reason := ParseCloseFrameData(p)
	if code != StatusPolicyViolation || reason != "because" {
		t.Fatalf("got (%v, %q), want (%v, %q)", code, reason, StatusPolicyViolation, "because")
	}
}

func TestNewCloseFrameDataCropsOversizeReason(t *testing.T) {
	reason := bytes.Repeat([]byte("x"), 200)
	p := NewCloseFrameData(StatusNormalClosure, string(reason))
	if len(p) != MaxControlFramePayloadSize {
		t.Fatalf("got length %d, want %d", len(p), MaxControlFramePayloadSize)
	}
}

func TestParseCloseFrameDataEmptyPayload(t *testing.T) {
	code, reason := ParseCloseFrameData(nil)
	if !code.Empty() || reason != "" {
		t.Fatalf("got (%v, %q), want (0, \"\")", code, reason)
	}
}
