package wsutil

import (
	"bytes"
	"io"
	"io/ioutil"
	"testing"

	ws "github.com/miktim/WebSocketServer"
)

func writeFrames(t *testing.T, frames ...ws.Frame) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	for _, f := range frames {
		if err := ws.WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	return &buf
}

func TestReaderReassemblesFragmentedText(t *testing.T) {
	src := writeFrames(t,
		ws.NewFrame(ws.OpText, false, []byte("hel")),
		ws.NewFrame(ws.OpContinuation, false, []byte("lo ")),
		ws.NewFrame(ws.OpContinuation, true, []byte("world")),
	)

	r := NewClientSideReader(src)
	r.CheckUTF8 = true

	hdr, err := r.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	if hdr.OpCode != ws.OpText {
		t.Fatalf("got opcode %v, want OpText", hdr.OpCode)
	}

	got, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("got %q, want %q", got, "hello world")
	}
}

// TestReaderValidatesUTF8AcrossContinuations exercises a message whose
// invalid byte sequence is split across a TEXT frame and its CONTINUATION
// frame: the first frame ends mid-codepoint. Reassembly must fail because
// the two bytes 0xC3 0x28 never form a valid UTF-8 sequence, no matter
// which frame each byte arrived in.
func TestReaderValidatesUTF8AcrossContinuations(t *testing.T) {
	src := writeFrames(t,
		ws.NewFrame(ws.OpText, false, []byte{0xC3}),
		ws.NewFrame(ws.OpContinuation, true, []byte{0x28}),
	)

	r := NewClientSideReader(src)
	r.CheckUTF8 = true

	if _, err := r.NextFrame(); err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	if _, err := ioutil.ReadAll(r); err != ErrInvalidUTF8 {
		t.Fatalf("got %v, want ErrInvalidUTF8", err)
	}
}

func TestReaderValidUTF8SplitAcrossContinuationSucceeds(t *testing.T) {
	// "café" split so the two-byte 'é' (0xC3 0xA9) straddles the fragment
	// boundary.
	full := "café"
	src := writeFrames(t,
		ws.NewFrame(ws.OpText, false, []byte(full)[:len(full)-1]),
		ws.NewFrame(ws.OpContinuation, true, []byte(full)[len(full)-1:]),
	)

	r := NewClientSideReader(src)
	r.CheckUTF8 = true

	if _, err := r.NextFrame(); err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	got, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != full {
		t.Fatalf("got %q, want %q", got, full)
	}
}

func TestReaderRunsOnIntermediateForControlFramesMidFragmentation(t *testing.T) {
	src := writeFrames(t,
		ws.NewFrame(ws.OpBinary, false, []byte("a")),
		ws.NewFrame(ws.OpPing, true, []byte("ping-payload")),
		ws.NewFrame(ws.OpContinuation, true, []byte("b")),
	)

	r := NewClientSideReader(src)

	var seenPing []byte
	r.OnIntermediate = func(h ws.Header, payload io.Reader) error {
		if h.OpCode == ws.OpPing {
			var err error
			seenPing, err = ioutil.ReadAll(payload)
			return err
		}
		return nil
	}

	if _, err := r.NextFrame(); err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	got, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "ab" {
		t.Fatalf("got %q, want %q", got, "ab")
	}
	if string(seenPing) != "ping-payload" {
		t.Fatalf("OnIntermediate did not see ping payload, got %q", seenPing)
	}
}

func TestReaderDiscard(t *testing.T) {
	src := writeFrames(t,
		ws.NewFrame(ws.OpBinary, false, []byte("ignored-1")),
		ws.NewFrame(ws.OpContinuation, true, []byte("ignored-2")),
		ws.NewFrame(ws.OpText, true, []byte("kept")),
	)

	r := NewClientSideReader(src)

	if _, err := r.NextFrame(); err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	if err := r.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}

	hdr, err := r.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame after Discard: %v", err)
	}
	if hdr.OpCode != ws.OpText {
		t.Fatalf("got opcode %v, want OpText", hdr.OpCode)
	}
	got, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "kept" {
		t.Fatalf("got %q, want %q", got, "kept")
	}
}
