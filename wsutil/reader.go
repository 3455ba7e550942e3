package wsutil

import (
	"errors"
	"io"
	"io/ioutil"

	ws "github.com/miktim/WebSocketServer"
)

// ErrNoFrameAdvance is returned by Read when it is called before NextFrame
// has produced a data frame to read from.
var ErrNoFrameAdvance = errors.New("wsutil: no frame advance")

// ErrInvalidUTF8 is returned when CheckUTF8 is enabled and a TEXT message's
// payload does not form valid UTF-8.
var ErrInvalidUTF8 = errors.New("wsutil: invalid utf8 payload")

// Reader turns the frame stream read from Source into a stream of message
// payloads: it hides fragmentation, unmasks payloads as it reads them, and
// hands intermediate control frames encountered mid-fragmentation to
// OnIntermediate.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	Source io.Reader
	State  ws.State

	// SkipHeaderCheck disables per-frame RFC 6455 validation. Nothing in
	// this module sets it; normal operation leaves it false.
	SkipHeaderCheck bool

	// CheckUTF8 enables incremental UTF-8 validation of TEXT message
	// payloads. If the bytes read do not form valid UTF-8 by the time the
	// message completes, Read returns ErrInvalidUTF8.
	CheckUTF8 bool

	OnContinuation FrameHandler
	OnIntermediate FrameHandler

	frame io.Reader
	raw   io.LimitedReader
	utf8  UTF8Reader

	// textMessage tracks whether the message currently being reassembled
	// started as TEXT, so continuation frames belonging to it are also fed
	// through utf8 instead of only the message's first frame.
	textMessage bool
}

// NewReader creates a Reader that reads frames from r, validating them
// against s.
func NewReader(r io.Reader, s ws.State) *Reader {
	return &Reader{Source: r, State: s}
}

// NewClientSideReader is a shorthand for NewReader(r, ws.StateClientSide).
func NewClientSideReader(r io.Reader) *Reader {
	return NewReader(r, ws.StateClientSide)
}

// NewServerSideReader is a shorthand for NewReader(r, ws.StateServerSide).
func NewServerSideReader(r io.Reader) *Reader {
	return NewReader(r, ws.StateServerSide)
}

// Read reads the next chunk of the current message's payload, transparently
// crossing fragment boundaries.
//
// The returned error is io.EOF only once the whole message has been read.
// An io.EOF that arrives partway through a fragmented message surfaces as
// io.ErrUnexpectedEOF instead, so callers such as io.ReadAll never mistake a
// truncated message for a complete one.
func (r *Reader) Read(p []byte) (n int, err error) {
	if r.frame == nil {
		if !r.State.Is(ws.StateFragmented) {
			return 0, ErrNoFrameAdvance
		}
		if _, err := r.NextFrame(); err != nil {
			return 0, err
		}
		if r.frame == nil {
			// NextFrame consumed an intermediate control frame and left
			// nothing to read yet.
			return 0, nil
		}
	}

	n, err = r.frame.Read(p)

	if err == io.EOF {
		switch {
		case r.raw.N != 0:
			err = io.ErrUnexpectedEOF
		case r.State.Is(ws.StateFragmented):
			err = nil
			r.resetFragment()
		case r.CheckUTF8 && r.utf8.Source != nil && !r.utf8.Valid():
			err = ErrInvalidUTF8
		default:
			r.reset()
		}
	}

	return
}

// Discard reads and throws away the remainder of the current message,
// including every later fragment.
func (r *Reader) Discard() (err error) {
	for {
		_, err = io.Copy(ioutil.Discard, &r.raw)
		if err != nil {
			break
		}
		if !r.State.Is(ws.StateFragmented) {
			break
		}
		if _, err = r.NextFrame(); err != nil {
			break
		}
	}
	r.reset()
	return err
}

// NextFrame reads the next frame header from Source and prepares r to
// stream its payload. Callers must fully read or Discard the current
// message before calling NextFrame again.
func (r *Reader) NextFrame() (hdr ws.Header, err error) {
	hdr, err = ws.ReadHeader(r.Source)
	if err != nil {
		if err == io.EOF && r.State.Is(ws.StateFragmented) {
			err = io.ErrUnexpectedEOF
		}
		return
	}
	if !r.SkipHeaderCheck {
		if err = ws.CheckHeader(hdr, r.State); err != nil {
			return
		}
	}

	r.raw = io.LimitedReader{R: r.Source, N: hdr.Length}

	frame := io.Reader(&r.raw)
	if hdr.Masked {
		frame = NewCipherReader(frame, hdr.Mask)
	}
	if r.State.Is(ws.StateFragmented) && hdr.OpCode.IsControl() {
		if cb := r.OnIntermediate; cb != nil {
			err = cb(hdr, frame)
		}
		if err == nil {
			_, err = io.Copy(ioutil.Discard, &r.raw)
		}
		return
	}
	if !r.State.Is(ws.StateFragmented) && hdr.OpCode != ws.OpContinuation {
		// Start of a new message: remember whether UTF-8 checking should
		// follow it across its later continuation frames.
		r.textMessage = hdr.OpCode == ws.OpText
	}
	if r.CheckUTF8 && (hdr.OpCode == ws.OpText || (hdr.OpCode == ws.OpContinuation && r.textMessage)) {
		r.utf8.Source = frame
		frame = &r.utf8
	}

	r.frame = frame

	if hdr.OpCode == ws.OpContinuation {
		if cb := r.OnContinuation; cb != nil {
			err = cb(hdr, frame)
		}
	}

	r.State = r.State.SetOrClearIf(!hdr.Fin, ws.StateFragmented)

	return
}

func (r *Reader) resetFragment() {
	r.raw = io.LimitedReader{}
	r.frame = nil
	r.utf8.Source = nil
}

func (r *Reader) reset() {
	r.raw = io.LimitedReader{}
	r.frame = nil
	r.utf8 = UTF8Reader{}
	r.textMessage = false
}

// NextReader reads a single message's header and returns an io.Reader over
// its payload. Unlike Reader.Discard, an unread NextReader result cannot be
// skipped cheaply; prefer Reader directly when messages might be discarded.
func NextReader(r io.Reader, s ws.State) (ws.Header, io.Reader, error) {
	rd := &Reader{Source: r, State: s}
	hdr, err := rd.NextFrame()
	if err != nil {
		return hdr, nil, err
	}
	return hdr, rd, nil
}
