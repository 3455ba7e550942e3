package wsutil

import (
	"io"

	"github.com/gobwas/pool/pbytes"
	ws "github.com/miktim/WebSocketServer"
)

const defaultWriteBuffer = 4096

// WriterConfig configures a Writer's opcode and masking behavior.
type WriterConfig struct {
	Op   ws.OpCode
	Mask bool
}

// Writer buffers a message and splits it into wire frames no larger than its
// buffer, fragmenting long messages the way payload_buffer_length controls
// outbound fragmentation for the connection machine.
//
// A Writer is not safe for concurrent use, and must be Flushed once the
// message is complete.
type Writer struct {
	wr  io.Writer
	buf []byte
	n   int

	dirty  bool
	frames int

	op   ws.OpCode
	mask bool
}

// NextWriter returns a Writer with the default buffer size, ready to start
// framing a new message with the given opcode and masking behavior.
func NextWriter(dst io.Writer, op ws.OpCode, mask bool) *Writer {
	return NewWriterSize(dst, 0, WriterConfig{Op: op, Mask: mask})
}

// NewWriter returns a Writer buffering up to defaultWriteBuffer bytes per
// frame.
func NewWriter(dst io.Writer, c WriterConfig) *Writer {
	return NewWriterSize(dst, defaultWriteBuffer, c)
}

// NewWriterSize returns a Writer that fragments its message into frames of
// at most n bytes.
func NewWriterSize(dst io.Writer, n int, c WriterConfig) *Writer {
	if n <= 0 {
		n = defaultWriteBuffer
	}
	return NewWriterBuffer(dst, make([]byte, n), c)
}

// NewWriterBuffer returns a Writer that reuses buf as its frame-sized
// scratch space, letting callers pool that allocation across messages.
func NewWriterBuffer(wr io.Writer, buf []byte, c WriterConfig) *Writer {
	return &Writer{wr: wr, buf: buf, op: c.Op, mask: c.Mask}
}

// Write buffers p, flushing full frames to the underlying writer as the
// buffer fills.
func (w *Writer) Write(p []byte) (n int, err error) {
	w.dirty = true

	for {
		nn := copy(w.buf[w.n:], p)
		p = p[nn:]
		w.n += nn
		n += nn

		if len(p) == 0 {
			break
		}

		if _, err = w.write(w.buf); err != nil {
			break
		}
		w.n = 0
	}
	return
}

// ReadFrom buffers and frames every byte read from src until it is
// exhausted.
func (w *Writer) ReadFrom(src io.Reader) (n int64, err error) {
	w.dirty = true
	var overflow [1]byte
	for {
		if w.n < len(w.buf) {
			var nn int
			nn, err = src.Read(w.buf[w.n:])
			w.n += nn
			n += int64(nn)
			if err != nil {
				break
			}
			continue
		}

		// The buffer is exactly full. Look one byte ahead before deciding
		// this chunk's FIN bit: flushing it as non-final here without
		// knowing whether more data follows would leave a payload that is
		// an exact multiple of the buffer size with no true final frame.
		pn, perr := src.Read(overflow[:])
		if pn == 0 {
			err = perr
			break
		}
		n += int64(pn)
		if _, werr := w.write(w.buf); werr != nil {
			err = werr
			return
		}
		w.n = copy(w.buf, overflow[:pn])
		if perr != nil {
			err = perr
			break
		}
	}
	if err == io.EOF {
		err = nil
	}
	return
}

// Flush emits the buffered tail of the message as a final frame, closing out
// the fragmentation sequence. A Writer that never wrote anything still emits
// a single empty final frame if Write or ReadFrom was called at least once.
func (w *Writer) Flush() error {
	_, err := w.flush()
	return err
}

func (w *Writer) opCode() ws.OpCode {
	if w.frames > 0 {
		return ws.OpContinuation
	}
	return w.op
}

func (w *Writer) flush() (n int, err error) {
	if w.n == 0 && !w.dirty {
		return 0, nil
	}

	n, err = w.writeFrame(w.opCode(), w.buf[:w.n], true)
	w.dirty = false
	w.n = 0
	w.frames = 0

	return
}

func (w *Writer) write(p []byte) (n int, err error) {
	return w.writeFrame(w.opCode(), p, false)
}

// writeFrame emits one wire frame as a single call into w.wr, so a writer
// shared with other frame sources (control-frame replies, liveness pings)
// cannot have its header and payload split apart by a concurrent write.
func (w *Writer) writeFrame(op ws.OpCode, p []byte, fin bool) (n int, err error) {
	header := ws.Header{
		OpCode: op,
		Length: int64(len(p)),
		Fin:    fin,
	}

	payload := p
	if w.mask {
		header.Masked = true
		header.Mask = ws.NewMask()

		payload = pbytes.GetLen(len(p))
		defer pbytes.Put(payload)

		copy(payload, p)
		ws.Cipher(payload, header.Mask, 0)
	}

	if err = ws.WriteFrame(w.wr, ws.Frame{Header: header, Payload: payload}); err == nil {
		n = len(payload)
	}

	w.frames++

	return
}
