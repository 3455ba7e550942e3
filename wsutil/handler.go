package wsutil

import (
	"io"
	"io/ioutil"
	"strconv"

	"github.com/gobwas/pool/pbytes"
	ws "github.com/miktim/WebSocketServer"
)

// FrameHandler processes a parsed frame header and its payload reader.
type FrameHandler func(h ws.Header, r io.Reader) error

// ClosedError is returned by CloseHandler once it has answered a Close
// frame; it carries the code and reason the peer sent.
type ClosedError struct {
	Code   ws.StatusCode
	Reason string
}

func (err ClosedError) Error() string {
	return "wsutil: closed: " + strconv.FormatUint(uint64(err.Code), 10) + " " + err.Reason
}

// PingHandler returns a FrameHandler that answers a Ping frame with a Pong
// echoing its payload, per RFC 6455 §5.5.2.
func PingHandler(w io.Writer, state ws.State) FrameHandler {
	return func(h ws.Header, r io.Reader) (err error) {
		if h.Length == 0 {
			return ws.WriteHeader(w, ws.Header{
				Fin:    true,
				OpCode: ws.OpPong,
				Masked: state.Is(ws.StateClientSide),
				Mask:   ws.NewMask(),
			})
		}
		if err = ws.CheckHeader(h, state); err != nil {
			sendProtocolErrorCloseFrame(w, state, err)
			return
		}

		p := pbytes.GetLen(int(h.Length))
		defer pbytes.Put(p)
		if _, err = io.ReadFull(r, p); err != nil {
			return
		}

		f := ws.NewFrame(ws.OpPong, true, p)
		return sendFrame(w, state, f)
	}
}

// PongHandler returns a FrameHandler that discards a Pong frame's payload.
// RFC 6455 does not require a response to an unsolicited Pong.
func PongHandler(w io.Writer, state ws.State) FrameHandler {
	return func(h ws.Header, r io.Reader) (err error) {
		if h.Length == 0 {
			return nil
		}
		if err = ws.CheckHeader(h, state); err != nil {
			sendProtocolErrorCloseFrame(w, state, err)
			return
		}

		buf := pbytes.GetLen(int(h.Length))
		defer pbytes.Put(buf)
		_, err = io.CopyBuffer(ioutil.Discard, r, buf)
		return
	}
}

// CloseHandler returns a FrameHandler that validates an incoming Close
// frame, echoes it back per RFC 6455 §5.5.1, and reports the peer's code and
// reason as a ClosedError.
func CloseHandler(w io.Writer, state ws.State) FrameHandler {
	return func(h ws.Header, r io.Reader) (err error) {
		if err = ws.CheckHeader(h, state); err != nil {
			sendProtocolErrorCloseFrame(w, state, err)
			return
		}

		var (
			f      ws.Frame
			code   ws.StatusCode
			reason string
		)
		if h.Length == 0 {
			f = ws.NewFrame(ws.OpClose, true, ws.NewCloseFrameData(ws.StatusNormalClosure, ""))
			code = ws.StatusNoStatusRcvd
		} else {
			p := pbytes.GetLen(int(h.Length))
			defer pbytes.Put(p)
			if _, err = io.ReadFull(r, p); err != nil {
				return
			}

			code, reason = ws.ParseCloseFrameData(p)
			if err = ws.CheckCloseFrameData(code, reason); err != nil {
				sendProtocolErrorCloseFrame(w, state, err)
				return
			}

			// Echo back the code the peer sent, dropping the reason, as
			// RFC 6455 §5.5.1 suggests.
			f = ws.NewFrame(ws.OpClose, true, p[:2])
		}
		if err = sendFrame(w, state, f); err == nil {
			err = ClosedError{Code: code, Reason: reason}
		}
		return
	}
}

// ControlHandler returns a FrameHandler that dispatches ping/pong/close
// frames to the corresponding handler and ignores anything else.
func ControlHandler(w io.Writer, state ws.State) FrameHandler {
	pingHandler := PingHandler(w, state)
	pongHandler := PongHandler(w, state)
	closeHandler := CloseHandler(w, state)

	return func(h ws.Header, r io.Reader) error {
		switch h.OpCode {
		case ws.OpPing:
			return pingHandler(h, r)
		case ws.OpPong:
			return pongHandler(h, r)
		case ws.OpClose:
			return closeHandler(h, r)
		}
		return nil
	}
}

func sendProtocolErrorCloseFrame(w io.Writer, state ws.State, err error) error {
	f := ws.NewCloseFrame(ws.StatusProtocolError, err.Error())
	return sendFrame(w, state, f)
}

func sendFrame(w io.Writer, state ws.State, f ws.Frame) error {
	if state.Is(ws.StateClientSide) {
		f = ws.MaskFrameInPlace(f)
	}
	return ws.WriteFrame(w, f)
}
