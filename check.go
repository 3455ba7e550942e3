package ws

import "unicode/utf8"

// State tracks the small amount of side information CheckHeader needs to
// validate a frame in context: which role the caller plays, whether an
// extension was negotiated (never true in this implementation, since
// extensions are always rejected during the handshake) and whether a
// fragmented message is currently in progress.
type State uint8

// Individual State bits.
const (
	StateServerSide State = 1 << iota
	StateClientSide
	StateExtended
	StateFragmented
)

// Is reports whether all bits of v are set in s.
func (s State) Is(v State) bool { return s&v == v }

// Set returns s with v's bits enabled.
func (s State) Set(v State) State { return s | v }

// Clear returns s with v's bits disabled.
func (s State) Clear(v State) State { return s &^ v }

// SetOrClearIf sets v's bits when cond is true and clears them otherwise.
func (s State) SetOrClearIf(cond bool, v State) State {
	if cond {
		return s.Set(v)
	}
	return s.Clear(v)
}

// CheckHeader validates h against the RFC 6455 invariants that depend on s:
// reserved opcodes, control frame constraints, reserved bits, mask
// direction, and fragmentation ordering. A zero State checks only the
// role-independent rules.
func CheckHeader(h Header, s State) error {
	if h.OpCode.IsReserved() {
		return ErrProtocolOpCodeReserved
	}
	if h.OpCode.IsControl() {
		if h.Length > MaxControlFramePayloadSize {
			return ErrProtocolControlPayloadOverflow
		}
		if !h.Fin {
			return ErrProtocolControlNotFinal
		}
	}

	switch {
	case h.Rsv != 0 && !s.Is(StateExtended):
		return ErrProtocolNonZeroRsv
	case s.Is(StateServerSide) && !h.Masked:
		return ErrProtocolMaskRequired
	case s.Is(StateClientSide) && h.Masked:
		return ErrProtocolMaskUnexpected
	case s.Is(StateFragmented) && !h.OpCode.IsControl() && h.OpCode != OpContinuation:
		return ErrProtocolContinuationExpected
	case !s.Is(StateFragmented) && h.OpCode == OpContinuation:
		return ErrProtocolContinuationUnexpected
	}

	return nil
}

// CheckCloseFrameData validates a parsed close code and reason against
// RFC 6455 §7.4: the code must be in the assigned protocol range and not one
// of the values an endpoint is forbidden to transmit, and the reason must be
// valid UTF-8. A code of 0 (meaning "no code was sent") is always accepted;
// callers that need "no code" to be an error can check reason/code emptiness
// themselves.
func CheckCloseFrameData(code StatusCode, reason string) error {
	switch {
	case code.Empty():
		return nil
	case code.IsNotUsed():
		return ErrProtocolBadCloseCode
	case code.IsDisallowedOnWire():
		return ErrProtocolBadCloseCode
	case code == StatusNoMeaningYet:
		return ErrProtocolBadCloseCode
	case code.In(StatusRangeProtocol) && !code.IsProtocolDefined():
		return ErrProtocolBadCloseCode
	case !code.In(StatusRangeProtocol) && !code.In(StatusRangeApplication) && !code.In(StatusRangePrivate):
		return ErrProtocolBadCloseCode
	case !utf8.ValidString(reason):
		return ErrProtocolBadCloseReason
	default:
		return nil
	}
}
