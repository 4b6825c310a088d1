// Package bebob provides a Go interface to the control surface of BeBoB-based
// FireWire audio interfaces. It implements the AV/C command/response protocol
// over the Function Control Protocol (FCP), together with the capability
// layers a mixer front-end needs: media clock frequency, sampling clock
// source, audio feature (level/balance/mute) and audio selector control.
package bebob

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Error sentinels for the transaction layer. Every error returned by this
// package unwraps to exactly one of them, so callers can classify failures
// with errors.Is without inspecting messages.
var (
	// ErrCmdBuild reports that an operand structure could not serialize
	// itself. Nothing was sent to the bus.
	ErrCmdBuild = errors.New("bebob: command build failure")

	// ErrCommunication reports a bus-level failure: timeout, disconnected
	// node, or a malformed reply below the AV/C layer.
	ErrCommunication = errors.New("bebob: communication failure")

	// ErrRespParse reports that a response frame arrived but carried a
	// mismatched address or opcode, an unaccepted status code, or operand
	// bytes the operand structure rejected.
	ErrRespParse = errors.New("bebob: response parse failure")

	// ErrInvalidArgument reports an index or value outside a capability's
	// declared table or range, raised before any transaction is attempted.
	ErrInvalidArgument = errors.New("bebob: invalid argument")
)

// Transactor sends one raw FCP command frame and returns the raw response
// frame, blocking until the response arrives or timeoutMs elapses. An Interim
// response extends the wait for the final response within the same timeout
// budget; callers of this interface never observe Interim frames.
type Transactor interface {
	Transaction(command []byte, timeoutMs uint32) ([]byte, error)
}

// BebobAvc performs AV/C transactions with the quirks specific to the BeBoB
// solution: the status code in the response frame of a few commands is
// against the AV/C general specification in control operations.
//
// A BebobAvc is created once per device session and holds no per-call state.
// Calls on one instance must be serialized by the caller; independent
// instances may be used concurrently.
type BebobAvc struct {
	fcp Transactor
	log zerolog.Logger
}

// NewBebobAvc returns a BebobAvc bound to the given transport. Logging is
// disabled until SetLogger is called.
func NewBebobAvc(fcp Transactor) *BebobAvc {
	return &BebobAvc{fcp: fcp, log: zerolog.Nop()}
}

// SetLogger enables frame-level trace logging through the given logger.
func (avc *BebobAvc) SetLogger(log zerolog.Logger) {
	avc.log = log
}

// Control performs one state-changing transaction: serialize the operand
// structure, round-trip the frame, verify the status code, and let the
// operand structure parse the response operands back into itself.
func (avc *BebobAvc) Control(addr AvcAddr, op AvcControl, timeoutMs uint32) error {
	operands, err := op.BuildControlOperands(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCmdBuild, err)
	}

	frame := composeCommandFrame(AVC_CTYPE_CONTROL, addr, op.Opcode(), operands)

	rcode, respOperands, err := avc.transaction("control", frame, addr, op.Opcode(), timeoutMs)
	if err != nil {
		return err
	}

	if !controlRespExpected(op.Opcode(), rcode) {
		return fmt.Errorf("%w: unexpected status code 0x%02x for control of opcode 0x%02x",
			ErrRespParse, uint8(rcode), op.Opcode())
	}

	if err := op.ParseControlOperands(addr, respOperands); err != nil {
		return fmt.Errorf("%w: %v", ErrRespParse, err)
	}

	return nil
}

// Status performs one state-querying transaction. The response must carry
// the IMPLEMENTED/STABLE status code.
func (avc *BebobAvc) Status(addr AvcAddr, op AvcStatus, timeoutMs uint32) error {
	operands, err := op.BuildStatusOperands(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCmdBuild, err)
	}

	frame := composeCommandFrame(AVC_CTYPE_STATUS, addr, op.Opcode(), operands)

	rcode, respOperands, err := avc.transaction("status", frame, addr, op.Opcode(), timeoutMs)
	if err != nil {
		return err
	}

	if rcode != AVC_RESP_IMPLEMENTED {
		return fmt.Errorf("%w: unexpected status code 0x%02x for status of opcode 0x%02x",
			ErrRespParse, uint8(rcode), op.Opcode())
	}

	if err := op.ParseStatusOperands(addr, respOperands); err != nil {
		return fmt.Errorf("%w: %v", ErrRespParse, err)
	}

	return nil
}

// transaction round-trips one command frame and splits the response.
func (avc *BebobAvc) transaction(kind string, frame []byte, addr AvcAddr, opcode uint8, timeoutMs uint32) (AvcRespCode, []byte, error) {
	avc.log.Trace().Str("kind", kind).Hex("command", frame).Msg("avc transaction")

	resp, err := avc.fcp.Transaction(frame, timeoutMs)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrCommunication, err)
	}

	rcode, operands, err := parseResponseFrame(resp, addr, opcode)
	if err != nil {
		return 0, nil, err
	}

	avc.log.Trace().Str("kind", kind).Uint8("rcode", uint8(rcode)).Hex("operands", operands).Msg("avc response")

	return rcode, operands, nil
}

// controlRespExpected applies the status-code acceptance policy for control
// operations. BeBoB firmware answers INPUT PLUG SIGNAL FORMAT, OUTPUT PLUG
// SIGNAL FORMAT and SIGNAL SOURCE control commands with the reserved code
// 0x00 instead of ACCEPTED; for those three opcodes both codes pass.
func controlRespExpected(opcode uint8, rcode AvcRespCode) bool {
	switch opcode {
	case AVC_OPCODE_INPUT_PLUG_SIGNAL_FORMAT,
		AVC_OPCODE_OUTPUT_PLUG_SIGNAL_FORMAT,
		AVC_OPCODE_SIGNAL_SOURCE:
		return rcode == AVC_RESP_ACCEPTED || rcode == AVC_RESP_RESERVED_ZERO
	}

	return rcode == AVC_RESP_ACCEPTED
}
