package bebob

import (
	"fmt"
)

// AvcCmdType defines the command type carried in the first byte of an AV/C
// command frame. These values correspond to the ctype field in the 1394TA
// AV/C Digital Interface Command Set General Specification.
type AvcCmdType uint8

const (
	AVC_CTYPE_CONTROL          AvcCmdType = 0x00
	AVC_CTYPE_STATUS           AvcCmdType = 0x01
	AVC_CTYPE_SPECIFIC_INQUIRY AvcCmdType = 0x02
	AVC_CTYPE_NOTIFY           AvcCmdType = 0x03
	AVC_CTYPE_GENERAL_INQUIRY  AvcCmdType = 0x04
)

// AvcRespCode defines the response code carried in the first byte of an AV/C
// response frame.
type AvcRespCode uint8

const (
	AVC_RESP_NOT_IMPLEMENTED AvcRespCode = 0x08
	AVC_RESP_ACCEPTED        AvcRespCode = 0x09
	AVC_RESP_REJECTED        AvcRespCode = 0x0a
	AVC_RESP_IN_TRANSITION   AvcRespCode = 0x0b
	AVC_RESP_IMPLEMENTED     AvcRespCode = 0x0c // IMPLEMENTED/STABLE
	AVC_RESP_CHANGED         AvcRespCode = 0x0d
	AVC_RESP_INTERIM         AvcRespCode = 0x0f

	// AVC_RESP_RESERVED_ZERO is outside the response code set defined by the
	// general specification. BeBoB firmware returns it in place of ACCEPTED
	// for a few plug-format opcodes; see controlRespExpected.
	AVC_RESP_RESERVED_ZERO AvcRespCode = 0x00
)

// AvcSubunitType defines the subunit type encoded in the address byte of an
// AV/C frame. Only the types that appear on BeBoB devices are listed.
type AvcSubunitType uint8

const (
	AVC_SUBUNIT_TYPE_MONITOR AvcSubunitType = 0x00
	AVC_SUBUNIT_TYPE_AUDIO   AvcSubunitType = 0x01
	AVC_SUBUNIT_TYPE_MUSIC   AvcSubunitType = 0x0c
)

// The address byte that denotes the unit itself rather than a subunit.
const avcAddrUnitByte = 0xff

// AvcAddr identifies the internal destination of an AV/C command: the unit
// itself, or one subunit addressed by type and id.
type AvcAddr struct {
	Subunit     bool
	SubunitType AvcSubunitType
	SubunitID   uint8
}

// AvcAddrUnit addresses the unit itself.
var AvcAddrUnit = AvcAddr{}

// AudioSubunit0Addr addresses audio subunit 0, the destination of every
// function block operation on BeBoB devices.
var AudioSubunit0Addr = AvcAddr{Subunit: true, SubunitType: AVC_SUBUNIT_TYPE_AUDIO}

// Byte returns the wire encoding of the address: 0xff for the unit, or the
// subunit type in the upper five bits and the subunit id in the lower three.
func (a AvcAddr) Byte() uint8 {
	if !a.Subunit {
		return avcAddrUnitByte
	}

	return uint8(a.SubunitType)<<3 | a.SubunitID&0x07
}

// String returns a human-readable representation of the address.
func (a AvcAddr) String() string {
	if !a.Subunit {
		return "unit"
	}

	return fmt.Sprintf("subunit(type=0x%02x,id=%d)", uint8(a.SubunitType), a.SubunitID)
}

// AvcOp is implemented by every operand structure and names the opcode its
// operands belong to.
type AvcOp interface {
	Opcode() uint8
}

// AvcControl is an operand structure usable in a control transaction. The
// structure serializes itself into command operands and deserializes the
// operands of the matching response back into itself.
type AvcControl interface {
	AvcOp
	BuildControlOperands(addr AvcAddr) ([]byte, error)
	ParseControlOperands(addr AvcAddr, operands []byte) error
}

// AvcStatus is an operand structure usable in a status transaction.
type AvcStatus interface {
	AvcOp
	BuildStatusOperands(addr AvcAddr) ([]byte, error)
	ParseStatusOperands(addr AvcAddr, operands []byte) error
}

// composeCommandFrame builds an AV/C command frame from the command type, the
// addressed target, the opcode and the serialized operands. The frame is a
// fresh byte sequence; it is never reused between transactions.
func composeCommandFrame(ctype AvcCmdType, addr AvcAddr, opcode uint8, operands []byte) []byte {
	frame := make([]byte, 0, 3+len(operands))
	frame = append(frame, uint8(ctype), addr.Byte(), opcode)
	frame = append(frame, operands...)

	return frame
}

// parseResponseFrame splits a response frame into its response code and
// operand bytes. The frame must carry the same address byte and opcode as the
// command it answers; a mismatch is reported as a distinct parse error.
func parseResponseFrame(frame []byte, addr AvcAddr, opcode uint8) (AvcRespCode, []byte, error) {
	if len(frame) < 3 {
		return 0, nil, fmt.Errorf("%w: short response frame: %d bytes", ErrRespParse, len(frame))
	}

	rcode := AvcRespCode(frame[0] & 0x0f)

	if frame[1] != addr.Byte() {
		return 0, nil, fmt.Errorf("%w: response addressed to 0x%02x, expected 0x%02x",
			ErrRespParse, frame[1], addr.Byte())
	}

	if frame[2] != opcode {
		return 0, nil, fmt.Errorf("%w: response for opcode 0x%02x, expected 0x%02x",
			ErrRespParse, frame[2], opcode)
	}

	return rcode, frame[3:], nil
}
