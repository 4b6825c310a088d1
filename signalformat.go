package bebob

import (
	"fmt"
)

// Opcodes for the plug signal format commands of the AV/C general
// specification.
const (
	AVC_OPCODE_OUTPUT_PLUG_SIGNAL_FORMAT = 0x18
	AVC_OPCODE_INPUT_PLUG_SIGNAL_FORMAT  = 0x19
)

// FMT_IS_AMDTP is the fmt field value identifying an AM824/AMDTP stream in a
// plug signal format.
const FMT_IS_AMDTP = 0x90

// AmdtpEventType identifies the event carried in an AMDTP packet stream.
type AmdtpEventType uint8

const (
	AMDTP_EVENT_AM824 AmdtpEventType = 0x00
)

// amdtpSfcTable maps the sampling frequency code (SFC) used in the FDF field
// to its nominal frequency. The index is the code.
var amdtpSfcTable = []uint32{32000, 44100, 48000, 88200, 96000, 176400, 192000}

// AmdtpFdf describes the FDF field of an AMDTP plug signal format: event
// type, blocking transmission flag, and sampling frequency.
type AmdtpFdf struct {
	EventType AmdtpEventType
	Blocking  bool
	Freq      uint32
}

// Bytes encodes the FDF into its three-byte wire form. The first byte packs
// the event type in the upper nibble, the blocking flag in bit 3 and the SFC
// in the lower three bits; the remaining bytes are unused (0xff). A frequency
// missing from the SFC table yields an error instead of a frame.
func (f AmdtpFdf) Bytes() ([3]uint8, error) {
	var out [3]uint8

	sfc := -1
	for code, freq := range amdtpSfcTable {
		if freq == f.Freq {
			sfc = code

			break
		}
	}
	if sfc < 0 {
		return out, fmt.Errorf("no SFC code for sampling frequency %d", f.Freq)
	}

	b := uint8(f.EventType)<<4 | uint8(sfc)
	if f.Blocking {
		b |= 0x08
	}

	out = [3]uint8{b, 0xff, 0xff}

	return out, nil
}

// ParseAmdtpFdf decodes a three-byte FDF field. The frequency is resolved
// through the SFC table; an unknown code is an error.
func ParseAmdtpFdf(raw [3]uint8) (AmdtpFdf, error) {
	sfc := int(raw[0] & 0x07)
	if sfc >= len(amdtpSfcTable) {
		return AmdtpFdf{}, fmt.Errorf("unknown SFC code 0x%02x in FDF", sfc)
	}

	return AmdtpFdf{
		EventType: AmdtpEventType(raw[0] >> 4),
		Blocking:  raw[0]&0x08 != 0,
		Freq:      amdtpSfcTable[sfc],
	}, nil
}

// PlugSignalFormat is the operand payload shared by the input and output plug
// signal format commands: the plug id, the fmt byte and the three FDF bytes.
type PlugSignalFormat struct {
	PlugID uint8
	Fmt    uint8
	Fdf    [3]uint8
}

func (f *PlugSignalFormat) buildControlOperands() []byte {
	return []byte{f.PlugID, f.Fmt, f.Fdf[0], f.Fdf[1], f.Fdf[2]}
}

func (f *PlugSignalFormat) buildStatusOperands() []byte {
	// Everything but the plug id is filled in by the response.
	return []byte{f.PlugID, 0xff, 0xff, 0xff, 0xff}
}

func (f *PlugSignalFormat) parseOperands(operands []byte) error {
	if len(operands) < 5 {
		return fmt.Errorf("short plug signal format operands: %d bytes", len(operands))
	}

	if operands[0] != f.PlugID {
		return fmt.Errorf("plug signal format response for plug %d, expected %d", operands[0], f.PlugID)
	}

	f.Fmt = operands[1]
	copy(f.Fdf[:], operands[2:5])

	return nil
}

// InputPlugSignalFormat sets or queries the signal format of one of the
// unit's isochronous input plugs.
type InputPlugSignalFormat struct {
	PlugSignalFormat
}

func (op *InputPlugSignalFormat) Opcode() uint8 { return AVC_OPCODE_INPUT_PLUG_SIGNAL_FORMAT }

func (op *InputPlugSignalFormat) BuildControlOperands(_ AvcAddr) ([]byte, error) {
	return op.buildControlOperands(), nil
}

func (op *InputPlugSignalFormat) ParseControlOperands(_ AvcAddr, operands []byte) error {
	return op.parseOperands(operands)
}

func (op *InputPlugSignalFormat) BuildStatusOperands(_ AvcAddr) ([]byte, error) {
	return op.buildStatusOperands(), nil
}

func (op *InputPlugSignalFormat) ParseStatusOperands(_ AvcAddr, operands []byte) error {
	return op.parseOperands(operands)
}

// OutputPlugSignalFormat sets or queries the signal format of one of the
// unit's isochronous output plugs.
type OutputPlugSignalFormat struct {
	PlugSignalFormat
}

func (op *OutputPlugSignalFormat) Opcode() uint8 { return AVC_OPCODE_OUTPUT_PLUG_SIGNAL_FORMAT }

func (op *OutputPlugSignalFormat) BuildControlOperands(_ AvcAddr) ([]byte, error) {
	return op.buildControlOperands(), nil
}

func (op *OutputPlugSignalFormat) ParseControlOperands(_ AvcAddr, operands []byte) error {
	return op.parseOperands(operands)
}

func (op *OutputPlugSignalFormat) BuildStatusOperands(_ AvcAddr) ([]byte, error) {
	return op.buildStatusOperands(), nil
}

func (op *OutputPlugSignalFormat) ParseStatusOperands(_ AvcAddr, operands []byte) error {
	return op.parseOperands(operands)
}
