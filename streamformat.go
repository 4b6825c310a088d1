package bebob

import (
	"fmt"
)

// AVC_OPCODE_EXTENDED_STREAM_FORMAT is the BridgeCo extended stream format
// information command of the AV/C Stream Format Information Specification.
const AVC_OPCODE_EXTENDED_STREAM_FORMAT = 0xbf

// Subfunctions of the extended stream format command.
const (
	streamFormatSubfuncSingle = 0xc0
	streamFormatSubfuncList   = 0xc1
)

// BcoPlugDirection defines the direction of a plug in a BCO plug address.
type BcoPlugDirection uint8

const (
	BCO_PLUG_DIR_INPUT  BcoPlugDirection = 0x00
	BCO_PLUG_DIR_OUTPUT BcoPlugDirection = 0x01
)

// BcoPlugUnitType defines the kind of unit plug in a BCO plug address.
type BcoPlugUnitType uint8

const (
	BCO_PLUG_UNIT_ISOC  BcoPlugUnitType = 0x00
	BCO_PLUG_UNIT_EXT   BcoPlugUnitType = 0x01
	BCO_PLUG_UNIT_ASYNC BcoPlugUnitType = 0x02
)

// Addressing modes inside a BCO plug address.
const (
	bcoPlugModeUnit    = 0x00
	bcoPlugModeSubunit = 0x01
)

// BcoPlugAddr is the five-byte plug address of the BridgeCo extended
// commands. Only unit and subunit modes appear on BeBoB devices.
type BcoPlugAddr struct {
	Direction BcoPlugDirection
	mode      uint8
	UnitType  BcoPlugUnitType
	PlugID    uint8
}

// BcoPlugAddrUnit addresses a plug on the unit itself.
func BcoPlugAddrUnit(dir BcoPlugDirection, unitType BcoPlugUnitType, plugID uint8) BcoPlugAddr {
	return BcoPlugAddr{Direction: dir, mode: bcoPlugModeUnit, UnitType: unitType, PlugID: plugID}
}

// BcoPlugAddrSubunit addresses a plug on the subunit the command is sent to.
func BcoPlugAddrSubunit(dir BcoPlugDirection, plugID uint8) BcoPlugAddr {
	return BcoPlugAddr{Direction: dir, mode: bcoPlugModeSubunit, PlugID: plugID}
}

func (a BcoPlugAddr) bytes() [5]byte {
	switch a.mode {
	case bcoPlugModeSubunit:
		return [5]byte{uint8(a.Direction), a.mode, a.PlugID, 0xff, 0xff}
	default:
		return [5]byte{uint8(a.Direction), a.mode, uint8(a.UnitType), a.PlugID, 0xff}
	}
}

// Support status values reported in an extended stream format response.
const (
	STREAM_FORMAT_SUPPORT_ACTIVE    = 0x00
	STREAM_FORMAT_SUPPORT_INACTIVE  = 0x01
	STREAM_FORMAT_SUPPORT_NO_STREAM = 0x02
	STREAM_FORMAT_SUPPORT_NOT_USED  = 0xff
)

// Stream format hierarchy identifiers.
const (
	streamFormatRootAm        = 0x90 // audio & music hierarchy
	streamFormatAm824Stream   = 0x00
	streamFormatCompoundAm824 = 0x40
)

// bcoFreqCodes maps the frequency code of a compound AM824 format to its
// sampling frequency. The code space is not contiguous.
var bcoFreqCodes = []struct {
	code uint8
	freq uint32
}{
	{0x00, 22050},
	{0x01, 24000},
	{0x02, 32000},
	{0x03, 44100},
	{0x04, 48000},
	{0x05, 96000},
	{0x06, 176400},
	{0x07, 192000},
	{0x0a, 88200},
}

func bcoFreqFromCode(code uint8) (uint32, error) {
	for _, e := range bcoFreqCodes {
		if e.code == code {
			return e.freq, nil
		}
	}

	return 0, fmt.Errorf("unknown frequency code 0x%02x in stream format", code)
}

func bcoCodeFromFreq(freq uint32) (uint8, error) {
	for _, e := range bcoFreqCodes {
		if e.freq == freq {
			return e.code, nil
		}
	}

	return 0, fmt.Errorf("no frequency code for sampling frequency %d", freq)
}

// CompoundAm824Entry is one cluster of an AM824 compound stream: a channel
// count and the stream format code of those channels.
type CompoundAm824Entry struct {
	Count  uint8
	Format uint8
}

// CompoundAm824Stream describes a multiplexed AM824 stream: its sampling
// frequency, whether the stream is a synchronization source, the rate control
// mode, and the per-cluster channel layout.
type CompoundAm824Stream struct {
	Freq    uint32
	SyncSrc bool
	RateCtl uint8
	Entries []CompoundAm824Entry
}

// parseCompoundAm824 decodes a compound AM824 stream format byte sequence:
// root (0x90), level (0x40), frequency code, flags byte (bit 0 sync source,
// bits 1-2 rate control), entry count, then one (count, format) pair per
// entry.
func parseCompoundAm824(raw []byte) (*CompoundAm824Stream, error) {
	if len(raw) < 5 {
		return nil, fmt.Errorf("short stream format: %d bytes", len(raw))
	}

	if raw[0] != streamFormatRootAm || raw[1] != streamFormatCompoundAm824 {
		return nil, fmt.Errorf("not a compound AM824 stream format: 0x%02x 0x%02x", raw[0], raw[1])
	}

	freq, err := bcoFreqFromCode(raw[2])
	if err != nil {
		return nil, err
	}

	count := int(raw[4])
	if len(raw) < 5+2*count {
		return nil, fmt.Errorf("stream format truncated: %d entries in %d bytes", count, len(raw))
	}

	s := &CompoundAm824Stream{
		Freq:    freq,
		SyncSrc: raw[3]&0x01 != 0,
		RateCtl: raw[3] >> 1 & 0x03,
	}
	for i := 0; i < count; i++ {
		s.Entries = append(s.Entries, CompoundAm824Entry{
			Count:  raw[5+2*i],
			Format: raw[6+2*i],
		})
	}

	return s, nil
}

// Bytes encodes the compound AM824 stream format back into its wire form.
func (s *CompoundAm824Stream) Bytes() ([]byte, error) {
	code, err := bcoCodeFromFreq(s.Freq)
	if err != nil {
		return nil, err
	}

	flags := s.RateCtl << 1 & 0x06
	if s.SyncSrc {
		flags |= 0x01
	}

	raw := []byte{streamFormatRootAm, streamFormatCompoundAm824, code, flags, uint8(len(s.Entries))}
	for _, e := range s.Entries {
		raw = append(raw, e.Count, e.Format)
	}

	return raw, nil
}

// ExtendedStreamFormatSingle queries or sets the stream format of one plug
// with the single subfunction of the extended stream format command.
type ExtendedStreamFormatSingle struct {
	PlugAddr BcoPlugAddr
	Support  uint8
	Format   []byte
}

// NewExtendedStreamFormatSingle returns an operation for the given plug.
func NewExtendedStreamFormatSingle(addr BcoPlugAddr) *ExtendedStreamFormatSingle {
	return &ExtendedStreamFormatSingle{PlugAddr: addr, Support: STREAM_FORMAT_SUPPORT_NOT_USED}
}

func (op *ExtendedStreamFormatSingle) Opcode() uint8 { return AVC_OPCODE_EXTENDED_STREAM_FORMAT }

// CompoundAm824 interprets the returned format bytes as a compound AM824
// stream.
func (op *ExtendedStreamFormatSingle) CompoundAm824() (*CompoundAm824Stream, error) {
	return parseCompoundAm824(op.Format)
}

func (op *ExtendedStreamFormatSingle) buildOperands(format []byte) []byte {
	plug := op.PlugAddr.bytes()

	operands := make([]byte, 0, 7+len(format))
	operands = append(operands, streamFormatSubfuncSingle)
	operands = append(operands, plug[:]...)
	operands = append(operands, 0xff)
	operands = append(operands, format...)

	return operands
}

func (op *ExtendedStreamFormatSingle) parseOperands(operands []byte) error {
	if len(operands) < 7 {
		return fmt.Errorf("short extended stream format operands: %d bytes", len(operands))
	}

	if operands[0] != streamFormatSubfuncSingle {
		return fmt.Errorf("unexpected stream format subfunction 0x%02x", operands[0])
	}

	plug := op.PlugAddr.bytes()
	for i := 0; i < 5; i++ {
		if operands[1+i] != plug[i] {
			return fmt.Errorf("stream format response for a different plug address")
		}
	}

	op.Support = operands[6]
	op.Format = append([]byte(nil), operands[7:]...)

	return nil
}

func (op *ExtendedStreamFormatSingle) BuildStatusOperands(_ AvcAddr) ([]byte, error) {
	return op.buildOperands(nil), nil
}

func (op *ExtendedStreamFormatSingle) ParseStatusOperands(_ AvcAddr, operands []byte) error {
	return op.parseOperands(operands)
}

func (op *ExtendedStreamFormatSingle) BuildControlOperands(_ AvcAddr) ([]byte, error) {
	if len(op.Format) == 0 {
		return nil, fmt.Errorf("no stream format to set")
	}

	return op.buildOperands(op.Format), nil
}

func (op *ExtendedStreamFormatSingle) ParseControlOperands(_ AvcAddr, operands []byte) error {
	return op.parseOperands(operands)
}
