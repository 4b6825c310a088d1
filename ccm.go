package bebob

import (
	"fmt"
)

// AVC_OPCODE_SIGNAL_SOURCE is the connection management command of the AV/C
// general specification used to route sampling clock signals.
const AVC_OPCODE_SIGNAL_SOURCE = 0x1a

// SignalAddr identifies one end of a signal connection: an isochronous or
// external plug on the unit, or a plug on a subunit. The zero value is not a
// valid address; use the constructors.
type SignalAddr struct {
	Subunit     bool
	SubunitType AvcSubunitType
	SubunitID   uint8
	Ext         bool
	PlugID      uint8
}

// SignalUnitIsoc addresses an isochronous plug on the unit.
func SignalUnitIsoc(plugID uint8) SignalAddr {
	return SignalAddr{PlugID: plugID}
}

// SignalUnitExt addresses an external plug on the unit.
func SignalUnitExt(plugID uint8) SignalAddr {
	return SignalAddr{Ext: true, PlugID: plugID}
}

// SignalSubunit addresses a plug on a subunit.
func SignalSubunit(sutype AvcSubunitType, suid, plugID uint8) SignalAddr {
	return SignalAddr{Subunit: true, SubunitType: sutype, SubunitID: suid, PlugID: plugID}
}

// bytes returns the two-byte wire encoding: the subunit address byte (0xff
// for the unit) followed by the plug id, with bit 7 of the plug id marking an
// external unit plug.
func (a SignalAddr) bytes() [2]byte {
	if a.Subunit {
		return [2]byte{AvcAddr{Subunit: true, SubunitType: a.SubunitType, SubunitID: a.SubunitID}.Byte(), a.PlugID}
	}

	plug := a.PlugID
	if a.Ext {
		plug |= 0x80
	}

	return [2]byte{avcAddrUnitByte, plug}
}

// parseSignalAddr decodes a two-byte signal address.
func parseSignalAddr(raw [2]byte) SignalAddr {
	if raw[0] == avcAddrUnitByte {
		if raw[1]&0x80 != 0 {
			return SignalUnitExt(raw[1] & 0x7f)
		}

		return SignalUnitIsoc(raw[1])
	}

	return SignalSubunit(AvcSubunitType(raw[0]>>3), raw[0]&0x07, raw[1])
}

// String returns a human-readable representation of the address.
func (a SignalAddr) String() string {
	switch {
	case a.Subunit:
		return fmt.Sprintf("subunit(type=0x%02x,id=%d,plug=%d)", uint8(a.SubunitType), a.SubunitID, a.PlugID)
	case a.Ext:
		return fmt.Sprintf("unit(ext,plug=%d)", a.PlugID)
	default:
		return fmt.Sprintf("unit(isoc,plug=%d)", a.PlugID)
	}
}

// SignalSource queries or changes the source routed to a destination signal
// address. A status transaction fills Src with the current source of Dst; a
// control transaction connects Src to Dst.
type SignalSource struct {
	Src SignalAddr
	Dst SignalAddr
}

// NewSignalSource returns a status query for the current source of dst.
func NewSignalSource(dst SignalAddr) *SignalSource {
	return &SignalSource{Dst: dst}
}

func (op *SignalSource) Opcode() uint8 { return AVC_OPCODE_SIGNAL_SOURCE }

func (op *SignalSource) BuildStatusOperands(_ AvcAddr) ([]byte, error) {
	dst := op.Dst.bytes()

	// The source field is seeded with an invalid address pattern; the
	// response replaces it with the current source.
	return []byte{0xff, 0xff, 0xfe, dst[0], dst[1]}, nil
}

func (op *SignalSource) ParseStatusOperands(_ AvcAddr, operands []byte) error {
	if err := op.checkDst(operands); err != nil {
		return err
	}

	op.Src = parseSignalAddr([2]byte{operands[1], operands[2]})

	return nil
}

func (op *SignalSource) BuildControlOperands(_ AvcAddr) ([]byte, error) {
	src := op.Src.bytes()
	dst := op.Dst.bytes()

	return []byte{0x0f, src[0], src[1], dst[0], dst[1]}, nil
}

func (op *SignalSource) ParseControlOperands(_ AvcAddr, operands []byte) error {
	return op.checkDst(operands)
}

func (op *SignalSource) checkDst(operands []byte) error {
	if len(operands) < 5 {
		return fmt.Errorf("short signal source operands: %d bytes", len(operands))
	}

	dst := op.Dst.bytes()
	if operands[3] != dst[0] || operands[4] != dst[1] {
		return fmt.Errorf("signal source response for destination %02x.%02x, expected %02x.%02x",
			operands[3], operands[4], dst[0], dst[1])
	}

	return nil
}
