package bebob

import (
	"encoding/binary"
	"fmt"
)

// AVC_OPCODE_FUNCTION_BLOCK is the function block command of the AV/C Audio
// Subunit Specification, carrying both feature and selector operations.
const AVC_OPCODE_FUNCTION_BLOCK = 0xb8

// Function block types.
const (
	FUNC_BLOCK_TYPE_SELECTOR = 0x80
	FUNC_BLOCK_TYPE_FEATURE  = 0x81
)

// CtlAttr selects which attribute of a control a function block operation
// addresses.
type CtlAttr uint8

const (
	CTL_ATTR_RESOLUTION CtlAttr = 0x01
	CTL_ATTR_MINIMUM    CtlAttr = 0x02
	CTL_ATTR_MAXIMUM    CtlAttr = 0x03
	CTL_ATTR_DEFAULT    CtlAttr = 0x04
	CTL_ATTR_DURATION   CtlAttr = 0x08
	CTL_ATTR_CURRENT    CtlAttr = 0x10
	CTL_ATTR_MOVE       CtlAttr = 0x18
	CTL_ATTR_DELTA      CtlAttr = 0x19
)

// AudioCh selects which channel of a function block an operation addresses.
// Channel numbering on the wire is 1-based; 0x00 is the master channel and
// 0xff addresses all channels.
type AudioCh uint8

const (
	AUDIO_CH_MASTER AudioCh = 0x00
	AUDIO_CH_ALL    AudioCh = 0xff
)

// AudioChEach addresses one specific channel by its 0-based index.
func AudioChEach(ch uint8) AudioCh {
	return AudioCh(ch + 1)
}

// Control selectors of the feature function block.
const (
	FEATURE_CTL_MUTE       = 0x01
	FEATURE_CTL_VOLUME     = 0x02
	FEATURE_CTL_LR_BALANCE = 0x03
)

// Volume and balance endpoints of the signed 16-bit value space. 0x8000
// means negative infinity (full attenuation / full left) and 0x7fff positive
// infinity (full right).
const (
	VOLUME_NEG_INFINITY = int16(-0x8000)
	VOLUME_INFINITY     = int16(0x7fff)
)

// Boolean encoding of the audio subunit specification.
const (
	audioBoolTrue  = 0x70
	audioBoolFalse = 0x60
)

// FeatureCtl is the control value carried by an AudioFeature operation.
// Exactly one of the value fields is meaningful, chosen by Selector. The
// constructors build the variant that was requested; the response decoder
// fills the same variant back in.
type FeatureCtl struct {
	Selector uint8
	Volume   []int16
	Balance  int16
	Mute     []bool
}

// VolumeCtl carries one volume value per addressed channel.
func VolumeCtl(vals ...int16) FeatureCtl {
	return FeatureCtl{Selector: FEATURE_CTL_VOLUME, Volume: vals}
}

// LrBalanceCtl carries a left/right balance value.
func LrBalanceCtl(v int16) FeatureCtl {
	return FeatureCtl{Selector: FEATURE_CTL_LR_BALANCE, Balance: v}
}

// MuteCtl carries one mute flag per addressed channel.
func MuteCtl(vals ...bool) FeatureCtl {
	return FeatureCtl{Selector: FEATURE_CTL_MUTE, Mute: vals}
}

func (c *FeatureCtl) dataBytes() ([]byte, error) {
	switch c.Selector {
	case FEATURE_CTL_VOLUME:
		if len(c.Volume) == 0 {
			return nil, fmt.Errorf("volume control without values")
		}
		data := make([]byte, 2*len(c.Volume))
		for i, v := range c.Volume {
			binary.BigEndian.PutUint16(data[2*i:], uint16(v))
		}

		return data, nil
	case FEATURE_CTL_LR_BALANCE:
		data := make([]byte, 2)
		binary.BigEndian.PutUint16(data, uint16(c.Balance))

		return data, nil
	case FEATURE_CTL_MUTE:
		if len(c.Mute) == 0 {
			return nil, fmt.Errorf("mute control without values")
		}
		data := make([]byte, len(c.Mute))
		for i, v := range c.Mute {
			if v {
				data[i] = audioBoolTrue
			} else {
				data[i] = audioBoolFalse
			}
		}

		return data, nil
	default:
		return nil, fmt.Errorf("unknown feature control selector 0x%02x", c.Selector)
	}
}

func (c *FeatureCtl) parseDataBytes(data []byte) error {
	switch c.Selector {
	case FEATURE_CTL_VOLUME:
		if len(data) != 2*len(c.Volume) {
			return fmt.Errorf("volume data of %d bytes for %d channels", len(data), len(c.Volume))
		}
		for i := range c.Volume {
			c.Volume[i] = int16(binary.BigEndian.Uint16(data[2*i:]))
		}
	case FEATURE_CTL_LR_BALANCE:
		if len(data) != 2 {
			return fmt.Errorf("balance data of %d bytes", len(data))
		}
		c.Balance = int16(binary.BigEndian.Uint16(data))
	case FEATURE_CTL_MUTE:
		if len(data) != len(c.Mute) {
			return fmt.Errorf("mute data of %d bytes for %d channels", len(data), len(c.Mute))
		}
		for i, b := range data {
			switch b {
			case audioBoolTrue:
				c.Mute[i] = true
			case audioBoolFalse:
				c.Mute[i] = false
			default:
				return fmt.Errorf("invalid boolean encoding 0x%02x in mute data", b)
			}
		}
	default:
		return fmt.Errorf("unknown feature control selector 0x%02x", c.Selector)
	}

	return nil
}

// AudioFeature is the function block command for a feature block: volume,
// left/right balance or mute of one function block and channel selection.
type AudioFeature struct {
	FuncBlockID uint8
	Attr        CtlAttr
	Ch          AudioCh
	Ctl         FeatureCtl
}

// NewAudioFeature returns a feature operation for the given function block,
// attribute and channel, carrying the given control variant.
func NewAudioFeature(funcBlockID uint8, attr CtlAttr, ch AudioCh, ctl FeatureCtl) *AudioFeature {
	return &AudioFeature{FuncBlockID: funcBlockID, Attr: attr, Ch: ch, Ctl: ctl}
}

func (op *AudioFeature) Opcode() uint8 { return AVC_OPCODE_FUNCTION_BLOCK }

// buildOperands serializes the feature operation: function block type and
// id, control attribute, the two-byte selector (audio channel and control
// selector), then the control data length and data.
func (op *AudioFeature) buildOperands() ([]byte, error) {
	data, err := op.Ctl.dataBytes()
	if err != nil {
		return nil, err
	}

	operands := []byte{
		FUNC_BLOCK_TYPE_FEATURE,
		op.FuncBlockID,
		uint8(op.Attr),
		0x02,
		uint8(op.Ch),
		op.Ctl.Selector,
		uint8(len(data)),
	}

	return append(operands, data...), nil
}

func (op *AudioFeature) parseOperands(operands []byte) error {
	if len(operands) < 7 {
		return fmt.Errorf("short audio feature operands: %d bytes", len(operands))
	}

	if operands[0] != FUNC_BLOCK_TYPE_FEATURE {
		return fmt.Errorf("unexpected function block type 0x%02x", operands[0])
	}
	if operands[1] != op.FuncBlockID {
		return fmt.Errorf("feature response for function block %d, expected %d", operands[1], op.FuncBlockID)
	}
	if operands[4] != uint8(op.Ch) {
		return fmt.Errorf("feature response for audio channel 0x%02x, expected 0x%02x", operands[4], uint8(op.Ch))
	}
	if operands[5] != op.Ctl.Selector {
		return fmt.Errorf("feature response for control 0x%02x, expected 0x%02x", operands[5], op.Ctl.Selector)
	}

	length := int(operands[6])
	if len(operands) < 7+length {
		return fmt.Errorf("audio feature data truncated: %d of %d bytes", len(operands)-7, length)
	}

	return op.Ctl.parseDataBytes(operands[7 : 7+length])
}

func (op *AudioFeature) BuildControlOperands(_ AvcAddr) ([]byte, error) {
	return op.buildOperands()
}

func (op *AudioFeature) ParseControlOperands(_ AvcAddr, operands []byte) error {
	return op.parseOperands(operands)
}

func (op *AudioFeature) BuildStatusOperands(_ AvcAddr) ([]byte, error) {
	return op.buildOperands()
}

func (op *AudioFeature) ParseStatusOperands(_ AvcAddr, operands []byte) error {
	return op.parseOperands(operands)
}

// SELECTOR_PLUG_UNSET is the input plug id placeholder used when querying a
// selector's current state.
const SELECTOR_PLUG_UNSET = 0xff

// AudioSelector is the function block command for a selector block: which
// input plug of the block is routed to its output.
type AudioSelector struct {
	FuncBlockID uint8
	Attr        CtlAttr
	InputPlugID uint8
}

// NewAudioSelector returns a selector operation for the given function
// block. Pass SELECTOR_PLUG_UNSET as the plug id for a status query.
func NewAudioSelector(funcBlockID uint8, attr CtlAttr, inputPlugID uint8) *AudioSelector {
	return &AudioSelector{FuncBlockID: funcBlockID, Attr: attr, InputPlugID: inputPlugID}
}

func (op *AudioSelector) Opcode() uint8 { return AVC_OPCODE_FUNCTION_BLOCK }

func (op *AudioSelector) buildOperands() []byte {
	return []byte{
		FUNC_BLOCK_TYPE_SELECTOR,
		op.FuncBlockID,
		uint8(op.Attr),
		0x02,
		op.InputPlugID,
		0x01, // selector control selector
	}
}

func (op *AudioSelector) parseOperands(operands []byte) error {
	if len(operands) < 6 {
		return fmt.Errorf("short audio selector operands: %d bytes", len(operands))
	}

	if operands[0] != FUNC_BLOCK_TYPE_SELECTOR {
		return fmt.Errorf("unexpected function block type 0x%02x", operands[0])
	}
	if operands[1] != op.FuncBlockID {
		return fmt.Errorf("selector response for function block %d, expected %d", operands[1], op.FuncBlockID)
	}

	op.InputPlugID = operands[4]

	return nil
}

func (op *AudioSelector) BuildControlOperands(_ AvcAddr) ([]byte, error) {
	return op.buildOperands(), nil
}

func (op *AudioSelector) ParseControlOperands(_ AvcAddr, operands []byte) error {
	return op.parseOperands(operands)
}

func (op *AudioSelector) BuildStatusOperands(_ AvcAddr) ([]byte, error) {
	return op.buildOperands(), nil
}

func (op *AudioSelector) ParseStatusOperands(_ AvcAddr, operands []byte) error {
	return op.parseOperands(operands)
}
