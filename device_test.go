package bebob_test

import (
	"encoding/binary"
	"fmt"

	"github.com/dreamcat4/bebob"
)

// fakeDevice emulates the FCP responder of a BeBoB unit: it decodes command
// frames, keeps mixer and clock state, and answers the way the firmware does.
// It implements bebob.Transactor.
type fakeDevice struct {
	calls int

	freq     uint32
	clockSrc [2]byte
	clockDst [2]byte

	volumes   map[[2]uint8]int16
	balances  map[[2]uint8]int16
	mutes     map[[2]uint8]bool
	selectors map[uint8]uint8

	// quirkZero makes control responses of the plug format and signal source
	// opcodes carry the reserved code 0x00 instead of ACCEPTED.
	quirkZero bool

	// failRcode, when non-zero, is returned as the response code of every
	// frame regardless of the command.
	failRcode uint8

	// commErr, when set, is returned instead of any response frame.
	commErr error
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		freq:      44100,
		clockSrc:  [2]byte{0x60, 0x05}, // music subunit 0, plug 5
		clockDst:  [2]byte{0x60, 0x05},
		volumes:   make(map[[2]uint8]int16),
		balances:  make(map[[2]uint8]int16),
		mutes:     make(map[[2]uint8]bool),
		selectors: make(map[uint8]uint8),
	}
}

func (d *fakeDevice) accepted(opcode uint8) uint8 {
	if d.quirkZero {
		switch opcode {
		case bebob.AVC_OPCODE_INPUT_PLUG_SIGNAL_FORMAT,
			bebob.AVC_OPCODE_OUTPUT_PLUG_SIGNAL_FORMAT,
			bebob.AVC_OPCODE_SIGNAL_SOURCE:
			return 0x00
		}
	}

	return uint8(bebob.AVC_RESP_ACCEPTED)
}

func (d *fakeDevice) Transaction(command []byte, timeoutMs uint32) ([]byte, error) {
	d.calls++

	if d.commErr != nil {
		return nil, d.commErr
	}

	if len(command) < 3 {
		return nil, fmt.Errorf("fake device: short command frame")
	}

	ctype := command[0]
	addr := command[1]
	opcode := command[2]
	operands := command[3:]

	if d.failRcode != 0 {
		return append([]byte{d.failRcode, addr, opcode}, operands...), nil
	}

	isControl := ctype == uint8(bebob.AVC_CTYPE_CONTROL)

	rcode := uint8(bebob.AVC_RESP_IMPLEMENTED)
	if isControl {
		rcode = d.accepted(opcode)
	}

	resp, err := d.handle(isControl, opcode, operands)
	if err != nil {
		return nil, err
	}

	return append([]byte{rcode, addr, opcode}, resp...), nil
}

func (d *fakeDevice) handle(isControl bool, opcode uint8, operands []byte) ([]byte, error) {
	switch opcode {
	case bebob.AVC_OPCODE_INPUT_PLUG_SIGNAL_FORMAT, bebob.AVC_OPCODE_OUTPUT_PLUG_SIGNAL_FORMAT:
		return d.handlePlugFormat(isControl, operands)
	case bebob.AVC_OPCODE_SIGNAL_SOURCE:
		return d.handleSignalSource(isControl, operands)
	case bebob.AVC_OPCODE_EXTENDED_STREAM_FORMAT:
		return d.handleStreamFormat(operands)
	case bebob.AVC_OPCODE_FUNCTION_BLOCK:
		return d.handleFunctionBlock(isControl, operands)
	default:
		return nil, fmt.Errorf("fake device: unhandled opcode 0x%02x", opcode)
	}
}

func (d *fakeDevice) handlePlugFormat(isControl bool, operands []byte) ([]byte, error) {
	if len(operands) != 5 {
		return nil, fmt.Errorf("fake device: plug format operands of %d bytes", len(operands))
	}

	if isControl {
		fdf, err := bebob.ParseAmdtpFdf([3]uint8{operands[2], operands[3], operands[4]})
		if err != nil {
			return nil, fmt.Errorf("fake device: %v", err)
		}
		d.freq = fdf.Freq

		return append([]byte(nil), operands...), nil
	}

	fdf, err := bebob.AmdtpFdf{EventType: bebob.AMDTP_EVENT_AM824, Freq: d.freq}.Bytes()
	if err != nil {
		return nil, err
	}

	return []byte{operands[0], bebob.FMT_IS_AMDTP, fdf[0], fdf[1], fdf[2]}, nil
}

func (d *fakeDevice) handleSignalSource(isControl bool, operands []byte) ([]byte, error) {
	if len(operands) != 5 {
		return nil, fmt.Errorf("fake device: signal source operands of %d bytes", len(operands))
	}

	if operands[3] != d.clockDst[0] || operands[4] != d.clockDst[1] {
		return nil, fmt.Errorf("fake device: signal source for unknown destination %02x.%02x",
			operands[3], operands[4])
	}

	if isControl {
		d.clockSrc = [2]byte{operands[1], operands[2]}

		return append([]byte(nil), operands...), nil
	}

	return []byte{0xff, d.clockSrc[0], d.clockSrc[1], operands[3], operands[4]}, nil
}

func (d *fakeDevice) handleStreamFormat(operands []byte) ([]byte, error) {
	if len(operands) < 7 {
		return nil, fmt.Errorf("fake device: stream format operands of %d bytes", len(operands))
	}

	format, err := (&bebob.CompoundAm824Stream{
		Freq:    d.freq,
		Entries: []bebob.CompoundAm824Entry{{Count: 2, Format: 0x06}},
	}).Bytes()
	if err != nil {
		return nil, err
	}

	resp := append([]byte(nil), operands[:6]...)
	resp = append(resp, bebob.STREAM_FORMAT_SUPPORT_ACTIVE)
	resp = append(resp, format...)

	return resp, nil
}

func (d *fakeDevice) handleFunctionBlock(isControl bool, operands []byte) ([]byte, error) {
	if len(operands) < 6 {
		return nil, fmt.Errorf("fake device: function block operands of %d bytes", len(operands))
	}

	blockType := operands[0]
	fbID := operands[1]

	switch blockType {
	case bebob.FUNC_BLOCK_TYPE_SELECTOR:
		if isControl {
			d.selectors[fbID] = operands[4]

			return append([]byte(nil), operands...), nil
		}

		resp := append([]byte(nil), operands...)
		resp[4] = d.selectors[fbID]

		return resp, nil

	case bebob.FUNC_BLOCK_TYPE_FEATURE:
		if len(operands) < 7 {
			return nil, fmt.Errorf("fake device: short feature operands")
		}

		key := [2]uint8{fbID, operands[4]}
		selector := operands[5]
		data := operands[7:]

		if isControl {
			switch selector {
			case bebob.FEATURE_CTL_VOLUME:
				d.volumes[key] = int16(binary.BigEndian.Uint16(data))
			case bebob.FEATURE_CTL_LR_BALANCE:
				d.balances[key] = int16(binary.BigEndian.Uint16(data))
			case bebob.FEATURE_CTL_MUTE:
				d.mutes[key] = data[0] == 0x70
			default:
				return nil, fmt.Errorf("fake device: unknown feature selector 0x%02x", selector)
			}

			return append([]byte(nil), operands...), nil
		}

		resp := append([]byte(nil), operands...)
		switch selector {
		case bebob.FEATURE_CTL_VOLUME:
			binary.BigEndian.PutUint16(resp[7:], uint16(d.volumes[key]))
		case bebob.FEATURE_CTL_LR_BALANCE:
			binary.BigEndian.PutUint16(resp[7:], uint16(d.balances[key]))
		case bebob.FEATURE_CTL_MUTE:
			if d.mutes[key] {
				resp[7] = 0x70
			} else {
				resp[7] = 0x60
			}
		default:
			return nil, fmt.Errorf("fake device: unknown feature selector 0x%02x", selector)
		}

		return resp, nil

	default:
		return nil, fmt.Errorf("fake device: unknown function block type 0x%02x", blockType)
	}
}
