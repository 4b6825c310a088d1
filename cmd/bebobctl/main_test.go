package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamcat4/bebob"
)

// fakeUnit answers FCP command frames the way a BeBoB unit does, with just
// enough state for the subcommands to run end to end. It implements
// bebob.Transactor.
type fakeUnit struct {
	freq     uint32
	clockSrc [2]byte
	clockDst [2]byte

	volumes   map[[2]uint8]int16
	mutes     map[[2]uint8]bool
	selectors map[uint8]uint8
}

func newFakeUnit() *fakeUnit {
	return &fakeUnit{
		freq:      44100,
		clockSrc:  [2]byte{0x60, 0x05},
		clockDst:  [2]byte{0x60, 0x05},
		volumes:   make(map[[2]uint8]int16),
		mutes:     make(map[[2]uint8]bool),
		selectors: make(map[uint8]uint8),
	}
}

func (u *fakeUnit) Transaction(command []byte, timeoutMs uint32) ([]byte, error) {
	if len(command) < 3 {
		return nil, fmt.Errorf("fake unit: short command frame")
	}

	ctype := command[0]
	addr := command[1]
	opcode := command[2]
	operands := command[3:]

	isControl := ctype == uint8(bebob.AVC_CTYPE_CONTROL)

	rcode := uint8(bebob.AVC_RESP_IMPLEMENTED)
	if isControl {
		rcode = uint8(bebob.AVC_RESP_ACCEPTED)
	}

	var resp []byte
	var err error

	switch opcode {
	case bebob.AVC_OPCODE_SIGNAL_SOURCE:
		resp, err = u.handleSignalSource(isControl, operands)
	case bebob.AVC_OPCODE_EXTENDED_STREAM_FORMAT:
		resp, err = u.handleStreamFormat(operands)
	case bebob.AVC_OPCODE_FUNCTION_BLOCK:
		resp, err = u.handleFunctionBlock(isControl, operands)
	default:
		return nil, fmt.Errorf("fake unit: unhandled opcode 0x%02x", opcode)
	}
	if err != nil {
		return nil, err
	}

	return append([]byte{rcode, addr, opcode}, resp...), nil
}

func (u *fakeUnit) handleSignalSource(isControl bool, operands []byte) ([]byte, error) {
	if len(operands) != 5 {
		return nil, fmt.Errorf("fake unit: signal source operands of %d bytes", len(operands))
	}

	if operands[3] != u.clockDst[0] || operands[4] != u.clockDst[1] {
		return nil, fmt.Errorf("fake unit: unknown signal destination %02x.%02x",
			operands[3], operands[4])
	}

	if isControl {
		u.clockSrc = [2]byte{operands[1], operands[2]}

		return append([]byte(nil), operands...), nil
	}

	return []byte{0xff, u.clockSrc[0], u.clockSrc[1], operands[3], operands[4]}, nil
}

func (u *fakeUnit) handleStreamFormat(operands []byte) ([]byte, error) {
	if len(operands) < 7 {
		return nil, fmt.Errorf("fake unit: stream format operands of %d bytes", len(operands))
	}

	format, err := (&bebob.CompoundAm824Stream{
		Freq:    u.freq,
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

func (u *fakeUnit) handleFunctionBlock(isControl bool, operands []byte) ([]byte, error) {
	if len(operands) < 6 {
		return nil, fmt.Errorf("fake unit: function block operands of %d bytes", len(operands))
	}

	blockType := operands[0]
	fbID := operands[1]

	switch blockType {
	case bebob.FUNC_BLOCK_TYPE_SELECTOR:
		if isControl {
			u.selectors[fbID] = operands[4]

			return append([]byte(nil), operands...), nil
		}

		resp := append([]byte(nil), operands...)
		resp[4] = u.selectors[fbID]

		return resp, nil

	case bebob.FUNC_BLOCK_TYPE_FEATURE:
		if len(operands) < 7 {
			return nil, fmt.Errorf("fake unit: short feature operands")
		}

		key := [2]uint8{fbID, operands[4]}
		selector := operands[5]

		if isControl {
			switch selector {
			case bebob.FEATURE_CTL_VOLUME:
				u.volumes[key] = int16(binary.BigEndian.Uint16(operands[7:]))
			case bebob.FEATURE_CTL_MUTE:
				u.mutes[key] = operands[7] == 0x70
			default:
				return nil, fmt.Errorf("fake unit: unknown feature selector 0x%02x", selector)
			}

			return append([]byte(nil), operands...), nil
		}

		resp := append([]byte(nil), operands...)
		switch selector {
		case bebob.FEATURE_CTL_VOLUME:
			binary.BigEndian.PutUint16(resp[7:], uint16(u.volumes[key]))
		case bebob.FEATURE_CTL_MUTE:
			if u.mutes[key] {
				resp[7] = 0x70
			} else {
				resp[7] = 0x60
			}
		default:
			return nil, fmt.Errorf("fake unit: unknown feature selector 0x%02x", selector)
		}

		return resp, nil

	default:
		return nil, fmt.Errorf("fake unit: unknown function block type 0x%02x", blockType)
	}
}

// fakeSession binds a fake unit to a model's capability tables, skipping the
// character device entirely.
func fakeSession(t *testing.T, unit *fakeUnit, modelName string) *session {
	t.Helper()

	model, err := bebob.LookupModel(modelName)
	require.NoError(t, err)

	return &session{avc: bebob.NewBebobAvc(unit), model: model}
}

// runCtl executes bebobctl with the given arguments against an injected
// session and returns what it printed.
func runCtl(t *testing.T, s *session, args ...string) (string, error) {
	t.Helper()

	prev := openSessionFn
	openSessionFn = func(ctlConfig, zerolog.Logger) (*session, error) { return s, nil }
	t.Cleanup(func() { openSessionFn = prev })

	cfgFile = writeConfig(t, "")
	deviceFlag = ""
	modelFlag = ""

	stdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	rootCmd.SetArgs(args)
	execErr := rootCmd.Execute()

	w.Close()
	os.Stdout = stdout

	out, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(out), execErr
}

func TestClockShow(t *testing.T) {
	unit := newFakeUnit()

	out, err := runCtl(t, fakeSession(t, unit, "audiophile"), "clock")
	require.NoError(t, err)

	assert.Contains(t, out, "media clock: 44100 Hz")
	assert.Contains(t, out, "sampling clock source: Internal")
}

func TestClockSetSource(t *testing.T) {
	unit := newFakeUnit()

	_, err := runCtl(t, fakeSession(t, unit, "audiophile"), "clock", "src", "1")
	require.NoError(t, err)

	// S/PDIF is external unit plug 2.
	assert.Equal(t, [2]byte{0xff, 0x82}, unit.clockSrc)
}

func TestClockUnknownParameter(t *testing.T) {
	_, err := runCtl(t, fakeSession(t, newFakeUnit(), "audiophile"), "clock", "rate", "1")
	assert.ErrorContains(t, err, "unknown clock parameter")
}

func TestLevelListGroups(t *testing.T) {
	out, err := runCtl(t, fakeSession(t, newFakeUnit(), "audiophile"), "level")
	require.NoError(t, err)

	assert.Contains(t, out, "phys-input-gain (4 ports)")
	assert.Contains(t, out, "headphone-volume (2 ports)")
}

func TestLevelWriteAndRead(t *testing.T) {
	unit := newFakeUnit()
	s := fakeSession(t, unit, "audiophile")

	_, err := runCtl(t, s, "level", "phys-input-gain", "0", "-256")
	require.NoError(t, err)

	// phys-input-gain port 0 is function block 3, left channel.
	assert.Equal(t, int16(-256), unit.volumes[[2]uint8{3, 1}])

	out, err := runCtl(t, s, "level", "phys-input-gain")
	require.NoError(t, err)
	assert.Contains(t, out, "analog-input-1")
	assert.Contains(t, out, "-256")
}

func TestLevelUnknownGroup(t *testing.T) {
	_, err := runCtl(t, fakeSession(t, newFakeUnit(), "audiophile"), "level", "bogus")
	assert.ErrorContains(t, err, "unknown feature group")
}

func TestMuteToggle(t *testing.T) {
	unit := newFakeUnit()
	s := fakeSession(t, unit, "audiophile")

	_, err := runCtl(t, s, "mute", "phys-input-gain", "1", "on")
	require.NoError(t, err)
	assert.True(t, unit.mutes[[2]uint8{3, 2}])

	out, err := runCtl(t, s, "mute", "phys-input-gain", "1")
	require.NoError(t, err)
	assert.Equal(t, "on\n", out)
}

func TestSelectorListing(t *testing.T) {
	unit := newFakeUnit()
	unit.selectors[4] = 3

	out, err := runCtl(t, fakeSession(t, unit, "audiophile"), "selector", "headphone-source")
	require.NoError(t, err)

	assert.Contains(t, out, "headphone-1/2")
	assert.Contains(t, out, "aux-output-1/2")
}

func TestOpenSessionRequiresModel(t *testing.T) {
	_, err := openSession(ctlConfig{Device: "/dev/fw1"}, zerolog.Nop())
	assert.ErrorContains(t, err, "no model configured")
}

func TestOpenSessionUnknownModel(t *testing.T) {
	_, err := openSession(ctlConfig{Device: "/dev/fw1", Model: "bogus"}, zerolog.Nop())
	assert.ErrorIs(t, err, bebob.ErrInvalidArgument)
}
