package bebob_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamcat4/bebob"
)

// fakeRegisterReader serves a canned frame for one register offset.
type fakeRegisterReader struct {
	offset uint64
	frame  []byte
	err    error
}

func (r *fakeRegisterReader) ReadBlock(offset uint64, length uint32, timeoutMs uint32) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	if offset != r.offset {
		return nil, errors.New("address error")
	}

	return r.frame[:length], nil
}

func buildMeterFrame(levels []int32, state uint32) []byte {
	frame := make([]byte, 0, 4*len(levels)+4)
	for _, v := range levels {
		frame = binary.BigEndian.AppendUint32(frame, uint32(v))
	}

	return binary.BigEndian.AppendUint32(frame, state)
}

func TestReadMaudioMeter(t *testing.T) {
	spec := bebob.MaudioMeterSpec{
		PhysInputCount:   2,
		StreamInputCount: 2,
		PhysOutputCount:  2,
		HasSwitch:        true,
	}

	levels := []int32{0x100000, 0x200000, 0x300000, 0x400000, 0x500000, 0x600000}
	reader := &fakeRegisterReader{
		offset: bebob.DM_APPL_METER_OFFSET,
		frame:  buildMeterFrame(levels, 0x01000040),
	}

	meter, err := bebob.ReadMaudioMeter(reader, spec, testTimeoutMs)
	require.NoError(t, err)

	assert.Equal(t, []int32{0x100000, 0x200000}, meter.PhysInputs)
	assert.Equal(t, []int32{0x300000, 0x400000}, meter.StreamInputs)
	assert.Equal(t, []int32{0x500000, 0x600000}, meter.PhysOutputs)
	assert.True(t, meter.Switch)
	assert.Equal(t, int32(0x40), meter.Rotary)
}

func TestReadMaudioMeterNoSwitch(t *testing.T) {
	spec := bebob.MaudioMeterSpec{PhysInputCount: 1, PhysOutputCount: 1}
	require.Equal(t, uint32(8), spec.FrameLength())

	reader := &fakeRegisterReader{
		offset: bebob.DM_APPL_METER_OFFSET,
		frame:  buildMeterFrame([]int32{-0x800000, 0x10}, 0)[:8],
	}

	meter, err := bebob.ReadMaudioMeter(reader, spec, testTimeoutMs)
	require.NoError(t, err)

	assert.Equal(t, []int32{-0x800000}, meter.PhysInputs)
	assert.Empty(t, meter.StreamInputs)
	assert.Equal(t, []int32{0x10}, meter.PhysOutputs)
	assert.False(t, meter.Switch)
}

func TestReadMaudioMeterCommunicationError(t *testing.T) {
	reader := &fakeRegisterReader{err: errors.New("bus gone")}

	_, err := bebob.ReadMaudioMeter(reader, bebob.MaudioMeterSpec{PhysInputCount: 1}, testTimeoutMs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bebob.ErrCommunication))
}

func TestMaudioMeterSpecFrameLength(t *testing.T) {
	spec := bebob.MaudioMeterSpec{
		PhysInputCount:  4,
		PhysOutputCount: 6,
		HasSwitch:       true,
	}

	assert.Equal(t, uint32(44), spec.FrameLength())
}
