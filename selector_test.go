package bebob_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamcat4/bebob"
)

func TestSelectorRoundTrip(t *testing.T) {
	dev := newFakeDevice()
	avc := bebob.NewBebobAvc(dev)

	ctl := &bebob.SelectorControls{
		FuncBlockIds: []uint8{0x01},
		InputPlugIds: []uint8{0x00, 0x02, 0x05},
	}

	require.NoError(t, ctl.WriteSelector(avc, 0, 1, testTimeoutMs))
	assert.Equal(t, uint8(0x02), dev.selectors[0x01])

	idx, err := ctl.ReadSelector(avc, 0, testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestSelectorUnknownPlugReported(t *testing.T) {
	dev := newFakeDevice()
	dev.selectors[0x01] = 0x07 // not in the plug table
	avc := bebob.NewBebobAvc(dev)

	ctl := &bebob.SelectorControls{
		FuncBlockIds: []uint8{0x01},
		InputPlugIds: []uint8{0x00, 0x02, 0x05},
	}

	_, err := ctl.ReadSelector(avc, 0, testTimeoutMs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bebob.ErrRespParse))
}

func TestSelectorInvalidIndices(t *testing.T) {
	dev := newFakeDevice()
	avc := bebob.NewBebobAvc(dev)

	ctl := &bebob.SelectorControls{
		FuncBlockIds: []uint8{0x01, 0x02},
		InputPlugIds: []uint8{0x00, 0x01},
	}

	_, err := ctl.ReadSelector(avc, 2, testTimeoutMs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bebob.ErrInvalidArgument))

	err = ctl.WriteSelector(avc, 0, 2, testTimeoutMs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bebob.ErrInvalidArgument))

	err = ctl.WriteSelector(avc, -1, 0, testTimeoutMs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bebob.ErrInvalidArgument))

	assert.Equal(t, 0, dev.calls)
}

func TestSelectorIndependentBlocks(t *testing.T) {
	dev := newFakeDevice()
	avc := bebob.NewBebobAvc(dev)

	ctl := &bebob.SelectorControls{
		FuncBlockIds: []uint8{0x01, 0x02, 0x03},
		InputPlugIds: []uint8{0x00, 0x01},
	}

	require.NoError(t, ctl.WriteSelector(avc, 0, 1, testTimeoutMs))
	require.NoError(t, ctl.WriteSelector(avc, 2, 0, testTimeoutMs))

	idx, err := ctl.ReadSelector(avc, 0, testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = ctl.ReadSelector(avc, 2, testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}
