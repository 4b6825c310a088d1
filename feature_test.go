package bebob_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamcat4/bebob"
)

func testFeatureControls() *bebob.FeatureControls {
	return bebob.NewFeatureControls([]bebob.FeatureEntry{
		{FuncBlockID: 1, Ch: bebob.AudioChEach(0)},
		{FuncBlockID: 1, Ch: bebob.AudioChEach(1)},
		{FuncBlockID: 2, Ch: bebob.AudioChEach(0)},
	})
}

func TestFeatureLevelRoundTrip(t *testing.T) {
	dev := newFakeDevice()
	avc := bebob.NewBebobAvc(dev)
	ctl := testFeatureControls()

	require.NoError(t, ctl.WriteLevel(avc, 1, -0x100, testTimeoutMs))

	vol, err := ctl.ReadLevel(avc, 1, testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, int16(-0x100), vol)

	// Other entries stay untouched.
	vol, err = ctl.ReadLevel(avc, 0, testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, int16(0), vol)
}

func TestFeatureLevelUnclampedWrite(t *testing.T) {
	dev := newFakeDevice()
	avc := bebob.NewBebobAvc(dev)
	ctl := testFeatureControls()

	// Values outside the descriptive range go to the wire as-is.
	require.NoError(t, ctl.WriteLevel(avc, 0, 0x7000, testTimeoutMs))

	vol, err := ctl.ReadLevel(avc, 0, testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, int16(0x7000), vol)
}

func TestFeatureLevelNegInfinity(t *testing.T) {
	dev := newFakeDevice()
	avc := bebob.NewBebobAvc(dev)
	ctl := testFeatureControls()

	require.NoError(t, ctl.WriteLevel(avc, 2, bebob.VOLUME_NEG_INFINITY, testTimeoutMs))

	vol, err := ctl.ReadLevel(avc, 2, testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, bebob.VOLUME_NEG_INFINITY, vol)
}

func TestFeatureBalanceRoundTrip(t *testing.T) {
	dev := newFakeDevice()
	avc := bebob.NewBebobAvc(dev)
	ctl := testFeatureControls()

	require.NoError(t, ctl.WriteBalance(avc, 0, 0x80, testTimeoutMs))

	balance, err := ctl.ReadBalance(avc, 0, testTimeoutMs)
	require.NoError(t, err)
	assert.Equal(t, int16(0x80), balance)
}

func TestFeatureMuteRoundTrip(t *testing.T) {
	dev := newFakeDevice()
	avc := bebob.NewBebobAvc(dev)
	ctl := testFeatureControls()

	require.NoError(t, ctl.WriteMute(avc, 1, true, testTimeoutMs))

	mute, err := ctl.ReadMute(avc, 1, testTimeoutMs)
	require.NoError(t, err)
	assert.True(t, mute)

	require.NoError(t, ctl.WriteMute(avc, 1, false, testTimeoutMs))

	mute, err = ctl.ReadMute(avc, 1, testTimeoutMs)
	require.NoError(t, err)
	assert.False(t, mute)
}

func TestFeatureInvalidIndex(t *testing.T) {
	dev := newFakeDevice()
	avc := bebob.NewBebobAvc(dev)
	ctl := testFeatureControls()

	_, err := ctl.ReadLevel(avc, 3, testTimeoutMs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bebob.ErrInvalidArgument))

	err = ctl.WriteLevel(avc, -1, 0, testTimeoutMs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bebob.ErrInvalidArgument))

	assert.Equal(t, 0, dev.calls, "an out-of-range index must not reach the bus")
}

func TestFeatureDefaultRanges(t *testing.T) {
	ctl := testFeatureControls()

	assert.Equal(t, bebob.VOLUME_NEG_INFINITY, ctl.LevelMin)
	assert.Equal(t, int16(0), ctl.LevelMax)
	assert.Equal(t, int16(0x100), ctl.LevelStep)
	assert.Equal(t, bebob.VOLUME_NEG_INFINITY, ctl.BalanceMin)
	assert.Equal(t, bebob.VOLUME_INFINITY, ctl.BalanceMax)
	assert.Equal(t, int16(0x80), ctl.BalanceStep)
}
