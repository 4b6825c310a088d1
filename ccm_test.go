package bebob_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamcat4/bebob"
)

func TestSignalSourceStatus(t *testing.T) {
	dev := newFakeDevice()
	dev.clockSrc = [2]byte{0xff, 0x82} // external unit plug 2
	avc := bebob.NewBebobAvc(dev)

	op := bebob.NewSignalSource(bebob.SignalSubunit(bebob.AVC_SUBUNIT_TYPE_MUSIC, 0, 5))
	require.NoError(t, avc.Status(bebob.AvcAddrUnit, op, testTimeoutMs))

	assert.Equal(t, bebob.SignalUnitExt(2), op.Src)
}

func TestSignalSourceControl(t *testing.T) {
	dev := newFakeDevice()
	avc := bebob.NewBebobAvc(dev)

	op := bebob.NewSignalSource(bebob.SignalSubunit(bebob.AVC_SUBUNIT_TYPE_MUSIC, 0, 5))
	op.Src = bebob.SignalUnitExt(2)
	require.NoError(t, avc.Control(bebob.AvcAddrUnit, op, testTimeoutMs))

	assert.Equal(t, [2]byte{0xff, 0x82}, dev.clockSrc)
}

func TestSignalAddrString(t *testing.T) {
	assert.Equal(t, "unit(isoc,plug=0)", bebob.SignalUnitIsoc(0).String())
	assert.Equal(t, "unit(ext,plug=2)", bebob.SignalUnitExt(2).String())
	assert.Equal(t, "subunit(type=0x0c,id=0,plug=5)",
		bebob.SignalSubunit(bebob.AVC_SUBUNIT_TYPE_MUSIC, 0, 5).String())
}

func TestSignalAddrComparable(t *testing.T) {
	// Reverse lookup in the clock source list relies on == between addresses.
	a := bebob.SignalSubunit(bebob.AVC_SUBUNIT_TYPE_MUSIC, 0, 5)
	b := bebob.SignalSubunit(bebob.AVC_SUBUNIT_TYPE_MUSIC, 0, 5)

	assert.True(t, a == b)
	assert.False(t, a == bebob.SignalUnitExt(5))
	assert.False(t, bebob.SignalUnitIsoc(2) == bebob.SignalUnitExt(2))
}
