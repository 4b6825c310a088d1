package bebob

import (
	"fmt"
)

// FeatureEntry addresses one logical level control: a feature function block
// and the channel inside it.
type FeatureEntry struct {
	FuncBlockID uint8
	Ch          AudioCh
}

// Default numeric ranges of the level and balance value spaces. The step
// sizes reflect the granularity BeBoB firmware reports through the
// resolution attribute.
const (
	LEVEL_MIN  = VOLUME_NEG_INFINITY
	LEVEL_MAX  = int16(0)
	LEVEL_STEP = int16(0x100)

	BALANCE_MIN  = VOLUME_NEG_INFINITY
	BALANCE_MAX  = VOLUME_INFINITY
	BALANCE_STEP = int16(0x80)
)

// FeatureControls operates the level, left/right balance and mute controls of
// a group of feature function blocks. Entries is the fixed, ordered table
// translating the 0-based control index the outside layer uses into the
// function block and channel the hardware uses.
//
// The range fields describe the value space for a UI layer; writes are passed
// to the wire unclamped, so a value outside the range surfaces as whatever
// the device does with it.
type FeatureControls struct {
	Entries []FeatureEntry

	LevelMin, LevelMax, LevelStep       int16
	BalanceMin, BalanceMax, BalanceStep int16
}

// NewFeatureControls returns a FeatureControls over the given entries with
// the default level and balance ranges.
func NewFeatureControls(entries []FeatureEntry) *FeatureControls {
	return &FeatureControls{
		Entries:     entries,
		LevelMin:    LEVEL_MIN,
		LevelMax:    LEVEL_MAX,
		LevelStep:   LEVEL_STEP,
		BalanceMin:  BALANCE_MIN,
		BalanceMax:  BALANCE_MAX,
		BalanceStep: BALANCE_STEP,
	}
}

func (f *FeatureControls) entry(idx int) (FeatureEntry, error) {
	if idx < 0 || idx >= len(f.Entries) {
		return FeatureEntry{}, fmt.Errorf("%w: invalid index of function block list: %d", ErrInvalidArgument, idx)
	}

	return f.Entries[idx], nil
}

// ReadLevel returns the current volume of the control at idx.
func (f *FeatureControls) ReadLevel(avc *BebobAvc, idx int, timeoutMs uint32) (int16, error) {
	entry, err := f.entry(idx)
	if err != nil {
		return 0, err
	}

	op := NewAudioFeature(entry.FuncBlockID, CTL_ATTR_CURRENT, entry.Ch, VolumeCtl(-1))
	if err := avc.Status(AudioSubunit0Addr, op, timeoutMs); err != nil {
		return 0, err
	}

	if op.Ctl.Selector != FEATURE_CTL_VOLUME {
		// The decoder guarantees the requested variant; anything else is a
		// programming error, not a device condition.
		panic("bebob: volume status answered with a different control variant")
	}

	return op.Ctl.Volume[0], nil
}

// WriteLevel sets the volume of the control at idx. The value is sent as-is;
// see the range fields for the documented value space.
func (f *FeatureControls) WriteLevel(avc *BebobAvc, idx int, vol int16, timeoutMs uint32) error {
	entry, err := f.entry(idx)
	if err != nil {
		return err
	}

	op := NewAudioFeature(entry.FuncBlockID, CTL_ATTR_CURRENT, entry.Ch, VolumeCtl(vol))

	return avc.Control(AudioSubunit0Addr, op, timeoutMs)
}

// ReadBalance returns the current left/right balance of the control at idx.
func (f *FeatureControls) ReadBalance(avc *BebobAvc, idx int, timeoutMs uint32) (int16, error) {
	entry, err := f.entry(idx)
	if err != nil {
		return 0, err
	}

	op := NewAudioFeature(entry.FuncBlockID, CTL_ATTR_CURRENT, entry.Ch, LrBalanceCtl(-1))
	if err := avc.Status(AudioSubunit0Addr, op, timeoutMs); err != nil {
		return 0, err
	}

	if op.Ctl.Selector != FEATURE_CTL_LR_BALANCE {
		panic("bebob: balance status answered with a different control variant")
	}

	return op.Ctl.Balance, nil
}

// WriteBalance sets the left/right balance of the control at idx.
func (f *FeatureControls) WriteBalance(avc *BebobAvc, idx int, balance int16, timeoutMs uint32) error {
	entry, err := f.entry(idx)
	if err != nil {
		return err
	}

	op := NewAudioFeature(entry.FuncBlockID, CTL_ATTR_CURRENT, entry.Ch, LrBalanceCtl(balance))

	return avc.Control(AudioSubunit0Addr, op, timeoutMs)
}

// ReadMute returns the current mute state of the control at idx.
func (f *FeatureControls) ReadMute(avc *BebobAvc, idx int, timeoutMs uint32) (bool, error) {
	entry, err := f.entry(idx)
	if err != nil {
		return false, err
	}

	op := NewAudioFeature(entry.FuncBlockID, CTL_ATTR_CURRENT, entry.Ch, MuteCtl(false))
	if err := avc.Status(AudioSubunit0Addr, op, timeoutMs); err != nil {
		return false, err
	}

	if op.Ctl.Selector != FEATURE_CTL_MUTE {
		panic("bebob: mute status answered with a different control variant")
	}

	return op.Ctl.Mute[0], nil
}

// WriteMute sets the mute state of the control at idx.
func (f *FeatureControls) WriteMute(avc *BebobAvc, idx int, mute bool, timeoutMs uint32) error {
	entry, err := f.entry(idx)
	if err != nil {
		return err
	}

	op := NewAudioFeature(entry.FuncBlockID, CTL_ATTR_CURRENT, entry.Ch, MuteCtl(mute))

	return avc.Control(AudioSubunit0Addr, op, timeoutMs)
}
