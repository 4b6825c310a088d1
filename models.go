package bebob

import (
	"fmt"
	"sort"
)

// FCP_TIMEOUT_MS is the default timeout of one FCP transaction. Changing the
// media clock frequency reconfigures the DSP and needs a larger budget; see
// Model.WriteFreqTimeoutMs.
const FCP_TIMEOUT_MS = 100

// FeatureGroup is one named group of level/balance/mute controls with the
// per-port labels a mixer front-end displays.
type FeatureGroup struct {
	Name       string
	PortLabels []string
	Controls   *FeatureControls
}

// SelectorGroup is one named group of selector controls. SelectorLabels name
// the selectors, ItemLabels the selectable items shared by all of them.
type SelectorGroup struct {
	Name           string
	SelectorLabels []string
	ItemLabels     []string
	Controls       *SelectorControls
}

// Model bundles the capability tables of one supported device. The tables
// are data only; all behavior lives in the generic capability types.
type Model struct {
	Name string

	MediaClock     *MediaClock
	SamplingClock  *SamplingClock
	ClockSrcLabels []string

	Features  []FeatureGroup
	Selectors []SelectorGroup

	// Meter is non-nil for models with a readable hardware meter frame.
	Meter *MaudioMeterSpec

	// WriteFreqTimeoutMs is the timeout for MediaClock.WriteFreq. The firmware
	// reconfigures its DSP on a frequency change and answers late.
	WriteFreqTimeoutMs uint32
}

// stereoPairs expands a list of feature function blocks into entries for the
// left and right channel of each.
func stereoPairs(funcBlockIds ...uint8) []FeatureEntry {
	entries := make([]FeatureEntry, 0, 2*len(funcBlockIds))
	for _, id := range funcBlockIds {
		entries = append(entries,
			FeatureEntry{FuncBlockID: id, Ch: AudioChEach(0)},
			FeatureEntry{FuncBlockID: id, Ch: AudioChEach(1)},
		)
	}

	return entries
}

// quatafire610 is the ESI Quatafire 610. The sampling clock always runs on
// the internal oscillator.
func quatafire610() *Model {
	return &Model{
		Name: "quatafire610",

		MediaClock: &MediaClock{
			FreqList: []uint32{32000, 44100, 48000, 88200, 96000, 176400, 192000},
		},
		SamplingClock: &SamplingClock{
			Dst: SignalSubunit(AVC_SUBUNIT_TYPE_MUSIC, 0, 0x05),
			SrcList: []SignalAddr{
				SignalSubunit(AVC_SUBUNIT_TYPE_MUSIC, 0, 0x05),
			},
		},
		ClockSrcLabels: []string{"Internal"},

		Features: []FeatureGroup{
			{
				Name: "input-gain",
				PortLabels: []string{
					"mic-input-1", "mic-input-2",
					"line-input-1", "line-input-2",
					"S/PDIF-input-1", "S/PDIF-input-2",
				},
				Controls: NewFeatureControls(stereoPairs(1, 2, 3)),
			},
			{
				Name: "output-volume",
				PortLabels: []string{
					"analog-output-1", "analog-output-2",
					"analog-output-3", "analog-output-4",
					"analog-output-5", "analog-output-6",
					"S/PDIF-output-1", "S/PDIF-output-2",
				},
				Controls: NewFeatureControls([]FeatureEntry{
					{FuncBlockID: 4, Ch: AudioChEach(0)},
					{FuncBlockID: 4, Ch: AudioChEach(1)},
					{FuncBlockID: 4, Ch: AudioChEach(2)},
					{FuncBlockID: 4, Ch: AudioChEach(3)},
					{FuncBlockID: 4, Ch: AudioChEach(4)},
					{FuncBlockID: 4, Ch: AudioChEach(5)},
					{FuncBlockID: 4, Ch: AudioChEach(6)},
					{FuncBlockID: 4, Ch: AudioChEach(7)},
				}),
			},
		},

		WriteFreqTimeoutMs: FCP_TIMEOUT_MS * 3,
	}
}

// fwAudiophile is the M-Audio FireWire Audiophile.
func fwAudiophile() *Model {
	return &Model{
		Name: "audiophile",

		MediaClock: &MediaClock{
			FreqList: []uint32{32000, 44100, 48000, 88200, 96000},
		},
		SamplingClock: &SamplingClock{
			Dst: SignalSubunit(AVC_SUBUNIT_TYPE_MUSIC, 0, 0x05),
			SrcList: []SignalAddr{
				SignalSubunit(AVC_SUBUNIT_TYPE_MUSIC, 0, 0x05),
				SignalUnitExt(0x02),
			},
		},
		ClockSrcLabels: []string{"Internal", "S/PDIF"},

		Features: []FeatureGroup{
			{
				Name: "phys-input-gain",
				PortLabels: []string{
					"analog-input-1", "analog-input-2",
					"digital-input-1", "digital-input-2",
				},
				Controls: NewFeatureControls(stereoPairs(3, 4)),
			},
			{
				Name: "aux-source-gain",
				PortLabels: []string{
					"analog-input-1", "analog-input-2",
					"digital-input-1", "digital-input-2",
					"stream-input-1", "stream-input-2",
					"stream-input-3", "stream-input-4",
					"stream-input-5", "stream-input-6",
				},
				Controls: NewFeatureControls(stereoPairs(9, 10, 6, 7, 8)),
			},
			{
				Name:       "aux-output-gain",
				PortLabels: []string{"aux-output-1", "aux-output-2"},
				Controls:   NewFeatureControls(stereoPairs(11)),
			},
			{
				Name: "output-volume",
				PortLabels: []string{
					"analog-output-1", "analog-output-2",
					"analog-output-3", "analog-output-4",
					"digital-output-1", "digital-output-2",
				},
				Controls: NewFeatureControls(stereoPairs(12, 13, 14)),
			},
			{
				Name:       "headphone-volume",
				PortLabels: []string{"headphone-1", "headphone-2"},
				Controls:   NewFeatureControls(stereoPairs(15)),
			},
		},

		Selectors: []SelectorGroup{
			{
				Name: "output-source",
				SelectorLabels: []string{
					"analog-output-1/2",
					"analog-output-3/4",
					"digital-output-1/2",
				},
				ItemLabels: []string{"mixer-output", "aux-output-1/2"},
				Controls: &SelectorControls{
					FuncBlockIds: []uint8{1, 2, 3},
					InputPlugIds: []uint8{0, 1},
				},
			},
			{
				Name:           "headphone-source",
				SelectorLabels: []string{"headphone-1/2"},
				ItemLabels: []string{
					"mixer-output-1/2",
					"mixer-output-3/4",
					"mixer-output-5/6",
					"aux-output-1/2",
				},
				Controls: &SelectorControls{
					FuncBlockIds: []uint8{4},
					InputPlugIds: []uint8{0, 1, 2, 3},
				},
			},
		},

		Meter: &MaudioMeterSpec{
			PhysInputCount:   4,
			StreamInputCount: 0,
			PhysOutputCount:  6,
			HasSwitch:        true,
		},

		WriteFreqTimeoutMs: FCP_TIMEOUT_MS * 3,
	}
}

var modelTable = map[string]func() *Model{
	"quatafire610": quatafire610,
	"audiophile":   fwAudiophile,
}

// LookupModel returns a fresh Model for the given name.
func LookupModel(name string) (*Model, error) {
	ctor, ok := modelTable[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model: %s", ErrInvalidArgument, name)
	}

	return ctor(), nil
}

// ModelNames returns the supported model names in sorted order.
func ModelNames() []string {
	names := make([]string, 0, len(modelTable))
	for name := range modelTable {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
