package bebob

import (
	"fmt"
)

// SelectorControls operates a group of selector function blocks that route
// one of a set of input plugs to their output. FuncBlockIds holds one entry
// per independent selector control; InputPlugIds is the ordered set of
// selectable sources, shared by every selector in the group.
type SelectorControls struct {
	FuncBlockIds []uint8
	InputPlugIds []uint8
}

// ReadSelector queries the current input plug of the selector at idx and
// returns the plug's index in InputPlugIds.
func (s *SelectorControls) ReadSelector(avc *BebobAvc, idx int, timeoutMs uint32) (int, error) {
	if idx < 0 || idx >= len(s.FuncBlockIds) {
		return 0, fmt.Errorf("%w: invalid index of selector: %d", ErrInvalidArgument, idx)
	}

	op := NewAudioSelector(s.FuncBlockIds[idx], CTL_ATTR_CURRENT, SELECTOR_PLUG_UNSET)
	if err := avc.Status(AudioSubunit0Addr, op, timeoutMs); err != nil {
		return 0, err
	}

	for i, plugID := range s.InputPlugIds {
		if plugID == op.InputPlugID {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: unexpected input plug number: %d", ErrRespParse, op.InputPlugID)
}

// WriteSelector routes InputPlugIds[val] to the output of the selector at
// idx. Both indices are bounds-checked before anything is sent.
func (s *SelectorControls) WriteSelector(avc *BebobAvc, idx, val int, timeoutMs uint32) error {
	if idx < 0 || idx >= len(s.FuncBlockIds) {
		return fmt.Errorf("%w: invalid index of selector: %d", ErrInvalidArgument, idx)
	}

	if val < 0 || val >= len(s.InputPlugIds) {
		return fmt.Errorf("%w: invalid index of input plug number: %d", ErrInvalidArgument, val)
	}

	op := NewAudioSelector(s.FuncBlockIds[idx], CTL_ATTR_CURRENT, s.InputPlugIds[val])

	return avc.Control(AudioSubunit0Addr, op, timeoutMs)
}
