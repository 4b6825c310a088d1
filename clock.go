package bebob

import (
	"fmt"
)

// MediaClock selects the frequency of the media clock through the stream
// format of the unit's isochronous plugs. FreqList is the ordered set of
// frequencies the device supports; the index into it is what the outside
// mixer-control layer sees.
type MediaClock struct {
	FreqList []uint32
}

// ReadFreq queries the stream format of isochronous output plug 0 and
// returns the index of its sampling frequency in FreqList.
func (c *MediaClock) ReadFreq(avc *BebobAvc, timeoutMs uint32) (int, error) {
	plugAddr := BcoPlugAddrUnit(BCO_PLUG_DIR_OUTPUT, BCO_PLUG_UNIT_ISOC, 0)
	op := NewExtendedStreamFormatSingle(plugAddr)

	if err := avc.Status(AvcAddrUnit, op, timeoutMs); err != nil {
		return 0, err
	}

	format, err := op.CompoundAm824()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRespParse, err)
	}

	for i, freq := range c.FreqList {
		if freq == format.Freq {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: unexpected frequency for media clock: %d", ErrRespParse, format.Freq)
}

// WriteFreq changes the media clock frequency to FreqList[idx] by setting the
// signal format of input plug 0 and then output plug 0. Both commands must
// succeed. If the second fails after the first succeeded, the input plug
// keeps the new format; no rollback is attempted. The device may answer with
// an Interim response first; the transport absorbs it within the timeout.
func (c *MediaClock) WriteFreq(avc *BebobAvc, idx int, timeoutMs uint32) error {
	if idx < 0 || idx >= len(c.FreqList) {
		return fmt.Errorf("%w: invalid index of frequency: %d", ErrInvalidArgument, idx)
	}

	fdf, err := AmdtpFdf{EventType: AMDTP_EVENT_AM824, Blocking: false, Freq: c.FreqList[idx]}.Bytes()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCmdBuild, err)
	}

	in := &InputPlugSignalFormat{PlugSignalFormat{PlugID: 0, Fmt: FMT_IS_AMDTP, Fdf: fdf}}
	if err := avc.Control(AvcAddrUnit, in, timeoutMs); err != nil {
		return err
	}

	out := &OutputPlugSignalFormat{PlugSignalFormat{PlugID: 0, Fmt: FMT_IS_AMDTP, Fdf: fdf}}

	return avc.Control(AvcAddrUnit, out, timeoutMs)
}

// SamplingClock selects the source of the sampling clock through the signal
// source command. Dst is the destination signal address of the clock input;
// SrcList is the ordered set of candidate sources.
//
// All BeBoB models expose unit isoc plugs 0x00 ("PCR Compound Input") and
// 0x01 ("PCR Sync Input") as syt-driven clock sources, but most firmware does
// not actually run with them, so SrcList usually carries subunit and external
// plug addresses only.
type SamplingClock struct {
	Dst     SignalAddr
	SrcList []SignalAddr
}

// ReadSource queries the current source of Dst and returns its index in
// SrcList.
func (c *SamplingClock) ReadSource(avc *BebobAvc, timeoutMs uint32) (int, error) {
	op := NewSignalSource(c.Dst)

	if err := avc.Status(AvcAddrUnit, op, timeoutMs); err != nil {
		return 0, err
	}

	for i, src := range c.SrcList {
		if src == op.Src {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: unexpected source of sampling clock: %s", ErrRespParse, op.Src)
}

// WriteSource routes SrcList[idx] to Dst. No verification read-back is
// performed; detecting hardware-side clamping is the caller's concern. The
// device may answer with an Interim response first; the transport absorbs it
// within the timeout.
func (c *SamplingClock) WriteSource(avc *BebobAvc, idx int, timeoutMs uint32) error {
	if idx < 0 || idx >= len(c.SrcList) {
		return fmt.Errorf("%w: invalid index of clock source: %d", ErrInvalidArgument, idx)
	}

	op := NewSignalSource(c.Dst)
	op.Src = c.SrcList[idx]

	return avc.Control(AvcAddrUnit, op, timeoutMs)
}
