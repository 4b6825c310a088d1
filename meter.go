package bebob

import (
	"encoding/binary"
	"fmt"
)

// Register layout of the DM1000 application space on M-Audio firmware. The
// hardware meter frame sits in a window of the space and is refreshed by the
// firmware; reading it has no side effects.
const (
	DM_APPL_OFFSET       = 0xffc700000000
	DM_APPL_METER_OFFSET = DM_APPL_OFFSET + 0x00600000
)

// RegisterReader reads a block from the node's address space. FwNode
// satisfies it.
type RegisterReader interface {
	ReadBlock(offset uint64, length uint32, timeoutMs uint32) ([]byte, error)
}

// MaudioMeterSpec describes the shape of one model's hardware meter frame.
// The frame is a run of big-endian signed 32-bit detected levels, physical
// inputs first, then stream inputs, then physical outputs, optionally
// followed by one quadlet of rotary and switch state.
type MaudioMeterSpec struct {
	PhysInputCount   int
	StreamInputCount int
	PhysOutputCount  int

	// HasSwitch marks models whose frame carries a trailing quadlet with the
	// front-panel button state in the top byte and the rotary position below.
	HasSwitch bool
}

// FrameLength returns the size in bytes of the meter frame.
func (s MaudioMeterSpec) FrameLength() uint32 {
	quadlets := s.PhysInputCount + s.StreamInputCount + s.PhysOutputCount
	if s.HasSwitch {
		quadlets++
	}

	return uint32(quadlets) * 4
}

// MaudioMeter is one decoded hardware meter frame.
type MaudioMeter struct {
	PhysInputs   []int32
	StreamInputs []int32
	PhysOutputs  []int32

	Switch bool
	Rotary int32
}

// decodeMaudioMeter splits a raw frame per its declared shape. The frame
// length must match exactly.
func decodeMaudioMeter(spec MaudioMeterSpec, frame []byte) (*MaudioMeter, error) {
	if uint32(len(frame)) != spec.FrameLength() {
		return nil, fmt.Errorf("meter frame length %d, expected %d", len(frame), spec.FrameLength())
	}

	next := func() int32 {
		v := int32(binary.BigEndian.Uint32(frame))
		frame = frame[4:]
		return v
	}

	meter := &MaudioMeter{
		PhysInputs:   make([]int32, spec.PhysInputCount),
		StreamInputs: make([]int32, spec.StreamInputCount),
		PhysOutputs:  make([]int32, spec.PhysOutputCount),
	}

	for i := range meter.PhysInputs {
		meter.PhysInputs[i] = next()
	}
	for i := range meter.StreamInputs {
		meter.StreamInputs[i] = next()
	}
	for i := range meter.PhysOutputs {
		meter.PhysOutputs[i] = next()
	}

	if spec.HasSwitch {
		state := next()
		meter.Switch = uint32(state)&0xff000000 != 0
		meter.Rotary = state & 0x00ffffff
	}

	return meter, nil
}

// ReadMaudioMeter reads and decodes one meter frame from the node.
func ReadMaudioMeter(reader RegisterReader, spec MaudioMeterSpec, timeoutMs uint32) (*MaudioMeter, error) {
	frame, err := reader.ReadBlock(DM_APPL_METER_OFFSET, spec.FrameLength(), timeoutMs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommunication, err)
	}

	meter, err := decodeMaudioMeter(spec, frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRespParse, err)
	}

	return meter, nil
}
