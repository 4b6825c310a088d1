package bebob

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Register addresses in IEEE 1212 initial units space used by the Function
// Control Protocol (IEC 61883-1).
const (
	FCP_COMMAND_ADDR  = 0xfffff0000b00
	FCP_RESPONSE_ADDR = 0xfffff0000d00

	fcpResponseLength = 0x200
	fcpFrameMax       = 0x200
)

const cdevEventBufSize = 4096

// fwEvent is one decoded event read from the character device.
type fwEvent struct {
	Kind       uint32
	Rcode      uint32
	Tcode      uint32
	Offset     uint64
	Handle     uint32
	Generation uint32
	Data       []byte
}

// parseCdevEvent decodes the leading event in buf. Events are native-endian;
// the payload, if any, follows the fixed header.
func parseCdevEvent(buf []byte) (fwEvent, error) {
	if len(buf) < 12 {
		return fwEvent{}, fmt.Errorf("event too short: %d bytes", len(buf))
	}

	kind := binary.NativeEndian.Uint32(buf[8:])
	ev := fwEvent{Kind: kind}

	switch kind {
	case FW_CDEV_EVENT_BUS_RESET:
		if len(buf) < fwCdevEventBusResetSize {
			return fwEvent{}, fmt.Errorf("truncated bus reset event: %d bytes", len(buf))
		}
		ev.Generation = binary.NativeEndian.Uint32(buf[32:])

	case FW_CDEV_EVENT_RESPONSE:
		if len(buf) < fwCdevEventResponseHeader {
			return fwEvent{}, fmt.Errorf("truncated response event: %d bytes", len(buf))
		}
		ev.Rcode = binary.NativeEndian.Uint32(buf[12:])
		length := binary.NativeEndian.Uint32(buf[16:])
		if uint32(len(buf)-fwCdevEventResponseHeader) < length {
			return fwEvent{}, fmt.Errorf("truncated response payload: %d of %d bytes",
				len(buf)-fwCdevEventResponseHeader, length)
		}
		ev.Data = buf[fwCdevEventResponseHeader : fwCdevEventResponseHeader+int(length)]

	case FW_CDEV_EVENT_REQUEST2:
		if len(buf) < fwCdevEventRequest2Header {
			return fwEvent{}, fmt.Errorf("truncated request event: %d bytes", len(buf))
		}
		ev.Tcode = binary.NativeEndian.Uint32(buf[12:])
		ev.Offset = binary.NativeEndian.Uint64(buf[16:])
		ev.Generation = binary.NativeEndian.Uint32(buf[36:])
		ev.Handle = binary.NativeEndian.Uint32(buf[40:])
		length := binary.NativeEndian.Uint32(buf[44:])
		if uint32(len(buf)-fwCdevEventRequest2Header) < length {
			return fwEvent{}, fmt.Errorf("truncated request payload: %d of %d bytes",
				len(buf)-fwCdevEventRequest2Header, length)
		}
		ev.Data = buf[fwCdevEventRequest2Header : fwCdevEventRequest2Header+int(length)]
	}

	return ev, nil
}

// FwNode is an open FireWire character device (/dev/fw*) for one node on the
// bus. It carries the bus generation, which every outbound request must name
// so the kernel can reject transactions spanning a bus reset.
type FwNode struct {
	file *os.File

	Card       uint32
	Generation uint32
}

// OpenFwNode opens the character device at path and fetches the current bus
// state.
func OpenFwNode(path string) (*FwNode, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	node := &FwNode{file: file}
	if err := node.update(); err != nil {
		file.Close()
		return nil, err
	}

	return node, nil
}

// update refreshes the bus generation through FW_CDEV_IOC_GET_INFO.
func (n *FwNode) update() error {
	var reset fwCdevEventBusReset

	info := fwCdevGetInfo{
		Version:  4,
		BusReset: uint64(uintptr(unsafe.Pointer(&reset))),
	}

	if err := ioctl(n.file.Fd(), FW_CDEV_IOC_GET_INFO, uintptr(unsafe.Pointer(&info))); err != nil {
		return fmt.Errorf("get info: %w", err)
	}

	n.Card = info.Card
	n.Generation = reset.Generation

	return nil
}

// Close releases the device. Address ranges allocated on it are deallocated
// by the kernel.
func (n *FwNode) Close() error {
	return n.file.Close()
}

// sendRequest queues one outbound asynchronous transaction. data is nil for
// read requests.
func (n *FwNode) sendRequest(tcode uint32, offset uint64, length uint32, data []byte) error {
	req := fwCdevSendRequest{
		Tcode:      tcode,
		Length:     length,
		Offset:     offset,
		Generation: n.Generation,
	}
	if len(data) > 0 {
		req.Data = uint64(uintptr(unsafe.Pointer(&data[0])))
	}

	return ioctl(n.file.Fd(), FW_CDEV_IOC_SEND_REQUEST, uintptr(unsafe.Pointer(&req)))
}

// readEvent blocks until one event arrives or the deadline passes.
func (n *FwNode) readEvent(deadline time.Time) (fwEvent, error) {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return fwEvent{}, os.ErrDeadlineExceeded
	}

	fds := []unix.PollFd{{Fd: int32(n.file.Fd()), Events: unix.POLLIN}}

	num, err := unix.Poll(fds, int(remaining.Milliseconds())+1)
	if err != nil {
		return fwEvent{}, err
	}
	if num == 0 {
		return fwEvent{}, os.ErrDeadlineExceeded
	}

	buf := make([]byte, cdevEventBufSize)
	length, err := unix.Read(int(n.file.Fd()), buf)
	if err != nil {
		return fwEvent{}, err
	}

	ev, err := parseCdevEvent(buf[:length])
	if err != nil {
		return fwEvent{}, err
	}

	// Bus resets are global state, not per-transaction; fold them in here so
	// every event loop stays current.
	if ev.Kind == FW_CDEV_EVENT_BUS_RESET {
		n.Generation = ev.Generation
	}

	return ev, nil
}

// transactBlock round-trips one asynchronous block transaction and returns
// the response payload, which is empty for writes.
func (n *FwNode) transactBlock(tcode uint32, offset uint64, length uint32, data []byte, timeoutMs uint32) ([]byte, error) {
	if err := n.sendRequest(tcode, offset, length, data); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)

	for {
		ev, err := n.readEvent(deadline)
		if err != nil {
			return nil, err
		}

		switch ev.Kind {
		case FW_CDEV_EVENT_RESPONSE:
			if ev.Rcode != RCODE_COMPLETE {
				return nil, fmt.Errorf("transaction failed with rcode 0x%x", ev.Rcode)
			}

			resp := make([]byte, len(ev.Data))
			copy(resp, ev.Data)

			return resp, nil
		}
	}
}

// ReadBlock performs an asynchronous block read of length bytes at offset.
func (n *FwNode) ReadBlock(offset uint64, length uint32, timeoutMs uint32) ([]byte, error) {
	return n.transactBlock(TCODE_READ_BLOCK_REQUEST, offset, length, nil, timeoutMs)
}

// WriteBlock performs an asynchronous block write of data at offset.
func (n *FwNode) WriteBlock(offset uint64, data []byte, timeoutMs uint32) error {
	_, err := n.transactBlock(TCODE_WRITE_BLOCK_REQUEST, offset, uint32(len(data)), data, timeoutMs)

	return err
}

// allocate claims an address range on the local node and returns its handle.
func (n *FwNode) allocate(offset uint64, length uint32) (uint32, error) {
	alloc := fwCdevAllocate{
		Offset:    offset,
		Length:    length,
		RegionEnd: offset + uint64(length),
	}

	if err := ioctl(n.file.Fd(), FW_CDEV_IOC_ALLOCATE, uintptr(unsafe.Pointer(&alloc))); err != nil {
		return 0, err
	}

	return alloc.Handle, nil
}

// deallocate releases an address range by its handle.
func (n *FwNode) deallocate(handle uint32) error {
	dealloc := fwCdevDeallocate{Handle: handle}

	return ioctl(n.file.Fd(), FW_CDEV_IOC_DEALLOCATE, uintptr(unsafe.Pointer(&dealloc)))
}

// sendResponse completes an inbound request event so the remote node sees the
// write succeed.
func (n *FwNode) sendResponse(rcode, handle uint32) error {
	resp := fwCdevSendResponse{Rcode: rcode, Handle: handle}

	return ioctl(n.file.Fd(), FW_CDEV_IOC_SEND_RESPONSE, uintptr(unsafe.Pointer(&resp)))
}

// fcpNode is the slice of FwNode the FCP state machine needs. Keeping the
// protocol loop behind it separates the transaction logic from the character
// device.
type fcpNode interface {
	sendRequest(tcode uint32, offset uint64, length uint32, data []byte) error
	readEvent(deadline time.Time) (fwEvent, error)
	sendResponse(rcode, handle uint32) error
	allocate(offset uint64, length uint32) (uint32, error)
	deallocate(handle uint32) error
}

// Fcp speaks the Function Control Protocol against one node: commands are
// block writes to the node's command register, responses arrive as inbound
// block writes to the local response register, which Fcp claims on creation.
//
// One FCP transaction is in flight at a time; calls must be serialized by the
// caller.
type Fcp struct {
	node   fcpNode
	handle uint32
}

// NewFcp claims the local FCP response register on the node's card and
// returns a ready transactor.
func NewFcp(node *FwNode) (*Fcp, error) {
	return newFcp(node)
}

func newFcp(node fcpNode) (*Fcp, error) {
	handle, err := node.allocate(FCP_RESPONSE_ADDR, fcpResponseLength)
	if err != nil {
		return nil, fmt.Errorf("allocate fcp response range: %w", err)
	}

	return &Fcp{node: node, handle: handle}, nil
}

// Close releases the response register. The node stays open.
func (f *Fcp) Close() error {
	return f.node.deallocate(f.handle)
}

// Transaction sends one FCP command frame and blocks until the final response
// frame arrives or timeoutMs elapses. An Interim response restarts nothing:
// it is consumed and the wait continues within the same deadline.
func (f *Fcp) Transaction(command []byte, timeoutMs uint32) ([]byte, error) {
	if len(command) == 0 || len(command) > fcpFrameMax {
		return nil, fmt.Errorf("invalid command frame length: %d", len(command))
	}

	if err := f.node.sendRequest(TCODE_WRITE_BLOCK_REQUEST, FCP_COMMAND_ADDR, uint32(len(command)), command); err != nil {
		return nil, fmt.Errorf("send command: %w", err)
	}

	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	acked := false

	for {
		ev, err := f.node.readEvent(deadline)
		if err != nil {
			return nil, err
		}

		switch ev.Kind {
		case FW_CDEV_EVENT_RESPONSE:
			if ev.Rcode != RCODE_COMPLETE {
				return nil, fmt.Errorf("command write failed with rcode 0x%x", ev.Rcode)
			}
			acked = true

		case FW_CDEV_EVENT_REQUEST2:
			if ev.Offset < FCP_RESPONSE_ADDR || ev.Offset >= FCP_RESPONSE_ADDR+fcpResponseLength {
				continue
			}

			frame := make([]byte, len(ev.Data))
			copy(frame, ev.Data)

			if err := f.node.sendResponse(RCODE_COMPLETE, ev.Handle); err != nil {
				return nil, fmt.Errorf("ack response: %w", err)
			}

			// A response frame can overtake the ack of our own write.
			if !acked && len(frame) == 0 {
				continue
			}

			if len(frame) > 0 && AvcRespCode(frame[0]&0x0f) == AVC_RESP_INTERIM {
				continue
			}

			return frame, nil
		}
	}
}
