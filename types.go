package bebob

// ABI of the Linux FireWire character device (<linux/firewire-cdev.h>).
// Unlike the ALSA ABI, every field is a fixed-width integer, so the layouts
// are identical on 32-bit and 64-bit architectures.

// Transaction codes of IEEE 1394 asynchronous packets.
const (
	TCODE_WRITE_QUADLET_REQUEST = 0x0
	TCODE_WRITE_BLOCK_REQUEST   = 0x1
	TCODE_READ_QUADLET_REQUEST  = 0x4
	TCODE_READ_BLOCK_REQUEST    = 0x5
)

// Response codes of IEEE 1394 asynchronous transactions.
const (
	RCODE_COMPLETE       = 0x0
	RCODE_CONFLICT_ERROR = 0x4
	RCODE_DATA_ERROR     = 0x5
	RCODE_TYPE_ERROR     = 0x6
	RCODE_ADDRESS_ERROR  = 0x7
)

// Event types delivered through read(2) on the cdev.
const (
	FW_CDEV_EVENT_BUS_RESET = 0x00
	FW_CDEV_EVENT_RESPONSE  = 0x01
	FW_CDEV_EVENT_REQUEST   = 0x02
	FW_CDEV_EVENT_REQUEST2  = 0x06
)

// fwCdevGetInfo is the argument of FW_CDEV_IOC_GET_INFO.
type fwCdevGetInfo struct {
	Version         uint32
	RomLength       uint32
	Rom             uint64 // userspace pointer to the config ROM buffer
	BusReset        uint64 // userspace pointer to an fwCdevEventBusReset
	BusResetClosure uint64
	Card            uint32
	_               [4]byte // pad to 8-byte alignment, matching the C size
}

// fwCdevEventBusReset reports the bus topology after a reset. It is also
// filled in synchronously by FW_CDEV_IOC_GET_INFO.
type fwCdevEventBusReset struct {
	Closure     uint64
	Type        uint32
	NodeID      uint32
	LocalNodeID uint32
	BmNodeID    uint32
	IrmNodeID   uint32
	RootNodeID  uint32
	Generation  uint32
}

// fwCdevSendRequest is the argument of FW_CDEV_IOC_SEND_REQUEST.
type fwCdevSendRequest struct {
	Tcode      uint32
	Length     uint32
	Offset     uint64
	Closure    uint64
	Data       uint64 // userspace pointer to the payload, 0 for reads
	Generation uint32
	_          [4]byte
}

// fwCdevAllocate is the argument of FW_CDEV_IOC_ALLOCATE. It claims an
// address range on the local node so that inbound requests to it are
// delivered as events.
type fwCdevAllocate struct {
	Offset    uint64
	Closure   uint64
	Length    uint32
	Handle    uint32
	RegionEnd uint64
}

// fwCdevDeallocate is the argument of FW_CDEV_IOC_DEALLOCATE.
type fwCdevDeallocate struct {
	Handle uint32
}

// fwCdevSendResponse is the argument of FW_CDEV_IOC_SEND_RESPONSE, completing
// an inbound request delivered as an FW_CDEV_EVENT_REQUEST2 event.
type fwCdevSendResponse struct {
	Rcode  uint32
	Length uint32
	Data   uint64
	Handle uint32
	_      [4]byte
}

// Fixed-size leading parts of the events read from the cdev. The payload, if
// any, follows the header in the read buffer.
const (
	fwCdevEventResponseHeader = 20 // closure u64, type u32, rcode u32, length u32
	fwCdevEventRequest2Header = 48
	fwCdevEventBusResetSize   = 36
)
