package params

// Direction selects which half of a channel an open call creates.
type Direction int

const (
	ReadOnly Direction = iota
	WriteOnly
	ReadWrite
)

// Shared carries the attributes recognized on every transport kind
// (§4.1's shared-key table).
type Shared struct {
	SrcEnclave int // 0 = unspecified, else 1-based index into the enclave table
	DstEnclave int
	Listener   bool
	Control    bool
	MinTxSize  uint32 // used only if min_tx_size= was given (0 then disables padding); else DefaultMinTxSize
	MTU        uint32 // used only if mtu= was given (0 then disables chunking); else the kind's default
	BufferSize uint32 // 0 = let the OS pick

	minTxSizeSet  bool
	mtuSet        bool
	bufferSizeSet bool
}

// setMinTxSize, setMTU, and setBufferSize record that the corresponding
// key was explicitly present in a parsed config string, so the
// unparser can distinguish "explicitly set to the default value" from
// "never mentioned" when deciding what to elide (§4.1).
func (s *Shared) setMinTxSize()  { s.minTxSizeSet = true }
func (s *Shared) setMTU()        { s.mtuSet = true }
func (s *Shared) setBufferSize() { s.bufferSizeSet = true }

// Stream-transport default minimum-transmit size (§4.1).
const DefaultMinTxSize = 512

// DeviceParams holds the device,<path> transport's fields. iov_len is a
// device-specific key (not one of the shared keys) controlling the
// fixed read/write chunk size the driver requests per syscall; 0 means
// no fixed chunking.
type DeviceParams struct {
	Path   string
	IovLen uint32
}

// PipeParams holds the pipe,<path> transport's fields.
type PipeParams struct {
	Path string
}

// UnixSocketParams holds the unix_socket,<path> transport's fields.
type UnixSocketParams struct {
	Path string
}

// TCPSocketParams holds the tcp_socket,<addr>,<port> transport's fields.
const DefaultLoopback = "127.0.0.1"

type TCPSocketParams struct {
	Addr string
	Port uint16
}

// UDPSocketParams holds the udp_socket,<addr>,<port> transport's fields.
type UDPSocketParams struct {
	Addr string
	Port uint16
}

// Serial defaults (§4.1).
const (
	DefaultBaud = 230400
	DefaultSerialMTU = 1024
)

// SerialParams holds the serial,<path>[,baud=,mtu=] transport's fields.
type SerialParams struct {
	Path string
	Baud uint32
	MTU  uint32
}

// Mercury default MTU (§4.1).
const DefaultMercuryMTU = 256

// MercuryParams holds the mercury,<level>,<src_id>,<dst_id>[,<msg_id>*]
// transport's fields.
type MercuryParams struct {
	Level  uint32
	SrcID  uint32
	DstID  uint32
	MsgIDs []uint32
}

// GEEthParams holds the ge_eth,<addr>,<port>,<msg_id>[,mtu=] transport's
// fields.
type GEEthParams struct {
	Addr  string
	Port  uint16
	MsgID uint32
	MTU   uint32
}

// ShmemParams holds the shmem,<path> transport's fields.
type ShmemParams struct {
	Path string
}

// UDPShmemParams holds the udp_shmem,<path> transport's fields.
type UDPShmemParams struct {
	Path string
}

// UIO default path (§4.1).
const DefaultUIOPath = "/dev/uio0"

// UIOParams holds the uio[,<path>] transport's fields.
type UIOParams struct {
	Path string
}
