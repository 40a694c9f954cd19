package params

// TransportKind discriminates the closed set of transports the channel
// runtime supports. The zero value, Invalid, names no transport and is
// never a valid argument to any operation.
type TransportKind int

const (
	Invalid TransportKind = iota
	Device
	Pipe
	UnixSocket
	TCPSocket
	UDPSocket
	Serial
	Mercury
	GEEth
	Shmem
	UDPShmem
	UIO
)

// kindNames maps each kind to the grammar keyword that selects it (the first
// comma-separated token of a config string).
var kindNames = map[TransportKind]string{
	Device:     "device",
	Pipe:       "pipe",
	UnixSocket: "unix_socket",
	TCPSocket:  "tcp_socket",
	UDPSocket:  "udp_socket",
	Serial:     "serial",
	Mercury:    "mercury",
	GEEth:      "ge_eth",
	Shmem:      "shmem",
	UDPShmem:   "udp_shmem",
	UIO:        "uio",
}

var namesToKind = func() map[string]TransportKind {
	m := make(map[string]TransportKind, len(kindNames))
	for k, v := range kindNames {
		m[v] = k
	}
	return m
}()

func (k TransportKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// KindByName resolves a grammar keyword to its TransportKind. Unknown
// names resolve to Invalid with ok=false.
func KindByName(name string) (TransportKind, bool) {
	k, ok := namesToKind[name]
	return k, ok
}

// StreamTransport reports whether kind carries an opaque byte stream
// framed by the common framing layer (§4.2), as opposed to a
// datagram/specialized transport where one syscall maps to one message.
func (k TransportKind) StreamTransport() bool {
	switch k {
	case Pipe, Device, UnixSocket, TCPSocket, Serial:
		return true
	default:
		return false
	}
}

// PipeChannelType reports whether kind supports the symmetric
// reader+writer-in-one-slot open used by PipeParam (§4.4). Only
// transports with a deadlock-free symmetric open predicate qualify.
func (k TransportKind) PipeChannelType() bool {
	return k == Pipe
}
