// Package transport implements one driver per transport kind named in
// the parameter model (§4.3): pipe, device, unix_socket, tcp_socket,
// udp_socket, serial, shmem, udp_shmem, uio, mercury, ge_eth. Every
// driver implements the shared Driver capability set; the byte-stream
// transports (pipe, unix_socket, tcp_socket, serial) and the device
// transport delegate framing to internal/framing, while the datagram and
// other specialized transports perform their own one-syscall-one-message
// read/write.
package transport

import (
	"github.com/opsnexus/chrt/internal/params"
)

// Driver is the uniform capability set every transport implements:
// open/close/read/write plus an optional raw file descriptor.
type Driver interface {
	// Open establishes the transport in the given direction.
	Open(dir params.Direction) error
	// Close tears the transport down. Close is idempotent only in the
	// sense that the registry guarantees it is called at most once per
	// direction per descriptor; a driver that is asked to close twice
	// on its own reports no-device (§4.3).
	Close() error
	// Read fills buf as completely as the transport's framing contract
	// allows, returning the number of bytes placed.
	Read(buf []byte) (int, error)
	// Write sends buf, returning the number of bytes accepted (always
	// len(buf) on success).
	Write(buf []byte) (int, error)
	// RawFD returns the underlying file descriptor, if the transport
	// has one.
	RawFD() (int, bool)
}

// New dispatches on p.Kind and constructs the corresponding driver,
// grounded in the same kind tag the parameter model uses.
func New(p *params.ChannelParams) (Driver, error) {
	switch p.Kind {
	case params.Device:
		return newDeviceDriver(p), nil
	case params.Pipe:
		return newPipeDriver(p), nil
	case params.UnixSocket:
		return newUnixSocketDriver(p), nil
	case params.TCPSocket:
		return newTCPSocketDriver(p), nil
	case params.UDPSocket:
		return newUDPSocketDriver(p), nil
	case params.Serial:
		return newSerialDriver(p), nil
	case params.Mercury:
		return newMercuryDriver(p), nil
	case params.GEEth:
		return newGEEthDriver(p), nil
	case params.Shmem:
		return newShmemDriver(p), nil
	case params.UDPShmem:
		return newUDPShmemDriver(p), nil
	case params.UIO:
		return newUIODriver(p), nil
	default:
		return nil, errInvalidKind()
	}
}
