package transport

import (
	"net"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/opsnexus/chrt/internal/params"
)

// udpSocketDriver is a datagram transport: framing does not apply
// (§4.2), one syscall is one message, and MTU (if set) is simply the
// packet size a caller is expected to use.
type udpSocketDriver struct {
	p          *params.UDPSocketParams
	bufferSize uint32
	conn       *net.UDPConn
	peer       *net.UDPAddr
}

func newUDPSocketDriver(p *params.ChannelParams) *udpSocketDriver {
	return &udpSocketDriver{p: &p.UDPSocket, bufferSize: p.Shared.BufferSize}
}

func (d *udpSocketDriver) Open(dir params.Direction) error {
	const op = "transport/udp_socket.open"
	addr := &net.UDPAddr{IP: net.ParseIP(d.p.Addr), Port: int(d.p.Port)}

	switch dir {
	case params.ReadOnly:
		conn, err := net.ListenUDP("udp", addr)
		if err != nil {
			return chrterr.Wrap(chrterr.TransportLevel, op, err)
		}
		if d.bufferSize > 0 {
			_ = conn.SetReadBuffer(int(d.bufferSize))
		}
		d.conn = conn
	case params.WriteOnly:
		conn, err := net.DialUDP("udp", nil, addr)
		if err != nil {
			return chrterr.Wrap(chrterr.TransportLevel, op, err)
		}
		if d.bufferSize > 0 {
			_ = conn.SetWriteBuffer(int(d.bufferSize))
		}
		d.conn = conn
	default:
		return chrterr.New(chrterr.InvalidArgument, op)
	}
	return nil
}

func (d *udpSocketDriver) Close() error {
	const op = "transport/udp_socket.close"
	if d.conn == nil {
		return chrterr.New(chrterr.NoDevice, op)
	}
	conn := d.conn
	d.conn = nil
	if err := conn.Close(); err != nil {
		return chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	return nil
}

func (d *udpSocketDriver) Read(buf []byte) (int, error) {
	const op = "transport/udp_socket.read"
	n, from, err := d.conn.ReadFromUDP(buf)
	if err != nil {
		return n, chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	d.peer = from
	return n, nil
}

func (d *udpSocketDriver) Write(buf []byte) (int, error) {
	const op = "transport/udp_socket.write"
	n, err := d.conn.Write(buf)
	if err != nil {
		return n, chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	return n, nil
}

func (d *udpSocketDriver) RawFD() (int, bool) {
	return connRawFD(d.conn)
}
