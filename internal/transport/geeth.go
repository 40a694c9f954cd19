package transport

import (
	"encoding/binary"
	"net"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/opsnexus/chrt/internal/params"
)

// geEthHeaderSize is the 4-byte big-endian message-id header the GE
// ethernet gateway prepends to every datagram, so a reader demuxing
// several message ids off one socket can tell them apart.
const geEthHeaderSize = 4

// geEthDriver is a datagram transport over UDP: one syscall, one
// message, the configured msg_id stamped on every write and checked on
// every read (§4.1, §4.3).
type geEthDriver struct {
	p    *params.GEEthParams
	conn *net.UDPConn
}

func newGEEthDriver(p *params.ChannelParams) *geEthDriver {
	return &geEthDriver{p: &p.GEEth}
}

func (d *geEthDriver) Open(dir params.Direction) error {
	const op = "transport/ge_eth.open"
	addr := &net.UDPAddr{IP: net.ParseIP(d.p.Addr), Port: int(d.p.Port)}

	switch dir {
	case params.ReadOnly:
		conn, err := net.ListenUDP("udp", addr)
		if err != nil {
			return chrterr.Wrap(chrterr.TransportLevel, op, err)
		}
		d.conn = conn
	case params.WriteOnly:
		conn, err := net.DialUDP("udp", nil, addr)
		if err != nil {
			return chrterr.Wrap(chrterr.TransportLevel, op, err)
		}
		d.conn = conn
	default:
		return chrterr.New(chrterr.InvalidArgument, op)
	}
	return nil
}

func (d *geEthDriver) Close() error {
	const op = "transport/ge_eth.close"
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

func (d *geEthDriver) Read(buf []byte) (int, error) {
	const op = "transport/ge_eth.read"
	if d.conn == nil {
		return 0, chrterr.New(chrterr.NoDevice, op)
	}
	mtu := d.p.MTU
	if mtu == 0 {
		mtu = params.DefaultMercuryMTU // conservative fallback; callers set mtu= for a real NIC MTU
	}
	raw := make([]byte, geEthHeaderSize+int(mtu))
	n, err := d.conn.Read(raw)
	if err != nil {
		return 0, chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	if n < geEthHeaderSize {
		return 0, chrterr.New(chrterr.NoMessage, op)
	}
	msgID := binary.BigEndian.Uint32(raw[:geEthHeaderSize])
	if msgID != d.p.MsgID {
		return 0, chrterr.New(chrterr.NoMessage, op)
	}
	got := copy(buf, raw[geEthHeaderSize:n])
	return got, nil
}

func (d *geEthDriver) Write(buf []byte) (int, error) {
	const op = "transport/ge_eth.write"
	if d.conn == nil {
		return 0, chrterr.New(chrterr.NoDevice, op)
	}
	raw := make([]byte, geEthHeaderSize+len(buf))
	binary.BigEndian.PutUint32(raw[:geEthHeaderSize], d.p.MsgID)
	copy(raw[geEthHeaderSize:], buf)
	n, err := d.conn.Write(raw)
	if err != nil {
		return 0, chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	return n - geEthHeaderSize, nil
}

func (d *geEthDriver) RawFD() (int, bool) {
	return connRawFD(d.conn)
}
