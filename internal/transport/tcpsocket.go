package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/opsnexus/chrt/internal/framing"
	"github.com/opsnexus/chrt/internal/params"
)

type tcpSocketDriver struct {
	p          *params.TCPSocketParams
	bufferSize uint32
	minTx      uint32
	mtu        uint32
	ln         net.Listener
	conn       net.Conn
	framer     *framing.Framer
}

func newTCPSocketDriver(p *params.ChannelParams) *tcpSocketDriver {
	return &tcpSocketDriver{
		p:          &p.TCPSocket,
		bufferSize: p.Shared.BufferSize,
		minTx:      p.EffectiveMinTxSize(),
		mtu:        p.EffectiveMTU(),
	}
}

func (d *tcpSocketDriver) Open(dir params.Direction) error {
	const op = "transport/tcp_socket.open"
	addr := fmt.Sprintf("%s:%d", d.p.Addr, d.p.Port)

	switch dir {
	case params.ReadOnly:
		lc := net.ListenConfig{Control: setReuseAddr}
		ln, err := lc.Listen(context.Background(), "tcp", addr)
		if err != nil {
			return chrterr.Wrap(chrterr.TransportLevel, op, err)
		}
		d.ln = ln
		conn, err := ln.Accept()
		if err != nil {
			return chrterr.Wrap(chrterr.TransportLevel, op, err)
		}
		d.applyBufferSize(conn, false)
		d.conn = conn
	case params.WriteOnly:
		conn, err := dialWithRetry(context.Background(), "tcp", addr)
		if err != nil {
			return chrterr.Wrap(chrterr.TransportLevel, op, err)
		}
		d.applyBufferSize(conn, true)
		d.conn = conn
	default:
		return chrterr.New(chrterr.InvalidArgument, op)
	}

	d.framer = framing.New(d.conn, d.minTx, d.mtu)
	return nil
}

func (d *tcpSocketDriver) applyBufferSize(conn net.Conn, writer bool) {
	if d.bufferSize == 0 {
		return
	}
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	if writer {
		_ = tc.SetWriteBuffer(int(d.bufferSize))
	} else {
		_ = tc.SetReadBuffer(int(d.bufferSize))
	}
}

func (d *tcpSocketDriver) Close() error {
	const op = "transport/tcp_socket.close"
	if d.conn == nil && d.ln == nil {
		return chrterr.New(chrterr.NoDevice, op)
	}
	var firstErr error
	if d.conn != nil {
		firstErr = d.conn.Close()
		d.conn = nil
	}
	if d.ln != nil {
		if err := d.ln.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		d.ln = nil
	}
	if firstErr != nil {
		return chrterr.Wrap(chrterr.TransportLevel, op, firstErr)
	}
	return nil
}

func (d *tcpSocketDriver) Read(buf []byte) (int, error)  { return d.framer.Read(buf) }
func (d *tcpSocketDriver) Write(buf []byte) (int, error) { return d.framer.Write(buf) }

func (d *tcpSocketDriver) RawFD() (int, bool) {
	return connRawFD(d.conn)
}
