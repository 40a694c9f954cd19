package transport

import (
	"context"
	"errors"
	"net"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/opsnexus/chrt/internal/config"
	"github.com/opsnexus/chrt/internal/framing"
	"github.com/opsnexus/chrt/internal/params"
)

type unixSocketDriver struct {
	p      *params.UnixSocketParams
	minTx  uint32
	mtu    uint32
	ln     net.Listener
	conn   net.Conn
	framer *framing.Framer
}

func newUnixSocketDriver(p *params.ChannelParams) *unixSocketDriver {
	return &unixSocketDriver{p: &p.UnixSocket, minTx: p.EffectiveMinTxSize(), mtu: p.EffectiveMTU()}
}

func (d *unixSocketDriver) Open(dir params.Direction) error {
	const op = "transport/unix_socket.open"

	switch dir {
	case params.ReadOnly:
		ln, err := net.Listen("unix", d.p.Path)
		if err != nil {
			return chrterr.Wrap(chrterr.TransportLevel, op, err)
		}
		d.ln = ln
		conn, err := ln.Accept()
		if err != nil {
			return chrterr.Wrap(chrterr.TransportLevel, op, err)
		}
		d.conn = conn
	case params.WriteOnly:
		conn, err := dialWithRetry(context.Background(), "unix", d.p.Path)
		if err != nil {
			return chrterr.Wrap(chrterr.TransportLevel, op, err)
		}
		d.conn = conn
	default:
		return chrterr.New(chrterr.InvalidArgument, op)
	}

	d.framer = framing.New(d.conn, d.minTx, d.mtu)
	return nil
}

func (d *unixSocketDriver) Close() error {
	const op = "transport/unix_socket.close"
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

func (d *unixSocketDriver) Read(buf []byte) (int, error)  { return d.framer.Read(buf) }
func (d *unixSocketDriver) Write(buf []byte) (int, error) { return d.framer.Write(buf) }

func (d *unixSocketDriver) RawFD() (int, bool) {
	fd, ok := connRawFD(d.conn)
	return fd, ok
}

// dialWithRetry dials network/addr, retrying at the connect-retry
// interval (default 100ms, §4.3/§7) while the error looks like "reader
// hasn't opened its end yet" (ECONNREFUSED or ENOENT). Any other error
// is returned immediately.
func dialWithRetry(ctx context.Context, network, addr string) (net.Conn, error) {
	interval := config.Default().Defaults.ConnectRetryInterval
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		conn, err := net.Dial(network, addr)
		if err == nil {
			return conn, nil
		}
		if !isRetryableDialErr(err) {
			return nil, err
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
}

func isRetryableDialErr(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ENOENT)
}

// connRawFD extracts the underlying fd from a net.Conn backed by a
// *net.UnixConn or *net.TCPConn, via SyscallConn.
func connRawFD(conn net.Conn) (int, bool) {
	sc, ok := conn.(syscallConner)
	if !ok {
		return 0, false
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, false
	}
	var fd int
	if err := raw.Control(func(f uintptr) { fd = int(f) }); err != nil {
		return 0, false
	}
	return fd, true
}

type syscallConner interface {
	SyscallConn() (syscall.RawConn, error)
}
