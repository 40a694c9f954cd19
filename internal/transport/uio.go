package transport

import (
	"os"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/opsnexus/chrt/internal/params"
)

// uioDriver wraps a Linux userspace-I/O device node (/dev/uioN). Each
// read blocks for the next interrupt notification (the kernel UIO
// convention: a 4-byte interrupt count) and each write re-enables
// interrupts by writing the same count back — one syscall, one
// message, no framing (§4.2, §4.3 "datagram/specialized transports").
type uioDriver struct {
	p    *params.UIOParams
	file *os.File
}

func newUIODriver(p *params.ChannelParams) *uioDriver {
	return &uioDriver{p: &p.UIO}
}

func (d *uioDriver) Open(dir params.Direction) error {
	const op = "transport/uio.open"
	flag, err := directionFlag(dir)
	if err != nil {
		return chrterr.Wrap(chrterr.InvalidArgument, op, err)
	}
	f, err := os.OpenFile(d.p.Path, flag, 0)
	if err != nil {
		return chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	d.file = f
	return nil
}

func (d *uioDriver) Close() error {
	const op = "transport/uio.close"
	if d.file == nil {
		return chrterr.New(chrterr.NoDevice, op)
	}
	f := d.file
	d.file = nil
	if err := f.Close(); err != nil {
		return chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	return nil
}

func (d *uioDriver) Read(buf []byte) (int, error) {
	const op = "transport/uio.read"
	if d.file == nil {
		return 0, chrterr.New(chrterr.NoDevice, op)
	}
	n, err := d.file.Read(buf)
	if err != nil {
		return n, chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	return n, nil
}

func (d *uioDriver) Write(buf []byte) (int, error) {
	const op = "transport/uio.write"
	if d.file == nil {
		return 0, chrterr.New(chrterr.NoDevice, op)
	}
	n, err := d.file.Write(buf)
	if err != nil {
		return n, chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	return n, nil
}

func (d *uioDriver) RawFD() (int, bool) {
	if d.file == nil {
		return 0, false
	}
	return int(d.file.Fd()), true
}
