package transport

import (
	"fmt"
	"os"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/opsnexus/chrt/internal/params"
)

// mercuryRootDeviceFmt formats the device node the GAPS ILIP hardware
// bridge exposes per session level.
const mercuryRootDeviceFmt = "/dev/gaps_ilip_%d_root"

// mercuryDriver treats the hardware bridge's character device as a
// one-syscall-one-message transport (§4.3): no framing layer, the
// device itself enforces the session's MTU.
type mercuryDriver struct {
	p    *params.MercuryParams
	file *os.File
}

func newMercuryDriver(p *params.ChannelParams) *mercuryDriver {
	return &mercuryDriver{p: &p.Mercury}
}

func (d *mercuryDriver) devicePath() string {
	return fmt.Sprintf(mercuryRootDeviceFmt, d.p.Level)
}

func (d *mercuryDriver) Open(dir params.Direction) error {
	const op = "transport/mercury.open"
	flag, err := directionFlag(dir)
	if err != nil {
		return chrterr.Wrap(chrterr.InvalidArgument, op, err)
	}
	f, err := os.OpenFile(d.devicePath(), flag, 0)
	if err != nil {
		return chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	d.file = f
	return nil
}

func (d *mercuryDriver) Close() error {
	const op = "transport/mercury.close"
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

func (d *mercuryDriver) Read(buf []byte) (int, error) {
	const op = "transport/mercury.read"
	if d.file == nil {
		return 0, chrterr.New(chrterr.NoDevice, op)
	}
	n, err := d.file.Read(buf)
	if err != nil {
		return n, chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	return n, nil
}

func (d *mercuryDriver) Write(buf []byte) (int, error) {
	const op = "transport/mercury.write"
	if d.file == nil {
		return 0, chrterr.New(chrterr.NoDevice, op)
	}
	n, err := d.file.Write(buf)
	if err != nil {
		return n, chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	return n, nil
}

func (d *mercuryDriver) RawFD() (int, bool) {
	if d.file == nil {
		return 0, false
	}
	return int(d.file.Fd()), true
}
