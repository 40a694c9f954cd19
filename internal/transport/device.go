package transport

import (
	"os"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/opsnexus/chrt/internal/framing"
	"github.com/opsnexus/chrt/internal/params"
)

type deviceDriver struct {
	p      *params.DeviceParams
	minTx  uint32
	mtu    uint32
	file   *os.File
	framer *framing.Framer
}

func newDeviceDriver(p *params.ChannelParams) *deviceDriver {
	return &deviceDriver{p: &p.Device, minTx: p.EffectiveMinTxSize(), mtu: p.EffectiveMTU()}
}

func (d *deviceDriver) Open(dir params.Direction) error {
	const op = "transport/device.open"
	flag, err := directionFlag(dir)
	if err != nil {
		return chrterr.Wrap(chrterr.InvalidArgument, op, err)
	}
	f, err := os.OpenFile(d.p.Path, flag, 0)
	if err != nil {
		return chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	d.file = f
	var ep framing.Endpoint = fdEndpoint{f: f}
	if d.p.IovLen > 0 {
		ep = iovCappedEndpoint{ep: ep, iovLen: int(d.p.IovLen)}
	}
	d.framer = framing.New(ep, d.minTx, d.mtu)
	return nil
}

func (d *deviceDriver) Close() error {
	const op = "transport/device.close"
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

func (d *deviceDriver) Read(buf []byte) (int, error)  { return d.framer.Read(buf) }
func (d *deviceDriver) Write(buf []byte) (int, error) { return d.framer.Write(buf) }

func (d *deviceDriver) RawFD() (int, bool) {
	if d.file == nil {
		return 0, false
	}
	return int(d.file.Fd()), true
}

// iovCappedEndpoint caps each underlying Read/Write at iovLen bytes,
// so a device with a nonzero iov_len never asks the kernel for more
// than that in a single syscall; framing's partial-IO looping handles
// the rest transparently.
type iovCappedEndpoint struct {
	ep     framing.Endpoint
	iovLen int
}

func (e iovCappedEndpoint) Read(p []byte) (int, error) {
	if len(p) > e.iovLen {
		p = p[:e.iovLen]
	}
	return e.ep.Read(p)
}

func (e iovCappedEndpoint) Write(p []byte) (int, error) {
	if len(p) > e.iovLen {
		p = p[:e.iovLen]
	}
	return e.ep.Write(p)
}
