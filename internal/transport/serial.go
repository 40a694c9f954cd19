package transport

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/opsnexus/chrt/internal/framing"
	"github.com/opsnexus/chrt/internal/params"
)

type serialDriver struct {
	p      *params.SerialParams
	minTx  uint32
	mtu    uint32
	file   *os.File
	framer *framing.Framer
}

func newSerialDriver(p *params.ChannelParams) *serialDriver {
	return &serialDriver{p: &p.Serial, minTx: p.EffectiveMinTxSize(), mtu: p.EffectiveMTU()}
}

func (d *serialDriver) Open(dir params.Direction) error {
	const op = "transport/serial.open"
	flag, err := directionFlag(dir)
	if err != nil {
		return chrterr.Wrap(chrterr.InvalidArgument, op, err)
	}

	f, err := os.OpenFile(d.p.Path, flag|unix.O_NOCTTY, 0)
	if err != nil {
		return chrterr.Wrap(chrterr.TransportLevel, op, err)
	}

	if err := configureTermios(int(f.Fd()), d.p.Baud); err != nil {
		f.Close()
		return chrterr.Wrap(chrterr.TransportLevel, op, err)
	}

	d.file = f
	d.framer = framing.New(fdEndpoint{f: f}, d.minTx, d.mtu)
	return nil
}

func (d *serialDriver) Close() error {
	const op = "transport/serial.close"
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

func (d *serialDriver) Read(buf []byte) (int, error)  { return d.framer.Read(buf) }
func (d *serialDriver) Write(buf []byte) (int, error) { return d.framer.Write(buf) }

func (d *serialDriver) RawFD() (int, bool) {
	if d.file == nil {
		return 0, false
	}
	return int(d.file.Fd()), true
}

// configureTermios puts fd into raw mode at the given baud rate,
// matching the TTY setup the serial transport's manual prescribes
// (§4.1/§4.3 default: 230400 baud).
func configureTermios(fd int, baud uint32) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}

	speed, ok := baudConstant(baud)
	if !ok {
		speed = unix.B230400
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | speed
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}

func baudConstant(baud uint32) (uint32, bool) {
	switch baud {
	case 9600:
		return unix.B9600, true
	case 19200:
		return unix.B19200, true
	case 38400:
		return unix.B38400, true
	case 57600:
		return unix.B57600, true
	case 115200:
		return unix.B115200, true
	case 230400:
		return unix.B230400, true
	default:
		return 0, false
	}
}
