package transport

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/opsnexus/chrt/internal/params"
)

// shmemFeatureEnabled gates the shared-memory transports, mirroring the
// original library's PIRATE_SHMEM_FEATURE build flag (§9 "feature-
// flagged transports"). When false every operation reports
// not-implemented rather than the kind being absent from the
// enumeration, so callers can probe availability by attempting open.
const shmemFeatureEnabled = true

// shmemRegionSize is the fixed POSIX shared-memory segment size backing
// each shmem/udp_shmem channel: a small header (write offset, read
// offset) followed by a ring buffer body.
const shmemRegionSize = 1 << 20 // 1 MiB

const shmemHeaderSize = 16 // two uint64 offsets

type shmemDriver struct {
	p    *params.ShmemParams
	name string
	fd   int
	mem  []byte
	dir  params.Direction
}

func newShmemDriver(p *params.ChannelParams) *shmemDriver {
	return &shmemDriver{p: &p.Shmem, name: shmemName(p.Shmem.Path)}
}

// shmemName derives the POSIX shm_open name from the configured path,
// generating a random one (via google/uuid) when the config string
// omitted an explicit path, matching the anonymous-segment convenience
// this module adds over the original library (SPEC_FULL DOMAIN STACK).
func shmemName(path string) string {
	if path != "" {
		return path
	}
	return "/chrt-shm-" + uuid.NewString()
}

// shmOpen opens (creating if absent) the POSIX shared-memory object
// name the way shm_open(3) does on Linux: as a file under /dev/shm.
func shmOpen(name string) (int, error) {
	return unix.Open(filepath.Join("/dev/shm", name), unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, 0660)
}

func (d *shmemDriver) Open(dir params.Direction) error {
	const op = "transport/shmem.open"
	if !shmemFeatureEnabled {
		return chrterr.New(chrterr.NotImplemented, op)
	}
	if dir != params.ReadOnly && dir != params.WriteOnly {
		return chrterr.New(chrterr.InvalidArgument, op)
	}

	fd, err := shmOpen(d.name)
	if err != nil {
		return chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	if err := unix.Ftruncate(fd, shmemRegionSize); err != nil {
		unix.Close(fd)
		return chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	mem, err := unix.Mmap(fd, 0, shmemRegionSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return chrterr.Wrap(chrterr.TransportLevel, op, err)
	}

	d.fd, d.mem, d.dir = fd, mem, dir
	return nil
}

func (d *shmemDriver) Close() error {
	const op = "transport/shmem.close"
	if !shmemFeatureEnabled {
		return chrterr.New(chrterr.NotImplemented, op)
	}
	if d.mem == nil {
		return chrterr.New(chrterr.NoDevice, op)
	}
	mem := d.mem
	d.mem = nil
	if err := unix.Munmap(mem); err != nil {
		return chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	if err := unix.Close(d.fd); err != nil {
		return chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	return nil
}

// Read and Write treat the region as a single-producer/single-consumer
// byte ring with two uint64 offsets in the header: bytes [0:8) is the
// write cursor, bytes [8:16) is the read cursor, both mod the body
// capacity. The ring records no message boundaries: a Read returns up
// to len(buf) of whatever bytes are available, so the bytes of two
// Writes can come back from one Read (§4.2's framing does not apply to
// this family).
func (d *shmemDriver) Read(buf []byte) (int, error) {
	const op = "transport/shmem.read"
	if !shmemFeatureEnabled {
		return 0, chrterr.New(chrterr.NotImplemented, op)
	}
	if d.mem == nil {
		return 0, chrterr.New(chrterr.NoDevice, op)
	}
	body := d.mem[shmemHeaderSize:]
	wOff := binary.LittleEndian.Uint64(d.mem[0:8])
	rOff := binary.LittleEndian.Uint64(d.mem[8:16])
	avail := int(wOff - rOff)
	if avail <= 0 {
		return 0, chrterr.New(chrterr.NoMessage, op)
	}
	n := len(buf)
	if n > avail {
		n = avail
	}
	cap := uint64(len(body))
	for i := 0; i < n; i++ {
		buf[i] = body[(rOff+uint64(i))%cap]
	}
	binary.LittleEndian.PutUint64(d.mem[8:16], rOff+uint64(n))
	return n, nil
}

func (d *shmemDriver) Write(buf []byte) (int, error) {
	const op = "transport/shmem.write"
	if !shmemFeatureEnabled {
		return 0, chrterr.New(chrterr.NotImplemented, op)
	}
	if d.mem == nil {
		return 0, chrterr.New(chrterr.NoDevice, op)
	}
	body := d.mem[shmemHeaderSize:]
	if len(buf) > len(body) {
		return 0, chrterr.Wrap(chrterr.InvalidArgument, op, fmt.Errorf("message of %d bytes exceeds shmem region capacity %d", len(buf), len(body)))
	}
	wOff := binary.LittleEndian.Uint64(d.mem[0:8])
	cap := uint64(len(body))
	for i, b := range buf {
		body[(wOff+uint64(i))%cap] = b
	}
	binary.LittleEndian.PutUint64(d.mem[0:8], wOff+uint64(len(buf)))
	return len(buf), nil
}

func (d *shmemDriver) RawFD() (int, bool) {
	if d.mem == nil {
		return 0, false
	}
	return d.fd, true
}
