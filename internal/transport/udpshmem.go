package transport

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/opsnexus/chrt/internal/params"
)

// udpShmemSlotCount is the number of fixed-size message slots in the
// ring, each length-prefixed so one write maps to exactly one read
// (the "UDP-over-shared-memory" datagram contract), unlike the plain
// shmem transport's unstructured byte ring.
const udpShmemSlotCount = 64
const udpShmemSlotSize = 4096 // payload capacity per slot

type udpShmemDriver struct {
	p    *params.UDPShmemParams
	name string
	fd   int
	mem  []byte
}

func newUDPShmemDriver(p *params.ChannelParams) *udpShmemDriver {
	return &udpShmemDriver{p: &p.UDPShmem, name: shmemName(p.UDPShmem.Path)}
}

func (d *udpShmemDriver) regionSize() int {
	return shmemHeaderSize + udpShmemSlotCount*(4+udpShmemSlotSize)
}

func (d *udpShmemDriver) Open(dir params.Direction) error {
	const op = "transport/udp_shmem.open"
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
	if err := unix.Ftruncate(fd, int64(d.regionSize())); err != nil {
		unix.Close(fd)
		return chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	mem, err := unix.Mmap(fd, 0, d.regionSize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return chrterr.Wrap(chrterr.TransportLevel, op, err)
	}

	d.fd, d.mem = fd, mem
	return nil
}

func (d *udpShmemDriver) Close() error {
	const op = "transport/udp_shmem.close"
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

func (d *udpShmemDriver) slotOffset(i uint64) int {
	slot := i % udpShmemSlotCount
	return shmemHeaderSize + int(slot)*(4+udpShmemSlotSize)
}

// Read and Write are one-syscall-one-message, the datagram contract
// §4.2 requires for this family: each call consumes or produces exactly
// one length-prefixed slot, never joining or splitting messages.
func (d *udpShmemDriver) Read(buf []byte) (int, error) {
	const op = "transport/udp_shmem.read"
	if !shmemFeatureEnabled {
		return 0, chrterr.New(chrterr.NotImplemented, op)
	}
	if d.mem == nil {
		return 0, chrterr.New(chrterr.NoDevice, op)
	}
	wSeq := binary.LittleEndian.Uint64(d.mem[0:8])
	rSeq := binary.LittleEndian.Uint64(d.mem[8:16])
	if rSeq >= wSeq {
		return 0, chrterr.New(chrterr.NoMessage, op)
	}
	off := d.slotOffset(rSeq)
	msgLen := binary.LittleEndian.Uint32(d.mem[off : off+4])
	n := copy(buf, d.mem[off+4:off+4+int(msgLen)])
	binary.LittleEndian.PutUint64(d.mem[8:16], rSeq+1)
	if uint32(n) < msgLen {
		return n, chrterr.New(chrterr.NoMessage, op)
	}
	return n, nil
}

func (d *udpShmemDriver) Write(buf []byte) (int, error) {
	const op = "transport/udp_shmem.write"
	if !shmemFeatureEnabled {
		return 0, chrterr.New(chrterr.NotImplemented, op)
	}
	if d.mem == nil {
		return 0, chrterr.New(chrterr.NoDevice, op)
	}
	if len(buf) > udpShmemSlotSize {
		return 0, chrterr.New(chrterr.InvalidArgument, op)
	}
	wSeq := binary.LittleEndian.Uint64(d.mem[0:8])
	off := d.slotOffset(wSeq)
	binary.LittleEndian.PutUint32(d.mem[off:off+4], uint32(len(buf)))
	copy(d.mem[off+4:off+4+len(buf)], buf)
	binary.LittleEndian.PutUint64(d.mem[0:8], wSeq+1)
	return len(buf), nil
}

func (d *udpShmemDriver) RawFD() (int, bool) {
	if d.mem == nil {
		return 0, false
	}
	return d.fd, true
}
