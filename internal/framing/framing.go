// Package framing implements the byte-stream discipline shared by every
// stream-oriented transport (pipe, device, unix socket, tcp socket, serial):
// minimum-transmit padding on write, MTU chunking, and partial-IO
// looping on both directions (§4.2). Datagram transports (udp socket,
// shmem, uio, mercury, ge_eth) bypass this package entirely — each of
// their reads and writes is exactly one syscall, one message.
package framing

import (
	"io"

	"github.com/opsnexus/chrt/internal/chrterr"
)

// Endpoint is the raw, unbuffered read/write primitive a stream
// transport's driver exposes to framing. It has the same short-read,
// short-write behavior as a raw fd: framing loops over it until the
// request is satisfied, EOF is hit, or a non-retryable error occurs.
type Endpoint interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// Framer wraps a raw Endpoint with min-tx padding, MTU chunking, and
// partial-IO looping, presenting the same fixed-size framing to every
// stream transport regardless of what sits underneath.
type Framer struct {
	ep        Endpoint
	minTxSize uint32
	mtu       uint32
}

// New returns a Framer over ep. minTxSize of 0 disables write padding;
// mtu of 0 disables chunking.
func New(ep Endpoint, minTxSize, mtu uint32) *Framer {
	return &Framer{ep: ep, minTxSize: minTxSize, mtu: mtu}
}

// lastChunkSize returns the length of the final physical chunk Write
// would put on the wire for a logical message of length total, given
// mtu (0 meaning no chunking — the whole message is the only chunk).
// Read uses this to find the same chunk boundary Write used, so it
// strips padding from exactly the physical write that carried it
// instead of guessing from the logical message length alone.
func lastChunkSize(total, mtu uint32) uint32 {
	if mtu == 0 || total <= mtu {
		return total
	}
	if rem := total % mtu; rem != 0 {
		return rem
	}
	return mtu
}

// Read fills buf completely, looping over short reads, and returns
// chrterr.ErrTransportLevel wrapping io.EOF/io.ErrUnexpectedEOF if the
// endpoint closes before buf is full. Write only pads the final
// physical chunk of a message up to minTxSize, so Read locates that
// same final chunk (via lastChunkSize) and discards its padding from
// the wire before returning, keeping the stream aligned for the next
// message regardless of how many MTU-sized chunks preceded it.
func (f *Framer) Read(buf []byte) (int, error) {
	const op = "framing.Read"
	n, err := io.ReadFull(f.ep, buf)
	if err != nil {
		return n, chrterr.Wrap(chrterr.TransportLevel, op, err)
	}
	if f.minTxSize > 0 {
		if last := lastChunkSize(uint32(len(buf)), f.mtu); last < f.minTxSize {
			pad := make([]byte, f.minTxSize-last)
			if _, err := io.ReadFull(f.ep, pad); err != nil {
				return n, chrterr.Wrap(chrterr.TransportLevel, op, err)
			}
		}
	}
	return n, nil
}

// Write sends buf in full, applying MTU chunking and min-tx padding,
// looping over short writes within each chunk. The returned count is
// always len(buf) on success (padding bytes are never counted). Only
// the last physical chunk of the message is padded up to minTxSize:
// padding an interior chunk would insert bytes the receiver has no way
// to distinguish from the next chunk's data, since Read has no
// per-chunk framing on the wire — only a running byte count.
func (f *Framer) Write(buf []byte) (int, error) {
	const op = "framing.Write"

	if f.mtu == 0 || uint32(len(buf)) <= f.mtu {
		if err := f.writeChunk(buf, true); err != nil {
			return 0, chrterr.Wrap(chrterr.TransportLevel, op, err)
		}
		return len(buf), nil
	}

	sent := 0
	for sent < len(buf) {
		end := sent + int(f.mtu)
		if end > len(buf) {
			end = len(buf)
		}
		if err := f.writeChunk(buf[sent:end], end == len(buf)); err != nil {
			return sent, chrterr.Wrap(chrterr.TransportLevel, op, err)
		}
		sent = end
	}
	return sent, nil
}

// writeChunk performs the partial-write-looped send of a single chunk
// (already MTU-sized or smaller), padding it up to minTxSize only when
// last is true.
func (f *Framer) writeChunk(chunk []byte, last bool) error {
	out := chunk
	if last && f.minTxSize > 0 && uint32(len(chunk)) < f.minTxSize {
		padded := make([]byte, f.minTxSize)
		copy(padded, chunk)
		out = padded
	}
	for written := 0; written < len(out); {
		n, err := f.ep.Write(out[written:])
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		written += n
	}
	return nil
}
