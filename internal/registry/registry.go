// Package registry implements the channel registry of spec §4.4: a
// fixed-size, arena-indexed table of channels. Callers hold a small
// integer "channel descriptor" (§9 "arena-indexed channels") rather
// than a pointer, which is what lets two cooperating processes that
// open their channels in the same order end up naming the same
// underlying transport by the same descriptor value on both sides
// (§3 invariants, §5 raw-channel regime).
package registry

import (
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/opsnexus/chrt/internal/metrics"
	"github.com/opsnexus/chrt/internal/params"
	"github.com/opsnexus/chrt/internal/transport"
)

// DefaultCapacity is the build-time default registry size (§3: "16 by
// convention"). New's capacity argument (chrt.WithCapacity) overrides it
// per registry.
const DefaultCapacity = 16

// slot holds one descriptor's channel state: its parameters and up to
// two transport halves (both populated only for the pipe-style
// bidirectional primitive, §3 "Channel").
type slot struct {
	mu     sync.Mutex
	used   bool
	params params.ChannelParams
	reader transport.Driver
	writer transport.Driver
}

// Registry is the process-global (or test-local) channel table. The
// descriptor counter is a single atomic sequence shared across all
// callers, as §5 requires: channels must be opened in an agreed total
// order across cooperating processes.
type Registry struct {
	slots    []slot
	next     atomic.Int64
	capacity int
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// New creates a Registry with room for capacity descriptors. A nil
// logger is replaced with a no-op logger; a nil *metrics.Metrics is
// valid (every Record* method is a no-op on a nil receiver).
func New(capacity int, log *zap.Logger, m *metrics.Metrics) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		slots:    make([]slot, capacity),
		capacity: capacity,
		log:      log,
		metrics:  m,
	}
}

// allocate reserves the next descriptor, or reports too-many-open if
// the table is exhausted (§3 invariants, property 6).
func (r *Registry) allocate() (int, *slot, error) {
	gd := int(r.next.Add(1)) - 1
	if gd >= r.capacity {
		return 0, nil, chrterr.New(chrterr.TooManyOpen, "registry.allocate")
	}
	return gd, &r.slots[gd], nil
}

// slotAt returns the slot for gd, or no-device if gd is out of range
// or not currently in use.
func (r *Registry) slotAt(gd int) (*slot, error) {
	if gd < 0 || gd >= len(r.slots) {
		return nil, chrterr.New(chrterr.NoDevice, "registry.slotAt")
	}
	s := &r.slots[gd]
	s.mu.Lock()
	inUse := s.used
	s.mu.Unlock()
	if !inUse {
		return nil, chrterr.New(chrterr.NoDevice, "registry.slotAt")
	}
	return s, nil
}

// OpenParam dispatches p's kind to the corresponding transport driver,
// opens it in direction dir, and on success allocates and returns the
// next channel descriptor (§4.4 open_param).
func (r *Registry) OpenParam(p *params.ChannelParams, dir params.Direction) (int, error) {
	const op = "registry.OpenParam"

	drv, err := transport.New(p)
	if err != nil {
		return -1, chrterr.Wrap(chrterr.NoDevice, op, err)
	}
	if err := drv.Open(dir); err != nil {
		r.log.Debug("open failed", zap.String("kind", p.Kind.String()), zap.Error(err))
		return -1, err
	}

	gd, s, err := r.allocate()
	if err != nil {
		_ = drv.Close()
		return -1, err
	}

	s.mu.Lock()
	s.used = true
	s.params = *p
	switch dir {
	case params.ReadOnly:
		s.reader = drv
	case params.WriteOnly:
		s.writer = drv
	}
	s.mu.Unlock()

	r.metrics.RecordOpen()
	r.log.Debug("channel opened", zap.Int("gd", gd), zap.String("kind", p.Kind.String()), zap.Int("dir", int(dir)))
	return gd, nil
}

// OpenParse parses s and opens it: parse then OpenParam (§4.4
// open_parse).
func (r *Registry) OpenParse(s string, dir params.Direction, resolver params.EnclaveResolver) (int, error) {
	p, err := params.Parse(s, resolver)
	if err != nil {
		return -1, err
	}
	return r.OpenParam(p, dir)
}

// PipeParam opens a reader and writer half in a single descriptor slot
// for transports where symmetric open is deadlock-free (§4.4
// pipe_param). Only params.Pipe currently qualifies
// (TransportKind.PipeChannelType); every other kind reports
// not-implemented, as §7 specifies.
func (r *Registry) PipeParam(p *params.ChannelParams) (int, error) {
	const op = "registry.PipeParam"
	if !p.Kind.PipeChannelType() {
		return -1, chrterr.New(chrterr.NotImplemented, op)
	}

	rd, wr, err := transport.OpenPipePair(p)
	if err != nil {
		return -1, err
	}

	gd, s, err := r.allocate()
	if err != nil {
		_ = rd.Close()
		_ = wr.Close()
		return -1, err
	}

	s.mu.Lock()
	s.used = true
	s.params = *p
	s.reader = rd
	s.writer = wr
	s.mu.Unlock()

	r.metrics.RecordOpen()
	r.log.Debug("pipe channel opened (bidirectional)", zap.Int("gd", gd))
	return gd, nil
}

// GetChannelParam returns a copy of the parameters recorded for gd
// (§4.4 get_channel_param). dir is accepted for interface symmetry
// with the original API but both halves share one ChannelParams value.
func (r *Registry) GetChannelParam(gd int, _ params.Direction) (params.ChannelParams, error) {
	s, err := r.slotAt(gd)
	if err != nil {
		return params.ChannelParams{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params, nil
}

// GetChannelDescription unparses gd's parameters into buf, following
// the same truncated-output/return-would-have-written-N contract as
// params.Unparse (§4.4 get_channel_description).
func (r *Registry) GetChannelDescription(gd int, buf []byte, resolver params.EnclaveResolver) (int, error) {
	s, err := r.slotAt(gd)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	p := s.params
	s.mu.Unlock()
	return params.Unparse(&p, buf, resolver)
}

// GetFD returns the underlying file descriptor for gd's reader half
// if present, else its writer half, else no-device (§4.4 get_fd).
func (r *Registry) GetFD(gd int) (int, error) {
	s, err := r.slotAt(gd)
	if err != nil {
		return -1, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader != nil {
		if fd, ok := s.reader.RawFD(); ok {
			return fd, nil
		}
	}
	if s.writer != nil {
		if fd, ok := s.writer.RawFD(); ok {
			return fd, nil
		}
	}
	return -1, chrterr.New(chrterr.NoDevice, "registry.GetFD")
}

// Read dispatches to gd's reader half (§4.4 read).
func (r *Registry) Read(gd int, buf []byte) (int, error) {
	s, err := r.slotAt(gd)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	drv := s.reader
	kind := s.params.Kind
	s.mu.Unlock()
	if drv == nil {
		return 0, chrterr.New(chrterr.NoDevice, "registry.Read")
	}
	n, err := drv.Read(buf)
	if err == nil {
		r.metrics.RecordRead(kind.String(), n)
	}
	return n, err
}

// Write dispatches to gd's writer half (§4.4 write).
func (r *Registry) Write(gd int, buf []byte) (int, error) {
	s, err := r.slotAt(gd)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	drv := s.writer
	kind := s.params.Kind
	s.mu.Unlock()
	if drv == nil {
		return 0, chrterr.New(chrterr.NoDevice, "registry.Write")
	}
	n, err := drv.Write(buf)
	if err == nil {
		r.metrics.RecordWrite(kind.String(), n)
	}
	return n, err
}

// Close tears down the half of gd named by dir (or both halves, for
// ReadWrite). Descriptors are never reused after close (§4.4 close):
// the slot stays marked used so a second Close reports no-device
// rather than silently succeeding or aliasing a future open (property
// 7, S6).
func (r *Registry) Close(gd int, dir params.Direction) error {
	s, err := r.slotAt(gd)
	if err != nil {
		return err
	}

	s.mu.Lock()
	var reader, writer transport.Driver
	switch dir {
	case params.ReadOnly:
		reader, s.reader = s.reader, nil
	case params.WriteOnly:
		writer, s.writer = s.writer, nil
	case params.ReadWrite:
		reader, s.reader = s.reader, nil
		writer, s.writer = s.writer, nil
	}
	s.mu.Unlock()

	if reader == nil && writer == nil {
		return chrterr.New(chrterr.NoDevice, "registry.Close")
	}

	var errs error
	if reader != nil {
		errs = multierr.Append(errs, reader.Close())
	}
	if writer != nil {
		errs = multierr.Append(errs, writer.Close())
	}
	if errs == nil {
		r.metrics.RecordClose()
		r.log.Debug("channel closed", zap.Int("gd", gd))
	}
	return errs
}

// CloseAll closes every currently-open descriptor's remaining halves,
// aggregating every error encountered with multierr rather than
// stopping at the first failure — useful for process shutdown where a
// caller wants to know about every leaked/failed close, not just one.
func (r *Registry) CloseAll() error {
	var errs error
	for gd := range r.slots {
		s := &r.slots[gd]
		s.mu.Lock()
		inUse := s.used && (s.reader != nil || s.writer != nil)
		s.mu.Unlock()
		if !inUse {
			continue
		}
		if err := r.Close(gd, params.ReadWrite); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Capacity reports the registry's fixed capacity.
func (r *Registry) Capacity() int { return r.capacity }

// HasReader reports whether gd currently holds an open reader half.
func (r *Registry) HasReader(gd int) bool {
	s, err := r.slotAt(gd)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reader != nil
}

// HasWriter reports whether gd currently holds an open writer half.
func (r *Registry) HasWriter(gd int) bool {
	s, err := r.slotAt(gd)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer != nil
}
