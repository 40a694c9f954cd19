// Package chrt is the public façade of the channel runtime: a uniform
// file-descriptor-like API over pipes, devices, sockets, serial lines,
// and the specialized transports, plus the cooperative scheduler that
// turns a set of one-way channels into turn-taking across cooperating
// enclaves. Most callers only ever import this package; internal/*
// holds the implementation.
package chrt

import (
	"go.uber.org/zap"

	"github.com/opsnexus/chrt/internal/chrterr"
	"github.com/opsnexus/chrt/internal/metrics"
	"github.com/opsnexus/chrt/internal/params"
	"github.com/opsnexus/chrt/internal/registry"
	"github.com/opsnexus/chrt/internal/scheduler"
)

// Direction selects which half of a channel an open call creates.
type Direction = params.Direction

const (
	ReadOnly  = params.ReadOnly
	WriteOnly = params.WriteOnly
	ReadWrite = params.ReadWrite
)

// ChannelParams is the decoded form of a channel's configuration
// string (kind plus per-kind fields).
type ChannelParams = params.ChannelParams

// TransportKind discriminates the closed set of supported transports.
type TransportKind = params.TransportKind

// The supported transport kinds, re-exported for callers building a
// ChannelParams programmatically instead of parsing a config string.
const (
	Device     = params.Device
	Pipe       = params.Pipe
	UnixSocket = params.UnixSocket
	TCPSocket  = params.TCPSocket
	UDPSocket  = params.UDPSocket
	Serial     = params.Serial
	Mercury    = params.Mercury
	GEEth      = params.GEEth
	Shmem      = params.Shmem
	UDPShmem   = params.UDPShmem
	UIO        = params.UIO
)

// Init zero-initializes a ChannelParams and stamps its kind.
func Init(kind TransportKind) *ChannelParams { return params.Init(kind) }

// EnclaveResolver resolves declared enclave names to table indices and
// back, used to decode/encode a config string's src=/dst= keys.
type EnclaveResolver = params.EnclaveResolver

// Error taxonomy, re-exported so callers can errors.Is against it
// without importing internal/chrterr directly.
var (
	ErrInvalidArgument = chrterr.ErrInvalidArgument
	ErrTooManyOpen     = chrterr.ErrTooManyOpen
	ErrNoDevice        = chrterr.ErrNoDevice
	ErrNotImplemented  = chrterr.ErrNotImplemented
	ErrNoMessage       = chrterr.ErrNoMessage
	ErrTransportLevel  = chrterr.ErrTransportLevel
)

// Runtime bundles a channel registry, an enclave table, and a
// scheduler into the one object most programs need. It is the
// equivalent of the original library's implicit process-global state,
// made explicit and instantiable for testing.
type Runtime struct {
	Registry *registry.Registry
	Enclaves *scheduler.EnclaveTable
	Sched    *scheduler.Scheduler
}

// Option configures a Runtime at construction.
type Option func(*runtimeConfig)

type runtimeConfig struct {
	capacity        int
	enclaveCapacity int
	log             *zap.Logger
	metrics         *metrics.Metrics
}

// WithCapacity overrides the channel registry's fixed descriptor-table
// size (default registry.DefaultCapacity).
func WithCapacity(n int) Option { return func(c *runtimeConfig) { c.capacity = n } }

// WithEnclaveCapacity overrides the enclave table's fixed size
// (default scheduler.DefaultEnclaveCapacity).
func WithEnclaveCapacity(n int) Option { return func(c *runtimeConfig) { c.enclaveCapacity = n } }

// WithLogger attaches a structured logger; a nil logger (the default)
// is a no-op logger.
func WithLogger(log *zap.Logger) Option { return func(c *runtimeConfig) { c.log = log } }

// WithMetrics attaches a metrics sink; a nil sink (the default) makes
// every recorded metric a no-op.
func WithMetrics(m *metrics.Metrics) Option { return func(c *runtimeConfig) { c.metrics = m } }

// New creates a Runtime with a fresh registry, enclave table, and
// scheduler bound together.
func New(opts ...Option) *Runtime {
	cfg := &runtimeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	reg := registry.New(cfg.capacity, cfg.log, cfg.metrics)
	enclaves := scheduler.NewEnclaveTable(cfg.enclaveCapacity)
	sched := scheduler.New(reg, enclaves, cfg.log, cfg.metrics)
	return &Runtime{Registry: reg, Enclaves: enclaves, Sched: sched}
}

// DeclareEnclaves populates the enclave table once, immutably. Every
// cooperating process must call this with the same names in the same
// order.
func (r *Runtime) DeclareEnclaves(names ...string) error {
	return r.Enclaves.Declare(names...)
}

// Open parses s and opens it in direction dir, returning its channel
// descriptor.
func (r *Runtime) Open(s string, dir Direction) (int, error) {
	return r.Registry.OpenParse(s, dir, r.Enclaves)
}

// OpenParam opens an already-decoded ChannelParams in direction dir.
func (r *Runtime) OpenParam(p *ChannelParams, dir Direction) (int, error) {
	return r.Registry.OpenParam(p, dir)
}

// PipeParam opens a bidirectional pipe primitive, returning the one
// descriptor that names both halves. Only the pipe transport supports
// this; every other kind reports ErrNotImplemented.
func (r *Runtime) PipeParam(p *ChannelParams) (int, error) {
	return r.Registry.PipeParam(p)
}

// Read reads from gd's reader half.
func (r *Runtime) Read(gd int, buf []byte) (int, error) {
	return r.Registry.Read(gd, buf)
}

// Write writes to gd's writer half.
func (r *Runtime) Write(gd int, buf []byte) (int, error) {
	return r.Registry.Write(gd, buf)
}

// Close tears down the half of gd named by dir. Descriptors are never
// reused after close.
func (r *Runtime) Close(gd int, dir Direction) error {
	return r.Registry.Close(gd, dir)
}

// CloseAll closes every currently-open descriptor, aggregating errors.
func (r *Runtime) CloseAll() error {
	return r.Registry.CloseAll()
}

// GetFD returns gd's underlying file descriptor.
func (r *Runtime) GetFD(gd int) (int, error) {
	return r.Registry.GetFD(gd)
}

// GetChannelParam returns a copy of the parameters recorded for gd.
func (r *Runtime) GetChannelParam(gd int, dir Direction) (ChannelParams, error) {
	return r.Registry.GetChannelParam(gd, dir)
}

// GetChannelDescription unparses gd's parameters into buf.
func (r *Runtime) GetChannelDescription(gd int, buf []byte) (int, error) {
	return r.Registry.GetChannelDescription(gd, buf, r.Enclaves)
}

// AddListenerChannel registers gd as a listener channel with the
// scheduler.
func (r *Runtime) AddListenerChannel(gd int) error {
	return r.Sched.AddListenerChannel(gd)
}

// AddControlChannel registers gd as a control channel with the
// scheduler.
func (r *Runtime) AddControlChannel(gd int) error {
	return r.Sched.AddControlChannel(gd)
}

// RegisterListener registers fn to run with the payload read from gd
// once size bytes are available. Every listener on the same gd must
// agree on size.
func (r *Runtime) RegisterListener(gd int, size int, fn func(payload []byte)) error {
	return r.Sched.RegisterListener(gd, size, fn)
}

// Yield hands off execution to the named enclave over its control
// channel.
func (r *Runtime) Yield(enclave string) error {
	return r.Sched.Yield(enclave)
}

// Listen blocks until a listener or control channel is ready and
// dispatches exactly one event.
func (r *Runtime) Listen() error {
	return r.Sched.Listen()
}
