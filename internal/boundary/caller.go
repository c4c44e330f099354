// Package boundary implements the host side of the call protocol: reserve a
// guest buffer, write the encoded argument, run the compute export and read the
// encoded result back out of guest memory.
package boundary

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tetratelabs/wazero/api"

	"github.com/andrei-cloud/go_binio/internal/bufpool"
	"github.com/andrei-cloud/go_binio/internal/errorcodes"
	"github.com/andrei-cloud/go_binio/pkg/abi"
)

// DefaultReserveExport is the guest's buffer reservation export.
const DefaultReserveExport = "reserve_buffer"

var defaultPool = bufpool.New()

// Caller drives the call protocol against one guest instance. All methods are
// safe for concurrent use; calls are serialized.
type Caller struct {
	mu sync.Mutex

	mod         api.Module
	conv        abi.Convention
	reserveName string
	reserveFn   api.Function
	pool        *bufpool.Pool
	logger      zerolog.Logger

	state  State
	active abi.Handle
	poison error
}

// Option configures a Caller.
type Option func(*Caller)

// WithConvention sets how handles are returned by the guest.
func WithConvention(conv abi.Convention) Option {
	return func(c *Caller) { c.conv = conv }
}

// WithReserveExport overrides the name of the reservation export.
func WithReserveExport(name string) Option {
	return func(c *Caller) { c.reserveName = name }
}

// WithBufferPool sets the pool used for encode scratch buffers.
func WithBufferPool(p *bufpool.Pool) Option {
	return func(c *Caller) { c.pool = p }
}

// WithLogger sets the logger. The global zerolog logger is used by default.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Caller) { c.logger = l }
}

// NewCaller validates that mod exports a memory and a reservation function
// with the signature the convention requires.
func NewCaller(mod api.Module, opts ...Option) (*Caller, error) {
	c := &Caller{
		mod:         mod,
		conv:        abi.Packed64{},
		reserveName: DefaultReserveExport,
		pool:        defaultPool,
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	fn := mod.ExportedFunction(c.reserveName)
	if err := checkSignature(fn, []api.ValueType{api.ValueTypeI32}, valueTypes(c.conv.Results())); err != nil {
		return nil, &CallError{Kind: errorcodes.ErrReservation, Step: StepSetup, Export: c.reserveName, Err: err}
	}
	// Memory() never returns nil, even for a module without one.
	if len(mod.ExportedMemoryDefinitions()) == 0 {
		return nil, &CallError{Kind: errorcodes.ErrExport, Step: StepSetup, Export: "memory", Err: errNoMemory}
	}
	c.reserveFn = fn

	return c, nil
}

// Module returns the guest instance.
func (c *Caller) Module() api.Module {
	return c.mod
}

// Convention returns the handle convention in use.
func (c *Caller) Convention() abi.Convention {
	return c.conv
}

// State returns the current protocol state.
func (c *Caller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Poisoned returns the error that made the guest untrusted, or nil.
func (c *Caller) Poisoned() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.poison
}

// Reserve asks the guest for a buffer of exactly size bytes.
func (c *Caller) Reserve(ctx context.Context, size int64) (abi.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reserve(ctx, size)
}

// Write copies data into the active reservation h.
func (c *Caller) Write(h abi.Handle, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(h, data)
}

// Invoke runs the compute export on the active reservation h and returns the
// result handle.
func (c *Caller) Invoke(ctx context.Context, export string, h abi.Handle) (abi.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invoke(ctx, export, h)
}

// Read copies the bytes of h out of guest memory.
func (c *Caller) Read(h abi.Handle) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read(h)
}

// Scalar calls an export that takes and returns plain scalars.
func (c *Caller) Scalar(ctx context.Context, export string, params ...uint64) ([]uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.poison != nil {
		return nil, c.poison
	}

	fn := c.mod.ExportedFunction(export)
	if fn == nil {
		return nil, &CallError{Kind: errorcodes.ErrExport, Step: StepScalar, Export: export, Err: errMissingExport}
	}
	if want := len(fn.Definition().ParamTypes()); want != len(params) {
		return nil, &CallError{
			Kind: errorcodes.ErrExport, Step: StepScalar, Export: export,
			Err: fmt.Errorf("takes %d params, got %d", want, len(params)),
		}
	}

	res, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, c.fail(&CallError{Kind: errorcodes.ErrGuestTrap, Step: StepScalar, Export: export, Err: err})
	}

	return res, nil
}

func (c *Caller) reserve(ctx context.Context, size int64) (abi.Handle, error) {
	if c.poison != nil {
		return abi.Handle{}, c.poison
	}
	if size < 0 || size > math.MaxInt32 {
		return abi.Handle{}, &CallError{
			Kind: errorcodes.ErrPackingOverflow, Step: StepReserve, Export: c.reserveName, Size: size,
			Err: &abi.PackingOverflowError{Field: "size", Value: size},
		}
	}

	res, err := c.reserveFn.Call(ctx, api.EncodeI32(int32(size)))
	if err != nil {
		return abi.Handle{}, c.fail(&CallError{
			Kind: errorcodes.ErrReservation, Step: StepReserve, Export: c.reserveName, Size: size, Err: err,
		})
	}
	h, err := c.conv.Lift(res)
	if err != nil {
		return abi.Handle{}, c.fail(&CallError{
			Kind: errorcodes.ErrReservation, Step: StepReserve, Export: c.reserveName, Size: size, Err: err,
		})
	}
	if int64(h.Len) != size {
		return abi.Handle{}, c.fail(&CallError{
			Kind: errorcodes.ErrReservation, Step: StepReserve, Export: c.reserveName,
			Ptr: h.Ptr, Len: h.Len, Size: size,
			Err: fmt.Errorf("guest reserved %d bytes, requested %d", h.Len, size),
		})
	}

	c.active = h
	c.state = Reserved
	c.logger.Debug().
		Str("event", "reserve").
		Int64("size", size).
		Uint32("ptr", h.Ptr).
		Msg("guest buffer reserved")

	return h, nil
}

func (c *Caller) write(h abi.Handle, data []byte) error {
	if c.poison != nil {
		return c.poison
	}

	// A fresh view per access: the guest may have grown its memory since the last one.
	mem := c.mod.Memory()
	extent := uint64(mem.Size())

	if c.state != Reserved || h != c.active || uint64(len(data)) != uint64(h.Len) {
		return &CallError{
			Kind: errorcodes.ErrMemoryWrite, Step: StepWrite, Ptr: h.Ptr, Len: h.Len, Size: int64(len(data)),
			Extent: extent, Err: errNotActive,
		}
	}
	if err := abi.CheckRange(abi.OpWrite, h.Ptr, h.Len, extent); err != nil {
		return &CallError{
			Kind: errorcodes.ErrMemoryWrite, Step: StepWrite, Ptr: h.Ptr, Len: h.Len, Extent: extent, Err: err,
		}
	}
	if !mem.Write(h.Ptr, data) {
		return &CallError{Kind: errorcodes.ErrMemoryWrite, Step: StepWrite, Ptr: h.Ptr, Len: h.Len, Extent: extent}
	}

	c.state = Written
	return nil
}

func (c *Caller) invoke(ctx context.Context, export string, h abi.Handle) (abi.Handle, error) {
	if c.poison != nil {
		return abi.Handle{}, c.poison
	}

	fn := c.mod.ExportedFunction(export)
	params := []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
	if err := checkSignature(fn, params, valueTypes(c.conv.Results())); err != nil {
		return abi.Handle{}, &CallError{Kind: errorcodes.ErrExport, Step: StepCompute, Export: export, Err: err}
	}

	// The guest is never entered with a handle it did not hand out.
	if (c.state != Reserved && c.state != Written) || h != c.active {
		return abi.Handle{}, &CallError{
			Kind: errorcodes.ErrMemoryRead, Step: StepCompute, Export: export,
			Ptr: h.Ptr, Len: h.Len, Extent: c.active.End(), Err: errNotActive,
		}
	}

	res, err := fn.Call(ctx, api.EncodeU32(h.Ptr), api.EncodeU32(h.Len))
	if err != nil {
		return abi.Handle{}, c.fail(&CallError{
			Kind: errorcodes.ErrGuestTrap, Step: StepCompute, Export: export, Ptr: h.Ptr, Len: h.Len, Err: err,
		})
	}
	out, err := c.conv.Lift(res)
	if err != nil {
		return abi.Handle{}, &CallError{Kind: errorcodes.ErrExport, Step: StepCompute, Export: export, Err: err}
	}

	c.active = out
	c.state = Computed
	return out, nil
}

func (c *Caller) read(h abi.Handle) ([]byte, error) {
	if c.poison != nil {
		return nil, c.poison
	}

	mem := c.mod.Memory()
	extent := uint64(mem.Size())
	if err := abi.CheckRange(abi.OpRead, h.Ptr, h.Len, extent); err != nil {
		return nil, &CallError{
			Kind: errorcodes.ErrMemoryRead, Step: StepRead, Ptr: h.Ptr, Len: h.Len, Extent: extent, Err: err,
		}
	}
	view, ok := mem.Read(h.Ptr, h.Len)
	if !ok {
		return nil, &CallError{Kind: errorcodes.ErrMemoryRead, Step: StepRead, Ptr: h.Ptr, Len: h.Len, Extent: extent}
	}

	// The view aliases guest memory, which the next reservation overwrites.
	out := make([]byte, len(view))
	copy(out, view)

	if c.state == Computed {
		c.state = ReadBack
	}
	return out, nil
}

// fail poisons the caller when err leaves the guest in an unknown state.
func (c *Caller) fail(err *CallError) error {
	if err.Kind.Fatal() {
		c.poison = err
		c.logger.Error().
			Str("event", "poisoned").
			Str("export", err.Export).
			Err(err).
			Msg("guest instance is no longer usable")
	}
	return err
}

func checkSignature(fn api.Function, params, results []api.ValueType) error {
	if fn == nil {
		return errMissingExport
	}
	def := fn.Definition()
	if !slices.Equal(def.ParamTypes(), params) || !slices.Equal(def.ResultTypes(), results) {
		return fmt.Errorf("signature %s, want %s",
			signature(def.ParamTypes(), def.ResultTypes()), signature(params, results))
	}
	return nil
}

func valueTypes(scalars []abi.Scalar) []api.ValueType {
	out := make([]api.ValueType, len(scalars))
	for i, s := range scalars {
		if s == abi.I64 {
			out[i] = api.ValueTypeI64
		} else {
			out[i] = api.ValueTypeI32
		}
	}
	return out
}

func signature(params, results []api.ValueType) string {
	return "(" + typeList(params) + ") -> (" + typeList(results) + ")"
}

func typeList(types []api.ValueType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return strings.Join(names, ", ")
}
