// Package host embeds the WASM engine: it loads guest modules, instantiates
// them with the host functions they import and hands out protocol callers.
package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/andrei-cloud/go_binio/internal/boundary"
	"github.com/andrei-cloud/go_binio/internal/refguest"
	"github.com/andrei-cloud/go_binio/pkg/abi"
)

// ReferenceGuest is the name the embedded reference guest is loaded under.
const ReferenceGuest = "rect"

// initializeExport is run as the start function of reactor guests.
const initializeExport = "_initialize"

// ErrUnknownGuest is returned when instantiating a guest that was never loaded.
var ErrUnknownGuest = errors.New("unknown guest module")

// Options configures a Manager.
type Options struct {
	// MemoryLimitPages caps every guest memory; zero keeps the engine default.
	MemoryLimitPages uint32
	// ReserveExport names the reservation export; empty means reserve_buffer.
	ReserveExport string
	// Convention is how guests return handles; nil means packed64.
	Convention abi.Convention
	// Logger receives host and guest log lines; nil means the global logger.
	Logger *zerolog.Logger
}

// Manager owns a wazero runtime and the guest modules compiled in it.
type Manager struct {
	//nolint:containedctx // the runtime is bound to this context for its whole life.
	ctx      context.Context
	runtime  wazero.Runtime
	modules  map[string]wazero.CompiledModule
	registry *Registry
	opts     Options
	logger   zerolog.Logger
	mu       sync.RWMutex
}

// NewManager creates a runtime with WASI and the env host module instantiated.
func NewManager(ctx context.Context, opts Options) (*Manager, error) {
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	if opts.Convention == nil {
		opts.Convention = abi.Packed64{}
	}
	if opts.ReserveExport == "" {
		opts.ReserveExport = boundary.DefaultReserveExport
	}

	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if opts.MemoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(opts.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	if err := registerHostFunctions(ctx, rt, logger); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	return &Manager{
		ctx:      ctx,
		runtime:  rt,
		modules:  make(map[string]wazero.CompiledModule),
		registry: NewRegistry(),
		opts:     opts,
		logger:   logger,
	}, nil
}

// Load compiles a guest module and registers it under name.
func (m *Manager) Load(name string, wasmBytes []byte) (*ModuleInfo, error) {
	return m.load(name, "memory", wasmBytes)
}

// LoadReference loads the embedded reference guest under ReferenceGuest.
func (m *Manager) LoadReference() (*ModuleInfo, error) {
	bin, err := refguest.Binary()
	if err != nil {
		return nil, fmt.Errorf("failed to compile reference guest: %w", err)
	}
	return m.load(ReferenceGuest, "embedded", bin)
}

// LoadFile loads a .wasm file, named after the file without its extension.
func (m *Manager) LoadFile(path string) (*ModuleInfo, error) {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guest file: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return m.load(name, path, wasmBytes)
}

// LoadDir loads every .wasm file in dir. Files that fail to load are logged
// and skipped.
func (m *Manager) LoadDir(dir string) ([]*ModuleInfo, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var loaded []*ModuleInfo
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".wasm" {
			continue
		}
		info, err := m.LoadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			m.logger.Error().Err(err).Str("file", f.Name()).Msg("failed to load guest module")
			continue
		}
		loaded = append(loaded, info)
	}

	return loaded, nil
}

func (m *Manager) load(name, source string, wasmBytes []byte) (*ModuleInfo, error) {
	compiled, err := m.runtime.CompileModule(m.ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile guest module %q: %w", name, err)
	}
	info := describe(name, source, len(wasmBytes), compiled)

	m.mu.Lock()
	if prev, ok := m.modules[name]; ok {
		_ = prev.Close(m.ctx)
	}
	m.modules[name] = compiled
	m.mu.Unlock()
	m.registry.Register(info)

	m.logger.Info().
		Str("event", "guest_loaded").
		Str("guest", name).
		Str("source", source).
		Int("exports", len(info.Exports)).
		Msg("loaded wasm guest")

	return info, nil
}

// Instantiate creates a fresh instance of a loaded guest and wraps it in a
// protocol caller. Every instance gets its own memory and a unique name.
func (m *Manager) Instantiate(ctx context.Context, name string) (*Instance, error) {
	m.mu.RLock()
	compiled, ok := m.modules[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGuest, name)
	}

	id := uuid.NewString()
	cfg := wazero.NewModuleConfig().
		WithName(name + "-" + id).
		WithStdout(os.Stderr).
		WithStderr(os.Stderr).
		WithStartFunctions() // commands must not run main and exit
	if _, ok := compiled.ExportedFunctions()[initializeExport]; ok {
		cfg = cfg.WithStartFunctions(initializeExport)
	}

	mod, err := m.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate guest %q: %w", name, err)
	}

	caller, err := boundary.NewCaller(mod,
		boundary.WithConvention(m.opts.Convention),
		boundary.WithReserveExport(m.opts.ReserveExport),
		boundary.WithLogger(m.logger.With().Str("instance", id).Logger()),
	)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}

	m.logger.Debug().
		Str("event", "guest_instantiated").
		Str("guest", name).
		Str("instance", id).
		Msg("instantiated wasm guest")

	return &Instance{ID: id, Guest: name, Caller: caller, mod: mod}, nil
}

// NewPool returns a pool of at most size instances of the named guest.
func (m *Manager) NewPool(name string, size int) *Pool {
	return NewPool(size, func(ctx context.Context) (*Instance, error) {
		return m.Instantiate(ctx, name)
	})
}

// Registry returns the metadata of every loaded module.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Context returns the context the runtime is bound to.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Close closes the runtime together with all modules and instances.
func (m *Manager) Close() error {
	return m.runtime.Close(m.ctx)
}
