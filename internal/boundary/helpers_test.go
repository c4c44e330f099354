package boundary_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/wasm-runtime/wat"

	"github.com/andrei-cloud/go_binio/internal/refguest"
)

// guestLog collects the strings a guest sends through env.log_message.
type guestLog struct {
	mu   sync.Mutex
	msgs []string
}

func (l *guestLog) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs...)
}

// instantiate compiles bin in a fresh runtime that provides env.log_message.
func instantiate(t *testing.T, bin []byte) (api.Module, *guestLog) {
	t.Helper()

	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = r.Close(ctx) })

	logs := &guestLog{}
	_, err := r.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, ptr, length uint32) {
			b, _ := m.Memory().Read(ptr, length)
			logs.mu.Lock()
			logs.msgs = append(logs.msgs, string(b))
			logs.mu.Unlock()
		}).
		Export("log_message").
		Instantiate(ctx)
	require.NoError(t, err)

	mod, err := r.Instantiate(ctx, bin)
	require.NoError(t, err)

	return mod, logs
}

func referenceGuest(t *testing.T) (api.Module, *guestLog) {
	t.Helper()

	bin, err := refguest.Binary()
	require.NoError(t, err)
	return instantiate(t, bin)
}

func watGuest(t *testing.T, src string) api.Module {
	t.Helper()

	bin, err := wat.Compile(src)
	require.NoError(t, err)
	mod, _ := instantiate(t, bin)
	return mod
}
