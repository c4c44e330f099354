package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/wippyai/wasm-runtime/wat"
)

// Logs through the host import without having a memory to log from.
const memorylessLogger = `(module
  (import "env" "log_message" (func $log (param i32 i32)))
  (func (export "ping")
    (call $log (i32.const 0) (i32.const 4))))`

func TestLogMessageWithoutMemory(t *testing.T) {
	t.Parallel()

	m, out := newManager(t, Options{})
	ctx := context.Background()

	bin, err := wat.Compile(memorylessLogger)
	require.NoError(t, err)
	mod, err := m.runtime.InstantiateWithConfig(ctx, bin, wazero.NewModuleConfig().WithName("memoryless"))
	require.NoError(t, err)
	defer mod.Close(ctx)

	_, err = mod.ExportedFunction("ping").Call(ctx)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "failed to read guest log message")
	assert.Contains(t, out.String(), "no memory exported")
}

func TestReadMemoryBounds(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, Options{})
	ctx := context.Background()

	inst, err := m.Instantiate(ctx, ReferenceGuest)
	require.NoError(t, err)
	defer inst.Close(ctx)

	data, err := readMemory(inst.Module(), 16, 13)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", string(data))

	_, err = readMemory(inst.Module(), 65530, 16)
	assert.Error(t, err)
}
