package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/andrei-cloud/go_binio/internal/logging"
)

// HostModule is the import module guests resolve host functions from.
const HostModule = "env"

// registerHostFunctions instantiates the env module in rt.
func registerHostFunctions(ctx context.Context, rt wazero.Runtime, logger zerolog.Logger) error {
	_, err := rt.NewHostModuleBuilder(HostModule).
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, mod api.Module, ptr, length uint32) {
			logMessage(logger, mod, ptr, length)
		}).
		Export("log_message").
		Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("failed to instantiate host functions module: %w", err)
	}

	return nil
}

func logMessage(logger zerolog.Logger, mod api.Module, ptr, length uint32) {
	data, err := readMemory(mod, ptr, length)
	if err != nil {
		logger.Error().
			Str("event", "guest_log").
			Str("module", mod.Name()).
			Err(err).
			Msg("failed to read guest log message")
		return
	}

	logger.Info().
		Str("event", "guest_log").
		Str("source", "guest").
		Str("module", mod.Name()).
		Msg(logging.FormatData(data))
}

// readMemory copies bytes out of guest memory.
func readMemory(mod api.Module, ptr, size uint32) ([]byte, error) {
	if len(mod.ExportedMemoryDefinitions()) == 0 {
		return nil, errors.New("no memory exported")
	}
	memory := mod.Memory()

	data, ok := memory.Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("failed to read memory at %d[%d]", ptr, size)
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
