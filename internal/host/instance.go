package host

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/andrei-cloud/go_binio/internal/boundary"
)

// Instance is one instantiated guest with its own linear memory.
type Instance struct {
	ID     string
	Guest  string
	Caller *boundary.Caller
	mod    api.Module
}

// Module returns the underlying wazero module.
func (i *Instance) Module() api.Module {
	return i.mod
}

// Healthy reports whether the instance may serve further calls.
func (i *Instance) Healthy() bool {
	return !i.mod.IsClosed() && i.Caller.Poisoned() == nil
}

// Close releases the instance.
func (i *Instance) Close(ctx context.Context) error {
	return i.mod.Close(ctx)
}
