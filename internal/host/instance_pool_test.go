package host

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrei-cloud/go_binio/internal/boundary"
	"github.com/andrei-cloud/go_binio/internal/errorcodes"
	"github.com/andrei-cloud/go_binio/internal/refguest"
	"github.com/andrei-cloud/go_binio/pkg/geometry"
)

func TestPoolParallelCalls(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, Options{})
	pool := m.NewPool(ReferenceGuest, 3)
	ctx := context.Background()
	t.Cleanup(func() { _ = pool.Close(ctx) })

	var wg sync.WaitGroup
	errs := make(chan error, 24)
	for i := range 24 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pair := geometry.PointPair{
				First:  geometry.Point{X: int32(i), Y: 0},
				Second: geometry.Point{X: 0, Y: int32(-i)},
			}
			errs <- pool.Do(ctx, func(inst *Instance) error {
				r, err := boundary.Call[geometry.Rect](ctx, inst.Caller, refguest.ComputeExport, &pair)
				if err != nil {
					return err
				}
				assert.Equal(t, geometry.Rect{Left: 0, Right: int32(i), Top: int32(-i), Bottom: 0}, r)
				return nil
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, pool.Size(), 3)
	assert.GreaterOrEqual(t, pool.Size(), 1)
}

func TestPoolDiscardsPoisonedInstance(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, Options{})
	pool := m.NewPool(ReferenceGuest, 1)
	ctx := context.Background()

	inst, err := pool.Get(ctx)
	require.NoError(t, err)

	_, err = boundary.Call[geometry.Rect](ctx, inst.Caller, refguest.ComputeExport, &geometry.Point{})
	require.ErrorIs(t, err, errorcodes.ErrGuestTrap)
	pool.Put(ctx, inst)
	assert.Equal(t, 0, pool.Size())
	assert.True(t, inst.Module().IsClosed())

	fresh, err := pool.Get(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, inst.ID, fresh.ID)
	assert.True(t, fresh.Healthy())
	pool.Put(ctx, fresh)

	again, err := pool.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, again.ID, "healthy instances are reused")
}

func TestPoolDiscardWakesWaiter(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, Options{})
	pool := m.NewPool(ReferenceGuest, 1)
	ctx := context.Background()
	t.Cleanup(func() { _ = pool.Close(ctx) })

	held, err := pool.Get(ctx)
	require.NoError(t, err)

	type result struct {
		inst *Instance
		err  error
	}
	waiter := make(chan result, 1)
	go func() {
		waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		inst, err := pool.Get(waitCtx)
		waiter <- result{inst: inst, err: err}
	}()

	// No active reservation, so the guest traps and the instance is poisoned.
	_, err = held.Caller.Scalar(ctx, refguest.ComputeExport, 0, 0)
	require.ErrorIs(t, err, errorcodes.ErrGuestTrap)
	pool.Put(ctx, held)

	got := <-waiter
	require.NoError(t, got.err, "a discarded instance frees its slot for a waiter")
	assert.NotEqual(t, held.ID, got.inst.ID)
	assert.True(t, got.inst.Healthy())
	assert.Equal(t, 1, pool.Size())
	pool.Put(ctx, got.inst)
}

func TestPoolGetWaitsForContext(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, Options{})
	pool := m.NewPool(ReferenceGuest, 1)

	held, err := pool.Get(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pool.Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	pool.Put(context.Background(), held)
}

func TestPoolClose(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, Options{})
	pool := m.NewPool(ReferenceGuest, 2)
	ctx := context.Background()

	inst, err := pool.Get(ctx)
	require.NoError(t, err)
	pool.Put(ctx, inst)

	require.NoError(t, pool.Close(ctx))
	assert.True(t, inst.Module().IsClosed())
	assert.Equal(t, 0, pool.Size())

	_, err = pool.Get(ctx)
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.NoError(t, pool.Close(ctx))
}

func TestPoolFactoryError(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t, Options{})
	pool := m.NewPool("missing", 1)

	_, err := pool.Get(context.Background())
	assert.ErrorIs(t, err, ErrUnknownGuest)
	assert.Equal(t, 0, pool.Size())
}
