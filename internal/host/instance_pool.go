package host

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned by Get after Close.
var ErrPoolClosed = errors.New("instance pool closed")

// Pool hands out guest instances, one caller at a time each. Instances are
// created lazily up to the pool size; poisoned instances are discarded and
// their slot is handed to the next waiter.
type Pool struct {
	pool    chan *Instance
	slots   chan struct{} // one token per instance that may still be created
	maxSize int
	factory func(context.Context) (*Instance, error)

	mu      sync.Mutex
	created int
	closed  bool
}

// NewPool creates a pool of at most maxSize instances built by factory.
func NewPool(maxSize int, factory func(context.Context) (*Instance, error)) *Pool {
	maxSize = max(maxSize, 1)
	p := &Pool{
		pool:    make(chan *Instance, maxSize),
		slots:   make(chan struct{}, maxSize),
		maxSize: maxSize,
		factory: factory,
	}
	for range maxSize {
		p.slots <- struct{}{}
	}
	return p
}

// Get returns an idle instance, creating one if the pool is below its size,
// or waits for an instance to be returned or a slot to be freed.
func (p *Pool) Get(ctx context.Context) (*Instance, error) {
	// Idle instances are preferred over creating new ones.
	select {
	case inst, ok := <-p.pool:
		return take(inst, ok)
	default:
	}

	select {
	case inst, ok := <-p.pool:
		return take(inst, ok)
	case <-p.slots:
		return p.create(ctx)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func take(inst *Instance, ok bool) (*Instance, error) {
	if !ok {
		return nil, ErrPoolClosed
	}
	return inst, nil
}

func (p *Pool) create(ctx context.Context) (*Instance, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.slots <- struct{}{}
		return nil, ErrPoolClosed
	}
	p.created++
	p.mu.Unlock()

	inst, err := p.factory(ctx)
	if err != nil {
		p.mu.Lock()
		p.release()
		p.mu.Unlock()
		return nil, err
	}
	return inst, nil
}

// Put returns an instance to the pool. Unhealthy instances are closed instead.
func (p *Pool) Put(ctx context.Context, inst *Instance) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || !inst.Healthy() {
		_ = inst.Close(ctx)
		p.release()
		return
	}

	select {
	case p.pool <- inst:
	default:
		_ = inst.Close(ctx)
		p.release()
	}
}

// Do runs fn with an instance from the pool.
func (p *Pool) Do(ctx context.Context, fn func(*Instance) error) error {
	inst, err := p.Get(ctx)
	if err != nil {
		return err
	}
	defer p.Put(ctx, inst)

	return fn(inst)
}

// Size returns the number of live instances.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// Close closes all idle instances; instances still in use are closed when put back.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.pool)

	var errs []error
	for inst := range p.pool {
		errs = append(errs, inst.Close(ctx))
		p.release()
	}
	return errors.Join(errs...)
}

// release gives back the slot of a discarded instance. p.mu must be held.
func (p *Pool) release() {
	p.created--
	p.slots <- struct{}{}
}
