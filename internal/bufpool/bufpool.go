// Package bufpool provides size-bucketed scratch buffers for encoding call
// arguments on the host before they are copied into guest memory.
package bufpool

import (
	"sync"
	"sync/atomic"
)

// DefaultBuckets covers the value sizes exchanged across the boundary.
var DefaultBuckets = []int{16, 64, 256, 1024, 4096}

// Pool manages reusable byte slices organized by capacity buckets.
type Pool struct {
	pools   []*sync.Pool
	buckets []int

	allocations atomic.Int64
	hits        atomic.Int64
	misses      atomic.Int64
	oversized   atomic.Int64
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Allocations int64   `json:"allocations"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Oversized   int64   `json:"oversized"`
	HitRatePct  float64 `json:"hit_rate_pct"`
}

// New creates a pool with the given ascending bucket capacities.
// With no buckets it uses DefaultBuckets.
//
//	pool := bufpool.New()
//	buf := pool.Get(16)
//	defer pool.Put(buf)
func New(buckets ...int) *Pool {
	if len(buckets) == 0 {
		buckets = DefaultBuckets
	}
	p := &Pool{
		pools:   make([]*sync.Pool, len(buckets)),
		buckets: append([]int(nil), buckets...),
	}
	for i := range p.pools {
		p.pools[i] = &sync.Pool{}
	}

	return p
}

func (p *Pool) bucket(size int) int {
	for i, bs := range p.buckets {
		if bs >= size {
			return i
		}
	}
	return -1
}

// Get returns a zeroed buffer of length size. Buffers larger than the biggest
// bucket are allocated directly and never pooled.
func (p *Pool) Get(size int) []byte {
	p.allocations.Add(1)

	i := p.bucket(size)
	if i < 0 {
		p.oversized.Add(1)
		p.misses.Add(1)
		return make([]byte, size)
	}

	if buf, ok := p.pools[i].Get().([]byte); ok {
		p.hits.Add(1)
		return buf[:size]
	}
	p.misses.Add(1)

	return make([]byte, size, p.buckets[i])
}

// Put clears buf and returns it to its bucket.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	c := cap(buf)
	i := p.bucket(c)
	if i < 0 || p.buckets[i] != c {
		return
	}
	clear(buf[:c])
	p.pools[i].Put(buf[:0]) //nolint:staticcheck // slices are small; boxing cost is acceptable.
}

// Prewarm fills every bucket with count buffers.
func (p *Pool) Prewarm(count int) {
	for i, size := range p.buckets {
		for range count {
			p.pools[i].Put(make([]byte, 0, size)) //nolint:staticcheck
		}
	}
}

// Stats returns the current counters.
func (p *Pool) Stats() Stats {
	s := Stats{
		Allocations: p.allocations.Load(),
		Hits:        p.hits.Load(),
		Misses:      p.misses.Load(),
		Oversized:   p.oversized.Load(),
	}
	if s.Allocations > 0 {
		s.HitRatePct = float64(s.Hits) / float64(s.Allocations) * 100.0
	}
	return s
}

// ResetStats zeroes all counters.
func (p *Pool) ResetStats() {
	p.allocations.Store(0)
	p.hits.Store(0)
	p.misses.Store(0)
	p.oversized.Store(0)
}

// Buckets returns a copy of the bucket capacities.
func (p *Pool) Buckets() []int {
	return append([]int(nil), p.buckets...)
}
