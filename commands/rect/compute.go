package main

import (
	"github.com/andrei-cloud/go_binio/pkg/geometry"
	"github.com/andrei-cloud/go_binio/pkg/guestkit"
)

const (
	helloMessage   = "Hello, World!"
	computeMessage = "rect computed"
)

// guest holds the per-instance state behind the exports.
type guest struct {
	arena *guestkit.Arena
	log   func(string)
}

func newGuest(heap guestkit.Heap, log func(string)) *guest {
	return &guest{arena: guestkit.NewArena(heap), log: log}
}

func (g *guest) reserve(size int32) (int64, error) {
	return g.arena.Reserve(size)
}

// compute decodes the point pair in the active slot and writes its bounding
// rectangle back through the same arena.
func (g *guest) compute(ptr, length uint32) (int64, error) {
	var pair geometry.PointPair
	if err := guestkit.Deserialize(g.arena, ptr, length, &pair); err != nil {
		return 0, err
	}

	rect := pair.Bound()
	packed, err := guestkit.Serialize(g.arena, &rect)
	if err != nil {
		return 0, err
	}
	g.log(computeMessage)

	return packed, nil
}

func (g *guest) hello() {
	g.log(helloMessage)
}

func add(a, b int32) int32 {
	return a + b
}
