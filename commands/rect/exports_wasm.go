//go:build wasip1

package main

import "github.com/andrei-cloud/go_binio/pkg/guestkit"

var instance = newGuest(guestkit.NewLinearHeap(), guestkit.Log)

// A failure here has no way back to the host but a trap.

//go:wasmexport reserve_buffer
func reserveBuffer(size int32) int64 {
	packed, err := instance.reserve(size)
	if err != nil {
		panic(err)
	}
	return packed
}

//go:wasmexport do_compute
func doCompute(ptr, length uint32) int64 {
	packed, err := instance.compute(ptr, length)
	if err != nil {
		panic(err)
	}
	return packed
}

//go:wasmexport add
func addExport(a, b int32) int32 {
	return add(a, b)
}

//go:wasmexport hello
func helloExport() {
	instance.hello()
}
