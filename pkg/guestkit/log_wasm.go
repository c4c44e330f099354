//go:build wasm

package guestkit

import (
	"runtime"
	"unsafe"
)

//go:wasmimport env log_message
func logMessage(ptr, length uint32)

// Log forwards msg to the host's log_message import.
func Log(msg string) {
	if msg == "" {
		return
	}
	b := []byte(msg)
	//nolint:gosec // linear memory offsets fit in 32 bits on wasm32.
	logMessage(uint32(uintptr(unsafe.Pointer(unsafe.SliceData(b)))), uint32(len(b)))
	runtime.KeepAlive(b)
}
