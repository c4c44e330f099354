// Package refguest embeds the reference guest module used by the CLI when no
// guest file is configured, and by tests that need a real guest instance.
package refguest

import (
	_ "embed"
	"sync"

	"github.com/wippyai/wasm-runtime/wat"
)

// Exports of the reference guest.
const (
	ReserveExport   = "reserve_buffer"
	ComputeExport   = "do_compute"
	ReserveExportMV = "reserve_buffer_mv"
	ComputeExportMV = "do_compute_mv"
	EchoExport      = "echo"
	AddExport       = "add"
	HelloExport     = "hello"
)

// SlotBase is the fixed offset of the guest's single reservation slot.
const SlotBase = 1024

// Messages the guest sends through log_message.
const (
	HelloMessage   = "Hello, World!"
	ComputeMessage = "rect computed"
)

//go:embed rect.wat
var source string

var compiled = sync.OnceValues(func() ([]byte, error) {
	return wat.Compile(source)
})

// Binary returns the compiled module. It is compiled once and shared.
func Binary() ([]byte, error) {
	return compiled()
}

// Source returns the module text.
func Source() string {
	return source
}
