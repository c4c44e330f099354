//go:build !wasm

package guestkit

// Log forwards msg to the host. Outside a WASM build there is no host, so it does nothing.
func Log(string) {}
