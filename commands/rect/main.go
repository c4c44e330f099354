// Command rect is the reference guest written in Go. Build it as a WASI
// reactor:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o rect.wasm ./commands/rect
package main

func main() {}
