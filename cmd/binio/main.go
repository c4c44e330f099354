package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrei-cloud/go_binio/cmd/binio/cmd"
)

// main runs the binio CLI until it finishes or is interrupted.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
