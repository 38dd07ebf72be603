package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/i474232898/weather-session/internal/di"
)

func main() {
	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, cleanup, err := di.InitApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}

	err = application.Run(ctx)
	cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "weather-session stopped: %v\n", err)
		os.Exit(1)
	}
}
