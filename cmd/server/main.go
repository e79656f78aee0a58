package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nfrund/causal/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Load(ctx)
	if err != nil {
		// slog may not be configured if config failed to load.
		log.Fatalf("startup failed: %v", err)
	}

	if err := app.Serve(ctx, deps); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}
