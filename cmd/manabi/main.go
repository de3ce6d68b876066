// Command manabi serves the school ICT policy-maturity HTTP API and MCP
// endpoint. Configuration comes from MANABI_* environment variables and an
// optional .env file.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ashita-ai/manabi"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Used only until the App has built its configured logger.
	bootstrap := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := manabi.New(manabi.WithVersion(version))
	if err != nil {
		bootstrap.Error("startup failed", "error", err)
		return 1
	}
	if err := app.Run(ctx); err != nil {
		bootstrap.Error("fatal error", "error", err)
		return 1
	}
	return 0
}
