package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/neura-assistant/internal/adapters/mcp"
	"github.com/kirillkom/neura-assistant/internal/bootstrap"
	"github.com/kirillkom/neura-assistant/internal/config"
	"github.com/kirillkom/neura-assistant/internal/observability/logging"
)

func main() {
	if err := config.LoadDotEnv(""); err != nil {
		slog.Warn("dotenv_load_failed", "error", err)
	}
	cfg := config.Load()
	// stdout carries the MCP protocol; logs go to stderr.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	slog.Info("mcp_stdio_serving")
	if err := server.ServeStdio(mcpadapter.NewServer(app.Router)); err != nil {
		slog.Error("mcp_server_failed", "error", err)
	}
}
