// Command mcp-server exposes the formula engine as MCP tools over stdio,
// for AI agent frameworks that tune progression curves.
//
// Configuration comes from the environment:
//
//	FORMULA_MCP_NAME       server name advertised to clients (default "formula")
//	FORMULA_MCP_LOG_LEVEL  slog level: debug, info, warn, error (default info)
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/growthcurve/formula"
)

const serverVersion = "1.0.0"

type config struct {
	Name     string     `env:"FORMULA_MCP_NAME" envDefault:"formula"`
	LogLevel slog.Level `env:"FORMULA_MCP_LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("parse config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: serverVersion,
	}, nil)
	formula.RegisterTools(server)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("formula MCP server starting", "name", cfg.Name, "transport", "stdio")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
