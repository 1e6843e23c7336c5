package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ahelp-app/ahelp-cli/internal/api"
	"github.com/ahelp-app/ahelp-cli/internal/config"
	"github.com/ahelp-app/ahelp-cli/internal/service"
	"github.com/ahelp-app/ahelp-cli/internal/session"
	"github.com/ahelp-app/ahelp-cli/internal/tui"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sessions, err := session.NewFileStore(cfg.SessionFile)
	if err != nil {
		slog.Error("cannot open session store", "error", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.APIBaseURL, sessions)
	auth := service.NewAuthService(client, sessions)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := tui.NewApp(auth, client, sessions, os.Stdin, os.Stdout)
	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("client stopped", "error", err)
		os.Exit(1)
	}
}
