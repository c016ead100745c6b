package main

import (
	"os"

	"review-backend/internal/bootstrap"
	"review-backend/internal/shared/config"
	"review-backend/internal/shared/server"
	"review-backend/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("config.load_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer app.Close()

	addr := server.Addr(cfg.Port)
	telemetry.Info("server.starting", map[string]any{
		"addr":        addr,
		"env":         cfg.Env,
		"backend_url": cfg.BackendBaseURL,
		"database":    app.DB != nil,
	})

	if err := app.Router.Run(addr); err != nil {
		telemetry.Error("server.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
