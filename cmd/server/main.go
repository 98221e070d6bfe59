package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/bookfund/internal/admin"
	"github.com/JonMunkholm/bookfund/internal/config"
	"github.com/JonMunkholm/bookfund/internal/core"
	"github.com/JonMunkholm/bookfund/internal/database"
	"github.com/JonMunkholm/bookfund/internal/logging"
	"github.com/JonMunkholm/bookfund/internal/web"
)

func main() {
	// Overload lets a local .env win over the shell environment
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()
	pool, err := database.Connect(ctx, poolConfig(cfg.Database))
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	slog.Info("connected to database", "name", database.Name(cfg.Database.URL))

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		if v, err := database.Version(ctx, pool); err == nil {
			slog.Info("schema up to date", "version", v)
		}
	}

	store := database.New(pool)

	if cfg.Seed.OnStart {
		report, err := admin.Seed(ctx, store)
		if err != nil {
			slog.Error("failed to seed reference data", "error", err)
			os.Exit(1)
		}
		slog.Info("reference data seeded", "buildings", report.Buildings, "subjects", report.Subjects)
	}

	service := core.NewService(store, cfg)

	slog.Info("import kinds registered",
		"count", core.KindCount(),
		"groups", len(core.Groups()),
	)
	for _, group := range core.Groups() {
		slog.Debug("import group", "group", group, "kinds", len(core.ByGroup(group)))
	}

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())

	go service.StartHistoryScheduler(jobCtx, core.HistoryConfig{
		RetentionDays: cfg.History.RetentionDays,
		CheckInterval: cfg.History.CheckInterval,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// poolConfig maps database settings onto the pool options.
func poolConfig(c config.DatabaseConfig) database.PoolConfig {
	return database.PoolConfig{
		URL:             c.URL,
		MaxConns:        c.MaxConns,
		MinConns:        c.MinConns,
		MaxConnLifetime: c.MaxConnLifetime,
		MaxConnIdleTime: c.MaxConnIdleTime,
	}
}
