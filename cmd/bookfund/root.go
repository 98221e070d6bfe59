package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/bookfund/internal/admin"
	"github.com/JonMunkholm/bookfund/internal/config"
	"github.com/JonMunkholm/bookfund/internal/core"
	"github.com/JonMunkholm/bookfund/internal/database"
	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/logging"
	"github.com/JonMunkholm/bookfund/internal/store/memstore"
)

// offline marks commands that never touch a store.
const offline = "offline"

// app holds what PersistentPreRunE opened for the running command.
type app struct {
	dryRun bool

	cfg     *config.Config
	pool    *pgxpool.Pool
	store   domain.Store
	service *core.Service
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bookfund",
		Short:         "Textbook fund imports, reconciliation and purchase planning",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context(), cmd)
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.PersistentFlags().BoolVar(&a.dryRun, "dry-run", false,
		"Use an in-memory store seeded with reference data instead of PostgreSQL")

	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newSeedCmd(a))
	cmd.AddCommand(newKindsCmd())
	cmd.AddCommand(newTemplateCmd())
	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newReconcileCmd(a))
	cmd.AddCommand(newPlanCmd(a))
	cmd.AddCommand(newInventoryCmd(a))
	cmd.AddCommand(newWriteOffCmd(a))
	cmd.AddCommand(newApproveCmd(a))
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		os.Exit(exitCode(err))
	}
}

func (a *app) open(ctx context.Context, cmd *cobra.Command) error {
	_ = godotenv.Overload()

	cfg, err := config.LoadLocal()
	if err != nil {
		return withCode(exitConfig, err)
	}
	a.cfg = cfg

	// stdout carries command output
	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))

	if cmd.Annotations[offline] == "true" || cmd.Name() == "help" {
		return nil
	}

	if a.dryRun {
		store := memstore.New()
		if _, err := admin.Seed(ctx, store); err != nil {
			return withCode(exitFailure, err)
		}
		a.store = store
	} else {
		if err := cfg.ValidateDatabase(); err != nil {
			return withCode(exitConfig, err)
		}
		pool, err := database.Connect(ctx, database.PoolConfig{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			return withCode(exitDB, err)
		}
		a.pool = pool
		slog.Debug("connected to database", "name", database.Name(cfg.Database.URL))

		if cfg.Database.AutoMigrate && cmd.Name() != "migrate" {
			if err := database.Migrate(ctx, pool); err != nil {
				return withCode(exitDB, err)
			}
		}
		a.store = database.New(pool)
	}

	a.service = core.NewService(a.store, cfg)
	return nil
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
