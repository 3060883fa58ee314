package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/blogdex/internal/version"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "blogdex",
		Short:         "Blog backend with metadata extraction and semantic search",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: config/$ENV.yaml)")

	cmd.AddCommand(newServeCommand(&configPath))
	cmd.AddCommand(newMigrateCommand(&configPath))
	cmd.AddCommand(newReindexCommand(&configPath))
	return cmd
}

func newServeCommand(configPath *string) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, *configPath, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), *configPath)
		},
	}
}

func newReindexCommand(configPath *string) *cobra.Command {
	var render bool
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Recompute the embedding of every post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runReindex(ctx, *configPath, render)
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "re-render HTML as well")
	return cmd
}

func runServe(ctx context.Context, configPath string, migrate bool) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close()

	logger := a.logger
	logger.Info("Starting blogdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", a.cfg.HTTP.Port),
		zap.String("db_driver", a.cfg.Database.Driver),
		zap.String("cache_backend", a.cfg.Search.CacheBackend),
		zap.String("rate_limit_backend", a.cfg.RateLimit.Backend),
	)

	if migrate {
		if err := a.migrate(ctx); err != nil {
			return err
		}
	}

	a.pool.Start(ctx)

	cfg := a.cfg
	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.server.Router(cfg.Auth.APIKeys),
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := a.pool.Stop(shutdownCtx); err != nil {
		logger.Error("Background jobs did not finish", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func runMigrate(ctx context.Context, configPath string) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close()
	return a.migrate(ctx)
}

func runReindex(ctx context.Context, configPath string, render bool) error {
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.posts.Reindex(ctx, render)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	if report.Failed > 0 {
		return fmt.Errorf("reindex: %d of %d posts failed", report.Failed, report.Total)
	}
	return nil
}

func (a *app) migrate(ctx context.Context) error {
	if a.pg == nil {
		a.logger.Info("Skipping migrations", zap.String("db_driver", a.cfg.Database.Driver))
		return nil
	}
	if err := a.pg.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	v, err := a.pg.MigrationVersion(ctx)
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	a.logger.Info("Migrations applied", zap.Int64("version", v))
	return nil
}

