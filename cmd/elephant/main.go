package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/elephant/internal/blob"
	"github.com/kailas-cloud/elephant/internal/config"
	logpkg "github.com/kailas-cloud/elephant/internal/logger"
	"github.com/kailas-cloud/elephant/internal/metrics"
	"github.com/kailas-cloud/elephant/internal/search"
	"github.com/kailas-cloud/elephant/internal/store"
	chiTransport "github.com/kailas-cloud/elephant/internal/transport/chi"
	"github.com/kailas-cloud/elephant/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "elephant",
	Short: "Document store with a searchable mirror",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()
		return app.serve()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Rebuild every search index from the blob store",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		seeder := store.NewSeeder(app.store, app.logger)
		indexed, err := seeder.Seed(cmd.Context())
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		fmt.Printf("Indexed %d record(s)\n", indexed)
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every search index (blob store untouched)",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		seeder := store.NewSeeder(app.store, app.logger)
		if err := seeder.Purge(cmd.Context()); err != nil {
			return fmt.Errorf("purge: %w", err)
		}
		fmt.Println("All search indexes deleted")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build metadata",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("elephant %s (%s, %s)\n", version.Version, version.Commit, version.Date)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(versionCmd)
}

// app holds the composed process: config, logger, adapters, store.
type app struct {
	cfg    config.Config
	env    string
	logger *zap.Logger
	index  search.Index
	store  *store.Store
}

// newApp loads configuration and wires the adapters into a record store.
func newApp() (*app, error) {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	ctx := context.Background()

	blobs, err := blob.NewFromConfig(ctx, cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("create blob store: %w", err)
	}

	index, err := search.NewFromConfig(ctx, cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}

	logger.Info("elephant initialized",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("blob_driver", cfg.Blob.Driver),
		zap.String("search_driver", cfg.Search.Driver),
	)

	return &app{
		cfg:    cfg,
		env:    env,
		logger: logger,
		index:  index,
		store:  store.New(blobs, index),
	}, nil
}

func (a *app) Close() {
	if err := a.index.Close(); err != nil {
		a.logger.Error("closing search index", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// serve runs the HTTP server until SIGINT/SIGTERM, then shuts down gracefully.
func (a *app) serve() error {
	metrics.RegisterStoreMetrics()

	server := chiTransport.NewServer(a.store, a.cfg.Search.DefaultSize, a.cfg.Search.MaxSize, a.logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(a.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(a.logger))
	r.Use(chiTransport.KeyAuthMiddleware(a.cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		a.logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("server stopped gracefully")
	return nil
}
