package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/larder/internal/api"
	"github.com/hyperengineering/larder/internal/config"
	"github.com/hyperengineering/larder/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "larder",
	Short:        "Larder - recipe recommendation service",
	SilenceUsage: true,
	RunE:         run,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	Args:  cobra.NoArgs,
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathOverride, "db", "",
		"Database path (overrides config and LARDER_DB_PATH)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(recipesCmd)
	rootCmd.AddCommand(behaviorCmd)
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dbPathOverride != "" {
		cfg.Database.Path = dbPathOverride
	}
	slog.Info("configuration loaded")

	// 3. Initialize logger
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	// 4. Initialize store, catalog seed and service
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	// 5. Initialize HTTP router
	handler := api.NewHandler(a.svc, a.db, cfg.Auth.APIKey, Version)
	router := api.NewRouter(handler, cfg.RateLimit.EventsPerMinute)
	slog.Info("router initialized", "events_per_minute", cfg.RateLimit.EventsPerMinute)

	// 6. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 7. Workers
	var wg sync.WaitGroup
	compaction := worker.NewEventCompactionWorker(a.db,
		time.Duration(cfg.Worker.CompactionInterval),
		time.Duration(cfg.Worker.EventRetention))
	startWorker(ctx, &wg, "event-compaction", compaction.Run)

	// 8. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called gracefully.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// 9. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 10. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// 10a. Stop HTTP server (drains in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// 10b. Wait for workers to complete
	wg.Wait()

	// 10c. Close store
	if err := a.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
