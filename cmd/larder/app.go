package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/hyperengineering/larder/internal/catalog"
	"github.com/hyperengineering/larder/internal/config"
	"github.com/hyperengineering/larder/internal/patterns"
	"github.com/hyperengineering/larder/internal/personalize"
	"github.com/hyperengineering/larder/internal/service"
	"github.com/hyperengineering/larder/internal/store"
	"github.com/hyperengineering/larder/internal/tracker"
	"github.com/hyperengineering/larder/internal/validation"
)

var dbPathOverride string

// app is the wired object graph shared by serve and the offline commands.
type app struct {
	db      *store.SQLiteStore
	tracker *tracker.Tracker
	svc     *service.Service
}

func (a *app) Close() error {
	return a.db.Close()
}

// openApp opens the database, imports the configured seed file and wires
// the tracker and service over it.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if cfg.Catalog.SeedPath != "" {
		n, err := importRecipes(ctx, db, cfg.Catalog.SeedPath)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("import seed catalog: %w", err)
		}
		slog.Info("seed catalog imported", "component", "catalog", "path", cfg.Catalog.SeedPath, "recipes", n)
	}

	tr := tracker.New(ctx, store.NewBehaviorStore(db),
		tracker.WithEventLog(db),
		tracker.WithAnalyzer(patterns.NewAnalyzer(cfg.Recommendation.CategoryCount)),
	)
	return &app{
		db:      db,
		tracker: tr,
		svc:     service.New(db, db, tr, personalize.New(nil)),
	}, nil
}

// openLocalApp opens the app for an offline command. Logs go to stderr so
// command output stays clean.
func openLocalApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadLocal()
	if err != nil {
		return nil, err
	}
	if dbPathOverride != "" {
		cfg.Database.Path = dbPathOverride
	}
	slog.SetDefault(newLogger(cmd.ErrOrStderr(), config.LogConfig{Level: "warn", Format: "text"}))
	return openApp(ctx, cfg)
}

// importRecipes loads, validates and upserts a YAML recipe file. Any invalid
// recipe rejects the whole file.
func importRecipes(ctx context.Context, db store.RecipeStore, path string) (int, error) {
	recipes, err := catalog.LoadFile(path)
	if err != nil {
		return 0, err
	}

	var errs []validation.ValidationError
	for i, r := range recipes {
		errs = append(errs, validation.ValidateRecipe(i, r)...)
	}
	if len(errs) > 0 {
		return 0, fmt.Errorf("%w: %s: %s", store.ErrInvalidRecipe, errs[0].Field, errs[0].Message)
	}

	return db.UpsertRecipes(ctx, recipes)
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
