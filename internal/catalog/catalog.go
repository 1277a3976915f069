// Package catalog supplies the recipe set the recommendation core reads.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hyperengineering/larder/internal/types"
)

// ErrUnavailable is returned when a catalog source cannot be read.
var ErrUnavailable = errors.New("recipe catalog unavailable")

// Source lists every recipe, ordered by name.
// store.SQLiteStore satisfies Source.
type Source interface {
	ListRecipes(ctx context.Context) ([]types.Recipe, error)
}

// File is the on-disk YAML recipe format.
type File struct {
	Recipes []types.Recipe `yaml:"recipes"`
}

// LoadFile parses a YAML recipe file and returns its recipes in name order.
func LoadFile(path string) ([]types.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipe file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML recipe data.
func Parse(data []byte) ([]types.Recipe, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing recipe file: %w", err)
	}
	types.SortRecipes(f.Recipes)
	return f.Recipes, nil
}

// FileCatalog serves recipes from a YAML file, re-read on every call.
type FileCatalog struct {
	path string
}

// NewFileCatalog creates a catalog backed by path.
func NewFileCatalog(path string) *FileCatalog {
	return &FileCatalog{path: path}
}

// ListRecipes implements Source.
func (c *FileCatalog) ListRecipes(ctx context.Context) ([]types.Recipe, error) {
	recipes, err := LoadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return recipes, nil
}

// FailOpen wraps a Source so read errors become an empty catalog.
type FailOpen struct {
	source Source
	logger *slog.Logger
}

// NewFailOpen wraps source.
func NewFailOpen(source Source) *FailOpen {
	return &FailOpen{
		source: source,
		logger: slog.Default().With("component", "catalog"),
	}
}

// Recipes returns the catalog, or an empty list when it cannot be read.
func (c *FailOpen) Recipes(ctx context.Context) []types.Recipe {
	recipes, err := c.source.ListRecipes(ctx)
	if err != nil {
		c.logger.Error("catalog read failed, serving empty catalog", "error", err)
		return []types.Recipe{}
	}
	return recipes
}
