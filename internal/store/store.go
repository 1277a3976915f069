package store

import (
	"context"
	"time"

	"github.com/hyperengineering/larder/internal/types"
)

// Backend is the raw key-value persistence boundary behind BehaviorStore.
// Values are opaque bytes; typing lives in BehaviorStore.
type Backend interface {
	// GetAll returns every stored key in a single consistent read.
	GetAll(ctx context.Context) (map[string][]byte, error)
	// Get returns ErrNotFound when the key has never been written.
	Get(ctx context.Context, key string) ([]byte, error)
	// PutMany writes all entries atomically.
	PutMany(ctx context.Context, entries map[string][]byte) error
}

// RecipeStore persists the recipe catalog.
type RecipeStore interface {
	ListRecipes(ctx context.Context) ([]types.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*types.Recipe, error)
	UpsertRecipes(ctx context.Context, recipes []types.Recipe) (int, error)
	SetFavorite(ctx context.Context, id string, favorite bool) error
}

// EventLog is the append-only audit trail of tracked interactions.
type EventLog interface {
	AppendEvent(ctx context.Context, event types.InteractionEvent) error
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
}
