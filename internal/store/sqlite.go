package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperengineering/larder/internal/types"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Compile-time interface checks.
var (
	_ Backend     = (*SQLiteStore)(nil)
	_ RecipeStore = (*SQLiteStore)(nil)
	_ EventLog    = (*SQLiteStore)(nil)
)

// SQLiteStore holds behavior data, the recipe catalog and the event log in a
// single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Backend ---

// GetAll returns every behavior key.
func (s *SQLiteStore) GetAll(ctx context.Context) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM behavior_kv`)
	if err != nil {
		return nil, fmt.Errorf("query behavior: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan behavior row: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate behavior rows: %w", err)
	}
	return out, nil
}

// Get returns a single behavior value.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM behavior_kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// PutMany upserts all entries in one transaction.
func (s *SQLiteStore) PutMany(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO behavior_kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	nowStr := time.Now().UTC().Format(time.RFC3339)
	for key, value := range entries {
		if _, err := stmt.ExecContext(ctx, key, value, nowStr); err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// --- RecipeStore ---

const recipeColumns = `id, name, description, category, difficulty, region, prep_time, cook_time, servings, is_favorite`

// ListRecipes returns every recipe ordered by name.
func (s *SQLiteStore) ListRecipes(ctx context.Context) ([]types.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	var out []types.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}
	types.SortRecipes(out)
	return out, nil
}

// GetRecipe retrieves a recipe by ID.
func (s *SQLiteStore) GetRecipe(ctx context.Context, id string) (*types.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)
	r, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("scan recipe: %w", err)
	}
	return r, nil
}

// UpsertRecipes inserts or replaces recipes by ID. An existing recipe keeps
// its favorite flag. The whole batch is rejected if any recipe is invalid.
func (s *SQLiteStore) UpsertRecipes(ctx context.Context, recipes []types.Recipe) (int, error) {
	for _, r := range recipes {
		if err := validateRecipe(r); err != nil {
			return 0, err
		}
	}
	if len(recipes) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recipes (`+recipeColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			category = excluded.category,
			difficulty = excluded.difficulty,
			region = excluded.region,
			prep_time = excluded.prep_time,
			cook_time = excluded.cook_time,
			servings = excluded.servings,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	nowStr := time.Now().UTC().Format(time.RFC3339)
	for _, r := range recipes {
		_, err := stmt.ExecContext(ctx,
			r.ID, r.Name, r.Description, r.Category, string(r.Difficulty), r.Region,
			r.PrepTime, r.CookTime, r.Servings, boolToInt(r.IsFavorite), nowStr,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert recipe %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(recipes), nil
}

// SetFavorite flips the favorite flag on a recipe.
func (s *SQLiteStore) SetFavorite(ctx context.Context, id string, favorite bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recipes SET is_favorite = ?, updated_at = ? WHERE id = ?`,
		boolToInt(favorite), time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("set favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

func scanRecipe(scanner interface{ Scan(...any) error }) (*types.Recipe, error) {
	var r types.Recipe
	var difficulty string
	var favorite int
	err := scanner.Scan(
		&r.ID,
		&r.Name,
		&r.Description,
		&r.Category,
		&difficulty,
		&r.Region,
		&r.PrepTime,
		&r.CookTime,
		&r.Servings,
		&favorite,
	)
	if err != nil {
		return nil, err
	}
	r.Difficulty = types.Difficulty(difficulty)
	r.IsFavorite = favorite != 0
	return &r, nil
}

func validateRecipe(r types.Recipe) error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return fmt.Errorf("%w: id is required", ErrInvalidRecipe)
	case strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("%w: %s: name is required", ErrInvalidRecipe, r.ID)
	case !r.Difficulty.Valid():
		return fmt.Errorf("%w: %s: unknown difficulty %q", ErrInvalidRecipe, r.ID, r.Difficulty)
	case r.PrepTime < 0 || r.CookTime < 0 || r.Servings < 0:
		return fmt.Errorf("%w: %s: times and servings must be non-negative", ErrInvalidRecipe, r.ID)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- EventLog ---

// eventTimeFormat is fixed-width so stored timestamps sort lexically.
const eventTimeFormat = "2006-01-02T15:04:05.000000000Z"

// AppendEvent records an interaction. A missing ID is filled with a new ULID.
func (s *SQLiteStore) AppendEvent(ctx context.Context, event types.InteractionEvent) error {
	if event.ID == "" {
		event.ID = ulid.Make().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interaction_events (id, type, recipe_id, section_type, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, event.ID, string(event.Type), event.RecipeID, string(event.SectionType),
		event.OccurredAt.UTC().Format(eventTimeFormat))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// PruneEvents deletes events that occurred before the cutoff.
func (s *SQLiteStore) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM interaction_events WHERE occurred_at < ?`,
		before.UTC().Format(eventTimeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}

// ListEvents returns events that occurred at or after since, oldest first.
func (s *SQLiteStore) ListEvents(ctx context.Context, since time.Time) ([]types.InteractionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, recipe_id, section_type, occurred_at
		FROM interaction_events
		WHERE occurred_at >= ?
		ORDER BY id
	`, since.UTC().Format(eventTimeFormat))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []types.InteractionEvent
	for rows.Next() {
		var e types.InteractionEvent
		var eventType, sectionType, occurredAt string
		if err := rows.Scan(&e.ID, &eventType, &e.RecipeID, &sectionType, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = types.EventType(eventType)
		e.SectionType = types.SectionType(sectionType)
		if t, err := time.Parse(eventTimeFormat, occurredAt); err == nil {
			e.OccurredAt = t
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// GetStats returns aggregate store statistics
func (s *SQLiteStore) GetStats(ctx context.Context) (*types.StoreStats, error) {
	var stats types.StoreStats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&stats.RecipeCount); err != nil {
		return nil, fmt.Errorf("count recipes: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interaction_events`).Scan(&stats.EventCount); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	return &stats, nil
}
