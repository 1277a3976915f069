package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/hyperengineering/larder/internal/types"
)

// Key names a persisted behavior collection.
type Key string

const (
	KeyCompletedRecipes      Key = "completed_recipes"
	KeyRecentlyViewed        Key = "recently_viewed"
	KeyCategoryScores        Key = "category_scores"
	KeyDifficultyCounts      Key = "difficulty_counts"
	KeyDifficultyPreferences Key = "difficulty_preferences"
	KeyTimeBuckets           Key = "time_buckets"
	KeyExploredCategories    Key = "explored_categories"
	KeyCookingHours          Key = "cooking_hours"
	KeySessionTimes          Key = "session_times"
	KeySessionDurations      Key = "session_durations"
	KeyIgnoredSuggestions    Key = "ignored_suggestions"
	KeySuccessfulSuggestions Key = "successful_suggestions"
	KeySectionReinforcement  Key = "section_reinforcement"
)

// AllKeys lists every behavior collection.
var AllKeys = []Key{
	KeyCompletedRecipes,
	KeyRecentlyViewed,
	KeyCategoryScores,
	KeyDifficultyCounts,
	KeyDifficultyPreferences,
	KeyTimeBuckets,
	KeyExploredCategories,
	KeyCookingHours,
	KeySessionTimes,
	KeySessionDurations,
	KeyIgnoredSuggestions,
	KeySuccessfulSuggestions,
	KeySectionReinforcement,
}

// field binds a key to the snapshot field it persists.
type field struct {
	encode func(s *types.BehaviorSnapshot) ([]byte, error)
	decode func(data []byte, s *types.BehaviorSnapshot) error
}

func bind[T any](get func(s *types.BehaviorSnapshot) *T) field {
	return field{
		encode: func(s *types.BehaviorSnapshot) ([]byte, error) {
			return json.Marshal(*get(s))
		},
		decode: func(data []byte, s *types.BehaviorSnapshot) error {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return err
			}
			*get(s) = v
			return nil
		},
	}
}

var fields = map[Key]field{
	KeyCompletedRecipes:      bind(func(s *types.BehaviorSnapshot) *[]string { return &s.CompletedRecipes }),
	KeyRecentlyViewed:        bind(func(s *types.BehaviorSnapshot) *[]string { return &s.RecentlyViewed }),
	KeyCategoryScores:        bind(func(s *types.BehaviorSnapshot) *map[string]float64 { return &s.CategoryScores }),
	KeyDifficultyCounts:      bind(func(s *types.BehaviorSnapshot) *map[types.Difficulty]int { return &s.DifficultyCounts }),
	KeyDifficultyPreferences: bind(func(s *types.BehaviorSnapshot) *map[types.Difficulty]float64 { return &s.DifficultyPreferences }),
	KeyTimeBuckets:           bind(func(s *types.BehaviorSnapshot) *map[types.TimeBucket]int { return &s.TimeBuckets }),
	KeyExploredCategories:    bind(func(s *types.BehaviorSnapshot) *[]string { return &s.ExploredCategories }),
	KeyCookingHours:          bind(func(s *types.BehaviorSnapshot) *[]int { return &s.CookingHours }),
	KeySessionTimes:          bind(func(s *types.BehaviorSnapshot) *[]time.Time { return &s.SessionTimes }),
	KeySessionDurations:      bind(func(s *types.BehaviorSnapshot) *[]float64 { return &s.SessionDurations }),
	KeyIgnoredSuggestions:    bind(func(s *types.BehaviorSnapshot) *[]string { return &s.IgnoredSuggestions }),
	KeySuccessfulSuggestions: bind(func(s *types.BehaviorSnapshot) *[]string { return &s.SuccessfulSuggestions }),
	KeySectionReinforcement:  bind(func(s *types.BehaviorSnapshot) *map[types.SectionType]int { return &s.SectionReinforcement }),
}

// BehaviorStore gives typed access to the behavior collections held by a
// Backend. Reads never fail: a missing, unreadable or undecodable value is
// replaced by its empty default.
type BehaviorStore struct {
	backend Backend
}

// NewBehaviorStore wraps a backend.
func NewBehaviorStore(backend Backend) *BehaviorStore {
	return &BehaviorStore{backend: backend}
}

// Snapshot reads every collection in one backend call. A malformed value
// falls back to its default; a failed read returns an error.
func (b *BehaviorStore) Snapshot(ctx context.Context) (types.BehaviorSnapshot, error) {
	var snap types.BehaviorSnapshot

	raw, err := b.backend.GetAll(ctx)
	if err != nil {
		return snap, fmt.Errorf("read behavior: %w", err)
	}

	for _, key := range AllKeys {
		if data, ok := raw[string(key)]; ok {
			decodeInto(key, data, &snap)
		}
	}
	sanitize(&snap)
	return snap, nil
}

// Write persists the listed collections from snap atomically.
func (b *BehaviorStore) Write(ctx context.Context, snap types.BehaviorSnapshot, keys ...Key) error {
	entries := make(map[string][]byte, len(keys))
	for _, key := range keys {
		f, ok := fields[key]
		if !ok {
			return fmt.Errorf("unknown behavior key %q", key)
		}
		data, err := f.encode(&snap)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		entries[string(key)] = data
	}
	return b.backend.PutMany(ctx, entries)
}

// Reset overwrites every collection with its empty default.
func (b *BehaviorStore) Reset(ctx context.Context) error {
	return b.Write(ctx, types.BehaviorSnapshot{}, AllKeys...)
}

// CompletedRecipes returns the completed-recipe ID set.
func (b *BehaviorStore) CompletedRecipes(ctx context.Context) []string {
	return b.read(ctx, KeyCompletedRecipes).CompletedRecipes
}

// RecentlyViewed returns recently viewed recipe IDs, most recent first.
func (b *BehaviorStore) RecentlyViewed(ctx context.Context) []string {
	return b.read(ctx, KeyRecentlyViewed).RecentlyViewed
}

// CategoryScores returns the weighted category preference map.
func (b *BehaviorStore) CategoryScores(ctx context.Context) map[string]float64 {
	return b.read(ctx, KeyCategoryScores).CategoryScores
}

// DifficultyCounts returns the completed-difficulty histogram.
func (b *BehaviorStore) DifficultyCounts(ctx context.Context) map[types.Difficulty]int {
	return b.read(ctx, KeyDifficultyCounts).DifficultyCounts
}

// IgnoredSuggestions returns the recipeId|sectionType keys the user dismissed.
func (b *BehaviorStore) IgnoredSuggestions(ctx context.Context) []string {
	return b.read(ctx, KeyIgnoredSuggestions).IgnoredSuggestions
}

// SectionReinforcement returns interaction counts per section type.
func (b *BehaviorStore) SectionReinforcement(ctx context.Context) map[types.SectionType]int {
	return b.read(ctx, KeySectionReinforcement).SectionReinforcement
}

func (b *BehaviorStore) read(ctx context.Context, key Key) types.BehaviorSnapshot {
	var snap types.BehaviorSnapshot
	data, err := b.backend.Get(ctx, string(key))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Error("behavior read failed, using default",
				"component", "store",
				"key", string(key),
				"error", err,
			)
		}
		return snap
	}
	decodeInto(key, data, &snap)
	sanitize(&snap)
	return snap
}

func decodeInto(key Key, data []byte, snap *types.BehaviorSnapshot) {
	if err := fields[key].decode(data, snap); err != nil {
		slog.Warn("malformed behavior value, using default",
			"component", "store",
			"key", string(key),
			"error", err,
		)
	}
}

// sanitize drops entries that decode cleanly but cannot be meaningful.
func sanitize(snap *types.BehaviorSnapshot) {
	if len(snap.CookingHours) > 0 {
		hours := snap.CookingHours[:0]
		for _, h := range snap.CookingHours {
			if h >= 0 && h <= 23 {
				hours = append(hours, h)
			}
		}
		snap.CookingHours = hours
	}
	for d := range snap.DifficultyCounts {
		if !d.Valid() {
			delete(snap.DifficultyCounts, d)
		}
	}
	for d := range snap.DifficultyPreferences {
		if !d.Valid() {
			delete(snap.DifficultyPreferences, d)
		}
	}
}
