// Package tracker is the single write path into the behavior store.
//
// Every tracked interaction reads the committed behavior, applies its
// update, writes the touched collections back and recomputes the derived
// cooking patterns. Tracking never reports failure to the caller: a failed
// write is logged and the derived state is rebuilt from what the store
// actually holds. Until the stored behavior has been read successfully the
// tracker refuses to write, so an unreadable store is never overwritten
// with partial history.
package tracker

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hyperengineering/larder/internal/patterns"
	"github.com/hyperengineering/larder/internal/store"
	"github.com/hyperengineering/larder/internal/types"
)

// Accumulation weights.
const (
	cookedCategoryWeight      = 2.0
	favoritedCategoryWeight   = 1.5
	favoritedDifficultyWeight = 1.5
)

// Tracker records interactions and caches the patterns derived from them.
// It is safe for concurrent use; writes are serialized.
type Tracker struct {
	mu       sync.RWMutex
	behavior *store.BehaviorStore
	events   store.EventLog
	analyzer *patterns.Analyzer
	now      func() time.Time
	logger   *slog.Logger

	snap    types.BehaviorSnapshot
	derived patterns.Result
	// loaded reports whether snap was read from the store.
	loaded bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithEventLog appends every tracked interaction to log.
func WithEventLog(log store.EventLog) Option {
	return func(t *Tracker) { t.events = log }
}

// WithAnalyzer replaces the default analyzer.
func WithAnalyzer(a *patterns.Analyzer) Option {
	return func(t *Tracker) { t.analyzer = a }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates a tracker and loads the current behavior from the store.
func New(ctx context.Context, behavior *store.BehaviorStore, opts ...Option) *Tracker {
	t := &Tracker{
		behavior: behavior,
		analyzer: patterns.NewAnalyzer(patterns.DefaultCategoryCount),
		now:      time.Now,
		logger:   slog.Default().With("component", "tracker"),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.derived = t.analyzer.Analyze(t.snap)
	t.reload(ctx)
	return t
}

// TrackRecipeViewed moves the recipe to the front of the recently viewed
// list, records a session timestamp and marks its category explored.
func (t *Tracker) TrackRecipeViewed(ctx context.Context, recipe types.Recipe) {
	t.update(ctx, event(types.EventViewed, recipe.ID, ""), func(s *types.BehaviorSnapshot, now time.Time) []store.Key {
		s.RecentlyViewed = pushFront(s.RecentlyViewed, recipe.ID, types.MaxRecentlyViewed)
		s.SessionTimes = appendCapped(s.SessionTimes, now, types.MaxSessionTimes)
		keys := []store.Key{store.KeyRecentlyViewed, store.KeySessionTimes}
		if recipe.Category != "" && !slices.Contains(s.ExploredCategories, recipe.Category) {
			s.ExploredCategories = append(s.ExploredCategories, recipe.Category)
			keys = append(keys, store.KeyExploredCategories)
		}
		return keys
	})
}

// TrackRecipeCooked records a completed cook. The completed set and the
// difficulty histogram count each recipe once; the cooking hour, session
// timestamp and category score accumulate on every cook.
func (t *Tracker) TrackRecipeCooked(ctx context.Context, recipe types.Recipe) {
	t.update(ctx, event(types.EventCooked, recipe.ID, ""), func(s *types.BehaviorSnapshot, now time.Time) []store.Key {
		keys := []store.Key{store.KeySessionTimes, store.KeyCookingHours, store.KeyCategoryScores}
		if !s.IsCompleted(recipe.ID) {
			s.CompletedRecipes = append(s.CompletedRecipes, recipe.ID)
			if recipe.Difficulty.Valid() {
				s.DifficultyCounts = ensure(s.DifficultyCounts)
				s.DifficultyCounts[recipe.Difficulty]++
			}
			keys = append(keys, store.KeyCompletedRecipes, store.KeyDifficultyCounts)
		}
		s.SessionTimes = appendCapped(s.SessionTimes, now, types.MaxSessionTimes)
		s.CookingHours = appendCapped(s.CookingHours, now.Hour(), types.MaxCookingHours)
		s.CategoryScores = ensure(s.CategoryScores)
		s.CategoryScores[recipe.Category] += cookedCategoryWeight
		return keys
	})
}

// TrackRecipeFavorited accumulates category and difficulty preference and
// counts the recipe's time bucket.
func (t *Tracker) TrackRecipeFavorited(ctx context.Context, recipe types.Recipe) {
	t.update(ctx, event(types.EventFavorited, recipe.ID, ""), func(s *types.BehaviorSnapshot, _ time.Time) []store.Key {
		s.CategoryScores = ensure(s.CategoryScores)
		s.CategoryScores[recipe.Category] += favoritedCategoryWeight
		keys := []store.Key{store.KeyCategoryScores, store.KeyTimeBuckets}
		if recipe.Difficulty.Valid() {
			s.DifficultyPreferences = ensure(s.DifficultyPreferences)
			s.DifficultyPreferences[recipe.Difficulty] += favoritedDifficultyWeight
			keys = append(keys, store.KeyDifficultyPreferences)
		}
		s.TimeBuckets = ensure(s.TimeBuckets)
		s.TimeBuckets[types.BucketFor(recipe.TotalTime())]++
		return keys
	})
}

// TrackRecipeUnfavorited only records the event. Preference scores never
// decay.
func (t *Tracker) TrackRecipeUnfavorited(ctx context.Context, recipe types.Recipe) {
	t.update(ctx, event(types.EventUnfavorited, recipe.ID, ""), nil)
}

// TrackSuggestionIgnored hides the recipe from future sections of the same
// type.
func (t *Tracker) TrackSuggestionIgnored(ctx context.Context, recipe types.Recipe, section types.SectionType) {
	t.update(ctx, event(types.EventIgnored, recipe.ID, section), func(s *types.BehaviorSnapshot, _ time.Time) []store.Key {
		s.IgnoredSuggestions = addOnce(s.IgnoredSuggestions, types.SuggestionKey(recipe.ID, section))
		return []store.Key{store.KeyIgnoredSuggestions}
	})
}

// TrackSuggestionInteracted marks the suggestion successful and reinforces
// its section type.
func (t *Tracker) TrackSuggestionInteracted(ctx context.Context, recipe types.Recipe, section types.SectionType) {
	t.update(ctx, event(types.EventInteracted, recipe.ID, section), func(s *types.BehaviorSnapshot, _ time.Time) []store.Key {
		s.SuccessfulSuggestions = addOnce(s.SuccessfulSuggestions, types.SuggestionKey(recipe.ID, section))
		s.SectionReinforcement = ensure(s.SectionReinforcement)
		s.SectionReinforcement[section]++
		return []store.Key{store.KeySuccessfulSuggestions, store.KeySectionReinforcement}
	})
}

// TrackCookingSession records how long a finished cooking session took.
// Non-positive durations are ignored.
func (t *Tracker) TrackCookingSession(ctx context.Context, recipe types.Recipe, duration time.Duration) {
	if duration <= 0 {
		return
	}
	t.update(ctx, event(types.EventSession, recipe.ID, ""), func(s *types.BehaviorSnapshot, _ time.Time) []store.Key {
		s.SessionDurations = appendCapped(s.SessionDurations, duration.Seconds(), types.MaxSessionDurations)
		return []store.Key{store.KeySessionDurations}
	})
}

// ResetBehaviorData clears every behavior collection and recomputes.
func (t *Tracker) ResetBehaviorData(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.behavior.Reset(ctx); err != nil {
		t.logger.Error("behavior reset failed", "error", err)
		t.reload(ctx)
	} else {
		t.commit(types.BehaviorSnapshot{})
	}
	t.appendEvent(ctx, event(types.EventReset, "", ""))
}

// CookingPatterns returns the current derived patterns.
func (t *Tracker) CookingPatterns() types.CookingPatterns {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return clonePatterns(t.derived.Patterns)
}

// TimePreferences returns the current derived time preferences.
func (t *Tracker) TimePreferences() types.TimePreferences {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.derived.Preferences
}

// PreferredDifficulty returns the weighted difficulty preference.
func (t *Tracker) PreferredDifficulty() types.Difficulty {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.derived.PreferredDifficulty
}

// PreferredCategories returns up to five categories, strongest first.
func (t *Tracker) PreferredCategories() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.derived.Patterns.FavoriteCategories)
}

// ExplorationRate returns the current exploration estimate.
func (t *Tracker) ExplorationRate() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.derived.Patterns.ExplorationRate
}

// State returns the committed behavior snapshot together with the patterns
// derived from it. Both come from the same committed write.
func (t *Tracker) State() (types.BehaviorSnapshot, patterns.Result) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res := t.derived
	res.Patterns = clonePatterns(res.Patterns)
	return t.snap.Clone(), res
}

// update runs one read-modify-write cycle under the write lock. A nil
// mutate records the event without touching behavior.
func (t *Tracker) update(ctx context.Context, ev types.InteractionEvent, mutate func(*types.BehaviorSnapshot, time.Time) []store.Key) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	ev.OccurredAt = now

	if mutate != nil && (t.loaded || t.reload(ctx)) {
		snap := t.snap.Clone()
		keys := mutate(&snap, now)
		if err := t.behavior.Write(ctx, snap, keys...); err != nil {
			t.logger.Error("behavior write failed",
				"event", string(ev.Type),
				"recipe_id", ev.RecipeID,
				"error", err,
			)
			t.reload(ctx)
		} else {
			t.commit(snap)
		}
	} else if mutate != nil {
		t.logger.Warn("behavior not loaded, event not applied",
			"event", string(ev.Type),
			"recipe_id", ev.RecipeID,
		)
	}

	t.appendEvent(ctx, ev)
}

func (t *Tracker) commit(snap types.BehaviorSnapshot) {
	t.snap = snap
	t.derived = t.analyzer.Analyze(snap)
	t.loaded = true
}

// reload replaces the committed snapshot with what the store holds. On a
// read failure the previous snapshot stays committed and the tracker is
// marked unloaded until a later read succeeds.
func (t *Tracker) reload(ctx context.Context) bool {
	snap, err := t.behavior.Snapshot(ctx)
	if err != nil {
		t.logger.Error("behavior read failed, keeping last committed state", "error", err)
		t.loaded = false
		return false
	}
	t.commit(snap)
	return true
}

func (t *Tracker) appendEvent(ctx context.Context, ev types.InteractionEvent) {
	if t.events == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = t.now()
	}
	if err := t.events.AppendEvent(ctx, ev); err != nil {
		t.logger.Warn("event log append failed",
			"event", string(ev.Type),
			"error", err,
		)
	}
}

func event(typ types.EventType, recipeID string, section types.SectionType) types.InteractionEvent {
	return types.InteractionEvent{Type: typ, RecipeID: recipeID, SectionType: section}
}

// pushFront moves id to the front, removing any earlier occurrence, and
// trims to limit.
func pushFront(ids []string, id string, limit int) []string {
	out := make([]string, 0, min(len(ids)+1, limit))
	out = append(out, id)
	for _, existing := range ids {
		if len(out) == limit {
			break
		}
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// appendCapped appends v and keeps only the newest limit entries.
func appendCapped[T any](list []T, v T, limit int) []T {
	list = append(list, v)
	if len(list) > limit {
		list = slices.Clone(list[len(list)-limit:])
	}
	return list
}

func addOnce(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

func ensure[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return make(map[K]V)
	}
	return m
}

func clonePatterns(p types.CookingPatterns) types.CookingPatterns {
	p.PreferredCookingHours = slices.Clone(p.PreferredCookingHours)
	p.FavoriteCategories = slices.Clone(p.FavoriteCategories)
	return p
}
