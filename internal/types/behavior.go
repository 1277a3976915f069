package types

import (
	"slices"
	"time"
)

// Bounds on the rolling behavior collections.
const (
	MaxRecentlyViewed   = 20
	MaxCookingHours     = 30
	MaxSessionTimes     = 50
	MaxSessionDurations = 20
)

// BehaviorSnapshot is a consistent copy of every persisted behavior
// collection. Zero values are the empty defaults.
type BehaviorSnapshot struct {
	CompletedRecipes      []string               `json:"completed_recipes"`
	RecentlyViewed        []string               `json:"recently_viewed"`
	CategoryScores        map[string]float64     `json:"category_scores"`
	DifficultyCounts      map[Difficulty]int     `json:"difficulty_counts"`
	DifficultyPreferences map[Difficulty]float64 `json:"difficulty_preferences"`
	TimeBuckets           map[TimeBucket]int     `json:"time_buckets"`
	ExploredCategories    []string               `json:"explored_categories"`
	CookingHours          []int                  `json:"cooking_hours"`
	SessionTimes          []time.Time            `json:"session_times"`
	SessionDurations      []float64              `json:"session_durations"`
	IgnoredSuggestions    []string               `json:"ignored_suggestions"`
	SuccessfulSuggestions []string               `json:"successful_suggestions"`
	SectionReinforcement  map[SectionType]int    `json:"section_reinforcement"`
}

// Clone returns a deep copy so callers can mutate without touching s.
func (s BehaviorSnapshot) Clone() BehaviorSnapshot {
	return BehaviorSnapshot{
		CompletedRecipes:      slices.Clone(s.CompletedRecipes),
		RecentlyViewed:        slices.Clone(s.RecentlyViewed),
		CategoryScores:        cloneMap(s.CategoryScores),
		DifficultyCounts:      cloneMap(s.DifficultyCounts),
		DifficultyPreferences: cloneMap(s.DifficultyPreferences),
		TimeBuckets:           cloneMap(s.TimeBuckets),
		ExploredCategories:    slices.Clone(s.ExploredCategories),
		CookingHours:          slices.Clone(s.CookingHours),
		SessionTimes:          slices.Clone(s.SessionTimes),
		SessionDurations:      slices.Clone(s.SessionDurations),
		IgnoredSuggestions:    slices.Clone(s.IgnoredSuggestions),
		SuccessfulSuggestions: slices.Clone(s.SuccessfulSuggestions),
		SectionReinforcement:  cloneMap(s.SectionReinforcement),
	}
}

// IsCompleted reports whether the recipe has been cooked at least once.
func (s BehaviorSnapshot) IsCompleted(recipeID string) bool {
	return slices.Contains(s.CompletedRecipes, recipeID)
}

// IsViewed reports whether the recipe is in the recently-viewed list.
func (s BehaviorSnapshot) IsViewed(recipeID string) bool {
	return slices.Contains(s.RecentlyViewed, recipeID)
}

// IsIgnored reports whether the recipe was dismissed from this section type.
func (s BehaviorSnapshot) IsIgnored(recipeID string, section SectionType) bool {
	return slices.Contains(s.IgnoredSuggestions, SuggestionKey(recipeID, section))
}

// CompletedDifficultyCounts counts completed recipes per difficulty, looking
// difficulties up in recipes. Completed IDs missing from recipes are skipped.
func (s BehaviorSnapshot) CompletedDifficultyCounts(recipes []Recipe) map[Difficulty]int {
	byID := make(map[string]Difficulty, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r.Difficulty
	}
	counts := make(map[Difficulty]int, len(Difficulties))
	for _, id := range s.CompletedRecipes {
		if d, ok := byID[id]; ok {
			counts[d]++
		}
	}
	return counts
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
