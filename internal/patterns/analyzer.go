// Package patterns derives cooking patterns and time preferences from a
// behavior snapshot. Everything here is a pure function of its input.
package patterns

import (
	"cmp"
	"slices"

	"github.com/hyperengineering/larder/internal/types"
)

// DefaultCategoryCount is the number of catalog categories used as the
// exploration-rate denominator.
const DefaultCategoryCount = 8

// Weights and bounds used by the derivations.
const (
	completedDifficultyWeight = 2.0
	favoriteDifficultyWeight  = 1.0

	minExplorationRate      = 0.2
	maxExplorationRate      = 0.8
	newUserExplorationRate  = 0.8
	newUserViewedThreshold  = 10
	maxPreferredCategories  = 5
	defaultMorningCooking   = 0.3
	defaultQuickMeal        = 0.7
	defaultTraditionalMeal  = 0.5
	morningStartHour        = 5
	morningEndHour          = 11
	advancedHardShare       = 0.3
	intermediateMediumShare = 0.4
)

// traditionalCategories are the categories counted as traditional meals.
var traditionalCategories = []string{"Soups", "Stews", "Rice Dishes"}

// weekendPreference is a static mapping from cooking frequency. No
// day-of-week signal feeds it.
var weekendPreference = map[types.CookingFrequency]float64{
	types.FrequencyBeginner:    0.7,
	types.FrequencyOccasional:  0.6,
	types.FrequencyRegular:     0.5,
	types.FrequencyExperienced: 0.4,
}

// Result bundles every derived value.
type Result struct {
	Patterns            types.CookingPatterns
	Preferences         types.TimePreferences
	PreferredDifficulty types.Difficulty
}

// Analyzer computes derived behavior statistics.
type Analyzer struct {
	categoryCount int
}

// NewAnalyzer creates an analyzer. A non-positive categoryCount falls back
// to DefaultCategoryCount.
func NewAnalyzer(categoryCount int) *Analyzer {
	if categoryCount <= 0 {
		categoryCount = DefaultCategoryCount
	}
	return &Analyzer{categoryCount: categoryCount}
}

// Analyze recomputes everything from scratch.
func (a *Analyzer) Analyze(snap types.BehaviorSnapshot) Result {
	difficulty := PreferredDifficulty(snap)
	frequency := Frequency(len(snap.CompletedRecipes))

	return Result{
		Patterns: types.CookingPatterns{
			PreferredCookingHours:  slices.Clone(snap.CookingHours),
			AverageSessionDuration: AverageSessionDuration(snap.SessionDurations),
			PreferredComplexity:    difficulty,
			ExplorationRate:        a.ExplorationRate(snap),
			FavoriteCategories:     PreferredCategories(snap),
			CookingFrequency:       frequency,
			SkillProgressionLevel:  Skill(snap.DifficultyCounts),
		},
		Preferences: types.TimePreferences{
			MorningCooking:  MorningCooking(snap.CookingHours),
			WeekendCooking:  weekendPreference[frequency],
			QuickMeal:       QuickMeal(snap.TimeBuckets),
			TraditionalMeal: TraditionalMeal(snap.CategoryScores),
		},
		PreferredDifficulty: difficulty,
	}
}

// PreferredDifficulty is the argmax of completed counts (x2) plus favorite
// preferences (x1). Ties and empty input resolve to Easy.
func PreferredDifficulty(snap types.BehaviorSnapshot) types.Difficulty {
	best := types.DifficultyEasy
	bestScore := 0.0
	for _, d := range types.Difficulties {
		score := float64(snap.DifficultyCounts[d])*completedDifficultyWeight +
			snap.DifficultyPreferences[d]*favoriteDifficultyWeight
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	return best
}

// PreferredCategories returns up to five categories, highest score first.
// Equal scores order by name so the result is stable.
func PreferredCategories(snap types.BehaviorSnapshot) []string {
	cats := make([]string, 0, len(snap.CategoryScores))
	for c := range snap.CategoryScores {
		cats = append(cats, c)
	}
	slices.SortFunc(cats, func(x, y string) int {
		if c := cmp.Compare(snap.CategoryScores[y], snap.CategoryScores[x]); c != 0 {
			return c
		}
		return cmp.Compare(x, y)
	})
	if len(cats) > maxPreferredCategories {
		cats = cats[:maxPreferredCategories]
	}
	return cats
}

// ExplorationRate estimates how widely the user samples categories. Always
// within [0.2, 0.8].
func (a *Analyzer) ExplorationRate(snap types.BehaviorSnapshot) float64 {
	if len(snap.RecentlyViewed) < newUserViewedThreshold {
		return newUserExplorationRate
	}
	rate := float64(len(snap.ExploredCategories)) / float64(a.categoryCount)
	return min(max(rate, minExplorationRate), maxExplorationRate)
}

// Frequency buckets a completed-recipe count.
func Frequency(completed int) types.CookingFrequency {
	switch {
	case completed >= 30:
		return types.FrequencyExperienced
	case completed >= 15:
		return types.FrequencyRegular
	case completed >= 5:
		return types.FrequencyOccasional
	default:
		return types.FrequencyBeginner
	}
}

// Skill infers a skill level from the completed-difficulty histogram.
// Shares are compared as fractions of the total.
func Skill(counts map[types.Difficulty]int) types.SkillLevel {
	easy := counts[types.DifficultyEasy]
	medium := counts[types.DifficultyMedium]
	hard := counts[types.DifficultyHard]
	total := easy + medium + hard

	switch {
	case total < 3:
		return types.SkillNovice
	case hard > 2 && float64(hard) >= advancedHardShare*float64(total):
		return types.SkillAdvanced
	case medium > 3 && float64(medium) >= intermediateMediumShare*float64(total):
		return types.SkillIntermediate
	default:
		return types.SkillDeveloping
	}
}

// MorningCooking is the share of cooking hours between 05:00 and 11:59.
func MorningCooking(hours []int) float64 {
	if len(hours) == 0 {
		return defaultMorningCooking
	}
	morning := 0
	for _, h := range hours {
		if h >= morningStartHour && h <= morningEndHour {
			morning++
		}
	}
	return float64(morning) / float64(len(hours))
}

// QuickMeal is the share of favorited recipes in the quick time bucket.
func QuickMeal(buckets map[types.TimeBucket]int) float64 {
	total := 0
	for _, n := range buckets {
		total += n
	}
	if total == 0 {
		return defaultQuickMeal
	}
	return float64(buckets[types.BucketQuick]) / float64(total)
}

// TraditionalMeal is the share of category score mass held by traditional
// categories.
func TraditionalMeal(scores map[string]float64) float64 {
	total := 0.0
	for _, s := range scores {
		total += s
	}
	if total <= 0 {
		return defaultTraditionalMeal
	}
	traditional := 0.0
	for _, c := range traditionalCategories {
		traditional += scores[c]
	}
	return traditional / total
}

// AverageSessionDuration is the mean recorded session length in seconds.
func AverageSessionDuration(durations []float64) float64 {
	if len(durations) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range durations {
		sum += d
	}
	return sum / float64(len(durations))
}
