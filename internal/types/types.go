package types

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Difficulty is the effort level of a recipe.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Difficulties lists every difficulty in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Recipe is a catalog entry. The catalog owns recipes; everything else only
// references them by ID.
type Recipe struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Category    string     `json:"category" yaml:"category"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`
	Region      string     `json:"region,omitempty" yaml:"region"`
	PrepTime    int        `json:"prep_time" yaml:"prep_time"`
	CookTime    int        `json:"cook_time" yaml:"cook_time"`
	Servings    int        `json:"servings" yaml:"servings"`
	IsFavorite  bool       `json:"is_favorite" yaml:"favorite"`
}

// TotalTime is prep plus cook time in minutes.
func (r Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime
}

// NameContainsAny reports whether the lowercased name contains any keyword.
// Keywords must already be lowercase.
func (r Recipe) NameContainsAny(keywords []string) bool {
	name := strings.ToLower(r.Name)
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// SectionType classifies a recommendation section.
type SectionType string

const (
	SectionTimeBased         SectionType = "timeBased"
	SectionFavoriteExpansion SectionType = "favoriteExpansion"
	SectionSkillProgression  SectionType = "skillProgression"
	SectionCulturalContext   SectionType = "culturalContext"
	SectionSeasonal          SectionType = "seasonal"
	SectionQuickAndEasy      SectionType = "quickAndEasy"
	SectionExploration       SectionType = "exploration"
)

// Valid reports whether s is a known section type.
func (s SectionType) Valid() bool {
	switch s {
	case SectionTimeBased, SectionFavoriteExpansion, SectionSkillProgression,
		SectionCulturalContext, SectionSeasonal, SectionQuickAndEasy, SectionExploration:
		return true
	}
	return false
}

// MaxSectionRecipes is the hard cap for any section.
const MaxSectionRecipes = 5

// RecommendationSection is a titled, reasoned group of suggested recipes.
// Sections are built fresh for every pass and never mutated afterwards.
type RecommendationSection struct {
	Title     string      `json:"title"`
	Subtitle  string      `json:"subtitle,omitempty"`
	Recipes   []Recipe    `json:"recipes"`
	Reasoning string      `json:"reasoning"`
	Type      SectionType `json:"type"`
}

// CookingFrequency buckets how many recipes a user has completed.
type CookingFrequency string

const (
	FrequencyBeginner    CookingFrequency = "beginner"
	FrequencyOccasional  CookingFrequency = "occasional"
	FrequencyRegular     CookingFrequency = "regular"
	FrequencyExperienced CookingFrequency = "experienced"
)

// SkillLevel is the user's inferred cooking skill.
type SkillLevel string

const (
	SkillNovice       SkillLevel = "novice"
	SkillDeveloping   SkillLevel = "developing"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

// TargetDifficulty maps a skill level to the difficulty worth practising.
func (s SkillLevel) TargetDifficulty() Difficulty {
	switch s {
	case SkillDeveloping, SkillIntermediate:
		return DifficultyMedium
	case SkillAdvanced:
		return DifficultyHard
	default:
		return DifficultyEasy
	}
}

// CookingPatterns summarises a user's completed-recipe history.
type CookingPatterns struct {
	PreferredCookingHours  []int            `json:"preferred_cooking_hours"`
	AverageSessionDuration float64          `json:"average_session_duration"`
	PreferredComplexity    Difficulty       `json:"preferred_complexity"`
	ExplorationRate        float64          `json:"exploration_rate"`
	FavoriteCategories     []string         `json:"favorite_categories"`
	CookingFrequency       CookingFrequency `json:"cooking_frequency"`
	SkillProgressionLevel  SkillLevel       `json:"skill_progression_level"`
}

// CategoryRank returns the index of category in FavoriteCategories, or
// len(FavoriteCategories) when the category is unranked.
func (p CookingPatterns) CategoryRank(category string) int {
	for i, c := range p.FavoriteCategories {
		if c == category {
			return i
		}
	}
	return len(p.FavoriteCategories)
}

// TimePreferences are independent probabilities in [0,1].
type TimePreferences struct {
	MorningCooking  float64 `json:"morning_cooking"`
	WeekendCooking  float64 `json:"weekend_cooking"`
	QuickMeal       float64 `json:"quick_meal"`
	TraditionalMeal float64 `json:"traditional_meal"`
}

// TimeBucket groups recipes by total time.
type TimeBucket string

const (
	BucketQuick    TimeBucket = "quick"
	BucketMedium   TimeBucket = "medium"
	BucketLong     TimeBucket = "long"
	BucketExtended TimeBucket = "extended"
)

// BucketFor places a total time in minutes into its bucket.
func BucketFor(totalMinutes int) TimeBucket {
	switch {
	case totalMinutes <= 20:
		return BucketQuick
	case totalMinutes <= 45:
		return BucketMedium
	case totalMinutes <= 90:
		return BucketLong
	default:
		return BucketExtended
	}
}

// SuggestionKey is the composite key used for ignored and successful
// suggestion sets.
func SuggestionKey(recipeID string, section SectionType) string {
	return recipeID + "|" + string(section)
}

// EventType names a tracked interaction.
type EventType string

const (
	EventViewed      EventType = "viewed"
	EventCooked      EventType = "cooked"
	EventFavorited   EventType = "favorited"
	EventUnfavorited EventType = "unfavorited"
	EventIgnored     EventType = "ignored"
	EventInteracted  EventType = "interacted"
	EventSession     EventType = "session"
	EventReset       EventType = "reset"
)

// InteractionEvent is an audit record of one tracked interaction.
type InteractionEvent struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	RecipeID    string      `json:"recipe_id,omitempty"`
	SectionType SectionType `json:"section_type,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// SortRecipes orders recipes case-insensitively by name, then by ID. Every
// recipe source uses this order so caps keep the same recipes.
func SortRecipes(recipes []Recipe) {
	slices.SortStableFunc(recipes, func(a, b Recipe) int {
		if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
