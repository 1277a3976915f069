// Package recommend generates contextual recipe recommendation sections.
//
// Generation is a pure function of the catalog, the current time and a
// behavior snapshot: the same inputs always produce the same sections.
package recommend

import (
	"fmt"
	"time"

	"github.com/hyperengineering/larder/internal/types"
)

// Per-section caps.
const (
	timeBasedCap         = 5
	favoriteExpansionCap = 5
	skillProgressionCap  = 4
	culturalContextCap   = 4
)

// favoriteTimeTolerance is how far (minutes) a candidate's total time may
// sit from the favorites' mean and still count as similar.
const favoriteTimeTolerance = 15

var (
	weekendTraditionalKeywords = []string{"banku", "fufu", "palm nut", "groundnut"}
	weekdayPracticalKeywords   = []string{"jollof", "waakye", "kelewele", "red red"}
)

// Engine builds recommendation sections.
type Engine struct{}

// NewEngine creates an engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Generate returns sections in fixed order: time-based, favorite expansion,
// skill progression, cultural context. Sections with no candidates are
// omitted; an empty catalog yields no sections.
func (e *Engine) Generate(recipes []types.Recipe, now time.Time, snap types.BehaviorSnapshot) []types.RecommendationSection {
	if len(recipes) == 0 {
		return []types.RecommendationSection{}
	}

	weekend := IsWeekend(now)
	builders := []func() (types.RecommendationSection, bool){
		func() (types.RecommendationSection, bool) { return timeBased(recipes, now.Hour(), weekend) },
		func() (types.RecommendationSection, bool) { return favoriteExpansion(recipes) },
		func() (types.RecommendationSection, bool) { return skillProgression(recipes, snap) },
		func() (types.RecommendationSection, bool) { return culturalContext(recipes, weekend) },
	}

	sections := make([]types.RecommendationSection, 0, len(builders))
	for _, build := range builders {
		if s, ok := build(); ok {
			sections = append(sections, s)
		}
	}
	return sections
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func timeBased(recipes []types.Recipe, hour int, weekend bool) (types.RecommendationSection, bool) {
	w := windowFor(hour)
	picked := filter(recipes, timeBasedCap, func(r types.Recipe) bool {
		return w.matches(r, weekend)
	})
	if len(picked) == 0 {
		return types.RecommendationSection{}, false
	}

	c := w.copyFor(weekend)
	return types.RecommendationSection{
		Title:     c.title,
		Subtitle:  c.subtitle,
		Recipes:   picked,
		Reasoning: c.reasoning,
		Type:      types.SectionTimeBased,
	}, true
}

func favoriteExpansion(recipes []types.Recipe) (types.RecommendationSection, bool) {
	categories := make(map[string]bool)
	difficulties := make(map[types.Difficulty]bool)
	totalTime, favorites := 0, 0
	for _, r := range recipes {
		if !r.IsFavorite {
			continue
		}
		favorites++
		categories[r.Category] = true
		difficulties[r.Difficulty] = true
		totalTime += r.TotalTime()
	}
	if favorites == 0 {
		return types.RecommendationSection{}, false
	}
	mean := float64(totalTime) / float64(favorites)

	picked := filter(recipes, favoriteExpansionCap, func(r types.Recipe) bool {
		if r.IsFavorite {
			return false
		}
		diff := float64(r.TotalTime()) - mean
		return categories[r.Category] || difficulties[r.Difficulty] ||
			(diff >= -favoriteTimeTolerance && diff <= favoriteTimeTolerance)
	})
	if len(picked) == 0 {
		return types.RecommendationSection{}, false
	}

	noun := "favorites"
	if favorites == 1 {
		noun = "favorite"
	}
	return types.RecommendationSection{
		Title:     "Because You Liked These",
		Subtitle:  "Similar to recipes you've saved",
		Recipes:   picked,
		Reasoning: fmt.Sprintf("Picked for sharing a category, difficulty or cooking time with your %d %s.", favorites, noun),
		Type:      types.SectionFavoriteExpansion,
	}, true
}

// NextDifficulty picks the difficulty to practise next from the counts of
// completed recipes per difficulty.
func NextDifficulty(counts map[types.Difficulty]int) types.Difficulty {
	easy := counts[types.DifficultyEasy]
	medium := counts[types.DifficultyMedium]
	hard := counts[types.DifficultyHard]

	switch {
	case easy < 3 || hard > medium:
		return types.DifficultyEasy
	case medium < 5 || easy < 2*medium:
		return types.DifficultyMedium
	default:
		return types.DifficultyHard
	}
}

var skillCopy = map[types.Difficulty]copyText{
	types.DifficultyEasy: {
		title:     "Build Your Foundation",
		subtitle:  "Easy recipes to grow your confidence",
		reasoning: "A few more easy dishes will cover the core techniques before stepping up.",
	},
	types.DifficultyMedium: {
		title:     "Ready for the Next Step",
		subtitle:  "Medium recipes that stretch your skills",
		reasoning: "You've handled the basics well, so these medium dishes add new techniques.",
	},
	types.DifficultyHard: {
		title:     "Take On a Challenge",
		subtitle:  "Hard recipes for an experienced cook",
		reasoning: "Your cooking history shows you're ready for the most demanding dishes.",
	},
}

func skillProgression(recipes []types.Recipe, snap types.BehaviorSnapshot) (types.RecommendationSection, bool) {
	target := NextDifficulty(snap.CompletedDifficultyCounts(recipes))
	picked := filter(recipes, skillProgressionCap, func(r types.Recipe) bool {
		return r.Difficulty == target && !snap.IsCompleted(r.ID)
	})
	if len(picked) == 0 {
		return types.RecommendationSection{}, false
	}

	c := skillCopy[target]
	return types.RecommendationSection{
		Title:     c.title,
		Subtitle:  c.subtitle,
		Recipes:   picked,
		Reasoning: c.reasoning,
		Type:      types.SectionSkillProgression,
	}, true
}

func culturalContext(recipes []types.Recipe, weekend bool) (types.RecommendationSection, bool) {
	var match func(types.Recipe) bool
	var c copyText
	if weekend {
		match = func(r types.Recipe) bool {
			return r.TotalTime() >= 45 || r.NameContainsAny(weekendTraditionalKeywords) || r.Servings >= 4
		}
		c = copyText{
			title:     "Traditional Weekend Cooking",
			subtitle:  "Dishes made for sharing",
			reasoning: "Weekends are for the slow, generous dishes that feed family and friends.",
		}
	} else {
		match = func(r types.Recipe) bool {
			return r.TotalTime() <= 45 && r.Difficulty != types.DifficultyHard && r.NameContainsAny(weekdayPracticalKeywords)
		}
		c = copyText{
			title:     "Practical Weekday Dishes",
			subtitle:  "Classics that fit a working day",
			reasoning: "Familiar favorites that are ready within 45 minutes and don't demand expert technique.",
		}
	}

	picked := filter(recipes, culturalContextCap, match)
	if len(picked) == 0 {
		return types.RecommendationSection{}, false
	}
	return types.RecommendationSection{
		Title:     c.title,
		Subtitle:  c.subtitle,
		Recipes:   picked,
		Reasoning: c.reasoning,
		Type:      types.SectionCulturalContext,
	}, true
}

// filter keeps catalog order, skips repeated IDs and stops at limit.
func filter(recipes []types.Recipe, limit int, keep func(types.Recipe) bool) []types.Recipe {
	var out []types.Recipe
	seen := make(map[string]bool)
	for _, r := range recipes {
		if len(out) == limit {
			break
		}
		if seen[r.ID] || !keep(r) {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}
