// Package personalize re-ranks and filters engine output using the user's
// derived cooking patterns and time preferences, and adds the adaptive
// skill and exploration sections.
package personalize

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/hyperengineering/larder/internal/types"
)

// Thresholds that switch adjustments on.
const (
	quickMealThreshold   = 0.7
	quickMealMaxMinutes  = 30
	traditionalThreshold = 0.6
	explorationThreshold = 0.6
	minCompletedForSkill = 2
	skillSectionIndex    = 1
	injectedSkillCap     = 4
	explorationCap       = 4
)

var traditionalKeywords = []string{"soup", "stew", "fufu", "banku"}

// Input is everything a personalization pass reads. All of it must come
// from one committed snapshot.
type Input struct {
	Sections    []types.RecommendationSection
	Patterns    types.CookingPatterns
	Preferences types.TimePreferences
	Snapshot    types.BehaviorSnapshot
	Recipes     []types.Recipe
}

// Personalizer applies the personalization pass. The only nondeterminism is
// the exploration shuffle.
type Personalizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Personalizer. A nil source uses the global generator.
func New(src rand.Source) *Personalizer {
	p := &Personalizer{}
	if src != nil {
		p.rng = rand.New(src)
	}
	return p
}

// Personalize returns a new section list; the input sections are not
// modified.
func (p *Personalizer) Personalize(in Input) []types.RecommendationSection {
	completed := len(in.Snapshot.CompletedRecipes)
	favorites := 0
	for _, r := range in.Recipes {
		if r.IsFavorite {
			favorites++
		}
	}
	color := contextLine(completed, favorites)

	out := make([]types.RecommendationSection, 0, len(in.Sections)+2)
	for _, base := range in.Sections {
		s, ok := adjust(base, in)
		if !ok {
			continue
		}
		s.Reasoning = s.Reasoning + " " + color
		out = append(out, s)
	}

	if completed >= minCompletedForSkill && !hasType(out, types.SectionSkillProgression) {
		if s, ok := skillSection(in, completed); ok {
			idx := min(skillSectionIndex, len(out))
			out = slices.Insert(out, idx, s)
		}
	}

	if in.Patterns.ExplorationRate > explorationThreshold {
		if s, ok := p.explorationSection(in); ok {
			out = append(out, s)
		}
	}

	return out
}

// adjust applies the ignore filter and the type-specific adjustment.
func adjust(base types.RecommendationSection, in Input) (types.RecommendationSection, bool) {
	recipes := make([]types.Recipe, 0, len(base.Recipes))
	for _, r := range base.Recipes {
		if !in.Snapshot.IsIgnored(r.ID, base.Type) {
			recipes = append(recipes, r)
		}
	}

	subtitle := base.Subtitle
	switch base.Type {
	case types.SectionTimeBased:
		if in.Preferences.QuickMeal > quickMealThreshold {
			recipes = slices.DeleteFunc(recipes, func(r types.Recipe) bool {
				return r.TotalTime() > quickMealMaxMinutes
			})
			subtitle = "Kept under 30 minutes, the way you like it"
		}
	case types.SectionFavoriteExpansion:
		slices.SortStableFunc(recipes, func(a, b types.Recipe) int {
			return in.Patterns.CategoryRank(a.Category) - in.Patterns.CategoryRank(b.Category)
		})
		if len(in.Patterns.FavoriteCategories) > 0 {
			subtitle = fmt.Sprintf("Led by your favorite category, %s", in.Patterns.FavoriteCategories[0])
		}
	case types.SectionSkillProgression:
		target := in.Patterns.SkillProgressionLevel.TargetDifficulty()
		recipes = slices.DeleteFunc(recipes, func(r types.Recipe) bool {
			return r.Difficulty != target
		})
		subtitle = fmt.Sprintf("Matched to your %s skill level", skillName(in.Patterns.SkillProgressionLevel))
	case types.SectionCulturalContext:
		if in.Preferences.TraditionalMeal > traditionalThreshold {
			recipes = slices.DeleteFunc(recipes, func(r types.Recipe) bool {
				return !r.NameContainsAny(traditionalKeywords)
			})
			subtitle = "The traditional dishes you keep coming back to"
		}
	}

	if len(recipes) == 0 {
		return types.RecommendationSection{}, false
	}
	if len(recipes) > types.MaxSectionRecipes {
		recipes = recipes[:types.MaxSectionRecipes]
	}

	return types.RecommendationSection{
		Title:     base.Title,
		Subtitle:  subtitle,
		Recipes:   recipes,
		Reasoning: base.Reasoning,
		Type:      base.Type,
	}, true
}

func skillSection(in Input, completed int) (types.RecommendationSection, bool) {
	level := in.Patterns.SkillProgressionLevel
	target := level.TargetDifficulty()

	var picked []types.Recipe
	for _, r := range in.Recipes {
		if len(picked) == injectedSkillCap {
			break
		}
		if r.Difficulty != target || in.Snapshot.IsCompleted(r.ID) ||
			in.Snapshot.IsIgnored(r.ID, types.SectionSkillProgression) || containsID(picked, r.ID) {
			continue
		}
		picked = append(picked, r)
	}
	if len(picked) == 0 {
		return types.RecommendationSection{}, false
	}

	return types.RecommendationSection{
		Title:     "Grow Your Skills",
		Subtitle:  fmt.Sprintf("Matched to your %s skill level", skillName(level)),
		Recipes:   picked,
		Reasoning: fmt.Sprintf("You've completed %d recipes, so these %s dishes are a natural next step.", completed, target),
		Type:      types.SectionSkillProgression,
	}, true
}

func (p *Personalizer) explorationSection(in Input) (types.RecommendationSection, bool) {
	var candidates []types.Recipe
	for _, r := range in.Recipes {
		if in.Snapshot.IsViewed(r.ID) || slices.Contains(in.Patterns.FavoriteCategories, r.Category) ||
			in.Snapshot.IsIgnored(r.ID, types.SectionExploration) || containsID(candidates, r.ID) {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return types.RecommendationSection{}, false
	}

	p.shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > explorationCap {
		candidates = candidates[:explorationCap]
	}

	return types.RecommendationSection{
		Title:     "Explore Something New",
		Subtitle:  "Outside your usual favorites",
		Recipes:   candidates,
		Reasoning: "You like to try new things, so here are dishes from categories you haven't focused on yet.",
		Type:      types.SectionExploration,
	}, true
}

func (p *Personalizer) shuffle(n int, swap func(i, j int)) {
	if p.rng == nil {
		rand.Shuffle(n, swap)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rng.Shuffle(n, swap)
}

func contextLine(completed, favorites int) string {
	if completed == 0 && favorites == 0 {
		return "Cook or save a few recipes and these picks will adapt to you."
	}
	return fmt.Sprintf("Personalized from %s and %s.",
		plural(completed, "cooked recipe", "cooked recipes"),
		plural(favorites, "favorite", "favorites"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

func skillName(level types.SkillLevel) string {
	if level == "" {
		return string(types.SkillNovice)
	}
	return string(level)
}

func hasType(sections []types.RecommendationSection, st types.SectionType) bool {
	for _, s := range sections {
		if s.Type == st {
			return true
		}
	}
	return false
}

func containsID(recipes []types.Recipe, id string) bool {
	for _, r := range recipes {
		if r.ID == id {
			return true
		}
	}
	return false
}
