// Package service composes the catalog, tracker, engine and personalizer
// into the operations exposed to the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperengineering/larder/internal/catalog"
	"github.com/hyperengineering/larder/internal/personalize"
	"github.com/hyperengineering/larder/internal/recommend"
	"github.com/hyperengineering/larder/internal/store"
	"github.com/hyperengineering/larder/internal/tracker"
	"github.com/hyperengineering/larder/internal/types"
)

// ErrUnsupportedEvent is returned for event types RecordEvent cannot apply.
var ErrUnsupportedEvent = errors.New("unsupported event type")

// Service is the recommendation facade.
type Service struct {
	catalog      *catalog.FailOpen
	recipes      store.RecipeStore
	tracker      *tracker.Tracker
	engine       *recommend.Engine
	personalizer *personalize.Personalizer
}

// New wires a service. recipes backs recipe lookup and favorite toggling.
func New(recipes store.RecipeStore, source catalog.Source, tr *tracker.Tracker, p *personalize.Personalizer) *Service {
	return &Service{
		catalog:      catalog.NewFailOpen(source),
		recipes:      recipes,
		tracker:      tr,
		engine:       recommend.NewEngine(),
		personalizer: p,
	}
}

// Recipes returns the catalog in name order. An unreadable catalog is empty.
func (s *Service) Recipes(ctx context.Context) []types.Recipe {
	return s.catalog.Recipes(ctx)
}

// GetRecommendations returns the engine's sections for now.
func (s *Service) GetRecommendations(ctx context.Context, now time.Time) []types.RecommendationSection {
	snap, _ := s.tracker.State()
	return s.engine.Generate(s.catalog.Recipes(ctx), now, snap)
}

// GetPersonalizedRecommendations runs the engine and the personalization
// pass over one committed behavior snapshot.
func (s *Service) GetPersonalizedRecommendations(ctx context.Context, now time.Time) []types.RecommendationSection {
	snap, derived := s.tracker.State()
	recipes := s.catalog.Recipes(ctx)
	base := s.engine.Generate(recipes, now, snap)

	return s.personalizer.Personalize(personalize.Input{
		Sections:    base,
		Patterns:    derived.Patterns,
		Preferences: derived.Preferences,
		Snapshot:    snap,
		Recipes:     recipes,
	})
}

// Patterns returns every derived statistic from a single committed state.
func (s *Service) Patterns() types.PatternsResponse {
	_, derived := s.tracker.State()
	return types.PatternsResponse{
		Patterns:            derived.Patterns,
		TimePreferences:     derived.Preferences,
		PreferredDifficulty: derived.PreferredDifficulty,
		PreferredCategories: derived.Patterns.FavoriteCategories,
		ExplorationRate:     derived.Patterns.ExplorationRate,
	}
}

// CookingPatterns returns the current derived cooking patterns.
func (s *Service) CookingPatterns() types.CookingPatterns {
	return s.tracker.CookingPatterns()
}

// TimePreferences returns the current derived time preferences.
func (s *Service) TimePreferences() types.TimePreferences {
	return s.tracker.TimePreferences()
}

// PreferredDifficulty returns the difficulty the user leans toward.
func (s *Service) PreferredDifficulty() types.Difficulty {
	return s.tracker.PreferredDifficulty()
}

// PreferredCategories returns up to five categories, strongest first.
func (s *Service) PreferredCategories() []string {
	return s.tracker.PreferredCategories()
}

// ExplorationRate returns the share of categories the user has explored.
func (s *Service) ExplorationRate() float64 {
	return s.tracker.ExplorationRate()
}

// RecordEvent applies a tracked interaction. Favoriting and unfavoriting
// also update the recipe's favorite flag. Returns store.ErrRecipeNotFound
// for an unknown recipe.
func (s *Service) RecordEvent(ctx context.Context, req types.EventRequest) error {
	recipe, err := s.recipes.GetRecipe(ctx, req.RecipeID)
	if err != nil {
		return err
	}

	switch req.Type {
	case types.EventViewed:
		s.tracker.TrackRecipeViewed(ctx, *recipe)
	case types.EventCooked:
		s.tracker.TrackRecipeCooked(ctx, *recipe)
	case types.EventFavorited:
		if err := s.recipes.SetFavorite(ctx, recipe.ID, true); err != nil {
			return fmt.Errorf("favorite recipe: %w", err)
		}
		s.tracker.TrackRecipeFavorited(ctx, *recipe)
	case types.EventUnfavorited:
		if err := s.recipes.SetFavorite(ctx, recipe.ID, false); err != nil {
			return fmt.Errorf("unfavorite recipe: %w", err)
		}
		s.tracker.TrackRecipeUnfavorited(ctx, *recipe)
	case types.EventIgnored:
		s.tracker.TrackSuggestionIgnored(ctx, *recipe, req.SectionType)
	case types.EventInteracted:
		s.tracker.TrackSuggestionInteracted(ctx, *recipe, req.SectionType)
	case types.EventSession:
		s.tracker.TrackCookingSession(ctx, *recipe, time.Duration(req.DurationSeconds*float64(time.Second)))
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedEvent, req.Type)
	}
	return nil
}

// ResetBehaviorData clears all tracked behavior.
func (s *Service) ResetBehaviorData(ctx context.Context) {
	s.tracker.ResetBehaviorData(ctx)
}
