package types

// EventRequest is the body of POST /api/v1/events.
type EventRequest struct {
	Type            EventType   `json:"type"`
	RecipeID        string      `json:"recipe_id"`
	SectionType     SectionType `json:"section_type,omitempty"`
	DurationSeconds float64     `json:"duration_seconds,omitempty"`
}

// RecommendationsResponse is returned by GET /api/v1/recommendations.
type RecommendationsResponse struct {
	GeneratedAt  string                  `json:"generated_at"`
	Personalized bool                    `json:"personalized"`
	Sections     []RecommendationSection `json:"sections"`
}

// PatternsResponse is returned by GET /api/v1/patterns.
type PatternsResponse struct {
	Patterns            CookingPatterns `json:"patterns"`
	TimePreferences     TimePreferences `json:"time_preferences"`
	PreferredDifficulty Difficulty      `json:"preferred_difficulty"`
	PreferredCategories []string        `json:"preferred_categories"`
	ExplorationRate     float64         `json:"exploration_rate"`
}

// RecipesResponse is returned by GET /api/v1/recipes.
type RecipesResponse struct {
	Recipes []Recipe `json:"recipes"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	RecipeCount int64  `json:"recipe_count"`
	EventCount  int64  `json:"event_count"`
}

// StoreStats contains aggregate store statistics.
type StoreStats struct {
	RecipeCount int64
	EventCount  int64
}
