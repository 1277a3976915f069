package api

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/hyperengineering/larder/internal/personalize"
	"github.com/hyperengineering/larder/internal/service"
	"github.com/hyperengineering/larder/internal/store"
	"github.com/hyperengineering/larder/internal/tracker"
	"github.com/hyperengineering/larder/internal/types"
)

var testNow = time.Date(2026, 10, 14, 19, 0, 0, 0, time.UTC)

func testRecipes() []types.Recipe {
	return []types.Recipe{
		{ID: "light-soup", Name: "Light Soup", Category: "Soups", Difficulty: types.DifficultyMedium, PrepTime: 10, CookTime: 40, Servings: 4},
		{ID: "kelewele", Name: "Kelewele", Category: "Snacks", Difficulty: types.DifficultyEasy, PrepTime: 10, CookTime: 10, Servings: 2},
		{ID: "tea", Name: "Ginger Tea", Category: "Drinks", Difficulty: types.DifficultyEasy, PrepTime: 5, CookTime: 5, Servings: 1},
	}
}

type testServer struct {
	router http.Handler
	db     *store.SQLiteStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	captureLogs(t)

	db, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.UpsertRecipes(context.Background(), testRecipes()); err != nil {
		t.Fatal(err)
	}

	tr := tracker.New(context.Background(), store.NewBehaviorStore(db),
		tracker.WithEventLog(db),
		tracker.WithClock(func() time.Time { return testNow }),
	)
	svc := service.New(db, db, tr, personalize.New(rand.NewPCG(7, 7)))

	h := NewHandler(svc, db, testAPIKey, "1.2.3")
	h.now = func() time.Time { return testNow }
	return &testServer{router: NewRouter(h, 0), db: db}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return v
}

// --- Health ---

func TestHealth_ReportsCounts(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	resp := decode[types.HealthResponse](t, w)
	if resp.Status != "healthy" || resp.Version != "1.2.3" || resp.RecipeCount != 3 || resp.EventCount != 0 {
		t.Errorf("health = %+v", resp)
	}
}

type failingStats struct{}

func (failingStats) GetStats(context.Context) (*types.StoreStats, error) {
	return nil, errors.New("database is locked")
}

func TestHealth_StoreErrorReturns503(t *testing.T) {
	captureLogs(t)
	h := NewHandler(nil, failingStats{}, testAPIKey, "dev")

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if strings.Contains(w.Body.String(), "locked") {
		t.Error("store error leaked to client")
	}
}

// --- Recipes ---

func TestListRecipes_NameOrder(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/recipes", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[types.RecipesResponse](t, w)
	var names []string
	for _, r := range resp.Recipes {
		names = append(names, r.Name)
	}
	want := "Ginger Tea,Kelewele,Light Soup"
	if strings.Join(names, ",") != want {
		t.Errorf("names = %v, want %s", names, want)
	}
}

// --- Recommendations ---

func TestRecommendations_DefaultsToNow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/recommendations", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decode[types.RecommendationsResponse](t, w)
	if resp.GeneratedAt != "2026-10-14T19:00:00Z" {
		t.Errorf("generated_at = %q", resp.GeneratedAt)
	}
	if resp.Personalized {
		t.Error("personalized = true without query flag")
	}
	if len(resp.Sections) == 0 || resp.Sections[0].Type != types.SectionTimeBased {
		t.Fatalf("sections = %+v", resp.Sections)
	}
	if resp.Sections[0].Recipes[0].ID != "light-soup" {
		t.Errorf("evening pick = %q", resp.Sections[0].Recipes[0].ID)
	}
}

func TestRecommendations_AtMorning(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/recommendations?at=2026-10-14T08:00:00Z&personalized=true", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[types.RecommendationsResponse](t, w)
	if !resp.Personalized || resp.GeneratedAt != "2026-10-14T08:00:00Z" {
		t.Errorf("resp = %+v", resp)
	}
	for _, sec := range resp.Sections {
		if len(sec.Recipes) == 0 {
			t.Errorf("section %q is empty", sec.Title)
		}
	}
}

func TestRecommendations_BadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"bad at", "?at=yesterday"},
		{"bad personalized", "?personalized=sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(t, http.MethodGet, "/api/v1/recommendations"+tt.query, "")
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

// --- Events ---

func TestRecordEvent_Statuses(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"viewed", `{"type":"viewed","recipe_id":"tea"}`, http.StatusAccepted},
		{"session", `{"type":"session","recipe_id":"tea","duration_seconds":600}`, http.StatusAccepted},
		{"ignored", `{"type":"ignored","recipe_id":"tea","section_type":"timeBased"}`, http.StatusAccepted},
		{"invalid json", `{"type":`, http.StatusBadRequest},
		{"missing recipe id", `{"type":"viewed"}`, http.StatusUnprocessableEntity},
		{"unknown type", `{"type":"baked","recipe_id":"tea"}`, http.StatusUnprocessableEntity},
		{"ignored without section", `{"type":"ignored","recipe_id":"tea"}`, http.StatusUnprocessableEntity},
		{"unknown recipe", `{"type":"cooked","recipe_id":"fufu"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(t, http.MethodPost, "/api/v1/events", tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestRecordEvent_ValidationListsFields(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/events", `{"type":"nope"}`)

	p := decode[ProblemWithErrors](t, w)
	fields := map[string]bool{}
	for _, e := range p.Errors {
		fields[e.Field] = true
	}
	if !fields["type"] || !fields["recipe_id"] {
		t.Errorf("errors = %+v", p.Errors)
	}
}

func TestRecordEvent_UpdatesPatterns(t *testing.T) {
	// Given: two cooks in the Snacks category and a favorite
	s := newTestServer(t)
	for _, body := range []string{
		`{"type":"cooked","recipe_id":"kelewele"}`,
		`{"type":"cooked","recipe_id":"tea"}`,
		`{"type":"favorited","recipe_id":"kelewele"}`,
	} {
		if w := s.do(t, http.MethodPost, "/api/v1/events", body); w.Code != http.StatusAccepted {
			t.Fatalf("%s: status = %d", body, w.Code)
		}
	}

	// When
	w := s.do(t, http.MethodGet, "/api/v1/patterns", "")

	// Then
	resp := decode[types.PatternsResponse](t, w)
	if len(resp.PreferredCategories) == 0 || resp.PreferredCategories[0] != "Snacks" {
		t.Errorf("preferred categories = %v", resp.PreferredCategories)
	}
	if resp.PreferredDifficulty != types.DifficultyEasy {
		t.Errorf("preferred difficulty = %q", resp.PreferredDifficulty)
	}

	recipe, err := s.db.GetRecipe(context.Background(), "kelewele")
	if err != nil {
		t.Fatal(err)
	}
	if !recipe.IsFavorite {
		t.Error("favorite flag not set")
	}
}

func TestPatterns_EmptyCategoriesNotNull(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/patterns", "")

	if !strings.Contains(w.Body.String(), `"preferred_categories":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

// --- Reset ---

func TestResetBehavior(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/events", `{"type":"cooked","recipe_id":"tea"}`)

	w := s.do(t, http.MethodDelete, "/api/v1/behavior", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	resp := decode[types.PatternsResponse](t, s.do(t, http.MethodGet, "/api/v1/patterns", ""))
	if resp.Patterns.AverageSessionDuration != 0 || len(resp.PreferredCategories) != 0 {
		t.Errorf("patterns after reset = %+v", resp)
	}
}

func TestRoutes_RequireAuth(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/v1/recipes", "/api/v1/recommendations", "/api/v1/patterns"} {
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s without auth = %d", path, w.Code)
		}
	}
}
