package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/hyperengineering/larder/internal/config"
	"github.com/hyperengineering/larder/internal/types"
)

const testRecipesYAML = `recipes:
  - id: light-soup
    name: Light Soup
    category: Soups
    difficulty: Medium
    prep_time: 10
    cook_time: 40
    servings: 4
  - id: kelewele
    name: Kelewele
    category: Snacks
    difficulty: Easy
    prep_time: 10
    cook_time: 10
    servings: 2
  - id: tea
    name: Ginger Tea
    category: Drinks
    difficulty: Easy
    prep_time: 5
    cook_time: 5
    servings: 1
`

// executeCmd runs the root command with captured output against dbPath.
// Package-level flag variables are reset first since cobra parses into them.
func executeCmd(t *testing.T, dbPath, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	t.Setenv("LARDER_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("LARDER_CATALOG_SEED_PATH", "")
	os.Unsetenv("LARDER_CATALOG_SEED_PATH")

	dbPathOverride = ""
	recommendAt = ""
	recommendPersonalized = false
	recommendJSON = false
	recommendCatalog = ""
	patternsJSON = false
	recipesJSON = false
	resetForce = false

	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(errBuf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--db", dbPath))

	err = rootCmd.Execute()

	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetIn(nil)
	rootCmd.SetArgs(nil)

	return outBuf.String(), errBuf.String(), err
}

func writeRecipes(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipes.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func importedDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "larder.db")
	if _, _, err := executeCmd(t, dbPath, "", "recipes", "import", writeRecipes(t, testRecipesYAML)); err != nil {
		t.Fatalf("setup import: %v", err)
	}
	return dbPath
}

// --- Recipes ---

func TestRecipesImport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "larder.db")

	stdout, _, err := executeCmd(t, dbPath, "", "recipes", "import", writeRecipes(t, testRecipesYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Imported 3 recipes") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRecipesImport_InvalidRejectsFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "larder.db")
	bad := testRecipesYAML + "  - id: broken\n    name: Broken\n    difficulty: Impossible\n"

	_, _, err := executeCmd(t, dbPath, "", "recipes", "import", writeRecipes(t, bad))
	if err == nil {
		t.Fatal("expected error for invalid recipe, got nil")
	}
	if !strings.Contains(err.Error(), "invalid recipe") {
		t.Errorf("error = %q", err.Error())
	}

	stdout, _, err := executeCmd(t, dbPath, "", "recipes", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "No recipes found.") {
		t.Errorf("partial import happened: %q", stdout)
	}
}

func TestRecipesList_NameOrder(t *testing.T) {
	dbPath := importedDB(t)

	stdout, _, err := executeCmd(t, dbPath, "", "recipes", "list")
	if err != nil {
		t.Fatal(err)
	}

	tea := strings.Index(stdout, "Ginger Tea")
	kelewele := strings.Index(stdout, "Kelewele")
	soup := strings.Index(stdout, "Light Soup")
	if tea < 0 || !(tea < kelewele && kelewele < soup) {
		t.Errorf("unexpected order:\n%s", stdout)
	}
	if !strings.Contains(stdout, "DIFFICULTY") {
		t.Errorf("missing header:\n%s", stdout)
	}
}

func TestRecipesList_JSON(t *testing.T) {
	dbPath := importedDB(t)

	stdout, _, err := executeCmd(t, dbPath, "", "recipes", "list", "--json")
	if err != nil {
		t.Fatal(err)
	}

	var result struct {
		Recipes []types.Recipe `json:"recipes"`
		Total   int            `json:"total"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, stdout)
	}
	if result.Total != 3 || result.Recipes[0].ID != "tea" {
		t.Errorf("result = %+v", result)
	}
}

// --- Recommend ---

func TestRecommend_JSONAtEvening(t *testing.T) {
	dbPath := importedDB(t)

	stdout, _, err := executeCmd(t, dbPath, "", "recommend", "--at", "2026-10-14T19:00:00Z", "--json")
	if err != nil {
		t.Fatal(err)
	}

	var resp types.RecommendationsResponse
	if err := json.Unmarshal([]byte(stdout), &resp); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, stdout)
	}
	if len(resp.Sections) == 0 {
		t.Fatal("no sections")
	}
	if resp.Sections[0].Title != "Traditional Evening Meals" {
		t.Errorf("first section = %q", resp.Sections[0].Title)
	}
	if resp.GeneratedAt != "2026-10-14T19:00:00Z" {
		t.Errorf("generated_at = %q", resp.GeneratedAt)
	}
}

func TestRecommend_TextOutput(t *testing.T) {
	dbPath := importedDB(t)

	stdout, _, err := executeCmd(t, dbPath, "", "recommend", "--at", "2026-10-14T19:00:00Z", "--personalized")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "Traditional Evening Meals [timeBased]") {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stdout, "- Light Soup (Medium, 50 min)") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRecommend_FromCatalogFile(t *testing.T) {
	// Given: an empty database and a recipe file
	dbPath := filepath.Join(t.TempDir(), "larder.db")
	file := writeRecipes(t, testRecipesYAML)

	// When
	stdout, _, err := executeCmd(t, dbPath, "", "recommend", "--at", "2026-10-14T19:00:00Z", "--catalog", file)

	// Then: recipes come from the file
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "Light Soup") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRecommend_EmptyCatalog(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "larder.db")

	stdout, _, err := executeCmd(t, dbPath, "", "recommend")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "No recommendations") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRecommend_InvalidAt(t *testing.T) {
	_, _, err := executeCmd(t, filepath.Join(t.TempDir(), "larder.db"), "", "recommend", "--at", "tonight")
	if err == nil || !strings.Contains(err.Error(), "invalid --at") {
		t.Errorf("err = %v", err)
	}
}

// --- Patterns and reset ---

func cookTea(t *testing.T, dbPath string) {
	t.Helper()
	cfg, err := config.LoadLocal()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Database.Path = dbPath
	a, err := openApp(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if err := a.svc.RecordEvent(context.Background(), types.EventRequest{Type: types.EventCooked, RecipeID: "tea"}); err != nil {
		t.Fatal(err)
	}
}

func TestPatterns_JSONReflectsHistory(t *testing.T) {
	dbPath := importedDB(t)
	cookTea(t, dbPath)

	stdout, _, err := executeCmd(t, dbPath, "", "patterns", "--json")
	if err != nil {
		t.Fatal(err)
	}

	var p types.PatternsResponse
	if err := json.Unmarshal([]byte(stdout), &p); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, stdout)
	}
	if len(p.PreferredCategories) != 1 || p.PreferredCategories[0] != "Drinks" {
		t.Errorf("preferred categories = %v", p.PreferredCategories)
	}
}

func TestPatterns_Text(t *testing.T) {
	dbPath := importedDB(t)

	stdout, _, err := executeCmd(t, dbPath, "", "patterns")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Skill level:", "novice", "Preferred categories:", "Exploration rate:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestBehaviorReset_AbortsWithoutConfirmation(t *testing.T) {
	dbPath := importedDB(t)
	cookTea(t, dbPath)

	_, stderr, err := executeCmd(t, dbPath, "no\n", "behavior", "reset")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "Aborted.") {
		t.Errorf("stderr = %q", stderr)
	}

	stdout, _, _ := executeCmd(t, dbPath, "", "patterns", "--json")
	if !strings.Contains(stdout, "Drinks") {
		t.Errorf("history was erased without confirmation: %s", stdout)
	}
}

func TestBehaviorReset_Force(t *testing.T) {
	// Given: one cooked recipe
	dbPath := importedDB(t)
	cookTea(t, dbPath)

	// When
	stdout, _, err := executeCmd(t, dbPath, "", "behavior", "reset", "--force")

	// Then: history is gone but recipes remain
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "Behavior data reset.") {
		t.Errorf("stdout = %q", stdout)
	}

	stdout, _, _ = executeCmd(t, dbPath, "", "patterns", "--json")
	var p types.PatternsResponse
	if err := json.Unmarshal([]byte(stdout), &p); err != nil {
		t.Fatal(err)
	}
	if len(p.PreferredCategories) != 0 {
		t.Errorf("preferred categories after reset = %v", p.PreferredCategories)
	}

	stdout, _, _ = executeCmd(t, dbPath, "", "recipes", "list")
	if !strings.Contains(stdout, "Ginger Tea") {
		t.Error("reset removed recipes")
	}
}

func TestBehaviorReset_Confirmed(t *testing.T) {
	dbPath := importedDB(t)

	stdout, _, err := executeCmd(t, dbPath, "reset\n", "behavior", "reset")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "Behavior data reset.") {
		t.Errorf("stdout = %q", stdout)
	}
}
