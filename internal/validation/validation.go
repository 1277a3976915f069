package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperengineering/larder/internal/types"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateNoNullBytes returns an error if the value contains null bytes.
func ValidateNoNullBytes(field, value string) *ValidationError {
	if strings.Contains(value, "\x00") {
		return &ValidationError{
			Field:   field,
			Message: "must not contain null bytes",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateEnum returns an error if the value is not in the allowed list.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateRange returns an error if the value is outside [min, max].
func ValidateRange(field string, value, min, max float64) *ValidationError {
	if value < min || value > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %.1f and %.1f", min, max),
		}
	}
	return nil
}

// Field limits.
const (
	MaxRecipeIDLength   = 128
	MaxRecipeNameLength = 200
	MaxSessionSeconds   = 24 * 60 * 60
	MaxRecipeMinutes    = 24 * 60
)

// TrackableEvents are the event types accepted from clients.
var TrackableEvents = []string{
	string(types.EventViewed),
	string(types.EventCooked),
	string(types.EventFavorited),
	string(types.EventUnfavorited),
	string(types.EventIgnored),
	string(types.EventInteracted),
	string(types.EventSession),
}

// ValidateEventRequest checks a tracked-event body. Suggestion events need
// a section type; session events need a positive duration.
func ValidateEventRequest(req types.EventRequest) []ValidationError {
	var c Collector

	if err := ValidateRequired("type", string(req.Type)); err != nil {
		c.Add(err)
	} else {
		c.Add(ValidateEnum("type", string(req.Type), TrackableEvents))
	}

	c.Add(ValidateRequired("recipe_id", req.RecipeID))
	c.Add(ValidateUTF8("recipe_id", req.RecipeID))
	c.Add(ValidateNoNullBytes("recipe_id", req.RecipeID))
	c.Add(ValidateMaxLength("recipe_id", req.RecipeID, MaxRecipeIDLength))

	switch req.Type {
	case types.EventIgnored, types.EventInteracted:
		c.Add(validateSection(req.SectionType))
	case types.EventSession:
		c.Add(ValidateRange("duration_seconds", req.DurationSeconds, 1, MaxSessionSeconds))
	}

	return c.Errors()
}

func validateSection(st types.SectionType) *ValidationError {
	if err := ValidateRequired("section_type", string(st)); err != nil {
		return err
	}
	if !st.Valid() {
		return &ValidationError{
			Field:   "section_type",
			Message: "must be a known section type",
		}
	}
	return nil
}

// ValidateRecipe checks one catalog entry. index prefixes field names so a
// batch import can report every bad entry at once.
func ValidateRecipe(index int, r types.Recipe) []ValidationError {
	var c Collector
	prefix := fmt.Sprintf("recipes[%d]", index)

	c.Add(ValidateRequired(prefix+".id", r.ID))
	c.Add(ValidateMaxLength(prefix+".id", r.ID, MaxRecipeIDLength))
	c.Add(ValidateRequired(prefix+".name", r.Name))
	c.Add(ValidateMaxLength(prefix+".name", r.Name, MaxRecipeNameLength))
	c.Add(ValidateNoNullBytes(prefix+".name", r.Name))

	difficulties := make([]string, len(types.Difficulties))
	for i, d := range types.Difficulties {
		difficulties[i] = string(d)
	}
	c.Add(ValidateEnum(prefix+".difficulty", string(r.Difficulty), difficulties))

	c.Add(ValidateRange(prefix+".prep_time", float64(r.PrepTime), 0, MaxRecipeMinutes))
	c.Add(ValidateRange(prefix+".cook_time", float64(r.CookTime), 0, MaxRecipeMinutes))
	c.Add(ValidateRange(prefix+".servings", float64(r.Servings), 0, 100))

	return c.Errors()
}
