package recommend

import (
	"github.com/hyperengineering/larder/internal/types"
)

// window is one time-of-day bucket and the copy and thresholds it uses.
// A zero fallback disables the fallback bound.
type window struct {
	name            string
	keywords        []string
	weekdayCeiling  int
	weekendCeiling  int
	weekdayFallback int
	weekendFallback int
	// slowCook also admits any non-Hard recipe with at least 30 minutes of
	// cook time.
	slowCook bool
	weekday  copyText
	weekend  copyText
}

type copyText struct {
	title     string
	subtitle  string
	reasoning string
}

var (
	morningWindow = window{
		name:            "morning",
		keywords:        []string{"koko", "porridge", "tea", "bread", "bofrot"},
		weekdayCeiling:  20,
		weekendCeiling:  45,
		weekdayFallback: 15,
		weekendFallback: 30,
		weekday: copyText{
			title:     "Quick Breakfast Ideas",
			subtitle:  "Ready before you head out",
			reasoning: "It's a weekday morning, so these breakfasts come together in 20 minutes or less.",
		},
		weekend: copyText{
			title:     "Weekend Breakfast",
			subtitle:  "Take your time this morning",
			reasoning: "Weekend mornings leave room for a slower breakfast, so these take up to 45 minutes.",
		},
	}

	afternoonWindow = window{
		name:            "afternoon",
		keywords:        []string{"rice", "salad", "kelewele", "red red", "sandwich"},
		weekdayCeiling:  30,
		weekendCeiling:  60,
		weekdayFallback: 25,
		weekendFallback: 40,
		weekday: copyText{
			title:     "Lunch Break Favorites",
			subtitle:  "Fits into a busy afternoon",
			reasoning: "It's midday on a weekday, so these lunches stay under 30 minutes.",
		},
		weekend: copyText{
			title:     "Relaxed Weekend Lunch",
			subtitle:  "Something satisfying for the afternoon",
			reasoning: "A weekend afternoon allows a more involved lunch of up to an hour.",
		},
	}

	eveningWindow = window{
		name:           "evening",
		keywords:       []string{"soup", "stew", "jollof", "banku", "fufu"},
		weekdayCeiling: 90,
		weekendCeiling: 150,
		slowCook:       true,
		weekday: copyText{
			title:     "Traditional Evening Meals",
			subtitle:  "Hearty dinners to end the day",
			reasoning: "Evenings are the time for the soups, stews and slow-cooked dishes that make a proper dinner.",
		},
		weekend: copyText{
			title:     "Weekend Dinner Specials",
			subtitle:  "Worth the extra effort tonight",
			reasoning: "With the weekend ahead, these dinners can simmer for as long as they need.",
		},
	}

	lateNightWindow = window{
		name:            "late-night",
		keywords:        []string{"tea", "plantain", "chips", "toast"},
		weekdayCeiling:  20,
		weekendCeiling:  30,
		weekdayFallback: 15,
		weekendFallback: 20,
		weekday: copyText{
			title:     "Late Night Bites",
			subtitle:  "Light and fast",
			reasoning: "It's late, so these are quick snacks that won't keep you up.",
		},
		weekend: copyText{
			title:     "Weekend Night Snacks",
			subtitle:  "Something small for a late night",
			reasoning: "A late weekend night calls for an easy snack ready in half an hour or less.",
		},
	}
)

// windowFor buckets an hour of day.
func windowFor(hour int) window {
	switch {
	case hour >= 5 && hour <= 11:
		return morningWindow
	case hour >= 12 && hour <= 17:
		return afternoonWindow
	case hour >= 18 && hour <= 22:
		return eveningWindow
	default:
		return lateNightWindow
	}
}

func (w window) copyFor(weekend bool) copyText {
	if weekend {
		return w.weekend
	}
	return w.weekday
}

func (w window) matches(r types.Recipe, weekend bool) bool {
	ceiling, fallback := w.weekdayCeiling, w.weekdayFallback
	if weekend {
		ceiling, fallback = w.weekendCeiling, w.weekendFallback
	}
	total := r.TotalTime()

	if total <= ceiling && r.NameContainsAny(w.keywords) {
		return true
	}
	if fallback > 0 && total <= fallback {
		return true
	}
	return w.slowCook && r.Difficulty != types.DifficultyHard && r.CookTime >= 30
}
