// Package entity turns free text into typed slot values.
//
// Every extractor is a pure function that reports absence with ok == false
// instead of an error; callers decide whether absence means "ask again".
package entity

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	isoDateRegex    = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	relativeRegex   = regexp.MustCompile(`\b(today|yesterday)\b`)
	numberRegex     = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	timeRegex       = regexp.MustCompile(`\b([01]\d|2[0-3]):([0-5]\d)\b`)
)

// Normalize lowercases, collapses internal whitespace and trims.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ExtractISODate resolves "today"/"yesterday" against the local clock, else
// the first YYYY-MM-DD in text.
func ExtractISODate(text string) (string, bool) {
	return ExtractISODateAt(text, time.Now())
}

// ExtractISODateAt is ExtractISODate with an explicit clock.
func ExtractISODateAt(text string, now time.Time) (string, bool) {
	t := Normalize(text)
	if m := relativeRegex.FindStringSubmatch(t); m != nil {
		switch m[1] {
		case "today":
			return ISODate(now), true
		case "yesterday":
			return ISODate(now.AddDate(0, 0, -1)), true
		}
	}
	if m := isoDateRegex.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

// ISODate formats t as a local calendar date.
func ISODate(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// ParseNumber returns the first signed integer or decimal in text.
func ParseNumber(text string) (float64, bool) {
	m := numberRegex.FindString(text)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// ParseClamped parses a 0-10 score (mood, stress, severity).
func ParseClamped(text string) (int, bool) {
	n, ok := ParseNumber(text)
	if !ok {
		return 0, false
	}
	r := roundHalfUp(n)
	return max(0, min(10, r)), true
}

// ParseNonNegative parses a count (minutes, ml, calories), floored at zero.
func ParseNonNegative(text string) (int, bool) {
	n, ok := ParseNumber(text)
	if !ok {
		return 0, false
	}
	return max(0, roundHalfUp(n)), true
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(n float64) int {
	return int(math.Floor(n + 0.5))
}

// ParseTimeHHMM returns the first 24-hour HH:MM time in text.
func ParseTimeHHMM(text string) (string, bool) {
	m := timeRegex.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1] + ":" + m[2], true
}

var (
	affirmative = []string{"true", "on", "active", "enabled", "yes", "y"}
	negative    = []string{"false", "off", "inactive", "disabled", "no", "n"}
)

// ParseBoolean matches the whole (normalized) text against fixed word sets.
func ParseBoolean(text string) (bool, bool) {
	t := Normalize(text)
	for _, w := range affirmative {
		if t == w {
			return true, true
		}
	}
	for _, w := range negative {
		if t == w {
			return false, true
		}
	}
	return false, false
}

var mealTypes = []string{"Breakfast", "Lunch", "Dinner", "Snack"}

// ParseMealType matches the whole text against the four meal types.
func ParseMealType(text string) (string, bool) {
	t := Normalize(text)
	for _, m := range mealTypes {
		if t == strings.ToLower(m) {
			return m, true
		}
	}
	return "", false
}

// InferMealType finds a meal type mentioned anywhere in text.
func InferMealType(text string) (string, bool) {
	t := Normalize(text)
	for _, m := range mealTypes {
		if strings.Contains(t, strings.ToLower(m)) {
			return m, true
		}
	}
	return "", false
}

// ParseKeyValues reads "key: value, key: value" hints. Keys are lowercased
// and trimmed; values keep everything after the first colon.
func ParseKeyValues(text string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(text, ",") {
		k, v, found := strings.Cut(part, ":")
		if !found {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(k))
		value := strings.TrimSpace(v)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// StripDatesAndTimes removes ISO dates and HH:MM times so a bare-number
// fallback does not pick up "2025" or "07".
func StripDatesAndTimes(text string) string {
	text = isoDateRegex.ReplaceAllString(text, " ")
	return timeRegex.ReplaceAllString(text, " ")
}
