// Package wellness defines the user data collections the assistant reads and
// writes. Records are opaque JSON objects; only the fields the assistant sets
// itself have accessors here.
package wellness

import (
	"fmt"
	"strconv"

	"github.com/hpungsan/healthyfy/internal/entity"
)

// Collection names, scoped per owner by the data store.
const (
	Workouts  = "fitness:workouts"
	Habits    = "fitness:habits"
	Meals     = "nutrition:meals"
	Water     = "nutrition:water"
	Mood      = "mental:mood"
	Journals  = "mental:journals"
	Symptoms  = "chronic:symptoms"
	Reminders = "chronic:reminders"
)

// Collections lists every known collection name.
var Collections = []string{Workouts, Habits, Meals, Water, Mood, Journals, Symptoms, Reminders}

// KnownCollection reports whether name is one of Collections.
func KnownCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}

// DomainCollections returns the two collections summarized for a content
// domain, primary first.
func DomainCollections(d entity.Domain) (string, string, bool) {
	switch d {
	case entity.DomainFitness:
		return Workouts, Habits, true
	case entity.DomainNutrition:
		return Meals, Water, true
	case entity.DomainMental:
		return Mood, Journals, true
	case entity.DomainChronic:
		return Symptoms, Reminders, true
	}
	return "", "", false
}

// Record is one collection item.
type Record map[string]any

// ID returns the record id.
func (r Record) ID() string { return r.String("id") }

// Date returns the ISO calendar date the record belongs to.
func (r Record) Date() string { return r.String("date") }

// String returns a field as text; numbers are formatted, other types are "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Number returns a numeric field. Numeric strings are accepted the way a
// loosely-typed form value would be; anything else is 0.
func (r Record) Number(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// Bool returns a boolean field; missing or non-boolean values are false.
func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// Has reports whether key is present with a non-nil value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Strings returns a list-of-strings field such as reminder completions.
func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Clone copies the top level of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
