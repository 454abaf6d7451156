// Package insights computes rule-based, non-medical observations over the
// last seven days of a user's logs.
package insights

import (
	"fmt"
	"math"
	"time"

	"github.com/hpungsan/healthyfy/internal/entity"
	"github.com/hpungsan/healthyfy/internal/wellness"
)

const windowDays = 7

// Trend is the direction of a daily series.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Insight is the summary for one domain.
type Insight struct {
	Title   string         `json:"title"`
	Bullets []string       `json:"bullets"`
	Stats   map[string]any `json:"stats"`
}

// Rules evaluates the insight rules. Now defaults to time.Now.
type Rules struct {
	Now func() time.Time
}

func (r Rules) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Summarize returns the bullets for a content domain given its two
// collections (see wellness.DomainCollections).
func (r Rules) Summarize(d entity.Domain, primary, secondary []wellness.Record) []string {
	switch d {
	case entity.DomainFitness:
		return r.Fitness(primary, secondary).Bullets
	case entity.DomainNutrition:
		return r.Nutrition(primary, secondary).Bullets
	case entity.DomainMental:
		return r.Mental(primary, secondary).Bullets
	case entity.DomainChronic:
		return r.Chronic(primary, secondary).Bullets
	}
	return nil
}

// direction compares the first and last value of a series.
func direction(values []float64) Trend {
	if len(values) < 2 {
		return TrendFlat
	}
	delta := values[len(values)-1] - values[0]
	if math.Abs(delta) < 0.00001 {
		return TrendFlat
	}
	if delta > 0 {
		return TrendUp
	}
	return TrendDown
}

// windowStart is the first ISO date inside the window ending today.
func (r Rules) windowStart() string {
	return entity.ISODate(r.now().AddDate(0, 0, -(windowDays - 1)))
}

func (r Rules) recent(records []wellness.Record) []wellness.Record {
	start := r.windowStart()
	var out []wellness.Record
	for _, rec := range records {
		if d := rec.Date(); d != "" && d >= start {
			out = append(out, rec)
		}
	}
	return out
}

// dailySeries sums field per day, oldest day first.
func (r Rules) dailySeries(records []wellness.Record, field string) []float64 {
	byDay := map[string]float64{}
	for _, rec := range records {
		byDay[rec.Date()] += rec.Number(field)
	}
	now := r.now()
	values := make([]float64, windowDays)
	for i := range values {
		values[i] = byDay[entity.ISODate(now.AddDate(0, 0, -(windowDays-1-i)))]
	}
	return values
}

func average(records []wellness.Record, field string) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, rec := range records {
		sum += rec.Number(field)
	}
	return sum / float64(len(records))
}

// Fitness summarizes workouts and habit check-ins.
func (r Rules) Fitness(workouts, habits []wellness.Record) Insight {
	last := r.recent(workouts)
	trend := direction(r.dailySeries(last, "minutes"))

	habitEntries := r.recent(habits)
	completed := 0
	for _, h := range habitEntries {
		if h.Bool("done") {
			completed++
		}
	}
	rate := 0.0
	if len(habitEntries) > 0 {
		rate = float64(completed) / float64(len(habitEntries))
	}

	var bullets []string
	switch {
	case len(last) == 0:
		bullets = append(bullets, "Start with 10-15 minutes of movement 3x this week.")
	case trend == TrendDown:
		bullets = append(bullets, "Your workout minutes are trending down - schedule shorter sessions to rebuild consistency.")
	case trend == TrendUp:
		bullets = append(bullets, "Great consistency - consider adding a light recovery day to stay sustainable.")
	default:
		bullets = append(bullets, "Maintain your current pace and set a small weekly goal (e.g., +10 total minutes).")
	}
	if rate < 0.5 {
		bullets = append(bullets, `Habit completion is below 50% - pick 1 "minimum viable habit" and make it easy to win daily.`)
	} else {
		bullets = append(bullets, "Habits look steady - keep the cues consistent (same time/place).")
	}

	return Insight{
		Title:   "Fitness coaching insights (non-medical)",
		Bullets: bullets,
		Stats: map[string]any{
			"workoutsLast7Days":   len(last),
			"habitCompletionRate": rate,
		},
	}
}

// Nutrition summarizes meals and water logs.
func (r Rules) Nutrition(meals, water []wellness.Record) Insight {
	lastMeals := r.recent(meals)
	avgCalories := average(lastMeals, "calories")

	series := r.dailySeries(r.recent(water), "ml")
	trend := direction(series)
	none := true
	for _, v := range series {
		if v != 0 {
			none = false
			break
		}
	}

	var bullets []string
	if len(lastMeals) == 0 {
		bullets = append(bullets, "Log at least one meal per day for a week to build awareness.")
	} else {
		bullets = append(bullets, fmt.Sprintf("Average logged calories per meal: %d (awareness only; not medical guidance).", int(math.Floor(avgCalories+0.5))))
	}
	switch {
	case none:
		bullets = append(bullets, "Start tracking water - try adding one glass after waking up.")
	case trend == TrendDown:
		bullets = append(bullets, "Hydration is trending down - set a reminder for mid-morning and mid-afternoon water breaks.")
	default:
		bullets = append(bullets, "Keep hydration steady - pair water with routine events (after calls, after meals).")
	}

	return Insight{
		Title:   "Nutrition planning insights (non-medical)",
		Bullets: bullets,
		Stats: map[string]any{
			"mealsLast7Days": len(lastMeals),
			"waterTrend":     string(trend),
		},
	}
}

// Mental summarizes mood logs and journal entries.
func (r Rules) Mental(moods, journals []wellness.Record) Insight {
	last := r.recent(moods)
	avgMood := average(last, "mood")
	avgStress := average(last, "stress")

	var bullets []string
	if len(last) == 0 {
		bullets = append(bullets, "Log mood + stress once per day for 7 days to detect patterns.")
	} else {
		if avgMood < 4 {
			bullets = append(bullets, "Mood has been low - try a short walk, sunlight, or a 5-minute breathing break.")
		}
		if avgStress > 7 {
			bullets = append(bullets, "Stress has been high - schedule a short decompression block (music, stretch, breathing).")
		}
		if len(bullets) == 0 {
			bullets = append(bullets, "Mood and stress look stable - keep your current routine and protect sleep.")
		}
	}
	if len(r.recent(journals)) == 0 {
		bullets = append(bullets, `Try a 2-minute journal prompt: "What drained me today? What helped me today?"`)
	}

	return Insight{
		Title:   "Mental wellness insights (non-clinical)",
		Bullets: bullets,
		Stats: map[string]any{
			"avgMood":   avgMood,
			"avgStress": avgStress,
		},
	}
}

// Chronic summarizes symptoms and reminders.
func (r Rules) Chronic(symptoms, reminders []wellness.Record) Insight {
	last := r.recent(symptoms)
	avgSeverity := average(last, "severity")

	active := 0
	for _, rem := range reminders {
		if rem.Bool("active") {
			active++
		}
	}

	var bullets []string
	switch {
	case len(last) == 0:
		bullets = append(bullets, "Track symptoms daily for 7 days to spot possible lifestyle correlations (sleep, food, stress).")
	case avgSeverity >= 7:
		bullets = append(bullets, "Symptoms have been intense - consider noting triggers and discussing patterns with a qualified professional.")
	default:
		bullets = append(bullets, "Keep tracking triggers (sleep, hydration, activity) alongside symptoms to learn patterns.")
	}
	if active == 0 {
		bullets = append(bullets, "If you use reminders, add a simple routine reminder to support consistency (non-prescriptive).")
	} else {
		bullets = append(bullets, "Reminders are active - mark completions to keep your routine visible.")
	}

	return Insight{
		Title:   "Chronic condition support insights (non-diagnostic)",
		Bullets: bullets,
		Stats: map[string]any{
			"symptomsLast7Days": len(last),
			"avgSeverity":       avgSeverity,
			"activeReminders":   active,
		},
	}
}
