package intent

import (
	"regexp"
	"strings"
	"time"

	"github.com/hpungsan/healthyfy/internal/entity"
)

// Classification is the classifier output. Entities is never nil.
type Classification struct {
	Intent   Intent     `json:"intent"`
	Entities entity.Bag `json:"entities"`
}

var (
	exportVerbRegex  = regexp.MustCompile(`\b(export|download)\b`)
	pdfRegex         = regexp.MustCompile(`\bpdf\b`)
	logVerbRegex     = regexp.MustCompile(`\b(add|log|track|record)\b`)
	createVerbRegex  = regexp.MustCompile(`\b(add|create|set)\b`)
	toggleVerbRegex  = regexp.MustCompile(`\b(toggle|turn)\b`)
	doneVerbRegex    = regexp.MustCompile(`\b(done|complete|completed|mark)\b`)
	navigateRegex    = regexp.MustCompile(`\b(go to|open|navigate|take me|show me)\b`)
	fillVerbRegex    = regexp.MustCompile(`\b(fill|enter|type)\b`)
	helpRegex        = regexp.MustCompile(`\b(help|what can you do|capabilities|commands)\b`)
	disclaimerRegex  = regexp.MustCompile(`\b(disclaimer|medical|diagnose|diagnosis|treatment)\b`)
	caloriesRegex    = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(?:kcal|calories|cal)\b`)
	moodScoreRegex   = regexp.MustCompile(`\bmood\s+(-?\d+(?:\.\d+)?)`)
	stressScoreRegex = regexp.MustCompile(`\bstress\s+(-?\d+(?:\.\d+)?)`)
	severityRegex    = regexp.MustCompile(`\bseverity\s+(-?\d+(?:\.\d+)?)`)
)

var (
	yesWords = []string{"yes", "y", "sure", "ok", "okay", "confirm", "do it", "go ahead", "please"}
	noWords  = []string{"no", "n", "nope", "cancel", "stop", "not now", "never mind", "nevermind"}
)

// Classify maps text to an intent using the local clock for relative dates.
func Classify(text string) Classification {
	return ClassifyAt(text, time.Now())
}

// ClassifyAt evaluates the rules top to bottom; the first match wins.
func ClassifyAt(text string, now time.Time) Classification {
	t := entity.Normalize(text)
	if t == "" {
		return result(Smalltalk, nil)
	}
	if oneOf(t, yesWords) {
		return result(ConfirmYes, nil)
	}
	if oneOf(t, noWords) {
		return result(ConfirmNo, nil)
	}

	x := extractor{t: t, kv: entity.ParseKeyValues(text), now: now, bag: entity.Bag{}}

	if exportVerbRegex.MatchString(t) && pdfRegex.MatchString(t) {
		x.domain()
		return result(ExportPDF, x.bag)
	}

	if logVerbRegex.MatchString(t) {
		switch {
		case containsAny(t, "workout", "exercise", "training"):
			x.date()
			x.text(entity.SlotType, "type", "workout")
			x.count(entity.SlotMinutes, "minutes")
			return result(AddWorkout, x.bag)
		case containsAny(t, "water", "hydration"):
			x.date()
			x.count(entity.SlotML, "ml", "amount")
			return result(AddWater, x.bag)
		case containsAny(t, "meal", "food", "breakfast", "lunch", "dinner"):
			x.date()
			x.mealType()
			x.calories()
			x.text(entity.SlotNotes, "notes", "name")
			return result(AddMeal, x.bag)
		case containsAny(t, "mood", "stress"):
			x.date()
			x.score(entity.SlotMood, moodScoreRegex, "mood")
			x.score(entity.SlotStress, stressScoreRegex, "stress")
			x.text(entity.SlotNotes, "notes")
			return result(AddMood, x.bag)
		case strings.Contains(t, "journal"):
			x.date()
			x.text(entity.SlotText, "text", "entry")
			return result(AddJournal, x.bag)
		case containsAny(t, "symptom", "severity"):
			x.date()
			x.text(entity.SlotSymptom, "symptom", "name")
			x.score(entity.SlotSeverity, severityRegex, "severity")
			x.text(entity.SlotNotes, "notes")
			return result(AddSymptom, x.bag)
		}
	}

	if createVerbRegex.MatchString(t) && strings.Contains(t, "reminder") {
		x.text(entity.SlotLabel, "label", "title")
		x.timeOfDay()
		x.active()
		return result(AddReminder, x.bag)
	}

	if toggleVerbRegex.MatchString(t) && strings.Contains(t, "reminder") {
		x.text(entity.SlotLabel, "label", "title")
		return result(ToggleReminder, x.bag)
	}

	if (doneVerbRegex.MatchString(t) && strings.Contains(t, "reminder")) || strings.Contains(t, "mark reminder done") {
		x.text(entity.SlotLabel, "label", "title")
		return result(MarkReminderDone, x.bag)
	}

	if navigateRegex.MatchString(t) {
		x.domain()
		return result(Navigate, x.bag)
	}

	if fillVerbRegex.MatchString(t) {
		if containsAny(t, "login", "sign in") {
			return result(FillLogin, nil)
		}
		if containsAny(t, "register", "sign up", "create account") {
			return result(FillRegister, nil)
		}
	}

	if helpRegex.MatchString(t) {
		return result(Help, nil)
	}

	if disclaimerRegex.MatchString(t) {
		return result(Disclaimer, nil)
	}

	if _, ok := entity.DetectDomain(t); ok {
		x.domain()
		return result(Navigate, x.bag)
	}

	return result(Smalltalk, nil)
}

func result(i Intent, bag entity.Bag) Classification {
	if bag == nil {
		bag = entity.Bag{}
	}
	return Classification{Intent: i, Entities: bag}
}

func oneOf(t string, words []string) bool {
	for _, w := range words {
		if t == w {
			return true
		}
	}
	return false
}

func containsAny(t string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(t, n) {
			return true
		}
	}
	return false
}

// extractor fills a bag for one utterance. Every value passes through the
// slot's own parser so a one-shot command and a slot-by-slot reply agree.
type extractor struct {
	t   string
	kv  map[string]string
	now time.Time
	bag entity.Bag
}

func (x *extractor) hint(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := x.kv[k]; ok {
			return v, true
		}
	}
	return "", false
}

func (x *extractor) parsed(slot entity.Slot, raw string) bool {
	v, ok := entity.ParseSlotAt(slot, raw, x.now)
	x.bag.Set(slot, v, ok)
	return ok
}

func (x *extractor) domain() {
	if d, ok := entity.DetectDomain(x.t); ok {
		x.bag[entity.SlotDomain] = entity.Text(string(d))
	}
}

func (x *extractor) date() {
	if x.parsed(entity.SlotDate, x.t) {
		return
	}
	if raw, ok := x.hint("date"); ok {
		x.parsed(entity.SlotDate, raw)
	}
}

func (x *extractor) text(slot entity.Slot, keys ...string) {
	if raw, ok := x.hint(keys...); ok {
		x.parsed(slot, raw)
	}
}

// count reads a non-negative amount from a hint, else the first bare number
// once dates and clock times are removed.
func (x *extractor) count(slot entity.Slot, keys ...string) {
	if raw, ok := x.hint(keys...); ok && x.parsed(slot, raw) {
		return
	}
	x.parsed(slot, entity.StripDatesAndTimes(x.t))
}

func (x *extractor) score(slot entity.Slot, pattern *regexp.Regexp, keys ...string) {
	if raw, ok := x.hint(keys...); ok && x.parsed(slot, raw) {
		return
	}
	if m := pattern.FindStringSubmatch(x.t); m != nil {
		x.parsed(slot, m[1])
	}
}

func (x *extractor) mealType() {
	if raw, ok := x.hint("mealtype", "meal"); ok && x.parsed(entity.SlotMealType, raw) {
		return
	}
	if m, ok := entity.InferMealType(x.t); ok {
		x.bag[entity.SlotMealType] = entity.Text(m)
	}
}

func (x *extractor) calories() {
	if raw, ok := x.hint("calories", "cal", "kcal"); ok && x.parsed(entity.SlotCalories, raw) {
		return
	}
	if m := caloriesRegex.FindStringSubmatch(x.t); m != nil {
		x.parsed(entity.SlotCalories, m[1])
	}
}

func (x *extractor) timeOfDay() {
	if raw, ok := x.hint("time"); ok && x.parsed(entity.SlotTime, raw) {
		return
	}
	x.parsed(entity.SlotTime, x.t)
}

// active defaults to true when the utterance does not say otherwise.
func (x *extractor) active() {
	if raw, ok := x.hint("active", "enabled"); ok && x.parsed(entity.SlotActive, raw) {
		return
	}
	x.bag[entity.SlotActive] = entity.Flag(true)
}
