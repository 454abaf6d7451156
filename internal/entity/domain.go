package entity

import (
	"strings"
	"time"
)

// Domain is an application area the assistant can open or export.
type Domain string

const (
	DomainDashboard Domain = "dashboard"
	DomainFitness   Domain = "fitness"
	DomainNutrition Domain = "nutrition"
	DomainMental    Domain = "mental"
	DomainChronic   Domain = "chronic"
	DomainLogin     Domain = "login"
	DomainRegister  Domain = "register"
)

// ContentDomains hold user data and can be exported.
var ContentDomains = []Domain{DomainFitness, DomainNutrition, DomainMental, DomainChronic}

// IsContent reports whether d is one of ContentDomains.
func (d Domain) IsContent() bool {
	for _, c := range ContentDomains {
		if d == c {
			return true
		}
	}
	return false
}

// Title capitalizes the first letter for user-facing text.
func (d Domain) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// Iteration order matters: "mood reminder" resolves to mental, not chronic.
var domainSynonyms = []struct {
	domain   Domain
	synonyms []string
}{
	{DomainDashboard, []string{"dashboard", "home", "main", "overview", "unified"}},
	{DomainFitness, []string{"fitness", "workout", "workouts", "exercise", "training", "habit", "habits"}},
	{DomainNutrition, []string{"nutrition", "food", "meal", "meals", "diet", "hydration", "water"}},
	{DomainMental, []string{"mental", "stress", "mood", "journal", "journaling", "calm", "mind"}},
	{DomainChronic, []string{"chronic", "symptom", "symptoms", "reminder", "reminders", "condition"}},
	{DomainLogin, []string{"login", "sign in", "signin", "log in"}},
	{DomainRegister, []string{"register", "sign up", "signup", "create account"}},
}

// DetectDomain returns the first domain whose synonym appears in text.
func DetectDomain(text string) (Domain, bool) {
	t := Normalize(text)
	if t == "" {
		return "", false
	}
	for _, entry := range domainSynonyms {
		for _, s := range entry.synonyms {
			if strings.Contains(t, s) {
				return entry.domain, true
			}
		}
	}
	return "", false
}

// ParseSlot parses a raw reply for one slot during collection.
func ParseSlot(slot Slot, text string) (Value, bool) {
	return ParseSlotAt(slot, text, time.Now())
}

// ParseSlotAt is ParseSlot with an explicit clock for relative dates.
func ParseSlotAt(slot Slot, text string, now time.Time) (Value, bool) {
	switch slot {
	case SlotDomain:
		d, ok := DetectDomain(text)
		if !ok || !(d.IsContent() || d == DomainDashboard) {
			return Value{}, false
		}
		return Text(string(d)), true
	case SlotDate:
		s, ok := ExtractISODateAt(text, now)
		return Text(s), ok
	case SlotMinutes, SlotML, SlotCalories:
		n, ok := ParseNonNegative(text)
		return Number(n), ok
	case SlotMood, SlotStress, SlotSeverity:
		n, ok := ParseClamped(text)
		return Number(n), ok
	case SlotTime:
		s, ok := ParseTimeHHMM(text)
		return Text(s), ok
	case SlotActive:
		b, ok := ParseBoolean(text)
		return Flag(b), ok
	case SlotMealType:
		s, ok := ParseMealType(text)
		return Text(s), ok
	case SlotType, SlotSymptom, SlotLabel, SlotText, SlotNotes:
		s := strings.TrimSpace(text)
		return Text(s), s != ""
	}
	return Value{}, false
}
