package wellness

import (
	"encoding/json"
	"testing"

	"github.com/hpungsan/healthyfy/internal/entity"
)

func TestRecordAccessors_AfterJSON(t *testing.T) {
	raw := `{"id":"water_1","date":"2025-12-27","ml":500,"active":true,"completions":["2025-12-26"],"label":"Drink","calories":"320"}`

	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if r.ID() != "water_1" || r.Date() != "2025-12-27" {
		t.Errorf("ID/Date = %q/%q", r.ID(), r.Date())
	}
	if r.Number("ml") != 500 {
		t.Errorf("Number(ml) = %v", r.Number("ml"))
	}
	if r.Number("calories") != 320 {
		t.Errorf("Number(calories) from string = %v", r.Number("calories"))
	}
	if r.String("ml") != "500" {
		t.Errorf("String(ml) = %q", r.String("ml"))
	}
	if !r.Bool("active") || r.Bool("missing") {
		t.Error("Bool accessors wrong")
	}
	if got := r.Strings("completions"); len(got) != 1 || got[0] != "2025-12-26" {
		t.Errorf("Strings(completions) = %v", got)
	}
	if r.Strings("label") != nil {
		t.Error("Strings on a scalar should be nil")
	}
}

func TestRecord_Clone(t *testing.T) {
	r := Record{"active": true}
	c := r.Clone()
	c["active"] = false
	if !r.Bool("active") {
		t.Error("Clone shares storage")
	}
}

func TestDomainCollections(t *testing.T) {
	tests := []struct {
		domain          entity.Domain
		primary, second string
		ok              bool
	}{
		{entity.DomainFitness, Workouts, Habits, true},
		{entity.DomainNutrition, Meals, Water, true},
		{entity.DomainMental, Mood, Journals, true},
		{entity.DomainChronic, Symptoms, Reminders, true},
		{entity.DomainDashboard, "", "", false},
	}

	for _, tt := range tests {
		p, s, ok := DomainCollections(tt.domain)
		if p != tt.primary || s != tt.second || ok != tt.ok {
			t.Errorf("DomainCollections(%s) = %q, %q, %v", tt.domain, p, s, ok)
		}
	}
}

func TestKnownCollection(t *testing.T) {
	if !KnownCollection(Reminders) || KnownCollection("chronic:unknown") {
		t.Error("KnownCollection wrong")
	}
}
