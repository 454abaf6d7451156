// Package action turns a confirmed pending action into a typed command,
// decides whether it may run, and runs it against the collaborators.
package action

import (
	"fmt"

	"github.com/hpungsan/healthyfy/internal/dialogue"
	"github.com/hpungsan/healthyfy/internal/entity"
	"github.com/hpungsan/healthyfy/internal/intent"
)

// Action is one fully-slotted command.
type Action interface {
	Intent() intent.Intent
}

type (
	Navigate struct{ Domain entity.Domain }

	ExportPDF struct{ Domain entity.Domain }

	AddWorkout struct {
		Date    string
		Type    string
		Minutes int
	}

	AddWater struct {
		Date string
		ML   int
	}

	AddMeal struct {
		Date     string
		MealType string
		Calories int
		Notes    string
	}

	AddMood struct {
		Date   string
		Mood   int
		Stress int
		Notes  string
	}

	AddJournal struct {
		Date string
		Text string
	}

	AddSymptom struct {
		Date     string
		Symptom  string
		Severity int
		Notes    string
	}

	AddReminder struct {
		Label  string
		Time   string
		Active bool
	}

	ToggleReminder struct{ Label string }

	MarkReminderDone struct{ Label string }

	// FillForm fills the visible login or register form.
	FillForm struct{ Register bool }
)

func (Navigate) Intent() intent.Intent         { return intent.Navigate }
func (ExportPDF) Intent() intent.Intent        { return intent.ExportPDF }
func (AddWorkout) Intent() intent.Intent       { return intent.AddWorkout }
func (AddWater) Intent() intent.Intent         { return intent.AddWater }
func (AddMeal) Intent() intent.Intent          { return intent.AddMeal }
func (AddMood) Intent() intent.Intent          { return intent.AddMood }
func (AddJournal) Intent() intent.Intent       { return intent.AddJournal }
func (AddSymptom) Intent() intent.Intent       { return intent.AddSymptom }
func (AddReminder) Intent() intent.Intent      { return intent.AddReminder }
func (ToggleReminder) Intent() intent.Intent   { return intent.ToggleReminder }
func (MarkReminderDone) Intent() intent.Intent { return intent.MarkReminderDone }

func (f FillForm) Intent() intent.Intent {
	if f.Register {
		return intent.FillRegister
	}
	return intent.FillLogin
}

// ErrUnsupported is returned by FromPending for intents with no command.
var ErrUnsupported = fmt.Errorf("action not supported")

// MissingSlotError reports a required slot that is absent or mistyped.
type MissingSlotError struct {
	Intent intent.Intent
	Slot   entity.Slot
}

func (e *MissingSlotError) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Intent, e.Slot)
}

// slotReader collects the first absent slot while reading typed values.
type slotReader struct {
	in      intent.Intent
	slots   entity.Bag
	missing *MissingSlotError
}

func (r *slotReader) fail(s entity.Slot) {
	if r.missing == nil {
		r.missing = &MissingSlotError{Intent: r.in, Slot: s}
	}
}

func (r *slotReader) text(s entity.Slot) string {
	v, ok := r.slots.TextOf(s)
	if !ok {
		r.fail(s)
	}
	return v
}

func (r *slotReader) optional(s entity.Slot) string {
	v, _ := r.slots.TextOf(s)
	return v
}

func (r *slotReader) number(s entity.Slot) int {
	v, ok := r.slots.NumberOf(s)
	if !ok {
		r.fail(s)
	}
	return v
}

func (r *slotReader) flag(s entity.Slot) bool {
	v, ok := r.slots.FlagOf(s)
	if !ok {
		r.fail(s)
	}
	return v
}

// FromPending converts a pending action into its typed command.
func FromPending(p *dialogue.Pending) (Action, error) {
	if p == nil {
		return nil, ErrUnsupported
	}
	r := &slotReader{in: p.Intent, slots: p.Slots}

	var a Action
	switch p.Intent {
	case intent.Navigate:
		a = Navigate{Domain: entity.Domain(r.optional(entity.SlotDomain))}
	case intent.ExportPDF:
		a = ExportPDF{Domain: entity.Domain(r.text(entity.SlotDomain))}
	case intent.AddWorkout:
		a = AddWorkout{Date: r.text(entity.SlotDate), Type: r.text(entity.SlotType), Minutes: r.number(entity.SlotMinutes)}
	case intent.AddWater:
		a = AddWater{Date: r.text(entity.SlotDate), ML: r.number(entity.SlotML)}
	case intent.AddMeal:
		a = AddMeal{
			Date:     r.text(entity.SlotDate),
			MealType: r.text(entity.SlotMealType),
			Calories: r.number(entity.SlotCalories),
			Notes:    r.optional(entity.SlotNotes),
		}
	case intent.AddMood:
		a = AddMood{
			Date:   r.text(entity.SlotDate),
			Mood:   r.number(entity.SlotMood),
			Stress: r.number(entity.SlotStress),
			Notes:  r.optional(entity.SlotNotes),
		}
	case intent.AddJournal:
		a = AddJournal{Date: r.text(entity.SlotDate), Text: r.text(entity.SlotText)}
	case intent.AddSymptom:
		a = AddSymptom{
			Date:     r.text(entity.SlotDate),
			Symptom:  r.text(entity.SlotSymptom),
			Severity: r.number(entity.SlotSeverity),
			Notes:    r.optional(entity.SlotNotes),
		}
	case intent.AddReminder:
		a = AddReminder{Label: r.text(entity.SlotLabel), Time: r.text(entity.SlotTime), Active: r.flag(entity.SlotActive)}
	case intent.ToggleReminder:
		a = ToggleReminder{Label: r.text(entity.SlotLabel)}
	case intent.MarkReminderDone:
		a = MarkReminderDone{Label: r.text(entity.SlotLabel)}
	case intent.FillLogin:
		a = FillForm{}
	case intent.FillRegister:
		a = FillForm{Register: true}
	default:
		return nil, ErrUnsupported
	}

	if r.missing != nil {
		return nil, r.missing
	}
	return a, nil
}
