// Package intent classifies a user utterance into one symbolic intent plus the
// entities that could be extracted from it.
package intent

import "github.com/hpungsan/healthyfy/internal/entity"

// Intent is a symbolic tag from a closed set.
type Intent string

const (
	Navigate         Intent = "navigate"
	ExportPDF        Intent = "export_pdf"
	AddWorkout       Intent = "add_workout"
	AddWater         Intent = "add_water"
	AddMeal          Intent = "add_meal"
	AddMood          Intent = "add_mood"
	AddJournal       Intent = "add_journal"
	AddSymptom       Intent = "add_symptom"
	AddReminder      Intent = "add_reminder"
	ToggleReminder   Intent = "toggle_reminder"
	MarkReminderDone Intent = "mark_reminder_done"
	FillLogin        Intent = "fill_login"
	FillRegister     Intent = "fill_register"
	Help             Intent = "help"
	Disclaimer       Intent = "disclaimer"
	ConfirmYes       Intent = "confirm_yes"
	ConfirmNo        Intent = "confirm_no"
	Smalltalk        Intent = "smalltalk"
)

// All lists every intent in declaration order.
var All = []Intent{
	Navigate, ExportPDF, AddWorkout, AddWater, AddMeal, AddMood, AddJournal,
	AddSymptom, AddReminder, ToggleReminder, MarkReminderDone, FillLogin,
	FillRegister, Help, Disclaimer, ConfirmYes, ConfirmNo, Smalltalk,
}

var required = map[Intent][]entity.Slot{
	Navigate:         {entity.SlotDomain},
	ExportPDF:        {entity.SlotDomain},
	AddWorkout:       {entity.SlotDate, entity.SlotType, entity.SlotMinutes},
	AddMeal:          {entity.SlotDate, entity.SlotMealType, entity.SlotCalories},
	AddWater:         {entity.SlotDate, entity.SlotML},
	AddMood:          {entity.SlotDate, entity.SlotMood, entity.SlotStress},
	AddJournal:       {entity.SlotDate, entity.SlotText},
	AddSymptom:       {entity.SlotDate, entity.SlotSymptom, entity.SlotSeverity},
	AddReminder:      {entity.SlotLabel, entity.SlotTime, entity.SlotActive},
	ToggleReminder:   {entity.SlotLabel},
	MarkReminderDone: {entity.SlotLabel},
}

// Required returns the ordered slot specification. Meta intents return nil.
func (i Intent) Required() []entity.Slot {
	slots := required[i]
	if slots == nil {
		return nil
	}
	out := make([]entity.Slot, len(slots))
	copy(out, slots)
	return out
}

// Actionable reports whether the intent starts a pending action.
func (i Intent) Actionable() bool {
	_, ok := required[i]
	return ok || i == FillLogin || i == FillRegister
}

// IsMutation reports whether the intent writes a new record.
func (i Intent) IsMutation() bool {
	switch i {
	case AddWorkout, AddWater, AddMeal, AddMood, AddJournal, AddSymptom, AddReminder:
		return true
	}
	return false
}

// Valid reports whether i is a member of the closed set.
func (i Intent) Valid() bool {
	for _, known := range All {
		if i == known {
			return true
		}
	}
	return false
}
