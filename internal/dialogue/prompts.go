package dialogue

import (
	"fmt"

	"github.com/hpungsan/healthyfy/internal/entity"
	"github.com/hpungsan/healthyfy/internal/intent"
)

// Fixed assistant lines.
const (
	CancelledMessage  = "No problem - cancelled."
	ReconfirmMessage  = `Please reply with "yes" to confirm or "no" to cancel.`
	IdleHintMessage   = `I'm here. Tell me what you want to do in the app (e.g., "open dashboard", "export nutrition pdf").`
	HelpMessage       = `I can help you navigate (e.g., "open nutrition"), export a domain PDF (e.g., "export fitness pdf"), and assist with basic form filling on Login/Register. I'll ask a question if something is missing, then confirm before doing anything.`
	DisclaimerMessage = "Reminder: I provide wellness and lifestyle support only - not medical advice, diagnosis, or treatment. For medical concerns, please consult a qualified professional."
)

var slotPrompts = map[entity.Slot]string{
	entity.SlotDomain:   "Which area: Fitness, Nutrition, Mental, Chronic, or Dashboard?",
	entity.SlotDate:     `What date? Reply like "today" or "2025-12-27".`,
	entity.SlotType:     `What workout type? (e.g., "Running", "Yoga", "Strength")`,
	entity.SlotMinutes:  `How many minutes? (e.g., "30")`,
	entity.SlotML:       `How much water in ml? (e.g., "500")`,
	entity.SlotMealType: "Which meal type? (Breakfast, Lunch, Dinner, Snack)",
	entity.SlotCalories: "How many calories? (number)",
	entity.SlotMood:     "Mood from 0-10? (number)",
	entity.SlotStress:   "Stress from 0-10? (number)",
	entity.SlotText:     "What should the journal entry say?",
	entity.SlotSymptom:  `Which symptom name? (e.g., "Headache")`,
	entity.SlotSeverity: "Severity from 0-10? (number)",
	entity.SlotLabel:    "What should the reminder label be?",
	entity.SlotTime:     "What time? (HH:MM, 24h)",
	entity.SlotActive:   "Should it be active? (yes/no)",
}

// Prompt returns the question asked when slot is the next one missing.
func Prompt(slot entity.Slot) string {
	if p, ok := slotPrompts[slot]; ok {
		return p
	}
	return fmt.Sprintf("Please provide %s.", slot)
}

// ConfirmText renders the confirmation question for a complete pending action.
func ConfirmText(p *Pending) string {
	s := func(slot entity.Slot) string { return p.Slots[slot].String() }
	domain := func() string { return entity.Domain(s(entity.SlotDomain)).Title() }

	switch p.Intent {
	case intent.Navigate:
		return fmt.Sprintf("Confirm: open %s now?", domain())
	case intent.ExportPDF:
		return fmt.Sprintf("Confirm: export your %s summary as a PDF now?", domain())
	case intent.AddWorkout:
		return fmt.Sprintf(`Confirm: add workout "%s" for %s minutes on %s?`, s(entity.SlotType), s(entity.SlotMinutes), s(entity.SlotDate))
	case intent.AddWater:
		return fmt.Sprintf("Confirm: log %s ml of water on %s?", s(entity.SlotML), s(entity.SlotDate))
	case intent.AddMeal:
		return fmt.Sprintf("Confirm: add %s with %s calories on %s?", s(entity.SlotMealType), s(entity.SlotCalories), s(entity.SlotDate))
	case intent.AddMood:
		return fmt.Sprintf("Confirm: log mood %s/10 and stress %s/10 on %s?", s(entity.SlotMood), s(entity.SlotStress), s(entity.SlotDate))
	case intent.AddJournal:
		return fmt.Sprintf("Confirm: save this journal entry for %s?", s(entity.SlotDate))
	case intent.AddSymptom:
		return fmt.Sprintf(`Confirm: log symptom "%s" severity %s/10 on %s?`, s(entity.SlotSymptom), s(entity.SlotSeverity), s(entity.SlotDate))
	case intent.AddReminder:
		state := "inactive"
		if active, _ := p.Slots.FlagOf(entity.SlotActive); active {
			state = "active"
		}
		return fmt.Sprintf(`Confirm: create reminder "%s" at %s (%s)?`, s(entity.SlotLabel), s(entity.SlotTime), state)
	case intent.ToggleReminder:
		return fmt.Sprintf(`Confirm: toggle reminder "%s"?`, s(entity.SlotLabel))
	case intent.MarkReminderDone:
		return fmt.Sprintf(`Confirm: mark reminder "%s" done for today?`, s(entity.SlotLabel))
	case intent.FillLogin:
		return `I can fill the visible Login form fields (email + password) from your message, e.g. "fill login, email: you@x.com, password: 123456". Nothing is submitted. Want to proceed?`
	case intent.FillRegister:
		return `I can fill the visible Register form fields (name, email, password) from your message, e.g. "fill register, name: Sam, email: sam@x.com, password: 123456". Nothing is submitted. Want to proceed?`
	}
	return "Confirm this action?"
}
