package action

import (
	stderrors "errors"
	"strings"

	"github.com/hpungsan/healthyfy/internal/dialogue"
	"github.com/hpungsan/healthyfy/internal/entity"
	"github.com/hpungsan/healthyfy/internal/intent"
)

// User is the signed-in user, if any.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Verdict is the guard decision. Reason is user-facing.
type Verdict struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

const (
	ReasonNoAction     = "No action."
	ReasonLoginFirst   = "Please login first so I can access your local data."
	ReasonChooseDomain = "Please choose Fitness, Nutrition, Mental, or Chronic."
	ReasonWhichLabel   = "Which reminder label should I use?"
)

var missingNoun = map[intent.Intent]string{
	intent.AddWorkout:  "workout",
	intent.AddWater:    "water",
	intent.AddMeal:     "meal",
	intent.AddMood:     "mood",
	intent.AddJournal:  "journal",
	intent.AddSymptom:  "symptom",
	intent.AddReminder: "reminder",
}

func deny(reason string) Verdict { return Verdict{Reason: reason} }

// CanExecute checks a pending action before it runs. Rules apply in order
// and the first failure wins.
func CanExecute(p *dialogue.Pending, user *User) Verdict {
	if p == nil || p.Intent == "" {
		return deny(ReasonNoAction)
	}

	switch p.Intent {
	case intent.Navigate, intent.FillLogin, intent.FillRegister:
	default:
		if user == nil || strings.TrimSpace(user.ID) == "" {
			return deny(ReasonLoginFirst)
		}
	}

	if p.Intent == intent.ExportPDF {
		d, _ := p.Slots.TextOf(entity.SlotDomain)
		if !entity.Domain(d).IsContent() {
			return deny(ReasonChooseDomain)
		}
	}

	if p.Intent.IsMutation() {
		var missing *MissingSlotError
		if _, err := FromPending(p); stderrors.As(err, &missing) {
			return deny("Missing " + missingNoun[p.Intent] + " details.")
		}
	}

	if p.Intent == intent.ToggleReminder || p.Intent == intent.MarkReminderDone {
		label, _ := p.Slots.TextOf(entity.SlotLabel)
		if strings.TrimSpace(label) == "" {
			return deny(ReasonWhichLabel)
		}
	}

	return Verdict{OK: true}
}
