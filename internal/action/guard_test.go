package action

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/healthyfy/internal/dialogue"
	"github.com/hpungsan/healthyfy/internal/entity"
	"github.com/hpungsan/healthyfy/internal/intent"
)

var (
	fixedNow = time.Date(2025, 12, 27, 9, 30, 0, 0, time.Local)
	alice    = &User{ID: "u_alice", Email: "alice@example.com", DisplayName: "Alice"}
)

func pendingFor(t *testing.T, text string) *dialogue.Pending {
	t.Helper()
	c := intent.ClassifyAt(text, fixedNow)
	return dialogue.NewPending(c.Intent, c.Entities)
}

func TestCanExecute(t *testing.T) {
	tests := []struct {
		name    string
		pending *dialogue.Pending
		user    *User
		want    Verdict
	}{
		{
			name: "nil pending",
			want: Verdict{Reason: ReasonNoAction},
		},
		{
			name:    "mutation without user",
			pending: pendingFor(t, "add mood 5 stress 3 today"),
			want:    Verdict{Reason: ReasonLoginFirst},
		},
		{
			name:    "blank user id counts as signed out",
			pending: pendingFor(t, "log water 500 ml today"),
			user:    &User{ID: "  "},
			want:    Verdict{Reason: ReasonLoginFirst},
		},
		{
			name:    "navigate without user",
			pending: pendingFor(t, "go to nutrition"),
			want:    Verdict{OK: true},
		},
		{
			name:    "fill login without user",
			pending: dialogue.NewPending(intent.FillLogin, nil),
			want:    Verdict{OK: true},
		},
		{
			name:    "export dashboard",
			pending: dialogue.NewPending(intent.ExportPDF, entity.Bag{entity.SlotDomain: entity.Text("dashboard")}),
			user:    alice,
			want:    Verdict{Reason: ReasonChooseDomain},
		},
		{
			name:    "export fitness",
			pending: dialogue.NewPending(intent.ExportPDF, entity.Bag{entity.SlotDomain: entity.Text("fitness")}),
			user:    alice,
			want:    Verdict{OK: true},
		},
		{
			name:    "incomplete mood",
			pending: dialogue.NewPending(intent.AddMood, entity.Bag{entity.SlotMood: entity.Number(5)}),
			user:    alice,
			want:    Verdict{Reason: "Missing mood details."},
		},
		{
			name:    "complete mood",
			pending: pendingFor(t, "add mood 5 stress 3 today"),
			user:    alice,
			want:    Verdict{OK: true},
		},
		{
			name:    "toggle without label",
			pending: dialogue.NewPending(intent.ToggleReminder, entity.Bag{entity.SlotLabel: entity.Text(" ")}),
			user:    alice,
			want:    Verdict{Reason: ReasonWhichLabel},
		},
		{
			name:    "mark done with label",
			pending: dialogue.NewPending(intent.MarkReminderDone, entity.Bag{entity.SlotLabel: entity.Text("Drink")}),
			user:    alice,
			want:    Verdict{OK: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CanExecute(tt.pending, tt.user))
		})
	}
}

func TestFromPending(t *testing.T) {
	t.Run("typed workout", func(t *testing.T) {
		a, err := FromPending(pendingFor(t, "add workout, type: Running, minutes: 30, date: 2025-12-20"))
		require.NoError(t, err)
		require.Equal(t, AddWorkout{Date: "2025-12-20", Type: "Running", Minutes: 30}, a)
	})

	t.Run("navigate without domain", func(t *testing.T) {
		a, err := FromPending(dialogue.NewPending(intent.Navigate, nil))
		require.NoError(t, err)
		require.Equal(t, Navigate{}, a)
	})

	t.Run("missing slot", func(t *testing.T) {
		_, err := FromPending(dialogue.NewPending(intent.AddWater, entity.Bag{entity.SlotDate: entity.Text("2025-12-27")}))
		var missing *MissingSlotError
		require.ErrorAs(t, err, &missing)
		require.Equal(t, entity.SlotML, missing.Slot)
	})

	t.Run("mistyped slot", func(t *testing.T) {
		_, err := FromPending(dialogue.NewPending(intent.AddWater, entity.Bag{
			entity.SlotDate: entity.Text("2025-12-27"),
			entity.SlotML:   entity.Text("lots"),
		}))
		var missing *MissingSlotError
		require.ErrorAs(t, err, &missing)
		require.Equal(t, entity.SlotML, missing.Slot)
	})

	t.Run("meta intent", func(t *testing.T) {
		_, err := FromPending(dialogue.NewPending(intent.Help, nil))
		require.True(t, errors.Is(err, ErrUnsupported))
	})

	t.Run("fill register", func(t *testing.T) {
		a, err := FromPending(dialogue.NewPending(intent.FillRegister, nil))
		require.NoError(t, err)
		require.Equal(t, intent.FillRegister, a.Intent())
	})
}
