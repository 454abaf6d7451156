package action

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hpungsan/healthyfy/internal/entity"
	"github.com/hpungsan/healthyfy/internal/wellness"
)

const noReminderMatch = "I could not find a matching reminder label."

// FindReminder returns the index of the reminder whose label equals label
// case-insensitively, else the first whose label contains it.
func FindReminder(reminders []wellness.Record, label string) (int, bool) {
	want := strings.ToLower(strings.TrimSpace(label))
	if want == "" {
		return -1, false
	}
	for i, r := range reminders {
		if strings.ToLower(strings.TrimSpace(r.String("label"))) == want {
			return i, true
		}
	}
	for i, r := range reminders {
		if strings.Contains(strings.ToLower(r.String("label")), want) {
			return i, true
		}
	}
	return -1, false
}

// updateReminder loads reminders, applies change to the match and saves the
// whole collection back.
func (e *Executor) updateReminder(ctx context.Context, user *User, label string, change func(wellness.Record) wellness.Record) (wellness.Record, Outcome, bool) {
	if e.Store == nil {
		return nil, fail("Data storage is not available here."), false
	}
	owner, ok := ownerID(user)
	if !ok {
		return nil, fail(ReasonLoginFirst), false
	}

	reminders, err := e.Store.LoadCollection(ctx, owner, wellness.Reminders)
	if err != nil {
		return nil, e.collaboratorFailed("load reminders", err), false
	}
	i, ok := FindReminder(reminders, label)
	if !ok {
		return nil, fail(noReminderMatch), false
	}

	next := slices.Clone(reminders)
	next[i] = change(reminders[i].Clone())
	if err := e.Store.SaveCollection(ctx, owner, wellness.Reminders, next); err != nil {
		return nil, e.collaboratorFailed("save reminders", err), false
	}
	return next[i], Outcome{}, true
}

func (e *Executor) toggleReminder(ctx context.Context, a ToggleReminder, user *User) Outcome {
	updated, out, ok := e.updateReminder(ctx, user, a.Label, func(r wellness.Record) wellness.Record {
		r["active"] = !r.Bool("active")
		return r
	})
	if !ok {
		return out
	}
	state := "inactive"
	if updated.Bool("active") {
		state = "active"
	}
	return succeed(fmt.Sprintf(`Reminder "%s" is now %s.`, updated.String("label"), state))
}

func (e *Executor) markReminderDone(ctx context.Context, a MarkReminderDone, user *User) Outcome {
	today := entity.ISODate(e.now())
	updated, out, ok := e.updateReminder(ctx, user, a.Label, func(r wellness.Record) wellness.Record {
		completions := r.Strings("completions")
		if !slices.Contains(completions, today) {
			r["completions"] = append([]string{today}, completions...)
		}
		return r
	})
	if !ok {
		return out
	}
	return succeed(fmt.Sprintf(`Marked "%s" done for today.`, updated.String("label")))
}
