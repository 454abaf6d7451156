package action

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/healthyfy/internal/entity"
	"github.com/hpungsan/healthyfy/internal/report"
	"github.com/hpungsan/healthyfy/internal/wellness"
)

const recentLimit = 10

// listing describes how one collection is shown in an export.
type listing struct {
	countLabel string
	title      string
	empty      string
	line       func(wellness.Record) string
}

type domainExport struct {
	primary, secondary listing
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func withNotes(line string, r wellness.Record) string {
	if n := r.String("notes"); n != "" {
		return line + " - " + n
	}
	return line
}

var exports = map[entity.Domain]domainExport{
	entity.DomainFitness: {
		primary: listing{
			countLabel: "Workouts logged", title: "Recent workouts (up to 10)", empty: "No workouts logged yet.",
			line: func(r wellness.Record) string {
				minutes := r.String("minutes")
				if minutes == "" {
					minutes = orDefault(r.String("durationMin"), "0")
				}
				return fmt.Sprintf("%s - %s - %s min", r.Date(), orDefault(r.String("type"), "Workout"), minutes)
			},
		},
		secondary: listing{
			countLabel: "Habit check-ins", title: "Recent habit check-ins (up to 10)", empty: "No habit check-ins yet.",
			line: func(r wellness.Record) string {
				status := r.String("status")
				if status == "" {
					status = "done"
					if r.Has("done") && !r.Bool("done") {
						status = "not done"
					}
				}
				return fmt.Sprintf("%s - %s - %s", r.Date(), orDefault(r.String("habit"), "Habit"), status)
			},
		},
	},
	entity.DomainNutrition: {
		primary: listing{
			countLabel: "Meals logged", title: "Recent meals (up to 10)", empty: "No meals logged yet.",
			line: func(r wellness.Record) string {
				return withNotes(fmt.Sprintf("%s - %s - %s cal", r.Date(), orDefault(r.String("mealType"), "Meal"), orDefault(r.String("calories"), "0")), r)
			},
		},
		secondary: listing{
			countLabel: "Water logs", title: "Recent water logs (up to 10)", empty: "No water logs yet.",
			line: func(r wellness.Record) string {
				return fmt.Sprintf("%s - %s ml", r.Date(), orDefault(r.String("ml"), "0"))
			},
		},
	},
	entity.DomainMental: {
		primary: listing{
			countLabel: "Mood logs", title: "Recent mood logs (up to 10)", empty: "No mood logs yet.",
			line: func(r wellness.Record) string {
				return withNotes(fmt.Sprintf("%s - Mood %s/10", r.Date(), orDefault(r.String("mood"), "0")), r)
			},
		},
		secondary: listing{
			countLabel: "Journal entries", title: "Recent journal entries (up to 10)", empty: "No journal entries yet.",
			line: func(r wellness.Record) string {
				return fmt.Sprintf("%s - %s", r.Date(), truncate(r.String("text"), 120))
			},
		},
	},
	entity.DomainChronic: {
		primary: listing{
			countLabel: "Symptoms logged", title: "Recent symptoms (up to 10)", empty: "No symptoms logged yet.",
			line: func(r wellness.Record) string {
				return fmt.Sprintf("%s - %s - Severity %s/10", r.Date(), orDefault(r.String("symptom"), "Symptom"), orDefault(r.String("severity"), "0"))
			},
		},
		secondary: listing{
			countLabel: "Reminders", title: "Reminders (up to 10)", empty: "No reminders yet.",
			line: func(r wellness.Record) string {
				label := orDefault(r.String("label"), orDefault(r.String("title"), "Reminder"))
				line := fmt.Sprintf("%s - %s", label, r.String("time"))
				if r.Has("active") && !r.Bool("active") {
					line += " (off)"
				}
				return line
			},
		},
	},
}

// truncate cuts s to n runes and marks the cut.
func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "..."
}

func (l listing) recent(items []wellness.Record) report.Section {
	s := report.Section{Title: l.title}
	for i, r := range items {
		if i == recentLimit {
			break
		}
		s.Lines = append(s.Lines, l.line(r))
	}
	if len(s.Lines) == 0 {
		s.Lines = []string{l.empty}
	}
	return s
}

// BuildDocument assembles the export for a content domain.
func BuildDocument(d entity.Domain, user *User, generated time.Time, bullets []string, p, s []wellness.Record) report.Document {
	spec := exports[d]
	doc := report.Document{
		Domain:      d.Title(),
		GeneratedAt: generated.UTC().Format(time.RFC3339),
	}
	if user != nil {
		doc.User = report.Person{Name: user.DisplayName, Email: user.Email}
	}
	doc.Sections = []report.Section{
		{Title: "Domain summary", Lines: []string{
			fmt.Sprintf("%s: %d", spec.primary.countLabel, len(p)),
			fmt.Sprintf("%s: %d", spec.secondary.countLabel, len(s)),
		}},
		{Title: "Trends & insights (rule-based)", Lines: bullets},
		spec.primary.recent(p),
		spec.secondary.recent(s),
	}
	return doc
}

func (e *Executor) export(ctx context.Context, a ExportPDF, user *User) Outcome {
	if !a.Domain.IsContent() {
		return fail(ReasonChooseDomain)
	}
	owner, ok := ownerID(user)
	if !ok {
		return fail(ReasonLoginFirst)
	}
	if e.Store == nil || e.Exporter == nil {
		return fail("PDF export is not available here.")
	}

	primaryName, secondaryName, _ := wellness.DomainCollections(a.Domain)
	primary, err := e.Store.LoadCollection(ctx, owner, primaryName)
	if err != nil {
		return e.collaboratorFailed("load "+primaryName, err)
	}
	secondary, err := e.Store.LoadCollection(ctx, owner, secondaryName)
	if err != nil {
		return e.collaboratorFailed("load "+secondaryName, err)
	}

	var bullets []string
	if e.Summarizer != nil {
		bullets = e.Summarizer.Summarize(a.Domain, primary, secondary)
	}

	doc := BuildDocument(a.Domain, user, e.now(), bullets, primary, secondary)
	path, err := e.Exporter.ExportPDF(ctx, doc)
	if err != nil {
		return e.collaboratorFailed("export the PDF", err)
	}
	e.logger().Info("export written", zap.String("domain", string(a.Domain)), zap.String("path", path))

	msg := fmt.Sprintf("Export started for %s.", a.Domain.Title())
	if !e.onRoute(ctx, RouteFor(a.Domain)) {
		msg += " (You don't need to be on that page.)"
	}
	return Outcome{OK: true, Message: msg, Path: path}
}

// onRoute reports whether the visible route is under want. Without a
// navigator the user is never considered on the page.
func (e *Executor) onRoute(ctx context.Context, want string) bool {
	if e.Navigator == nil {
		return false
	}
	route, err := e.Navigator.CurrentRoute(ctx)
	if err != nil {
		e.logger().Debug("current route unavailable", zap.Error(err))
		return false
	}
	return strings.HasPrefix(route, want)
}
