package action

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/healthyfy/internal/dialogue"
	"github.com/hpungsan/healthyfy/internal/entity"
	"github.com/hpungsan/healthyfy/internal/report"
	"github.com/hpungsan/healthyfy/internal/wellness"
)

// DataStore persists per-owner collections.
type DataStore interface {
	LoadCollection(ctx context.Context, ownerID, name string) ([]wellness.Record, error)
	SaveCollection(ctx context.Context, ownerID, name string, items []wellness.Record) error
	// AppendRecord prepends rec and returns the new collection.
	AppendRecord(ctx context.Context, ownerID, name string, rec wellness.Record) ([]wellness.Record, error)
}

// Navigator moves the visible app to a route.
type Navigator interface {
	Navigate(ctx context.Context, route string) error
	CurrentRoute(ctx context.Context) (string, error)
}

// Exporter writes a domain export and returns where it went.
type Exporter interface {
	ExportPDF(ctx context.Context, doc report.Document) (string, error)
}

// Summarizer produces insight bullets for a content domain.
type Summarizer interface {
	Summarize(d entity.Domain, primary, secondary []wellness.Record) []string
}

// FormFiller reads and writes inputs on the visible page.
type FormFiller interface {
	HasField(ctx context.Context, selector string) (bool, error)
	SetFieldValue(ctx context.Context, selector, value string) error
	// SaveFocus remembers the focused element; restore puts focus back.
	SaveFocus(ctx context.Context) (restore func(), err error)
}

// Env is the per-call context the executor needs beyond the action.
type Env struct {
	User *User
	// LastUserText is the user message that preceded the confirmation.
	LastUserText string
}

// Outcome is the user-facing result of an execution.
type Outcome struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	// Path is the written file for exports.
	Path string `json:"path,omitempty"`
}

func fail(msg string) Outcome { return Outcome{Message: msg} }

func succeed(msg string) Outcome { return Outcome{OK: true, Message: msg} }

// Routes maps domains to app routes.
var Routes = map[entity.Domain]string{
	entity.DomainDashboard: "/app/dashboard",
	entity.DomainFitness:   "/app/fitness",
	entity.DomainNutrition: "/app/nutrition",
	entity.DomainMental:    "/app/mental",
	entity.DomainChronic:   "/app/chronic",
	entity.DomainLogin:     "/login",
	entity.DomainRegister:  "/register",
}

// RouteFor returns the route for d, defaulting to the dashboard.
func RouteFor(d entity.Domain) string {
	if r, ok := Routes[d]; ok {
		return r
	}
	return Routes[entity.DomainDashboard]
}

// Executor runs confirmed actions. Nil collaborators make the matching
// actions fail with a message instead of panicking.
type Executor struct {
	Store      DataStore
	Navigator  Navigator
	Exporter   Exporter
	Summarizer Summarizer
	Forms      FormFiller
	Logger     *zap.Logger
	Now        func() time.Time
}

func (e *Executor) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Execute runs p. It never panics and never returns an error; every failure
// is reported in the Outcome.
func (e *Executor) Execute(ctx context.Context, p *dialogue.Pending, env Env) (out Outcome) {
	if p == nil || p.Intent == "" {
		return fail("Nothing to do.")
	}
	log := e.logger().With(zap.String("intent", string(p.Intent)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("action panicked", zap.Any("panic", r))
			out = fail("Sorry, something went wrong while doing that.")
		}
	}()

	a, err := FromPending(p)
	if err != nil {
		if stderrors.Is(err, ErrUnsupported) {
			return fail("Action not supported yet.")
		}
		return fail(err.Error())
	}

	out = e.run(ctx, a, env)
	if !out.OK {
		log.Info("action not completed", zap.String("message", out.Message))
	}
	return out
}

func (e *Executor) run(ctx context.Context, a Action, env Env) Outcome {
	switch a := a.(type) {
	case Navigate:
		return e.navigate(ctx, a)
	case ExportPDF:
		return e.export(ctx, a, env.User)
	case AddWorkout, AddWater, AddMeal, AddMood, AddJournal, AddSymptom, AddReminder:
		return e.add(ctx, a, env.User)
	case ToggleReminder:
		return e.toggleReminder(ctx, a, env.User)
	case MarkReminderDone:
		return e.markReminderDone(ctx, a, env.User)
	case FillForm:
		return e.fillForm(ctx, a, env.LastUserText)
	}
	return fail("Action not supported yet.")
}

// collaboratorFailed logs err and turns it into an outcome.
func (e *Executor) collaboratorFailed(what string, err error) Outcome {
	e.logger().Warn("collaborator failed", zap.String("step", what), zap.Error(err))
	return fail(fmt.Sprintf("Sorry, I could not %s: %v", what, err))
}

func ownerID(user *User) (string, bool) {
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return "", false
	}
	return user.ID, true
}

func domainTitle(d entity.Domain) string {
	if d == "" {
		return "Dashboard"
	}
	return d.Title()
}

func (e *Executor) navigate(ctx context.Context, a Navigate) Outcome {
	if e.Navigator == nil {
		return fail("Navigation is not available here.")
	}
	title := domainTitle(a.Domain)
	if err := e.Navigator.Navigate(ctx, RouteFor(a.Domain)); err != nil {
		return e.collaboratorFailed("open "+title, err)
	}
	return succeed(fmt.Sprintf("Opened %s.", title))
}

func (e *Executor) newID(prefix string) string {
	return prefix + "_" + strings.ToLower(ulid.Make().String())
}

func (e *Executor) stamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

// add builds the record for a create command and prepends it.
func (e *Executor) add(ctx context.Context, a Action, user *User) Outcome {
	if e.Store == nil {
		return fail("Data storage is not available here.")
	}
	owner, ok := ownerID(user)
	if !ok {
		return fail(ReasonLoginFirst)
	}
	created := e.stamp()

	var (
		collection string
		rec        wellness.Record
		done       string
	)
	switch a := a.(type) {
	case AddWorkout:
		collection, done = wellness.Workouts, "Workout added."
		typ := a.Type
		if typ == "" {
			typ = "Workout"
		}
		rec = wellness.Record{
			"id": e.newID("workout"), "date": a.Date, "minutes": a.Minutes, "type": typ,
			"intensity": "Moderate", "createdAt": created,
			"meta": map[string]any{"source": "ai-assistant"},
		}
	case AddWater:
		collection, done = wellness.Water, "Water log added."
		rec = wellness.Record{"id": e.newID("water"), "date": a.Date, "ml": a.ML, "createdAt": created}
	case AddMeal:
		collection, done = wellness.Meals, "Meal added."
		rec = wellness.Record{
			"id": e.newID("meal"), "date": a.Date, "mealType": a.MealType, "calories": a.Calories,
			"protein": 0, "carbs": 0, "fat": 0, "notes": a.Notes, "source": "ai-assistant",
			"createdAt": created, "updatedAt": created,
		}
	case AddMood:
		collection, done = wellness.Mood, "Mood log added."
		rec = wellness.Record{
			"id": e.newID("mood"), "date": a.Date, "mood": a.Mood, "stress": a.Stress,
			"notes": a.Notes, "createdAt": created,
		}
	case AddJournal:
		collection, done = wellness.Journals, "Journal entry saved."
		rec = wellness.Record{"id": e.newID("journal"), "date": a.Date, "text": a.Text, "createdAt": created}
	case AddSymptom:
		collection, done = wellness.Symptoms, "Symptom log added."
		rec = wellness.Record{
			"id": e.newID("symptom"), "date": a.Date, "symptom": a.Symptom, "severity": a.Severity,
			"notes": a.Notes, "createdAt": created,
		}
	case AddReminder:
		collection, done = wellness.Reminders, "Reminder created."
		rec = wellness.Record{
			"id": e.newID("reminder"), "label": a.Label, "time": a.Time, "active": a.Active,
			"completions": []string{}, "createdAt": created,
		}
	default:
		return fail("Action not supported yet.")
	}

	if _, err := e.Store.AppendRecord(ctx, owner, collection, rec); err != nil {
		return e.collaboratorFailed("save that entry", err)
	}
	e.logger().Debug("record appended", zap.String("collection", collection), zap.String("id", rec.ID()))
	return succeed(done)
}
