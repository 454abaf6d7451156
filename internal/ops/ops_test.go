package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/healthyfy/internal/action"
	"github.com/hpungsan/healthyfy/internal/browser"
	"github.com/hpungsan/healthyfy/internal/config"
	"github.com/hpungsan/healthyfy/internal/db"
	"github.com/hpungsan/healthyfy/internal/dialogue"
	"github.com/hpungsan/healthyfy/internal/errors"
	"github.com/hpungsan/healthyfy/internal/session"
	"github.com/hpungsan/healthyfy/internal/wellness"
)

var alice = UserInput{UserID: "u_alice", Email: "alice@example.com", DisplayName: "Alice"}

func setup(t *testing.T) (*session.Manager, *db.Store) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := db.NewStore(database)
	nav := browser.NewMemory("/app/dashboard")
	exec := &action.Executor{Store: store, Navigator: nav}
	return session.NewManager(store, exec, session.Options{Navigator: nav}), store
}

func TestUserInput_User(t *testing.T) {
	if u := (UserInput{}).User(); u != nil {
		t.Errorf("empty UserInput.User() = %+v, want nil", u)
	}
	u := UserInput{UserID: " u1 ", Email: " a@b.co "}.User()
	if u == nil || u.ID != "u1" || u.Email != "a@b.co" {
		t.Errorf("User() = %+v, want trimmed id and email", u)
	}
}

func TestPage(t *testing.T) {
	tests := []struct {
		name          string
		limit, offset int
		n             int
		lo, hi        int
		want          Pagination
	}{
		{"defaults", 0, 0, 5, 0, 5, Pagination{Limit: 20, Offset: 0, HasMore: false, Total: 5}},
		{"more", 2, 0, 5, 0, 2, Pagination{Limit: 2, Offset: 0, HasMore: true, Total: 5}},
		{"tail", 2, 4, 5, 4, 5, Pagination{Limit: 2, Offset: 4, HasMore: false, Total: 5}},
		{"past end", 10, 50, 5, 5, 5, Pagination{Limit: 10, Offset: 50, HasMore: false, Total: 5}},
		{"clamped", 1000, -3, 0, 0, 0, Pagination{Limit: 100, Offset: 0, HasMore: false, Total: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi, p := page(tt.limit, tt.offset, tt.n)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("window = [%d:%d], want [%d:%d]", lo, hi, tt.lo, tt.hi)
			}
			if p != tt.want {
				t.Errorf("pagination = %+v, want %+v", p, tt.want)
			}
		})
	}
}

func TestSend_Workflow(t *testing.T) {
	m, store := setup(t)
	ctx := context.Background()

	out, err := Send(ctx, m, SendInput{Message: "log water 500 ml today", User: alice})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if out.Mode != dialogue.ModeConfirming {
		t.Errorf("Mode = %q, want confirming", out.Mode)
	}
	if out.Pending == nil {
		t.Fatal("Pending = nil while confirming")
	}
	if len(out.Chips) != 2 {
		t.Errorf("len(Chips) = %d, want yes/no", len(out.Chips))
	}

	out, err = Send(ctx, m, SendInput{Message: "yes", User: alice})
	if err != nil {
		t.Fatalf("Send(yes) failed: %v", err)
	}
	if out.Outcome == nil || !out.Outcome.OK {
		t.Fatalf("Outcome = %+v, want OK", out.Outcome)
	}
	if out.Mode != dialogue.ModeIdle || out.Pending != nil {
		t.Errorf("after execute: mode %q pending %v, want idle", out.Mode, out.Pending)
	}

	list, err := ListCollection(ctx, store, ListCollectionInput{OwnerID: alice.UserID, Name: wellness.Water})
	if err != nil {
		t.Fatalf("ListCollection failed: %v", err)
	}
	if len(list.Items) != 1 || list.Pagination.Total != 1 {
		t.Errorf("items = %d total = %d, want 1", len(list.Items), list.Pagination.Total)
	}
}

func TestSend_Rejected(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()

	if _, err := Send(ctx, m, SendInput{Message: "log water 500 ml today"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	out, err := Send(ctx, m, SendInput{Message: "yes"})
	if err != nil {
		t.Fatalf("Send(yes) failed: %v", err)
	}
	if out.Rejected != action.ReasonLoginFirst {
		t.Errorf("Rejected = %q, want %q", out.Rejected, action.ReasonLoginFirst)
	}
	if out.Reply != action.ReasonLoginFirst {
		t.Errorf("Reply = %q", out.Reply)
	}
}

func TestSend_MessageTooLong(t *testing.T) {
	m, _ := setup(t)
	_, err := Send(context.Background(), m, SendInput{Message: strings.Repeat("a", 4001)})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestStateAndReset(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()

	if _, err := Send(ctx, m, SendInput{SessionID: "s1", Message: "add workout"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	st, err := State(ctx, m, StateInput{SessionID: "s1", IncludeMessages: true})
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if st.Mode != dialogue.ModeCollecting {
		t.Errorf("Mode = %q, want collecting", st.Mode)
	}
	if st.Count != 3 || len(st.Messages) != 3 {
		t.Errorf("Count = %d, len(Messages) = %d, want 3", st.Count, len(st.Messages))
	}

	st, err = State(ctx, m, StateInput{SessionID: "s1"})
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if st.Messages != nil {
		t.Error("Messages returned without IncludeMessages")
	}

	rs, err := Reset(ctx, m, ResetInput{SessionID: "s1"})
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if !rs.Reset || rs.SessionID != "s1" {
		t.Errorf("Reset = %+v", rs)
	}

	st, _ = State(ctx, m, StateInput{SessionID: "s1"})
	if st.Mode != dialogue.ModeIdle || st.Count != 1 {
		t.Errorf("after reset: mode %q count %d, want idle with welcome", st.Mode, st.Count)
	}
}

func TestTranscript(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()
	exportDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ExportsDir = exportDir

	if _, err := Send(ctx, m, SendInput{Message: "help"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	t.Run("inline markdown", func(t *testing.T) {
		out, err := Transcript(ctx, m, cfg, TranscriptInput{Format: "md", Inline: true})
		if err != nil {
			t.Fatalf("Transcript failed: %v", err)
		}
		if out.Format != "markdown" || out.Path != "" {
			t.Errorf("out = %+v, want inline markdown", out)
		}
		if !strings.Contains(out.Content, "### You\n\nhelp") {
			t.Errorf("Content missing user turn:\n%s", out.Content)
		}
	})

	t.Run("default path", func(t *testing.T) {
		out, err := Transcript(ctx, m, cfg, TranscriptInput{Format: "yaml"})
		if err != nil {
			t.Fatalf("Transcript failed: %v", err)
		}
		if filepath.Dir(out.Path) != exportDir || filepath.Ext(out.Path) != ".yaml" {
			t.Errorf("Path = %q, want a .yaml file in %s", out.Path, exportDir)
		}
		data, err := os.ReadFile(out.Path)
		if err != nil {
			t.Fatalf("read export: %v", err)
		}
		if !strings.Contains(string(data), "session_id: default") {
			t.Errorf("export missing session id:\n%s", data)
		}
	})

	t.Run("path outside exports dir", func(t *testing.T) {
		_, err := Transcript(ctx, m, cfg, TranscriptInput{Path: filepath.Join(t.TempDir(), "x.json")})
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("err = %v, want INVALID_REQUEST", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Transcript(ctx, m, cfg, TranscriptInput{Format: "csv", Inline: true})
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("err = %v, want INVALID_REQUEST", err)
		}
	})
}

func TestListCollection_Errors(t *testing.T) {
	_, store := setup(t)
	ctx := context.Background()

	if _, err := ListCollection(ctx, store, ListCollectionInput{OwnerID: "u1"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("missing name: err = %v, want INVALID_REQUEST", err)
	}
	if _, err := ListCollection(ctx, store, ListCollectionInput{Name: wellness.Water}); !errors.Is(err, errors.ErrUnauthorized) {
		t.Errorf("missing owner: err = %v, want UNAUTHORIZED", err)
	}
}

func TestListCollection_Paginates(t *testing.T) {
	_, store := setup(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.AppendRecord(ctx, "u1", wellness.Mood, wellness.Record{"id": id}); err != nil {
			t.Fatalf("AppendRecord failed: %v", err)
		}
	}

	out, err := ListCollection(ctx, store, ListCollectionInput{OwnerID: "u1", Name: wellness.Mood, Limit: 2})
	if err != nil {
		t.Fatalf("ListCollection failed: %v", err)
	}
	if len(out.Items) != 2 || out.Items[0].ID() != "c" || !out.Pagination.HasMore {
		t.Errorf("first page = %v %+v", out.Items, out.Pagination)
	}
}

func TestListSessions(t *testing.T) {
	m, store := setup(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		if _, err := Send(ctx, m, SendInput{SessionID: id, Message: "help"}); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}

	out, err := ListSessions(ctx, store, ListSessionsInput{})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if out.Pagination.Total != 2 || len(out.Items) != 2 {
		t.Errorf("sessions = %+v", out)
	}
	for _, s := range out.Items {
		if s.Messages != 3 {
			t.Errorf("session %s has %d messages, want 3", s.SessionID, s.Messages)
		}
	}
}

func TestCollections(t *testing.T) {
	out := Collections()
	if len(out.Names) != len(wellness.Collections) {
		t.Errorf("len(Names) = %d", len(out.Names))
	}
	out.Names[0] = "mutated"
	if wellness.Collections[0] == "mutated" {
		t.Error("Collections() shares the package slice")
	}
}
