package session

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hpungsan/healthyfy/internal/action"
	"github.com/hpungsan/healthyfy/internal/browser"
	"github.com/hpungsan/healthyfy/internal/db"
	"github.com/hpungsan/healthyfy/internal/dialogue"
	"github.com/hpungsan/healthyfy/internal/errors"
	"github.com/hpungsan/healthyfy/internal/intent"
	"github.com/hpungsan/healthyfy/internal/remote"
	"github.com/hpungsan/healthyfy/internal/transcript"
	"github.com/hpungsan/healthyfy/internal/wellness"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

var fixedNow = time.Date(2025, 12, 27, 9, 30, 0, 0, time.Local)

var alice = &action.User{ID: "u_alice", Email: "alice@example.com", DisplayName: "Alice"}

type memStore struct {
	mu     sync.Mutex
	states map[string]dialogue.State
	msgs   map[string][]transcript.Message
	err    error
	// failOn makes only the nth SaveTurn call fail with err.
	failOn int
	saves  int
}

func newMemStore() *memStore {
	return &memStore{states: map[string]dialogue.State{}, msgs: map[string][]transcript.Message{}}
}

func (s *memStore) LoadState(_ context.Context, id string) (dialogue.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	if !ok {
		return dialogue.Idle(), false, nil
	}
	return st, true, nil
}

func (s *memStore) SaveTurn(_ context.Context, id string, st dialogue.State, msgs ...transcript.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.err != nil && (s.failOn == 0 || s.failOn == s.saves) {
		return s.err
	}
	s.states[id] = st
	s.msgs[id] = append(s.msgs[id], msgs...)
	return nil
}

func (s *memStore) Messages(_ context.Context, id string) ([]transcript.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]transcript.Message{}, s.msgs[id]...), nil
}

func (s *memStore) DeleteSession(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.states[id]
	delete(s.states, id)
	delete(s.msgs, id)
	return ok, nil
}

type recordingExecutor struct {
	mu      sync.Mutex
	calls   []*dialogue.Pending
	envs    []action.Env
	outcome action.Outcome
	started chan struct{}
	block   chan struct{}
}

func (e *recordingExecutor) Execute(_ context.Context, p *dialogue.Pending, env action.Env) action.Outcome {
	e.mu.Lock()
	e.calls = append(e.calls, p)
	e.envs = append(e.envs, env)
	e.mu.Unlock()
	if e.started != nil {
		close(e.started)
	}
	if e.block != nil {
		<-e.block
	}
	return e.outcome
}

type fakeRemote struct {
	reply string
	err   error
	got   []remote.ChatRequest
}

func (r *fakeRemote) SendChat(_ context.Context, req remote.ChatRequest) (*remote.ChatReply, error) {
	r.got = append(r.got, req)
	if r.err != nil {
		return nil, r.err
	}
	return &remote.ChatReply{Reply: r.reply, Domain: "general"}, nil
}

func newManager(store Store, exec Executor, opts Options) *Manager {
	opts.Now = func() time.Time { return fixedNow }
	return NewManager(store, exec, opts)
}

func send(t *testing.T, m *Manager, text string) *TurnResult {
	t.Helper()
	res, err := m.Send(context.Background(), TurnInput{Text: text, User: alice})
	if err != nil {
		t.Fatalf("Send(%q) error = %v", text, err)
	}
	return res
}

func TestSend_FirstTurnAddsWelcome(t *testing.T) {
	store := newMemStore()
	m := newManager(store, &recordingExecutor{}, Options{})

	res := send(t, m, "log water 500 ml today")
	require.Equal(t, DefaultID, res.SessionID)
	require.Equal(t, dialogue.ModeConfirming, res.State.Mode)
	require.Equal(t, "Confirm: log 500 ml of water on 2025-12-27?", res.Reply.Text)
	require.Equal(t, transcript.SuggestionsFor(dialogue.ModeConfirming), res.Reply.Chips)

	msgs, _ := store.Messages(context.Background(), DefaultID)
	require.Len(t, msgs, 3)
	require.Equal(t, transcript.RoleAssistant, msgs[0].Role)
	require.Equal(t, transcript.Welcome(fixedNow).Text, msgs[0].Text)
	require.Equal(t, "log water 500 ml today", msgs[1].Text)

	send(t, m, "no")
	msgs, _ = store.Messages(context.Background(), DefaultID)
	require.Len(t, msgs, 5, "welcome is added once")
}

func TestSend_ExecutesConfirmedAction(t *testing.T) {
	store := newMemStore()
	exec := &recordingExecutor{outcome: action.Outcome{OK: true, Message: "Logged 500 ml of water."}}
	m := newManager(store, exec, Options{})

	send(t, m, "log water 500 ml today")
	res := send(t, m, "yes")

	require.Equal(t, dialogue.Idle(), res.State)
	require.Equal(t, "Logged 500 ml of water.", res.Reply.Text)
	require.NotNil(t, res.Outcome)
	require.True(t, res.Outcome.OK)
	require.Len(t, exec.calls, 1)
	require.Equal(t, intent.AddWater, exec.calls[0].Intent)
	require.Equal(t, "log water 500 ml today", exec.envs[0].LastUserText)
	require.Same(t, alice, exec.envs[0].User)

	st, _, _ := store.LoadState(context.Background(), DefaultID)
	require.Equal(t, dialogue.Idle(), st)
}

func TestSend_EmptyOutcomeMessage(t *testing.T) {
	for _, tc := range []struct {
		ok   bool
		want string
	}{
		{ok: true, want: doneMessage},
		{ok: false, want: failedMessage},
	} {
		m := newManager(newMemStore(), &recordingExecutor{outcome: action.Outcome{OK: tc.ok}}, Options{})
		send(t, m, "open dashboard")
		res := send(t, m, "yes")
		require.Equal(t, tc.want, res.Reply.Text)
	}
}

func TestSend_GuardRejects(t *testing.T) {
	exec := &recordingExecutor{}
	m := newManager(newMemStore(), exec, Options{})

	ctx := context.Background()
	_, err := m.Send(ctx, TurnInput{Text: "log water 500 ml today"})
	require.NoError(t, err)
	res, err := m.Send(ctx, TurnInput{Text: "yes"})
	require.NoError(t, err)

	require.Equal(t, action.ReasonLoginFirst, res.Reply.Text)
	require.NotNil(t, res.Verdict)
	require.False(t, res.Verdict.OK)
	require.Nil(t, res.Outcome)
	require.Empty(t, exec.calls)
	require.Equal(t, dialogue.Idle(), res.State, "state resets even when the guard says no")
}

func TestSend_Validation(t *testing.T) {
	m := newManager(newMemStore(), &recordingExecutor{}, Options{})
	_, err := m.Send(context.Background(), TurnInput{Text: "   "})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestSend_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.err = stderrors.New("disk full")
	m := newManager(store, &recordingExecutor{}, Options{})

	_, err := m.Send(context.Background(), TurnInput{Text: "help"})
	require.Error(t, err)
}

func TestSend_FailedSaveAfterExecuteDoesNotRepeat(t *testing.T) {
	store := newMemStore()
	exec := &recordingExecutor{outcome: action.Outcome{OK: true, Message: "Logged 500 ml of water."}}
	m := newManager(store, exec, Options{})
	ctx := context.Background()

	send(t, m, "log water 500 ml today")
	store.err, store.failOn = stderrors.New("disk full"), 3

	_, err := m.Send(ctx, TurnInput{Text: "yes", User: alice})
	require.Error(t, err)
	require.Len(t, exec.calls, 1)

	st, _, _ := store.LoadState(ctx, DefaultID)
	require.Equal(t, dialogue.Idle(), st)

	res := send(t, m, "yes")
	require.Len(t, exec.calls, 1, "a retried yes must not run the action again")
	require.Nil(t, res.Outcome)
}

func TestSend_FailedSaveBeforeExecuteKeepsConfirming(t *testing.T) {
	store := newMemStore()
	exec := &recordingExecutor{outcome: action.Outcome{OK: true, Message: "Opened Dashboard."}}
	m := newManager(store, exec, Options{})
	ctx := context.Background()

	send(t, m, "open dashboard")
	store.err, store.failOn = stderrors.New("disk full"), 2

	_, err := m.Send(ctx, TurnInput{Text: "yes", User: alice})
	require.Error(t, err)
	require.Empty(t, exec.calls)

	st, _, _ := store.LoadState(ctx, DefaultID)
	require.Equal(t, dialogue.ModeConfirming, st.Mode)

	res := send(t, m, "yes")
	require.Len(t, exec.calls, 1)
	require.Equal(t, "Opened Dashboard.", res.Reply.Text)

	msgs, _ := store.Messages(ctx, DefaultID)
	require.Len(t, msgs, 5)
	require.Equal(t, "yes", msgs[3].Text)
	require.Equal(t, res.Reply.ID, msgs[4].ID)
}

func gateCount(m *Manager) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.gates)
}

func TestManager_ReleasesIdleGates(t *testing.T) {
	m := newManager(newMemStore(), &recordingExecutor{}, Options{})
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := m.Send(ctx, TurnInput{SessionID: id, Text: "help"})
		require.NoError(t, err)
	}
	_, err := m.Reset(ctx, "a")
	require.NoError(t, err)

	require.Zero(t, gateCount(m))
}

func TestSend_Fallback(t *testing.T) {
	t.Run("remote reply", func(t *testing.T) {
		r := &fakeRemote{reply: "Try a short walk after lunch."}
		nav := browser.NewMemory("/app/fitness")
		m := newManager(newMemStore(), &recordingExecutor{}, Options{Remote: r, Navigator: nav})

		res := send(t, m, "how are you")
		require.Equal(t, "Try a short walk after lunch.", res.Reply.Text)
		require.Len(t, r.got, 1)
		require.Equal(t, "how are you", r.got[0].Message)
		require.Equal(t, "/app/fitness", r.got[0].UserContext.Route)
		require.Equal(t, "u_alice", *r.got[0].UserContext.UserID)
	})

	t.Run("remote failure keeps local hint", func(t *testing.T) {
		r := &fakeRemote{err: stderrors.New("connection refused")}
		m := newManager(newMemStore(), &recordingExecutor{}, Options{Remote: r})

		res := send(t, m, "how are you")
		require.Equal(t, dialogue.IdleHintMessage+"\n\n(Backend unavailable: connection refused)", res.Reply.Text)
	})

	t.Run("empty remote reply", func(t *testing.T) {
		m := newManager(newMemStore(), &recordingExecutor{}, Options{Remote: &fakeRemote{}})
		res := send(t, m, "how are you")
		require.Equal(t, dialogue.IdleHintMessage, res.Reply.Text)
	})

	t.Run("no remote", func(t *testing.T) {
		m := newManager(newMemStore(), &recordingExecutor{}, Options{})
		res := send(t, m, "how are you")
		require.Equal(t, dialogue.IdleHintMessage, res.Reply.Text)
	})

	t.Run("local intents skip the remote", func(t *testing.T) {
		r := &fakeRemote{reply: "unused"}
		m := newManager(newMemStore(), &recordingExecutor{}, Options{Remote: r})
		res := send(t, m, "help")
		require.Equal(t, dialogue.HelpMessage, res.Reply.Text)
		require.Empty(t, r.got)
	})
}

func TestSend_BusySession(t *testing.T) {
	exec := &recordingExecutor{
		outcome: action.Outcome{OK: true, Message: "ok"},
		started: make(chan struct{}),
		block:   make(chan struct{}),
	}
	m := newManager(newMemStore(), exec, Options{})
	send(t, m, "open dashboard")

	done := make(chan error, 1)
	go func() {
		_, err := m.Send(context.Background(), TurnInput{Text: "yes", User: alice})
		done <- err
	}()
	<-exec.started

	require.Equal(t, 1, gateCount(m))
	_, err := m.Send(context.Background(), TurnInput{Text: "help", User: alice})
	require.True(t, errors.Is(err, errors.ErrSessionBusy))

	_, err = m.Reset(context.Background(), DefaultID)
	require.True(t, errors.Is(err, errors.ErrSessionBusy))

	// other sessions are not blocked
	_, err = m.Send(context.Background(), TurnInput{SessionID: "other", Text: "help"})
	require.NoError(t, err)

	close(exec.block)
	require.NoError(t, <-done)
	require.Zero(t, gateCount(m))

	send(t, m, "help")
}

func TestGetAndReset(t *testing.T) {
	store := newMemStore()
	m := newManager(store, &recordingExecutor{}, Options{})
	ctx := context.Background()

	snap, err := m.Get(ctx, "")
	require.NoError(t, err)
	require.Equal(t, dialogue.Idle(), snap.State)
	require.Len(t, snap.Messages, 1, "unused session shows the welcome")
	require.Len(t, snap.Chips, 6)
	require.False(t, snap.Persisted)

	send(t, m, "add journal")
	snap, err = m.Get(ctx, DefaultID)
	require.NoError(t, err)
	require.Equal(t, dialogue.ModeCollecting, snap.State.Mode)
	require.Len(t, snap.Messages, 3)
	require.True(t, snap.Persisted)

	existed, err := m.Reset(ctx, " default ")
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = m.Reset(ctx, DefaultID)
	require.NoError(t, err)
	require.False(t, existed)

	snap, _ = m.Get(ctx, DefaultID)
	require.Equal(t, dialogue.Idle(), snap.State)
	require.Len(t, snap.Messages, 1)
}

func TestTranscript(t *testing.T) {
	m := newManager(newMemStore(), &recordingExecutor{}, Options{})
	send(t, m, "help")

	tr, err := m.Transcript(context.Background(), DefaultID)
	require.NoError(t, err)
	require.Equal(t, DefaultID, tr.SessionID)
	require.Equal(t, fixedNow.UTC().Format(time.RFC3339), tr.ExportedAt)
	require.Len(t, tr.Messages, 3)
	require.True(t, strings.Contains(transcript.Markdown(tr), "### You"))
}

// A full turn over SQLite with the real executor.
func TestSend_SQLiteEndToEnd(t *testing.T) {
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	store := db.NewStore(database)

	nav := browser.NewMemory("/app/dashboard")
	exec := &action.Executor{
		Store:     store,
		Navigator: nav,
		Now:       func() time.Time { return fixedNow },
	}
	m := newManager(store, exec, Options{Navigator: nav})

	send(t, m, "log water 500 ml today")
	res := send(t, m, "yes")
	require.True(t, res.Outcome.OK, res.Reply.Text)

	water, err := store.LoadCollection(context.Background(), alice.ID, wellness.Water)
	require.NoError(t, err)
	require.Len(t, water, 1)
	require.Equal(t, float64(500), water[0].Number("ml"))

	send(t, m, "open nutrition")
	send(t, m, "yes")
	route, _ := nav.CurrentRoute(context.Background())
	require.Equal(t, "/app/nutrition", route)

	msgs, err := store.Messages(context.Background(), DefaultID)
	require.NoError(t, err)
	require.Len(t, msgs, 9)
}
