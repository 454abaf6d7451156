// Package session runs conversation turns: one user message in, one
// assistant reply out, with state and transcript persisted between turns.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/hpungsan/healthyfy/internal/action"
	"github.com/hpungsan/healthyfy/internal/dialogue"
	"github.com/hpungsan/healthyfy/internal/errors"
	"github.com/hpungsan/healthyfy/internal/logging"
	"github.com/hpungsan/healthyfy/internal/remote"
	"github.com/hpungsan/healthyfy/internal/transcript"
)

// DefaultID is the session used when callers do not name one.
const DefaultID = "default"

const (
	guardFallbackMessage = "I can't do that right now."
	doneMessage          = "Done."
	failedMessage        = "Something went wrong."
)

// Store persists conversation state and transcript.
type Store interface {
	LoadState(ctx context.Context, sessionID string) (dialogue.State, bool, error)
	SaveTurn(ctx context.Context, sessionID string, st dialogue.State, msgs ...transcript.Message) error
	Messages(ctx context.Context, sessionID string) ([]transcript.Message, error)
	DeleteSession(ctx context.Context, sessionID string) (bool, error)
}

// Executor runs a confirmed pending action.
type Executor interface {
	Execute(ctx context.Context, p *dialogue.Pending, env action.Env) action.Outcome
}

// Options are the optional collaborators of a Manager.
type Options struct {
	// Remote answers idle messages the local intents do not cover.
	Remote remote.Client
	// Navigator supplies the visible route for the remote user context.
	Navigator action.Navigator
	Logger    *zap.Logger
	Now       func() time.Time
}

// Manager serializes turns per session. A turn that arrives while another
// is running fails with SESSION_BUSY instead of queueing.
type Manager struct {
	store  Store
	exec   Executor
	remote remote.Client
	nav    action.Navigator
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	gates map[string]*semaphore.Weighted
}

func NewManager(store Store, exec Executor, opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:  store,
		exec:   exec,
		remote: opts.Remote,
		nav:    opts.Navigator,
		logger: logging.OrNop(opts.Logger),
		now:    now,
		gates:  make(map[string]*semaphore.Weighted),
	}
}

// acquire takes the session's gate. Gates live in the map only while held,
// so idle sessions cost nothing.
func (m *Manager) acquire(sessionID string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.gates[sessionID]
	if !ok {
		g = semaphore.NewWeighted(1)
		m.gates[sessionID] = g
	}
	if !g.TryAcquire(1) {
		return nil, errors.NewSessionBusy(sessionID)
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		g.Release(1)
		delete(m.gates, sessionID)
	}, nil
}

// NormalizeID trims id and defaults it to DefaultID.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultID
	}
	return id
}

type TurnInput struct {
	SessionID string
	Text      string
	User      *action.User
}

type TurnResult struct {
	SessionID string               `json:"session_id"`
	Reply     transcript.Message   `json:"reply"`
	State     dialogue.State       `json:"state"`
	Outcome   *action.Outcome      `json:"outcome,omitempty"`
	Verdict   *action.Verdict      `json:"verdict,omitempty"`
	Messages  []transcript.Message `json:"messages"`
}

// Send runs one turn.
func (m *Manager) Send(ctx context.Context, in TurnInput) (*TurnResult, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, errors.NewInvalidRequest("message is required")
	}
	sessionID := NormalizeID(in.SessionID)

	release, err := m.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	prev, _, err := m.store.LoadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	history, err := m.store.Messages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	var added []transcript.Message
	if len(history) == 0 {
		added = append(added, transcript.Welcome(now))
	}
	added = append(added, transcript.NewMessage(transcript.RoleUser, text, nil, now))

	step := dialogue.StepAt(prev, text, now)
	res := &TurnResult{SessionID: sessionID}
	log := m.logger.With(
		zap.String("session", sessionID),
		zap.String("from", string(prev.Mode)),
		zap.String("result", string(step.Type)),
	)

	var (
		replyText string
		chips     []transcript.Chip
	)
	switch {
	case step.Type == dialogue.ResultExecute:
		res.State = dialogue.Idle()
		verdict := action.CanExecute(step.Pending, in.User)
		if !verdict.OK {
			res.Verdict = &verdict
			replyText = verdict.Reason
			if replyText == "" {
				replyText = guardFallbackMessage
			}
			log.Info("action rejected", zap.String("intent", string(step.Pending.Intent)), zap.String("reason", verdict.Reason))
			break
		}
		// Leave confirming before running, so a failed save below cannot
		// turn a retried "yes" into a second execution.
		if err := m.store.SaveTurn(ctx, sessionID, res.State, added...); err != nil {
			return nil, err
		}
		res.Messages, added = added, nil

		out := m.exec.Execute(ctx, step.Pending, action.Env{
			User:         in.User,
			LastUserText: lastUserText(history),
		})
		res.Outcome = &out
		replyText = out.Message
		if replyText == "" {
			replyText = failedMessage
			if out.OK {
				replyText = doneMessage
			}
		}
		chips = transcript.SuggestionsFor(dialogue.ModeIdle)
		log.Info("action executed", zap.String("intent", string(step.Pending.Intent)), zap.Bool("ok", out.OK))

	case step.Fallback && m.remote != nil:
		res.State = dialogue.Idle()
		replyText = m.askRemote(ctx, text, step.Message, in.User, log)
		chips = transcript.SuggestionsFor(dialogue.ModeIdle)

	default:
		res.State = step.Next
		replyText = step.Message
		chips = transcript.SuggestionsFor(step.Next.Mode)
	}

	res.Reply = transcript.NewMessage(transcript.RoleAssistant, replyText, chips, m.now())
	added = append(added, res.Reply)
	res.Messages = append(res.Messages, added...)

	// The turn has happened even if the caller went away.
	if err := m.store.SaveTurn(context.WithoutCancel(ctx), sessionID, res.State, added...); err != nil {
		return nil, err
	}
	log.Debug("turn saved", zap.String("to", string(res.State.Mode)))
	return res, nil
}

// lastUserText is the most recent user message before the current turn.
func lastUserText(history []transcript.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == transcript.RoleUser {
			return history[i].Text
		}
	}
	return ""
}

func (m *Manager) askRemote(ctx context.Context, text, local string, user *action.User, log *zap.Logger) string {
	route := ""
	if m.nav != nil {
		if r, err := m.nav.CurrentRoute(ctx); err == nil {
			route = r
		}
	}
	reply, err := m.remote.SendChat(ctx, remote.ChatRequest{
		Message:     text,
		UserContext: remote.NewUserContext(user, route),
	})
	if err != nil {
		log.Warn("remote chat failed", zap.Error(err))
		return local + "\n\n(Backend unavailable: " + err.Error() + ")"
	}
	if strings.TrimSpace(reply.Reply) == "" {
		return local
	}
	return reply.Reply
}

// Snapshot is a session's current state and transcript.
type Snapshot struct {
	SessionID string               `json:"session_id"`
	State     dialogue.State       `json:"state"`
	Messages  []transcript.Message `json:"messages"`
	Chips     []transcript.Chip    `json:"chips"`
	// Persisted is false for a session that has never had a turn.
	Persisted bool `json:"persisted"`
}

// Get returns the session. A session never used has the welcome message
// only, which is not persisted until the first turn.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Snapshot, error) {
	sessionID = NormalizeID(sessionID)
	st, persisted, err := m.store.LoadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	msgs, err := m.store.Messages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		msgs = []transcript.Message{transcript.Welcome(m.now())}
	}
	return &Snapshot{
		SessionID: sessionID,
		State:     st,
		Messages:  msgs,
		Chips:     transcript.SuggestionsFor(st.Mode),
		Persisted: persisted,
	}, nil
}

// Reset clears state and transcript. It waits for no one: a running turn
// makes it fail with SESSION_BUSY.
func (m *Manager) Reset(ctx context.Context, sessionID string) (bool, error) {
	sessionID = NormalizeID(sessionID)
	release, err := m.acquire(sessionID)
	if err != nil {
		return false, err
	}
	defer release()

	existed, err := m.store.DeleteSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	m.logger.Info("session reset", zap.String("session", sessionID), zap.Bool("existed", existed))
	return existed, nil
}

// Transcript returns the session as an exportable transcript.
func (m *Manager) Transcript(ctx context.Context, sessionID string) (transcript.Transcript, error) {
	snap, err := m.Get(ctx, sessionID)
	if err != nil {
		return transcript.Transcript{}, err
	}
	return transcript.Transcript{
		SessionID:  snap.SessionID,
		ExportedAt: m.now().UTC().Format(time.RFC3339),
		Messages:   snap.Messages,
	}, nil
}
