package ops

import (
	"context"

	"github.com/hpungsan/healthyfy/internal/action"
	"github.com/hpungsan/healthyfy/internal/dialogue"
	"github.com/hpungsan/healthyfy/internal/errors"
	"github.com/hpungsan/healthyfy/internal/remote"
	"github.com/hpungsan/healthyfy/internal/session"
	"github.com/hpungsan/healthyfy/internal/transcript"
)

// SendInput contains parameters for the Send operation.
type SendInput struct {
	SessionID string // optional, defaults to "default"
	Message   string // required, at most remote.MaxMessageLen bytes
	User      UserInput
}

// SendOutput contains the result of the Send operation.
type SendOutput struct {
	SessionID string            `json:"session_id"`
	Reply     string            `json:"reply"`
	Chips     []transcript.Chip `json:"chips"`
	Mode      dialogue.Mode     `json:"mode"`
	Pending   *dialogue.Pending `json:"pending,omitempty"`
	Outcome   *action.Outcome   `json:"outcome,omitempty"`
	Rejected  string            `json:"rejected,omitempty"`
}

// Send runs one conversation turn.
func Send(ctx context.Context, m *session.Manager, input SendInput) (*SendOutput, error) {
	if len(input.Message) > remote.MaxMessageLen {
		return nil, errors.NewInvalidRequest("message exceeds 4000 characters")
	}

	res, err := m.Send(ctx, session.TurnInput{
		SessionID: input.SessionID,
		Text:      input.Message,
		User:      input.User.User(),
	})
	if err != nil {
		return nil, err
	}

	out := &SendOutput{
		SessionID: res.SessionID,
		Reply:     res.Reply.Text,
		Chips:     res.Reply.Chips,
		Mode:      res.State.Mode,
		Pending:   res.State.Pending,
		Outcome:   res.Outcome,
	}
	if out.Chips == nil {
		out.Chips = []transcript.Chip{}
	}
	if res.Verdict != nil {
		out.Rejected = res.Verdict.Reason
	}
	return out, nil
}

// StateInput contains parameters for the State operation.
type StateInput struct {
	SessionID string
	// IncludeMessages returns the full transcript alongside the state.
	IncludeMessages bool
}

// StateOutput contains the result of the State operation.
type StateOutput struct {
	SessionID string               `json:"session_id"`
	Mode      dialogue.Mode        `json:"mode"`
	Pending   *dialogue.Pending    `json:"pending,omitempty"`
	Chips     []transcript.Chip    `json:"chips"`
	Count     int                  `json:"message_count"`
	Messages  []transcript.Message `json:"messages,omitempty"`
}

// State returns the conversation state of a session.
func State(ctx context.Context, m *session.Manager, input StateInput) (*StateOutput, error) {
	snap, err := m.Get(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	out := &StateOutput{
		SessionID: snap.SessionID,
		Mode:      snap.State.Mode,
		Pending:   snap.State.Pending,
		Chips:     snap.Chips,
		Count:     len(snap.Messages),
	}
	if input.IncludeMessages {
		out.Messages = snap.Messages
	}
	return out, nil
}

// ResetInput contains parameters for the Reset operation.
type ResetInput struct {
	SessionID string
}

// ResetOutput contains the result of the Reset operation.
type ResetOutput struct {
	SessionID string `json:"session_id"`
	Reset     bool   `json:"reset"`
}

// Reset clears a session's state and transcript.
func Reset(ctx context.Context, m *session.Manager, input ResetInput) (*ResetOutput, error) {
	id := session.NormalizeID(input.SessionID)
	existed, err := m.Reset(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ResetOutput{SessionID: id, Reset: existed}, nil
}
