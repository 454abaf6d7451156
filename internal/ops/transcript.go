package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/healthyfy/internal/config"
	"github.com/hpungsan/healthyfy/internal/session"
	"github.com/hpungsan/healthyfy/internal/transcript"
)

// TranscriptInput contains parameters for the Transcript operation.
type TranscriptInput struct {
	SessionID string
	Format    string // json (default), yaml or markdown
	Path      string // optional, default: <exports dir>/<session>-<timestamp>.<ext>
	// Inline returns the rendered transcript instead of writing a file.
	Inline bool
}

// TranscriptOutput contains the result of the Transcript operation.
type TranscriptOutput struct {
	SessionID string `json:"session_id"`
	Format    string `json:"format"`
	Path      string `json:"path,omitempty"`
	Content   string `json:"content,omitempty"`
	Messages  int    `json:"messages"`
}

// Transcript exports a session's conversation.
func Transcript(ctx context.Context, m *session.Manager, cfg *config.Config, input TranscriptInput) (*TranscriptOutput, error) {
	format, err := transcript.ParseFormat(input.Format)
	if err != nil {
		return nil, err
	}
	t, err := m.Transcript(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	out := &TranscriptOutput{
		SessionID: t.SessionID,
		Format:    string(format),
		Messages:  len(t.Messages),
	}

	if input.Inline {
		var b strings.Builder
		if err := transcript.Render(&b, format, t); err != nil {
			return nil, err
		}
		out.Content = b.String()
		return out, nil
	}

	path, err := transcript.Export(ctx, PolicyFrom(cfg), input.Path, format, t)
	if err != nil {
		return nil, err
	}
	out.Path = path
	return out, nil
}
