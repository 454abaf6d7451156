package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hpungsan/healthyfy/internal/dialogue"
	"github.com/hpungsan/healthyfy/internal/errors"
	"github.com/hpungsan/healthyfy/internal/report"
)

var fixedNow = time.Date(2025, 12, 27, 9, 30, 0, 0, time.UTC)

func sample() Transcript {
	return Transcript{
		SessionID:  "default",
		ExportedAt: fixedNow.Format(time.RFC3339),
		Messages: []Message{
			Welcome(fixedNow),
			NewMessage(RoleUser, "log water 500 ml today", nil, fixedNow),
			NewMessage(RoleAssistant, "Log water: 500 ml on 2025-12-27. Save it?", SuggestionsFor(dialogue.ModeConfirming), fixedNow),
		},
	}
}

func TestNewMessage(t *testing.T) {
	a := NewMessage(RoleUser, "hi", nil, fixedNow)
	b := NewMessage(RoleUser, "hi", nil, fixedNow)
	require.True(t, strings.HasPrefix(a.ID, "m_"))
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, "2025-12-27T09:30:00Z", a.CreatedAt)
}

func TestSuggestionsFor(t *testing.T) {
	require.Equal(t, []Chip{{"Yes", "yes"}, {"No", "no"}}, SuggestionsFor(dialogue.ModeConfirming))
	idle := SuggestionsFor(dialogue.ModeIdle)
	require.Len(t, idle, 6)
	require.Equal(t, idle, SuggestionsFor(dialogue.ModeCollecting))

	idle[0].Label = "changed"
	require.Equal(t, "Open dashboard", SuggestionsFor(dialogue.ModeIdle)[0].Label)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "md": FormatMarkdown} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestRender(t *testing.T) {
	tr := sample()

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, FormatJSON, tr))
		var back Transcript
		require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
		require.Equal(t, tr, back)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, FormatYAML, tr))
		var back Transcript
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
		require.Equal(t, tr.Messages[2].Chips, back.Messages[2].Chips)
		require.Contains(t, buf.String(), "session_id: default")
	})

	t.Run("markdown", func(t *testing.T) {
		md := Markdown(tr)
		require.True(t, strings.HasPrefix(md, "# Healthyfy chat - default\n"))
		require.Contains(t, md, "### You\n\nlog water 500 ml today\n")
		require.Contains(t, md, "- `yes`\n- `no`\n")
	})
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	p := report.Policy{ExportsDir: dir}

	path, err := Export(context.Background(), p, "", FormatMarkdown, sample())
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(path))
	require.True(t, strings.HasPrefix(filepath.Base(path), "default-"))
	require.Equal(t, ".md", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, Markdown(sample())[:20], string(data[:20]))

	explicit := filepath.Join(dir, "chat.yaml")
	got, err := Export(context.Background(), p, explicit, FormatYAML, sample())
	require.NoError(t, err)
	require.Equal(t, explicit, got)
}

func TestExport_RejectsOutsideDir(t *testing.T) {
	p := report.Policy{ExportsDir: t.TempDir()}
	_, err := Export(context.Background(), p, filepath.Join(t.TempDir(), "chat.json"), FormatJSON, sample())
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
