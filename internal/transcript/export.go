package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/healthyfy/internal/errors"
	"github.com/hpungsan/healthyfy/internal/report"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts json, yaml/yml and markdown/md.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unknown transcript format %q (want json, yaml or markdown)", s))
}

// Ext is the file extension written for f.
func (f Format) Ext() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatMarkdown:
		return ".md"
	}
	return ".json"
}

// Transcript is a full conversation as exported.
type Transcript struct {
	SessionID  string    `json:"session_id" yaml:"session_id"`
	ExportedAt string    `json:"exported_at" yaml:"exported_at"`
	Messages   []Message `json:"messages" yaml:"messages"`
}

// Render writes t to w in format f.
func Render(w io.Writer, f Format, t Transcript) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return err
		}
		return enc.Close()
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(t))
		return err
	}
	return errors.NewInvalidRequest(fmt.Sprintf("unknown transcript format %q", f))
}

// Markdown renders t as a readable document: one heading per message, chips
// as a bullet list.
func Markdown(t Transcript) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Healthyfy chat - %s\n\n", t.SessionID)
	if t.ExportedAt != "" {
		fmt.Fprintf(&b, "_Exported %s_\n\n", t.ExportedAt)
	}
	for _, m := range t.Messages {
		who := "Assistant"
		if m.Role == RoleUser {
			who = "You"
		}
		fmt.Fprintf(&b, "### %s\n\n", who)
		b.WriteString(strings.TrimSpace(m.Text))
		b.WriteString("\n\n")
		if len(m.Chips) > 0 {
			for _, c := range m.Chips {
				fmt.Fprintf(&b, "- `%s`\n", c.Value)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// DefaultPath is <exports dir>/<session>-<timestamp><ext>.
func DefaultPath(p report.Policy, sessionID string, f Format, now time.Time) (string, error) {
	dir, err := p.Dir()
	if err != nil {
		return "", err
	}
	name := report.SanitizeForFilename(sessionID) + "-" + now.UTC().Format("2006-01-02T150405") + f.Ext()
	return filepath.Join(dir, name), nil
}

// Export writes t to path, or to DefaultPath when path is empty. It returns
// the written path.
func Export(ctx context.Context, p report.Policy, path string, f Format, t Transcript) (string, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(p, t.SessionID, f, time.Now()); err != nil {
			return "", err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return "", errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
		}
	}
	if err := report.WriteFile(ctx, path, report.TranscriptExtensions, p, func(w io.Writer) error {
		return Render(w, f, t)
	}); err != nil {
		return "", err
	}
	return path, nil
}
