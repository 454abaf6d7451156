// Package report renders domain exports and writes export files into the
// allowed export directories.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hpungsan/healthyfy/internal/errors"
)

// Section is a titled list of one-line entries.
type Section struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

// Person identifies who the export belongs to.
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Document is everything a domain export contains.
type Document struct {
	Domain      string    `json:"domain"`
	User        Person    `json:"user"`
	GeneratedAt string    `json:"generated_at"`
	Sections    []Section `json:"sections"`
}

// DisclaimerLines close every export.
var DisclaimerLines = []string{
	"Healthyfy provides wellness and lifestyle support only. It is not medical advice, diagnosis, or treatment.",
	"Insights are rule-based observations over your own logs. For medical concerns, please consult a qualified professional.",
}

// Extensions accepted by WriteFile.
var (
	PDFExtensions        = []string{".pdf"}
	TranscriptExtensions = []string{".json", ".yaml", ".yml", ".md"}
)

// WriteFile validates path against p and streams write into it. A failed
// write removes the partial file.
func WriteFile(ctx context.Context, path string, exts []string, p Policy, write func(io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidatePath(path, exts, p); err != nil {
		return err
	}

	f, err := createNoFollow(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, errors.ErrInvalidRequest) {
			return err
		}
		return errors.NewInternal(fmt.Errorf("open export file: %w", err))
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return errors.NewInternal(fmt.Errorf("write export file: %w", err))
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return errors.NewInternal(fmt.Errorf("close export file: %w", err))
	}
	return nil
}
