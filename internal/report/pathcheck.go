package report

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hpungsan/healthyfy/internal/errors"
)

// Policy decides where export files may be written.
type Policy struct {
	// ExportsDir is the default destination; empty means ~/.healthyfy/exports.
	ExportsDir string
	// AllowedPaths are extra absolute directories; relative entries are ignored.
	AllowedPaths []string
	// AllowUnsafe lifts the directory restriction. Symlinks stay rejected.
	AllowUnsafe bool
}

// DefaultExportsDir returns ~/.healthyfy/exports.
func DefaultExportsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(home, ".healthyfy", "exports"), nil
}

// Dir returns the resolved default destination.
func (p Policy) Dir() (string, error) {
	if p.ExportsDir != "" {
		return filepath.Abs(filepath.Clean(p.ExportsDir))
	}
	return DefaultExportsDir()
}

// ValidatePath checks an export destination. The file must carry one of exts,
// contain no "..", sit directly in an allowed directory (no subdirectories,
// so no intermediate component can be swapped for a symlink) and must not
// itself be a symlink.
func ValidatePath(path string, exts []string, p Policy) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if hasTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if !slices.Contains(exts, strings.ToLower(filepath.Ext(cleaned))) {
		return errors.NewInvalidRequest(fmt.Sprintf("path must have one of the extensions %v", exts))
	}

	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if !p.AllowUnsafe {
		dirs, err := p.allowedDirs()
		if err != nil {
			return err
		}
		parent := filepath.Dir(abs)
		if !slices.Contains(dirs, parent) {
			return errors.NewInvalidRequest(fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v", dirs))
		}
		if isSymlink(parent) {
			return errors.NewInvalidRequest("parent directory must not be a symlink")
		}
	}

	if isSymlink(abs) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

// allowedDirs resolves the default and configured directories. A symlinked
// entry is matched by its target.
func (p Policy) allowedDirs() ([]string, error) {
	def, err := p.Dir()
	if err != nil {
		return nil, err
	}
	dirs := []string{def}
	for _, d := range p.AllowedPaths {
		if filepath.IsAbs(d) {
			dirs = append(dirs, filepath.Clean(d))
		}
	}

	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if isSymlink(d) {
			resolved, err := filepath.EvalSymlinks(d)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
			d = resolved
		}
		out = append(out, d)
	}
	return out, nil
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func hasTraversal(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return true
		}
	}
	return false
}

// SanitizeForFilename makes s safe to embed in a file name.
func SanitizeForFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '/' || r == '\\' || r == ' ':
			b.WriteRune('_')
		case r < 32 || r == 127:
		default:
			b.WriteRune(r)
		}
	}
	out := strings.ReplaceAll(b.String(), "..", "_")
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	out = strings.Trim(out, "_.")
	if out == "" {
		return "unnamed"
	}
	return out
}
