//go:build !windows

package report

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/healthyfy/internal/errors"
)

// createNoFollow truncates or creates path for writing and refuses to follow
// a symlink in the final component.
func createNoFollow(path string) (*os.File, error) {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC | syscall.O_NOFOLLOW | syscall.O_CLOEXEC
	fd, err := syscall.Open(path, flag, 0o600)
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("cannot write to symlink")
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}
