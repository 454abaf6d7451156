// Package ops is the operation layer shared by the CLI, the web API and the
// MCP server. Each operation takes an Input struct and returns an Output
// struct ready to be encoded as JSON.
package ops

import (
	"strings"

	"github.com/hpungsan/healthyfy/internal/action"
	"github.com/hpungsan/healthyfy/internal/config"
	"github.com/hpungsan/healthyfy/internal/report"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// page clamps limit and offset and returns the matching window of n items.
func page(limit, offset, n int) (lo, hi int, p Pagination) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset = max(offset, 0)

	lo = min(offset, n)
	hi = min(lo+limit, n)
	return lo, hi, Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: hi < n,
		Total:   n,
	}
}

// UserInput identifies the signed-in user. An empty UserID means nobody is
// signed in.
type UserInput struct {
	UserID      string `json:"user_id,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// User returns the action user, or nil when no UserID is set.
func (u UserInput) User() *action.User {
	id := strings.TrimSpace(u.UserID)
	if id == "" {
		return nil
	}
	return &action.User{
		ID:          id,
		Email:       strings.TrimSpace(u.Email),
		DisplayName: strings.TrimSpace(u.DisplayName),
	}
}

// PolicyFrom builds the export path policy from config.
func PolicyFrom(cfg *config.Config) report.Policy {
	if cfg == nil {
		return report.Policy{}
	}
	return report.Policy{
		ExportsDir:   cfg.ExportsDir,
		AllowedPaths: cfg.AllowedPaths,
		AllowUnsafe:  cfg.AllowUnsafePaths,
	}
}
