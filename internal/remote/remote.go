// Package remote answers free-form chat the local assistant cannot handle.
package remote

import (
	"context"
	"strings"

	"github.com/hpungsan/healthyfy/internal/action"
)

// Client sends one chat message to a remote assistant.
type Client interface {
	SendChat(ctx context.Context, req ChatRequest) (*ChatReply, error)
}

// UserContext is what the remote side is told about the user.
type UserContext struct {
	UserID      *string `json:"user_id"`
	Email       *string `json:"email"`
	DisplayName *string `json:"display_name"`
	Route       string  `json:"route"`
}

// NewUserContext describes user on route. A nil user leaves the identity
// fields null.
func NewUserContext(user *action.User, route string) UserContext {
	uc := UserContext{Route: route}
	if user == nil {
		return uc
	}
	uc.UserID = nonEmpty(user.ID)
	uc.Email = nonEmpty(user.Email)
	uc.DisplayName = nonEmpty(user.DisplayName)
	return uc
}

func nonEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

type ChatRequest struct {
	Message     string      `json:"message"`
	UserContext UserContext `json:"user_context"`
}

type ChatReply struct {
	Reply  string `json:"reply"`
	Domain string `json:"domain,omitempty"`
}

// MaxMessageLen is the longest message the backend accepts.
const MaxMessageLen = 4000

// Disclaimer is sent as the system instruction for model-backed replies.
const Disclaimer = "Healthyfy provides wellness and lifestyle support only. " +
	"It does NOT diagnose, treat, or replace professional medical advice."
