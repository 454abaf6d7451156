// Package transcript holds the chat log shown to the user: messages,
// suggestion chips, and exports of the whole conversation.
package transcript

import (
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/healthyfy/internal/dialogue"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Chip is a one-tap reply. Value is sent as the user's message.
type Chip struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

type Message struct {
	ID        string `json:"id" yaml:"id"`
	Role      Role   `json:"role" yaml:"role"`
	Text      string `json:"text" yaml:"text"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
	Chips     []Chip `json:"chips,omitempty" yaml:"chips,omitempty"`
}

// NewMessage stamps a message with a fresh id and now in UTC.
func NewMessage(role Role, text string, chips []Chip, now time.Time) Message {
	return Message{
		ID:        "m_" + uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: now.UTC().Format(time.RFC3339Nano),
		Chips:     chips,
	}
}

const welcomeText = "Hi - I'm Healthyfy AI Assistant.\n\n" +
	"Healthyfy provides wellness and lifestyle support only. It is not medical advice, diagnosis, or treatment.\n\n" +
	"I can navigate, export PDFs, and add logs (workouts, meals, water, mood, symptoms, reminders). " +
	"I'll ask for missing details and confirm before saving.\n\n" +
	`Try: "open dashboard", "log water 500 ml today", or "add workout".`

// Welcome opens every new conversation.
func Welcome(now time.Time) Message {
	return NewMessage(RoleAssistant, welcomeText, []Chip{
		{Label: "Open dashboard", Value: "open dashboard"},
		{Label: "Open nutrition", Value: "open nutrition"},
		{Label: "Log water (500ml)", Value: "log water 500 ml today"},
		{Label: "Add workout", Value: "add workout"},
	}, now)
}

var (
	confirmChips = []Chip{
		{Label: "Yes", Value: "yes"},
		{Label: "No", Value: "no"},
	}
	defaultChips = []Chip{
		{Label: "Open dashboard", Value: "open dashboard"},
		{Label: "Open fitness", Value: "open fitness"},
		{Label: "Open nutrition", Value: "open nutrition"},
		{Label: "Export fitness PDF", Value: "export fitness pdf"},
		{Label: "Log water (500ml)", Value: "log water 500 ml today"},
		{Label: "Log mood", Value: "log mood"},
	}
)

// SuggestionsFor returns the chips offered in mode.
func SuggestionsFor(mode dialogue.Mode) []Chip {
	if mode == dialogue.ModeConfirming {
		return append([]Chip(nil), confirmChips...)
	}
	return append([]Chip(nil), defaultChips...)
}
