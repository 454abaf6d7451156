package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/healthyfy/internal/config"
	"github.com/hpungsan/healthyfy/internal/db"
	"github.com/hpungsan/healthyfy/internal/errors"
	"github.com/hpungsan/healthyfy/internal/ops"
	"github.com/hpungsan/healthyfy/internal/session"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	sessions *session.Manager
	store    *db.Store
	cfg      *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sessions *session.Manager, store *db.Store, cfg *config.Config) *Handlers {
	return &Handlers{sessions: sessions, store: store, cfg: cfg}
}

// Request types for each tool

// SendRequest represents the arguments for assistant_send.
type SendRequest struct {
	SessionID   string `json:"session_id,omitempty"`
	Message     string `json:"message"`
	UserID      string `json:"user_id,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// StateRequest represents the arguments for assistant_state.
type StateRequest struct {
	SessionID       string `json:"session_id,omitempty"`
	IncludeMessages bool   `json:"include_messages,omitempty"`
}

// ResetRequest represents the arguments for assistant_reset.
type ResetRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// TranscriptRequest represents the arguments for assistant_transcript.
type TranscriptRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Format    string `json:"format,omitempty"`
	Path      string `json:"path,omitempty"`
	Inline    bool   `json:"inline,omitempty"`
}

// CollectionListRequest represents the arguments for collection_list.
type CollectionListRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// SessionListRequest represents the arguments for session_list.
type SessionListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// HandleSend handles the assistant_send tool.
func (h *Handlers) HandleSend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SendRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Send(ctx, h.sessions, ops.SendInput{
		SessionID: input.SessionID,
		Message:   input.Message,
		User: ops.UserInput{
			UserID:      input.UserID,
			Email:       input.Email,
			DisplayName: input.DisplayName,
		},
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleState handles the assistant_state tool.
func (h *Handlers) HandleState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.State(ctx, h.sessions, ops.StateInput{
		SessionID:       input.SessionID,
		IncludeMessages: input.IncludeMessages,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleReset handles the assistant_reset tool.
func (h *Handlers) HandleReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ResetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Reset(ctx, h.sessions, ops.ResetInput{SessionID: input.SessionID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTranscript handles the assistant_transcript tool.
func (h *Handlers) HandleTranscript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TranscriptRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Transcript(ctx, h.sessions, h.cfg, ops.TranscriptInput{
		SessionID: input.SessionID,
		Format:    input.Format,
		Path:      input.Path,
		Inline:    input.Inline,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCollectionList handles the collection_list tool.
func (h *Handlers) HandleCollectionList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CollectionListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListCollection(ctx, h.store, ops.ListCollectionInput{
		OwnerID: input.UserID,
		Name:    input.Name,
		Limit:   input.Limit,
		Offset:  input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSessionList handles the session_list tool.
func (h *Handlers) HandleSessionList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListSessions(ctx, h.store, ops.ListSessionsInput{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		errorObj := map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
			"status":  appErr.Status,
		}
		// Internal details can carry file paths or SQL errors.
		if appErr.Code != errors.ErrInternal && appErr.Details != nil {
			errorObj["details"] = appErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
