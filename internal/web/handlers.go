package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hpungsan/healthyfy/internal/config"
	"github.com/hpungsan/healthyfy/internal/db"
	"github.com/hpungsan/healthyfy/internal/errors"
	"github.com/hpungsan/healthyfy/internal/ops"
	"github.com/hpungsan/healthyfy/internal/session"
	"github.com/hpungsan/healthyfy/internal/transcript"
)

const maxBodyBytes = 64 << 10

// Handlers contains HTTP route handlers.
type Handlers struct {
	sessions *session.Manager
	store    *db.Store
	cfg      *config.Config
	renderer *Renderer
	logger   *zap.Logger
}

// sendRequest is the body of POST /api/sessions/{id}/messages and of each
// websocket frame.
type sendRequest struct {
	Message string        `json:"message"`
	User    ops.UserInput `json:"user"`
}

func decodeSend(r *http.Request, w http.ResponseWriter) (sendRequest, error) {
	var req sendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return req, errors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	return req, nil
}

// HandleSend handles POST /api/sessions/{id}/messages: one conversation turn.
func (h *Handlers) HandleSend(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSend(r, w)
	if err != nil {
		renderAPIError(w, err)
		return
	}
	out, err := ops.Send(r.Context(), h.sessions, ops.SendInput{
		SessionID: chi.URLParam(r, "id"),
		Message:   req.Message,
		User:      req.User,
	})
	if err != nil {
		renderAPIError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleState handles GET /api/sessions/{id}.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	out, err := ops.State(r.Context(), h.sessions, ops.StateInput{
		SessionID:       chi.URLParam(r, "id"),
		IncludeMessages: parseBoolParam(r, "messages"),
	})
	if err != nil {
		renderAPIError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleReset handles DELETE /api/sessions/{id}.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Reset(r.Context(), h.sessions, ops.ResetInput{SessionID: chi.URLParam(r, "id")})
	if err != nil {
		renderAPIError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleListSessions handles GET /api/sessions.
func (h *Handlers) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	out, err := ops.ListSessions(r.Context(), h.store, ops.ListSessionsInput{
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		renderAPIError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleTranscript handles GET /api/sessions/{id}/transcript?format=.
// The transcript is returned inline; nothing is written to disk.
func (h *Handlers) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Transcript(r.Context(), h.sessions, h.cfg, ops.TranscriptInput{
		SessionID: chi.URLParam(r, "id"),
		Format:    r.URL.Query().Get("format"),
		Inline:    true,
	})
	if err != nil {
		renderAPIError(w, err)
		return
	}

	contentType := "application/json"
	switch transcript.Format(out.Format) {
	case transcript.FormatYAML:
		contentType = "application/yaml"
	case transcript.FormatMarkdown:
		contentType = "text/markdown; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out.Content))
}

// HandleCollectionNames handles GET /api/collections.
func (h *Handlers) HandleCollectionNames(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, ops.Collections())
}

// HandleCollection handles GET /api/collections/{owner}/{name}.
func (h *Handlers) HandleCollection(w http.ResponseWriter, r *http.Request) {
	out, err := ops.ListCollection(r.Context(), h.store, ops.ListCollectionInput{
		OwnerID: chi.URLParam(r, "owner"),
		Name:    chi.URLParam(r, "name"),
		Limit:   parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:  parseIntParam(r, "offset", 0),
	})
	if err != nil {
		renderAPIError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleWebSocket handles GET /api/sessions/{id}/ws. Every text frame is a
// sendRequest; every reply is a SendOutput or the error envelope. A frame
// that is not JSON closes the connection.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := session.NormalizeID(chi.URLParam(r, "id"))
	log := h.logger.With(zap.String("session", sessionID))

	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer ws.CloseNow()
	ws.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	for {
		var req sendRequest
		if err := wsjson.Read(ctx, ws, &req); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				log.Debug("websocket closed")
				return
			}
			log.Debug("websocket read ended", zap.Error(err))
			return
		}

		var reply any
		out, err := ops.Send(ctx, h.sessions, ops.SendInput{
			SessionID: sessionID,
			Message:   req.Message,
			User:      req.User,
		})
		if err != nil {
			reply = errorBody(asAppError(err))
		} else {
			reply = out
		}
		if err := wsjson.Write(ctx, ws, reply); err != nil {
			log.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

// HandleSessionsPage handles GET /sessions.
func (h *Handlers) HandleSessionsPage(w http.ResponseWriter, r *http.Request) {
	out, err := ops.ListSessions(r.Context(), h.store, ops.ListSessionsInput{
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, err)
		return
	}
	h.renderer.renderPage(w, "sessions", SessionsPageData{
		PageData:   PageData{Title: "Sessions", Version: h.renderer.version},
		Items:      out.Items,
		Pagination: out.Pagination,
	})
}

// HandleSessionPage handles GET /sessions/{id}: the transcript as HTML.
func (h *Handlers) HandleSessionPage(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.renderError(w, err)
		return
	}
	if !snap.Persisted {
		h.renderer.renderError(w, errors.NewNotFound("session", snap.SessionID))
		return
	}
	t, err := h.sessions.Transcript(r.Context(), snap.SessionID)
	if err != nil {
		h.renderer.renderError(w, err)
		return
	}
	h.renderer.renderPage(w, "session", SessionPageData{
		PageData:     PageData{Title: t.SessionID, Version: h.renderer.version},
		SessionID:    t.SessionID,
		Mode:         string(snap.State.Mode),
		Count:        len(t.Messages),
		RenderedHTML: renderMarkdown(transcript.Markdown(t)),
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
