package db

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/hpungsan/healthyfy/internal/dialogue"
	"github.com/hpungsan/healthyfy/internal/errors"
	"github.com/hpungsan/healthyfy/internal/transcript"
	"github.com/hpungsan/healthyfy/internal/wellness"
)

// Store is the SQLite-backed data store for collections, conversation state
// and transcripts.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore wraps an initialized database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

func checkCollection(ownerID, name string) error {
	if ownerID == "" {
		return errors.NewUnauthorized("owner id is required")
	}
	if !wellness.KnownCollection(name) {
		return errors.NewInvalidRequest(fmt.Sprintf("unknown collection %q", name))
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func loadCollection(ctx context.Context, q querier, ownerID, name string) ([]wellness.Record, error) {
	var itemsJSON string
	err := q.QueryRowContext(ctx,
		`SELECT items_json FROM collections WHERE owner_id = ? AND name = ?`,
		ownerID, name,
	).Scan(&itemsJSON)
	if stderrors.Is(err, sql.ErrNoRows) {
		return []wellness.Record{}, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	var items []wellness.Record
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("corrupt collection %s: %w", name, err))
	}
	if items == nil {
		items = []wellness.Record{}
	}
	return items, nil
}

func saveCollection(ctx context.Context, q querier, ownerID, name string, items []wellness.Record, now int64) error {
	if items == nil {
		items = []wellness.Record{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return errors.NewInternal(err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO collections (owner_id, name, items_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner_id, name) DO UPDATE SET
			items_json = excluded.items_json,
			updated_at = excluded.updated_at
	`, ownerID, name, string(data), now)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// LoadCollection returns the owner's collection, newest first. A collection
// never written is empty.
func (s *Store) LoadCollection(ctx context.Context, ownerID, name string) ([]wellness.Record, error) {
	if err := checkCollection(ownerID, name); err != nil {
		return nil, err
	}
	return loadCollection(ctx, s.db, ownerID, name)
}

// SaveCollection replaces the owner's collection.
func (s *Store) SaveCollection(ctx context.Context, ownerID, name string, items []wellness.Record) error {
	if err := checkCollection(ownerID, name); err != nil {
		return err
	}
	return saveCollection(ctx, s.db, ownerID, name, items, s.now().Unix())
}

// AppendRecord prepends rec inside one transaction and returns the result.
func (s *Store) AppendRecord(ctx context.Context, ownerID, name string, rec wellness.Record) ([]wellness.Record, error) {
	if err := checkCollection(ownerID, name); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback()

	items, err := loadCollection(ctx, tx, ownerID, name)
	if err != nil {
		return nil, err
	}
	items = append([]wellness.Record{rec}, items...)
	if err := saveCollection(ctx, tx, ownerID, name, items, s.now().Unix()); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return items, nil
}

// LoadState returns the saved conversation state. ok is false for a session
// never saved.
func (s *Store) LoadState(ctx context.Context, sessionID string) (dialogue.State, bool, error) {
	var stateJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json FROM conversations WHERE session_id = ?`, sessionID,
	).Scan(&stateJSON)
	if stderrors.Is(err, sql.ErrNoRows) {
		return dialogue.Idle(), false, nil
	}
	if err != nil {
		return dialogue.State{}, false, errors.NewInternal(err)
	}

	var st dialogue.State
	if err := json.Unmarshal([]byte(stateJSON), &st); err != nil {
		return dialogue.State{}, false, errors.NewInternal(fmt.Errorf("corrupt state for %s: %w", sessionID, err))
	}
	return st, true, nil
}

func saveState(ctx context.Context, q querier, sessionID string, st dialogue.State, now int64) error {
	data, err := json.Marshal(st)
	if err != nil {
		return errors.NewInternal(err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO conversations (session_id, state_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at = excluded.updated_at
	`, sessionID, string(data), now, now)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// SaveState stores the conversation state, creating the session if needed.
func (s *Store) SaveState(ctx context.Context, sessionID string, st dialogue.State) error {
	return saveState(ctx, s.db, sessionID, st, s.now().Unix())
}

// SaveTurn stores the new state and appends msgs in one transaction.
func (s *Store) SaveTurn(ctx context.Context, sessionID string, st dialogue.State, msgs ...transcript.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	if err := saveState(ctx, tx, sessionID, st, s.now().Unix()); err != nil {
		return err
	}

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM messages WHERE session_id = ?`, sessionID,
	).Scan(&seq); err != nil {
		return errors.NewInternal(err)
	}

	for _, m := range msgs {
		seq++
		var chips sql.NullString
		if len(m.Chips) > 0 {
			data, err := json.Marshal(m.Chips)
			if err != nil {
				return errors.NewInternal(err)
			}
			chips = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, session_id, seq, role, text, chips_json, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, m.ID, sessionID, seq, string(m.Role), m.Text, chips, m.CreatedAt); err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Messages returns the session transcript, oldest first.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]transcript.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, text, chips_json, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	msgs := []transcript.Message{}
	for rows.Next() {
		var (
			m     transcript.Message
			role  string
			chips sql.NullString
		)
		if err := rows.Scan(&m.ID, &role, &m.Text, &chips, &m.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		m.Role = transcript.Role(role)
		if chips.Valid {
			if err := json.Unmarshal([]byte(chips.String), &m.Chips); err != nil {
				return nil, errors.NewInternal(err)
			}
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return msgs, nil
}

// DeleteSession removes the session's state and transcript. It reports
// whether the session existed.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE session_id = ?`, sessionID)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return n > 0, nil
}

// SessionSummary is one row of ListSessions.
type SessionSummary struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	Messages  int    `json:"messages"`
	UpdatedAt int64  `json:"updated_at"`
}

// ListSessions returns known sessions, most recently updated first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.session_id, c.state_json, c.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.session_id = c.session_id)
		FROM conversations c
		ORDER BY c.updated_at DESC, c.session_id ASC
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []SessionSummary{}
	for rows.Next() {
		var (
			sum       SessionSummary
			stateJSON string
		)
		if err := rows.Scan(&sum.SessionID, &stateJSON, &sum.UpdatedAt, &sum.Messages); err != nil {
			return nil, errors.NewInternal(err)
		}
		var st dialogue.State
		if json.Unmarshal([]byte(stateJSON), &st) == nil {
			sum.Mode = string(st.Mode)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}
