// Package store manages the durable, process-wide collection of chat
// sessions. The full mapping is loaded once at startup and flushed to the
// backend after every mutation; no mutation is acknowledged until persisted.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amos-fernandes/lm-council/core/turn"
	"github.com/amos-fernandes/lm-council/observability"
)

// Store event types emitted during load and mutation.
const (
	EventLoad        observability.EventType = "store.load"
	EventLoadCorrupt observability.EventType = "store.load.corrupt"
	EventCreate      observability.EventType = "store.session.create"
)

// PreviewEmpty is the listing preview for sessions whose history is empty
// or ends with a council turn.
const PreviewEmpty = "New Chat"

// Session is the durable representation of one conversation.
type Session struct {
	History []turn.Turn `json:"history"`
}

// Summary is one row of a session listing.
type Summary struct {
	ID      string `json:"id"`
	Preview string `json:"preview"`
}

// Store is the keyed collection of sessions. Implementations must be safe
// for concurrent use; mutations are serialized so concurrent requests for
// different sessions cannot lose each other's full-mapping rewrite.
type Store interface {
	// Create inserts an empty session under a fresh identifier and persists.
	Create(ctx context.Context) (string, error)
	// Get returns a copy of the session's turn history, or
	// ErrSessionNotFound for an unknown identifier.
	Get(ctx context.Context, id string) ([]turn.Turn, error)
	// ListAll returns id/preview rows for every session, in an order that
	// is stable within a process run.
	ListAll(ctx context.Context) ([]Summary, error)
	// AppendTurn appends to the session's history, creating the session
	// first if absent, and persists before returning.
	AppendTurn(ctx context.Context, id string, t turn.Turn) error
}

// Option configures a Store created by New.
type Option func(*sessionStore)

// WithObserver overrides the default NoOpObserver.
func WithObserver(o observability.Observer) Option {
	return func(s *sessionStore) { s.observer = o }
}

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]turn.Turn
	order    []string // listing order; ids never removed
	backend  Backend
	observer observability.Observer
}

// New creates a Store over the given backend and loads persisted state.
// A missing durable resource yields an empty store. A present but
// unparseable resource also yields an empty store — availability over
// durability — with a warning event for operators.
func New(ctx context.Context, backend Backend, opts ...Option) (Store, error) {
	s := &sessionStore{
		sessions: make(map[string][]turn.Turn),
		backend:  backend,
		observer: observability.NoOpObserver{},
	}

	for _, opt := range opts {
		opt(s)
	}

	data, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}

	if data != nil {
		var persisted map[string]Session
		if err := json.Unmarshal(data, &persisted); err != nil {
			s.observer.OnEvent(ctx, observability.Event{
				Type:      EventLoadCorrupt,
				Level:     observability.LevelWarning,
				Timestamp: time.Now(),
				Source:    "store.New",
				Data: map[string]any{
					"error": err.Error(),
					"bytes": len(data),
				},
			})
		} else {
			for id, sess := range persisted {
				s.sessions[id] = sess.History
				s.order = append(s.order, id)
			}
			// Map iteration order is random; sort once so listings stay
			// stable for the rest of the process run.
			sort.Strings(s.order)
		}
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventLoad,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "store.New",
		Data:      map[string]any{"sessions": len(s.sessions)},
	})

	return s, nil
}

func (s *sessionStore) Create(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newIDLocked()
	s.sessions[id] = nil
	s.order = append(s.order, id)

	if err := s.persistLocked(ctx); err != nil {
		return "", err
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventCreate,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "store.Create",
		Data:      map[string]any{"session_id": id},
	})

	return id, nil
}

func (s *sessionStore) Get(_ context.Context, id string) ([]turn.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	copied := turn.CloneHistory(history)
	if copied == nil {
		copied = []turn.Turn{}
	}
	return copied, nil
}

func (s *sessionStore) ListAll(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		summaries = append(summaries, Summary{
			ID:      id,
			Preview: preview(s.sessions[id]),
		})
	}
	return summaries, nil
}

func (s *sessionStore) AppendTurn(ctx context.Context, id string, t turn.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		s.order = append(s.order, id)
	}
	s.sessions[id] = append(s.sessions[id], t.Clone())

	return s.persistLocked(ctx)
}

// preview derives the listing summary: the last user message when the
// history ends with a user turn, otherwise the empty-chat sentinel.
func preview(history []turn.Turn) string {
	if len(history) == 0 {
		return PreviewEmpty
	}
	last := history[len(history)-1]
	if last.Role != turn.RoleUser {
		return PreviewEmpty
	}
	return last.Content
}

// newIDLocked generates a fresh session identifier. UUIDv7 collisions are
// vanishingly unlikely but identifiers must never be reused, so regenerate
// on the off chance one is already present.
func (s *sessionStore) newIDLocked() string {
	for {
		id := uuid.Must(uuid.NewV7()).String()
		if _, exists := s.sessions[id]; !exists {
			return id
		}
	}
}

// persistLocked rewrites the full mapping through the backend. Callers hold
// the write lock; an error leaves the in-memory state ahead of durable
// state (best-effort, surfaced to the caller).
func (s *sessionStore) persistLocked(ctx context.Context) error {
	persisted := make(map[string]Session, len(s.sessions))
	for id, history := range s.sessions {
		if history == nil {
			history = []turn.Turn{}
		}
		persisted[id] = Session{History: history}
	}

	data, err := json.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	return s.backend.Save(ctx, data)
}
