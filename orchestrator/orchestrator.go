// Package orchestrator turns one user message into a set of council
// responses and an updated session history, as a single logical transaction.
//
// The orchestrator initializes from configuration via New, creating the
// session store and council engine internally. Functional options allow
// test overrides of either subsystem.
//
//	o, err := orchestrator.New(ctx, &cfg)
//	result, err := o.Handle(ctx, sessionID, "Which model are you?")
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/amos-fernandes/lm-council/core/turn"
	"github.com/amos-fernandes/lm-council/council"
	"github.com/amos-fernandes/lm-council/observability"
	"github.com/amos-fernandes/lm-council/store"
)

// Orchestrator event types emitted while handling a chat request.
const (
	EventHandleStart    observability.EventType = "chat.handle.start"
	EventHandleComplete observability.EventType = "chat.handle.complete"
	EventEngineFailure  observability.EventType = "chat.engine.failure"
)

// Result holds the outcome of one Handle invocation: the council's
// responses and the full updated history including both appended turns.
type Result struct {
	Responses []turn.ModelResponse
	History   []turn.Turn
}

// Option configures an Orchestrator after config-driven initialization.
type Option func(*Orchestrator)

// WithStore overrides the config-created session store.
func WithStore(s store.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithEngine overrides the config-created council engine.
func WithEngine(e council.Engine) Option {
	return func(o *Orchestrator) { o.engine = e }
}

// WithObserver overrides the default NoOpObserver.
func WithObserver(obs observability.Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// Orchestrator coordinates store, prompt builder, and council engine.
type Orchestrator struct {
	store    store.Store
	engine   council.Engine
	observer observability.Observer
}

// New creates an Orchestrator from configuration. Options are applied
// first; any subsystem not supplied by an option is created from its config
// section.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		observer: observability.NoOpObserver{},
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.store == nil {
		s, err := store.NewStore(ctx, &cfg.Store, store.WithObserver(o.observer))
		if err != nil {
			return nil, fmt.Errorf("failed to create session store: %w", err)
		}
		o.store = s
	}

	if o.engine == nil {
		e, err := council.NewEngine(&cfg.Council, council.WithObserver(o.observer))
		if err != nil {
			return nil, fmt.Errorf("failed to create council engine: %w", err)
		}
		o.engine = e
	}

	return o, nil
}

// Store exposes the session store for the read-only HTTP endpoints.
func (o *Orchestrator) Store() store.Store {
	return o.store
}

// Handle records the user message, invokes the council with a prompt built
// from the session's history, records the council's responses, and returns
// both. An unknown session id is created on demand; this deliberately
// differs from the store's direct-lookup NotFound policy so chat can start
// sessions transparently.
//
// The user turn is persisted before the engine call and is NOT rolled back
// when the call fails — the message stays recorded with no council turn
// following it, and the error wraps ErrEngineFailure with the cause.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, message string) (*Result, error) {
	o.observer.OnEvent(ctx, observability.Event{
		Type:      EventHandleStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "orchestrator.Handle",
		Data: map[string]any{
			"session_id":     sessionID,
			"message_length": len(message),
		},
	})

	if err := o.store.AppendTurn(ctx, sessionID, turn.User(message)); err != nil {
		return nil, fmt.Errorf("failed to record user turn: %w", err)
	}

	history, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session history: %w", err)
	}

	prompt := BuildPrompt(history)

	responses, err := o.engine.Execute(ctx, prompt)
	if err != nil {
		o.observer.OnEvent(ctx, observability.Event{
			Type:      EventEngineFailure,
			Level:     observability.LevelError,
			Timestamp: time.Now(),
			Source:    "orchestrator.Handle",
			Data: map[string]any{
				"session_id": sessionID,
				"error":      err.Error(),
			},
		})
		return nil, fmt.Errorf("%w: %w", ErrEngineFailure, err)
	}

	if err := o.store.AppendTurn(ctx, sessionID, turn.Council(responses)); err != nil {
		return nil, fmt.Errorf("failed to record council turn: %w", err)
	}

	history, err = o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session history: %w", err)
	}

	o.observer.OnEvent(ctx, observability.Event{
		Type:      EventHandleComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "orchestrator.Handle",
		Data: map[string]any{
			"session_id": sessionID,
			"responses":  len(responses),
			"turns":      len(history),
		},
	})

	return &Result{Responses: responses, History: history}, nil
}
