package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/amos-fernandes/lm-council/core/turn"
	"github.com/amos-fernandes/lm-council/orchestrator"
	"github.com/amos-fernandes/lm-council/store"
)

// stubEngine returns canned responses and records the prompts it saw.
type stubEngine struct {
	responses []turn.ModelResponse
	err       error
	prompts   []string
}

func (e *stubEngine) Execute(_ context.Context, prompt string) ([]turn.ModelResponse, error) {
	e.prompts = append(e.prompts, prompt)
	if e.err != nil {
		return nil, e.err
	}
	return e.responses, nil
}

func newOrchestrator(t *testing.T, engine *stubEngine) (*orchestrator.Orchestrator, store.Store) {
	t.Helper()

	s, err := store.New(context.Background(), store.NewMemoryBackend())
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}

	cfg := orchestrator.DefaultConfig()
	o, err := orchestrator.New(context.Background(), &cfg,
		orchestrator.WithStore(s),
		orchestrator.WithEngine(engine),
	)
	if err != nil {
		t.Fatalf("orchestrator.New() error = %v", err)
	}
	return o, s
}

func TestHandle_ReturnsResponsesAndHistory(t *testing.T) {
	engine := &stubEngine{
		responses: []turn.ModelResponse{
			{Model: "google/gemini-1.5-pro", Content: "first"},
			{Model: "openai/gpt-4o", Content: "second"},
		},
	}
	o, s := newOrchestrator(t, engine)
	ctx := context.Background()

	id, _ := s.Create(ctx)

	result, err := o.Handle(ctx, id, "what is Go?")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if len(result.Responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(result.Responses))
	}
	if result.Responses[0].Model != "google/gemini-1.5-pro" {
		t.Errorf("engine-reported order not preserved: got %q first", result.Responses[0].Model)
	}

	if len(result.History) != 2 {
		t.Fatalf("got %d turns in history, want 2", len(result.History))
	}
	if result.History[0].Role != turn.RoleUser || result.History[0].Content != "what is Go?" {
		t.Errorf("history[0] = %+v, want user turn %q", result.History[0], "what is Go?")
	}
	if result.History[1].Role != turn.RoleCouncil {
		t.Errorf("history[1].Role = %q, want %q", result.History[1].Role, turn.RoleCouncil)
	}
}

func TestHandle_AutoCreatesUnknownSession(t *testing.T) {
	engine := &stubEngine{responses: []turn.ModelResponse{{Model: "m", Content: "r"}}}
	o, s := newOrchestrator(t, engine)
	ctx := context.Background()

	if _, err := s.Get(ctx, "unknown-id"); !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("precondition failed: Get() error = %v, want %v", err, store.ErrSessionNotFound)
	}

	if _, err := o.Handle(ctx, "unknown-id", "hi"); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	history, err := s.Get(ctx, "unknown-id")
	if err != nil {
		t.Fatalf("Get() after Handle error = %v", err)
	}
	if len(history) != 2 {
		t.Errorf("got %d turns, want 2", len(history))
	}
}

func TestHandle_AlternationInvariant(t *testing.T) {
	engine := &stubEngine{responses: []turn.ModelResponse{{Model: "m", Content: "r"}}}
	o, s := newOrchestrator(t, engine)
	ctx := context.Background()

	id, _ := s.Create(ctx)
	for _, msg := range []string{"one", "two", "three"} {
		if _, err := o.Handle(ctx, id, msg); err != nil {
			t.Fatalf("Handle(%q) error = %v", msg, err)
		}
	}

	history, _ := s.Get(ctx, id)
	if len(history) != 6 {
		t.Fatalf("got %d turns, want 6", len(history))
	}
	for i, tr := range history {
		want := turn.RoleUser
		if i%2 == 1 {
			want = turn.RoleCouncil
		}
		if tr.Role != want {
			t.Errorf("turn %d: got role %q, want %q", i, tr.Role, want)
		}
	}
}

func TestHandle_PromptBuiltFromUserTurnsOnly(t *testing.T) {
	engine := &stubEngine{responses: []turn.ModelResponse{{Model: "m", Content: "noise"}}}
	o, s := newOrchestrator(t, engine)
	ctx := context.Background()

	id, _ := s.Create(ctx)
	o.Handle(ctx, id, "a")
	o.Handle(ctx, id, "b")

	if len(engine.prompts) != 2 {
		t.Fatalf("engine invoked %d times, want 2", len(engine.prompts))
	}
	if engine.prompts[0] != "User: a" {
		t.Errorf("first prompt = %q, want %q", engine.prompts[0], "User: a")
	}
	if engine.prompts[1] != "User: a\n\nUser: b" {
		t.Errorf("second prompt = %q, want %q", engine.prompts[1], "User: a\n\nUser: b")
	}
	if strings.Contains(engine.prompts[1], "noise") {
		t.Errorf("prompt leaked council content: %q", engine.prompts[1])
	}
}

func TestHandle_EngineFailureKeepsUserTurn(t *testing.T) {
	cause := errors.New("upstream 503")
	engine := &stubEngine{err: cause}
	o, s := newOrchestrator(t, engine)
	ctx := context.Background()

	id, _ := s.Create(ctx)

	_, err := o.Handle(ctx, id, "doomed question")
	if err == nil {
		t.Fatal("Handle() should fail when the engine fails")
	}
	if !errors.Is(err, orchestrator.ErrEngineFailure) {
		t.Errorf("Handle() error = %v, want wrapping %v", err, orchestrator.ErrEngineFailure)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Handle() error = %v, should carry the cause %v", err, cause)
	}
	if !strings.Contains(err.Error(), "upstream 503") {
		t.Errorf("Handle() error text %q should name the cause", err.Error())
	}

	history, getErr := s.Get(ctx, id)
	if getErr != nil {
		t.Fatalf("Get() error = %v", getErr)
	}
	if len(history) != 1 {
		t.Fatalf("got %d turns after engine failure, want 1 (user turn not rolled back)", len(history))
	}
	if history[0].Role != turn.RoleUser {
		t.Errorf("surviving turn role = %q, want %q", history[0].Role, turn.RoleUser)
	}
}

func TestNew_ConfigCreatedEngineRequiresAPIKey(t *testing.T) {
	cfg := orchestrator.DefaultConfig()
	cfg.Store.Path = t.TempDir() + "/sessions.json"

	_, err := orchestrator.New(context.Background(), &cfg)
	if err == nil {
		t.Error("New() without an API key should fail to create the engine")
	}
}
