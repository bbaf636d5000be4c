// Package council invokes a panel of language models with a single prompt
// and aggregates one completion per model.
package council

import (
	"context"
	"errors"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/amos-fernandes/lm-council/core/turn"
	"github.com/amos-fernandes/lm-council/observability"
)

// Council event types emitted during engine execution.
const (
	EventExecuteStart    observability.EventType = "council.execute.start"
	EventModelComplete   observability.EventType = "council.model.complete"
	EventExecuteComplete observability.EventType = "council.execute.complete"
)

// ErrNoCompletions is returned by Execute when every configured model failed
// to produce a completion.
var ErrNoCompletions = errors.New("no completions")

// Engine executes one prompt against the council and returns the models'
// responses in a stable order. Implementations may return fewer responses
// than configured models when individual models fail; callers must not
// assume a fixed count.
type Engine interface {
	Execute(ctx context.Context, prompt string) ([]turn.ModelResponse, error)
}

// Option configures an engine created by NewEngine.
type Option func(*openAIEngine)

// WithObserver overrides the default NoOpObserver.
func WithObserver(o observability.Observer) Option {
	return func(e *openAIEngine) { e.observer = o }
}

type indexedResponse struct {
	index    int
	response turn.ModelResponse
	err      error
}

type openAIEngine struct {
	client   *openai.Client
	models   []string
	timeout  time.Duration
	observer observability.Observer
}

// NewEngine creates an Engine that sends one chat-completion request per
// configured model through an OpenAI-compatible API. The configured base
// URL selects the gateway (OpenRouter in the reference deployment).
func NewEngine(cfg *Config, opts ...Option) (Engine, error) {
	if len(cfg.Models) == 0 {
		return nil, errors.New("council requires at least one model")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("council requires an API key")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	e := &openAIEngine{
		client:   openai.NewClientWithConfig(clientCfg),
		models:   cfg.Models,
		timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
		observer: observability.NoOpObserver{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Execute fans the prompt out to every model concurrently and collects the
// completions in configured-model order. Models that fail are omitted from
// the result; the call errors only when all of them failed.
func (e *openAIEngine) Execute(ctx context.Context, prompt string) ([]turn.ModelResponse, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.observer.OnEvent(ctx, observability.Event{
		Type:      EventExecuteStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "council.Execute",
		Data: map[string]any{
			"models":        len(e.models),
			"prompt_length": len(prompt),
		},
	})

	results := make(chan indexedResponse, len(e.models))

	var wg sync.WaitGroup
	for i, model := range e.models {
		wg.Add(1)
		go func(index int, model string) {
			defer wg.Done()
			content, err := e.complete(ctx, model, prompt)

			e.observer.OnEvent(ctx, observability.Event{
				Type:      EventModelComplete,
				Level:     observability.LevelVerbose,
				Timestamp: time.Now(),
				Source:    "council.Execute",
				Data: map[string]any{
					"model": model,
					"error": err != nil,
				},
			})

			if err != nil {
				results <- indexedResponse{index: index, err: err}
				return
			}
			results <- indexedResponse{
				index:    index,
				response: turn.ModelResponse{Model: model, Content: content},
			}
		}(i, model)
	}

	wg.Wait()
	close(results)

	// Workers complete out of order; rebuild configured-model order from
	// the indexes, keeping successes dense.
	responseMap := make(map[int]turn.ModelResponse, len(e.models))
	var errs []error
	for result := range results {
		if result.err != nil {
			errs = append(errs, result.err)
			continue
		}
		responseMap[result.index] = result.response
	}

	responses := make([]turn.ModelResponse, 0, len(responseMap))
	for i := range e.models {
		if response, ok := responseMap[i]; ok {
			responses = append(responses, response)
		}
	}

	e.observer.OnEvent(ctx, observability.Event{
		Type:      EventExecuteComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "council.Execute",
		Data: map[string]any{
			"completed": len(responses),
			"failed":    len(errs),
		},
	})

	if len(responses) == 0 {
		return nil, errors.Join(append([]error{ErrNoCompletions}, errs...)...)
	}

	return responses, nil
}

func (e *openAIEngine) complete(ctx context.Context, model, prompt string) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
