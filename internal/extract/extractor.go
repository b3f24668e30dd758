package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"conflictwatch/internal/config"
)

// ErrMalformedOutput is returned once the retry budget is exhausted without a
// single response passing the schema validator. The record is left unstored
// and stays retryable on future poll cycles.
var ErrMalformedOutput = errors.New("extract: model output failed validation")

// Extractor drives the language model with the fixed prompt contract and
// parses its output into a validated Extraction. The model is untrusted:
// malformed JSON, out-of-taxonomy values and missing fields all count as a
// failed attempt. Calls are serialized with a mutex because the collaborator
// is a singleton local inference service.
type Extractor struct {
	Client      llms.Model
	Timeout     time.Duration
	MaxAttempts int
	Logger      *zap.Logger

	mu sync.Mutex
}

// New builds an Extractor against an OpenAI-compatible endpoint (a local
// Ollama instance in the default deployment).
func New(cfg config.LLMConfig, logger *zap.Logger) (*Extractor, error) {
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken("none"),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		Client:      client,
		Timeout:     cfg.Timeout,
		MaxAttempts: cfg.MaxAttempts,
		Logger:      logger,
	}, nil
}

// Extract analyzes one tweet body. It retries on any attempt failure
// (transport error, timeout, unparseable or invalid output) up to MaxAttempts
// total attempts, then returns ErrMalformedOutput.
func (e *Extractor) Extract(ctx context.Context, text string) (*Extraction, error) {
	if e == nil || e.Client == nil {
		return nil, errors.New("extract: no model client")
	}
	attempts := e.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := e.generate(ctx, content)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if e.Logger != nil {
			e.Logger.Debug("extraction attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, lastErr)
}

func (e *Extractor) generate(ctx context.Context, content []llms.MessageContent) (*Extraction, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	e.mu.Lock()
	response, err := e.Client.GenerateContent(callCtx, content,
		llms.WithTemperature(0.0),
		llms.WithJSONMode(),
	)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, errors.New("extract: empty response")
	}
	return Parse(response.Choices[0].Content)
}

// Parse turns raw model text into a validated Extraction.
func Parse(raw string) (*Extraction, error) {
	raw = stripFences(raw)
	var result Extraction
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("extract: unmarshal: %w", err)
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// stripFences removes markdown code fences some models wrap JSON in, despite
// JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
