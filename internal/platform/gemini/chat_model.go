// Package gemini implements the agent.LLMClient interface on top of
// Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/taskchat/taskchat-api/internal/agent"
	"github.com/taskchat/taskchat-api/internal/config"
)

// ErrInvalidConfig indicates the client could not be constructed from
// the given configuration.
var ErrInvalidConfig = errors.New("invalid gemini configuration")

// ChatModel calls the Gemini API with retry and maps provider failures
// into the agent package's error taxonomy.
type ChatModel struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string

	// call issues a single GenerateContent request. Bound to the genai
	// client by the constructor; replaced in tests.
	call func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewChatModel creates a ChatModel from the LLM configuration.
func NewChatModel(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*ChatModel, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	m := &ChatModel{
		logger: logger,
		config: cfg,
		client: client,
		model:  cfg.ModelName,
	}
	m.call = m.client.Models.GenerateContent
	return m, nil
}

// Generate implements agent.LLMClient. It retries transient failures
// with exponential backoff and jitter; authentication and client-side
// errors are returned immediately.
func (m *ChatModel) Generate(ctx context.Context, req *agent.Request) (*agent.Reply, error) {
	contents := toContents(req.Turns)
	cfg := m.generateConfig(req)

	maxRetries := m.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelaySeconds := m.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		m.logger.InfoContext(ctx, "calling gemini API",
			slog.String("model", m.model),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1))

		resp, err := m.call(ctx, m.model, contents, cfg)
		if err == nil {
			return fromResponse(resp), nil
		}

		lastErr = classifyError(ctx, err)
		m.logger.ErrorContext(ctx, "gemini API call failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		if !isRetryable(lastErr) || attempt >= maxRetries {
			return nil, lastErr
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoff := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5) * float64(time.Second))

		m.logger.InfoContext(ctx, "retrying gemini call after delay",
			slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", agent.ErrModelTimeout, ctx.Err())
		}
	}

	return nil, lastErr
}

// generateConfig builds the per-call configuration: system instruction,
// tool declarations, and automatic function calling mode when tools are
// present.
func (m *ChatModel) generateConfig(req *agent.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if req.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		}
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, spec := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  toSchema(spec.Parameters),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		cfg.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}

	return cfg
}

// classifyError maps a provider error into the agent error taxonomy.
func classifyError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", agent.ErrModelTimeout, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", agent.ErrModelAuth, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", agent.ErrModelRateLimited, err)
		}
	}

	return fmt.Errorf("%w: %v", agent.ErrModelFailure, err)
}

// isRetryable reports whether a classified error is worth retrying.
// Auth failures and timeouts are permanent for the current call.
func isRetryable(err error) bool {
	return errors.Is(err, agent.ErrModelRateLimited) || errors.Is(err, agent.ErrModelFailure)
}
