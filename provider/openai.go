package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config controls how completion calls are issued.
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float32
	// Timeout bounds a single API call. The parent context still
	// applies across retries.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after the first,
	// taken only for transient failures.
	MaxRetries int
	// RetryBase is the delay before the first retry. It doubles on
	// each subsequent one.
	RetryBase time.Duration
}

// DefaultConfig returns the standard completion settings.
func DefaultConfig() Config {
	return Config{
		Model:       openai.GPT4oMini,
		MaxTokens:   1024,
		Temperature: 0.7,
		Timeout:     60 * time.Second,
		MaxRetries:  2,
		RetryBase:   2 * time.Second,
	}
}

// OpenAI talks to the OpenAI chat completion API.
type OpenAI struct {
	client *openai.Client
	cfg    Config
}

// NewOpenAI builds a provider over the given API key.
func NewOpenAI(apiKey string, cfg Config) (*OpenAI, error) {
	if apiKey == "" {
		return nil, &Error{Kind: KindAuth, Model: cfg.Model, Err: errors.New("OPENAI_API_KEY is empty")}
	}
	return NewOpenAIWithClient(openai.NewClient(apiKey), cfg), nil
}

// NewOpenAIWithClient builds a provider over a preconfigured client.
// Tests use it to point the provider at a local server.
func NewOpenAIWithClient(client *openai.Client, cfg Config) *OpenAI {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RetryBase == 0 {
		cfg.RetryBase = def.RetryBase
	}
	return &OpenAI{client: client, cfg: cfg}
}

// Complete issues the chat completion, retrying transient failures with
// a doubling backoff.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	delay := o.cfg.RetryBase
	var lastErr error
	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		text, err := o.completeOnce(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var perr *Error
		if !errors.As(err, &perr) || !perr.Retryable() {
			return "", err
		}
	}
	return "", lastErr
}

func (o *OpenAI) completeOnce(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = o.cfg.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = o.cfg.MaxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = o.cfg.Temperature
	}

	callCtx := ctx
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	resp, err := o.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", classify(err, model)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &Error{Kind: KindEmpty, Model: model, Err: errors.New("completion had no content")}
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps client errors onto provider error kinds. Context
// cancellation stays retryable here: a per-call timeout is worth
// another attempt, and the retry loop notices parent cancellation
// before sleeping.
func classify(err error, model string) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: kindForStatus(apiErr.HTTPStatusCode), Model: model, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Kind: kindForStatus(reqErr.HTTPStatusCode), Model: model, Err: err}
	}
	return &Error{Kind: KindTransport, Model: model, Err: fmt.Errorf("openai call failed: %w", err)}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status >= 500:
		return KindTransport
	default:
		return KindRequest
	}
}
