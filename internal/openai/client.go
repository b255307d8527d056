// Package openai wraps the OpenAI-compatible embedding and chat-completion
// APIs behind the capability interfaces the RAG pipeline consumes. Any
// OpenAI-compatible endpoint works via Config.BaseURL.
package openai

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cloo-solutions/docqa/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel is the model used for answer generation
	DefaultChatModel = openai.GPT4oMini

	// DefaultMaxInputRunes bounds embedding input length. Longer inputs are
	// truncated rather than rejected; the embedding stays available at the
	// cost of tail context.
	DefaultMaxInputRunes = 8000

	// DefaultMaxAttempts is the transport retry budget for one call.
	DefaultMaxAttempts = 3
	// DefaultRetryBaseDelay seeds the exponential backoff between attempts.
	DefaultRetryBaseDelay = 500 * time.Millisecond

	// DefaultRequestTimeout bounds each individual provider attempt. Without
	// it a hung provider holds the caller forever and the retry loop never
	// gets a second attempt.
	DefaultRequestTimeout = 30 * time.Second
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// CompletionAPI defines the interface for chat completion
type CompletionAPI interface {
	CreateCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// EmbeddingDiagnostics reports lossy pre-processing applied to an
// embedding input, for callers that ask for it.
type EmbeddingDiagnostics struct {
	Truncated   bool
	TruncatedAt int // rune offset where input was cut
}

// Config holds client configuration.
type Config struct {
	APIKey              string
	BaseURL             string // empty = api.openai.com
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	ChatModel           string
	Temperature         float32
	MaxTokens           int
	MaxInputRunes       int
	MaxAttempts         int
	RetryBaseDelay      time.Duration
	RequestTimeout      time.Duration
}

// Client wraps an OpenAI-compatible API for embeddings and completions.
type Client struct {
	embed          EmbeddingAPI
	complete       CompletionAPI
	model          string
	dimensions     int
	maxInputRunes  int
	maxAttempts    int
	baseDelay      time.Duration
	requestTimeout time.Duration
}

type apiAdapter struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
	temperature    float32
	maxTokens      int
}

func newAPIAdapter(cfg Config) *apiAdapter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}

	return &apiAdapter{
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: embeddingModel,
		chatModel:      chatModel,
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
	}
}

// CreateEmbeddings calls the embeddings API for a single input.
func (a *apiAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.embeddingModel,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// CreateCompletion calls the chat completions API once.
func (a *apiAdapter) CreateCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.chatModel,
		Messages:    messages,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// NewClient creates a Client with explicit configuration.
func NewClient(cfg Config) *Client {
	adapter := newAPIAdapter(cfg)
	return newClientWithAPIs(cfg, adapter, adapter)
}

func newClientWithAPIs(cfg Config, embed EmbeddingAPI, complete CompletionAPI) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	model := string(cfg.EmbeddingModel)
	if model == "" {
		model = string(DefaultEmbeddingModel)
	}
	maxInput := cfg.MaxInputRunes
	if maxInput <= 0 {
		maxInput = DefaultMaxInputRunes
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	delay := cfg.RetryBaseDelay
	if delay <= 0 {
		delay = DefaultRetryBaseDelay
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		embed:          embed,
		complete:       complete,
		model:          model,
		dimensions:     dimensions,
		maxInputRunes:  maxInput,
		maxAttempts:    attempts,
		baseDelay:      delay,
		requestTimeout: timeout,
	}
}

// ModelID identifies the embedding configuration. Chunk and query vectors
// must come from the same ModelID; the vector index enforces this.
func (c *Client) ModelID() string {
	return c.model
}

// Dimensions returns the embedding vector dimensionality.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// GenerateEmbedding generates an embedding for the given text, truncating
// over-long input silently. Use GenerateEmbeddingWithDiagnostics when the
// truncation point matters.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	embedding, _, err := c.GenerateEmbeddingWithDiagnostics(ctx, text)
	return embedding, err
}

// GenerateEmbeddingWithDiagnostics generates an embedding and reports
// whether (and where) the input was truncated.
func (c *Client) GenerateEmbeddingWithDiagnostics(ctx context.Context, text string) ([]float32, *EmbeddingDiagnostics, error) {
	if text == "" {
		return nil, nil, domain.ErrEmptyText
	}

	diag := &EmbeddingDiagnostics{}
	runes := []rune(text)
	if len(runes) > c.maxInputRunes {
		text = string(runes[:c.maxInputRunes])
		diag.Truncated = true
		diag.TruncatedAt = c.maxInputRunes
	}

	var embedding []float32
	err := c.withRetries(ctx, func(callCtx context.Context) error {
		var callErr error
		embedding, callErr = c.embed.CreateEmbeddings(callCtx, text)
		return callErr
	})
	if err != nil {
		return nil, nil, classifyProviderError(err, domain.ErrCodeEmbeddingUnavailable, "failed to create embedding")
	}

	if len(embedding) != c.dimensions {
		return nil, nil, domain.NewDomainError(domain.ErrCodeDimensionMismatch,
			"embedding provider returned a vector of unexpected dimensionality")
	}

	return embedding, diag, nil
}

// Complete generates one chat completion for the given prompts.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if userPrompt == "" {
		return "", domain.ErrEmptyText
	}

	var answer string
	err := c.withRetries(ctx, func(callCtx context.Context) error {
		var callErr error
		answer, callErr = c.complete.CreateCompletion(callCtx, systemPrompt, userPrompt)
		return callErr
	})
	if err != nil {
		return "", classifyProviderError(err, domain.ErrCodeGenerationUnavailable, "failed to create completion")
	}

	return answer, nil
}

// withRetries runs fn with bounded exponential backoff. Every attempt
// carries an explicit deadline so a hung provider cannot hold the caller
// past requestTimeout. Caller-context errors and non-retryable API errors
// stop immediately.
func (c *Client) withRetries(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	delay := c.baseDelay

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
		lastErr = fn(attemptCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

// isRetryable reports whether a provider error is worth another attempt.
// Rate limits and 5xx responses are transient; other 4xx are not.
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return true
		}
		return apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return true
		}
		return reqErr.HTTPStatusCode >= 500
	}
	// Transport-level failure (connection refused, timeout, etc.)
	return true
}

// classifyProviderError maps an exhausted provider error onto the domain
// taxonomy: 429 surfaces as RateLimited, everything else (timed-out
// attempts included) as *Unavailable. Caller cancellation passes through.
func classifyProviderError(err error, unavailableCode, message string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return domain.NewDomainErrorWithCause(domain.ErrCodeRateLimited, "provider rate limit exceeded", err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return domain.NewDomainErrorWithCause(domain.ErrCodeRateLimited, "provider rate limit exceeded", err)
	}

	return domain.NewDomainErrorWithCause(unavailableCode, message, err)
}
