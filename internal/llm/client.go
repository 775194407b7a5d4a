package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"bakery-chat/internal/apperr"
	"bakery-chat/internal/metrics"
)

const providerName = "openai"

// Message roles understood by the provider.
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    string
	Content string
}

// Request describes a single completion call.
type Request struct {
	// Purpose labels metrics and logs, e.g. "chat" or "analyze".
	Purpose     string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Response carries the first choice of a completion.
type Response struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Completer produces chat completions.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Config holds OpenAI client configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIClient calls the OpenAI chat completions API.
type OpenAIClient struct {
	api     *openai.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
	model   string
}

var _ Completer = (*OpenAIClient)(nil)

// NewOpenAI creates an OpenAI client.
func NewOpenAI(cfg Config, logger *slog.Logger, m *metrics.Metrics) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAIClient{
		api:     openai.NewClientWithConfig(clientCfg),
		logger:  logger.With("component", "llm"),
		metrics: m,
		model:   model,
	}
}

// Complete sends req to the model and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	elapsed := time.Since(start)

	if err != nil {
		upstream := classify(err)
		status := "error"
		if upstream.StatusCode != 0 {
			status = fmt.Sprintf("%d", upstream.StatusCode)
		}
		c.observe(req.Purpose, status, elapsed)
		c.metrics.Error("llm")
		c.logger.Error("completion failed", "purpose", req.Purpose, "status", upstream.StatusCode, "duration", elapsed, "error", err)
		return Response{}, upstream
	}
	c.observe(req.Purpose, "success", elapsed)

	if len(resp.Choices) == 0 {
		return Response{}, &apperr.UpstreamError{Service: providerName, StatusCode: http.StatusBadGateway, Err: errors.New("completion returned no choices")}
	}

	c.logger.Debug("completion succeeded", "purpose", req.Purpose, "model", resp.Model, "tokens", resp.Usage.TotalTokens, "duration", elapsed)
	return Response{
		Text:             resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (c *OpenAIClient) observe(purpose, status string, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.LLMRequests.WithLabelValues(purpose, status).Inc()
	c.metrics.LLMLatency.WithLabelValues(purpose, status).Observe(elapsed.Seconds())
}

// classify turns a go-openai failure into an UpstreamError carrying the
// provider's HTTP status when there was one.
func classify(err error) *apperr.UpstreamError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &apperr.UpstreamError{Service: providerName, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &apperr.UpstreamError{Service: providerName, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return &apperr.UpstreamError{Service: providerName, Err: err}
}
