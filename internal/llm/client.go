package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/aiox-platform/shopassist/internal/config"
	"github.com/aiox-platform/shopassist/internal/metrics"
)

var (
	ErrNotConfigured     = errors.New("completion provider not configured")
	ErrRateLimited       = errors.New("completion provider rate limited")
	ErrEmptyResponse     = errors.New("empty response from completion provider")
	ErrMalformedResponse = errors.New("malformed classification response")
)

var fencedJSON = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// Client talks to an OpenAI-compatible chat completion API.
type Client struct {
	api                 *openai.Client
	model               string
	classifyTemperature float32
	chatTemperature     float32
	limiter             *rate.Limiter
}

// NewClient returns nil when no API key is configured; a nil *Client
// answers every call with ErrNotConfigured.
func NewClient(cfg config.LLMConfig) *Client {
	if !cfg.Enabled() {
		return nil
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		api:                 openai.NewClientWithConfig(clientConfig),
		model:               cfg.Model,
		classifyTemperature: cfg.ClassifyTemperature,
		chatTemperature:     cfg.ChatTemperature,
		limiter:             rate.NewLimiter(limit, burst),
	}
}

// Classify asks for a JSON object {"intent": ..., "confidence": ...} and
// returns the raw label. Mapping the label onto known intents is the caller's job.
func (c *Client) Classify(ctx context.Context, system, prompt string) (string, float64, error) {
	if c == nil {
		return "", 0, ErrNotConfigured
	}
	content, err := c.complete(ctx, "classify", openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   60,
		Temperature: c.classifyTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", 0, err
	}
	return ParseClassification(content)
}

// Generate returns a free-form assistant reply.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	if c == nil {
		return "", ErrNotConfigured
	}
	content, err := c.complete(ctx, "generate", openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   400,
		Temperature: c.chatTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (c *Client) complete(ctx context.Context, op string, req openai.ChatCompletionRequest) (string, error) {
	if !c.limiter.Allow() {
		metrics.CompletionDuration.WithLabelValues(op, "rate_limited").Observe(0)
		return "", ErrRateLimited
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	latency := time.Since(start)
	if err != nil {
		metrics.CompletionDuration.WithLabelValues(op, "error").Observe(latency.Seconds())
		return "", fmt.Errorf("%s completion: %w", op, err)
	}
	metrics.CompletionDuration.WithLabelValues(op, "ok").Observe(latency.Seconds())

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	slog.Debug("completion finished",
		"operation", op,
		"model", c.model,
		"latency_ms", latency.Milliseconds(),
		"tokens", resp.Usage.TotalTokens)

	return resp.Choices[0].Message.Content, nil
}

// ParseClassification extracts label and confidence from a model reply,
// tolerating markdown code fences around the JSON. The confidence is NaN
// when the reply omits it.
func ParseClassification(content string) (string, float64, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		if m := fencedJSON.FindStringSubmatch(content); len(m) > 1 {
			content = m[1]
		}
	}

	var raw struct {
		Intent     string   `json:"intent"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(raw.Intent) == "" {
		return "", 0, fmt.Errorf("%w: missing intent", ErrMalformedResponse)
	}
	if raw.Confidence == nil {
		return raw.Intent, math.NaN(), nil
	}
	return raw.Intent, *raw.Confidence, nil
}
