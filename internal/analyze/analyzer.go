// Package analyze asks a language model to group duplicate inventory items
// and turns its reply into a model.DuplicateResult.
package analyze

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/item-dedupe/internal/model"
	"github.com/sells-group/item-dedupe/internal/resilience"
	"github.com/sells-group/item-dedupe/pkg/anthropic"
)

// Analyzer returns the raw model reply for one batch of items.
type Analyzer interface {
	Analyze(ctx context.Context, items []model.Item) (string, error)
}

// ClaudeAnalyzer implements Analyzer on the Anthropic Messages API.
type ClaudeAnalyzer struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
	retry       resilience.RetryConfig
	system      []anthropic.SystemBlock
}

// Option configures a ClaudeAnalyzer.
type Option func(*ClaudeAnalyzer)

// WithRules replaces the built-in duplicate policy.
func WithRules(r Rules) Option {
	return func(a *ClaudeAnalyzer) {
		a.system = anthropic.BuildCachedSystemBlocks(r.Render(), "5m")
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(a *ClaudeAnalyzer) { a.temperature = t }
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option {
	return func(a *ClaudeAnalyzer) { a.timeout = d }
}

// WithMaxAttempts allows transient failures to be retried. 1 disables retries.
func WithMaxAttempts(n int) Option {
	return func(a *ClaudeAnalyzer) { a.retry.MaxAttempts = n }
}

// NewClaudeAnalyzer creates an analyzer using model and maxTokens per call.
func NewClaudeAnalyzer(client anthropic.Client, model string, maxTokens int64, opts ...Option) *ClaudeAnalyzer {
	a := &ClaudeAnalyzer{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: 0.1,
		retry:       resilience.DefaultRetryConfig(),
		system:      anthropic.BuildCachedSystemBlocks(DefaultRules().Render(), "5m"),
	}
	for _, o := range opts {
		o(a)
	}
	a.retry.OnRetry = resilience.RetryLogger("anthropic", "analyze_batch")
	return a
}

// Analyze sends items to the model and returns its text reply.
func (a *ClaudeAnalyzer) Analyze(ctx context.Context, items []model.Item) (string, error) {
	prompt, err := BuildUserPrompt(items)
	if err != nil {
		return "", err
	}

	req := anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      a.system,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &a.temperature,
	}

	resp, err := resilience.DoVal(ctx, a.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return a.call(ctx, req)
	})
	if err != nil {
		return "", err
	}

	resp.Usage.LogCost(a.model, "analyze")
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		zap.L().Warn("analyze: model returned no text",
			zap.String("stop_reason", resp.StopReason),
			zap.Int("items", len(items)),
		)
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (a *ClaudeAnalyzer) call(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := a.client.CreateMessage(ctx, req)
	if err != nil {
		status := anthropic.StatusCode(err)
		if resilience.IsTransientHTTPStatus(status) {
			err = resilience.NewTransientError(err, status)
		}
		return nil, &AnalyzerCallError{StatusCode: status, Err: err}
	}
	return resp, nil
}
