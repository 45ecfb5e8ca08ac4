package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type Options struct {
	APIKey  string
	Model   string
	BaseURL string

	// Timeout bounds a single service call on top of the caller's context.
	Timeout time.Duration

	// BreakerFailures consecutive failures open the breaker for
	// BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// OpenAIClient asks an OpenAI-compatible chat completions endpoint to order
// tasks.
type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]PrioritizedTask]
	logger  *zap.Logger
}

func New(opts Options) *OpenAIClient {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerTimeout == 0 {
		opts.BreakerTimeout = time.Minute
	}
	logger := opts.Logger.Named("ai")

	settings := gobreaker.Settings{
		Name:        "prioritization",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &OpenAIClient{
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
		breaker: gobreaker.NewCircuitBreaker[[]PrioritizedTask](settings),
		logger:  logger,
	}
}

// Prioritize sends the tasks to the service and returns its ordering as is.
// An empty input never reaches the service.
func (c *OpenAIClient) Prioritize(ctx context.Context, in PrioritizationInput) ([]PrioritizedTask, error) {
	if len(in.Tasks) == 0 {
		return []PrioritizedTask{}, nil
	}

	out, err := c.breaker.Execute(func() ([]PrioritizedTask, error) {
		return c.complete(ctx, in)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrioritizationFailed, err)
	}
	return out, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) complete(ctx context.Context, in PrioritizationInput) ([]PrioritizedTask, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prioritizationSystemPrompt},
			{Role: "user", Content: BuildUserPrompt(in)},
		},
		ResponseFormat: map[string]any{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call chat completions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("chat completions status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	out, err := decodePrioritized(cr.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("prioritization completed",
		zap.Int("tasks", len(in.Tasks)),
		zap.Int("returned", len(out)),
		zap.Duration("took", time.Since(start)),
	)
	return out, nil
}
