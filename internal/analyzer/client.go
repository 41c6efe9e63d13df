package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"workflow-chat/internal/common/config"
	commonhttp "workflow-chat/internal/common/http"
	"workflow-chat/internal/common/logger"
	"workflow-chat/internal/models"
	"workflow-chat/internal/parser"
)

var (
	ErrIntentAnalysisFailed = errors.New("INTENT_ANALYSIS_FAILED")
	ErrIntentAPITimeout     = errors.New("INTENT_API_TIMEOUT")
)

const (
	analyzePath       = "/v1/analyze-intent"
	refinePath        = "/v1/refine-intent"
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 2
	retryBaseDelay    = 100 * time.Millisecond
)

// Config holds the intent API connection settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// FromConfig converts the application analyzer section, applying defaults
// for unset values.
func FromConfig(cfg config.AnalyzerConfig) Config {
	c := Config{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Timeout:    time.Duration(cfg.Timeout) * time.Millisecond,
		MaxRetries: cfg.MaxRetries,
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = defaultMaxRetries
	}
	return c
}

// Client calls the external intent analysis API. The local classifier stays
// authoritative when this client is not wired or the remote answer scores
// lower.
type Client struct {
	config Config
	http   *commonhttp.Client
	logger logger.Logger
}

// NewClient builds an intent API client.
func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		config: cfg,
		http:   commonhttp.NewClient(cfg.Timeout),
		logger: log.WithFields(map[string]interface{}{"component": "intent-analyzer"}),
	}
}

// AnalyzeIntent sends the text and recent history to the intent API and maps
// the answer onto an Intent. Transient failures (transport errors, 5xx) are
// retried with exponential backoff; 4xx answers fail immediately.
func (c *Client) AnalyzeIntent(ctx context.Context, text string, history []models.ChatMessage) (*parser.Intent, error) {
	payload := AnalyzeRequest{Text: text}
	for _, m := range history {
		payload.History = append(payload.History, Message{Role: m.Role, Content: m.Content})
	}
	return c.postIntent(ctx, analyzePath, payload)
}

// RefineIntent sends a previously classified intent back to the API together
// with the user's follow-up feedback and maps the refined answer. Retry and
// error semantics match AnalyzeIntent.
func (c *Client) RefineIntent(ctx context.Context, original *parser.Intent, feedback string) (*parser.Intent, error) {
	if original == nil {
		return nil, fmt.Errorf("%w: no intent to refine", ErrIntentAnalysisFailed)
	}

	payload := RefineRequest{
		Intent:     string(original.Primary),
		Confidence: original.Confidence,
		Urgency:    string(original.Urgency),
		Keywords:   original.Keywords,
		Feedback:   feedback,
	}
	return c.postIntent(ctx, refinePath, payload)
}

// postIntent runs the shared POST-with-backoff loop against one of the
// intent endpoints and maps a 2xx body onto the parser's Intent.
func (c *Client) postIntent(ctx context.Context, path string, payload interface{}) (*parser.Intent, error) {
	if c.config.BaseURL == "" {
		return nil, fmt.Errorf("%w: no base URL configured", ErrIntentAnalysisFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	headers := map[string]string{}
	if c.config.APIKey != "" {
		headers["X-API-Key"] = c.config.APIKey
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		resp, err := c.http.PostJSON(ctx, endpoint, headers, payload)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return nil, ErrIntentAPITimeout
			}
			lastErr = err
		} else {
			body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
			resp.Body.Close()

			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("read response: %w", readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return c.mapResponse(body)
			case resp.StatusCode >= 500:
				lastErr = fmt.Errorf("intent api returned %d", resp.StatusCode)
			default:
				return nil, fmt.Errorf("%w: intent api returned %d: %s",
					ErrIntentAnalysisFailed, resp.StatusCode, strings.TrimSpace(string(body)))
			}
		}

		if attempt == c.config.MaxRetries {
			break
		}

		delay := retryBaseDelay * time.Duration(1<<attempt)
		c.logger.Warn("intent api call failed, retrying", map[string]interface{}{
			"attempt": attempt + 1,
			"delayMs": delay.Milliseconds(),
			"error":   lastErr.Error(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, ErrIntentAPITimeout
			}
			return nil, fmt.Errorf("%w: %v", ErrIntentAnalysisFailed, ctx.Err())
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrIntentAnalysisFailed, lastErr)
}

// mapResponse converts the wire answer into the parser's Intent, rejecting
// values outside the known enumerations.
func (c *Client) mapResponse(body []byte) (*parser.Intent, error) {
	var r AnalyzeResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrIntentAnalysisFailed, err)
	}

	primary := parser.IntentType(r.Intent)
	if !primary.Valid() {
		return nil, fmt.Errorf("%w: unknown intent %q", ErrIntentAnalysisFailed, r.Intent)
	}

	urgency := parser.UrgencyLevel(r.UrgencyLevel)
	if r.UrgencyLevel == "" {
		urgency = parser.UrgencyNormal
	} else if !urgency.Valid() {
		return nil, fmt.Errorf("%w: unknown urgency %q", ErrIntentAnalysisFailed, r.UrgencyLevel)
	}

	intent := &parser.Intent{
		Primary:    primary,
		Confidence: math.Max(0, math.Min(r.Confidence, 1)),
		Keywords:   r.Keywords,
		Urgency:    urgency,
	}
	if r.TimeContext != nil {
		intent.TimeContext = &parser.TimeContext{
			Immediacy: parser.Immediacy(r.TimeContext.Immediacy),
			Matched:   r.TimeContext.Matched,
		}
	}
	return intent, nil
}
