package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"workflow-chat/internal/common/config"
	commonhttp "workflow-chat/internal/common/http"
	"workflow-chat/internal/common/logger"
	"workflow-chat/internal/models"
)

const (
	defaultWebhookTimeout = 15 * time.Second
	webhookRetryBaseDelay = 200 * time.Millisecond
)

// WebhookConfig holds the automation platform's webhook endpoint settings.
type WebhookConfig struct {
	BaseURL    string
	AuthToken  string
	Timeout    time.Duration
	MaxRetries int
}

// WebhookConfigFromApp converts the application triggers section.
func WebhookConfigFromApp(cfg config.TriggersConfig) WebhookConfig {
	c := WebhookConfig{
		BaseURL:    cfg.Webhook.BaseURL,
		AuthToken:  cfg.Webhook.AuthToken,
		Timeout:    time.Duration(cfg.Webhook.Timeout) * time.Millisecond,
		MaxRetries: cfg.Webhook.MaxRetries,
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultWebhookTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// WebhookTrigger launches workflows by POSTing to the automation platform's
// per-workflow webhook endpoint.
type WebhookTrigger struct {
	config WebhookConfig
	http   *commonhttp.Client
	logger logger.Logger
}

// NewWebhookTrigger builds a webhook-backed trigger.
func NewWebhookTrigger(cfg WebhookConfig, log logger.Logger) *WebhookTrigger {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultWebhookTimeout
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &WebhookTrigger{
		config: cfg,
		http:   commonhttp.NewClient(cfg.Timeout),
		logger: log.WithFields(map[string]interface{}{"component": "webhook-trigger"}),
	}
}

type webhookPayload struct {
	WorkflowID  string                 `json:"workflowId"`
	Title       string                 `json:"title,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
	TriggeredAt time.Time              `json:"triggeredAt"`
}

type webhookAnswer struct {
	ExecutionID string `json:"executionId"`
}

// Execute delivers the launch request, retrying transport errors and 5xx
// answers. A 4xx answer fails immediately.
func (w *WebhookTrigger) Execute(ctx context.Context, workflow models.WorkflowSummary, params map[string]interface{}) (*Result, error) {
	if w.config.BaseURL == "" {
		return nil, fmt.Errorf("%w: no webhook base URL configured", ErrWebhookDeliveryFailed)
	}
	if workflow.ID == "" {
		return nil, fmt.Errorf("%w: workflow has no id", ErrWebhookDeliveryFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(w.config.BaseURL, "/") + "/webhook/workflows/" + workflow.ID
	headers := map[string]string{}
	if w.config.AuthToken != "" {
		headers["Authorization"] = "Bearer " + w.config.AuthToken
	}

	triggeredAt := time.Now().UTC()
	payload := webhookPayload{
		WorkflowID:  workflow.ID,
		Title:       workflow.Title,
		Parameters:  params,
		TriggeredAt: triggeredAt,
	}

	var lastErr error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		resp, err := w.http.PostJSON(ctx, endpoint, headers, payload)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return nil, ErrTriggerTimeout
			}
			lastErr = err
		} else {
			body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
			resp.Body.Close()

			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("read response: %w", readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				var answer webhookAnswer
				_ = json.Unmarshal(body, &answer)

				w.logger.Info("workflow triggered via webhook", map[string]interface{}{
					"workflowId":  workflow.ID,
					"executionId": answer.ExecutionID,
					"attempts":    attempt + 1,
				})
				return &Result{
					WorkflowID:  workflow.ID,
					ExecutionID: answer.ExecutionID,
					Backend:     "webhook",
					TriggeredAt: triggeredAt,
				}, nil
			case resp.StatusCode >= 500:
				lastErr = fmt.Errorf("webhook returned %d", resp.StatusCode)
			default:
				return nil, fmt.Errorf("%w: webhook returned %d: %s",
					ErrWebhookDeliveryFailed, resp.StatusCode, strings.TrimSpace(string(body)))
			}
		}

		if attempt == w.config.MaxRetries {
			break
		}

		delay := webhookRetryBaseDelay * time.Duration(1<<attempt)
		w.logger.Warn("webhook delivery failed, retrying", map[string]interface{}{
			"workflowId": workflow.ID,
			"attempt":    attempt + 1,
			"delayMs":    delay.Milliseconds(),
			"error":      lastErr.Error(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, ErrTriggerTimeout
			}
			return nil, fmt.Errorf("%w: %v", ErrWebhookDeliveryFailed, ctx.Err())
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrWebhookDeliveryFailed, lastErr)
}
