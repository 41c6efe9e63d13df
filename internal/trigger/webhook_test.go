package trigger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflow-chat/internal/common/config"
	"workflow-chat/internal/common/logger"
	"workflow-chat/internal/models"
)

func newTestWebhookTrigger(t *testing.T, baseURL string, maxRetries int) *WebhookTrigger {
	t.Helper()
	return NewWebhookTrigger(WebhookConfig{
		BaseURL:    baseURL,
		AuthToken:  "hook-token",
		Timeout:    2 * time.Second,
		MaxRetries: maxRetries,
	}, logger.NewTestLogger(t))
}

func TestWebhookTrigger_Execute_Success(t *testing.T) {
	var gotPayload webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhook/workflows/wf-1", r.URL.Path)
		assert.Equal(t, "Bearer hook-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"executionId": "exec-9"}`))
	}))
	defer srv.Close()

	trig := newTestWebhookTrigger(t, srv.URL, 0)
	result, err := trig.Execute(context.Background(),
		models.WorkflowSummary{ID: "wf-1", Title: "Email Campaign"},
		map[string]interface{}{"email": "a@b.com"})
	require.NoError(t, err)

	assert.Equal(t, "wf-1", gotPayload.WorkflowID)
	assert.Equal(t, "Email Campaign", gotPayload.Title)
	assert.Equal(t, "a@b.com", gotPayload.Parameters["email"])
	assert.False(t, gotPayload.TriggeredAt.IsZero())

	assert.Equal(t, "wf-1", result.WorkflowID)
	assert.Equal(t, "exec-9", result.ExecutionID)
	assert.Equal(t, "webhook", result.Backend)
	assert.False(t, result.TriggeredAt.IsZero())
}

func TestWebhookTrigger_Execute_EmptyAnswerBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	trig := newTestWebhookTrigger(t, srv.URL, 0)
	result, err := trig.Execute(context.Background(), models.WorkflowSummary{ID: "wf-1"}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.ExecutionID)
}

func TestWebhookTrigger_Execute_RetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"executionId": "exec-2"}`))
	}))
	defer srv.Close()

	trig := newTestWebhookTrigger(t, srv.URL, 2)
	result, err := trig.Execute(context.Background(), models.WorkflowSummary{ID: "wf-1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "exec-2", result.ExecutionID)
}

func TestWebhookTrigger_Execute_ClientErrorFailsFast(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	trig := newTestWebhookTrigger(t, srv.URL, 3)
	_, err := trig.Execute(context.Background(), models.WorkflowSummary{ID: "wf-1"}, nil)
	assert.ErrorIs(t, err, ErrWebhookDeliveryFailed)
	assert.Equal(t, 1, calls)
}

func TestWebhookTrigger_Execute_ExhaustsRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	trig := newTestWebhookTrigger(t, srv.URL, 1)
	_, err := trig.Execute(context.Background(), models.WorkflowSummary{ID: "wf-1"}, nil)
	assert.ErrorIs(t, err, ErrWebhookDeliveryFailed)
	assert.Equal(t, 2, calls)
}

func TestWebhookTrigger_Execute_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	trig := NewWebhookTrigger(WebhookConfig{
		BaseURL: srv.URL,
		Timeout: 20 * time.Millisecond,
	}, logger.NewTestLogger(t))
	_, err := trig.Execute(context.Background(), models.WorkflowSummary{ID: "wf-1"}, nil)
	assert.ErrorIs(t, err, ErrTriggerTimeout)
}

func TestWebhookTrigger_Execute_Misconfigured(t *testing.T) {
	trig := NewWebhookTrigger(WebhookConfig{}, logger.NewTestLogger(t))
	_, err := trig.Execute(context.Background(), models.WorkflowSummary{ID: "wf-1"}, nil)
	assert.ErrorIs(t, err, ErrWebhookDeliveryFailed)

	trig = newTestWebhookTrigger(t, "http://hooks.local", 0)
	_, err = trig.Execute(context.Background(), models.WorkflowSummary{}, nil)
	assert.ErrorIs(t, err, ErrWebhookDeliveryFailed)
}

func TestWebhookConfigFromApp(t *testing.T) {
	var triggers config.TriggersConfig
	triggers.Webhook.BaseURL = "http://hooks.local"
	triggers.Webhook.Timeout = 1500
	triggers.Webhook.MaxRetries = -4

	cfg := WebhookConfigFromApp(triggers)
	assert.Equal(t, "http://hooks.local", cfg.BaseURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 0, cfg.MaxRetries)

	cfg = WebhookConfigFromApp(config.TriggersConfig{})
	assert.Equal(t, defaultWebhookTimeout, cfg.Timeout)
}
