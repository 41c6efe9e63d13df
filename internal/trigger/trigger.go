package trigger

import (
	"context"
	"errors"
	"time"

	"workflow-chat/internal/models"
)

var (
	ErrWebhookDeliveryFailed = errors.New("WEBHOOK_DELIVERY_FAILED")
	ErrProcessLaunchFailed   = errors.New("PROCESS_LAUNCH_FAILED")
	ErrTriggerTimeout        = errors.New("TRIGGER_TIMEOUT")
)

// Result describes one accepted workflow launch.
type Result struct {
	WorkflowID  string    `json:"workflowId"`
	ExecutionID string    `json:"executionId"`
	Backend     string    `json:"backend"`
	TriggeredAt time.Time `json:"triggeredAt"`
}

// Trigger launches a workflow on some execution backend.
type Trigger interface {
	Execute(ctx context.Context, workflow models.WorkflowSummary, params map[string]interface{}) (*Result, error)
}
