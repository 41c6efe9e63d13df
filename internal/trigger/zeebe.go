package trigger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"workflow-chat/internal/common/config"
	"workflow-chat/internal/common/logger"
	"workflow-chat/internal/models"
)

const (
	defaultZeebeTimeout     = 30 * time.Second
	defaultZeebeConnTimeout = 10 * time.Second
	zeebeMaxRetries         = 3
	zeebeRetryBaseDelay     = 500 * time.Millisecond
	zeebeRetryMaxDelay      = 5 * time.Second
)

// ZeebeConfig holds the broker connection settings.
type ZeebeConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	RequestTimeout         time.Duration
	ConnectionTimeout      time.Duration
}

// ZeebeConfigFromApp converts the application triggers section.
func ZeebeConfigFromApp(cfg config.TriggersConfig) ZeebeConfig {
	c := ZeebeConfig{
		GatewayAddress:         cfg.Zeebe.GatewayAddress,
		UsePlaintextConnection: cfg.Zeebe.UsePlaintextConnection,
		RequestTimeout:         time.Duration(cfg.Zeebe.RequestTimeout) * time.Millisecond,
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultZeebeTimeout
	}
	c.ConnectionTimeout = defaultZeebeConnTimeout
	return c
}

// ZeebeTrigger launches workflows as BPMN process instances. The workflow id
// doubles as the BPMN process id.
type ZeebeTrigger struct {
	client zbc.Client
	config ZeebeConfig
	logger logger.Logger
}

// NewZeebeTrigger dials the gateway and verifies it with a topology request.
func NewZeebeTrigger(cfg ZeebeConfig, log logger.Logger) (*ZeebeTrigger, error) {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultZeebeTimeout
	}
	if cfg.ConnectionTimeout <= 0 {
		cfg.ConnectionTimeout = defaultZeebeConnTimeout
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	client, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.GatewayAddress,
		UsePlaintextConnection: cfg.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create zeebe client: %v", ErrProcessLaunchFailed, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectionTimeout)
	defer cancel()
	if _, err := client.NewTopologyCommand().Send(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: broker at %s unreachable: %v",
			ErrProcessLaunchFailed, cfg.GatewayAddress, err)
	}

	return &ZeebeTrigger{
		client: client,
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "zeebe-trigger"}),
	}, nil
}

// Close releases the gateway connection.
func (z *ZeebeTrigger) Close() error {
	return z.client.Close()
}

// HealthCheck pings the broker topology.
func (z *ZeebeTrigger) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, z.config.ConnectionTimeout)
	defer cancel()
	if _, err := z.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// Execute creates a process instance for the workflow, retrying transient
// broker failures with exponential backoff.
func (z *ZeebeTrigger) Execute(ctx context.Context, workflow models.WorkflowSummary, params map[string]interface{}) (*Result, error) {
	if workflow.ID == "" {
		return nil, fmt.Errorf("%w: workflow has no id", ErrProcessLaunchFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, z.config.RequestTimeout)
	defer cancel()

	triggeredAt := time.Now().UTC()

	var lastErr error
	for attempt := 0; attempt <= zeebeMaxRetries; attempt++ {
		cmd, err := z.client.NewCreateInstanceCommand().
			BPMNProcessId(workflow.ID).
			LatestVersion().
			VariablesFromMap(params)
		if err != nil {
			return nil, fmt.Errorf("%w: encode variables: %v", ErrProcessLaunchFailed, err)
		}

		resp, err := cmd.Send(ctx)
		if err == nil {
			z.logger.Info("process instance created", map[string]interface{}{
				"workflowId":         workflow.ID,
				"processInstanceKey": resp.GetProcessInstanceKey(),
				"version":            resp.GetVersion(),
				"attempts":           attempt + 1,
			})
			return &Result{
				WorkflowID:  workflow.ID,
				ExecutionID: strconv.FormatInt(resp.GetProcessInstanceKey(), 10),
				Backend:     "zeebe",
				TriggeredAt: triggeredAt,
			}, nil
		}

		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTriggerTimeout
		}
		lastErr = err
		if !retryableZeebeError(err) || attempt == zeebeMaxRetries {
			break
		}

		delay := zeebeRetryBaseDelay * time.Duration(1<<attempt)
		if delay > zeebeRetryMaxDelay {
			delay = zeebeRetryMaxDelay
		}
		z.logger.Warn("process launch failed, retrying", map[string]interface{}{
			"workflowId": workflow.ID,
			"attempt":    attempt + 1,
			"delayMs":    delay.Milliseconds(),
			"error":      err.Error(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, ErrTriggerTimeout
			}
			return nil, fmt.Errorf("%w: %v", ErrProcessLaunchFailed, ctx.Err())
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrProcessLaunchFailed, lastErr)
}

// retryableZeebeError reports whether the broker failure is transient.
func retryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
		"resource exhausted",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
