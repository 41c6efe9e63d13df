package trigger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflow-chat/internal/common/config"
	"workflow-chat/internal/common/logger"
)

func TestRetryableZeebeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"connection refused", errors.New("rpc error: connection refused"), true},
		{"deadline", errors.New("context deadline exceeded"), true},
		{"unavailable", errors.New("rpc error: code = Unavailable desc = transport closing"), true},
		{"resource exhausted", errors.New("rpc error: code = ResourceExhausted desc = backpressure"), true},
		{"not found", errors.New("rpc error: code = NotFound desc = no such process"), false},
		{"invalid argument", errors.New("rpc error: code = InvalidArgument desc = bad variables"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryableZeebeError(tt.err))
		})
	}
}

func TestZeebeConfigFromApp(t *testing.T) {
	var triggers config.TriggersConfig
	triggers.Zeebe.GatewayAddress = "localhost:26500"
	triggers.Zeebe.UsePlaintextConnection = true
	triggers.Zeebe.RequestTimeout = 12000

	cfg := ZeebeConfigFromApp(triggers)
	assert.Equal(t, "localhost:26500", cfg.GatewayAddress)
	assert.True(t, cfg.UsePlaintextConnection)
	assert.Equal(t, 12*time.Second, cfg.RequestTimeout)
	assert.Equal(t, defaultZeebeConnTimeout, cfg.ConnectionTimeout)

	cfg = ZeebeConfigFromApp(config.TriggersConfig{})
	assert.Equal(t, defaultZeebeTimeout, cfg.RequestTimeout)
}

// TestZeebeTrigger_Integration needs a broker on localhost:26500 and is
// skipped when none answers.
func TestZeebeTrigger_Integration(t *testing.T) {
	trig, err := NewZeebeTrigger(ZeebeConfig{
		GatewayAddress:         "localhost:26500",
		UsePlaintextConnection: true,
		RequestTimeout:         5 * time.Second,
		ConnectionTimeout:      2 * time.Second,
	}, logger.NewTestLogger(t))
	if err != nil {
		t.Skipf("Zeebe broker not available: %v", err)
	}
	defer trig.Close()

	require.NoError(t, trig.HealthCheck(context.Background()))
	t.Log("✅ Zeebe broker reachable")
}
