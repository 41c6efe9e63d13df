// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parser_commands_parsed_total",
			Help: "Total number of commands parsed, by detected intent",
		},
		[]string{"intent"},
	)

	ParseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "parser_parse_duration_seconds",
			Help: "Duration of command parsing in seconds",
		},
		[]string{"mode"},
	)

	ParseTimeoutFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parser_timeout_fallbacks_total",
			Help: "Total number of async parses that fell back to the sync pipeline",
		},
	)

	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Total number of chat requests processed, by outcome",
		},
		[]string{"outcome"},
	)

	ChatResponseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chat_response_duration_seconds",
			Help: "Duration of chat response handling in seconds",
		},
		[]string{"outcome"},
	)

	ChatCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_cache_events_total",
			Help: "Response cache hits and misses",
		},
		[]string{"result"},
	)

	ConversationSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_conversation_sessions",
			Help: "Number of conversation sessions currently held in memory",
		},
	)
)
