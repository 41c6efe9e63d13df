package parser

import (
	"time"

	"workflow-chat/internal/common/config"
)

// Default option values.
const (
	DefaultMaxAlternatives     = 3
	DefaultConfidenceThreshold = 0.6
	DefaultParsingTimeout      = 5000 * time.Millisecond
)

// Options configures a Parser. The zero value is not usable; start from
// DefaultOptions or FromConfig and override fields as needed.
type Options struct {
	EnableAdvancedNLP                bool
	EnableContextualAnalysis         bool
	EnableAlternativeInterpretations bool
	MaxAlternatives                  int
	ConfidenceThreshold              float64
	EnableParameterInference         bool
	EnableTemporalParsing            bool
	ParsingTimeout                   time.Duration
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	return Options{
		EnableAdvancedNLP:                false,
		EnableContextualAnalysis:         true,
		EnableAlternativeInterpretations: true,
		MaxAlternatives:                  DefaultMaxAlternatives,
		ConfidenceThreshold:              DefaultConfidenceThreshold,
		EnableParameterInference:         true,
		EnableTemporalParsing:            true,
		ParsingTimeout:                   DefaultParsingTimeout,
	}
}

// FromConfig builds Options from the loaded application configuration.
func FromConfig(cfg config.ParserConfig) Options {
	return Options{
		EnableAdvancedNLP:                cfg.EnableAdvancedNLP,
		EnableContextualAnalysis:         cfg.EnableContextualAnalysis,
		EnableAlternativeInterpretations: cfg.EnableAlternativeInterpretations,
		MaxAlternatives:                  cfg.MaxAlternatives,
		ConfidenceThreshold:              cfg.ConfidenceThreshold,
		EnableParameterInference:         cfg.EnableParameterInference,
		EnableTemporalParsing:            cfg.EnableTemporalParsing,
		ParsingTimeout:                   time.Duration(cfg.ParsingTimeout) * time.Millisecond,
	}.normalized()
}

// normalized replaces out-of-range values with their defaults so a
// misconfigured caller degrades to standard behavior instead of failing.
func (o Options) normalized() Options {
	if o.MaxAlternatives < 0 {
		o.MaxAlternatives = DefaultMaxAlternatives
	}
	if o.ConfidenceThreshold < 0 || o.ConfidenceThreshold > 1 {
		o.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if o.ParsingTimeout <= 0 {
		o.ParsingTimeout = DefaultParsingTimeout
	}
	return o
}
