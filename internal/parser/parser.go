package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"workflow-chat/internal/common/logger"
	"workflow-chat/internal/common/metrics"
)

// ============================================
// PARSER FACADE
// ============================================

// Intent confidence levels that trigger validation warnings and correction
// suggestions.
const (
	intentWarnConfidence    = 0.7
	intentClarifyConfidence = 0.8
)

// Parser turns free-form workflow commands into structured ParsedCommands.
// A Parser is immutable after construction and safe for concurrent use.
type Parser struct {
	opts Options
	lib  *PatternLibrary
	log  logger.Logger

	// parseDelay artificially slows the async pipeline; tests use it to
	// force the timeout fallback.
	parseDelay time.Duration
}

// New builds a Parser with the default pattern library.
func New(opts Options, log logger.Logger) *Parser {
	return NewWithLibrary(opts, NewPatternLibrary(), log)
}

// NewWithLibrary builds a Parser around a caller-supplied pattern library.
func NewWithLibrary(opts Options, lib *PatternLibrary, log logger.Logger) *Parser {
	if lib == nil {
		lib = NewPatternLibrary()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Parser{opts: opts.normalized(), lib: lib, log: log}
}

// Options returns the effective configuration.
func (p *Parser) Options() Options {
	return p.opts
}

// Parse analyzes a command asynchronously and falls back to a synchronous
// parse when the configured timeout (or the caller's context) expires first.
// Parsing never fails on time: the caller always receives a result.
func (p *Parser) Parse(ctx context.Context, text string, pctx *ParseContext) *ParsedCommand {
	ch := make(chan *ParsedCommand, 1)
	go func() {
		if p.parseDelay > 0 {
			time.Sleep(p.parseDelay)
		}
		ch <- p.parse(text, pctx, "async")
	}()

	timer := time.NewTimer(p.opts.ParsingTimeout)
	defer timer.Stop()

	select {
	case cmd := <-ch:
		return cmd
	case <-ctx.Done():
	case <-timer.C:
	}

	p.log.Warn("async parse exceeded deadline, falling back to sync", map[string]interface{}{
		"timeoutMs":  p.opts.ParsingTimeout.Milliseconds(),
		"textLength": len(text),
	})
	metrics.ParseTimeoutFallbacks.Inc()

	cmd := p.parse(text, pctx, "fallback")
	cmd.Metadata.UsedFallback = true
	return cmd
}

// ParseSync analyzes a command on the calling goroutine.
func (p *Parser) ParseSync(text string, pctx *ParseContext) *ParsedCommand {
	return p.parse(text, pctx, "sync")
}

// parse runs the full pipeline: normalize, classify, extract, sketch
// structure, score, derive alternatives. Empty input flows through and
// produces a low-confidence result instead of an error.
func (p *Parser) parse(text string, pctx *ParseContext, mode string) *ParsedCommand {
	start := time.Now()

	normalized := Normalize(text)
	intent := p.classifyIntent(normalized)
	entities := p.extractEntities(text, pctx)
	structure := p.analyzeStructure(text, normalized)
	confidence := p.combineConfidence(intent, entities, structure)

	cmd := &ParsedCommand{
		ParseID:        uuid.New().String(),
		OriginalText:   text,
		NormalizedText: normalized,
		Intent:         intent,
		Entities:       entities,
		Structure:      structure,
		Confidence:     confidence,
		Alternatives:   p.buildAlternatives(intent),
		Metadata: ParseMetadata{
			Timestamp:            start,
			DurationMS:           time.Since(start).Milliseconds(),
			WordCount:            len(strings.Fields(normalized)),
			CharCount:            len(text),
			HasQuotedText:        strings.Contains(text, `"`),
			HasParameterSyntax:   strings.ContainsAny(text, "=:"),
			DisambiguationNeeded: confidence < p.opts.ConfidenceThreshold,
		},
	}

	metrics.CommandsParsed.WithLabelValues(string(intent.Primary)).Inc()
	metrics.ParseDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	p.log.Debug("command parsed", map[string]interface{}{
		"parseId":     cmd.ParseID,
		"mode":        mode,
		"intent":      string(intent.Primary),
		"confidence":  confidence,
		"identifiers": len(entities.Workflows),
		"parameters":  len(entities.Parameters),
		"durationMs":  cmd.Metadata.DurationMS,
	})
	return cmd
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]+`)

// Normalize lower-cases the input, strips punctuation and collapses
// whitespace. Intent and structure matching run on this form; entity
// extraction always reads the original text.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// ============================================
// VALIDATION AND CORRECTIONS
// ============================================

// ValidateParsedCommand checks a parse result for actionability. Errors mark
// the command non-executable; warnings flag weak spots the caller may want
// to confirm with the user.
func (p *Parser) ValidateParsedCommand(cmd *ParsedCommand) ValidationResult {
	result := ValidationResult{IsValid: true}

	if len(cmd.Entities.Workflows) == 0 {
		result.Errors = append(result.Errors, ValidationIssue{
			Type:    IssueMissingWorkflow,
			Message: "no workflow could be identified in the command",
		})
	}

	if cmd.Confidence < p.opts.ConfidenceThreshold {
		result.Warnings = append(result.Warnings, ValidationIssue{
			Type:    IssueLowConfidence,
			Message: fmt.Sprintf("overall confidence %.2f is below the %.2f threshold", cmd.Confidence, p.opts.ConfidenceThreshold),
		})
	}
	if cmd.Intent.Confidence < intentWarnConfidence {
		result.Warnings = append(result.Warnings, ValidationIssue{
			Type:    IssueLowIntentConfidence,
			Message: fmt.Sprintf("intent %q was detected with low confidence %.2f", cmd.Intent.Primary, cmd.Intent.Confidence),
		})
	}
	if cmd.Intent.Primary == IntentExecuteWorkflow && len(cmd.Entities.Parameters) == 0 {
		result.Warnings = append(result.Warnings, ValidationIssue{
			Type:    IssueMissingParameters,
			Message: "execution request carries no parameters",
		})
	}

	for _, s := range p.SuggestCorrections(cmd) {
		result.Suggestions = append(result.Suggestions, s.Message)
	}
	result.IsValid = len(result.Errors) == 0
	return result
}

// SuggestCorrections derives ranked, human-readable ways to sharpen an
// ambiguous command.
func (p *Parser) SuggestCorrections(cmd *ParsedCommand) []CorrectionSuggestion {
	var suggestions []CorrectionSuggestion

	if cmd.Intent.Confidence < intentClarifyConfidence {
		var candidates []string
		for _, alt := range cmd.Alternatives {
			candidates = append(candidates, string(alt.Intent))
		}
		suggestions = append(suggestions, CorrectionSuggestion{
			Type:       SuggestionIntentClarification,
			Message:    fmt.Sprintf("it looks like you want to %s; start with a verb like run, check or cancel to make it explicit", strings.ReplaceAll(string(cmd.Intent.Primary), "_", " ")),
			Candidates: candidates,
		})
	}

	if cmd.Intent.Primary == IntentExecuteWorkflow && len(cmd.Entities.Parameters) == 0 {
		suggestions = append(suggestions, CorrectionSuggestion{
			Type:    SuggestionParameterCompletion,
			Message: `add parameters as key="value" so the workflow knows what to run with`,
		})
	}

	if len(cmd.Entities.Workflows) > 1 {
		var names []string
		seen := map[string]bool{}
		for _, id := range cmd.Entities.Workflows {
			if !seen[id.Value] {
				seen[id.Value] = true
				names = append(names, id.Value)
			}
		}
		suggestions = append(suggestions, CorrectionSuggestion{
			Type:       SuggestionWorkflowDisambiguation,
			Message:    "several workflow references were found; quote the exact name of the one you mean",
			Candidates: names,
		})
	}
	return suggestions
}
