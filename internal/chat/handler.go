package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"workflow-chat/internal/common/config"
	"workflow-chat/internal/common/logger"
	"workflow-chat/internal/common/metrics"
	"workflow-chat/internal/models"
	"workflow-chat/internal/notify"
	"workflow-chat/internal/parser"
	"workflow-chat/internal/search"
	"workflow-chat/internal/trigger"
)

const (
	defaultMaxTurns        = 50
	defaultResponseTimeout = 30 * time.Second
	defaultMaxSuggestions  = 5
)

// Options holds the orchestration settings. The response timeout is hard:
// exceeding it is an error, unlike the parser's silent fallback.
type Options struct {
	MaxConversationTurns int
	ResponseTimeout      time.Duration
	MaxSuggestions       int
}

func DefaultOptions() Options {
	return Options{
		MaxConversationTurns: defaultMaxTurns,
		ResponseTimeout:      defaultResponseTimeout,
		MaxSuggestions:       defaultMaxSuggestions,
	}
}

// OptionsFromConfig converts the application chat section, applying defaults
// for unset values.
func OptionsFromConfig(cfg config.ChatConfig) Options {
	opts := Options{
		MaxConversationTurns: cfg.MaxConversationTurns,
		ResponseTimeout:      time.Duration(cfg.ResponseTimeout) * time.Millisecond,
		MaxSuggestions:       cfg.MaxSuggestions,
	}
	return opts.normalized()
}

func (o Options) normalized() Options {
	if o.MaxConversationTurns < 1 {
		o.MaxConversationTurns = defaultMaxTurns
	}
	if o.ResponseTimeout <= 0 {
		o.ResponseTimeout = defaultResponseTimeout
	}
	if o.MaxSuggestions < 1 {
		o.MaxSuggestions = defaultMaxSuggestions
	}
	return o
}

// WorkflowSearcher finds catalog workflows matching the criteria.
// *search.Service satisfies it.
type WorkflowSearcher interface {
	SearchWorkflows(ctx context.Context, criteria search.Criteria) ([]models.WorkflowSummary, error)
}

// IntentAnalyzer is the optional external NLP service. *analyzer.Client
// satisfies it.
type IntentAnalyzer interface {
	AnalyzeIntent(ctx context.Context, text string, history []models.ChatMessage) (*parser.Intent, error)
}

// Telemetry records per-message spans and outcome measurements.
// *observability.Observability satisfies it.
type Telemetry interface {
	StartSpan(ctx context.Context, name string) (context.Context, trace.Span)
	RecordMessageProcessed(ctx context.Context, outcome string)
	RecordResponseDuration(ctx context.Context, duration time.Duration, outcome string)
}

// Dependencies wires the handler's collaborators. Parser and Logger fall
// back to working defaults; everything else is optional and skipped when nil.
type Dependencies struct {
	Parser    *parser.Parser
	Searcher  WorkflowSearcher
	Analyzer  IntentAnalyzer
	Store     ConversationStore
	Cache     ResponseCache
	Trigger   trigger.Trigger
	Notifier  notify.Notifier
	Telemetry Telemetry
	Logger    logger.Logger
}

// Handler turns chat messages into parsed commands, workflow suggestions,
// and launches.
type Handler struct {
	opts      Options
	parser    *parser.Parser
	searcher  WorkflowSearcher
	analyzer  IntentAnalyzer
	store     ConversationStore
	cache     ResponseCache
	trigger   trigger.Trigger
	notifier  notify.Notifier
	telemetry Telemetry
	logger    logger.Logger
}

func NewHandler(opts Options, deps Dependencies) *Handler {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"component": "chat-handler"})

	p := deps.Parser
	if p == nil {
		p = parser.New(parser.DefaultOptions(), log)
	}

	return &Handler{
		opts:      opts.normalized(),
		parser:    p,
		searcher:  deps.Searcher,
		analyzer:  deps.Analyzer,
		store:     deps.Store,
		cache:     deps.Cache,
		trigger:   deps.Trigger,
		notifier:  deps.Notifier,
		telemetry: deps.Telemetry,
		logger:    log,
	}
}

// HandleMessage answers one user message. Context validation happens before
// any analysis; dependent-service failures come back as ErrWorkflowChat and
// a blown response deadline as ErrConversationTimeout.
func (h *Handler) HandleMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	outcome := "error"
	if h.telemetry != nil {
		var span trace.Span
		ctx, span = h.telemetry.StartSpan(ctx, "chat.handle_message")
		defer func() {
			h.telemetry.RecordMessageProcessed(ctx, outcome)
			h.telemetry.RecordResponseDuration(ctx, time.Since(start), outcome)
			span.End()
		}()
	}

	if err := h.validateContext(req.Context); err != nil {
		outcome = "rejected"
		metrics.ChatRequests.WithLabelValues("rejected").Inc()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.ResponseTimeout)
	defer cancel()

	cacheKey := ResponseCacheKey(parser.Normalize(req.Text), req.Context.SessionID)
	if h.cache != nil {
		if resp, ok := h.cache.Get(ctx, cacheKey); ok {
			resp.FromCache = true
			outcome = "cache_hit"
			metrics.ChatCacheHits.WithLabelValues("hit").Inc()
			metrics.ChatRequests.WithLabelValues("cache_hit").Inc()
			h.logger.Debug("served response from cache", map[string]interface{}{
				"sessionId":  req.Context.SessionID,
				"responseId": resp.ResponseID,
			})
			return resp, nil
		}
		metrics.ChatCacheHits.WithLabelValues("miss").Inc()
	}

	cmd := h.parser.Parse(ctx, req.Text, buildParseContext(req.Context))

	if h.analyzer != nil && h.parser.Options().EnableAdvancedNLP {
		if err := h.adoptRemoteIntent(ctx, req, cmd); err != nil {
			return nil, h.fail(ctx, err, "intent analysis")
		}
	}

	resp := &ChatResponse{
		ResponseID: uuid.New().String(),
		SessionID:  req.Context.SessionID,
		Command:    cmd,
		CreatedAt:  time.Now().UTC(),
	}

	if cmd.Metadata.DisambiguationNeeded {
		h.respondClarification(resp, cmd)
	} else {
		searchCtx := ctx
		if h.telemetry != nil {
			var span trace.Span
			searchCtx, span = h.telemetry.StartSpan(ctx, "chat.workflow_search")
			defer span.End()
		}
		workflows, err := h.findWorkflows(searchCtx, req, cmd)
		if err != nil {
			return nil, h.fail(ctx, err, "workflow search")
		}
		if len(workflows) == 0 {
			h.respondNoMatch(resp, cmd)
		} else {
			h.respondWithWorkflows(ctx, resp, cmd, workflows)
		}
	}

	resp.DurationMS = time.Since(start).Milliseconds()

	h.remember(ctx, req, resp)
	if h.cache != nil {
		h.cache.Set(ctx, cacheKey, resp)
	}

	outcome = resp.Type
	metrics.ChatRequests.WithLabelValues(resp.Type).Inc()
	metrics.ChatResponseDuration.WithLabelValues(resp.Type).Observe(time.Since(start).Seconds())
	h.logger.Info("chat message handled", map[string]interface{}{
		"sessionId":  req.Context.SessionID,
		"type":       resp.Type,
		"intent":     string(cmd.Intent.Primary),
		"confidence": cmd.Confidence,
		"durationMs": resp.DurationMS,
	})
	return resp, nil
}

func (h *Handler) validateContext(c ChatContext) error {
	if strings.TrimSpace(c.SessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidChatContext)
	}
	if len(c.History) > h.opts.MaxConversationTurns {
		return fmt.Errorf("%w: history has %d turns, maximum is %d",
			ErrInvalidChatContext, len(c.History), h.opts.MaxConversationTurns)
	}
	return nil
}

// fail maps a dependency error onto the orchestration error taxonomy: a
// blown response deadline is a conversation timeout, everything else wraps
// into the umbrella error with the cause reachable through errors.Is.
func (h *Handler) fail(ctx context.Context, err error, stage string) error {
	if ctx.Err() == context.DeadlineExceeded {
		metrics.ChatRequests.WithLabelValues("timeout").Inc()
		return fmt.Errorf("%w: %s exceeded the response timeout", ErrConversationTimeout, stage)
	}
	metrics.ChatRequests.WithLabelValues("dependency_error").Inc()
	return fmt.Errorf("%w: %s: %w", ErrWorkflowChat, stage, err)
}

// adoptRemoteIntent asks the external analyzer and keeps whichever intent
// scores higher. The local classifier already ran, so a failing analyzer
// call is a dependency failure, not a parsing one.
func (h *Handler) adoptRemoteIntent(ctx context.Context, req ChatRequest, cmd *parser.ParsedCommand) error {
	remote, err := h.analyzer.AnalyzeIntent(ctx, req.Text, req.Context.History)
	if err != nil {
		return err
	}
	if remote.Confidence <= cmd.Intent.Confidence {
		h.logger.Debug("keeping local intent", map[string]interface{}{
			"local":  string(cmd.Intent.Primary),
			"remote": string(remote.Primary),
		})
		return nil
	}

	h.logger.Debug("adopting remote intent", map[string]interface{}{
		"local":            string(cmd.Intent.Primary),
		"remote":           string(remote.Primary),
		"remoteConfidence": remote.Confidence,
	})
	cmd.Intent = *remote
	if remote.Confidence > cmd.Confidence {
		cmd.Confidence = remote.Confidence
	}
	cmd.Metadata.DisambiguationNeeded = cmd.Confidence < h.parser.Options().ConfidenceThreshold
	return nil
}

func (h *Handler) findWorkflows(ctx context.Context, req ChatRequest, cmd *parser.ParsedCommand) ([]models.WorkflowSummary, error) {
	if h.searcher == nil {
		return nil, nil
	}
	criteria := search.Criteria{
		Text:       req.Text,
		Names:      identifierValues(cmd),
		MaxResults: h.opts.MaxSuggestions * 2,
	}
	return h.searcher.SearchWorkflows(ctx, criteria)
}

func (h *Handler) respondClarification(resp *ChatResponse, cmd *parser.ParsedCommand) {
	resp.Type = ResponseClarification
	resp.Suggestions = suggestionMessages(h.parser.SuggestCorrections(cmd))
	if cmd.Intent.Confidence > 0 {
		resp.Reply = fmt.Sprintf("I'm not quite sure I understood. Did you want to %s?",
			intentPhrase(cmd.Intent.Primary))
	} else {
		resp.Reply = "I'm not quite sure what you'd like to do. Could you rephrase that?"
	}
}

func (h *Handler) respondNoMatch(resp *ChatResponse, cmd *parser.ParsedCommand) {
	resp.Type = ResponseNoMatch
	resp.Suggestions = suggestionMessages(h.parser.SuggestCorrections(cmd))
	if wanted := identifierValues(cmd); len(wanted) > 0 {
		resp.Reply = fmt.Sprintf("I couldn't find a workflow matching %q. Check the name, or give me the exact title in quotes.", wanted[0])
	} else {
		resp.Reply = "I couldn't find a workflow matching your request. Try naming the workflow in quotes."
	}
}

func (h *Handler) respondWithWorkflows(ctx context.Context, resp *ChatResponse, cmd *parser.ParsedCommand, found []models.WorkflowSummary) {
	ranked := rankWorkflows(cmd, found, h.opts.MaxSuggestions, h.logger)
	resp.Workflows = ranked
	resp.Type = ResponseSuggestions

	if h.trigger != nil && cmd.Intent.Primary == parser.IntentExecuteWorkflow && len(ranked) == 1 {
		h.launch(ctx, resp, cmd, ranked[0])
		return
	}

	if len(ranked) == 1 {
		resp.Reply = fmt.Sprintf("I found %q.", ranked[0].Title)
	} else {
		resp.Reply = fmt.Sprintf("I found %d workflows that could match. Which one did you mean?", len(ranked))
		titles := make([]string, len(ranked))
		for i, wf := range ranked {
			titles[i] = wf.Title
		}
		resp.Suggestions = titles
	}
}

func (h *Handler) launch(ctx context.Context, resp *ChatResponse, cmd *parser.ParsedCommand, wf models.WorkflowSummary) {
	result, err := h.trigger.Execute(ctx, wf, parameterMap(cmd))
	if err != nil {
		h.logger.Error("workflow trigger failed", map[string]interface{}{
			"workflowId": wf.ID,
			"error":      err.Error(),
		})
		h.escalate(ctx, cmd, wf, err)
		resp.Reply = fmt.Sprintf("I found %q but couldn't start it. Please try again.", wf.Title)
		return
	}

	resp.Type = ResponseTriggered
	resp.Execution = result
	if result.ExecutionID != "" {
		resp.Reply = fmt.Sprintf("Started %q (execution %s).", wf.Title, result.ExecutionID)
	} else {
		resp.Reply = fmt.Sprintf("Started %q.", wf.Title)
	}
}

// escalate notifies operators about failed launches of pressing commands.
// Best effort; never fails the chat response.
func (h *Handler) escalate(ctx context.Context, cmd *parser.ParsedCommand, wf models.WorkflowSummary, cause error) {
	if h.notifier == nil {
		return
	}
	switch cmd.Intent.Urgency {
	case parser.UrgencyHigh, parser.UrgencyUrgent, parser.UrgencyEmergency:
	default:
		return
	}

	subject := fmt.Sprintf("Urgent workflow launch failed: %s", wf.Title)
	message := fmt.Sprintf("Launching %q (id %s) failed: %v", wf.Title, wf.ID, cause)
	if err := h.notifier.Notify(ctx, subject, message); err != nil {
		h.logger.Warn("escalation notification failed", map[string]interface{}{
			"workflowId": wf.ID,
			"error":      err.Error(),
		})
	}
}

// remember appends the turn to the conversation store. Best effort; a
// failing store degrades to stateless behavior.
func (h *Handler) remember(ctx context.Context, req ChatRequest, resp *ChatResponse) {
	if h.store == nil {
		return
	}
	now := time.Now().UTC()

	session, err := h.store.Retrieve(ctx, req.Context.SessionID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			h.logger.Warn("conversation store read failed", map[string]interface{}{
				"sessionId": req.Context.SessionID,
				"error":     err.Error(),
			})
			return
		}
		session = &models.ChatSession{
			SessionID: req.Context.SessionID,
			UserID:    req.Context.UserID,
			CreatedAt: now,
		}
	}

	session.Messages = append(session.Messages,
		models.ChatMessage{Role: models.RoleUser, Content: req.Text, Timestamp: now},
		models.ChatMessage{Role: models.RoleAssistant, Content: resp.Reply, Timestamp: now},
	)
	session.LastActiveAt = now

	if err := h.store.Store(ctx, session); err != nil {
		h.logger.Warn("conversation store write failed", map[string]interface{}{
			"sessionId": req.Context.SessionID,
			"error":     err.Error(),
		})
	}
}

func buildParseContext(c ChatContext) *parser.ParseContext {
	pctx := &parser.ParseContext{
		AvailableWorkflows: c.AvailableWorkflows,
		UserPreferences:    c.Preferences,
	}
	for _, m := range c.History {
		if m.Role == models.RoleUser {
			pctx.ConversationHistory = append(pctx.ConversationHistory, m.Content)
		}
	}
	return pctx
}

func suggestionMessages(suggestions []parser.CorrectionSuggestion) []string {
	if len(suggestions) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		msgs = append(msgs, s.Message)
	}
	return msgs
}

// parameterMap flattens the extracted parameters for a trigger call; when a
// name repeats, the last occurrence wins.
func parameterMap(cmd *parser.ParsedCommand) map[string]interface{} {
	if len(cmd.Entities.Parameters) == 0 {
		return nil
	}
	params := make(map[string]interface{}, len(cmd.Entities.Parameters))
	for _, p := range cmd.Entities.Parameters {
		params[p.Name] = p.Value
	}
	return params
}

func intentPhrase(intent parser.IntentType) string {
	switch intent {
	case parser.IntentExecuteWorkflow:
		return "run a workflow"
	case parser.IntentCheckStatus:
		return "check an execution's status"
	case parser.IntentCancelExecution:
		return "cancel a running execution"
	case parser.IntentListWorkflows:
		return "list your workflows"
	case parser.IntentGetHistory:
		return "see execution history"
	case parser.IntentScheduleExecution:
		return "schedule a workflow"
	case parser.IntentModifyParameters:
		return "change workflow parameters"
	case parser.IntentDuplicateWorkflow:
		return "duplicate a workflow"
	case parser.IntentInformationRequest:
		return "get information about a workflow"
	case parser.IntentTroubleshoot:
		return "troubleshoot a workflow"
	}
	return "do that"
}
