package chat

import (
	"time"

	"workflow-chat/internal/models"
	"workflow-chat/internal/parser"
	"workflow-chat/internal/trigger"
)

// ChatContext carries the conversation state accompanying one message.
// It is validated before any analysis runs.
type ChatContext struct {
	SessionID          string               `json:"sessionId"`
	UserID             string               `json:"userId,omitempty"`
	History            []models.ChatMessage `json:"history,omitempty"`
	AvailableWorkflows []string             `json:"availableWorkflows,omitempty"`
	Preferences        map[string]string    `json:"preferences,omitempty"`
}

// ChatRequest is one user utterance plus its context.
type ChatRequest struct {
	Text    string      `json:"text"`
	Context ChatContext `json:"context"`
}

// Response types, used as the chat_requests_total outcome label too.
const (
	ResponseClarification = "clarification"
	ResponseSuggestions   = "suggestions"
	ResponseNoMatch       = "no_match"
	ResponseTriggered     = "triggered"
)

// ChatResponse is the orchestration layer's answer. Cached hits return the
// original response with FromCache set; the ResponseID stays stable.
type ChatResponse struct {
	ResponseID  string                   `json:"responseId"`
	SessionID   string                   `json:"sessionId"`
	Reply       string                   `json:"reply"`
	Type        string                   `json:"type"`
	Command     *parser.ParsedCommand    `json:"command,omitempty"`
	Workflows   []models.WorkflowSummary `json:"workflows,omitempty"`
	Suggestions []string                 `json:"suggestions,omitempty"`
	Execution   *trigger.Result          `json:"execution,omitempty"`
	FromCache   bool                     `json:"fromCache"`
	CreatedAt   time.Time                `json:"createdAt"`
	DurationMS  int64                    `json:"durationMs"`
}
