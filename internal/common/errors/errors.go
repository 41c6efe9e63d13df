// Package errors provides standardized error handling for the workflow chat service.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Chat / Conversation Errors
const (
	ErrCodeInvalidChatContext  ErrorCode = "INVALID_CHAT_CONTEXT"
	ErrCodeConversationTimeout ErrorCode = "CONVERSATION_TIMEOUT"
	ErrCodeWorkflowChatFailed  ErrorCode = "WORKFLOW_CHAT_ERROR"

	ErrCodeMemoryStoreFailed ErrorCode = "MEMORY_STORE_FAILED"
	ErrCodeSessionNotFound   ErrorCode = "SESSION_NOT_FOUND"

	ErrCodeIntentAnalysisFailed ErrorCode = "INTENT_ANALYSIS_FAILED"
	ErrCodeIntentAPITimeout     ErrorCode = "INTENT_API_TIMEOUT"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeDatabaseConnectionFailed  ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed      ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout              ErrorCode = "QUERY_TIMEOUT"
	ErrCodeWorkflowNotFound          ErrorCode = "WORKFLOW_NOT_FOUND"
	ErrCodeParameterValidationFailed ErrorCode = "PARAMETER_VALIDATION_FAILED"

	ErrCodeTriggerExecutionFailed ErrorCode = "TRIGGER_EXECUTION_FAILED"
	ErrCodeTriggerTimeout         ErrorCode = "TRIGGER_TIMEOUT"
	ErrCodeWebhookDeliveryFailed  ErrorCode = "WEBHOOK_DELIVERY_FAILED"
	ErrCodeProcessLaunchFailed    ErrorCode = "PROCESS_LAUNCH_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Trigger Error Integration
// ==========================

// TriggerError represents an error surfaced to automation platforms when a
// workflow launch fails. Variables ride along into escalation payloads.
type TriggerError struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Retries   int                    `json:"retries"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

func (e *TriggerError) Error() string {
	return fmt.Sprintf("TriggerError[%s]: %s", e.Code, e.Message)
}

// ToVariables returns a map suitable for escalation and failure payloads.
func (e *TriggerError) ToVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.Variables != nil {
		for k, v := range e.Variables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidChatContextError creates a non-retryable chat context validation error.
func NewInvalidChatContextError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidChatContext,
		Message:   "Invalid chat context",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConversationTimeoutError creates a retryable conversation timeout error.
func NewConversationTimeoutError(timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeConversationTimeout,
		Message:   "Conversation response timeout",
		Details:   fmt.Sprintf("response exceeded %s deadline", timeout),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkflowChatError wraps a dependent-service failure into the umbrella chat error.
func NewWorkflowChatError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowChatFailed,
		Message:   "Workflow chat processing failed",
		Details:   fmt.Sprintf("stage: %s, error: %s", stage, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMemoryStoreFailedError creates a retryable conversation memory error.
func NewMemoryStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMemoryStoreFailed,
		Message:   "Conversation memory operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError creates a non-retryable session lookup error.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Conversation session not found",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIntentAnalysisFailedError creates a retryable intent analysis error.
func NewIntentAnalysisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIntentAnalysisFailed,
		Message:   "Intent analysis API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIntentAPITimeoutError creates a retryable intent API timeout error.
func NewIntentAPITimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeIntentAPITimeout,
		Message:   "Intent analysis API timeout",
		Details:   "API call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Workflow search query error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Workflow search timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(indexName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexNotFound,
		Message:   "Elasticsearch index not found",
		Details:   fmt.Sprintf("indexName: %s", indexName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkflowNotFoundError creates a non-retryable workflow lookup error.
func NewWorkflowNotFoundError(workflowID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowNotFound,
		Message:   "Workflow not found in catalog",
		Details:   fmt.Sprintf("workflowId: %s", workflowID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewParameterValidationFailedError creates a non-retryable parameter validation error.
func NewParameterValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeParameterValidationFailed,
		Message:   "Workflow parameter validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTriggerExecutionFailedError creates a retryable trigger execution error.
func NewTriggerExecutionFailedError(triggerType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTriggerExecutionFailed,
		Message:   "Workflow trigger execution failed",
		Details:   fmt.Sprintf("trigger: %s, error: %s", triggerType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTriggerTimeoutError creates a retryable trigger timeout error.
func NewTriggerTimeoutError(triggerType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTriggerTimeout,
		Message:   "Workflow trigger timeout",
		Details:   fmt.Sprintf("trigger: %s", triggerType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWebhookDeliveryFailedError creates a retryable webhook delivery error.
func NewWebhookDeliveryFailedError(statusCode int, err error) *StandardError {
	details := fmt.Sprintf("statusCode: %d", statusCode)
	if err != nil {
		details = fmt.Sprintf("statusCode: %d, error: %s", statusCode, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeWebhookDeliveryFailed,
		Message:   "Webhook delivery failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProcessLaunchFailedError creates a retryable process launch error.
func NewProcessLaunchFailedError(processID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProcessLaunchFailed,
		Message:   "Process instance launch failed",
		Details:   fmt.Sprintf("processId: %s, error: %s", processID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion for Triggers
// ==========================

// TriggerErrorMapping maps internal error codes to trigger error codes (same as internal).
var TriggerErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidChatContext:            "INVALID_CHAT_CONTEXT",
	ErrCodeConversationTimeout:           "CONVERSATION_TIMEOUT",
	ErrCodeWorkflowChatFailed:            "WORKFLOW_CHAT_ERROR",
	ErrCodeMemoryStoreFailed:             "MEMORY_STORE_FAILED",
	ErrCodeSessionNotFound:               "SESSION_NOT_FOUND",
	ErrCodeIntentAnalysisFailed:          "INTENT_ANALYSIS_FAILED",
	ErrCodeIntentAPITimeout:              "INTENT_API_TIMEOUT",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchQueryFailed:             "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:                 "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:                 "INDEX_NOT_FOUND",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeWorkflowNotFound:              "WORKFLOW_NOT_FOUND",
	ErrCodeParameterValidationFailed:     "PARAMETER_VALIDATION_FAILED",
	ErrCodeTriggerExecutionFailed:        "TRIGGER_EXECUTION_FAILED",
	ErrCodeTriggerTimeout:                "TRIGGER_TIMEOUT",
	ErrCodeWebhookDeliveryFailed:         "WEBHOOK_DELIVERY_FAILED",
	ErrCodeProcessLaunchFailed:           "PROCESS_LAUNCH_FAILED",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeMemoryStoreFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeIntentAnalysisFailed,
		ErrCodeTriggerExecutionFailed,
		ErrCodeWebhookDeliveryFailed,
		ErrCodeProcessLaunchFailed,
		ErrCodeNotificationSendFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout,
		ErrCodeIntentAPITimeout,
		ErrCodeTriggerTimeout:
		return 2 // Partial retry for timeouts

	case ErrCodeConversationTimeout:
		return 1 // Caller decides whether a second attempt is worth it

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToTriggerError converts a StandardError into a TriggerError payload.
func ConvertToTriggerError(stdErr *StandardError) *TriggerError {
	code, exists := TriggerErrorMapping[stdErr.Code]
	if !exists {
		code = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &TriggerError{
		Code:      code,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		Variables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CHAT") || strings.Contains(codeStr, "CONVERSATION"):
		return "CHAT"
	case strings.Contains(codeStr, "MEMORY") || strings.Contains(codeStr, "SESSION"):
		return "MEMORY"
	case strings.Contains(codeStr, "INTENT"):
		return "INTENT"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "WORKFLOW_NOT_FOUND"):
		return "DATABASE"
	case strings.Contains(codeStr, "TRIGGER") || strings.Contains(codeStr, "WEBHOOK") || strings.Contains(codeStr, "PROCESS"):
		return "TRIGGER"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
