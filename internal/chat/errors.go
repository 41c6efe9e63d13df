package chat

import "errors"

var (
	ErrInvalidChatContext  = errors.New("INVALID_CHAT_CONTEXT")
	ErrConversationTimeout = errors.New("CONVERSATION_TIMEOUT")
	ErrWorkflowChat        = errors.New("WORKFLOW_CHAT_ERROR")
	ErrSessionNotFound     = errors.New("SESSION_NOT_FOUND")
)
