// Package protocol defines the WebSocket message protocol between chat clients and the service.
package protocol

import "github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"

// Message types from client to service
const (
	TypeChat  = "chat"
	TypeClear = "clear"
)

// Message types from service to client
const (
	TypeReply   = "reply"
	TypeCleared = "cleared"
	TypeError   = "error"
)

// Error codes
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeMissingSession = "missing_session"
	ErrorCodeClearFailed    = "clear_failed"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatMessage is sent by a client to run one turn.
type ChatMessage struct {
	BaseMessage
	Text        string `json:"text,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

// ClearMessage is sent by a client to drop a session's history.
type ClearMessage struct {
	BaseMessage
}

// ReplyMessage carries the result of a chat turn. The chat response fields
// are inlined so the frame matches the HTTP response body.
type ReplyMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	domain.ChatResponse
}

// ClearedMessage is sent to every connection bound to a cleared session.
type ClearedMessage struct {
	BaseMessage
	Message string `json:"message,omitempty"`
}

// ErrorMessage reports a protocol-level failure.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}
