package message

import (
	"errors"
	"time"
)

// Error classes surfaced by the message service. Handlers map them to
// status codes with errors.Is; anything else is a storage fault.
var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
)

// Message is one row of the append-only ledger. Rows are immutable; the
// content field holds either plain text or a serialized attachment
// reference (see codec.go). A nil content means "no content".
type Message struct {
	ID         uint64    `json:"id" gorm:"primaryKey"`
	SenderID   uint64    `json:"sender_id" gorm:"not null;index"`
	ReceiverID uint64    `json:"receiver_id" gorm:"not null;index"`
	Content    *string   `json:"message,omitempty" gorm:"column:message"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

type SendMessageRequest struct {
	ReceiverID uint64 `json:"receiver_id"`
	Message    string `json:"message"`
	File       string `json:"file,omitempty"`      // base64 payload
	FileName   string `json:"fileName,omitempty"`
	FileType   string `json:"fileType,omitempty"`
}

type SendMessageResponse struct {
	Message   string `json:"message"`
	MessageID uint64 `json:"message_id"`
}

// DecodedMessage is the display projection of a ledger row, shaped like
// the rows the legacy API returned.
type DecodedMessage struct {
	ID         uint64  `json:"id"`
	SenderID   uint64  `json:"sender_id"`
	ReceiverID uint64  `json:"receiver_id"`
	Message    string  `json:"message"`
	FileData   *string `json:"fileData"`
	FileURL    *string `json:"fileUrl"`
	FileName   string  `json:"fileName,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// ConversationSummary is one entry of the chat list: the counterpart plus
// the most recent message exchanged with them.
type ConversationSummary struct {
	ID              uint64    `json:"id"`
	Name            string    `json:"name"`
	Image           *string   `json:"image"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
}

// MessageCreatedEvent is published on the event bus after a successful
// send; the websocket gateway fans it out to both endpoints.
type MessageCreatedEvent struct {
	MessageID  uint64    `json:"message_id"`
	SenderID   uint64    `json:"sender_id"`
	ReceiverID uint64    `json:"receiver_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

const noMessagesPlaceholder = "No messages yet"
