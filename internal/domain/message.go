package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies the author of a chat message.
type MessageRole string

// Possible message role values.
const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Common validation errors for Message
var (
	ErrEmptyMessageID             = errors.New("message ID cannot be empty")
	ErrEmptyMessageConversationID = errors.New("message conversation ID cannot be empty")
	ErrEmptyMessageUserID         = errors.New("message user ID cannot be empty")
	ErrInvalidMessageRole         = errors.New("invalid message role")
	ErrEmptyMessageContent        = errors.New("message content cannot be empty")
	ErrMessageContentTooLong      = errors.New("message content exceeds maximum length")
)

// MaxMessageLength bounds chat message content.
const MaxMessageLength = 5000

// Message is a single turn in a conversation. Messages are append-only:
// once created they are never updated or deleted. Ordering is by
// creation timestamp, with insertion order breaking ties.
type Message struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	UserID         uuid.UUID   `json:"user_id"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	CreatedAt      time.Time   `json:"created_at"`
}

// NewMessage creates a Message in the given conversation. The user ID
// must match the conversation owner; the stores enforce that constraint.
func NewMessage(conversationID, userID uuid.UUID, role MessageRole, content string) (*Message, error) {
	msg := &Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		UserID:         userID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}

	return msg, nil
}

// Validate checks if the Message has valid data.
func (m *Message) Validate() error {
	if m.ID == uuid.Nil {
		return ErrEmptyMessageID
	}

	if m.ConversationID == uuid.Nil {
		return ErrEmptyMessageConversationID
	}

	if m.UserID == uuid.Nil {
		return ErrEmptyMessageUserID
	}

	if m.Role != MessageRoleUser && m.Role != MessageRoleAssistant {
		return ErrInvalidMessageRole
	}

	if strings.TrimSpace(m.Content) == "" {
		return ErrEmptyMessageContent
	}

	if len(m.Content) > MaxMessageLength {
		return ErrMessageContentTooLong
	}

	return nil
}
