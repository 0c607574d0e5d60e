package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Conversation
var (
	ErrEmptyConversationID     = errors.New("conversation ID cannot be empty")
	ErrEmptyConversationUserID = errors.New("conversation user ID cannot be empty")
	ErrEmptyConversationTitle  = errors.New("conversation title cannot be empty")
)

// MaxConversationTitleLength bounds the display title derived from the
// first message of a conversation.
const MaxConversationTitleLength = 50

// Conversation is a persisted thread of chat messages owned by exactly
// one user. The owner is immutable after creation; UpdatedAt is bumped
// whenever a message is appended.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation creates a Conversation owned by the given user with a
// title derived from the first message.
func NewConversation(userID uuid.UUID, firstMessage string) (*Conversation, error) {
	now := time.Now().UTC()
	conv := &Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     TitleFromMessage(firstMessage),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := conv.Validate(); err != nil {
		return nil, err
	}

	return conv, nil
}

// Validate checks if the Conversation has valid data.
func (c *Conversation) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyConversationID
	}

	if c.UserID == uuid.Nil {
		return ErrEmptyConversationUserID
	}

	if c.Title == "" {
		return ErrEmptyConversationTitle
	}

	return nil
}

// TitleFromMessage derives a conversation title from the first user
// message: interior whitespace is collapsed and the result is truncated
// to MaxConversationTitleLength characters with a trailing ellipsis.
// Truncation counts runes, never splitting a multi-byte character.
func TitleFromMessage(message string) string {
	cleaned := strings.Join(strings.Fields(message), " ")

	runes := []rune(cleaned)
	if len(runes) <= MaxConversationTitleLength {
		return cleaned
	}

	return string(runes[:MaxConversationTitleLength-3]) + "..."
}
