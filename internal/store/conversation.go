package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskchat/taskchat-api/internal/domain"
)

// ConversationStore defines the interface for conversation and message
// persistence. Messages are append-only; conversations have an
// immutable owner.
type ConversationStore interface {
	// CreateWithFirstMessage atomically creates a conversation titled
	// from the first message together with that message as the opening
	// user turn. Either both rows are written or neither is.
	CreateWithFirstMessage(ctx context.Context, userID uuid.UUID, firstMessage string) (*domain.Conversation, error)

	// VerifyOwnership reports whether the conversation exists and is
	// owned by the given user.
	VerifyOwnership(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)

	// GetMessages retrieves up to limit messages of a conversation in
	// creation order (oldest first).
	GetMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*domain.Message, error)

	// AppendMessage adds a message to a conversation and bumps the
	// conversation's updated_at timestamp in the same transaction.
	AppendMessage(ctx context.Context, conversationID, userID uuid.UUID, role domain.MessageRole, content string) (*domain.Message, error)

	// ListByUser retrieves up to limit of the user's conversations,
	// newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Conversation, error)

	// WithTx returns a ConversationStore bound to the given transaction.
	WithTx(tx *sql.Tx) ConversationStore
}
