package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskchat/taskchat-api/internal/domain"
	"github.com/taskchat/taskchat-api/internal/platform/logger"
	"github.com/taskchat/taskchat-api/internal/store"
)

// PostgresConversationStore implements the store.ConversationStore
// interface using a PostgreSQL database as the storage backend.
//
// The multi-row operations (CreateWithFirstMessage, AppendMessage) open
// their own transaction when the store is bound to a connection pool;
// when bound to an existing transaction via WithTx they join it instead.
type PostgresConversationStore struct {
	db     store.DBTX
	sqlDB  *sql.DB
	logger *slog.Logger
}

// NewPostgresConversationStore creates a new PostgreSQL implementation
// of the ConversationStore interface. If logger is nil, a default
// logger is used.
func NewPostgresConversationStore(db *sql.DB, logger *slog.Logger) *PostgresConversationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresConversationStore{
		db:     db,
		sqlDB:  db,
		logger: logger.With(slog.String("component", "conversation_store")),
	}
}

// Ensure PostgresConversationStore implements store.ConversationStore interface
var _ store.ConversationStore = (*PostgresConversationStore)(nil)

// CreateWithFirstMessage implements store.ConversationStore.CreateWithFirstMessage.
// The conversation row and the opening user message are written in one
// transaction.
func (s *PostgresConversationStore) CreateWithFirstMessage(
	ctx context.Context,
	userID uuid.UUID,
	firstMessage string,
) (*domain.Conversation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	conv, err := domain.NewConversation(userID, firstMessage)
	if err != nil {
		log.Warn("conversation validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	msg, err := domain.NewMessage(conv.ID, userID, domain.MessageRoleUser, firstMessage)
	if err != nil {
		log.Warn("message validation failed during conversation create",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	err = s.inTransaction(ctx, func(ctx context.Context, db store.DBTX) error {
		if err := insertConversation(ctx, db, conv); err != nil {
			return err
		}
		return insertMessage(ctx, db, msg)
	})
	if err != nil {
		log.Error("failed to create conversation",
			slog.String("error", err.Error()),
			slog.String("conversation_id", conv.ID.String()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	log.Info("conversation created successfully",
		slog.String("conversation_id", conv.ID.String()),
		slog.String("user_id", userID.String()))
	return conv, nil
}

// VerifyOwnership implements store.ConversationStore.VerifyOwnership.
func (s *PostgresConversationStore) VerifyOwnership(
	ctx context.Context,
	conversationID, userID uuid.UUID,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT user_id FROM conversations WHERE id = $1`

	var ownerID uuid.UUID
	err := s.db.QueryRowContext(ctx, query, conversationID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, store.ErrConversationNotFound
		}
		log.Error("failed to verify conversation ownership",
			slog.String("error", err.Error()),
			slog.String("conversation_id", conversationID.String()))
		return false, MapError(err)
	}

	return ownerID == userID, nil
}

// GetMessages implements store.ConversationStore.GetMessages.
func (s *PostgresConversationStore) GetMessages(
	ctx context.Context,
	conversationID uuid.UUID,
	limit int,
) ([]*domain.Message, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 50
	}

	// The inner query selects the newest rows; the outer one restores
	// chronological order.
	query := `
		SELECT id, conversation_id, user_id, role, content, created_at
		FROM (
			SELECT id, conversation_id, user_id, role, content, created_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		log.Error("failed to query messages",
			slog.String("error", err.Error()),
			slog.String("conversation_id", conversationID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	messages := []*domain.Message{}
	for rows.Next() {
		var msg domain.Message
		var role string
		err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.UserID,
			&role,
			&msg.Content,
			&msg.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan message row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		msg.Role = domain.MessageRole(role)
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return messages, nil
}

// AppendMessage implements store.ConversationStore.AppendMessage.
// The message insert and the conversation's updated_at bump happen in
// the same transaction.
func (s *PostgresConversationStore) AppendMessage(
	ctx context.Context,
	conversationID, userID uuid.UUID,
	role domain.MessageRole,
	content string,
) (*domain.Message, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	msg, err := domain.NewMessage(conversationID, userID, role, content)
	if err != nil {
		log.Warn("message validation failed during append",
			slog.String("error", err.Error()),
			slog.String("conversation_id", conversationID.String()))
		return nil, err
	}

	err = s.inTransaction(ctx, func(ctx context.Context, db store.DBTX) error {
		if err := insertMessage(ctx, db, msg); err != nil {
			return err
		}

		result, err := db.ExecContext(ctx,
			`UPDATE conversations SET updated_at = $1 WHERE id = $2`,
			time.Now().UTC(), conversationID)
		if err != nil {
			return err
		}
		return CheckRowsAffected(result, store.ErrConversationNotFound)
	})
	if err != nil {
		if errors.Is(err, store.ErrConversationNotFound) {
			return nil, err
		}
		log.Error("failed to append message",
			slog.String("error", err.Error()),
			slog.String("conversation_id", conversationID.String()))
		return nil, MapError(err)
	}

	log.Debug("message appended",
		slog.String("conversation_id", conversationID.String()),
		slog.String("message_id", msg.ID.String()),
		slog.String("role", string(role)))
	return msg, nil
}

// ListByUser implements store.ConversationStore.ListByUser.
func (s *PostgresConversationStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.Conversation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		log.Error("failed to query conversations",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	conversations := []*domain.Conversation{}
	for rows.Next() {
		var conv domain.Conversation
		err := rows.Scan(
			&conv.ID,
			&conv.UserID,
			&conv.Title,
			&conv.CreatedAt,
			&conv.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan conversation row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		conversations = append(conversations, &conv)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return conversations, nil
}

// WithTx implements store.ConversationStore.WithTx.
func (s *PostgresConversationStore) WithTx(tx *sql.Tx) store.ConversationStore {
	return &PostgresConversationStore{
		db:     tx,
		logger: s.logger,
	}
}

// inTransaction runs fn atomically. When the store is already bound to
// a transaction, fn joins it; committing remains the outer caller's job.
func (s *PostgresConversationStore) inTransaction(
	ctx context.Context,
	fn func(ctx context.Context, db store.DBTX) error,
) error {
	if s.sqlDB == nil {
		return fn(ctx, s.db)
	}
	return store.RunInTransaction(ctx, s.sqlDB, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, tx)
	})
}

func insertConversation(ctx context.Context, db store.DBTX, conv *domain.Conversation) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		conv.ID, conv.UserID, conv.Title, conv.CreatedAt, conv.UpdatedAt)
	return err
}

func insertMessage(ctx context.Context, db store.DBTX, msg *domain.Message) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, user_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.ConversationID, msg.UserID, string(msg.Role), msg.Content, msg.CreatedAt)
	return err
}
