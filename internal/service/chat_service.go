// Package service contains the application services that sit between
// the HTTP handlers and the stores.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/taskchat/taskchat-api/internal/agent"
	"github.com/taskchat/taskchat-api/internal/domain"
	"github.com/taskchat/taskchat-api/internal/platform/logger"
	"github.com/taskchat/taskchat-api/internal/store"
)

// ChatResult is the outcome of one processed chat message.
type ChatResult struct {
	ConversationID uuid.UUID              `json:"conversation_id"`
	Response       string                 `json:"response"`
	ToolCalls      []agent.ToolCallRecord `json:"tool_calls"`
}

// agentRunner is the orchestrator surface ChatService depends on.
// Satisfied by *agent.Runner.
type agentRunner interface {
	Run(ctx context.Context, userID uuid.UUID, history []*domain.Message, newMessage string) (string, []agent.ToolCallRecord, error)
}

// ChatService turns an incoming chat message into a persisted exchange:
// it resolves the conversation, runs the agent, and records both sides
// of the turn.
//
// Each storage call commits independently. If the process dies between
// appending the user message and the assistant reply, the conversation
// is left with a trailing user message; the next exchange simply
// continues from there.
type ChatService struct {
	conversations store.ConversationStore
	runner        agentRunner
	historyLimit  int
	logger        *slog.Logger
}

// NewChatService creates a ChatService. historyLimit bounds how much
// conversation history is replayed to the model per exchange.
func NewChatService(
	conversations store.ConversationStore,
	runner agentRunner,
	historyLimit int,
	log *slog.Logger,
) *ChatService {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	if log == nil {
		log = slog.Default()
	}

	return &ChatService{
		conversations: conversations,
		runner:        runner,
		historyLimit:  historyLimit,
		logger:        log.With(slog.String("component", "chat_service")),
	}
}

// ProcessMessage handles one chat message for the given user.
//
// With a nil conversationID a new conversation is created, titled from
// the message. Otherwise ownership is verified before anything else:
// a conversation owned by another user yields ErrConversationNotOwned
// and no model call is made.
func (s *ChatService) ProcessMessage(
	ctx context.Context,
	userID uuid.UUID,
	conversationID *uuid.UUID,
	message string,
) (*ChatResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if len(message) > domain.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	var convID uuid.UUID
	var history []*domain.Message

	if conversationID == nil {
		conv, err := s.conversations.CreateWithFirstMessage(ctx, userID, message)
		if err != nil {
			return nil, fmt.Errorf("creating conversation: %w", err)
		}
		convID = conv.ID

		log.Info("conversation created",
			slog.String("conversation_id", convID.String()),
			slog.String("user_id", userID.String()))
	} else {
		convID = *conversationID

		owned, err := s.conversations.VerifyOwnership(ctx, convID, userID)
		if err != nil {
			return nil, fmt.Errorf("verifying conversation ownership: %w", err)
		}
		if !owned {
			log.Warn("conversation ownership mismatch",
				slog.String("conversation_id", convID.String()),
				slog.String("user_id", userID.String()))
			return nil, ErrConversationNotOwned
		}

		history, err = s.conversations.GetMessages(ctx, convID, s.historyLimit)
		if err != nil {
			return nil, fmt.Errorf("loading conversation history: %w", err)
		}

		if _, err := s.conversations.AppendMessage(ctx, convID, userID, domain.MessageRoleUser, message); err != nil {
			return nil, fmt.Errorf("appending user message: %w", err)
		}
	}

	reply, toolCalls, err := s.runner.Run(ctx, userID, history, message)
	if err != nil {
		// The user message stays persisted; the next exchange resumes
		// from it.
		return nil, err
	}

	if _, err := s.conversations.AppendMessage(ctx, convID, userID, domain.MessageRoleAssistant, reply); err != nil {
		return nil, fmt.Errorf("appending assistant message: %w", err)
	}

	if toolCalls == nil {
		toolCalls = []agent.ToolCallRecord{}
	}

	return &ChatResult{
		ConversationID: convID,
		Response:       reply,
		ToolCalls:      toolCalls,
	}, nil
}

// ListConversations returns the user's conversations, newest first.
func (s *ChatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error) {
	return s.conversations.ListByUser(ctx, userID, 50)
}
