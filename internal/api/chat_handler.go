package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskchat/taskchat-api/internal/api/middleware"
	"github.com/taskchat/taskchat-api/internal/api/shared"
	"github.com/taskchat/taskchat-api/internal/domain"
	"github.com/taskchat/taskchat-api/internal/queue"
	"github.com/taskchat/taskchat-api/internal/service"
)

// ChatRequest represents the request body for a chat message
type ChatRequest struct {
	Message        string  `json:"message"         validate:"required"`
	ConversationID *string `json:"conversation_id" validate:"omitempty,uuid"`
}

// ChatResponse represents the response to a processed chat message
type ChatResponse struct {
	ConversationID string                   `json:"conversation_id"`
	Response       string                   `json:"response"`
	ToolCalls      []map[string]interface{} `json:"tool_calls"`
}

// ConversationResponse represents one conversation in a listing
type ConversationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationListResponse wraps a list of conversations.
type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	Count         int                    `json:"count"`
}

// ChatHandler handles chat HTTP requests. Processing is funneled
// through the per-user queue so each user's messages are handled
// strictly one at a time.
type ChatHandler struct {
	chat  *service.ChatService
	queue *queue.Queue[*service.ChatResult]
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chat *service.ChatService, q *queue.Queue[*service.ChatResult]) *ChatHandler {
	return &ChatHandler{
		chat:  chat,
		queue: q,
	}
}

// SendMessage handles POST /api/users/{userID}/chat requests.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req ChatRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	// An invalid message must never occupy a queue slot, so the content
	// checks run before enqueueing. The service repeats them for callers
	// that bypass this handler.
	message := strings.TrimSpace(req.Message)
	if message == "" {
		RespondWithMappedError(w, r, service.ErrEmptyMessage)
		return
	}
	if len(message) > domain.MaxMessageLength {
		RespondWithMappedError(w, r, service.ErrMessageTooLong)
		return
	}

	var conversationID *uuid.UUID
	if req.ConversationID != nil {
		id, err := uuid.Parse(*req.ConversationID)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid conversation ID")
			return
		}
		conversationID = &id
	}

	result, err := h.queue.Enqueue(r.Context(), userID, func(ctx context.Context) (*service.ChatResult, error) {
		return h.chat.ProcessMessage(ctx, userID, conversationID, message)
	})
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, chatToResponse(result))
}

// ListConversations handles GET /api/users/{userID}/conversations requests.
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	conversations, err := h.chat.ListConversations(r.Context(), userID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	response := ConversationListResponse{
		Conversations: make([]ConversationResponse, 0, len(conversations)),
	}
	for _, conv := range conversations {
		response.Conversations = append(response.Conversations, conversationToResponse(conv))
	}
	response.Count = len(response.Conversations)

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

func chatToResponse(result *service.ChatResult) ChatResponse {
	toolCalls := make([]map[string]interface{}, 0, len(result.ToolCalls))
	for _, call := range result.ToolCalls {
		toolCalls = append(toolCalls, map[string]interface{}{
			"tool_name":  call.ToolName,
			"parameters": call.Parameters,
			"result":     call.Result,
		})
	}

	return ChatResponse{
		ConversationID: result.ConversationID.String(),
		Response:       result.Response,
		ToolCalls:      toolCalls,
	}
}

func conversationToResponse(conv *domain.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        conv.ID.String(),
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
}
