package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskchat/taskchat-api/internal/agent"
	"github.com/taskchat/taskchat-api/internal/domain"
	"github.com/taskchat/taskchat-api/internal/store"
)

// fakeConversationStore is an in-memory ConversationStore.
type fakeConversationStore struct {
	conversations map[uuid.UUID]*domain.Conversation
	messages      map[uuid.UUID][]*domain.Message
	err           error
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{
		conversations: make(map[uuid.UUID]*domain.Conversation),
		messages:      make(map[uuid.UUID][]*domain.Message),
	}
}

func (f *fakeConversationStore) CreateWithFirstMessage(_ context.Context, userID uuid.UUID, firstMessage string) (*domain.Conversation, error) {
	if f.err != nil {
		return nil, f.err
	}
	conv, err := domain.NewConversation(userID, firstMessage)
	if err != nil {
		return nil, err
	}
	msg, err := domain.NewMessage(conv.ID, userID, domain.MessageRoleUser, firstMessage)
	if err != nil {
		return nil, err
	}
	f.conversations[conv.ID] = conv
	f.messages[conv.ID] = []*domain.Message{msg}
	return conv, nil
}

func (f *fakeConversationStore) VerifyOwnership(_ context.Context, conversationID, userID uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	conv, ok := f.conversations[conversationID]
	if !ok {
		return false, store.ErrConversationNotFound
	}
	return conv.UserID == userID, nil
}

func (f *fakeConversationStore) GetMessages(_ context.Context, conversationID uuid.UUID, limit int) ([]*domain.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	msgs := f.messages[conversationID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (f *fakeConversationStore) AppendMessage(_ context.Context, conversationID, userID uuid.UUID, role domain.MessageRole, content string) (*domain.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.conversations[conversationID]; !ok {
		return nil, store.ErrConversationNotFound
	}
	msg, err := domain.NewMessage(conversationID, userID, role, content)
	if err != nil {
		return nil, err
	}
	f.messages[conversationID] = append(f.messages[conversationID], msg)
	f.conversations[conversationID].UpdatedAt = time.Now().UTC()
	return msg, nil
}

func (f *fakeConversationStore) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]*domain.Conversation, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Conversation
	for _, conv := range f.conversations {
		if conv.UserID == userID {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (f *fakeConversationStore) WithTx(_ *sql.Tx) store.ConversationStore { return f }

// fakeRunner records its inputs and replays a scripted reply.
type fakeRunner struct {
	reply     string
	toolCalls []agent.ToolCallRecord
	err       error

	gotUserID  uuid.UUID
	gotHistory []*domain.Message
	gotMessage string
	calls      int
}

func (f *fakeRunner) Run(_ context.Context, userID uuid.UUID, history []*domain.Message, newMessage string) (string, []agent.ToolCallRecord, error) {
	f.calls++
	f.gotUserID = userID
	f.gotHistory = history
	f.gotMessage = newMessage
	return f.reply, f.toolCalls, f.err
}

func TestProcessMessage_NewConversation(t *testing.T) {
	convs := newFakeConversationStore()
	runner := &fakeRunner{reply: "Hello! I added that task."}
	svc := NewChatService(convs, runner, 50, nil)
	userID := uuid.New()

	result, err := svc.ProcessMessage(context.Background(), userID, nil, "  add buy milk  ")

	require.NoError(t, err)
	assert.Equal(t, "Hello! I added that task.", result.Response)
	assert.NotNil(t, result.ToolCalls, "tool_calls serializes as [] not null")

	conv := convs.conversations[result.ConversationID]
	require.NotNil(t, conv)
	assert.Equal(t, "add buy milk", conv.Title)

	msgs := convs.messages[result.ConversationID]
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.MessageRoleUser, msgs[0].Role)
	assert.Equal(t, "add buy milk", msgs[0].Content, "message is stored trimmed")
	assert.Equal(t, domain.MessageRoleAssistant, msgs[1].Role)

	assert.Empty(t, runner.gotHistory, "first exchange has no prior history")
	assert.Equal(t, "add buy milk", runner.gotMessage)
}

func TestProcessMessage_ExistingConversation(t *testing.T) {
	convs := newFakeConversationStore()
	runner := &fakeRunner{reply: "You have 1 task."}
	svc := NewChatService(convs, runner, 50, nil)
	userID := uuid.New()

	conv, err := convs.CreateWithFirstMessage(context.Background(), userID, "first message")
	require.NoError(t, err)
	_, err = convs.AppendMessage(context.Background(), conv.ID, userID, domain.MessageRoleAssistant, "sure")
	require.NoError(t, err)

	result, err := svc.ProcessMessage(context.Background(), userID, &conv.ID, "what's pending?")

	require.NoError(t, err)
	assert.Equal(t, conv.ID, result.ConversationID)

	// History passed to the agent excludes the new message.
	require.Len(t, runner.gotHistory, 2)
	assert.Equal(t, "first message", runner.gotHistory[0].Content)
	assert.Equal(t, "what's pending?", runner.gotMessage)

	msgs := convs.messages[conv.ID]
	require.Len(t, msgs, 4)
	assert.Equal(t, "what's pending?", msgs[2].Content)
	assert.Equal(t, "You have 1 task.", msgs[3].Content)
}

func TestProcessMessage_OwnershipRejectedBeforeModelCall(t *testing.T) {
	convs := newFakeConversationStore()
	runner := &fakeRunner{reply: "should never run"}
	svc := NewChatService(convs, runner, 50, nil)

	owner := uuid.New()
	conv, err := convs.CreateWithFirstMessage(context.Background(), owner, "private")
	require.NoError(t, err)

	intruder := uuid.New()
	_, err = svc.ProcessMessage(context.Background(), intruder, &conv.ID, "show me everything")

	require.ErrorIs(t, err, ErrConversationNotOwned)
	assert.Zero(t, runner.calls, "model must not be called for a foreign conversation")
	assert.Len(t, convs.messages[conv.ID], 1, "no message appended")
}

func TestProcessMessage_UnknownConversation(t *testing.T) {
	convs := newFakeConversationStore()
	svc := NewChatService(convs, &fakeRunner{}, 50, nil)

	missing := uuid.New()
	_, err := svc.ProcessMessage(context.Background(), uuid.New(), &missing, "hello")

	require.ErrorIs(t, err, store.ErrConversationNotFound)
}

func TestProcessMessage_Validation(t *testing.T) {
	svc := NewChatService(newFakeConversationStore(), &fakeRunner{}, 50, nil)
	userID := uuid.New()

	_, err := svc.ProcessMessage(context.Background(), userID, nil, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.ProcessMessage(context.Background(), userID, nil, strings.Repeat("x", domain.MaxMessageLength+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestProcessMessage_AgentErrorKeepsUserMessage(t *testing.T) {
	convs := newFakeConversationStore()
	runner := &fakeRunner{err: agent.ErrModelFailure}
	svc := NewChatService(convs, runner, 50, nil)
	userID := uuid.New()

	conv, err := convs.CreateWithFirstMessage(context.Background(), userID, "start")
	require.NoError(t, err)

	_, err = svc.ProcessMessage(context.Background(), userID, &conv.ID, "do something")

	require.ErrorIs(t, err, agent.ErrModelFailure)
	msgs := convs.messages[conv.ID]
	require.Len(t, msgs, 2, "user message persisted, no assistant reply")
	assert.Equal(t, "do something", msgs[1].Content)
}

func TestProcessMessage_ToolCallsPassedThrough(t *testing.T) {
	convs := newFakeConversationStore()
	runner := &fakeRunner{
		reply: "Added it.",
		toolCalls: []agent.ToolCallRecord{{
			ToolName:   "add_task",
			Parameters: map[string]any{"title": "x"},
			Result:     map[string]any{"status": "success"},
		}},
	}
	svc := NewChatService(convs, runner, 50, nil)

	result, err := svc.ProcessMessage(context.Background(), uuid.New(), nil, "add x")

	require.NoError(t, err)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "add_task", result.ToolCalls[0].ToolName)
}

func TestListConversations(t *testing.T) {
	convs := newFakeConversationStore()
	svc := NewChatService(convs, &fakeRunner{}, 50, nil)
	userID := uuid.New()

	_, err := convs.CreateWithFirstMessage(context.Background(), userID, "one")
	require.NoError(t, err)
	_, err = convs.CreateWithFirstMessage(context.Background(), uuid.New(), "someone else's")
	require.NoError(t, err)

	list, err := svc.ListConversations(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
