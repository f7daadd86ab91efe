package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"linkup/internal/mocks"
	"linkup/internal/models"
	"linkup/internal/repositories"
	"linkup/internal/ws"
)

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/conversations", handler.ListConversations)
	r.POST("/conversations", handler.StartConversation)
	r.GET("/conversations/:conversation_id/messages", handler.GetMessages)
	r.POST("/conversations/:conversation_id/messages", handler.PostMessage)
	r.POST("/conversations/:conversation_id/read", handler.MarkRead)
	r.DELETE("/conversations/:conversation_id/messages/:message_id", handler.DeleteMessage)
	return r
}

func newChatHandler(conversations *mocks.ConversationRepositoryMock, messages *mocks.MessageRepositoryMock) *ChatHandler {
	users := new(mocks.UserRepositoryMock)
	users.On("SetPresence", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	relay := ws.NewRelay(ws.NewRegistry(users), messages)
	return NewChatHandler(conversations, messages, relay, nil)
}

func TestStartConversationSuccess(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	handler := newChatHandler(conversations, new(mocks.MessageRepositoryMock))
	router := setupChatRouter(handler)

	conversations.On("CreateOrGet", mock.Anything, 1, 2).Return(models.Conversation{ID: 10}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations", bytes.NewBufferString(`{"peer_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 10, resp["conversation_id"])
	conversations.AssertExpectations(t)
}

func TestStartConversationWithSelfRejected(t *testing.T) {
	handler := newChatHandler(new(mocks.ConversationRepositoryMock), new(mocks.MessageRepositoryMock))
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/conversations", bytes.NewBufferString(`{"peer_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListConversationsRepoError(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	handler := newChatHandler(conversations, new(mocks.MessageRepositoryMock))
	router := setupChatRouter(handler)

	conversations.On("ListForUser", mock.Anything, 1).Return(([]models.ConversationSummary)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	conversations.AssertExpectations(t)
}

func TestGetMessagesNonMemberForbidden(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	handler := newChatHandler(conversations, messages)
	router := setupChatRouter(handler)

	conversations.On("IsParticipant", mock.Anything, 10, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/10/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messages.AssertNotCalled(t, "ListForConversation", mock.Anything, mock.Anything)
}

func TestGetMessagesSuccess(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	handler := newChatHandler(conversations, messages)
	router := setupChatRouter(handler)

	conversations.On("IsParticipant", mock.Anything, 10, 1).Return(true, nil).Once()
	messages.On("ListForConversation", mock.Anything, 10).Return([]models.Message{{ID: 5, Content: "hi"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations/10/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	conversations.AssertExpectations(t)
	messages.AssertExpectations(t)
}

func TestPostMessageText(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	handler := newChatHandler(conversations, messages)
	router := setupChatRouter(handler)

	conversations.On("IsParticipant", mock.Anything, 10, 1).Return(true, nil).Once()
	conversations.On("Get", mock.Anything, 10).Return(models.Conversation{ID: 10, User1ID: 1, User2ID: 2}, nil).Once()
	messages.On("Create", mock.Anything, 10, 1, 2, "hello", models.ContentTypeText).
		Return(models.Message{ID: 5, ConversationID: 10, SenderID: 1, ReceiverID: 2, Content: "hello"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/conversations/10/messages", bytes.NewBufferString(`{"content":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	conversations.AssertExpectations(t)
	messages.AssertExpectations(t)
}

func TestMarkReadSuccess(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	handler := newChatHandler(conversations, messages)
	router := setupChatRouter(handler)

	conversations.On("IsParticipant", mock.Anything, 10, 1).Return(true, nil).Once()
	messages.On("MarkRead", mock.Anything, []int{4, 5}).Return(nil).Once()

	body := bytes.NewBufferString(`{"message_ids":[4,5],"sender_id":2}`)
	req := httptest.NewRequest(http.MethodPost, "/conversations/10/read", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messages.AssertExpectations(t)
}

func TestDeleteMessageWrongConversation(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	handler := newChatHandler(conversations, messages)
	router := setupChatRouter(handler)

	conversations.On("IsParticipant", mock.Anything, 10, 1).Return(true, nil).Once()
	messages.On("Get", mock.Anything, 5).Return(models.Message{ID: 5, ConversationID: 11}, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/conversations/10/messages/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messages.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteMessageNotSenderForbidden(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	handler := newChatHandler(conversations, messages)
	router := setupChatRouter(handler)

	conversations.On("IsParticipant", mock.Anything, 10, 1).Return(true, nil).Once()
	messages.On("Get", mock.Anything, 5).Return(models.Message{ID: 5, ConversationID: 10, SenderID: 2, ReceiverID: 1}, nil).Once()
	messages.On("Delete", mock.Anything, 5, 1).Return(repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/conversations/10/messages/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messages.AssertExpectations(t)
}

func TestDeleteMessageSuccess(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	handler := newChatHandler(conversations, messages)
	router := setupChatRouter(handler)

	conversations.On("IsParticipant", mock.Anything, 10, 1).Return(true, nil).Once()
	messages.On("Get", mock.Anything, 5).Return(models.Message{ID: 5, ConversationID: 10, SenderID: 1, ReceiverID: 2}, nil).Once()
	messages.On("Delete", mock.Anything, 5, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/conversations/10/messages/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messages.AssertExpectations(t)
}
