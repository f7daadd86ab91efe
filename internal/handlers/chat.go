package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"linkup/internal/media"
	"linkup/internal/models"
	"linkup/internal/repositories"
	"linkup/internal/ws"
)

// ChatHandler manages conversation and message endpoints. Messages are
// persisted here; the relay only notifies online recipients.
type ChatHandler struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	relay         *ws.Relay
	uploader      media.Uploader
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(conversations repositories.ConversationRepository, messages repositories.MessageRepository, relay *ws.Relay, uploader media.Uploader) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		messages:      messages,
		relay:         relay,
		uploader:      uploader,
	}
}

// StartConversation creates or returns the existing conversation with a peer.
func (h *ChatHandler) StartConversation(c *gin.Context) {
	var req struct {
		PeerID int `json:"peer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if userID == req.PeerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		return
	}

	conversation, err := h.conversations.CreateOrGet(c.Request.Context(), userID, req.PeerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation_id": conversation.ID})
}

// ListConversations returns the conversations visible to the caller.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt("userID")

	conversations, err := h.conversations.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetMessages returns the full message history of a conversation.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	conversationID, ok := h.conversationForUser(c)
	if !ok {
		return
	}

	msgs, err := h.messages.ListForConversation(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage stores a text or media message and relays it to the receiver.
// Media is sent as a multipart form with a file field; text messages may use
// either the form content field or a JSON body.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	conversationID, ok := h.conversationForUser(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	conversation, err := h.conversations.Get(c.Request.Context(), conversationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return
	}
	receiverID := conversation.User1ID
	if receiverID == userID {
		receiverID = conversation.User2ID
	}

	content, contentType, ok := h.extractContent(c)
	if !ok {
		return
	}

	msg, err := h.messages.Create(c.Request.Context(), conversationID, userID, receiverID, content, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.relay.Send(msg)
	c.JSON(http.StatusCreated, msg)
}

// MarkRead marks messages read and sends read receipts to their sender.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	if _, ok := h.conversationForUser(c); !ok {
		return
	}

	var req struct {
		MessageIDs []int `json:"message_ids" binding:"required"`
		SenderID   int   `json:"sender_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.messages.MarkRead(c.Request.Context(), req.MessageIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages read"})
		return
	}

	h.relay.ReadReceipt(req.MessageIDs, req.SenderID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DeleteMessage removes a message the caller sent and notifies both sides.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	conversationID, ok := h.conversationForUser(c)
	if !ok {
		return
	}

	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.messages.Get(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}
	if msg.ConversationID != conversationID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message does not belong to conversation"})
		return
	}

	if err := h.messages.Delete(c.Request.Context(), messageID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": "could not delete message"})
		return
	}

	h.relay.Deletion(messageID, msg.SenderID, msg.ReceiverID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// conversationForUser parses the conversation id and verifies membership.
func (h *ChatHandler) conversationForUser(c *gin.Context) (int, bool) {
	conversationID, err := strconv.Atoi(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return 0, false
	}

	userID := c.GetInt("userID")
	member, err := h.conversations.IsParticipant(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return 0, false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation member"})
		return 0, false
	}
	return conversationID, true
}

func (h *ChatHandler) extractContent(c *gin.Context) (string, string, bool) {
	if file, err := c.FormFile("media"); err == nil {
		contentType, ok := media.ContentTypeForMIME(file.Header.Get("Content-Type"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported media type"})
			return "", "", false
		}
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read media"})
			return "", "", false
		}
		defer src.Close()

		url, err := h.uploader.Upload(c.Request.Context(), file.Filename, src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store media"})
			return "", "", false
		}
		return url, contentType, true
	}

	if content := c.PostForm("content"); content != "" {
		return content, models.ContentTypeText, true
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}
	return req.Content, models.ContentTypeText, true
}
