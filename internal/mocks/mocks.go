// Package mocks provides testify mocks for the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"linkup/internal/models"
	"linkup/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) FindOrCreateByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) FindOrCreateByPhone(ctx context.Context, suffix, number string) (models.User, error) {
	args := m.Called(ctx, suffix, number)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListUsers(ctx context.Context, excludeUserID int) ([]models.User, error) {
	args := m.Called(ctx, excludeUserID)
	var list []models.User
	if val := args.Get(0); val != nil {
		list = val.([]models.User)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) SetOTP(ctx context.Context, userID int, code string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, code, expiresAt)
	return args.Error(0)
}

func (m *UserRepositoryMock) GetOTP(ctx context.Context, userID int) (models.OTPChallenge, error) {
	args := m.Called(ctx, userID)
	var challenge models.OTPChallenge
	if val := args.Get(0); val != nil {
		challenge = val.(models.OTPChallenge)
	}
	return challenge, args.Error(1)
}

func (m *UserRepositoryMock) ClearOTP(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepositoryMock) MarkVerified(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepositoryMock) UpdateProfile(ctx context.Context, userID int, username, about, avatarURL string) (models.User, error) {
	args := m.Called(ctx, userID, username, about, avatarURL)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) SetPresence(ctx context.Context, userID int, online bool, lastSeen time.Time) error {
	args := m.Called(ctx, userID, online, lastSeen)
	return args.Error(0)
}

func (m *UserRepositoryMock) CreateSession(ctx context.Context, userID int, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *UserRepositoryMock) UserIDForToken(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) CreateOrGet(ctx context.Context, userID int, peerID int) (models.Conversation, error) {
	args := m.Called(ctx, userID, peerID)
	var conversation models.Conversation
	if val := args.Get(0); val != nil {
		conversation = val.(models.Conversation)
	}
	return conversation, args.Error(1)
}

func (m *ConversationRepositoryMock) Get(ctx context.Context, conversationID int) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conversation models.Conversation
	if val := args.Get(0); val != nil {
		conversation = val.(models.Conversation)
	}
	return conversation, args.Error(1)
}

func (m *ConversationRepositoryMock) IsParticipant(ctx context.Context, conversationID int, userID int) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, conversationID, senderID, receiverID int, content, contentType string) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, receiverID, content, contentType)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListForConversation(ctx context.Context, conversationID int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, messageIDs []int) error {
	args := m.Called(ctx, messageIDs)
	return args.Error(0)
}

func (m *MessageRepositoryMock) GetReactions(ctx context.Context, messageID int) ([]models.Reaction, error) {
	args := m.Called(ctx, messageID)
	var list []models.Reaction
	if val := args.Get(0); val != nil {
		list = val.([]models.Reaction)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) ReplaceReactions(ctx context.Context, messageID int, reactions []models.Reaction) error {
	args := m.Called(ctx, messageID, reactions)
	return args.Error(0)
}

func (m *MessageRepositoryMock) Delete(ctx context.Context, messageID int, senderID int) error {
	args := m.Called(ctx, messageID, senderID)
	return args.Error(0)
}

type StatusRepositoryMock struct {
	mock.Mock
}

func (m *StatusRepositoryMock) Create(ctx context.Context, status models.Status) (models.Status, error) {
	args := m.Called(ctx, status)
	var out models.Status
	if val := args.Get(0); val != nil {
		out = val.(models.Status)
	}
	return out, args.Error(1)
}

func (m *StatusRepositoryMock) ListActive(ctx context.Context) ([]models.Status, error) {
	args := m.Called(ctx)
	var list []models.Status
	if val := args.Get(0); val != nil {
		list = val.([]models.Status)
	}
	return list, args.Error(1)
}

func (m *StatusRepositoryMock) Get(ctx context.Context, statusID int) (models.Status, error) {
	args := m.Called(ctx, statusID)
	var out models.Status
	if val := args.Get(0); val != nil {
		out = val.(models.Status)
	}
	return out, args.Error(1)
}

func (m *StatusRepositoryMock) AddViewer(ctx context.Context, statusID int, viewerID int) (models.Status, error) {
	args := m.Called(ctx, statusID, viewerID)
	var out models.Status
	if val := args.Get(0); val != nil {
		out = val.(models.Status)
	}
	return out, args.Error(1)
}

func (m *StatusRepositoryMock) Delete(ctx context.Context, statusID int, userID int) error {
	args := m.Called(ctx, statusID, userID)
	return args.Error(0)
}

var (
	_ repositories.UserRepository         = (*UserRepositoryMock)(nil)
	_ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
	_ repositories.MessageRepository      = (*MessageRepositoryMock)(nil)
	_ repositories.StatusRepository       = (*StatusRepositoryMock)(nil)
)
