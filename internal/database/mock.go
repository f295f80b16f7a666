package database

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockCampusChatRepository struct {
	mock.Mock
}

func (m *MockCampusChatRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockCampusChatRepository) GetUserById(ctx context.Context, userId int) (User, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockCampusChatRepository) ListUsers(ctx context.Context, excludeId int) ([]User, error) {
	args := m.Called(ctx, excludeId)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockCampusChatRepository) GetConversationByExternalId(ctx context.Context, externalId string) (Conversation, error) {
	args := m.Called(ctx, externalId)
	return args.Get(0).(Conversation), args.Error(1)
}
func (m *MockCampusChatRepository) FindOrCreateDirectConversation(ctx context.Context, params CreateConversationParams) (Conversation, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Conversation), args.Error(1)
}
func (m *MockCampusChatRepository) ListConversationsForUser(ctx context.Context, userId int) ([]Conversation, error) {
	args := m.Called(ctx, userId)
	return args.Get(0).([]Conversation), args.Error(1)
}
func (m *MockCampusChatRepository) AppendMessage(ctx context.Context, conversationId, senderId int, content string) (Message, error) {
	args := m.Called(ctx, conversationId, senderId, content)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockCampusChatRepository) GetMessages(ctx context.Context, conversationId int) ([]Message, error) {
	args := m.Called(ctx, conversationId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockCampusChatRepository) MarkMessagesRead(ctx context.Context, conversationId, readerId int) error {
	args := m.Called(ctx, conversationId, readerId)
	return args.Error(0)
}
func (m *MockCampusChatRepository) UnreadMessageCount(ctx context.Context, userId int) (int, error) {
	args := m.Called(ctx, userId)
	return args.Int(0), args.Error(1)
}
func (m *MockCampusChatRepository) CreateNotification(ctx context.Context, params CreateNotificationParams) (Notification, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockCampusChatRepository) ListNotifications(ctx context.Context, recipientId, limit int) ([]Notification, error) {
	args := m.Called(ctx, recipientId, limit)
	return args.Get(0).([]Notification), args.Error(1)
}
func (m *MockCampusChatRepository) MarkNotificationRead(ctx context.Context, notificationId, recipientId int) (Notification, error) {
	args := m.Called(ctx, notificationId, recipientId)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockCampusChatRepository) MarkAllNotificationsRead(ctx context.Context, recipientId int) error {
	args := m.Called(ctx, recipientId)
	return args.Error(0)
}
func (m *MockCampusChatRepository) UnreadNotificationCount(ctx context.Context, recipientId int) (int, error) {
	args := m.Called(ctx, recipientId)
	return args.Int(0), args.Error(1)
}
