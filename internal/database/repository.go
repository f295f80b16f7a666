package database

import "context"

type CampusChatRepository interface {
	Ping(ctx context.Context) error
	GetUserById(ctx context.Context, userId int) (User, error)
	ListUsers(ctx context.Context, excludeId int) ([]User, error)
	GetConversationByExternalId(ctx context.Context, externalId string) (Conversation, error)
	FindOrCreateDirectConversation(ctx context.Context, params CreateConversationParams) (Conversation, error)
	ListConversationsForUser(ctx context.Context, userId int) ([]Conversation, error)
	AppendMessage(ctx context.Context, conversationId, senderId int, content string) (Message, error)
	GetMessages(ctx context.Context, conversationId int) ([]Message, error)
	MarkMessagesRead(ctx context.Context, conversationId, readerId int) error
	UnreadMessageCount(ctx context.Context, userId int) (int, error)
	CreateNotification(ctx context.Context, params CreateNotificationParams) (Notification, error)
	ListNotifications(ctx context.Context, recipientId, limit int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, notificationId, recipientId int) (Notification, error)
	MarkAllNotificationsRead(ctx context.Context, recipientId int) error
	UnreadNotificationCount(ctx context.Context, recipientId int) (int, error)
}
