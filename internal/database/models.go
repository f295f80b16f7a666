package database

import (
	"database/sql"
	"time"
)

type User struct {
	Id           int
	Name         string
	EmailAddress string
	Role         string
	Avatar       string
	CreatedAt    time.Time
}

type Conversation struct {
	Id              int
	ExternalId      string
	DirectKey       string
	IsGroup         bool
	LastMessage     string
	LastMessageTime time.Time
	CreatedAt       time.Time
	Participants    []User
}

type Message struct {
	Id             int
	ConversationId int
	SenderId       int
	Content        string
	IsRead         bool
	CreatedAt      time.Time
}

type Notification struct {
	Id          int
	RecipientId int
	SenderId    sql.NullInt64
	Title       string
	Body        string
	Type        string
	Link        sql.NullString
	IsRead      bool
	ReadAt      sql.NullTime
	CreatedAt   time.Time
}

type CreateNotificationParams struct {
	RecipientId int
	SenderId    int
	Title       string
	Body        string
	Type        string
	Link        string
}

type CreateConversationParams struct {
	ExternalId string
	UserA      int
	UserB      int
}
