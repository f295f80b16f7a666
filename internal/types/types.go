package types

import (
	"time"
)

type Role string

const (
	RoleStudent  Role = "student"
	RoleFaculty  Role = "faculty"
	RoleAdmin    Role = "admin"
	RoleSecurity Role = "security"
	RoleCanteen  Role = "canteen"
)

type User struct {
	Id           int       `json:"id"`
	Name         string    `json:"name"`
	EmailAddress string    `json:"email_address,omitempty"`
	Role         Role      `json:"role"`
	Avatar       string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

type Conversation struct {
	Id              int       `json:"id"`
	ExternalId      string    `json:"external_id"`
	IsGroup         bool      `json:"is_group"`
	Participants    []User    `json:"participants"`
	Messages        []Message `json:"messages,omitempty"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

type Message struct {
	Id             int       `json:"id"`
	ConversationId string    `json:"conversation_id"`
	SenderId       int       `json:"sender_id"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	Timestamp      time.Time `json:"timestamp"`
}

// NotificationType is the closed set of notification categories. Values
// outside this set are a construction-time error, not a runtime surprise.
type NotificationType string

const (
	NotificationAnnouncement NotificationType = "announcement"
	NotificationEvent        NotificationType = "event"
	NotificationComplaint    NotificationType = "complaint"
	NotificationAssignment   NotificationType = "assignment"
	NotificationAttendance   NotificationType = "attendance"
	NotificationHostel       NotificationType = "hostel"
	NotificationOrder        NotificationType = "order"
	NotificationChat         NotificationType = "chat"
	NotificationOther        NotificationType = "other"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationAnnouncement, NotificationEvent, NotificationComplaint,
		NotificationAssignment, NotificationAttendance, NotificationHostel,
		NotificationOrder, NotificationChat, NotificationOther:
		return true
	}
	return false
}

type Notification struct {
	Id          int `json:"id"`
	RecipientId int `json:"recipient_id"`
	// SenderId is zero for system-generated notifications.
	SenderId  int              `json:"sender_id,omitempty"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Type      NotificationType `json:"type"`
	Link      string           `json:"link,omitempty"`
	IsRead    bool             `json:"is_read"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at,omitempty"`
}
