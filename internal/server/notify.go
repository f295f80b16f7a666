package server

import (
	"context"

	"github.com/campuslink/campus-chat/internal/database"
	"github.com/campuslink/campus-chat/internal/types"
)

// Notify persists a notification and then pushes it to the recipient's
// live client if one is bound. The write always comes first: a missed
// push is recovered by the recipient's next fetch of their notification
// list, which is the system of record.
func (cs *CampusServer) Notify(ctx context.Context, n types.Notification) (types.Notification, error) {
	if n.RecipientId == 0 {
		return types.Notification{}, &ValidationError{Reason: "recipient is required"}
	}
	if n.Title == "" || n.Body == "" {
		return types.Notification{}, &ValidationError{Reason: "title and body are required"}
	}
	if !n.Type.Valid() {
		return types.Notification{}, &ValidationError{Reason: "unknown notification type " + string(n.Type)}
	}

	params := database.CreateNotificationParams{
		RecipientId: n.RecipientId,
		SenderId:    n.SenderId,
		Title:       n.Title,
		Body:        n.Body,
		Type:        string(n.Type),
		Link:        n.Link,
	}

	dbNotif, err := cs.db.CreateNotification(ctx, params)
	if err != nil {
		cs.log.Printf("create notification failed, retrying once: %v", err)
		dbNotif, err = cs.db.CreateNotification(ctx, params)
	}
	if err != nil {
		return types.Notification{}, &StorageError{Op: "create notification", Err: err}
	}
	cs.stats.Incr(metricNotificationsSent)

	saved := NotificationFromRecord(dbNotif)

	if client, ok := cs.presence.Lookup(saved.RecipientId); ok {
		client.queueMessage(&ServerMessage{
			BaseMessage:  BaseMessage{Timestamp: Now()},
			Notification: &saved,
		})
	}

	return saved, nil
}

func NotificationFromRecord(n database.Notification) types.Notification {
	notif := types.Notification{
		Id:          n.Id,
		RecipientId: n.RecipientId,
		Title:       n.Title,
		Body:        n.Body,
		Type:        types.NotificationType(n.Type),
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
	if n.SenderId.Valid {
		notif.SenderId = int(n.SenderId.Int64)
	}
	if n.Link.Valid {
		notif.Link = n.Link.String
	}
	if n.ReadAt.Valid {
		readAt := n.ReadAt.Time
		notif.ReadAt = &readAt
	}
	return notif
}
