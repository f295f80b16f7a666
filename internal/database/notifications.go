package database

import (
	"context"
	"database/sql"
	"time"
)

func (db *PgCampusChatRepository) CreateNotification(ctx context.Context, params CreateNotificationParams) (Notification, error) {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()

	var senderId sql.NullInt64
	if params.SenderId != 0 {
		senderId = sql.NullInt64{Int64: int64(params.SenderId), Valid: true}
	}

	var link sql.NullString
	if params.Link != "" {
		link = sql.NullString{String: params.Link, Valid: true}
	}

	row := db.conn.QueryRowContext(ctx,
		"INSERT INTO notifications (recipient_id, sender_id, title, body, type, link, is_read, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, false, $7) "+
			"RETURNING id, recipient_id, sender_id, title, body, type, link, is_read, read_at, created_at",
		params.RecipientId,
		senderId,
		params.Title,
		params.Body,
		params.Type,
		link,
		time.Now().UTC(),
	)

	var n Notification
	err := row.Scan(
		&n.Id,
		&n.RecipientId,
		&n.SenderId,
		&n.Title,
		&n.Body,
		&n.Type,
		&n.Link,
		&n.IsRead,
		&n.ReadAt,
		&n.CreatedAt,
	)

	return n, err
}

func (db *PgCampusChatRepository) ListNotifications(ctx context.Context, recipientId, limit int) ([]Notification, error) {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, recipient_id, sender_id, title, body, type, link, is_read, read_at, created_at "+
			"FROM notifications WHERE recipient_id = $1 "+
			"ORDER BY created_at DESC, id DESC LIMIT $2",
		recipientId,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.Id, &n.RecipientId, &n.SenderId, &n.Title, &n.Body, &n.Type, &n.Link, &n.IsRead, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}

	return notifs, rows.Err()
}

// MarkNotificationRead sets is_read and stamps read_at on first read only,
// scoped to the recipient so users cannot acknowledge each other's
// notifications.
func (db *PgCampusChatRepository) MarkNotificationRead(ctx context.Context, notificationId, recipientId int) (Notification, error) {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		"UPDATE notifications SET is_read = true, read_at = COALESCE(read_at, $3) "+
			"WHERE id = $1 AND recipient_id = $2 "+
			"RETURNING id, recipient_id, sender_id, title, body, type, link, is_read, read_at, created_at",
		notificationId,
		recipientId,
		time.Now().UTC(),
	)

	var n Notification
	err := row.Scan(
		&n.Id,
		&n.RecipientId,
		&n.SenderId,
		&n.Title,
		&n.Body,
		&n.Type,
		&n.Link,
		&n.IsRead,
		&n.ReadAt,
		&n.CreatedAt,
	)

	return n, err
}

func (db *PgCampusChatRepository) MarkAllNotificationsRead(ctx context.Context, recipientId int) error {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		"UPDATE notifications SET is_read = true, read_at = COALESCE(read_at, $2) "+
			"WHERE recipient_id = $1 AND is_read = false",
		recipientId,
		time.Now().UTC(),
	)
	return err
}

func (db *PgCampusChatRepository) UnreadNotificationCount(ctx context.Context, recipientId int) (int, error) {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false",
		recipientId,
	)

	var count int
	err := row.Scan(&count)
	return count, err
}
