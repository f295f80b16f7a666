package database

import (
	"context"
	"fmt"
	"time"
)

func (db *PgCampusChatRepository) GetUserById(ctx context.Context, userId int) (User, error) {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		"SELECT id, name, email, role, COALESCE(avatar, '') FROM users "+
			"WHERE id = $1 LIMIT 1",
		userId,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Name,
		&u.EmailAddress,
		&u.Role,
		&u.Avatar,
	)

	return u, err
}

func (db *PgCampusChatRepository) ListUsers(ctx context.Context, excludeId int) ([]User, error) {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, name, email, role, COALESCE(avatar, '') FROM users "+
			"WHERE id != $1 ORDER BY name",
		excludeId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Id, &u.Name, &u.EmailAddress, &u.Role, &u.Avatar); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (db *PgCampusChatRepository) GetConversationByExternalId(ctx context.Context, externalId string) (Conversation, error) {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		"SELECT id, external_id, direct_key, is_group, COALESCE(last_message, ''), last_message_time, created_at "+
			"FROM conversations WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	var c Conversation
	err := row.Scan(
		&c.Id,
		&c.ExternalId,
		&c.DirectKey,
		&c.IsGroup,
		&c.LastMessage,
		&c.LastMessageTime,
		&c.CreatedAt,
	)
	if err != nil {
		return Conversation{}, err
	}

	c.Participants, err = db.getParticipants(ctx, c.Id)
	if err != nil {
		return Conversation{}, err
	}

	return c, nil
}

func (db *PgCampusChatRepository) getParticipants(ctx context.Context, conversationId int) ([]User, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT u.id, u.name, u.email, u.role, COALESCE(u.avatar, '') "+
			"FROM conversation_participants cp "+
			"JOIN users u ON u.id = cp.user_id "+
			"WHERE cp.conversation_id = $1 ORDER BY u.id",
		conversationId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Id, &u.Name, &u.EmailAddress, &u.Role, &u.Avatar); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// directKey is the canonical identity of a one-to-one conversation: the
// participant pair sorted ascending, so (a, b) and (b, a) map to the same
// row. A unique index on the column makes creation idempotent under
// concurrent requests.
func directKey(userA, userB int) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%d:%d", userA, userB)
}

func (db *PgCampusChatRepository) FindOrCreateDirectConversation(ctx context.Context, params CreateConversationParams) (Conversation, error) {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()

	key := directKey(params.UserA, params.UserB)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return Conversation{}, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	row := tx.QueryRowContext(ctx,
		"INSERT INTO conversations (external_id, direct_key, is_group, last_message, last_message_time, created_at) "+
			"VALUES ($1, $2, false, '', $3, $3) "+
			"ON CONFLICT (direct_key) DO UPDATE SET direct_key = EXCLUDED.direct_key "+
			"RETURNING id, external_id, direct_key, is_group, COALESCE(last_message, ''), last_message_time, created_at",
		params.ExternalId,
		key,
		now,
	)

	var c Conversation
	if err := row.Scan(&c.Id, &c.ExternalId, &c.DirectKey, &c.IsGroup, &c.LastMessage, &c.LastMessageTime, &c.CreatedAt); err != nil {
		return Conversation{}, err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO conversation_participants (conversation_id, user_id) "+
			"VALUES ($1, $2), ($1, $3) ON CONFLICT DO NOTHING",
		c.Id,
		params.UserA,
		params.UserB,
	)
	if err != nil {
		return Conversation{}, err
	}

	if err := tx.Commit(); err != nil {
		return Conversation{}, err
	}

	c.Participants, err = db.getParticipants(ctx, c.Id)
	if err != nil {
		return Conversation{}, err
	}

	return c, nil
}

func (db *PgCampusChatRepository) ListConversationsForUser(ctx context.Context, userId int) ([]Conversation, error) {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT c.id, c.external_id, c.direct_key, c.is_group, COALESCE(c.last_message, ''), c.last_message_time, c.created_at "+
			"FROM conversations c "+
			"JOIN conversation_participants cp ON cp.conversation_id = c.id "+
			"WHERE cp.user_id = $1 "+
			"ORDER BY c.last_message_time DESC",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.Id, &c.ExternalId, &c.DirectKey, &c.IsGroup, &c.LastMessage, &c.LastMessageTime, &c.CreatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range convs {
		convs[i].Participants, err = db.getParticipants(ctx, convs[i].Id)
		if err != nil {
			return nil, err
		}
	}

	return convs, nil
}

// AppendMessage inserts the message and refreshes the conversation's
// last-message summary in a single transaction. The timestamp is assigned
// here, at persistence time.
func (db *PgCampusChatRepository) AppendMessage(ctx context.Context, conversationId, senderId int, content string) (Message, error) {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return Message{}, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	row := tx.QueryRowContext(ctx,
		"INSERT INTO messages (conversation_id, sender_id, content, is_read, created_at) "+
			"VALUES ($1, $2, $3, false, $4) "+
			"RETURNING id, conversation_id, sender_id, content, is_read, created_at",
		conversationId,
		senderId,
		content,
		now,
	)

	var m Message
	if err := row.Scan(&m.Id, &m.ConversationId, &m.SenderId, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
		return Message{}, err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE conversations SET last_message = $2, last_message_time = $3 WHERE id = $1",
		conversationId,
		content,
		now,
	)
	if err != nil {
		return Message{}, err
	}

	if err := tx.Commit(); err != nil {
		return Message{}, err
	}

	return m, nil
}

func (db *PgCampusChatRepository) GetMessages(ctx context.Context, conversationId int) ([]Message, error) {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, conversation_id, sender_id, content, is_read, created_at "+
			"FROM messages WHERE conversation_id = $1 ORDER BY id",
		conversationId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Id, &m.ConversationId, &m.SenderId, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}

	return msgs, rows.Err()
}

// MarkMessagesRead flips every message in the conversation not authored by
// the reader to read. Idempotent.
func (db *PgCampusChatRepository) MarkMessagesRead(ctx context.Context, conversationId, readerId int) error {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		"UPDATE messages SET is_read = true "+
			"WHERE conversation_id = $1 AND sender_id != $2 AND is_read = false",
		conversationId,
		readerId,
	)
	return err
}

func (db *PgCampusChatRepository) UnreadMessageCount(ctx context.Context, userId int) (int, error) {
	ctx, cancel := db.queryCtx(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages m "+
			"JOIN conversation_participants cp ON cp.conversation_id = m.conversation_id "+
			"WHERE cp.user_id = $1 AND m.sender_id != $1 AND m.is_read = false",
		userId,
	)

	var count int
	err := row.Scan(&count)
	return count, err
}
