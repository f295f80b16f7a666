package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/campuslink/campus-chat/internal/database"
	"github.com/campuslink/campus-chat/internal/types"
)

// SendMessage routes one outbound message: validate, durably append, then
// best-effort push to each live participant and fan out a chat
// notification. The append gates everything after it; a storage failure
// means no push and no notification for this call.
func (cs *CampusServer) SendMessage(ctx context.Context, senderId int, conversationId, content string) (types.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return types.Message{}, &ValidationError{Reason: "message content is required"}
	}

	conv, err := cs.db.GetConversationByExternalId(ctx, conversationId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Message{}, &NotFoundError{Resource: "conversation", Id: conversationId}
		}
		return types.Message{}, &StorageError{Op: "get conversation", Err: err}
	}

	sender, ok := participant(conv, senderId)
	if !ok {
		return types.Message{}, &AuthorizationError{UserId: senderId, ConversationId: conversationId}
	}

	dbMsg, err := cs.appendWithRetry(ctx, conv.Id, senderId, content)
	if err != nil {
		return types.Message{}, err
	}
	cs.stats.Incr(metricMessagesPersisted)

	msg := types.Message{
		Id:             dbMsg.Id,
		ConversationId: conv.ExternalId,
		SenderId:       dbMsg.SenderId,
		Content:        dbMsg.Content,
		IsRead:         dbMsg.IsRead,
		Timestamp:      dbMsg.CreatedAt,
	}

	event := &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: msg.Timestamp},
		Message:     &MessageEvent{ConversationId: conv.ExternalId, Message: msg},
	}

	for _, p := range conv.Participants {
		if p.Id == senderId {
			continue
		}

		if client, ok := cs.presence.Lookup(p.Id); ok {
			if client.queueMessage(event) {
				cs.stats.Incr(metricMessagesDelivered)
			}
		}

		// The notification is the durable fallback for offline
		// recipients, so it is produced whether or not the live push
		// happened. Its failure does not undo the already-appended
		// message.
		if _, err := cs.Notify(ctx, types.Notification{
			RecipientId: p.Id,
			SenderId:    senderId,
			Title:       "New Message",
			Body:        fmt.Sprintf("You have a new message from %s", sender.Name),
			Type:        types.NotificationChat,
			Link:        "/chat/" + conv.ExternalId,
		}); err != nil {
			cs.log.Printf("chat notification for user %d: %v", p.Id, err)
		}
	}

	return msg, nil
}

// SendTyping pushes an ephemeral typing indicator to the other
// participants. Never persisted; lost on disconnect by design.
func (cs *CampusServer) SendTyping(ctx context.Context, senderId int, conversationId string, isTyping bool) error {
	conv, err := cs.db.GetConversationByExternalId(ctx, conversationId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Resource: "conversation", Id: conversationId}
		}
		return &StorageError{Op: "get conversation", Err: err}
	}

	if _, ok := participant(conv, senderId); !ok {
		return &AuthorizationError{UserId: senderId, ConversationId: conversationId}
	}

	event := &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Typing: &TypingEvent{
			ConversationId: conv.ExternalId,
			SenderId:       senderId,
			IsTyping:       isTyping,
		},
	}

	for _, p := range conv.Participants {
		if p.Id == senderId {
			continue
		}
		if client, ok := cs.presence.Lookup(p.Id); ok {
			client.queueMessage(event)
		}
	}

	return nil
}

func (cs *CampusServer) appendWithRetry(ctx context.Context, conversationId, senderId int, content string) (database.Message, error) {
	msg, err := cs.db.AppendMessage(ctx, conversationId, senderId, content)
	if err != nil {
		cs.log.Printf("append message failed, retrying once: %v", err)
		msg, err = cs.db.AppendMessage(ctx, conversationId, senderId, content)
	}
	if err != nil {
		return database.Message{}, &StorageError{Op: "append message", Err: err}
	}

	return msg, nil
}

func participant(conv database.Conversation, userId int) (database.User, bool) {
	for _, p := range conv.Participants {
		if p.Id == userId {
			return p, true
		}
	}
	return database.User{}, false
}
