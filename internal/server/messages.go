package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/campuslink/campus-chat/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the envelope for everything a client sends over the
// socket. Exactly one variant is non-nil.
type ClientMessage struct {
	BaseMessage
	Send        *Send        `json:"send,omitempty"`
	Typing      *Typing      `json:"typing,omitempty"`
	Notify      *Notify      `json:"notify,omitempty"`
	OrderUpdate *OrderUpdate `json:"order_update,omitempty"`
}

type Send struct {
	ConversationId string `json:"conversation_id"`
	Content        string `json:"content"`
}

type Typing struct {
	ConversationId string `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

type Notify struct {
	RecipientId int                    `json:"recipient_id"`
	Title       string                 `json:"title"`
	Body        string                 `json:"body"`
	Type        types.NotificationType `json:"type"`
	Link        string                 `json:"link,omitempty"`
}

type OrderUpdate struct {
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage is the envelope for everything pushed to a client.
type ServerMessage struct {
	BaseMessage
	Response     *Response           `json:"response,omitempty"`
	Message      *MessageEvent       `json:"message,omitempty"`
	Notification *types.Notification `json:"notification,omitempty"`
	Typing       *TypingEvent        `json:"typing,omitempty"`
	OrderStatus  json.RawMessage     `json:"order_status,omitempty"`
	Announcement *Announcement       `json:"announcement,omitempty"`
}

type Response struct {
	ResponseCode int            `json:"response_code"`
	Error        string         `json:"error,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

type MessageEvent struct {
	ConversationId string        `json:"conversation_id"`
	Message        types.Message `json:"message"`
}

type TypingEvent struct {
	ConversationId string `json:"conversation_id"`
	SenderId       int    `json:"sender_id"`
	IsTyping       bool   `json:"is_typing"`
}

type Announcement struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func NoErrOK(id int, data map[string]any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

// ResponseForError translates a domain error into the socket response the
// originating client receives.
func ResponseForError(id int, err error) *ServerMessage {
	var (
		validationErr    *ValidationError
		authorizationErr *AuthorizationError
		notFoundErr      *NotFoundError
		storageErr       *StorageError
	)

	resp := &Response{ResponseCode: http.StatusInternalServerError, Error: "internal server error"}
	switch {
	case errors.As(err, &validationErr):
		resp = &Response{ResponseCode: http.StatusBadRequest, Error: validationErr.Reason}
	case errors.As(err, &authorizationErr):
		resp = &Response{ResponseCode: http.StatusForbidden, Error: "not a participant"}
	case errors.As(err, &notFoundErr):
		resp = &Response{ResponseCode: http.StatusNotFound, Error: notFoundErr.Resource + " not found"}
	case errors.As(err, &storageErr):
		resp = &Response{ResponseCode: http.StatusServiceUnavailable, Error: "message not sent, retry"}
	}

	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: resp,
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
