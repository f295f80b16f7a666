package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"

	"github.com/campuslink/campus-chat/internal/database"
	"github.com/campuslink/campus-chat/internal/server"
	"github.com/campuslink/campus-chat/internal/types"
)

type CreateConversationRequest struct {
	RecipientId int `json:"recipient_id"`
}

type SendMessageRequest struct {
	ConversationId string `json:"conversation_id"`
	Content        string `json:"content"`
}

type AnnouncementRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *CampusChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func userResponse(u database.User) types.User {
	return types.User{
		Id:           u.Id,
		Name:         u.Name,
		EmailAddress: u.EmailAddress,
		Role:         types.Role(u.Role),
		Avatar:       u.Avatar,
		CreatedAt:    u.CreatedAt,
	}
}

func conversationResponse(c database.Conversation) types.Conversation {
	conv := types.Conversation{
		Id:              c.Id,
		ExternalId:      c.ExternalId,
		IsGroup:         c.IsGroup,
		LastMessage:     c.LastMessage,
		LastMessageTime: c.LastMessageTime,
		CreatedAt:       c.CreatedAt,
	}
	for _, p := range c.Participants {
		conv.Participants = append(conv.Participants, userResponse(p))
	}
	return conv
}

func messageResponse(m database.Message, externalId string) types.Message {
	return types.Message{
		Id:             m.Id,
		ConversationId: externalId,
		SenderId:       m.SenderId,
		Content:        m.Content,
		IsRead:         m.IsRead,
		Timestamp:      m.CreatedAt,
	}
}

func (s *CampusChatApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.log.Println("health check:", err)
		errResp := NewServiceUnavailableError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *CampusChatApp) listUsers(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUsers, err := s.db.ListUsers(r.Context(), userId)
	if err != nil {
		s.log.Println("list users:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var users []types.User
	for _, u := range dbUsers {
		users = append(users, userResponse(u))
	}

	s.writeJson(w, http.StatusOK, users)
}

func (s *CampusChatApp) listConversations(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbConvs, err := s.db.ListConversationsForUser(r.Context(), userId)
	if err != nil {
		s.log.Println("list conversations:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var convs []types.Conversation
	for _, c := range dbConvs {
		convs = append(convs, conversationResponse(c))
	}

	s.writeJson(w, http.StatusOK, convs)
}

func (s *CampusChatApp) createConversation(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.RecipientId == 0 || req.RecipientId == userId {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetUserById(r.Context(), req.RecipientId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sid, err := shortid.Generate()
	if err != nil {
		s.log.Println("generate shortid:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conv, err := s.db.FindOrCreateDirectConversation(r.Context(), database.CreateConversationParams{
		ExternalId: sid,
		UserA:      userId,
		UserB:      req.RecipientId,
	})
	if err != nil {
		s.log.Println("find or create conversation:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, conversationResponse(conv))
}

// conversationForParticipant fetches a conversation and enforces that the
// caller is one of its participants.
func (s *CampusChatApp) conversationForParticipant(r *http.Request, userId int) (database.Conversation, *ApiError) {
	externalId := r.URL.Query().Get("id")
	if externalId == "" {
		return database.Conversation{}, NewBadRequestError()
	}

	conv, err := s.db.GetConversationByExternalId(r.Context(), externalId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Conversation{}, NewNotFoundError()
		}
		return database.Conversation{}, NewInternalServerError(err)
	}

	if !slices.ContainsFunc(conv.Participants, func(u database.User) bool { return u.Id == userId }) {
		return database.Conversation{}, NewForbiddenError()
	}

	return conv, nil
}

func (s *CampusChatApp) getMessages(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conv, apiErr := s.conversationForParticipant(r, userId)
	if apiErr != nil {
		s.writeJson(w, apiErr.StatusCode, apiErr)
		return
	}

	if s.markReadOnFetch {
		if err := s.db.MarkMessagesRead(r.Context(), conv.Id, userId); err != nil {
			s.log.Println("mark messages read:", err)
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	dbMsgs, err := s.db.GetMessages(r.Context(), conv.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	resp := conversationResponse(conv)
	for _, m := range dbMsgs {
		resp.Messages = append(resp.Messages, messageResponse(m, conv.ExternalId))
	}

	s.writeJson(w, http.StatusOK, resp)
}

func (s *CampusChatApp) markConversationRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	conv, apiErr := s.conversationForParticipant(r, userId)
	if apiErr != nil {
		s.writeJson(w, apiErr.StatusCode, apiErr)
		return
	}

	if err := s.db.MarkMessagesRead(r.Context(), conv.Id, userId); err != nil {
		s.log.Println("mark messages read:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *CampusChatApp) sendMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.cs.SendMessage(r.Context(), userId, req.ConversationId, req.Content)
	if err != nil {
		s.log.Printf("send message from user %d: %v", userId, err)
		errResp := domainApiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, msg)
}

func (s *CampusChatApp) unreadMessages(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	count, err := s.db.UnreadMessageCount(r.Context(), userId)
	if err != nil {
		s.log.Println("unread message count:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]int{"unread_count": count})
}

func (s *CampusChatApp) presenceStatus(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	userId, err := strconv.Atoi(idStr)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]any{
		"user_id": userId,
		"online":  s.cs.Online(r.Context(), userId),
	})
}

func (s *CampusChatApp) broadcastAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req AnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Title == "" || req.Body == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.cs.BroadcastAnnouncement(req.Title, req.Body)
	s.writeJson(w, http.StatusAccepted, nil)
}

func (s *CampusChatApp) broadcastOrderStatus(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(payload) {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.cs.BroadcastOrderStatus(payload)
	s.writeJson(w, http.StatusAccepted, nil)
}

func (s *CampusChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	id, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetUserById(r.Context(), id)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(userResponse(user), conn, s.cs, s.log)

	s.cs.RegisterClient(client)
	go client.Write()
	go client.Read()
}
