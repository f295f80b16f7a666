package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/campuslink/campus-chat/internal/server"
	"github.com/campuslink/campus-chat/internal/types"
)

type PushNotificationRequest struct {
	RecipientId int                    `json:"recipient_id"`
	Title       string                 `json:"title"`
	Body        string                 `json:"body"`
	Type        types.NotificationType `json:"type"`
	Link        string                 `json:"link,omitempty"`
}

func (s *CampusChatApp) listNotifications(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbNotifs, err := s.db.ListNotifications(r.Context(), userId, s.notificationLimit)
	if err != nil {
		s.log.Println("list notifications:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var notifs []types.Notification
	for _, n := range dbNotifs {
		notifs = append(notifs, server.NotificationFromRecord(n))
	}

	s.writeJson(w, http.StatusOK, notifs)
}

func (s *CampusChatApp) pushNotification(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req PushNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	notif, err := s.cs.Notify(r.Context(), types.Notification{
		RecipientId: req.RecipientId,
		SenderId:    userId,
		Title:       req.Title,
		Body:        req.Body,
		Type:        req.Type,
		Link:        req.Link,
	})
	if err != nil {
		s.log.Printf("push notification from user %d: %v", userId, err)
		errResp := domainApiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, notif)
}

func (s *CampusChatApp) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	idStr := r.URL.Query().Get("id")
	notificationId, err := strconv.Atoi(idStr)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbNotif, err := s.db.MarkNotificationRead(r.Context(), notificationId, userId)
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

	s.writeJson(w, http.StatusOK, server.NotificationFromRecord(dbNotif))
}

func (s *CampusChatApp) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.MarkAllNotificationsRead(r.Context(), userId); err != nil {
		s.log.Println("mark all notifications read:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *CampusChatApp) unreadNotifications(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	count, err := s.db.UnreadNotificationCount(r.Context(), userId)
	if err != nil {
		s.log.Println("unread notification count:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]int{"count": count})
}
