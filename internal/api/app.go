package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/campuslink/campus-chat/internal/config"
	"github.com/campuslink/campus-chat/internal/database"
	"github.com/campuslink/campus-chat/internal/server"
	"github.com/campuslink/campus-chat/internal/types"
)

type CampusChatApp struct {
	log               *log.Logger
	db                database.CampusChatRepository
	mux               *http.Server
	cs                *server.CampusServer
	signingKey        []byte
	allowedOrigins    []string
	markReadOnFetch   bool
	notificationLimit int
}

func NewCampusChatApp(mux *http.ServeMux, logger *log.Logger, cs *server.CampusServer, db database.CampusChatRepository, cfg *config.Config) *CampusChatApp {
	s := &CampusChatApp{
		log:               logger,
		db:                db,
		cs:                cs,
		signingKey:        cfg.SigningKey,
		allowedOrigins:    cfg.AllowedOrigins,
		markReadOnFetch:   cfg.MarkReadOnFetch,
		notificationLimit: cfg.NotificationLimit,
	}

	mux.Handle("GET /api/health", http.HandlerFunc(s.healthCheck))
	mux.Handle("GET /api/users", s.authMiddleware(s.listUsers))
	mux.Handle("GET /api/conversations", s.authMiddleware(s.listConversations))
	mux.Handle("POST /api/conversations", s.authMiddleware(s.createConversation))
	mux.Handle("GET /api/conversations/messages", s.authMiddleware(s.getMessages))
	mux.Handle("POST /api/conversations/read", s.authMiddleware(s.markConversationRead))
	mux.Handle("POST /api/conversations/send", s.authMiddleware(s.sendMessage))
	mux.Handle("GET /api/conversations/unread", s.authMiddleware(s.unreadMessages))
	mux.Handle("GET /api/notifications", s.authMiddleware(s.listNotifications))
	mux.Handle("POST /api/notifications", s.authMiddleware(s.pushNotification))
	mux.Handle("POST /api/notifications/read", s.authMiddleware(s.markNotificationRead))
	mux.Handle("POST /api/notifications/read-all", s.authMiddleware(s.markAllNotificationsRead))
	mux.Handle("GET /api/notifications/unread", s.authMiddleware(s.unreadNotifications))
	mux.Handle("POST /api/announcements", s.authMiddleware(s.requireRole(s.broadcastAnnouncement, types.RoleAdmin)))
	mux.Handle("POST /api/orders/status", s.authMiddleware(s.requireRole(s.broadcastOrderStatus, types.RoleCanteen, types.RoleAdmin)))
	mux.Handle("GET /api/presence", s.authMiddleware(s.presenceStatus))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *CampusChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *CampusChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
