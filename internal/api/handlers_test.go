package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campus-chat/internal/config"
	"github.com/campuslink/campus-chat/internal/database"
	"github.com/campuslink/campus-chat/internal/server"
	"github.com/campuslink/campus-chat/internal/stats"
	"github.com/campuslink/campus-chat/internal/testutil"
	"github.com/campuslink/campus-chat/internal/types"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func testConfig() *config.Config {
	return &config.Config{
		ServerAddr:        "localhost:8000",
		DatabaseDSN:       "postgres://localhost/campus_chat_test",
		SigningKey:        testSigningKey,
		AllowedOrigins:    []string{"http://localhost:3000"},
		MarkReadOnFetch:   true,
		NotificationLimit: 50,
	}
}

func newTestApp(t *testing.T, db database.CampusChatRepository, cfg *config.Config) (*CampusChatApp, *http.ServeMux) {
	t.Helper()

	logger := testutil.TestLogger(t)

	sp := &stats.MockStatsUpdater{}
	sp.On("RegisterMetric", mock.Anything).Return()
	sp.On("Incr", mock.Anything).Return()
	sp.On("Decr", mock.Anything).Return()

	cs, err := server.NewCampusServer(logger, db, sp, nil)
	require.NoError(t, err)

	mux := http.NewServeMux()
	app := NewCampusChatApp(mux, logger, cs, db, cfg)
	return app, mux
}

func authedRequest(t *testing.T, method, target string, body io.Reader, userId int, role types.Role) *http.Request {
	t.Helper()

	token, err := createSessionToken(testSigningKey, userId, role, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: token})
	return req
}

func testConversation() database.Conversation {
	return database.Conversation{
		Id:         10,
		ExternalId: "conv-1",
		DirectKey:  "1:2",
		Participants: []database.User{
			{Id: 1, Name: "alice", Role: "student"},
			{Id: 2, Name: "bob", Role: "faculty"},
		},
	}
}

func Test_healthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db := &database.MockCampusChatRepository{}
		db.On("Ping", mock.Anything).Return(nil)

		_, mux := newTestApp(t, db, testConfig())

		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("database down", func(t *testing.T) {
		db := &database.MockCampusChatRepository{}
		db.On("Ping", mock.Anything).Return(errors.New("connection refused"))

		_, mux := newTestApp(t, db, testConfig())

		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func Test_listUsers(t *testing.T) {
	db := &database.MockCampusChatRepository{}
	db.On("ListUsers", mock.Anything, 1).Return([]database.User{
		{Id: 2, Name: "bob", Role: "faculty"},
		{Id: 3, Name: "carol", Role: "student"},
	}, nil)

	_, mux := newTestApp(t, db, testConfig())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/users", nil, 1, types.RoleStudent))

	require.Equal(t, http.StatusOK, rr.Code)

	var users []types.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&users))
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].Name)
}

func Test_createConversation(t *testing.T) {
	tt := []struct {
		name               string
		body               string
		setupMock          func(db *database.MockCampusChatRepository)
		expectedStatusCode int
	}{
		{
			name:               "success",
			body:               `{"recipient_id": 2}`,
			expectedStatusCode: http.StatusOK,
			setupMock: func(db *database.MockCampusChatRepository) {
				db.On("GetUserById", mock.Anything, 2).Return(database.User{Id: 2, Name: "bob"}, nil)
				db.On("FindOrCreateDirectConversation", mock.Anything, mock.MatchedBy(func(p database.CreateConversationParams) bool {
					return p.UserA == 1 && p.UserB == 2 && p.ExternalId != ""
				})).Return(testConversation(), nil)
			},
		},
		{
			name:               "self conversation rejected",
			body:               `{"recipient_id": 1}`,
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:               "missing recipient rejected",
			body:               `{}`,
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:               "malformed body",
			body:               `{`,
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:               "unknown recipient",
			body:               `{"recipient_id": 42}`,
			expectedStatusCode: http.StatusNotFound,
			setupMock: func(db *database.MockCampusChatRepository) {
				db.On("GetUserById", mock.Anything, 42).Return(database.User{}, sql.ErrNoRows)
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			db := &database.MockCampusChatRepository{}
			if tc.setupMock != nil {
				tc.setupMock(db)
			}

			_, mux := newTestApp(t, db, testConfig())

			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/api/conversations",
				bytes.NewBufferString(tc.body), 1, types.RoleStudent))

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
		})
	}
}

func Test_createConversation_idempotent(t *testing.T) {
	db := &database.MockCampusChatRepository{}
	db.On("GetUserById", mock.Anything, 2).Return(database.User{Id: 2, Name: "bob"}, nil)
	db.On("FindOrCreateDirectConversation", mock.Anything, mock.Anything).Return(testConversation(), nil)

	_, mux := newTestApp(t, db, testConfig())

	var first, second types.Conversation
	for _, out := range []*types.Conversation{&first, &second} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/api/conversations",
			bytes.NewBufferString(`{"recipient_id": 2}`), 1, types.RoleStudent))
		require.Equal(t, http.StatusOK, rr.Code)
		require.NoError(t, json.NewDecoder(rr.Body).Decode(out))
	}

	assert.Equal(t, first.ExternalId, second.ExternalId)
}

func Test_getMessages(t *testing.T) {
	db := &database.MockCampusChatRepository{}
	db.On("GetConversationByExternalId", mock.Anything, "conv-1").Return(testConversation(), nil)
	db.On("MarkMessagesRead", mock.Anything, 10, 1).Return(nil)
	db.On("GetMessages", mock.Anything, 10).Return([]database.Message{
		{Id: 1, ConversationId: 10, SenderId: 2, Content: "hi", CreatedAt: time.Now().UTC()},
		{Id: 2, ConversationId: 10, SenderId: 1, Content: "hello", CreatedAt: time.Now().UTC()},
	}, nil)

	_, mux := newTestApp(t, db, testConfig())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/conversations/messages?id=conv-1", nil, 1, types.RoleStudent))

	require.Equal(t, http.StatusOK, rr.Code)

	var conv types.Conversation
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&conv))
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "hi", conv.Messages[0].Content)
	assert.Equal(t, "conv-1", conv.Messages[0].ConversationId)

	db.AssertCalled(t, "MarkMessagesRead", mock.Anything, 10, 1)
}

func Test_getMessages_markReadDisabled(t *testing.T) {
	db := &database.MockCampusChatRepository{}
	db.On("GetConversationByExternalId", mock.Anything, "conv-1").Return(testConversation(), nil)
	db.On("GetMessages", mock.Anything, 10).Return([]database.Message{}, nil)

	cfg := testConfig()
	cfg.MarkReadOnFetch = false
	_, mux := newTestApp(t, db, cfg)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/conversations/messages?id=conv-1", nil, 1, types.RoleStudent))

	require.Equal(t, http.StatusOK, rr.Code)
	db.AssertNotCalled(t, "MarkMessagesRead", mock.Anything, mock.Anything, mock.Anything)
}

func Test_getMessages_nonParticipant(t *testing.T) {
	db := &database.MockCampusChatRepository{}
	db.On("GetConversationByExternalId", mock.Anything, "conv-1").Return(testConversation(), nil)

	_, mux := newTestApp(t, db, testConfig())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/conversations/messages?id=conv-1", nil, 99, types.RoleStudent))

	assert.Equal(t, http.StatusForbidden, rr.Code)
	db.AssertNotCalled(t, "GetMessages", mock.Anything, mock.Anything)
}

func Test_markConversationRead(t *testing.T) {
	db := &database.MockCampusChatRepository{}
	db.On("GetConversationByExternalId", mock.Anything, "conv-1").Return(testConversation(), nil)
	db.On("MarkMessagesRead", mock.Anything, 10, 2).Return(nil)

	_, mux := newTestApp(t, db, testConfig())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/api/conversations/read?id=conv-1", nil, 2, types.RoleFaculty))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	db.AssertCalled(t, "MarkMessagesRead", mock.Anything, 10, 2)
}

func Test_sendMessage(t *testing.T) {
	tt := []struct {
		name               string
		body               string
		setupMock          func(db *database.MockCampusChatRepository)
		expectedStatusCode int
	}{
		{
			name:               "success",
			body:               `{"conversation_id": "conv-1", "content": "hello"}`,
			expectedStatusCode: http.StatusOK,
			setupMock: func(db *database.MockCampusChatRepository) {
				db.On("GetConversationByExternalId", mock.Anything, "conv-1").Return(testConversation(), nil)
				db.On("AppendMessage", mock.Anything, 10, 1, "hello").Return(database.Message{
					Id: 1, ConversationId: 10, SenderId: 1, Content: "hello", CreatedAt: time.Now().UTC(),
				}, nil)
				db.On("CreateNotification", mock.Anything, mock.Anything).Return(database.Notification{
					Id: 1, RecipientId: 2, Title: "New Message", Body: "b", Type: "chat",
				}, nil)
			},
		},
		{
			name:               "empty content",
			body:               `{"conversation_id": "conv-1", "content": "  "}`,
			expectedStatusCode: http.StatusBadRequest,
			setupMock: func(db *database.MockCampusChatRepository) {
				db.On("GetConversationByExternalId", mock.Anything, "conv-1").Return(testConversation(), nil)
			},
		},
		{
			name:               "unknown conversation",
			body:               `{"conversation_id": "nope", "content": "hello"}`,
			expectedStatusCode: http.StatusNotFound,
			setupMock: func(db *database.MockCampusChatRepository) {
				db.On("GetConversationByExternalId", mock.Anything, "nope").Return(database.Conversation{}, sql.ErrNoRows)
			},
		},
		{
			name:               "storage failure",
			body:               `{"conversation_id": "conv-1", "content": "hello"}`,
			expectedStatusCode: http.StatusServiceUnavailable,
			setupMock: func(db *database.MockCampusChatRepository) {
				db.On("GetConversationByExternalId", mock.Anything, "conv-1").Return(testConversation(), nil)
				db.On("AppendMessage", mock.Anything, 10, 1, "hello").Return(database.Message{}, errors.New("timeout"))
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			db := &database.MockCampusChatRepository{}
			if tc.setupMock != nil {
				tc.setupMock(db)
			}

			_, mux := newTestApp(t, db, testConfig())

			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/api/conversations/send",
				bytes.NewBufferString(tc.body), 1, types.RoleStudent))

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
		})
	}
}

func Test_unreadMessages(t *testing.T) {
	db := &database.MockCampusChatRepository{}
	db.On("UnreadMessageCount", mock.Anything, 1).Return(3, nil)

	_, mux := newTestApp(t, db, testConfig())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/conversations/unread", nil, 1, types.RoleStudent))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"unread_count": 3}`, rr.Body.String())
}

func Test_presenceStatus(t *testing.T) {
	db := &database.MockCampusChatRepository{}
	app, mux := newTestApp(t, db, testConfig())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/presence?id=2", nil, 1, types.RoleStudent))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"user_id": 2, "online": false}`, rr.Body.String())
	require.NotNil(t, app.cs)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/presence?id=abc", nil, 1, types.RoleStudent))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func Test_broadcastAnnouncement(t *testing.T) {
	tt := []struct {
		name               string
		role               types.Role
		body               string
		expectedStatusCode int
	}{
		{
			name:               "admin accepted",
			role:               types.RoleAdmin,
			body:               `{"title": "Campus closed", "body": "Heavy rain, stay indoors"}`,
			expectedStatusCode: http.StatusAccepted,
		},
		{
			name:               "student forbidden",
			role:               types.RoleStudent,
			body:               `{"title": "Free pizza", "body": "Room 101"}`,
			expectedStatusCode: http.StatusForbidden,
		},
		{
			name:               "missing title",
			role:               types.RoleAdmin,
			body:               `{"body": "no title"}`,
			expectedStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			db := &database.MockCampusChatRepository{}
			_, mux := newTestApp(t, db, testConfig())

			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/api/announcements",
				bytes.NewBufferString(tc.body), 1, tc.role))

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
		})
	}
}

func Test_broadcastOrderStatus(t *testing.T) {
	tt := []struct {
		name               string
		role               types.Role
		body               string
		expectedStatusCode int
	}{
		{
			name:               "canteen accepted",
			role:               types.RoleCanteen,
			body:               `{"order_id": 17, "status": "ready"}`,
			expectedStatusCode: http.StatusAccepted,
		},
		{
			name:               "admin accepted",
			role:               types.RoleAdmin,
			body:               `{"order_id": 17, "status": "preparing"}`,
			expectedStatusCode: http.StatusAccepted,
		},
		{
			name:               "student forbidden",
			role:               types.RoleStudent,
			body:               `{"order_id": 17, "status": "ready"}`,
			expectedStatusCode: http.StatusForbidden,
		},
		{
			name:               "invalid payload",
			role:               types.RoleCanteen,
			body:               `{not json`,
			expectedStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			db := &database.MockCampusChatRepository{}
			_, mux := newTestApp(t, db, testConfig())

			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/api/orders/status",
				bytes.NewBufferString(tc.body), 5, tc.role))

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
		})
	}
}
