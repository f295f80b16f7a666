package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ResponseForError(t *testing.T) {
	tt := []struct {
		name         string
		err          error
		expectedCode int
		expectedMsg  string
	}{
		{
			name:         "validation error",
			err:          &ValidationError{Reason: "message content is required"},
			expectedCode: http.StatusBadRequest,
			expectedMsg:  "message content is required",
		},
		{
			name:         "authorization error",
			err:          &AuthorizationError{UserId: 3, ConversationId: "conv-1"},
			expectedCode: http.StatusForbidden,
			expectedMsg:  "not a participant",
		},
		{
			name:         "not found error",
			err:          &NotFoundError{Resource: "conversation", Id: "conv-9"},
			expectedCode: http.StatusNotFound,
			expectedMsg:  "conversation not found",
		},
		{
			name:         "storage error",
			err:          &StorageError{Op: "append message", Err: errors.New("timeout")},
			expectedCode: http.StatusServiceUnavailable,
			expectedMsg:  "message not sent, retry",
		},
		{
			name:         "wrapped storage error",
			err:          fmt.Errorf("routing message: %w", &StorageError{Op: "append message", Err: errors.New("timeout")}),
			expectedCode: http.StatusServiceUnavailable,
			expectedMsg:  "message not sent, retry",
		},
		{
			name:         "unknown error",
			err:          errors.New("boom"),
			expectedCode: http.StatusInternalServerError,
			expectedMsg:  "internal server error",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			msg := ResponseForError(42, tc.err)
			require.NotNil(t, msg.Response)
			assert.Equal(t, 42, msg.Id)
			assert.Equal(t, tc.expectedCode, msg.Response.ResponseCode)
			assert.Equal(t, tc.expectedMsg, msg.Response.Error)
		})
	}
}

func Test_ErrInvalidMessage(t *testing.T) {
	msg := ErrInvalidMessage(7)
	require.NotNil(t, msg.Response)
	assert.Equal(t, 7, msg.Id)
	assert.Equal(t, http.StatusBadRequest, msg.Response.ResponseCode)

	msg = ErrInvalidMessage(0)
	assert.Zero(t, msg.Id)
}

func Test_NoErrOK(t *testing.T) {
	msg := NoErrOK(3, map[string]any{"ok": true})
	require.NotNil(t, msg.Response)
	assert.Equal(t, http.StatusOK, msg.Response.ResponseCode)
	assert.Empty(t, msg.Response.Error)
	assert.Equal(t, true, msg.Response.Data["ok"])
}
