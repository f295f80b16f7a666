package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/campuslink/campus-chat/internal/server"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

func NewBadRequestError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Message:    lower(http.StatusText(http.StatusBadRequest)),
	}
}

func NewNotFoundError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusNotFound,
		Message:    lower(http.StatusText(http.StatusNotFound)),
	}
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Message:    lower(http.StatusText(http.StatusInternalServerError)),
		Err:        err,
	}
}

func NewUnauthorizedError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusUnauthorized,
		Message:    lower(http.StatusText(http.StatusUnauthorized)),
	}
}

func NewForbiddenError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusForbidden,
		Message:    lower(http.StatusText(http.StatusForbidden)),
	}
}

func NewServiceUnavailableError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusServiceUnavailable,
		Message:    "delivery uncertain, please retry",
		Err:        err,
	}
}

// domainApiError maps the messaging core's typed errors onto HTTP
// responses.
func domainApiError(err error) *ApiError {
	var (
		validationErr    *server.ValidationError
		authorizationErr *server.AuthorizationError
		notFoundErr      *server.NotFoundError
		storageErr       *server.StorageError
	)

	switch {
	case errors.As(err, &validationErr):
		return &ApiError{StatusCode: http.StatusBadRequest, Message: validationErr.Reason}
	case errors.As(err, &authorizationErr):
		return NewForbiddenError()
	case errors.As(err, &notFoundErr):
		return NewNotFoundError()
	case errors.As(err, &storageErr):
		return NewServiceUnavailableError(err)
	default:
		return NewInternalServerError(err)
	}
}
