package server

import (
	"fmt"
)

// ValidationError rejects malformed input before anything is persisted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// AuthorizationError rejects an operation by a user who is not a
// participant of the target conversation.
type AuthorizationError struct {
	UserId         int
	ConversationId string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d is not a participant of conversation %q", e.UserId, e.ConversationId)
}

// NotFoundError reports an unknown conversation or notification.
type NotFoundError struct {
	Resource string
	Id       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Id)
}

// StorageError wraps a persistence failure or timeout. It is the only
// error class the router retries, and it must never be swallowed:
// a send that hits one returns it to the caller with no push emitted.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
