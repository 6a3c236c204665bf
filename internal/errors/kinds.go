package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// ValidationError reports a rejected input value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports that a resource id does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// AuthorizationError reports that the actor may not perform Action.
type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not allowed to %s", e.Action)
}

func NewAuthorizationError(action string) *AuthorizationError {
	return &AuthorizationError{Action: action}
}

// UpstreamStoreError wraps a failure of the backing store after retries were exhausted.
type UpstreamStoreError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *UpstreamStoreError) Error() string {
	return fmt.Sprintf("store %s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *UpstreamStoreError) Unwrap() error {
	return e.Err
}

// RespondWithDomainError maps a domain error kind to its HTTP response.
// Unknown errors become a 500 without leaking their message.
func RespondWithDomainError(c *gin.Context, err error) {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		authzErr      *AuthorizationError
		storeErr      *UpstreamStoreError
	)

	switch {
	case stderrors.As(err, &validationErr):
		if validationErr.Field != "" {
			BadRequestWithDetails(c, validationErr.Error(), gin.H{"field": validationErr.Field})
			return
		}
		BadRequest(c, validationErr.Error())
	case stderrors.As(err, &notFoundErr):
		NotFound(c, notFoundErr.Error())
	case stderrors.As(err, &authzErr):
		Forbidden(c, authzErr.Error())
	case stderrors.As(err, &storeErr):
		slog.Error("store unavailable", "op", storeErr.Op, "attempts", storeErr.Attempts, "error", storeErr.Err)
		ServiceUnavailable(c, "")
	case stderrors.Is(err, context.Canceled):
		slog.Debug("request canceled", "path", c.FullPath())
		RequestCanceled(c)
	case stderrors.Is(err, context.DeadlineExceeded):
		slog.Warn("request deadline exceeded", "path", c.FullPath())
		ServiceUnavailable(c, "")
	default:
		slog.Error("unhandled error", "error", err, "path", c.FullPath())
		InternalError(c, "")
	}
}
