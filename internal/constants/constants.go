package constants

const (
	// Context and session keys
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
	ContextKeyUserRole  = "user_role"
	ContextKeyTask      = "task"
	ContextKeyRequestID = "request_id"

	SessionCookieName = "task_session"
	RequestIDHeader   = "X-Request-ID"

	// Validation
	MinPasswordLength = 8
	MinTitleLength    = 3

	// Pagination
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)
