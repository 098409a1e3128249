package chat

import "fmt"

// ErrorCode classifies a rejected chat request.
type ErrorCode string

const (
	InvalidHistory ErrorCode = "INVALID_HISTORY"
	InvalidRole    ErrorCode = "INVALID_ROLE"
)

var (
	ErrInvalidHistory = &ValidationError{Code: InvalidHistory}
	ErrInvalidRole    = &ValidationError{Code: InvalidRole}
)

// ValidationError reports why a request was rejected before reaching the model.
type ValidationError struct {
	Code ErrorCode
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("chat: %s", e.Code)
}

// Is matches any ValidationError carrying the same code.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

// Message is the fixed text returned to the client.
func (e *ValidationError) Message() string {
	switch e.Code {
	case InvalidHistory:
		return "Invalid message history"
	case InvalidRole:
		return "Invalid role"
	default:
		return "Invalid request"
	}
}
