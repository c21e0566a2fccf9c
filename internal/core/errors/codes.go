package errors

import (
	"fmt"
	"strings"
)

// Code is a stable, user-visible error code.
type Code string

// Error codes surfaced to callers.
const (
	CodeProjectNotFound       Code = "PROJECT_NOT_FOUND"
	CodeSessionNotFound       Code = "SESSION_NOT_FOUND"
	CodeStrategyNotFound      Code = "STRATEGY_NOT_FOUND"
	CodePostNotFound          Code = "POST_NOT_FOUND"
	CodeUnauthorized          Code = "UNAUTHORIZED"
	CodeInvalidInput          Code = "INVALID_INPUT"
	CodeAIServiceError        Code = "AI_SERVICE_ERROR"
	CodeResearchFailed        Code = "RESEARCH_FAILED"
	CodeValidationFailed      Code = "VALIDATION_FAILED"
	CodeStrategyAlreadyActive Code = "STRATEGY_ALREADY_ACTIVE"
	CodeNoActiveStrategy      Code = "NO_ACTIVE_STRATEGY"
	CodeSessionCompleted      Code = "SESSION_COMPLETED"
	CodeDuplicateKeyword      Code = "DUPLICATE_KEYWORD"
	CodeProjectArchived       Code = "PROJECT_ARCHIVED"
	CodeResearchNotFound      Code = "RESEARCH_NOT_FOUND"
	CodeKeywordNotFound       Code = "KEYWORD_NOT_FOUND"
	CodeClusterNotFound       Code = "CLUSTER_NOT_FOUND"
	CodeInternal              Code = "INTERNAL_ERROR"
)

// Error is a rejected operation with a stable code and a human-readable message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error that keeps err as its cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code, so errors.Is(err, New(CodeX, "")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's tree, or CodeInternal.
func CodeOf(err error) Code {
	var coded *Error
	if As(err, &coded) {
		return coded.Code
	}

	return CodeInternal
}

// IsNotFound reports whether the code names a missing record.
func (c Code) IsNotFound() bool {
	return strings.HasSuffix(string(c), "_NOT_FOUND")
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// MessageOf returns the human-readable message of a coded error, or err.Error().
func MessageOf(err error) string {
	var coded *Error
	if As(err, &coded) {
		return coded.Message
	}

	return err.Error()
}
