package apperr

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

type Code string

const (
	ClientErrorCode       = Code("client_error")
	NotFoundCode          = Code("not_found")
	EngineUnavailableCode = Code("engine_unavailable")
	ProcessingFailureCode = Code("processing_failure")
	StorageFailureCode    = Code("storage_failure")
	DefaultErrorCode      = Code("unknown_error")
)

var httpStatusCodeMap = map[Code]int{
	ClientErrorCode:       http.StatusBadRequest,
	NotFoundCode:          http.StatusNotFound,
	EngineUnavailableCode: http.StatusServiceUnavailable,
	ProcessingFailureCode: http.StatusInternalServerError,
	StorageFailureCode:    http.StatusInternalServerError,
	DefaultErrorCode:      http.StatusInternalServerError,
}

// Error carries what the HTTP layer needs: a code that maps to a status and a message
// safe to show the caller. The internal error keeps the engine diagnostics and is only
// logged.
type Error struct {
	Code          Code
	UserMessage   string
	InternalError error
}

func (e *Error) Error() string {
	if e.InternalError == nil {
		return e.UserMessage
	}
	return e.InternalError.Error()
}

func (e *Error) Unwrap() error {
	return e.InternalError
}

// Status is the HTTP status for the error's code.
func (e *Error) Status() int {
	if status, ok := httpStatusCodeMap[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func newError(code Code, userMessage string, internal error) *Error {
	if internal == nil {
		internal = errors.New(userMessage)
	}
	return &Error{Code: code, UserMessage: userMessage, InternalError: internal}
}

func Client(userMessage string) *Error {
	return newError(ClientErrorCode, userMessage, nil)
}

func NotFound(userMessage string) *Error {
	return newError(NotFoundCode, userMessage, nil)
}

func EngineUnavailable(userMessage string) *Error {
	return newError(EngineUnavailableCode, userMessage, nil)
}

func Processing(err error, userMessage string) *Error {
	return newError(ProcessingFailureCode, userMessage, err)
}

func Storage(err error, userMessage string) *Error {
	return newError(StorageFailureCode, userMessage, err)
}

// Wrap adds internal context while keeping code and user message.
func Wrap(err *Error, msg string) *Error {
	return &Error{
		Code:          err.Code,
		UserMessage:   err.UserMessage,
		InternalError: errors.Wrap(err.InternalError, msg),
	}
}

// From converts any error into an *Error. Unknown errors become DefaultErrorCode with
// the given user message.
func From(err error, userMessage string) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return newError(DefaultErrorCode, userMessage, err)
}

// HasCode reports whether err is an *Error with the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
