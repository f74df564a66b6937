package errors

import "net/http"

const (
	CodeTimerNotFound      = "timer_not_found"
	CodeInvalidDuration    = "invalid_duration"
	CodeInvalidTransition  = "invalid_transition"
	CodeCannotResetExpired = "cannot_reset_expired"
	CodeInvalidDelta       = "invalid_delta"
	CodeInvalidName        = "invalid_name"
	CodeInvalidLevel       = "invalid_level"
	CodeInvalidJSON        = "invalid_json"
	CodeInvalidQuery       = "invalid_query"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal_error"
)

type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Is reports whether err carries the given code. A nil error never matches.
func Is(err *APIError, code string) bool {
	return err != nil && err.Code == code
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, CodeInternal, message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func Forbidden(message string) *APIError {
	if message == "" {
		message = "forbidden"
	}
	return New(http.StatusForbidden, "forbidden", message)
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string, details interface{}) *APIError {
	err := New(http.StatusConflict, code, message)
	err.Details = details
	return err
}

func TooManyRequests(message string) *APIError {
	if message == "" {
		message = "too many requests"
	}
	return New(http.StatusTooManyRequests, CodeRateLimited, message)
}

func TimerNotFound(id string) *APIError {
	return NotFound(CodeTimerNotFound, "timer "+id+" not found")
}

func InvalidDuration(message string) *APIError {
	return BadRequest(CodeInvalidDuration, message)
}

func InvalidTransition(message string, details interface{}) *APIError {
	return Conflict(CodeInvalidTransition, message, details)
}

func CannotResetExpired(details interface{}) *APIError {
	return Conflict(CodeCannotResetExpired, "expired timers cannot be reset; create a new timer", details)
}
