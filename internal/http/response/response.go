package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// FlatError is the {error: string} body used by the AI and chat endpoints.
type FlatError struct {
	Error string `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps a service error onto its HTTP status. Internal
// errors are reported with a generic message.
func RespondServiceError(c *gin.Context, err error) {
	e := Classify(err)
	msg := err
	if e.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		msg = errors.New("internal server error")
	}
	RespondError(c, e.Status, e.Code, msg)
}

func RespondFlatError(c *gin.Context, status int, msg string) {
	c.JSON(status, FlatError{Error: msg})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// Error is the HTTP view of a service error.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func Classify(err error) *Error {
	switch {
	case err == nil:
		return &Error{Status: http.StatusOK}
	case errors.Is(err, apperr.ErrUnauthorized):
		return &Error{Status: http.StatusUnauthorized, Code: "unauthorized", Err: err}
	case errors.Is(err, apperr.ErrForbidden):
		return &Error{Status: http.StatusForbidden, Code: "forbidden", Err: err}
	case errors.Is(err, apperr.ErrNotFound):
		return &Error{Status: http.StatusNotFound, Code: "not_found", Err: err}
	case errors.Is(err, apperr.ErrInvalidArgument):
		return &Error{Status: http.StatusBadRequest, Code: "invalid_argument", Err: err}
	case errors.Is(err, apperr.ErrConflict):
		return &Error{Status: http.StatusConflict, Code: "conflict", Err: err}
	case errors.Is(err, apperr.ErrInvalidTransition):
		return &Error{Status: http.StatusConflict, Code: "invalid_transition", Err: err}
	default:
		return &Error{Status: http.StatusInternalServerError, Code: "internal", Err: err}
	}
}
