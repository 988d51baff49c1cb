package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ostrakov/socialmesh-backend/internal/pkg/apperr"
)

// Envelope is the uniform success shape: the numeric status repeated in the
// body plus the payload under result.
type Envelope struct {
	Code   int `json:"code"`
	Result any `json:"result"`
}

type APIError struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

type ErrorEnvelope struct {
	Code  int      `json:"code"`
	Error APIError `json:"error"`
}

func Respond(c *gin.Context, status int, result any) {
	c.JSON(status, Envelope{Code: status, Result: result})
}

func RespondOK(c *gin.Context, result any) {
	Respond(c, http.StatusOK, result)
}

func RespondCreated(c *gin.Context, result any) {
	Respond(c, http.StatusCreated, result)
}

// RespondError maps the error's classification to an HTTP status. Anything
// unclassified is a 500 with the message suppressed.
func RespondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	msg := "internal error"
	if kind != apperr.Internal && err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Code:  status,
		Error: APIError{Message: msg, Kind: kind.String()},
	})
}

func AbortError(c *gin.Context, err error) {
	RespondError(c, err)
	c.Abort()
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.Validation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
