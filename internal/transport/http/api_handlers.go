package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatbot-server/internal/service/groups"
	"github.com/vovakirdan/chatbot-server/internal/service/messages"
	"github.com/vovakirdan/chatbot-server/internal/service/users"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, users.ErrUserNotFound),
		errors.Is(err, groups.ErrGroupNotFound),
		errors.Is(err, groups.ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, groups.ErrMemberExists):
		return http.StatusConflict
	case errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, users.ErrInvalidUser),
		errors.Is(err, users.ErrEmailTaken),
		errors.Is(err, users.ErrNameTaken),
		errors.Is(err, groups.ErrInvalidGroup),
		errors.Is(err, messages.ErrInvalidMessage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an ErrorResponse. Unexpected errors are logged and hidden
// behind a generic message.
func respondError(c *gin.Context, log *zerolog.Logger, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
		c.JSON(status, ErrorResponse{Error: "internal server error"})
		return
	}
	log.Debug().Err(err).Int("status", status).Msg(msg)
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

// requireQuery returns the named query parameter or writes a 400 and reports false.
func requireQuery(c *gin.Context, name string) (string, bool) {
	value := c.Query(name)
	if value == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing query parameter: " + name})
		return "", false
	}
	return value, true
}

// bindJSON decodes the request body or writes a 400 and reports false.
func bindJSON(c *gin.Context, log *zerolog.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.Debug().Err(err).Str("path", c.FullPath()).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
