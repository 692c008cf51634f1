package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatbot-server/internal/metrics"
	"github.com/vovakirdan/chatbot-server/internal/service/users"
)

// UserHandlers provides HTTP handlers for user operations.
type UserHandlers struct {
	service *users.Service
	metrics *metrics.Metrics
	log     *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(svc *users.Service, m *metrics.Metrics, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		service: svc,
		metrics: m,
		log:     logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration.
// POST /users/register
func (h *UserHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), users.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.log, err, "failed to register user")
		return
	}

	h.metrics.UserRegistered()
	h.log.Info().Str("user_id", user.ID).Str("name", user.Name).Msg("user registered successfully")
	c.JSON(http.StatusOK, userToResponse(user))
}

// Login handles user login.
// POST /users/login
func (h *UserHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	user, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err, "failed to login user")
		return
	}

	h.log.Info().Str("user_id", user.ID).Msg("user logged in successfully")
	c.JSON(http.StatusOK, userToResponse(user))
}

// All handles listing every user.
// GET /users/all
func (h *UserHandlers) All(c *gin.Context) {
	list, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, usersToResponse(list))
}

// NameByID handles resolving a user id to a name.
// GET /users/:id/name
func (h *UserHandlers) NameByID(c *gin.Context) {
	name, err := h.service.NameByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "failed to resolve user name")
		return
	}
	c.String(http.StatusOK, name)
}

// IDByName handles resolving a user name to an id.
// GET /users/name/:name/id
func (h *UserHandlers) IDByName(c *gin.Context) {
	id, err := h.service.IDByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, h.log, err, "failed to resolve user id")
		return
	}
	c.String(http.StatusOK, id)
}
