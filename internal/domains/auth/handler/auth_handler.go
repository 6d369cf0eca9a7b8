package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qwitter-backend/internal/domains/auth/model"
	"qwitter-backend/internal/domains/auth/service"
	"qwitter-backend/internal/shared/response"
	"qwitter-backend/pkg/jwt"
)

// AuthHandler exposes the registration and sign-in flows over HTTP and
// issues session tokens.
type AuthHandler struct {
	service    service.AuthService
	jwtManager *jwt.Manager
}

func NewAuthHandler(service service.AuthService, jwtManager *jwt.Manager) *AuthHandler {
	return &AuthHandler{service: service, jwtManager: jwtManager}
}

// Register - POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	sess, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	token, err := h.jwtManager.GenerateSessionToken(sess.UserID, sess.Username, sess.Email)
	if err != nil {
		response.InternalError(c, "could not issue session token")
		return
	}

	response.Success(c, http.StatusCreated, model.SessionResponse{
		UserID:   sess.UserID,
		Username: sess.Username,
		Token:    token,
	})
}

// Login - POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	sess, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	token, err := h.jwtManager.GenerateSessionToken(sess.UserID, sess.Username, sess.Email)
	if err != nil {
		response.InternalError(c, "could not issue session token")
		return
	}

	response.Success(c, http.StatusOK, model.SessionResponse{
		UserID:   sess.UserID,
		Username: sess.Username,
		Token:    token,
	})
}

// Logout - POST /v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context()); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "signed out"})
}
