package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/knowledge-base-api/internal/models"
	"github.com/knowledge-base-api/internal/service"
	"github.com/rs/zerolog"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(services *service.Services, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		services: services,
		log:      log.With().Str("handler", "auth").Logger(),
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	user, err := h.services.Auth.Register(c.Request.Context(), &input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Account created", gin.H{"user": user})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	user, tokens, err := h.services.Auth.Login(c.Request.Context(), &input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Logged in", gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.RefreshToken == "" {
		respondBadRequest(c, "refresh_token is required")
		return
	}

	tokens, err := h.services.Auth.Refresh(c.Request.Context(), input.RefreshToken)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Tokens refreshed", gin.H{"tokens": tokens})
}

// Logout handles POST /api/v1/auth/logout. The bearer token itself is revoked.
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, Response{
			Success: false,
			Message: "Authentication required",
		})
		return
	}

	if err := h.services.Auth.Logout(c.Request.Context(), tokenString); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Logged out", nil)
}

// Me handles GET /api/v1/users/me
func (h *AuthHandler) Me(c *gin.Context) {
	respondSuccess(c, http.StatusOK, "Current user", gin.H{"user": currentUser(c)})
}
