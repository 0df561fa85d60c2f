package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/merchstack/merchstack-go/internal/application/services"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
)

// LoginRequest represents the admin login body
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AuthHandlers contains the admin authentication HTTP handlers
type AuthHandlers struct {
	authService *services.AuthService
	logger      *logging.ChanneledLogger
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(authService *services.AuthService, logger *logging.ChanneledLogger) *AuthHandlers {
	return &AuthHandlers{authService: authService, logger: logger}
}

// PostLogin validates the admin password and issues a bearer token
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.authService.AuthenticateAdmin(req.Password)
	if !result.Success {
		c.JSON(http.StatusUnauthorized, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
