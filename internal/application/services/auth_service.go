package services

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/security"
	"github.com/merchstack/merchstack-go/pkg/config"
)

// AuthService handles admin authentication and JWT operations
type AuthService struct {
	logger        *logging.ChanneledLogger
	jwtSecret     string
	adminPassword string
	tokenLifetime time.Duration
}

// NewAuthService creates a new authentication service from the configured
// admin credentials.
func NewAuthService(logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{
		logger:        logger,
		jwtSecret:     config.JWTSecret,
		adminPassword: config.AdminPassword,
		tokenLifetime: config.TokenLifetime,
	}
}

// AuthResult holds authentication result data
type AuthResult struct {
	Token   string `json:"token"`
	Role    string `json:"role"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AuthenticateAdmin validates the admin password and issues a JWT. The
// stored password may be a bcrypt hash or, for local setups, plaintext.
func (a *AuthService) AuthenticateAdmin(password string) *AuthResult {
	if a.adminPassword == "" || a.jwtSecret == "" {
		a.logger.Auth().Warn("Admin authentication attempted without configured credentials")
		return &AuthResult{Success: false, Error: "Admin access not configured"}
	}

	authenticated := bcrypt.CompareHashAndPassword([]byte(a.adminPassword), []byte(password)) == nil

	// Fallback for plaintext passwords during transition/testing
	if !authenticated && password == a.adminPassword {
		authenticated = true
	}

	if !authenticated {
		a.logger.Auth().Warn("Admin authentication failed")
		return &AuthResult{Success: false, Error: "Invalid credentials"}
	}

	claims := jwt.MapClaims{
		"role": "admin",
		"type": "admin_auth",
		"exp":  time.Now().Add(a.tokenLifetime).Unix(),
		"iat":  time.Now().Unix(),
	}

	token, err := security.GenerateJWT(claims, a.jwtSecret)
	if err != nil {
		a.logger.Auth().Error("Failed to sign admin token", "error", err)
		return &AuthResult{Success: false, Error: "Failed to generate token"}
	}

	a.logger.Auth().Info("Admin authenticated")
	return &AuthResult{Token: token, Role: "admin", Success: true}
}

// ValidateAdminToken checks a bearer token and reports whether it grants
// admin access.
func (a *AuthService) ValidateAdminToken(tokenString string) bool {
	if tokenString == "" || a.jwtSecret == "" {
		return false
	}
	claims, err := security.ValidateJWT(tokenString, a.jwtSecret)
	if err != nil {
		return false
	}
	role, _ := claims["role"].(string)
	return role == "admin"
}
