package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"nnm-backend/internal/config"
)

// adminJWTSecret is shared with the auth middleware through
// ValidateAdminJWTToken. Set once at handler construction.
var adminJWTSecret []byte

// AdminAuthHandler issues admin session tokens.
type AdminAuthHandler struct {
	passwordHash string
	totpSecret   string
	tokenTTL     time.Duration
}

// AdminLoginRequest admin login request body.
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code"`
}

// AdminLoginResponse admin login response body.
type AdminLoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// AdminJWTClaims admin session claims.
type AdminJWTClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewAdminAuthHandler creates the admin auth handler from the loaded
// configuration.
func NewAdminAuthHandler() *AdminAuthHandler {
	cfg := config.AppConfig.Admin

	if cfg.JWTSecret == "" || cfg.PasswordHash == "" {
		logrus.Warn("⚠️ admin.jwtSecret or admin.passwordHash not configured, admin login will be rejected")
	}
	adminJWTSecret = []byte(cfg.JWTSecret)

	return &AdminAuthHandler{
		passwordHash: cfg.PasswordHash,
		totpSecret:   cfg.TOTPSecret,
		tokenTTL:     time.Duration(cfg.TokenTTL) * time.Minute,
	}
}

// AdminLoginHandler handles POST /api/admin/login.
func (h *AdminAuthHandler) AdminLoginHandler(c *gin.Context) {
	if len(adminJWTSecret) == 0 || h.passwordHash == "" {
		c.JSON(http.StatusInternalServerError, AdminLoginResponse{
			Success: false,
			Message: "Server misconfiguration: admin credentials not set",
		})
		return
	}

	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, AdminLoginResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	if req.Username != "admin" {
		c.JSON(http.StatusUnauthorized, AdminLoginResponse{
			Success: false,
			Message: "Invalid credentials",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, AdminLoginResponse{
			Success: false,
			Message: "Invalid credentials",
		})
		return
	}

	// TOTP is enforced only when a secret is configured.
	if h.totpSecret != "" {
		if !totp.Validate(req.TOTPCode, h.totpSecret) {
			c.JSON(http.StatusUnauthorized, AdminLoginResponse{
				Success: false,
				Message: "Invalid TOTP code",
			})
			return
		}
	}

	token, err := h.generateAdminJWTToken(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, AdminLoginResponse{
			Success: false,
			Message: "Failed to generate token",
		})
		return
	}

	logrus.WithField("username", req.Username).Info("🔑 Admin login successful")
	c.JSON(http.StatusOK, AdminLoginResponse{
		Success: true,
		Token:   token,
		Message: "Login successful",
	})
}

func (h *AdminAuthHandler) generateAdminJWTToken(username string) (string, error) {
	now := time.Now()
	claims := AdminJWTClaims{
		Username: username,
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
			Issuer:    "nnm-backend",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(adminJWTSecret)
}

// ValidateAdminJWTToken verifies an admin session token and returns its
// claims.
func ValidateAdminJWTToken(tokenString string) (*AdminJWTClaims, error) {
	if len(adminJWTSecret) == 0 {
		return nil, fmt.Errorf("admin JWT secret not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminJWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return adminJWTSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AdminJWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
