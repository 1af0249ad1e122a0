package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/zaqqye/vdi_docgen/internal/middleware"
	"github.com/zaqqye/vdi_docgen/internal/utils"
)

type AuthController struct {
	// PasswordHash is the bcrypt hash of the admin password; empty disables login.
	PasswordHash string
	JWTSecret    string
	ExpiresIn    time.Duration
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (a *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if a.PasswordHash == "" || !utils.CheckPassword(a.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	now := time.Now().UTC()
	claims := middleware.Claims{
		Role: middleware.AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "vdi_docgen",
			Subject:   middleware.AdminRole,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ExpiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.JWTSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(a.ExpiresIn.Seconds()),
		"role":         middleware.AdminRole,
	})
}
