package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/http/middleware"
	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	if len(h.Auth.Secret) == 0 || h.Auth.PasswordHash == "" {
		respondError(c, http.StatusServiceUnavailable, "auth_disabled", "acceso de administrador deshabilitado", nil)
		return
	}

	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(req.Username)), []byte(h.Auth.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(h.Auth.PasswordHash), []byte(req.Password))
	if !userOK || passErr != nil {
		utils.LogEvent(middleware.GetRequestID(c), "auth", "login", "rejected user="+req.Username)
		respondError(c, http.StatusUnauthorized, "invalid_credentials", "usuario o contraseña incorrectos", nil)
		return
	}

	ttl := h.Auth.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	exp := time.Now().Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  h.Auth.Username,
		"role": domain.RoleAdmin,
		"exp":  exp.Unix(),
	})
	tokenString, err := token.SignedString(h.Auth.Secret)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "token_failed", "no se pudo generar el token", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      tokenString,
		"expires_at": exp.Unix(),
		"user":       gin.H{"username": h.Auth.Username, "role": domain.RoleAdmin},
	})
}
