package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const authKey = "auth"

func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"message":    message,
		"request_id": GetRequestID(c),
	})
}

// ParseAdminToken validates an HS256 token and returns its subject.
func ParseAdminToken(secret []byte, raw string) (domain.RequestContext, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return domain.RequestContext{}, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return domain.RequestContext{}, errors.New("unexpected claims")
	}
	sub, _ := claims.GetSubject()
	role, _ := claims["role"].(string)
	return domain.RequestContext{Username: sub, Role: role}, nil
}

// RequireAdmin guards the admin API with a bearer JWT carrying role=admin.
func RequireAdmin(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(secret) == 0 {
			abort(c, http.StatusServiceUnavailable, "admin API disabled")
			return
		}
		raw := bearerToken(c)
		if raw == "" {
			abort(c, http.StatusUnauthorized, "token requerido")
			return
		}
		rc, err := ParseAdminToken(secret, raw)
		if err != nil {
			abort(c, http.StatusUnauthorized, "token inválido")
			return
		}
		if rc.Role != domain.RoleAdmin {
			abort(c, http.StatusForbidden, "acceso denegado")
			return
		}
		c.Set(authKey, rc)
		c.Next()
	}
}

// GetAuth returns the caller set by RequireAdmin.
func GetAuth(c *gin.Context) (domain.RequestContext, bool) {
	v, ok := c.Get(authKey)
	if !ok {
		return domain.RequestContext{}, false
	}
	rc, ok := v.(domain.RequestContext)
	return rc, ok
}

// WebhookToken checks the shared secret of the messaging bridge. An empty
// token leaves the webhook open.
func WebhookToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := c.GetHeader("X-Webhook-Token")
		if got == "" {
			got = bearerToken(c)
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			abort(c, http.StatusUnauthorized, "webhook token inválido")
			return
		}
		c.Next()
	}
}
