package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signed(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func adminEngine(secret []byte) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", RequireAdmin(secret), func(c *gin.Context) {
		rc, _ := GetAuth(c)
		c.String(http.StatusOK, rc.Username)
	})
	return r
}

func TestRequireAdmin(t *testing.T) {
	secret := []byte("s3cret")
	exp := time.Now().Add(time.Hour).Unix()
	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signed(t, []byte("other"), jwt.MapClaims{"sub": "admin", "role": "admin", "exp": exp}), http.StatusUnauthorized},
		{"no exp", "Bearer " + signed(t, secret, jwt.MapClaims{"sub": "admin", "role": "admin"}), http.StatusUnauthorized},
		{"expired", "Bearer " + signed(t, secret, jwt.MapClaims{"sub": "admin", "role": "admin", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"not admin", "Bearer " + signed(t, secret, jwt.MapClaims{"sub": "ana", "role": "agent", "exp": exp}), http.StatusForbidden},
		{"ok", "Bearer " + signed(t, secret, jwt.MapClaims{"sub": "admin", "role": "admin", "exp": exp}), http.StatusOK},
	}
	r := adminEngine(secret)
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: status %d, want %d", tc.name, w.Code, tc.want)
		}
		if tc.want == http.StatusOK && w.Body.String() != "admin" {
			t.Fatalf("%s: subject not propagated: %q", tc.name, w.Body.String())
		}
	}
}

func TestRequireAdminDisabledWithoutSecret(t *testing.T) {
	w := httptest.NewRecorder()
	adminEngine(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d, want 503", w.Code)
	}
}

func TestWebhookToken(t *testing.T) {
	r := gin.New()
	r.POST("/hook", WebhookToken("tok"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for header, want := range map[string]int{"": http.StatusUnauthorized, "bad": http.StatusUnauthorized, "tok": http.StatusNoContent} {
		req := httptest.NewRequest(http.MethodPost, "/hook", nil)
		if header != "" {
			req.Header.Set("X-Webhook-Token", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("token %q: status %d, want %d", header, w.Code, want)
		}
	}
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if len(w.Body.String()) != 36 || w.Header().Get("X-Request-ID") != w.Body.String() {
		t.Fatalf("unexpected generated id %q", w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc" {
		t.Fatalf("incoming id not kept: %q", w.Body.String())
	}
}

func TestRequestIDReachesRequestContext(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, utils.RequestIDFrom(c.Request.Context())) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc" {
		t.Fatalf("request context id = %q", w.Body.String())
	}
}
