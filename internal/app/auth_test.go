package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "test-secret"

	r := gin.New()
	r.Use(AuthMiddleware(secret, []string{"static-1", " ", ""}))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	sign := func(key string, exp time.Time) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ops", "exp": exp.Unix()})
		s, err := tok.SignedString([]byte(key))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"static token", "Bearer static-1", http.StatusOK},
		{"unknown token", "Bearer static-2", http.StatusUnauthorized},
		{"blank static entry", "Bearer  ", http.StatusUnauthorized},
		{"valid jwt", "Bearer " + sign(secret, time.Now().Add(time.Hour)), http.StatusOK},
		{"expired jwt", "Bearer " + sign(secret, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"wrong key", "Bearer " + sign("other", time.Now().Add(time.Hour)), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
