package main

import (
	"bytes"
	"calendar-backend/cmd/calendar/auth"
	"calendar-backend/cmd/calendar/model"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef"

func TestSecurity_BodySizeLimit(t *testing.T) {
	e, _ := newServerWithConfig(t, EnvCfg{
		JWTSecret:   testSecret,
		SessionTTL:  time.Hour,
		MaxBodySize: "1K",
	})

	body := "title,start_date\n" + strings.Repeat("Offsite,2025-05-01\n", 200)
	req := httptest.NewRequest(http.MethodPost, "/api/events/import", bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, "text/csv")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestSecurity_RejectedTokensAreAnonymous(t *testing.T) {
	claims := auth.Claims{
		Role: string(model.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "calendar-backend",
			Subject:   strconv.Itoa(1),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-other-secret-value"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	expired, _, err := auth.Tokens{
		Secret: []byte(testSecret),
		TTL:    -time.Minute,
	}.Sign(auth.Identity{ID: 1, Role: model.RoleAdmin})
	require.NoError(t, err)

	tests := map[string]string{
		"alg none":        unsigned,
		"foreign secret":  foreign,
		"other algorithm": hs512,
		"expired":         expired,
	}

	e := newTestServer(t)
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
			req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestSecurity_AnonymousCannotMutate(t *testing.T) {
	e := newTestServer(t)

	tests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodPost, "/api/events", `{"title":"x","start_date":"2025-01-01","country_id":1}`},
		{http.MethodPut, "/api/events", `{"id":1,"title":"x"}`},
		{http.MethodDelete, "/api/events?id=1", ""},
		{http.MethodPut, "/api/password", `{"current_password":"a"}`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, bytes.NewBufferString(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			req.Header.Set(echo.HeaderXRequestedWith, "XMLHttpRequest")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
