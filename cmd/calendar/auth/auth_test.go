package auth

import (
	"calendar-backend/cmd/calendar/model"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func int64Ptr(v int64) *int64 { return &v }

func TestCanMutate(t *testing.T) {
	owner := int64(1)
	event := model.Event{ID: 10, CreatedBy: &owner}
	orphan := model.Event{ID: 11}

	tests := []struct {
		name  string
		ctx   context.Context
		event model.Event
		want  bool
	}{
		{name: "anonymous", ctx: context.Background(), event: event, want: false},
		{name: "owner", ctx: WithIdentity(context.Background(), Identity{ID: 1, Role: model.RoleUser}), event: event, want: true},
		{name: "other user", ctx: WithIdentity(context.Background(), Identity{ID: 2, Role: model.RoleUser}), event: event, want: false},
		{name: "admin", ctx: WithIdentity(context.Background(), Identity{ID: 3, Role: model.RoleAdmin}), event: event, want: true},
		{name: "user on ownerless event", ctx: WithIdentity(context.Background(), Identity{ID: 2, Role: model.RoleUser}), event: orphan, want: false},
		{name: "admin on ownerless event", ctx: WithIdentity(context.Background(), Identity{ID: 3, Role: model.RoleAdmin}), event: orphan, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanMutate(tt.ctx, tt.event))
		})
	}
}

func TestIdentity_ForcedCountry(t *testing.T) {
	assert.Nil(t, Identity{}.ForcedCountry())
	assert.Nil(t, Identity{CountryID: int64Ptr(0)}.ForcedCountry())
	assert.Equal(t, int64(4), *Identity{CountryID: int64Ptr(4)}.ForcedCountry())
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	in := Identity{ID: 7, Name: "Aiko", Email: "aiko@example.com", Role: model.RoleAdmin, CountryID: int64Ptr(2)}

	tok, expiresAt, err := tokens.Sign(in)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	out, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestTokens_Rejects(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	tok, _, err := tokens.Sign(Identity{ID: 7, Role: model.RoleUser})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokens("another-secret-of-enough-length", time.Hour).Verify(tok)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := tokens
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Verify(tok)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Verify("not-a-token")
		assert.Error(t, err)
	})
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))
}

func TestSession_ResolvesIdentity(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	tok, _, err := tokens.Sign(Identity{ID: 5, Name: "Somchai", Role: model.RoleUser})
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		wantID int64
	}{
		{name: "anonymous", setup: func(r *http.Request) {}},
		{name: "bearer", setup: func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok) }, wantID: 5},
		{name: "cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: tok}) }, wantID: 5},
		{name: "invalid token", setup: func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer junk") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var got int64
			handler := Session(tokens)(func(c echo.Context) error {
				if id, ok := FromContext(c.Request().Context()); ok {
					got = id.ID
				}
				return c.NoContent(http.StatusOK)
			})

			require.NoError(t, handler(c))
			assert.Equal(t, tt.wantID, got)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name     string
		identity *Identity
		want     int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "user", identity: &Identity{ID: 1, Role: model.RoleUser}, want: http.StatusForbidden},
		{name: "admin", identity: &Identity{ID: 2, Role: model.RoleAdmin}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.identity != nil {
				req = req.WithContext(WithIdentity(req.Context(), *tt.identity))
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := RequireAdmin(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)

			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
