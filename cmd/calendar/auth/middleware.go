package auth

import (
	"calendar-backend/cmd/calendar/model"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const CookieName = "calendar_session"

// Session resolves the caller from the session cookie or a bearer token and
// stores it in the request context. Anonymous and invalid credentials pass
// through without an identity; RequireLogin decides whether that is enough.
func Session(tokens Tokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if tok == "" {
				if cookie, err := c.Cookie(CookieName); err == nil {
					tok = cookie.Value
				}
			}
			if tok == "" {
				return next(c)
			}

			id, err := tokens.Verify(tok)
			if err != nil {
				return next(c)
			}

			req := c.Request()
			c.SetRequest(req.WithContext(WithIdentity(req.Context(), id)))
			return next(c)
		}
	}
}

func RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsLoggedIn(c.Request().Context()) {
			return c.JSON(http.StatusUnauthorized, model.BaseResponse{
				Message: "Authentication required",
			})
		}
		return next(c)
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if !IsLoggedIn(ctx) {
			return c.JSON(http.StatusUnauthorized, model.BaseResponse{
				Message: "Authentication required",
			})
		}
		if !IsAdmin(ctx) {
			return c.JSON(http.StatusForbidden, model.BaseResponse{
				Message: "Administrator access required",
			})
		}
		return next(c)
	}
}

// SessionCookie carries token until expiresAt.
func SessionCookie(token string, expiresAt time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie clears the session cookie.
func ExpiredCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func bearerToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	parts := strings.SplitN(v, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
