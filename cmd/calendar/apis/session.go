package apis

import (
	"calendar-backend/cmd/calendar/auth"
	"calendar-backend/cmd/calendar/model"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ISessionRepo interface {
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

type IEventCounter interface {
	CountEventsByCreator(ctx context.Context, userID int64) (int64, error)
}

// SessionAPI signs users in and out and manages their own account.
type SessionAPI struct {
	userRepo     ISessionRepo
	eventCounter IEventCounter
	tokens       auth.Tokens
	secureCookie bool
	logger       *zap.Logger
}

func NewSessionAPI(userRepo ISessionRepo, eventCounter IEventCounter, tokens auth.Tokens, secureCookie bool, logger *zap.Logger) *SessionAPI {

	return &SessionAPI{
		userRepo:     userRepo,
		eventCounter: eventCounter,
		tokens:       tokens,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

func (a *SessionAPI) Setup(g *echo.Group) {
	g.POST("/login", a.login)
	g.POST("/logout", a.logout)
	g.GET("/me", a.me, auth.RequireLogin)
	g.PUT("/password", a.changePassword, auth.RequireLogin)
}

type loginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      auth.Identity `json:"user"`
}

func (a *SessionAPI) login(c echo.Context) error {

	ctx := c.Request().Context()

	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	email := strings.TrimSpace(req.Email)
	password := strings.TrimSpace(req.Password)
	if email == "" || password == "" {
		return fail(c, http.StatusBadRequest, "Please enter both email and password.")
	}

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if model.IsNotFound(err) {
		return fail(c, http.StatusUnauthorized, "Invalid credentials.")
	}
	if err != nil {
		return failWith(c, a.logger, err, "Failed to sign in")
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		a.logger.Info("login rejected", zap.Int64("user_id", user.ID))
		return fail(c, http.StatusUnauthorized, "Invalid credentials.")
	}
	if user.Status != model.UserActive {
		return fail(c, http.StatusForbidden, "Your account is not active yet.")
	}

	identity := auth.IdentityOf(user)
	token, expiresAt, err := a.tokens.Sign(identity)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to sign in")
	}

	c.SetCookie(auth.SessionCookie(token, expiresAt, a.secureCookie))
	a.logger.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))

	return ok(c, "Logged in successfully", loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      identity,
	})
}

func (a *SessionAPI) logout(c echo.Context) error {

	c.SetCookie(auth.ExpiredCookie(a.secureCookie))

	return ok(c, "Logged out successfully", nil)
}

type profile struct {
	auth.Identity
	MyEventCount int64 `json:"my_event_count"`
}

func (a *SessionAPI) me(c echo.Context) error {

	ctx := c.Request().Context()
	identity, _ := auth.FromContext(ctx)

	count, err := a.eventCounter.CountEventsByCreator(ctx, identity.ID)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to load profile")
	}

	return ok(c, "success", profile{
		Identity:     identity,
		MyEventCount: count,
	})
}

func (a *SessionAPI) changePassword(c echo.Context) error {

	ctx := c.Request().Context()
	identity, _ := auth.FromContext(ctx)

	var req model.PasswordChangeRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	user, err := a.userRepo.GetUser(ctx, identity.ID)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to update password")
	}

	switch {
	case !auth.CheckPassword(user.PasswordHash, req.CurrentPassword):
		return fail(c, http.StatusBadRequest, "Current password is incorrect.")
	case len(req.NewPassword) < auth.MinPasswordLength:
		return fail(c, http.StatusBadRequest, "New password must be at least 8 characters.")
	case req.NewPassword != req.ConfirmPassword:
		return fail(c, http.StatusBadRequest, "New password and confirmation do not match.")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to update password")
	}
	if err := a.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return failWith(c, a.logger, err, "Failed to update password")
	}

	a.logger.Info("password changed", zap.Int64("user_id", user.ID))

	return ok(c, "Your password has been updated successfully.", nil)
}
