package apis

import (
	"calendar-backend/cmd/calendar/auth"
	"calendar-backend/cmd/calendar/model"
	"context"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type IUserRepo interface {
	ListUsers(ctx context.Context, filter model.UserFilter) ([]model.UserWithCountry, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	CreateUser(ctx context.Context, user model.User) (int64, error)
	UpdateUser(ctx context.Context, id int64, u model.UserUpdate) error
	ApproveUser(ctx context.Context, id, approverID int64) error
	DisableUser(ctx context.Context, id int64) error
}

type IEventStats interface {
	EventStats(ctx context.Context) (model.EventStats, error)
	CompletePastEvents(ctx context.Context) (int64, error)
}

type ICountryLookup interface {
	GetCountry(ctx context.Context, id int64) (model.Country, error)
}

// AdminAPI is the user approval console. Every route requires an admin.
type AdminAPI struct {
	userRepo  IUserRepo
	events    IEventStats
	countries ICountryLookup
	logger    *zap.Logger
	now       func() time.Time
}

func NewAdminAPI(userRepo IUserRepo, events IEventStats, countries ICountryLookup, logger *zap.Logger) *AdminAPI {

	return &AdminAPI{
		userRepo:  userRepo,
		events:    events,
		countries: countries,
		logger:    logger,
		now:       time.Now,
	}
}

func (a *AdminAPI) Setup(g *echo.Group) {
	admin := g.Group("/admin", auth.RequireAdmin)
	admin.GET("/dashboard", a.dashboard)
	admin.GET("/users", a.listUsers)
	admin.POST("/users", a.createUser)
	admin.PUT("/users/:id", a.updateUser)
	admin.POST("/users/:id/approve", a.approveUser)
	admin.POST("/users/:id/disable", a.disableUser)
}

type dashboard struct {
	PendingUsers []model.UserWithCountry `json:"pending_users"`
	ActiveUsers  []model.UserWithCountry `json:"active_users"`
	Events       model.EventStats        `json:"events"`
}

func (a *AdminAPI) dashboard(c echo.Context) error {

	ctx := c.Request().Context()

	sweep(ctx, a.events, a.logger)

	var (
		view dashboard
		err  error
	)

	if view.PendingUsers, err = a.userRepo.ListUsers(ctx, model.UserFilter{Status: model.UserPending}); err != nil {
		return failWith(c, a.logger, err, "Failed to load dashboard")
	}
	if view.ActiveUsers, err = a.userRepo.ListUsers(ctx, model.UserFilter{Status: model.UserActive}); err != nil {
		return failWith(c, a.logger, err, "Failed to load dashboard")
	}
	if view.Events, err = a.events.EventStats(ctx); err != nil {
		return failWith(c, a.logger, err, "Failed to load dashboard")
	}

	return ok(c, "success", view)
}

func (a *AdminAPI) listUsers(c echo.Context) error {

	filter := model.UserFilter{
		Status: model.UserStatus(c.QueryParam("status")),
		Role:   model.Role(c.QueryParam("role")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return fail(c, http.StatusBadRequest, "Invalid status filter.")
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return fail(c, http.StatusBadRequest, "Invalid role filter.")
	}

	users, err := a.userRepo.ListUsers(c.Request().Context(), filter)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to load users")
	}

	return ok(c, "success", users)
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// checkCountry accepts a nil country; any other id must exist.
func (a *AdminAPI) checkCountry(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := a.countries.GetCountry(ctx, *id)
	if model.IsNotFound(err) {
		return model.Validation("Selected country is invalid.")
	}
	return err
}

func (a *AdminAPI) createUser(c echo.Context) error {

	ctx := c.Request().Context()
	admin, _ := auth.FromContext(ctx)

	var req model.UserCreateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	role := model.Role(strings.TrimSpace(req.Role))
	status := model.UserStatus(strings.TrimSpace(req.Status))
	if role == "" {
		role = model.RoleUser
	}
	if status == "" {
		status = model.UserPending
	}

	switch {
	case name == "" || email == "" || req.Password == "":
		return fail(c, http.StatusBadRequest, "Name, email, and password are required.")
	case !validEmail(email):
		return fail(c, http.StatusBadRequest, "Invalid email address.")
	case !role.Valid():
		return fail(c, http.StatusBadRequest, "Invalid role selection.")
	case !status.Valid():
		return fail(c, http.StatusBadRequest, "Invalid status selection.")
	}

	countryID := req.CountryID.Ptr()
	if err := a.checkCountry(ctx, countryID); err != nil {
		return failWith(c, a.logger, err, "Failed to create user")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to create user")
	}

	user := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       status,
		CountryID:    countryID,
	}
	if status == model.UserActive {
		approvedAt := a.now()
		user.ApprovedBy = &admin.ID
		user.ApprovedAt = &approvedAt
	}

	id, err := a.userRepo.CreateUser(ctx, user)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to create user")
	}

	a.logger.Info("user created",
		zap.Int64("user_id", id),
		zap.Int64("admin_id", admin.ID),
		zap.String("status", string(status)),
	)

	return ok(c, "User created successfully.", map[string]int64{"id": id})
}

func userID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func (a *AdminAPI) updateUser(c echo.Context) error {

	ctx := c.Request().Context()

	id, valid := userID(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid user id.")
	}

	var req model.UserUpdateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	current, err := a.userRepo.GetUser(ctx, id)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to update user")
	}

	update := model.UserUpdate{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Role:      model.Role(strings.TrimSpace(req.Role)),
		CountryID: req.CountryID.Ptr(),
	}
	if update.Role == "" {
		update.Role = current.Role
	}

	switch {
	case update.Name == "" || update.Email == "":
		return fail(c, http.StatusBadRequest, "Name and email are required.")
	case !validEmail(update.Email):
		return fail(c, http.StatusBadRequest, "Invalid email address.")
	case !update.Role.Valid():
		return fail(c, http.StatusBadRequest, "Invalid role selection.")
	}

	if err := a.checkCountry(ctx, update.CountryID); err != nil {
		return failWith(c, a.logger, err, "Failed to update user")
	}

	if err := a.userRepo.UpdateUser(ctx, id, update); err != nil {
		return failWith(c, a.logger, err, "Failed to update user")
	}

	return ok(c, "User updated successfully.", nil)
}

func (a *AdminAPI) approveUser(c echo.Context) error {

	ctx := c.Request().Context()
	admin, _ := auth.FromContext(ctx)

	id, valid := userID(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid user id.")
	}

	if err := a.userRepo.ApproveUser(ctx, id, admin.ID); err != nil {
		return failWith(c, a.logger, err, "Failed to approve user")
	}

	a.logger.Info("user approved", zap.Int64("user_id", id), zap.Int64("admin_id", admin.ID))

	return ok(c, "User approved successfully.", nil)
}

func (a *AdminAPI) disableUser(c echo.Context) error {

	ctx := c.Request().Context()
	admin, _ := auth.FromContext(ctx)

	id, valid := userID(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid user id.")
	}

	if err := a.userRepo.DisableUser(ctx, id); err != nil {
		return failWith(c, a.logger, err, "Failed to disable user")
	}

	a.logger.Info("user disabled", zap.Int64("user_id", id), zap.Int64("admin_id", admin.ID))

	return ok(c, "User disabled.", nil)
}
