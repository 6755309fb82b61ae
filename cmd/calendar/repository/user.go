package repository

import (
	"calendar-backend/cmd/calendar/model"
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

type UserRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{
		db:  db,
		now: time.Now,
	}
}

// ListUsers lists users newest first, optionally filtered by status and role.
func (r *UserRepo) ListUsers(ctx context.Context, filter model.UserFilter) ([]model.UserWithCountry, error) {

	var users []model.UserWithCountry

	q := r.db.
		WithContext(ctx).
		Table("users AS u").
		Select("u.*, c.name AS country_name").
		Joins("LEFT JOIN countries c ON u.country_id = c.id")

	if filter.Status != "" {
		q = q.Where("u.status = ?", filter.Status)
	}
	if filter.Role != "" {
		q = q.Where("u.role = ?", filter.Role)
	}

	result := q.
		Order("u.created_at DESC").
		Find(&users)

	if result.Error != nil {
		return nil, model.Persistence(result.Error)
	}

	return users, nil
}

func (r *UserRepo) GetUser(ctx context.Context, id int64) (model.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetUserByEmail matches the address case-insensitively.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.first(ctx, "LOWER(email) = ?", normalizeEmail(email))
}

func (r *UserRepo) first(ctx context.Context, query string, args ...any) (model.User, error) {

	var user model.User

	result := r.db.
		WithContext(ctx).
		Where(query, args...).
		First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return model.User{}, model.NotFound("User not found")
	}
	if result.Error != nil {
		return model.User{}, model.Persistence(result.Error)
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailExists reports whether another account already uses email. A
// non-zero excludeID leaves that user out of the check.
func (r *UserRepo) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {

	var total int64

	q := r.db.
		WithContext(ctx).
		Model(&model.User{}).
		Where("LOWER(email) = ?", normalizeEmail(email))

	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	if err := q.Count(&total).Error; err != nil {
		return false, model.Persistence(err)
	}

	return total > 0, nil
}

func (r *UserRepo) CountAdmins(ctx context.Context) (int64, error) {

	var total int64

	result := r.db.
		WithContext(ctx).
		Model(&model.User{}).
		Where("role = ?", model.RoleAdmin).
		Count(&total)

	if result.Error != nil {
		return 0, model.Persistence(result.Error)
	}

	return total, nil
}

// CreateUser stores user and returns its id.
func (r *UserRepo) CreateUser(ctx context.Context, user model.User) (int64, error) {

	user.Email = normalizeEmail(user.Email)

	exists, err := r.EmailExists(ctx, user.Email, 0)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, model.Validation("Email address is already registered.")
	}

	now := r.now()
	user.ID = 0
	user.CreatedAt = now
	user.UpdatedAt = now

	result := r.db.
		WithContext(ctx).
		Create(&user)

	if result.Error != nil {
		return 0, model.Persistence(result.Error)
	}

	return user.ID, nil
}

// ApproveUser activates the account from any status and records who
// approved it. Approving an active account re-stamps the approver.
func (r *UserRepo) ApproveUser(ctx context.Context, id, approverID int64) error {

	if _, err := r.GetUser(ctx, id); err != nil {
		return err
	}

	now := r.now()

	return r.update(ctx, id, map[string]any{
		"status":      model.UserActive,
		"approved_by": approverID,
		"approved_at": now,
		"updated_at":  now,
	})
}

// DisableUser blocks an account in any status. Approval history is kept.
func (r *UserRepo) DisableUser(ctx context.Context, id int64) error {

	if _, err := r.GetUser(ctx, id); err != nil {
		return err
	}

	return r.update(ctx, id, map[string]any{
		"status":     model.UserDisabled,
		"updated_at": r.now(),
	})
}

func (r *UserRepo) UpdateUser(ctx context.Context, id int64, u model.UserUpdate) error {

	if _, err := r.GetUser(ctx, id); err != nil {
		return err
	}

	email := normalizeEmail(u.Email)

	exists, err := r.EmailExists(ctx, email, id)
	if err != nil {
		return err
	}
	if exists {
		return model.Validation("Email address is already registered to another user.")
	}

	return r.update(ctx, id, map[string]any{
		"name":       strings.TrimSpace(u.Name),
		"email":      email,
		"role":       u.Role,
		"country_id": u.CountryID,
		"updated_at": r.now(),
	})
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, id, map[string]any{
		"password_hash": hash,
		"updated_at":    r.now(),
	})
}

func (r *UserRepo) update(ctx context.Context, id int64, columns map[string]any) error {

	result := r.db.
		WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(columns)

	if result.Error != nil {
		return model.Persistence(result.Error)
	}
	if result.RowsAffected == 0 {
		return model.NotFound("User not found")
	}

	return nil
}
