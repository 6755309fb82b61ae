package repository

import (
	"calendar-backend/cmd/calendar/model"
	"context"

	"gorm.io/gorm"
)

var DefaultCountries = []model.Country{
	{Name: "Thailand", Color: "#dc3545", Code: "TH"},
	{Name: "Japan", Color: "#fd7e14", Code: "JP"},
	{Name: "Singapore", Color: "#20c997", Code: "SG"},
	{Name: "United Kingdom", Color: "#6f42c1", Code: "GB"},
	{Name: "United States", Color: "#007bff", Code: "US"},
}

var DefaultCategories = []model.Category{
	{Name: "general", Color: "#007bff", Description: "General events"},
	{Name: "meeting", Color: "#28a745", Description: "Meetings and appointments"},
	{Name: "holiday", Color: "#dc3545", Description: "Public holidays and leave"},
	{Name: "deadline", Color: "#ffc107", Description: "Deadlines and due dates"},
	{Name: "personal", Color: "#6f42c1", Description: "Personal events"},
}

// Migrate creates or updates every table the service uses.
func Migrate(ctx context.Context, db *gorm.DB) error {
	err := db.
		WithContext(ctx).
		AutoMigrate(
			&model.Country{},
			&model.Category{},
			&model.User{},
			&model.Event{},
		)
	return model.Persistence(err)
}

// SeedCountries inserts the default countries when the table is empty and
// reports how many rows were written.
func SeedCountries(ctx context.Context, db *gorm.DB) (int, error) {
	return seed(ctx, db, &model.Country{}, DefaultCountries)
}

func SeedCategories(ctx context.Context, db *gorm.DB) (int, error) {
	return seed(ctx, db, &model.Category{}, DefaultCategories)
}

func seed[T any](ctx context.Context, db *gorm.DB, table any, rows []T) (int, error) {

	var total int64

	if err := db.WithContext(ctx).Model(table).Count(&total).Error; err != nil {
		return 0, model.Persistence(err)
	}
	if total > 0 {
		return 0, nil
	}

	batch := make([]T, len(rows))
	copy(batch, rows)

	result := db.
		WithContext(ctx).
		Create(&batch)

	if result.Error != nil {
		return 0, model.Persistence(result.Error)
	}

	return int(result.RowsAffected), nil
}
