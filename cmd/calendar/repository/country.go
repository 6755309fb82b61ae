package repository

import (
	"calendar-backend/cmd/calendar/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type CountryRepo struct {
	db *gorm.DB
}

func NewCountryRepo(db *gorm.DB) *CountryRepo {
	return &CountryRepo{
		db: db,
	}
}

func (r *CountryRepo) ListCountries(ctx context.Context) ([]model.Country, error) {

	var countries []model.Country

	result := r.db.
		WithContext(ctx).
		Order("name").
		Find(&countries)

	if result.Error != nil {
		return nil, model.Persistence(result.Error)
	}

	return countries, nil
}

func (r *CountryRepo) GetCountry(ctx context.Context, id int64) (model.Country, error) {
	return r.first(ctx, "id = ?", id)
}

// GetCountryByCode matches codes case-insensitively.
func (r *CountryRepo) GetCountryByCode(ctx context.Context, code string) (model.Country, error) {
	return r.first(ctx, "UPPER(code) = UPPER(?)", code)
}

func (r *CountryRepo) first(ctx context.Context, query string, args ...any) (model.Country, error) {

	var country model.Country

	result := r.db.
		WithContext(ctx).
		Where(query, args...).
		First(&country)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return model.Country{}, model.NotFound("Country not found")
	}
	if result.Error != nil {
		return model.Country{}, model.Persistence(result.Error)
	}

	return country, nil
}

// CountryStatistics counts active events per country, countries without
// events included.
func (r *CountryRepo) CountryStatistics(ctx context.Context) ([]model.CountryStat, error) {

	var stats []model.CountryStat

	result := r.db.
		WithContext(ctx).
		Table("countries AS c").
		Select("c.id, c.name, c.color, COUNT(e.id) AS event_count").
		Joins("LEFT JOIN events e ON c.id = e.country_id AND e.status = ?", model.EventActive).
		Group("c.id, c.name, c.color").
		Order("c.name").
		Scan(&stats)

	if result.Error != nil {
		return nil, model.Persistence(result.Error)
	}

	return stats, nil
}

// EventsByCountry lists a country's active events, optionally limited to
// those overlapping [from, to].
func (r *CountryRepo) EventsByCountry(ctx context.Context, countryID int64, from, to *model.Date) ([]model.EventWithCountry, error) {

	var events []model.EventWithCountry

	q := r.db.
		WithContext(ctx).
		Table("events AS e").
		Select(eventWithCountryColumns).
		Joins("JOIN countries c ON e.country_id = c.id").
		Where("e.country_id = ? AND e.status = ?", countryID, model.EventActive)

	if from != nil && to != nil {
		q = q.Where(overlapsClause, *to, *from)
	}

	result := q.
		Order(eventOrder).
		Find(&events)

	if result.Error != nil {
		return nil, model.Persistence(result.Error)
	}

	return events, nil
}
