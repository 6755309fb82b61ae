package repository

import (
	"calendar-backend/cmd/calendar/model"
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	eventWithCountryColumns = "e.*, c.name AS country_name, c.color AS country_color, c.code AS country_code"
	eventOrder              = "e.start_date, e.start_time NULLS FIRST"

	// coversClause and overlapsClause are the single inclusion rule: an event
	// covers every day from start_date through end_date, or start_date alone
	// when end_date is absent.
	coversClause   = "e.start_date <= ? AND COALESCE(e.end_date, e.start_date) >= ?"
	overlapsClause = coversClause
)

type EventRepo struct {
	db        *gorm.DB
	countries *CountryRepo
	now       func() time.Time
}

func NewEventRepo(db *gorm.DB) *EventRepo {
	return NewEventRepoWithClock(db, time.Now)
}

// NewEventRepoWithClock is NewEventRepo with the sweep's notion of now
// supplied by the caller.
func NewEventRepoWithClock(db *gorm.DB, now func() time.Time) *EventRepo {
	return &EventRepo{
		db:        db,
		countries: NewCountryRepo(db),
		now:       now,
	}
}

func (r *EventRepo) withCountry(ctx context.Context) *gorm.DB {
	return r.db.
		WithContext(ctx).
		Table("events AS e").
		Select(eventWithCountryColumns).
		Joins("LEFT JOIN countries c ON e.country_id = c.id")
}

func (r *EventRepo) ListEvents(ctx context.Context) ([]model.EventWithCountry, error) {

	var events []model.EventWithCountry

	result := r.withCountry(ctx).
		Where("e.status = ?", model.EventActive).
		Order(eventOrder).
		Find(&events)

	if result.Error != nil {
		return nil, model.Persistence(result.Error)
	}

	return events, nil
}

func (r *EventRepo) GetEvent(ctx context.Context, id int64) (model.Event, error) {

	var event model.Event

	result := r.db.
		WithContext(ctx).
		Where("id = ?", id).
		First(&event)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return model.Event{}, model.NotFound("Event not found")
	}
	if result.Error != nil {
		return model.Event{}, model.Persistence(result.Error)
	}

	return event, nil
}

func (r *EventRepo) GetEventWithCountry(ctx context.Context, id int64) (model.EventWithCountry, error) {

	var events []model.EventWithCountry

	result := r.withCountry(ctx).
		Where("e.id = ?", id).
		Limit(1).
		Find(&events)

	if result.Error != nil {
		return model.EventWithCountry{}, model.Persistence(result.Error)
	}
	if len(events) == 0 {
		return model.EventWithCountry{}, model.NotFound("Event not found")
	}

	return events[0], nil
}

// EventsByDate lists active events whose inclusion range covers d.
func (r *EventRepo) EventsByDate(ctx context.Context, d model.Date) ([]model.EventWithCountry, error) {
	return r.EventsByRange(ctx, d, d)
}

// EventsByRange lists active events overlapping [from, to].
func (r *EventRepo) EventsByRange(ctx context.Context, from, to model.Date) ([]model.EventWithCountry, error) {

	var events []model.EventWithCountry

	result := r.withCountry(ctx).
		Where("e.status = ?", model.EventActive).
		Where(overlapsClause, to, from).
		Order(eventOrder).
		Find(&events)

	if result.Error != nil {
		return nil, model.Persistence(result.Error)
	}

	return events, nil
}

func (r *EventRepo) EventsByMonth(ctx context.Context, year int, month time.Month) ([]model.EventWithCountry, error) {
	first := model.NewDate(year, month, 1)
	return r.EventsByRange(ctx, first, first.LastOfMonth())
}

// SearchEvents matches q as a literal, case-insensitive substring of the
// title or description of active events.
func (r *EventRepo) SearchEvents(ctx context.Context, q string) ([]model.Event, error) {

	var events []model.Event

	pattern := "%" + escapeLike(q) + "%"

	result := r.db.
		WithContext(ctx).
		Table("events AS e").
		Where("e.status = ?", model.EventActive).
		Where("e.title ILIKE ? OR e.description ILIKE ?", pattern, pattern).
		Order(eventOrder).
		Find(&events)

	if result.Error != nil {
		return nil, model.Persistence(result.Error)
	}

	return events, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// UpcomingEvents lists active events starting today or later.
func (r *EventRepo) UpcomingEvents(ctx context.Context, limit int) ([]model.Event, error) {

	var events []model.Event

	result := r.db.
		WithContext(ctx).
		Table("events AS e").
		Where("e.status = ? AND e.start_date >= ?", model.EventActive, model.DateOf(r.now())).
		Order(eventOrder).
		Limit(limit).
		Find(&events)

	if result.Error != nil {
		return nil, model.Persistence(result.Error)
	}

	return events, nil
}

func (r *EventRepo) EventStats(ctx context.Context) (model.EventStats, error) {

	var stats model.EventStats

	today := model.DateOf(r.now())
	active := r.db.WithContext(ctx).Model(&model.Event{}).Where("status = ?", model.EventActive)

	if err := active.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return model.EventStats{}, model.Persistence(err)
	}

	err := active.Session(&gorm.Session{}).
		Where("start_date BETWEEN ? AND ?", today.FirstOfMonth(), today.LastOfMonth()).
		Count(&stats.ThisMonth).
		Error
	if err != nil {
		return model.EventStats{}, model.Persistence(err)
	}

	var rows []struct {
		Priority model.Priority
		Count    int64
	}
	err = active.Session(&gorm.Session{}).
		Select("priority, COUNT(*) AS count").
		Group("priority").
		Scan(&rows).
		Error
	if err != nil {
		return model.EventStats{}, model.Persistence(err)
	}

	for _, row := range rows {
		switch row.Priority {
		case model.PriorityLow:
			stats.Priority.Low = row.Count
		case model.PriorityMedium:
			stats.Priority.Medium = row.Count
		case model.PriorityHigh:
			stats.Priority.High = row.Count
		}
	}

	return stats, nil
}

func (r *EventRepo) ListCategories(ctx context.Context) ([]model.Category, error) {

	var categories []model.Category

	result := r.db.
		WithContext(ctx).
		Order("name").
		Find(&categories)

	if result.Error != nil {
		return nil, model.Persistence(result.Error)
	}

	return categories, nil
}

// CountEventsByCreator counts a user's events in every status.
func (r *EventRepo) CountEventsByCreator(ctx context.Context, userID int64) (int64, error) {

	var total int64

	result := r.db.
		WithContext(ctx).
		Model(&model.Event{}).
		Where("created_by = ?", userID).
		Count(&total)

	if result.Error != nil {
		return 0, model.Persistence(result.Error)
	}

	return total, nil
}

// CreateEvent stores event and returns its id. The country must exist and
// its color replaces whatever color the event carries.
func (r *EventRepo) CreateEvent(ctx context.Context, event model.Event) (int64, error) {

	if err := event.Validate(); err != nil {
		return 0, err
	}
	if event.CountryID == nil {
		return 0, model.Validation("Country is required to create an event.")
	}

	color, err := r.countryColor(ctx, *event.CountryID)
	if err != nil {
		return 0, err
	}

	event.ID = 0
	event.Color = color
	event.Status = model.EventActive

	result := r.db.
		WithContext(ctx).
		Create(&event)

	if result.Error != nil {
		return 0, model.Persistence(result.Error)
	}

	return event.ID, nil
}

func (r *EventRepo) countryColor(ctx context.Context, countryID int64) (string, error) {
	country, err := r.countries.GetCountry(ctx, countryID)
	if model.IsNotFound(err) {
		return "", model.Validation("Selected country is invalid.")
	}
	if err != nil {
		return "", err
	}
	return country.Color, nil
}

// UpdateEvent applies the set fields of patch to event id. A new country
// re-resolves the color; a caller color is only honored on events without a
// country. updated_at is always stamped.
func (r *EventRepo) UpdateEvent(ctx context.Context, id int64, patch model.EventPatch) error {

	current, err := r.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if patch.Status.Set {
		if err := current.CheckCancel(); err != nil {
			return err
		}
	}

	now := r.now()
	merged := patch.Apply(current, now)
	if err := merged.Validate(); err != nil {
		return err
	}

	columns := map[string]any{
		"updated_at": now,
	}

	if patch.Title.Set {
		columns["title"] = merged.Title
	}
	if patch.Description.Set {
		columns["description"] = merged.Description
	}
	if patch.StartDate.Set {
		columns["start_date"] = merged.StartDate
	}
	if patch.EndDate.Set {
		columns["end_date"] = nullableDate(merged.EndDate)
	}
	if patch.StartTime.Set {
		columns["start_time"] = nullableTime(merged.StartTime)
	}
	if patch.EndTime.Set {
		columns["end_time"] = nullableTime(merged.EndTime)
	}
	if patch.Category.Set {
		columns["category"] = merged.Category
	}
	if patch.Priority.Set {
		columns["priority"] = merged.Priority
	}
	if patch.Status.Set {
		columns["status"] = merged.Status
	}
	if patch.AllDay.Set {
		columns["all_day"] = merged.AllDay
	}

	switch {
	case patch.CountryID.Set && merged.CountryID != nil:
		color, err := r.countryColor(ctx, *merged.CountryID)
		if err != nil {
			return err
		}
		columns["country_id"] = *merged.CountryID
		columns["color"] = color
	case patch.Color.Set && !patch.Color.Null && current.CountryID == nil:
		columns["color"] = patch.Color.Val
	}

	result := r.db.
		WithContext(ctx).
		Model(&model.Event{}).
		Where("id = ?", id).
		Updates(columns)

	if result.Error != nil {
		return model.Persistence(result.Error)
	}

	return nil
}

func nullableDate(d *model.Date) any {
	if d == nil {
		return nil
	}
	return *d
}

func nullableTime(t *model.TimeOfDay) any {
	if t == nil {
		return nil
	}
	return *t
}

// DeleteEvent cancels an active event; the row stays readable by id. It
// reports false when nothing active matched.
func (r *EventRepo) DeleteEvent(ctx context.Context, id int64) (bool, error) {

	result := r.db.
		WithContext(ctx).
		Model(&model.Event{}).
		Where("id = ?", id).
		Where("status = ?", model.EventActive).
		Updates(map[string]any{
			"status":     model.EventCancelled,
			"updated_at": r.now(),
		})

	if result.Error != nil {
		return false, model.Persistence(result.Error)
	}

	return result.RowsAffected > 0, nil
}

// HardDeleteEvent removes the row permanently.
func (r *EventRepo) HardDeleteEvent(ctx context.Context, id int64) (bool, error) {

	result := r.db.
		WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Event{})

	if result.Error != nil {
		return false, model.Persistence(result.Error)
	}

	return result.RowsAffected > 0, nil
}

// CompletePastEvents marks every active event whose effective end instant
// has passed as completed and returns how many rows changed. Running it
// again without the clock moving changes nothing.
//
// Only events whose last day is today or earlier can have ended, so those
// are loaded and Event.IsPast decides the rest.
func (r *EventRepo) CompletePastEvents(ctx context.Context) (int64, error) {

	now := r.now()

	var candidates []model.Event

	result := r.db.
		WithContext(ctx).
		Where("status = ? AND COALESCE(end_date, start_date) <= ?", model.EventActive, model.DateOf(now)).
		Find(&candidates)

	if result.Error != nil {
		return 0, model.Persistence(result.Error)
	}

	var ids []int64
	for _, e := range candidates {
		if e.IsPast(now) {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result = r.db.
		WithContext(ctx).
		Model(&model.Event{}).
		Where("id IN ?", ids).
		Where("status = ?", model.EventActive).
		Updates(map[string]any{
			"status":     model.EventCompleted,
			"updated_at": now,
		})

	if result.Error != nil {
		return 0, model.Persistence(result.Error)
	}

	return result.RowsAffected, nil
}
