package model

import (
	"strings"
	"time"
)

type EventStatus string

var (
	EventActive    EventStatus = "active"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

type Priority string

var (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

const (
	DefaultCategory   = "general"
	DefaultEventColor = "#007bff"
)

type Event struct {
	ID          int64       `gorm:"column:id;primaryKey" json:"id"`
	Title       string      `gorm:"column:title;size:255;not null" json:"title"`
	Description string      `gorm:"column:description;type:text" json:"description"`
	StartDate   Date        `gorm:"column:start_date;not null;index" json:"start_date"`
	EndDate     *Date       `gorm:"column:end_date;index" json:"end_date"`
	StartTime   *TimeOfDay  `gorm:"column:start_time" json:"start_time"`
	EndTime     *TimeOfDay  `gorm:"column:end_time" json:"end_time"`
	AllDay      bool        `gorm:"column:all_day;not null;default:false" json:"all_day"`
	Color       string      `gorm:"column:color;size:7" json:"color"`
	Category    string      `gorm:"column:category;size:50" json:"category"`
	CountryID   *int64      `gorm:"column:country_id;index" json:"country_id"`
	Priority    Priority    `gorm:"column:priority;size:10" json:"priority"`
	Status      EventStatus `gorm:"column:status;size:10;index" json:"status"`
	CreatedBy   *int64      `gorm:"column:created_by;index" json:"created_by"`
	CreatedAt   time.Time   `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

func (m *Event) TableName() string {
	return "events"
}

// LastDay is the final day of the inclusion range.
func (m Event) LastDay() Date {
	if m.EndDate == nil || m.EndDate.IsZero() {
		return m.StartDate
	}
	return *m.EndDate
}

// Covers reports whether d falls inside [StartDate, LastDay].
func (m Event) Covers(d Date) bool {
	return !d.Before(m.StartDate) && !d.After(m.LastDay())
}

func (m Event) IsAllDay() bool {
	return m.AllDay || (m.StartTime == nil && m.EndTime == nil)
}

func (m Event) Start() *TimeOfDay {
	return m.StartTime
}

// EffectiveEnd is the instant after which an active event is considered past.
// With an end date the end time (or end of day) applies to it; without one the
// start date is combined with end time, else start time, else end of day.
func (m Event) EffectiveEnd(loc *time.Location) time.Time {
	if m.EndDate != nil && !m.EndDate.IsZero() {
		clock := EndOfDay
		if m.EndTime != nil {
			clock = *m.EndTime
		}
		return clock.On(*m.EndDate, loc)
	}
	clock := EndOfDay
	switch {
	case m.EndTime != nil:
		clock = *m.EndTime
	case m.StartTime != nil:
		clock = *m.StartTime
	}
	return clock.On(m.StartDate, loc)
}

// IsPast reports whether the sweep should complete m at now.
func (m Event) IsPast(now time.Time) bool {
	return m.Status == EventActive && m.EffectiveEnd(now.Location()).Before(now)
}

func (m Event) OwnedBy(userID int64) bool {
	return m.CreatedBy != nil && *m.CreatedBy == userID
}

// CheckCancel rejects cancelling an event that has already left active.
func (m Event) CheckCancel() error {
	if m.Status != EventActive {
		return Validation("Only active events can be cancelled.")
	}
	return nil
}

// EventDraft carries caller-supplied values for a new event.
type EventDraft struct {
	Title       string
	Description string
	StartDate   Date
	EndDate     *Date
	StartTime   *TimeOfDay
	EndTime     *TimeOfDay
	AllDay      bool
	Category    string
	Priority    Priority
	CountryID   *int64
	CreatedBy   *int64
}

// NewEvent applies creation defaults to d. Color is left empty; it is always
// resolved from the country when the event is stored.
func NewEvent(d EventDraft, now time.Time) Event {
	e := Event{
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		AllDay:      d.AllDay,
		Category:    d.Category,
		Priority:    d.Priority,
		Status:      EventActive,
		CountryID:   d.CountryID,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if e.EndDate == nil || e.EndDate.IsZero() {
		end := d.StartDate
		e.EndDate = &end
	}
	if strings.TrimSpace(e.Category) == "" {
		e.Category = DefaultCategory
	}
	if e.Priority == "" {
		e.Priority = PriorityMedium
	}
	return e
}

// Validate checks the rules every stored event must satisfy.
func (m Event) Validate() error {
	if strings.TrimSpace(m.Title) == "" || m.StartDate.IsZero() {
		return Validation("Title and start date are required")
	}
	if m.EndDate != nil && !m.EndDate.IsZero() && m.EndDate.Before(m.StartDate) {
		return Validation("End date cannot be before start date.")
	}
	if !m.Priority.Valid() {
		return Validation("Invalid priority.")
	}
	return nil
}

// EventWithCountry is an event joined with its country's display fields.
type EventWithCountry struct {
	Event
	CountryName  *string `gorm:"column:country_name" json:"country_name"`
	CountryColor *string `gorm:"column:country_color" json:"country_color"`
	CountryCode  *string `gorm:"column:country_code" json:"country_code"`
}

type Category struct {
	ID          int64  `gorm:"column:id;primaryKey" json:"id"`
	Name        string `gorm:"column:name;size:50;uniqueIndex" json:"name"`
	Color       string `gorm:"column:color;size:7" json:"color"`
	Description string `gorm:"column:description;type:text" json:"description"`
}

func (m *Category) TableName() string {
	return "event_categories"
}

type PriorityCounts struct {
	Low    int64 `json:"low"`
	Medium int64 `json:"medium"`
	High   int64 `json:"high"`
}

type EventStats struct {
	Total     int64          `json:"total"`
	ThisMonth int64          `json:"this_month"`
	Priority  PriorityCounts `json:"priority"`
}
