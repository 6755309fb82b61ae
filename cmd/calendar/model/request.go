package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Opt is an optional request field. Set records that the key was present;
// Null records that it was present but empty ("", "null" or JSON null).
type Opt[T any] struct {
	Set  bool
	Null bool
	Val  T
}

func Some[T any](v T) Opt[T] {
	return Opt[T]{Set: true, Val: v}
}

func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	switch string(bytes.TrimSpace(b)) {
	case "null", `""`, `"null"`:
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Val)
}

// Ptr returns nil for a null value.
func (o Opt[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Val
	return &v
}

// FlexInt accepts a JSON number or a numeric string.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*f = FlexInt(n)
	return nil
}

func (f *FlexInt) UnmarshalParam(param string) error {
	return f.UnmarshalJSON([]byte(param))
}

// Ptr returns nil for zero and negative ids.
func (f FlexInt) Ptr() *int64 {
	if f <= 0 {
		return nil
	}
	v := int64(f)
	return &v
}

// Flag coerces checkbox and loosely typed values to a boolean.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*f = Flag(t)
	case float64:
		*f = t != 0
	case string:
		*f = Flag(truthy(t))
	default:
		*f = false
	}
	return nil
}

func (f *Flag) UnmarshalParam(param string) error {
	*f = Flag(truthy(param))
	return nil
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "off", "no", "null":
		return false
	}
	return true
}

// optional maps empty input and the "null" sentinel to nil.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil
	}
	return &s
}

// EventCreateRequest is the POST payload, bound from JSON or form data.
type EventCreateRequest struct {
	Title       string  `json:"title" form:"title"`
	Description string  `json:"description" form:"description"`
	StartDate   string  `json:"start_date" form:"start_date"`
	EndDate     string  `json:"end_date" form:"end_date"`
	StartTime   string  `json:"start_time" form:"start_time"`
	EndTime     string  `json:"end_time" form:"end_time"`
	AllDay      Flag    `json:"all_day" form:"all_day"`
	Color       string  `json:"color" form:"color"`
	Category    string  `json:"category" form:"category"`
	Priority    string  `json:"priority" form:"priority"`
	CountryID   FlexInt `json:"country_id" form:"country_id"`
}

// Draft normalizes the request once; the caller fills CreatedBy and may
// override CountryID.
func (r EventCreateRequest) Draft() (EventDraft, error) {
	title := strings.TrimSpace(r.Title)
	start := optional(r.StartDate)
	if title == "" || start == nil {
		return EventDraft{}, Validation("Title and start date are required")
	}

	d := EventDraft{
		Title:     title,
		AllDay:    bool(r.AllDay),
		CountryID: r.CountryID.Ptr(),
	}
	if desc := optional(r.Description); desc != nil {
		d.Description = *desc
	}
	if cat := optional(r.Category); cat != nil {
		d.Category = *cat
	}

	var err error
	if d.StartDate, err = ParseDate(*start); err != nil {
		return EventDraft{}, Validation(err.Error())
	}
	if s := optional(r.EndDate); s != nil {
		end, err := ParseDate(*s)
		if err != nil {
			return EventDraft{}, Validation(err.Error())
		}
		d.EndDate = &end
	}
	if d.StartTime, err = parseOptionalTime(r.StartTime); err != nil {
		return EventDraft{}, err
	}
	if d.EndTime, err = parseOptionalTime(r.EndTime); err != nil {
		return EventDraft{}, err
	}
	if p := optional(r.Priority); p != nil {
		d.Priority = Priority(strings.ToLower(*p))
		if !d.Priority.Valid() {
			return EventDraft{}, Validation("Invalid priority.")
		}
	}
	return d, nil
}

func parseOptionalTime(s string) (*TimeOfDay, error) {
	v := optional(s)
	if v == nil {
		return nil, nil
	}
	t, err := ParseTimeOfDay(*v)
	if err != nil {
		return nil, Validation(err.Error())
	}
	return &t, nil
}

// EventPatch is a partial event update; only Set fields are applied.
type EventPatch struct {
	Title       Opt[string]      `json:"title"`
	Description Opt[string]      `json:"description"`
	StartDate   Opt[Date]        `json:"start_date"`
	EndDate     Opt[Date]        `json:"end_date"`
	StartTime   Opt[TimeOfDay]   `json:"start_time"`
	EndTime     Opt[TimeOfDay]   `json:"end_time"`
	Color       Opt[string]      `json:"color"`
	Category    Opt[string]      `json:"category"`
	Priority    Opt[Priority]    `json:"priority"`
	Status      Opt[EventStatus] `json:"status"`
	CountryID   Opt[FlexInt]     `json:"country_id"`
	AllDay      Opt[Flag]        `json:"all_day"`
}

func (p EventPatch) IsEmpty() bool {
	return !p.Title.Set && !p.Description.Set && !p.StartDate.Set && !p.EndDate.Set &&
		!p.StartTime.Set && !p.EndTime.Set && !p.Color.Set && !p.Category.Set &&
		!p.Priority.Set && !p.Status.Set && !p.CountryID.Set && !p.AllDay.Set
}

// ForceCountry replaces any caller-supplied country.
func (p *EventPatch) ForceCountry(id int64) {
	p.CountryID = Some(FlexInt(id))
}

func (p EventPatch) Validate() error {
	if p.IsEmpty() {
		return Validation("No changes detected.")
	}
	if p.Title.Set && (p.Title.Null || strings.TrimSpace(p.Title.Val) == "") {
		return Validation("Title cannot be empty.")
	}
	if p.StartDate.Set && p.StartDate.Null {
		return Validation("Start date is required.")
	}
	if p.Priority.Set && (p.Priority.Null || !p.Priority.Val.Valid()) {
		return Validation("Invalid priority.")
	}
	if p.Status.Set && (p.Status.Null || p.Status.Val != EventCancelled) {
		return Validation("Status can only be changed to cancelled.")
	}
	return nil
}

// Apply returns e with the patch applied, without touching id, owner or
// color; the repository resolves color separately.
func (p EventPatch) Apply(e Event, now time.Time) Event {
	if p.Title.Set {
		e.Title = strings.TrimSpace(p.Title.Val)
	}
	if p.Description.Set {
		e.Description = p.Description.Val
	}
	if p.StartDate.Set && !p.StartDate.Null {
		e.StartDate = p.StartDate.Val
	}
	if p.EndDate.Set {
		e.EndDate = p.EndDate.Ptr()
	}
	if p.StartTime.Set {
		e.StartTime = p.StartTime.Ptr()
	}
	if p.EndTime.Set {
		e.EndTime = p.EndTime.Ptr()
	}
	if p.Category.Set {
		e.Category = DefaultCategory
		if !p.Category.Null {
			e.Category = p.Category.Val
		}
	}
	if p.Priority.Set && !p.Priority.Null {
		e.Priority = p.Priority.Val
	}
	if p.Status.Set && !p.Status.Null {
		e.Status = p.Status.Val
	}
	if p.CountryID.Set {
		if id := p.CountryID.Val.Ptr(); id != nil && !p.CountryID.Null {
			e.CountryID = id
		}
	}
	if p.AllDay.Set {
		e.AllDay = bool(p.AllDay.Val) && !p.AllDay.Null
	}
	e.UpdatedAt = now
	return e
}

// EventUpdateRequest is the PUT payload.
type EventUpdateRequest struct {
	EventID FlexInt `json:"event_id"`
	ID      FlexInt `json:"id"`
	EventPatch
}

func (r EventUpdateRequest) TargetID() int64 {
	if r.EventID > 0 {
		return int64(r.EventID)
	}
	return int64(r.ID)
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

type UserCreateRequest struct {
	Name      string  `json:"name" form:"name"`
	Email     string  `json:"email" form:"email"`
	Password  string  `json:"password" form:"password"`
	Role      string  `json:"role" form:"role"`
	Status    string  `json:"status" form:"status"`
	CountryID FlexInt `json:"country_id" form:"country_id"`
}

type UserUpdateRequest struct {
	Name      string  `json:"name" form:"name"`
	Email     string  `json:"email" form:"email"`
	Role      string  `json:"role" form:"role"`
	CountryID FlexInt `json:"country_id" form:"country_id"`
}
