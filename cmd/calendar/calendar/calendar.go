// Package calendar expands events into the day buckets shown by the month and
// day views. It never touches storage.
package calendar

import (
	"calendar-backend/cmd/calendar/model"
	"sort"
	"strconv"
	"time"
)

// Dated is anything with an inclusion range and an optional start time.
type Dated interface {
	Covers(d model.Date) bool
	Start() *model.TimeOfDay
	IsAllDay() bool
}

// Bucket maps every date in [from, to] to the events covering it, ordered by
// start time with untimed events first. Dates without events are omitted.
func Bucket[E Dated](events []E, from, to model.Date) map[model.Date][]E {
	out := make(map[model.Date][]E)
	for d := from; !d.After(to); d = d.AddDays(1) {
		var day []E
		for _, e := range events {
			if e.Covers(d) {
				day = append(day, e)
			}
		}
		if len(day) > 0 {
			sortByStart(day)
			out[d] = day
		}
	}
	return out
}

func sortByStart[E Dated](events []E) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].Start(), events[j].Start()
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		}
		return a.Before(*b)
	})
}

type Cell[E Dated] struct {
	Date    model.Date `json:"date"`
	InMonth bool       `json:"in_month"`
	IsToday bool       `json:"is_today"`
	Events  []E        `json:"events"`
}

type MonthRef struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (m MonthRef) Prev() MonthRef {
	if m.Month == time.January {
		return MonthRef{Year: m.Year - 1, Month: time.December}
	}
	return MonthRef{Year: m.Year, Month: m.Month - 1}
}

func (m MonthRef) Next() MonthRef {
	if m.Month == time.December {
		return MonthRef{Year: m.Year + 1, Month: time.January}
	}
	return MonthRef{Year: m.Year, Month: m.Month + 1}
}

type MonthView[E Dated] struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	Title string      `json:"title"`
	Weeks [][]Cell[E] `json:"weeks"`
	Prev  MonthRef    `json:"prev"`
	Next  MonthRef    `json:"next"`
}

// GridRange is the first Sunday and last Saturday of the grid showing month.
func GridRange(year int, month time.Month) (from, to model.Date) {
	first := model.NewDate(year, month, 1)
	last := first.LastOfMonth()
	return first.AddDays(-int(first.Weekday())), last.AddDays(int(time.Saturday - last.Weekday()))
}

// Month lays the month out as Sunday-first weeks. Leading and trailing days
// of neighbouring months are included so every week has seven cells.
func Month[E Dated](year int, month time.Month, today model.Date, events []E) MonthView[E] {
	start, end := GridRange(year, month)

	buckets := Bucket(events, start, end)

	ref := MonthRef{Year: year, Month: month}
	view := MonthView[E]{
		Year:  year,
		Month: month,
		Title: month.String() + " " + strconv.Itoa(year),
		Prev:  ref.Prev(),
		Next:  ref.Next(),
	}

	var week []Cell[E]
	for d := start; !d.After(end); d = d.AddDays(1) {
		week = append(week, Cell[E]{
			Date:    d,
			InMonth: d.Month() == month,
			IsToday: d.Equal(today),
			Events:  nonNil(buckets[d]),
		})
		if len(week) == 7 {
			view.Weeks = append(view.Weeks, week)
			week = nil
		}
	}
	return view
}

type Hour[E Dated] struct {
	Hour   int `json:"hour"`
	Events []E `json:"events"`
}

type DayView[E Dated] struct {
	Date   model.Date `json:"date"`
	AllDay []E        `json:"all_day"`
	Hours  []Hour[E]  `json:"hours"`
	Prev   model.Date `json:"prev"`
	Next   model.Date `json:"next"`
}

// Day splits the events covering date into the all-day bucket and 24 hourly
// buckets keyed by start hour. Timed events without a start time land in
// hour 0.
func Day[E Dated](date model.Date, events []E) DayView[E] {
	view := DayView[E]{
		Date:   date,
		AllDay: []E{},
		Hours:  make([]Hour[E], 24),
		Prev:   date.AddDays(-1),
		Next:   date.AddDays(1),
	}
	for h := range view.Hours {
		view.Hours[h] = Hour[E]{Hour: h, Events: []E{}}
	}

	for _, e := range Bucket(events, date, date)[date] {
		if e.IsAllDay() {
			view.AllDay = append(view.AllDay, e)
			continue
		}
		h := 0
		if s := e.Start(); s != nil {
			h = s.Hour()
		}
		view.Hours[h].Events = append(view.Hours[h].Events, e)
	}
	return view
}

func nonNil[E any](s []E) []E {
	if s == nil {
		return []E{}
	}
	return s
}
