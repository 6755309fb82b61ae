package apis

import (
	"calendar-backend/cmd/calendar/calendar"
	"calendar-backend/cmd/calendar/model"
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ICalendarRepo interface {
	EventsByRange(ctx context.Context, from, to model.Date) ([]model.EventWithCountry, error)
	CompletePastEvents(ctx context.Context) (int64, error)
}

// CalendarAPI serves the month grid and the day agenda.
type CalendarAPI struct {
	eventRepo ICalendarRepo
	logger    *zap.Logger
	now       func() time.Time
}

func NewCalendarAPI(eventRepo ICalendarRepo, logger *zap.Logger) *CalendarAPI {

	return &CalendarAPI{
		eventRepo: eventRepo,
		logger:    logger,
		now:       time.Now,
	}
}

func (a *CalendarAPI) Setup(g *echo.Group) {
	g.GET("/calendar/month", a.month)
	g.GET("/calendar/day", a.day)
}

// month falls back to the current month when month or year is missing or
// out of range.
func (a *CalendarAPI) month(c echo.Context) error {

	ctx := c.Request().Context()
	today := model.DateOf(a.now())

	year, month, valid := parseMonth(c.QueryParam("month"), c.QueryParam("year"))
	if !valid {
		year, month = today.Year(), today.Month()
	}

	sweep(ctx, a.eventRepo, a.logger)

	from, to := calendar.GridRange(year, month)
	events, err := a.eventRepo.EventsByRange(ctx, from, to)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to load calendar")
	}

	return ok(c, "success", calendar.Month(year, month, today, events))
}

// day falls back to today on a missing or malformed date.
func (a *CalendarAPI) day(c echo.Context) error {

	ctx := c.Request().Context()

	date, err := model.ParseDate(c.QueryParam("date"))
	if err != nil {
		date = model.DateOf(a.now())
	}

	sweep(ctx, a.eventRepo, a.logger)

	events, err := a.eventRepo.EventsByRange(ctx, date, date)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to load calendar")
	}

	return ok(c, "success", calendar.Day(date, events))
}
