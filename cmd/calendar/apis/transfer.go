package apis

import (
	"bytes"
	"calendar-backend/cmd/calendar/auth"
	"calendar-backend/cmd/calendar/model"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const productID = "-//calendar-backend//Event Feed//EN"

type ITransferRepo interface {
	ListEvents(ctx context.Context) ([]model.EventWithCountry, error)
	EventsByMonth(ctx context.Context, year int, month time.Month) ([]model.EventWithCountry, error)
	CreateEvent(ctx context.Context, event model.Event) (int64, error)
	CompletePastEvents(ctx context.Context) (int64, error)
}

type ICountryCodes interface {
	GetCountryByCode(ctx context.Context, code string) (model.Country, error)
}

// TransferAPI moves events in and out as CSV and iCalendar.
type TransferAPI struct {
	eventRepo ITransferRepo
	countries ICountryCodes
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

func NewTransferAPI(eventRepo ITransferRepo, countries ICountryCodes, logger *zap.Logger, loc *time.Location) *TransferAPI {

	if loc == nil {
		loc = time.Local
	}

	return &TransferAPI{
		eventRepo: eventRepo,
		countries: countries,
		logger:    logger,
		loc:       loc,
		now:       time.Now,
	}
}

func (a *TransferAPI) Setup(g *echo.Group) {
	g.GET("/events/export.csv", a.exportCSV)
	g.GET("/events/feed.ics", a.feed)
	g.POST("/events/import", a.importCSV, auth.RequireLogin)
}

func (a *TransferAPI) exportCSV(c echo.Context) error {

	ctx := c.Request().Context()

	sweep(ctx, a.eventRepo, a.logger)

	events, err := a.eventRepo.ListEvents(ctx)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to export events")
	}

	rows := make([]model.EventCSV, 0, len(events))
	for _, e := range events {
		rows = append(rows, model.NewEventCSV(e))
	}

	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to export events")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="events.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", out)
}

// importCSV creates one event per row through the same path as POST
// /events. Rows that fail are reported and do not stop the import.
func (a *TransferAPI) importCSV(c echo.Context) error {

	ctx := c.Request().Context()
	identity, _ := auth.FromContext(ctx)

	csvfile, err := c.FormFile("csvfile")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	cf, err := csvfile.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	defer cf.Close()

	var rows []model.EventImportCSV
	if err := gocsv.Unmarshal(cf, &rows); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	result := model.ImportResult{
		Created: []int64{},
		Errors:  []model.ImportRowError{},
	}

	for i, row := range rows {
		id, err := a.importRow(ctx, identity, row)
		if err != nil {
			message := err.Error()
			if statusFor(err) >= http.StatusInternalServerError {
				a.logger.Error("import row failed", zap.Int("row", i+1), zap.Error(err))
				message = "Failed to create event"
			}
			result.Errors = append(result.Errors, model.ImportRowError{Row: i + 1, Message: message})
			continue
		}
		result.Created = append(result.Created, id)
	}

	a.logger.Info("events imported",
		zap.Int64("user_id", identity.ID),
		zap.Int("created", len(result.Created)),
		zap.Int("rejected", len(result.Errors)),
	)

	return ok(c, fmt.Sprintf("Imported %d of %d events", len(result.Created), len(rows)), result)
}

func (a *TransferAPI) importRow(ctx context.Context, identity auth.Identity, row model.EventImportCSV) (int64, error) {

	var countryID int64
	switch forced := identity.ForcedCountry(); {
	case forced != nil:
		countryID = *forced
	case strings.TrimSpace(row.CountryCode) != "":
		country, err := a.countries.GetCountryByCode(ctx, strings.TrimSpace(row.CountryCode))
		if model.IsNotFound(err) {
			return 0, model.Validation(fmt.Sprintf("Unknown country code %q.", row.CountryCode))
		}
		if err != nil {
			return 0, err
		}
		countryID = country.ID
	}

	draft, err := row.Request(countryID).Draft()
	if err != nil {
		return 0, err
	}
	if draft.CountryID == nil {
		return 0, model.Validation("Country is required to create an event.")
	}
	draft.CreatedBy = &identity.ID

	return a.eventRepo.CreateEvent(ctx, model.NewEvent(draft, a.now()))
}

// feed renders active events as a VCALENDAR, limited to one month when
// month and year are given.
func (a *TransferAPI) feed(c echo.Context) error {

	ctx := c.Request().Context()

	sweep(ctx, a.eventRepo, a.logger)

	var (
		events []model.EventWithCountry
		err    error
	)

	if c.QueryParam("month") != "" || c.QueryParam("year") != "" {
		year, month, valid := parseMonth(c.QueryParam("month"), c.QueryParam("year"))
		if !valid {
			return fail(c, http.StatusBadRequest, "Invalid month or year")
		}
		events, err = a.eventRepo.EventsByMonth(ctx, year, month)
	} else {
		events, err = a.eventRepo.ListEvents(ctx)
	}
	if err != nil {
		return failWith(c, a.logger, err, "Failed to build calendar feed")
	}

	if len(events) == 0 {
		return fail(c, http.StatusNotFound, "No events found")
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(a.calendar(events)); err != nil {
		return failWith(c, a.logger, err, "Failed to build calendar feed")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="events.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

func (a *TransferAPI) calendar(events []model.EventWithCountry) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	stamp := a.now().UTC()
	for _, e := range events {
		cal.Children = append(cal.Children, a.vevent(e, stamp).Component)
	}
	return cal
}

// vevent maps an event to a VEVENT. All-day events use DATE values with an
// exclusive end; timed events are written in UTC.
func (a *TransferAPI) vevent(e model.EventWithCountry, stamp time.Time) *ical.Event {
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, fmt.Sprintf("event-%d@calendar", e.ID))
	ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	if !e.UpdatedAt.IsZero() {
		ev.Props.SetDateTime(ical.PropLastModified, e.UpdatedAt.UTC())
	}
	ev.Props.SetText(ical.PropSummary, e.Title)
	if e.Description != "" {
		ev.Props.SetText(ical.PropDescription, e.Description)
	}
	if e.Category != "" {
		ev.Props.SetText(ical.PropCategories, e.Category)
	}
	if e.CountryName != nil {
		ev.Props.SetText(ical.PropLocation, *e.CountryName)
	}

	if e.IsAllDay() {
		ev.Props.SetDate(ical.PropDateTimeStart, e.StartDate.In(time.UTC))
		ev.Props.SetDate(ical.PropDateTimeEnd, e.LastDay().AddDays(1).In(time.UTC))
		return ev
	}

	start := model.TimeOfDay{}
	if e.StartTime != nil {
		start = *e.StartTime
	}
	begin := start.On(e.StartDate, a.loc)
	end := e.EffectiveEnd(a.loc)
	if end.Before(begin) {
		end = begin
	}
	ev.Props.SetDateTime(ical.PropDateTimeStart, begin.UTC())
	ev.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
	return ev
}
