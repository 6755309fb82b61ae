package apis

import (
	"calendar-backend/cmd/calendar/auth"
	"calendar-backend/cmd/calendar/model"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	defaultUpcomingLimit = 5
	maxUpcomingLimit     = 100
)

type IEventRepo interface {
	ListEvents(ctx context.Context) ([]model.EventWithCountry, error)
	GetEvent(ctx context.Context, id int64) (model.Event, error)
	GetEventWithCountry(ctx context.Context, id int64) (model.EventWithCountry, error)
	EventsByDate(ctx context.Context, d model.Date) ([]model.EventWithCountry, error)
	EventsByMonth(ctx context.Context, year int, month time.Month) ([]model.EventWithCountry, error)
	SearchEvents(ctx context.Context, q string) ([]model.Event, error)
	UpcomingEvents(ctx context.Context, limit int) ([]model.Event, error)
	EventStats(ctx context.Context) (model.EventStats, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateEvent(ctx context.Context, event model.Event) (int64, error)
	UpdateEvent(ctx context.Context, id int64, patch model.EventPatch) error
	DeleteEvent(ctx context.Context, id int64) (bool, error)
	HardDeleteEvent(ctx context.Context, id int64) (bool, error)
	CompletePastEvents(ctx context.Context) (int64, error)
}

type EventAPI struct {
	eventRepo    IEventRepo
	logger       *zap.Logger
	calendarPage string
	now          func() time.Time
}

func NewEventAPI(eventRepo IEventRepo, logger *zap.Logger, calendarPage string) *EventAPI {

	return &EventAPI{
		eventRepo:    eventRepo,
		logger:       logger,
		calendarPage: calendarPage,
		now:          time.Now,
	}
}

func (a *EventAPI) Setup(g *echo.Group) {
	g.Any("/events", a.dispatch)
}

// dispatch routes /events by verb. Every verb except OPTIONS first completes
// events that have already ended so responses never show a stale status.
func (a *EventAPI) dispatch(c echo.Context) error {

	method := c.Request().Method

	switch method {
	case http.MethodOptions:
		return c.NoContent(http.StatusOK)
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return fail(c, http.StatusMethodNotAllowed, "Method not allowed")
	}

	sweep(c.Request().Context(), a.eventRepo, a.logger)

	switch method {
	case http.MethodPost:
		return a.createEvent(c)
	case http.MethodPut:
		return a.updateEvent(c)
	case http.MethodDelete:
		return a.deleteEvent(c)
	}
	return a.getEvents(c)
}

type IEventSweeper interface {
	CompletePastEvents(ctx context.Context) (int64, error)
}

// sweep runs the completion pass; a failure is logged and the request goes on.
func sweep(ctx context.Context, repo IEventSweeper, logger *zap.Logger) {
	n, err := repo.CompletePastEvents(ctx)
	if err != nil {
		logger.Warn("complete past events failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("completed past events", zap.Int64("count", n))
	}
}

func (a *EventAPI) getEvents(c echo.Context) error {

	ctx := c.Request().Context()
	q := c.QueryParams()

	var (
		data any
		err  error
	)

	switch {
	case q.Has("id"):
		id, perr := strconv.ParseInt(q.Get("id"), 10, 64)
		if perr != nil || id <= 0 {
			return fail(c, http.StatusBadRequest, "Invalid event ID")
		}
		data, err = a.eventRepo.GetEventWithCountry(ctx, id)

	case q.Has("date"):
		d, perr := model.ParseDate(q.Get("date"))
		if perr != nil {
			return fail(c, http.StatusBadRequest, perr.Error())
		}
		data, err = a.eventRepo.EventsByDate(ctx, d)

	case q.Has("month") && q.Has("year"):
		year, month, valid := parseMonth(q.Get("month"), q.Get("year"))
		if !valid {
			return fail(c, http.StatusBadRequest, "Invalid month or year")
		}
		data, err = a.eventRepo.EventsByMonth(ctx, year, month)

	case q.Has("search"):
		data, err = a.eventRepo.SearchEvents(ctx, strings.TrimSpace(q.Get("search")))

	case q.Has("upcoming"):
		data, err = a.eventRepo.UpcomingEvents(ctx, upcomingLimit(q.Get("limit")))

	case q.Has("stats"):
		data, err = a.eventRepo.EventStats(ctx)

	case q.Has("categories"):
		data, err = a.eventRepo.ListCategories(ctx)

	default:
		data, err = a.eventRepo.ListEvents(ctx)
	}

	if err != nil {
		return failWith(c, a.logger, err, "Failed to load events")
	}

	return ok(c, "success", data)
}

// parseMonth accepts months 1-12 of the years 1900-2100.
func parseMonth(m, y string) (int, time.Month, bool) {
	month, err := strconv.Atoi(strings.TrimSpace(m))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(y))
	if err != nil || year < 1900 || year > 2100 {
		return 0, 0, false
	}
	return year, time.Month(month), true
}

func upcomingLimit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return defaultUpcomingLimit
	}
	if n > maxUpcomingLimit {
		return maxUpcomingLimit
	}
	return n
}

func isAjax(c echo.Context) bool {
	return strings.EqualFold(c.Request().Header.Get(echo.HeaderXRequestedWith), "XMLHttpRequest")
}

func (a *EventAPI) createEvent(c echo.Context) error {

	ctx := c.Request().Context()
	ajax := isAjax(c)

	identity, loggedIn := auth.FromContext(ctx)
	if !loggedIn {
		return authRequired(c)
	}

	var req model.EventCreateRequest
	if err := c.Bind(&req); err != nil {
		return a.createFailed(c, ajax, http.StatusBadRequest, "Invalid request body")
	}

	draft, err := req.Draft()
	if err != nil {
		return a.createFailed(c, ajax, statusFor(err), err.Error())
	}

	if forced := identity.ForcedCountry(); forced != nil {
		draft.CountryID = forced
	}
	if draft.CountryID == nil {
		return a.createFailed(c, ajax, http.StatusBadRequest, "Country is required to create an event.")
	}
	draft.CreatedBy = &identity.ID

	event := model.NewEvent(draft, a.now())

	id, err := a.eventRepo.CreateEvent(ctx, event)
	if err != nil {
		code := statusFor(err)
		message := err.Error()
		if code >= http.StatusInternalServerError {
			a.logger.Error("create event failed", zap.Error(err), zap.Int64("user_id", identity.ID))
			message = "Failed to create event"
		}
		return a.createFailed(c, ajax, code, message)
	}

	a.logger.Info("event created", zap.Int64("event_id", id), zap.Int64("user_id", identity.ID))

	const message = "Event created successfully"
	if !ajax {
		return c.Redirect(http.StatusSeeOther, a.redirectURL(url.Values{
			"month":   {strconv.Itoa(int(event.StartDate.Month()))},
			"year":    {strconv.Itoa(event.StartDate.Year())},
			"success": {message},
		}))
	}

	return ok(c, message, map[string]int64{"id": id})
}

// createFailed answers an XHR with the envelope and sends interactive form
// posts back to the calendar page carrying the message.
func (a *EventAPI) createFailed(c echo.Context, ajax bool, code int, message string) error {
	if !ajax {
		return c.Redirect(http.StatusSeeOther, a.redirectURL(url.Values{"error": {message}}))
	}
	return fail(c, code, message)
}

func (a *EventAPI) redirectURL(params url.Values) string {
	page := a.calendarPage
	if page == "" {
		page = "/"
	}
	sep := "?"
	if strings.Contains(page, "?") {
		sep = "&"
	}
	return page + sep + params.Encode()
}

func (a *EventAPI) updateEvent(c echo.Context) error {

	ctx := c.Request().Context()

	identity, loggedIn := auth.FromContext(ctx)
	if !loggedIn {
		return authRequired(c)
	}

	var req model.EventUpdateRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	id := req.TargetID()
	if id <= 0 {
		return fail(c, http.StatusBadRequest, "Event ID is required")
	}

	event, err := a.eventRepo.GetEvent(ctx, id)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to update event")
	}
	if !auth.CanMutate(ctx, event) {
		return fail(c, http.StatusForbidden, "You do not have permission to update this event.")
	}

	patch := req.EventPatch
	if err := patch.Validate(); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if patch.Status.Set {
		if err := event.CheckCancel(); err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
	}
	if forced := identity.ForcedCountry(); forced != nil {
		patch.ForceCountry(*forced)
	}

	if err := a.eventRepo.UpdateEvent(ctx, id, patch); err != nil {
		return failWith(c, a.logger, err, "Failed to update event")
	}

	a.logger.Info("event updated", zap.Int64("event_id", id), zap.Int64("user_id", identity.ID))

	return ok(c, "Event updated successfully", nil)
}

func (a *EventAPI) deleteEvent(c echo.Context) error {

	ctx := c.Request().Context()

	identity, loggedIn := auth.FromContext(ctx)
	if !loggedIn {
		return authRequired(c)
	}

	id, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
	if err != nil || id <= 0 {
		return fail(c, http.StatusBadRequest, "Event ID is required")
	}
	hard := c.QueryParam("hard") == "true"

	event, err := a.eventRepo.GetEvent(ctx, id)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to delete event")
	}
	if !auth.CanMutate(ctx, event) {
		return fail(c, http.StatusForbidden, "You do not have permission to delete this event.")
	}
	if !hard {
		if err := event.CheckCancel(); err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
	}

	var deleted bool
	if hard {
		deleted, err = a.eventRepo.HardDeleteEvent(ctx, id)
	} else {
		deleted, err = a.eventRepo.DeleteEvent(ctx, id)
	}
	if err != nil {
		return failWith(c, a.logger, err, "Failed to delete event")
	}
	if !deleted {
		return fail(c, http.StatusNotFound, "Event not found")
	}

	a.logger.Info("event deleted",
		zap.Int64("event_id", id),
		zap.Int64("user_id", identity.ID),
		zap.Bool("hard", hard),
	)

	return ok(c, "Event deleted successfully", nil)
}
