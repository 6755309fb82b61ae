package apis

import (
	"calendar-backend/cmd/calendar/model"
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ICountryRepo interface {
	ListCountries(ctx context.Context) ([]model.Country, error)
	GetCountry(ctx context.Context, id int64) (model.Country, error)
	CountryStatistics(ctx context.Context) ([]model.CountryStat, error)
	EventsByCountry(ctx context.Context, countryID int64, from, to *model.Date) ([]model.EventWithCountry, error)
}

type CountryAPI struct {
	countryRepo ICountryRepo
	events      IEventSweeper
	logger      *zap.Logger
}

func NewCountryAPI(countryRepo ICountryRepo, events IEventSweeper, logger *zap.Logger) *CountryAPI {

	return &CountryAPI{
		countryRepo: countryRepo,
		events:      events,
		logger:      logger,
	}
}

func (a *CountryAPI) Setup(g *echo.Group) {
	g.GET("/countries", a.listCountries)
	g.GET("/countries/stats", a.statistics)
	g.GET("/countries/:id/events", a.countryEvents)
}

func (a *CountryAPI) listCountries(c echo.Context) error {

	countries, err := a.countryRepo.ListCountries(c.Request().Context())
	if err != nil {
		return failWith(c, a.logger, err, "Failed to load countries")
	}

	return ok(c, "success", countries)
}

func (a *CountryAPI) statistics(c echo.Context) error {

	ctx := c.Request().Context()

	sweep(ctx, a.events, a.logger)

	stats, err := a.countryRepo.CountryStatistics(ctx)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to load country statistics")
	}

	return ok(c, "success", stats)
}

// countryEvents lists a country's active events. from and to narrow the
// result only when both are given.
func (a *CountryAPI) countryEvents(c echo.Context) error {

	ctx := c.Request().Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return fail(c, http.StatusBadRequest, "Invalid country ID")
	}

	if _, err := a.countryRepo.GetCountry(ctx, id); err != nil {
		return failWith(c, a.logger, err, "Failed to load country")
	}

	sweep(ctx, a.events, a.logger)

	var from, to *model.Date
	if c.QueryParam("from") != "" && c.QueryParam("to") != "" {
		f, err := model.ParseDate(c.QueryParam("from"))
		if err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		t, err := model.ParseDate(c.QueryParam("to"))
		if err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		if t.Before(f) {
			return fail(c, http.StatusBadRequest, "End date cannot be before start date.")
		}
		from, to = &f, &t
	}

	events, err := a.countryRepo.EventsByCountry(ctx, id, from, to)
	if err != nil {
		return failWith(c, a.logger, err, "Failed to load events")
	}

	return ok(c, "success", events)
}
