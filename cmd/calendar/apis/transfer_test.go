package apis

import (
	"bytes"
	"calendar-backend/cmd/calendar/auth"
	"calendar-backend/cmd/calendar/model"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTransferAPI(events *MockEventRepo, countries *MockCountryRepo) *TransferAPI {
	api := NewTransferAPI(events, countries, zap.NewNop(), time.UTC)
	api.now = fixedNow
	return api
}

func strPtr(s string) *string { return &s }

func uploadContext(t *testing.T, content string, identity *auth.Identity) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("csvfile", "events.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	c, rec := newContext(http.MethodPost, "/api/events/import", body, identity)
	c.Request().Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return c, rec
}

func TestTransferAPI_ExportCSV(t *testing.T) {
	events := new(MockEventRepo)
	events.On("CompletePastEvents", mock.Anything).Return(int64(0), nil)
	events.On("ListEvents", mock.Anything).Return([]model.EventWithCountry{
		{Event: ownedEvent(1, 7), CountryCode: strPtr("JP")},
	}, nil)
	api := newTransferAPI(events, new(MockCountryRepo))
	c, rec := newContext(http.MethodGet, "/api/events/export.csv", nil, nil)

	err := api.exportCSV(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "id,title,description,start_date,end_date,start_time,end_time,all_day,category,priority,status,country_code\n")
	assert.Contains(t, rec.Body.String(), "1,Planning,,2025-03-05,2025-03-05,,,false,,medium,active,JP\n")
}

func TestTransferAPI_ImportCSV(t *testing.T) {
	events := new(MockEventRepo)
	countries := new(MockCountryRepo)
	countries.On("GetCountryByCode", mock.Anything, "JP").Return(model.Country{ID: 2, Code: "JP"}, nil)
	countries.On("GetCountryByCode", mock.Anything, "ZZ").Return(model.Country{}, model.NotFound("Country not found"))
	events.On("CreateEvent", mock.Anything, mock.MatchedBy(func(e model.Event) bool {
		return e.Title == "Offsite" && *e.CountryID == 2 && *e.CreatedBy == owner.ID
	})).Return(int64(21), nil)
	api := newTransferAPI(events, countries)

	content := "title,start_date,country_code\n" +
		"Offsite,2025-05-01,JP\n" +
		",2025-05-02,JP\n" +
		"Retro,2025-05-03,ZZ\n"
	c, rec := uploadContext(t, content, &owner)

	err := api.importCSV(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	response := decode(t, rec)
	assert.Equal(t, "Imported 1 of 3 events", response.Message)

	data := response.Data.(map[string]any)
	assert.Equal(t, []any{float64(21)}, data["created"])
	assert.Equal(t, []any{
		map[string]any{"row": float64(2), "message": "Title and start date are required"},
		map[string]any{"row": float64(3), "message": `Unknown country code "ZZ".`},
	}, data["errors"])
	events.AssertNumberOfCalls(t, "CreateEvent", 1)
}

func TestTransferAPI_ImportForcesCountry(t *testing.T) {
	events := new(MockEventRepo)
	countries := new(MockCountryRepo)
	events.On("CreateEvent", mock.Anything, mock.MatchedBy(func(e model.Event) bool {
		return *e.CountryID == 3
	})).Return(int64(30), nil)
	api := newTransferAPI(events, countries)

	c, rec := uploadContext(t, "title,start_date,country_code\nOffsite,2025-05-01,JP\n", &regionals)

	err := api.importCSV(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	events.AssertExpectations(t)
	countries.AssertNotCalled(t, "GetCountryByCode", mock.Anything, mock.Anything)
}

func TestTransferAPI_ImportMissingFile(t *testing.T) {
	api := newTransferAPI(new(MockEventRepo), new(MockCountryRepo))
	c, rec := newContext(http.MethodPost, "/api/events/import", nil, &owner)

	err := api.importCSV(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransferAPI_Feed(t *testing.T) {
	start, end := model.NewTimeOfDay(9, 30, 0), model.NewTimeOfDay(10, 30, 0)
	timed := ownedEvent(2, 7)
	timed.Title = "Review"
	timed.StartTime = &start
	timed.EndTime = &end

	events := new(MockEventRepo)
	events.On("CompletePastEvents", mock.Anything).Return(int64(0), nil)
	events.On("ListEvents", mock.Anything).Return([]model.EventWithCountry{
		{Event: ownedEvent(1, 7), CountryName: strPtr("Japan")},
		{Event: timed},
	}, nil)
	api := newTransferAPI(events, new(MockCountryRepo))
	c, rec := newContext(http.MethodGet, "/api/events/feed.ics", nil, nil)

	err := api.feed(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get(echo.HeaderContentType))

	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "PRODID:-//calendar-backend//Event Feed//EN")
	assert.Contains(t, body, "UID:event-1@calendar")
	assert.Contains(t, body, "VALUE=DATE:20250305")
	assert.Contains(t, body, "VALUE=DATE:20250306")
	assert.Contains(t, body, "LOCATION:Japan")
	assert.Contains(t, body, "UID:event-2@calendar")
	assert.Contains(t, body, "20250305T093000Z")
	assert.Contains(t, body, "20250305T103000Z")
}

func TestTransferAPI_FeedMonth(t *testing.T) {
	events := new(MockEventRepo)
	events.On("CompletePastEvents", mock.Anything).Return(int64(0), nil)
	events.On("EventsByMonth", mock.Anything, 2024, time.February).Return([]model.EventWithCountry{}, nil)
	api := newTransferAPI(events, new(MockCountryRepo))

	c, rec := newContext(http.MethodGet, "/api/events/feed.ics?month=2&year=2024", nil, nil)
	assert.NoError(t, api.feed(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No events found", decode(t, rec).Message)

	c, rec = newContext(http.MethodGet, "/api/events/feed.ics?month=2", nil, nil)
	assert.NoError(t, api.feed(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	events.AssertExpectations(t)
}
