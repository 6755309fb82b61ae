package apis

import (
	"calendar-backend/cmd/calendar/auth"
	"calendar-backend/cmd/calendar/model"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventRepo implements every event-facing repository interface.
type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) ListEvents(ctx context.Context) ([]model.EventWithCountry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.EventWithCountry), args.Error(1)
}

func (m *MockEventRepo) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Event), args.Error(1)
}

func (m *MockEventRepo) GetEventWithCountry(ctx context.Context, id int64) (model.EventWithCountry, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.EventWithCountry), args.Error(1)
}

func (m *MockEventRepo) EventsByDate(ctx context.Context, d model.Date) ([]model.EventWithCountry, error) {
	args := m.Called(ctx, d)
	return args.Get(0).([]model.EventWithCountry), args.Error(1)
}

func (m *MockEventRepo) EventsByRange(ctx context.Context, from, to model.Date) ([]model.EventWithCountry, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]model.EventWithCountry), args.Error(1)
}

func (m *MockEventRepo) EventsByMonth(ctx context.Context, year int, month time.Month) ([]model.EventWithCountry, error) {
	args := m.Called(ctx, year, month)
	return args.Get(0).([]model.EventWithCountry), args.Error(1)
}

func (m *MockEventRepo) SearchEvents(ctx context.Context, q string) ([]model.Event, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]model.Event), args.Error(1)
}

func (m *MockEventRepo) UpcomingEvents(ctx context.Context, limit int) ([]model.Event, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.Event), args.Error(1)
}

func (m *MockEventRepo) EventStats(ctx context.Context) (model.EventStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.EventStats), args.Error(1)
}

func (m *MockEventRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockEventRepo) CreateEvent(ctx context.Context, event model.Event) (int64, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEventRepo) UpdateEvent(ctx context.Context, id int64, patch model.EventPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockEventRepo) DeleteEvent(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventRepo) HardDeleteEvent(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventRepo) CompletePastEvents(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEventRepo) CountEventsByCreator(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockCountryRepo struct {
	mock.Mock
}

func (m *MockCountryRepo) ListCountries(ctx context.Context) ([]model.Country, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Country), args.Error(1)
}

func (m *MockCountryRepo) GetCountry(ctx context.Context, id int64) (model.Country, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Country), args.Error(1)
}

func (m *MockCountryRepo) GetCountryByCode(ctx context.Context, code string) (model.Country, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(model.Country), args.Error(1)
}

func (m *MockCountryRepo) CountryStatistics(ctx context.Context) ([]model.CountryStat, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.CountryStat), args.Error(1)
}

func (m *MockCountryRepo) EventsByCountry(ctx context.Context, countryID int64, from, to *model.Date) ([]model.EventWithCountry, error) {
	args := m.Called(ctx, countryID, from, to)
	return args.Get(0).([]model.EventWithCountry), args.Error(1)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) ListUsers(ctx context.Context, filter model.UserFilter) ([]model.UserWithCountry, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.UserWithCountry), args.Error(1)
}

func (m *MockUserRepo) GetUser(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepo) CreateUser(ctx context.Context, user model.User) (int64, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepo) UpdateUser(ctx context.Context, id int64, u model.UserUpdate) error {
	args := m.Called(ctx, id, u)
	return args.Error(0)
}

func (m *MockUserRepo) ApproveUser(ctx context.Context, id, approverID int64) error {
	args := m.Called(ctx, id, approverID)
	return args.Error(0)
}

func (m *MockUserRepo) DisableUser(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func newContext(method, target string, body io.Reader, identity *auth.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, body)
	if identity != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *identity))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) model.BaseResponse {
	t.Helper()
	var response model.BaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return response
}

func int64Ptr(v int64) *int64 { return &v }

func fixedNow() time.Time {
	return time.Date(2025, time.March, 2, 10, 0, 0, 0, time.UTC)
}
