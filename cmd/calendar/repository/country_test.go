package repository

import (
	"calendar-backend/cmd/calendar/model"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountryRepo_ListCountries(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCountryRepo(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "countries" ORDER BY name`).
		WillReturnRows(countryRows().
			AddRow(2, "Japan", "#fd7e14", "JP").
			AddRow(1, "Thailand", "#dc3545", "TH"))

	countries, err := repo.ListCountries(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []model.Country{
		{ID: 2, Name: "Japan", Color: "#fd7e14", Code: "JP"},
		{ID: 1, Name: "Thailand", Color: "#dc3545", Code: "TH"},
	}, countries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountryRepo_GetCountryByCode_CaseInsensitive(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCountryRepo(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "countries" WHERE UPPER\(code\) = UPPER\(\$1\)`).
		WillReturnRows(countryRows().AddRow(1, "Thailand", "#dc3545", "TH"))

	country, err := repo.GetCountryByCode(context.Background(), "th")

	require.NoError(t, err)
	assert.Equal(t, "Thailand", country.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountryRepo_GetCountry_Errors(t *testing.T) {
	tests := []struct {
		name string
		rows *sqlmock.Rows
		err  error
		kind model.ErrorKind
	}{
		{name: "missing row", rows: countryRows(), kind: model.KindNotFound},
		{name: "database error", err: errors.New("connection reset"), kind: model.KindPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock := setupMockDB(t)
			repo := NewCountryRepo(gormDB)

			q := mock.ExpectQuery(`SELECT \* FROM "countries" WHERE id = \$1`)
			if tt.err != nil {
				q.WillReturnError(tt.err)
			} else {
				q.WillReturnRows(tt.rows)
			}

			_, err := repo.GetCountry(context.Background(), 3)

			assert.Equal(t, tt.kind, model.KindOf(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCountryRepo_CountryStatistics(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCountryRepo(gormDB)

	mock.ExpectQuery(`SELECT c\.id, c\.name, c\.color, COUNT\(e\.id\) AS event_count FROM countries AS c LEFT JOIN events e ON c\.id = e\.country_id AND e\.status = \$1 GROUP BY`).
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color", "event_count"}).
			AddRow(2, "Japan", "#fd7e14", 0).
			AddRow(1, "Thailand", "#dc3545", 4))

	stats, err := repo.CountryStatistics(context.Background())

	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, int64(0), stats[0].EventCount)
	assert.Equal(t, int64(4), stats[1].EventCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountryRepo_EventsByCountry_Window(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCountryRepo(gormDB)

	from := model.NewDate(2025, time.March, 1)
	to := model.NewDate(2025, time.March, 31)

	mock.ExpectQuery(`JOIN countries c ON e\.country_id = c\.id WHERE \(e\.country_id = \$1 AND e\.status = \$2\) AND \(e\.start_date <= \$3`).
		WithArgs(1, "active", "2025-03-31", "2025-03-01").
		WillReturnRows(sqlmock.NewRows(append(eventColumns, "country_name", "country_color", "country_code")))

	events, err := repo.EventsByCountry(context.Background(), 1, &from, &to)

	assert.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountryRepo_EventsByCountry_NoWindow(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := NewCountryRepo(gormDB)

	mock.ExpectQuery(`WHERE e\.country_id = \$1 AND e\.status = \$2 ORDER BY`).
		WithArgs(1, "active").
		WillReturnRows(sqlmock.NewRows(append(eventColumns, "country_name", "country_color", "country_code")))

	_, err := repo.EventsByCountry(context.Background(), 1, nil, nil)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
