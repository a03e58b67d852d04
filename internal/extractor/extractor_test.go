package extractor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/admigrate/internal/extractor"
	"github.com/jonesrussell/admigrate/internal/logger"
)

// engagementColumns matches the column aliases of the extraction query.
var engagementColumns = []string{
	"UserID", "Age", "Gender", "UserLocation", "SignupDate", "Interests",
	"ImpressionID", "Device", "ImpressionLocation", "ImpressionTimestamp", "AdCost",
	"CampaignID", "CampaignName", "CampaignCategory",
	"AdvertiserID", "AdvertiserName",
	"ClickID", "ClickTimestamp", "AdRevenue",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestExtract(t *testing.T) {
	t.Helper()

	db, mock := newMockDB(t)

	impressionAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	clickAt := impressionAt.Add(5 * time.Minute)
	signup := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(engagementColumns).
		AddRow(
			1, 30, "F", "Kyiv", signup, "sports,finance",
			100, "mobile", "Kyiv", impressionAt, 0.75,
			11, "Spring Sale", "retail",
			41, "Acme",
			500, clickAt, 2.5,
		).
		AddRow(
			1, 30, "F", "Kyiv", signup, "sports,finance",
			101, "mobile", "Kyiv", impressionAt.Add(time.Hour), 0.5,
			11, "Spring Sale", "retail",
			41, "Acme",
			nil, nil, nil,
		)

	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	got, err := extractor.New(db, logger.NewNop()).Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, int64(1), first.UserID)
	assert.Equal(t, int64(100), first.ImpressionID)
	assert.Equal(t, "sports,finance", first.Interests.String)
	assert.True(t, first.Clicked())
	assert.Equal(t, int64(500), first.ClickID.Int64)
	assert.InDelta(t, 2.5, first.AdRevenue.Float64, 0.0001)

	second := got[1]
	assert.False(t, second.Clicked())
	assert.False(t, second.ClickTimestamp.Valid)
	assert.False(t, second.AdRevenue.Valid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtract_Empty(t *testing.T) {
	t.Helper()

	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(engagementColumns))

	got, err := extractor.New(db, logger.NewNop()).Extract(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtract_QueryError(t *testing.T) {
	t.Helper()

	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

	got, err := extractor.New(db, logger.NewNop()).Extract(context.Background())
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "select engagement rows")
}
