package transformer_test

import (
	"database/sql"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/admigrate/internal/domain"
	"github.com/jonesrussell/admigrate/internal/transformer"
)

// rowOption mutates a base engagement row in test setup.
type rowOption func(*domain.EngagementRow)

func withDevice(device string) rowOption {
	return func(r *domain.EngagementRow) {
		r.Device = sql.NullString{String: device, Valid: true}
	}
}

func withClick(clickID int64, ts time.Time, revenue float64) rowOption {
	return func(r *domain.EngagementRow) {
		r.ClickID = sql.NullInt64{Int64: clickID, Valid: true}
		r.ClickTimestamp = sql.NullTime{Time: ts, Valid: true}
		r.AdRevenue = sql.NullFloat64{Float64: revenue, Valid: true}
	}
}

func withInterests(joined string) rowOption {
	return func(r *domain.EngagementRow) {
		r.Interests = sql.NullString{String: joined, Valid: true}
	}
}

func newRow(t *testing.T, userID, impressionID int64, ts time.Time, opts ...rowOption) domain.EngagementRow {
	t.Helper()

	row := domain.EngagementRow{
		UserID:              userID,
		Age:                 sql.NullInt64{Int64: 30, Valid: true},
		Gender:              sql.NullString{String: "F", Valid: true},
		UserLocation:        sql.NullString{String: "Kyiv", Valid: true},
		SignupDate:          sql.NullTime{Time: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		ImpressionID:        impressionID,
		Device:              sql.NullString{String: "mobile", Valid: true},
		ImpressionTimestamp: ts,
		AdCost:              sql.NullFloat64{Float64: 0.75, Valid: true},
		CampaignID:          sql.NullInt64{Int64: 11, Valid: true},
		CampaignName:        sql.NullString{String: "Spring Sale", Valid: true},
		CampaignCategory:    sql.NullString{String: "retail", Valid: true},
		AdvertiserID:        sql.NullInt64{Int64: 41, Valid: true},
		AdvertiserName:      sql.NullString{String: "Acme", Valid: true},
	}
	for _, opt := range opts {
		opt(&row)
	}
	return row
}

func ts(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.Parse("2006-01-02T15:04", value)
	require.NoError(t, err)
	return parsed
}

func TestTransform_SingleSessionWithClick(t *testing.T) {
	t.Helper()

	clickTime := ts(t, "2024-01-01T14:05")
	rows := []domain.EngagementRow{
		newRow(t, 1, 100, ts(t, "2024-01-01T10:00")),
		newRow(t, 1, 101, ts(t, "2024-01-01T14:00"), withClick(500, clickTime, 2.5)),
	}

	docs := transformer.Transform(rows)

	require.Len(t, docs, 1)
	doc := docs[0]
	assert.Equal(t, int64(1), doc.ID)

	require.Len(t, doc.Sessions, 1)
	session := doc.Sessions[0]
	assert.Equal(t, "mobile", session.Device)
	require.Len(t, session.Impressions, 2)

	first, second := session.Impressions[0], session.Impressions[1]
	assert.Equal(t, int64(100), first.ImpressionID)
	assert.False(t, first.Clicked)
	assert.Nil(t, first.ClickDetails)

	assert.Equal(t, int64(101), second.ImpressionID)
	assert.True(t, second.Clicked)
	require.NotNil(t, second.ClickDetails)
	assert.Equal(t, int64(500), second.ClickDetails.ClickID)
	assert.Equal(t, clickTime, second.ClickDetails.ClickTimestamp)
	assert.InDelta(t, 2.5, second.ClickDetails.AdRevenue, 0.0001)
}

func TestTransform_DeviceSplitsSessions(t *testing.T) {
	t.Helper()

	rows := []domain.EngagementRow{
		newRow(t, 1, 100, ts(t, "2024-01-01T10:00")),
		newRow(t, 1, 101, ts(t, "2024-01-01T14:00"), withDevice("desktop")),
	}

	docs := transformer.Transform(rows)

	require.Len(t, docs, 1)
	require.Len(t, docs[0].Sessions, 2)
	assert.Equal(t, "mobile", docs[0].Sessions[0].Device)
	assert.Equal(t, "desktop", docs[0].Sessions[1].Device)
}

func TestTransform_MidnightSplitsSessions(t *testing.T) {
	t.Helper()

	rows := []domain.EngagementRow{
		newRow(t, 1, 100, ts(t, "2024-01-01T23:55")),
		newRow(t, 1, 101, ts(t, "2024-01-02T00:05")),
	}

	docs := transformer.Transform(rows)

	require.Len(t, docs, 1)
	require.Len(t, docs[0].Sessions, 2)
}

func TestTransform_ResortsWithinSession(t *testing.T) {
	t.Helper()

	// Rows arrive out of timestamp order; bucketing must not trust it.
	rows := []domain.EngagementRow{
		newRow(t, 1, 102, ts(t, "2024-01-01T18:00")),
		newRow(t, 1, 100, ts(t, "2024-01-01T08:00")),
		newRow(t, 1, 101, ts(t, "2024-01-01T12:00")),
	}

	docs := transformer.Transform(rows)

	require.Len(t, docs, 1)
	require.Len(t, docs[0].Sessions, 1)
	session := docs[0].Sessions[0]

	require.Len(t, session.Impressions, 3)
	for i := 1; i < len(session.Impressions); i++ {
		prev, cur := session.Impressions[i-1], session.Impressions[i]
		assert.False(t, cur.Timestamp.Before(prev.Timestamp),
			"impressions must be non-decreasing by timestamp")
	}

	assert.Equal(t, ts(t, "2024-01-01T08:00"), session.StartTime)
	assert.Equal(t, ts(t, "2024-01-01T18:00"), session.EndTime)

	wantID := "session_" + strconv.FormatInt(session.StartTime.Unix(), 10)
	assert.Equal(t, wantID, session.SessionID)
}

func TestTransform_NoDuplicateUserDocuments(t *testing.T) {
	t.Helper()

	rows := []domain.EngagementRow{
		newRow(t, 2, 200, ts(t, "2024-02-01T09:00")),
		newRow(t, 1, 100, ts(t, "2024-01-01T10:00")),
		newRow(t, 2, 201, ts(t, "2024-02-01T10:00")),
		newRow(t, 1, 101, ts(t, "2024-01-01T11:00")),
	}

	docs := transformer.Transform(rows)

	require.Len(t, docs, 2)
	// Partition order follows first appearance in the input.
	assert.Equal(t, int64(2), docs[0].ID)
	assert.Equal(t, int64(1), docs[1].ID)
}

func TestTransform_Interests(t *testing.T) {
	t.Helper()

	tests := []struct {
		name string
		opts []rowOption
		want []string
	}{
		{"joined list", []rowOption{withInterests("sports,finance")}, []string{"sports", "finance"}},
		{"single", []rowOption{withInterests("sports")}, []string{"sports"}},
		{"absent", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []domain.EngagementRow{
				newRow(t, 1, 100, ts(t, "2024-01-01T10:00"), tt.opts...),
			}

			docs := transformer.Transform(rows)

			require.Len(t, docs, 1)
			assert.Equal(t, tt.want, docs[0].UserDetails.Interests)
		})
	}
}

func TestTransform_NullCoercions(t *testing.T) {
	t.Helper()

	row := newRow(t, 1, 100, ts(t, "2024-01-01T10:00"))
	row.Age = sql.NullInt64{}
	row.AdCost = sql.NullFloat64{}
	row.CampaignID = sql.NullInt64{}
	row.AdvertiserID = sql.NullInt64{}

	docs := transformer.Transform([]domain.EngagementRow{row})

	require.Len(t, docs, 1)
	doc := docs[0]
	assert.Nil(t, doc.UserDetails.Age)

	imp := doc.Sessions[0].Impressions[0]
	assert.Zero(t, imp.AdCost, "missing ad cost coerces to zero")
	assert.Nil(t, imp.CampaignDetails.CampaignID)
	assert.Nil(t, imp.CampaignDetails.AdvertiserID)
	assert.False(t, imp.Clicked)
	assert.Nil(t, imp.ClickDetails)
}

func TestTransform_DemographicsFromFirstRow(t *testing.T) {
	t.Helper()

	rows := []domain.EngagementRow{
		newRow(t, 1, 100, ts(t, "2024-01-01T10:00"), withInterests("music")),
		newRow(t, 1, 101, ts(t, "2024-01-01T11:00"), withInterests("ignored")),
	}

	docs := transformer.Transform(rows)

	require.Len(t, docs, 1)
	details := docs[0].UserDetails
	require.NotNil(t, details.Age)
	assert.Equal(t, int64(30), *details.Age)
	assert.Equal(t, "F", details.Gender)
	assert.Equal(t, "Kyiv", details.Location)
	assert.Equal(t, []string{"music"}, details.Interests)
}

func TestTransform_EmptyInput(t *testing.T) {
	t.Helper()

	docs := transformer.Transform(nil)
	assert.Empty(t, docs)
}
