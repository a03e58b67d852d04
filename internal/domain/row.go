package domain

import (
	"database/sql"
	"time"
)

// EngagementRow is one row of the joined extraction query: one impression,
// left-joined with its optional click. Left-joined columns are nullable.
type EngagementRow struct {
	UserID       int64          `db:"UserID"`
	Age          sql.NullInt64  `db:"Age"`
	Gender       sql.NullString `db:"Gender"`
	UserLocation sql.NullString `db:"UserLocation"`
	SignupDate   sql.NullTime   `db:"SignupDate"`
	Interests    sql.NullString `db:"Interests"`

	ImpressionID        int64           `db:"ImpressionID"`
	Device              sql.NullString  `db:"Device"`
	ImpressionLocation  sql.NullString  `db:"ImpressionLocation"`
	ImpressionTimestamp time.Time       `db:"ImpressionTimestamp"`
	AdCost              sql.NullFloat64 `db:"AdCost"`

	CampaignID       sql.NullInt64  `db:"CampaignID"`
	CampaignName     sql.NullString `db:"CampaignName"`
	CampaignCategory sql.NullString `db:"CampaignCategory"`
	AdvertiserID     sql.NullInt64  `db:"AdvertiserID"`
	AdvertiserName   sql.NullString `db:"AdvertiserName"`

	ClickID        sql.NullInt64   `db:"ClickID"`
	ClickTimestamp sql.NullTime    `db:"ClickTimestamp"`
	AdRevenue      sql.NullFloat64 `db:"AdRevenue"`
}

// Clicked reports whether a click row was joined to this impression.
// Presence is determined by the click id, not a boolean column.
func (r *EngagementRow) Clicked() bool {
	return r.ClickID.Valid
}
