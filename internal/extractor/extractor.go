// Package extractor reads the flat ad-engagement row set from MySQL.
package extractor

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/admigrate/internal/domain"
	"github.com/jonesrussell/admigrate/internal/logger"
)

// engagementQuery joins users, interests, impressions, campaigns, advertisers
// and clicks into one flat row per impression. Rows come back grouped by user
// and ordered by impression timestamp; the transformer re-sorts within each
// session anyway.
const engagementQuery = `
SELECT
    u.UserID, u.Age, u.Gender, u.Location AS UserLocation, u.SignupDate,
    GROUP_CONCAT(DISTINCT inte.InterestName SEPARATOR ',') AS Interests,
    imp.ImpressionID, imp.Device, imp.Location AS ImpressionLocation,
    imp.Timestamp AS ImpressionTimestamp, imp.AdCost,
    camp.CampaignID, camp.CampaignName, camp.TargetingCriteria AS CampaignCategory,
    adv.AdvertiserID, adv.AdvertiserName,
    c.ClickID, c.ClickTimestamp, c.AdRevenue
FROM
    Users u
LEFT JOIN UserInterests ui ON u.UserID = ui.UserID
LEFT JOIN Interests inte ON ui.InterestID = inte.InterestID
LEFT JOIN Impressions imp ON u.UserID = imp.UserID
LEFT JOIN Campaigns camp ON imp.CampaignID = camp.CampaignID
LEFT JOIN Advertisers adv ON camp.AdvertiserID = adv.AdvertiserID
LEFT JOIN Clicks c ON imp.ImpressionID = c.ImpressionID
WHERE
    imp.ImpressionID IS NOT NULL
GROUP BY
    u.UserID, imp.ImpressionID, c.ClickID
ORDER BY
    u.UserID, imp.Timestamp`

// Extractor reads engagement rows from the relational source.
type Extractor struct {
	db  *sqlx.DB
	log logger.Logger
}

// New creates an Extractor over the given database handle.
func New(db *sqlx.DB, log logger.Logger) *Extractor {
	return &Extractor{db: db, log: log}
}

// Extract runs the engagement query and materializes the full row set.
// One batch read; rows are transient and owned by the caller.
func (e *Extractor) Extract(ctx context.Context) ([]domain.EngagementRow, error) {
	var rows []domain.EngagementRow
	if err := e.db.SelectContext(ctx, &rows, engagementQuery); err != nil {
		return nil, fmt.Errorf("select engagement rows: %w", err)
	}

	e.log.Info("Extracted engagement rows",
		logger.Int("rows", len(rows)),
	)

	return rows, nil
}
