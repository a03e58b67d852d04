// Package transformer regroups flat engagement rows into nested per-user
// documents with embedded sessions and impressions.
package transformer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonesrussell/admigrate/internal/domain"
)

// sessionKey buckets impressions by device and calendar day. A user active on
// the same device across midnight gets two sessions; distinct devices on the
// same day stay separate.
type sessionKey struct {
	device string
	day    string
}

// userAccumulator collects one user's impressions grouped by session key,
// preserving first-seen key order so output is deterministic for a given
// input order.
type userAccumulator struct {
	userID   int64
	details  domain.UserDetails
	keyOrder []sessionKey
	buckets  map[sessionKey][]domain.Impression
}

// Transform converts the flat row set into one document per user.
//
// Rows are partitioned by user id; demographics come from the user's first
// row. Impressions are bucketed by (device, calendar day) and re-sorted by
// timestamp within each bucket, so the result does not depend on the
// extractor's row ordering for per-session correctness.
func Transform(rows []domain.EngagementRow) []domain.UserDocument {
	userOrder := make([]int64, 0)
	users := make(map[int64]*userAccumulator)

	for i := range rows {
		row := &rows[i]

		acc, ok := users[row.UserID]
		if !ok {
			acc = &userAccumulator{
				userID:  row.UserID,
				details: userDetails(row),
				buckets: make(map[sessionKey][]domain.Impression),
			}
			users[row.UserID] = acc
			userOrder = append(userOrder, row.UserID)
		}

		key := sessionKey{
			device: row.Device.String,
			day:    row.ImpressionTimestamp.Format(time.DateOnly),
		}
		if _, seen := acc.buckets[key]; !seen {
			acc.keyOrder = append(acc.keyOrder, key)
		}
		acc.buckets[key] = append(acc.buckets[key], impression(row))
	}

	docs := make([]domain.UserDocument, 0, len(userOrder))
	for _, userID := range userOrder {
		docs = append(docs, buildDocument(users[userID]))
	}

	return docs
}

// buildDocument assembles one user document, sorting each session bucket and
// deriving session bounds from the sorted extremes.
func buildDocument(acc *userAccumulator) domain.UserDocument {
	sessions := make([]domain.Session, 0, len(acc.keyOrder))

	for _, key := range acc.keyOrder {
		impressions := acc.buckets[key]
		sort.SliceStable(impressions, func(i, j int) bool {
			return impressions[i].Timestamp.Before(impressions[j].Timestamp)
		})

		start := impressions[0].Timestamp
		end := impressions[len(impressions)-1].Timestamp

		sessions = append(sessions, domain.Session{
			SessionID:   sessionID(start),
			StartTime:   start,
			EndTime:     end,
			Device:      key.device,
			Impressions: impressions,
		})
	}

	return domain.UserDocument{
		ID:          acc.userID,
		UserDetails: acc.details,
		Sessions:    sessions,
	}
}

// sessionID derives a display identifier from the session's earliest
// impression timestamp. Uniqueness across users or devices is not guaranteed
// and not required.
func sessionID(start time.Time) string {
	return fmt.Sprintf("session_%d", start.Unix())
}

// userDetails takes the demographic snapshot from a user's first row. All
// rows of a user carry identical demographic values by construction of the
// source join.
func userDetails(row *domain.EngagementRow) domain.UserDetails {
	details := domain.UserDetails{
		Gender:    row.Gender.String,
		Location:  row.UserLocation.String,
		Interests: splitInterests(row.Interests.String),
	}
	if row.Age.Valid {
		age := row.Age.Int64
		details.Age = &age
	}
	if row.SignupDate.Valid {
		signup := row.SignupDate.Time
		details.SignupDate = &signup
	}
	return details
}

// splitInterests splits the GROUP_CONCAT interest list. An absent or empty
// list yields an empty slice, never nil, so the field serializes as [].
func splitInterests(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ",")
}

// impression builds one impression sub-document from a row, deriving the
// clicked flag from click-column presence.
func impression(row *domain.EngagementRow) domain.Impression {
	imp := domain.Impression{
		ImpressionID:    row.ImpressionID,
		Timestamp:       row.ImpressionTimestamp,
		CampaignDetails: campaignDetails(row),
		AdCost:          row.AdCost.Float64,
		Clicked:         row.Clicked(),
	}
	if imp.Clicked {
		imp.ClickDetails = &domain.ClickDetails{
			ClickID:        row.ClickID.Int64,
			ClickTimestamp: row.ClickTimestamp.Time,
			AdRevenue:      row.AdRevenue.Float64,
		}
	}
	return imp
}

// campaignDetails builds the embedded campaign snapshot. Ids stay null when
// the campaign or advertiser side of the join was absent.
func campaignDetails(row *domain.EngagementRow) domain.CampaignDetails {
	details := domain.CampaignDetails{
		CampaignName:   row.CampaignName.String,
		AdvertiserName: row.AdvertiserName.String,
		Category:       row.CampaignCategory.String,
	}
	if row.CampaignID.Valid {
		id := row.CampaignID.Int64
		details.CampaignID = &id
	}
	if row.AdvertiserID.Valid {
		id := row.AdvertiserID.Int64
		details.AdvertiserID = &id
	}
	return details
}
