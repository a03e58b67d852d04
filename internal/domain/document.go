// Package domain defines the flat extraction row and the nested per-user
// document written to the user_interactions collection.
//
// The bson field names are a compatibility surface: downstream readers of the
// collection depend on them, so they must not change.
package domain

import "time"

// UserDocument is one denormalized document per user.
type UserDocument struct {
	ID          int64       `bson:"_id"          json:"user_id"`
	UserDetails UserDetails `bson:"user_details" json:"user_details"`
	Sessions    []Session   `bson:"sessions"     json:"sessions"`
}

// UserDetails is the demographic snapshot taken from the user's first row.
type UserDetails struct {
	Age        *int64     `bson:"age"         json:"age"`
	Gender     string     `bson:"gender"      json:"gender"`
	Location   string     `bson:"location"    json:"location"`
	SignupDate *time.Time `bson:"signup_date" json:"signup_date"`
	Interests  []string   `bson:"interests"   json:"interests"`
}

// Session groups a user's impressions by (device, calendar day).
type Session struct {
	SessionID   string       `bson:"session_id"  json:"session_id"`
	StartTime   time.Time    `bson:"start_time"  json:"start_time"`
	EndTime     time.Time    `bson:"end_time"    json:"end_time"`
	Device      string       `bson:"device"      json:"device"`
	Impressions []Impression `bson:"impressions" json:"impressions"`
}

// Impression is one recorded ad display event inside a session.
type Impression struct {
	ImpressionID    int64           `bson:"impression_id"           json:"impression_id"`
	Timestamp       time.Time       `bson:"timestamp"               json:"timestamp"`
	CampaignDetails CampaignDetails `bson:"campaign_details"        json:"campaign_details"`
	AdCost          float64         `bson:"ad_cost"                 json:"ad_cost"`
	Clicked         bool            `bson:"clicked"                 json:"clicked"`
	ClickDetails    *ClickDetails   `bson:"click_details,omitempty" json:"click_details,omitempty"`
}

// CampaignDetails is the campaign snapshot embedded in each impression.
type CampaignDetails struct {
	CampaignID     *int64 `bson:"campaign_id"     json:"campaign_id"`
	CampaignName   string `bson:"campaign_name"   json:"campaign_name"`
	AdvertiserID   *int64 `bson:"advertiser_id"   json:"advertiser_id"`
	AdvertiserName string `bson:"advertiser_name" json:"advertiser_name"`
	Category       string `bson:"category"        json:"category"`
}

// ClickDetails is present only on clicked impressions.
type ClickDetails struct {
	ClickID        int64     `bson:"click_id"        json:"click_id"`
	ClickTimestamp time.Time `bson:"click_timestamp" json:"click_timestamp"`
	AdRevenue      float64   `bson:"ad_revenue"      json:"ad_revenue"`
}
