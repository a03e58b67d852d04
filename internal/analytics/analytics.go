// Package analytics runs read-only aggregation queries against the loaded
// user_interactions collection.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jonesrussell/admigrate/internal/domain"
	"github.com/jonesrussell/admigrate/internal/logger"
)

// hourBucketTimezone fixes the time zone used for hourly click bucketing.
const hourBucketTimezone = "Europe/Kiev"

// Field paths into the nested document, shared across pipelines.
const (
	pathClicked      = "sessions.impressions.clicked"
	pathCampaignID   = "sessions.impressions.campaign_details.campaign_id"
	pathAdvertiserID = "sessions.impressions.campaign_details.advertiser_id"
	pathCategory     = "sessions.impressions.campaign_details.category"
	pathClickTime    = "sessions.impressions.click_details.click_timestamp"
)

// Runner executes the analytical queries. Each operation is independent:
// a failure in one does not affect the others.
type Runner struct {
	coll *mongo.Collection
	log  logger.Logger
}

// New creates a Runner over the given collection.
func New(coll *mongo.Collection, log logger.Logger) *Runner {
	return &Runner{coll: coll, log: log}
}

// UserSessions holds a user's most recently started sessions.
type UserSessions struct {
	UserID       int64            `bson:"user_id"         json:"user_id"`
	LastSessions []domain.Session `bson:"last_5_sessions" json:"last_5_sessions"`
}

// HourlyClicks is the click count for one campaign in one hour bucket.
type HourlyClicks struct {
	CampaignID *int64 `bson:"campaign_id" json:"campaign_id"`
	Hour       string `bson:"hour"        json:"hour"`
	Clicks     int64  `bson:"clicks"      json:"clicks"`
}

// FatiguePair is a (user, campaign) pair with repeated impressions and no
// clicks.
type FatiguePair struct {
	UserID      int64  `bson:"user_id"     json:"user_id"`
	CampaignID  *int64 `bson:"campaign_id" json:"campaign_id"`
	Impressions int64  `bson:"impressions" json:"impressions"`
}

// CategoryClicks is the click count for one ad category.
type CategoryClicks struct {
	Category string `bson:"category" json:"category"`
	Clicks   int64  `bson:"clicks"   json:"clicks"`
}

// UserHistory fetches one user's full interaction document by id.
// A missing user returns (nil, nil).
func (r *Runner) UserHistory(ctx context.Context, userID int64) (*domain.UserDocument, error) {
	var doc domain.UserDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", userID, err)
	}
	return &doc, nil
}

// LastSessions fetches a user's limit most recently started sessions.
func (r *Runner) LastSessions(ctx context.Context, userID int64, limit int) ([]UserSessions, error) {
	var results []UserSessions
	if err := r.aggregate(ctx, lastSessionsPipeline(userID, limit), &results); err != nil {
		return nil, fmt.Errorf("last sessions for user %d: %w", userID, err)
	}
	return results, nil
}

// lastSessionsPipeline unwinds a user's sessions, sorts them by start time
// descending and regroups the newest limit of them.
func lastSessionsPipeline(userID int64, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: userID}}}},
		{{Key: "$unwind", Value: "$sessions"}},
		{{Key: "$sort", Value: bson.D{{Key: "sessions.start_time", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$_id"},
			{Key: "last_5_sessions", Value: bson.D{{Key: "$push", Value: "$sessions"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "user_id", Value: "$_id"},
			{Key: "last_5_sessions", Value: "$last_5_sessions"},
		}}},
	}
}

// HourlyClicksByAdvertiser counts clicks per campaign per hour bucket over
// the advertiser's campaigns, for clicks at or after since. Hour buckets use
// a fixed time zone so the report reads the same regardless of where the job
// runs.
func (r *Runner) HourlyClicksByAdvertiser(
	ctx context.Context,
	advertiserID int64,
	since time.Time,
) ([]HourlyClicks, error) {
	var results []HourlyClicks
	if err := r.aggregate(ctx, hourlyClicksPipeline(advertiserID, since), &results); err != nil {
		return nil, fmt.Errorf("hourly clicks for advertiser %d: %w", advertiserID, err)
	}
	return results, nil
}

// hourlyClicksPipeline filters clicked impressions of one advertiser inside
// the window and groups click counts by (campaign, hour bucket).
func hourlyClicksPipeline(advertiserID int64, since time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$sessions"}},
		{{Key: "$unwind", Value: "$sessions.impressions"}},
		{{Key: "$match", Value: bson.D{
			{Key: pathClicked, Value: true},
			{Key: pathAdvertiserID, Value: advertiserID},
			{Key: pathClickTime, Value: bson.D{{Key: "$gte", Value: since}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "campaign_id", Value: "$" + pathCampaignID},
				{Key: "hour", Value: bson.D{{Key: "$dateToString", Value: bson.D{
					{Key: "format", Value: "%Y-%m-%d %H:00"},
					{Key: "date", Value: "$" + pathClickTime},
					{Key: "timezone", Value: hourBucketTimezone},
				}}}},
			}},
			{Key: "click_count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "_id.hour", Value: -1},
			{Key: "_id.campaign_id", Value: 1},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "campaign_id", Value: "$_id.campaign_id"},
			{Key: "hour", Value: "$_id.hour"},
			{Key: "clicks", Value: "$click_count"},
			{Key: "_id", Value: 0},
		}}},
	}
}

// AdFatigue finds (user, campaign) pairs with at least minImpressions
// impressions and zero clicks.
func (r *Runner) AdFatigue(ctx context.Context, minImpressions int) ([]FatiguePair, error) {
	var results []FatiguePair
	if err := r.aggregate(ctx, adFatiguePipeline(minImpressions), &results); err != nil {
		return nil, fmt.Errorf("ad fatigue detection: %w", err)
	}
	return results, nil
}

// adFatiguePipeline counts impressions and clicks per (user, campaign) pair
// and keeps pairs at or above the impression threshold with zero clicks.
func adFatiguePipeline(minImpressions int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$sessions"}},
		{{Key: "$unwind", Value: "$sessions.impressions"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "user_id", Value: "$_id"},
				{Key: "campaign_id", Value: "$" + pathCampaignID},
			}},
			{Key: "impression_count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "click_count", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{"$" + pathClicked, 1, 0}},
			}}}},
		}}},
		{{Key: "$match", Value: bson.D{
			{Key: "impression_count", Value: bson.D{{Key: "$gte", Value: minImpressions}}},
			{Key: "click_count", Value: 0},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "user_id", Value: "$_id.user_id"},
			{Key: "campaign_id", Value: "$_id.campaign_id"},
			{Key: "impressions", Value: "$impression_count"},
			{Key: "_id", Value: 0},
		}}},
	}
}

// TopCategories ranks a user's clicked ad categories by click count,
// returning the top limit entries.
func (r *Runner) TopCategories(ctx context.Context, userID int64, limit int) ([]CategoryClicks, error) {
	var results []CategoryClicks
	if err := r.aggregate(ctx, topCategoriesPipeline(userID, limit), &results); err != nil {
		return nil, fmt.Errorf("top categories for user %d: %w", userID, err)
	}
	return results, nil
}

// topCategoriesPipeline groups a user's clicked impressions by category and
// ranks categories by click count.
func topCategoriesPipeline(userID int64, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: userID}}}},
		{{Key: "$unwind", Value: "$sessions"}},
		{{Key: "$unwind", Value: "$sessions.impressions"}},
		{{Key: "$match", Value: bson.D{{Key: pathClicked, Value: true}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + pathCategory},
			{Key: "total_clicks", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total_clicks", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.D{
			{Key: "category", Value: "$_id"},
			{Key: "clicks", Value: "$total_clicks"},
			{Key: "_id", Value: 0},
		}}},
	}
}

// aggregate runs a pipeline and decodes all results into out.
// Cursor cleanup is handled by All.
func (r *Runner) aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	r.log.Debug("Running aggregation",
		logger.Int("stages", len(pipeline)),
	)

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}

	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode results: %w", err)
	}
	return nil
}
