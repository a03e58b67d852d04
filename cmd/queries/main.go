// Command queries runs the analytical queries against the migrated
// user_interactions collection and prints each result as indented JSON.
// The five operations are independent: a failure in one is reported and the
// rest still run.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jonesrussell/admigrate/internal/analytics"
	"github.com/jonesrussell/admigrate/internal/config"
	"github.com/jonesrussell/admigrate/internal/domain"
	"github.com/jonesrussell/admigrate/internal/logger"
)

// Exit codes for the queries command.
const (
	exitSuccess = 0
	exitFailure = 1
)

// Database connection timeout.
const dbPingTimeout = 5 * time.Second

// Default query parameters.
const (
	defaultUserID       = 713
	defaultAdvertiserID = 41
	sessionLimit        = 5
	fatigueThreshold    = 5
	topCategoryLimit    = 3

	// clickWindow is the trailing window for the hourly click report.
	clickWindow = 2 * 365 * 24 * time.Hour
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return exitFailure
	}
	defer func() { _ = log.Sync() }()
	log = log.With(logger.String("service", "queries"))

	ctx := context.Background()

	client, err := connectMongo(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to MongoDB", logger.Error(err))
		return exitFailure
	}
	defer func() { _ = client.Disconnect(ctx) }()

	coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	runner := analytics.New(coll, log)

	runAll(ctx, runner, log)
	return exitSuccess
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	configPath := config.GetConfigPath("config.yml")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// connectMongo opens and verifies the document store connection.
func connectMongo(ctx context.Context, cfg *config.Config, log logger.Logger) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI()))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()

	if pingErr := client.Ping(pingCtx, nil); pingErr != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", pingErr)
	}

	log.Info("MongoDB connected",
		logger.String("host", cfg.Mongo.Host),
		logger.Int("port", cfg.Mongo.Port),
		logger.String("database", cfg.Mongo.Database),
	)

	return client, nil
}

// runAll executes the five analytical queries in sequence, reporting each
// failure without aborting the rest.
func runAll(ctx context.Context, runner *analytics.Runner, log logger.Logger) {
	printHeader("1. Interaction history for user %d", defaultUserID)
	history, err := runner.UserHistory(ctx, defaultUserID)
	if err != nil {
		log.Error("User history query failed", logger.Error(err))
	} else {
		printJSON(history)
	}

	printHeader("2. Last %d sessions for user %d", sessionLimit, defaultUserID)
	sessions, err := runner.LastSessions(ctx, defaultUserID, sessionLimit)
	if err != nil {
		log.Error("Last sessions query failed", logger.Error(err))
	} else {
		printJSON(sessions)
	}

	printHeader("3. Hourly clicks for advertiser %d", defaultAdvertiserID)
	since := time.Now().Add(-clickWindow)
	hourly, err := runner.HourlyClicksByAdvertiser(ctx, defaultAdvertiserID, since)
	if err != nil {
		log.Error("Hourly clicks query failed", logger.Error(err))
	} else {
		printJSON(hourly)
	}

	printHeader("4. Ad fatigue detection (%d+ impressions, no clicks)", fatigueThreshold)
	fatigue, err := runner.AdFatigue(ctx, fatigueThreshold)
	if err != nil {
		log.Error("Ad fatigue query failed", logger.Error(err))
	} else {
		printJSON(fatigue)
	}

	printHeader("5. Top %d categories for user %d", topCategoryLimit, defaultUserID)
	categories, err := runner.TopCategories(ctx, defaultUserID, topCategoryLimit)
	if err != nil {
		log.Error("Top categories query failed", logger.Error(err))
	} else {
		printJSON(categories)
	}
}

// printHeader prints a section header for one query's output.
func printHeader(format string, args ...any) {
	fmt.Printf("\n--- "+format+" ---\n\n", args...)
}

// printJSON pretty-prints a query result to stdout.
func printJSON(v any) {
	if isEmpty(v) {
		fmt.Println("No data found.")
		return
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render result: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// isEmpty reports whether a result carries no data.
func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case *domain.UserDocument:
		return val == nil
	case []analytics.UserSessions:
		return len(val) == 0
	case []analytics.HourlyClicks:
		return len(val) == 0
	case []analytics.FatiguePair:
		return len(val) == 0
	case []analytics.CategoryClicks:
		return len(val) == 0
	default:
		return false
	}
}
