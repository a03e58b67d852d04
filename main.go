package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jonesrussell/admigrate/internal/config"
	"github.com/jonesrussell/admigrate/internal/extractor"
	"github.com/jonesrussell/admigrate/internal/loader"
	"github.com/jonesrussell/admigrate/internal/logger"
	"github.com/jonesrussell/admigrate/internal/transformer"

	_ "github.com/go-sql-driver/mysql"
)

// Database connection timeout.
const dbPingTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// Initialize logger
	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	// Connect to the relational source
	db, err := connectMySQL(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to MySQL", logger.Error(err))
		return 1
	}
	defer func() { _ = db.Close() }()

	// Connect to the document sink
	client, err := connectMongo(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to MongoDB", logger.Error(err))
		return 1
	}
	defer func() { _ = client.Disconnect(ctx) }()

	// Run migration
	return runMigration(ctx, cfg, log, db, client)
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

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}

// connectMySQL opens and verifies the relational source connection.
func connectMySQL(ctx context.Context, cfg *config.Config, log logger.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", cfg.MySQL.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	log.Info("MySQL connected",
		logger.String("host", cfg.MySQL.Host),
		logger.Int("port", cfg.MySQL.Port),
		logger.String("database", cfg.MySQL.Database),
	)

	return db, nil
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

// runMigration extracts the flat row set, regroups it into user documents,
// and replaces the target collection's contents.
func runMigration(
	ctx context.Context,
	cfg *config.Config,
	log logger.Logger,
	db *sqlx.DB,
	client *mongo.Client,
) int {
	started := time.Now()

	ext := extractor.New(db, log)
	rows, err := ext.Extract(ctx)
	if err != nil {
		log.Error("Extraction failed", logger.Error(err))
		return 1
	}
	if len(rows) == 0 {
		log.Warn("No engagement rows found, nothing to migrate")
		return 0
	}

	docs := transformer.Transform(rows)
	log.Info("Transformed rows into user documents",
		logger.Int("rows", len(rows)),
		logger.Int("documents", len(docs)),
	)

	coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	inserted, err := loader.New(coll, log).Replace(ctx, docs)
	if err != nil {
		log.Error("Load failed", logger.Error(err))
		return 1
	}

	log.Info("Migration completed",
		logger.Int("documents", inserted),
		logger.Duration("elapsed", time.Since(started)),
	)
	return 0
}
