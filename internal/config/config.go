package config

import (
	"fmt"

	"github.com/jonesrussell/admigrate/internal/logger"
)

// Default configuration values.
const (
	defaultServiceName = "admigrate"
	defaultVersion     = "0.1.0"

	defaultMySQLHost = "localhost"
	defaultMySQLPort = 3306
	defaultMySQLName = "my_ad_data"
	defaultMySQLUser = "me"

	defaultMongoHost       = "localhost"
	defaultMongoPort       = 27017
	defaultMongoName       = "ad_engagement_db"
	defaultMongoUser       = "root"
	defaultMongoCollection = "user_interactions"

	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "json"
)

// Config holds the application configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	MySQL   MySQLConfig   `yaml:"mysql"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Logging logger.Config `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Debug   bool   `env:"APP_DEBUG" yaml:"debug"`
}

// MySQLConfig holds the relational source configuration.
type MySQLConfig struct {
	Host     string `env:"DB_HOST"     yaml:"host"`
	Port     int    `env:"DB_PORT"     yaml:"port"`
	User     string `env:"DB_USER"     yaml:"user"`
	Password string `env:"DB_PASSWORD" yaml:"password"`
	Database string `env:"DB_DATABASE" yaml:"database"`
}

// DSN returns the MySQL connection string.
// parseTime is required so timestamp columns scan into time.Time.
func (m *MySQLConfig) DSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?parseTime=true",
		m.User, m.Password, m.Host, m.Port, m.Database,
	)
}

// MongoConfig holds the document sink configuration.
type MongoConfig struct {
	Host       string `env:"MONGO_HOST"     yaml:"host"`
	Port       int    `env:"MONGO_PORT"     yaml:"port"`
	User       string `env:"MONGO_USER"     yaml:"user"`
	Password   string `env:"MONGO_PASSWORD" yaml:"password"`
	Database   string `env:"MONGO_DB_NAME"  yaml:"database"`
	Collection string `yaml:"collection"`
}

// URI returns the MongoDB connection URI.
func (m *MongoConfig) URI() string {
	return fmt.Sprintf("mongodb://%s:%s@%s:%d/", m.User, m.Password, m.Host, m.Port)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setMySQLDefaults(&cfg.MySQL)
	setMongoDefaults(&cfg.Mongo)
	setLoggingDefaults(&cfg.Logging)
}

// setServiceDefaults applies default values to ServiceConfig.
func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
}

// setMySQLDefaults applies default values to MySQLConfig.
func setMySQLDefaults(db *MySQLConfig) {
	if db.Host == "" {
		db.Host = defaultMySQLHost
	}
	if db.Port == 0 {
		db.Port = defaultMySQLPort
	}
	if db.User == "" {
		db.User = defaultMySQLUser
	}
	if db.Database == "" {
		db.Database = defaultMySQLName
	}
}

// setMongoDefaults applies default values to MongoConfig.
func setMongoDefaults(db *MongoConfig) {
	if db.Host == "" {
		db.Host = defaultMongoHost
	}
	if db.Port == 0 {
		db.Port = defaultMongoPort
	}
	if db.User == "" {
		db.User = defaultMongoUser
	}
	if db.Database == "" {
		db.Database = defaultMongoName
	}
	if db.Collection == "" {
		db.Collection = defaultMongoCollection
	}
}

// setLoggingDefaults applies default values to the logging config.
func setLoggingDefaults(log *logger.Config) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validatePort("mysql.port", c.MySQL.Port); err != nil {
		return err
	}
	if err := validatePort("mongo.port", c.Mongo.Port); err != nil {
		return err
	}
	if err := validateRequired("mysql.password", c.MySQL.Password); err != nil {
		return err
	}
	return validateRequired("mongo.password", c.Mongo.Password)
}
