package helper

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection parameters for a Postgres database.
// All values are passed in explicitly, nothing is read from globals at use time.
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration creates a DatabaseConfiguration from environment
// variables. A .env file in the working directory is loaded if present.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	// A missing .env file is fine, envs may be set by the environment.
	_ = godotenv.Load()

	config := &DatabaseConfiguration{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		Database: os.Getenv("DB_DATABASE"),
		Username: os.Getenv("DB_USERNAME"),
		Password: os.Getenv("DB_PASSWORD"),
		Schema:   os.Getenv("DB_SCHEMA"),
		SSLMode:  os.Getenv("DB_SSLMODE"),
	}

	if config.Host == "" || config.Port == "" || config.Database == "" || config.Username == "" {
		return nil, fmt.Errorf("incomplete database configuration, DB_HOST, DB_PORT, DB_DATABASE and DB_USERNAME are required")
	}
	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config, nil
}

// ConnectionString builds the lib/pq connection string
func (c *DatabaseConfiguration) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s search_path=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.Schema, c.SSLMode,
	)
}

// Database wraps a sql.DB instance together with its logger
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens a connection to the configured Postgres database.
// It panics if the database is unreachable, a database is not optional
// for the handlers built on top of it.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	instance, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		logger.Error("Error opening database", slog.String("database", name), slog.Any("error", err))
		panic(err)
	}

	instance.SetMaxOpenConns(10)
	instance.SetMaxIdleConns(5)
	instance.SetConnMaxLifetime(time.Hour)

	err = instance.Ping()
	if err != nil {
		logger.Error("Error pinging database", slog.String("database", name), slog.Any("error", err))
		panic(err)
	}

	logger.Info("Connected to database", slog.String("database", name))

	return &Database{
		Name:     name,
		Instance: instance,
		Logger:   logger,
	}
}

// Close closes the underlying connection pool
func (d *Database) Close() error {
	if d.Instance != nil {
		return d.Instance.Close()
	}
	return nil
}
