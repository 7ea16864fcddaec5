package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Amund211/ministats/internal/config"
)

const DB_NAME = "ministats"

const LOCAL_CONNECTION_STRING = "user=postgres password=postgres dbname=ministats sslmode=disable"

const MAIN_SCHEMA = "ministats"
const TESTING_SCHEMA = "ministats_test"

// Sized for one Cloud Run instance sharing a small Cloud SQL instance with the sync job
const (
	maxOpenConns    = 8
	maxIdleConns    = 4
	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = 30 * time.Minute
)

// GetSchemaName keeps non-production data out of the production schema
func GetSchemaName(isTesting bool) string {
	if isTesting {
		return TESTING_SCHEMA
	}
	return MAIN_SCHEMA
}

// quoteConnValue quotes a libpq key=value parameter so passwords may contain spaces and quotes
func quoteConnValue(value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return "'" + escaped + "'"
}

// https://cloud.google.com/sql/docs/postgres/connect-run
func GetCloudSQLConnectionString(dbUsername, dbPassword, unixSocketPath string) string {
	return strings.Join([]string{
		"user=" + quoteConnValue(dbUsername),
		"password=" + quoteConnValue(dbPassword),
		"dbname=" + DB_NAME,
		"host=" + quoteConnValue(unixSocketPath),
	}, " ")
}

func connectionStringFor(conf config.Config) string {
	if conf.IsDevelopment() {
		return LOCAL_CONNECTION_STRING
	}
	return GetCloudSQLConnectionString(conf.DBUsername(), conf.DBPassword(), conf.CloudSQLUnixSocketPath())
}

func NewPostgresDatabase(connectionString string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := createDatabaseIfNotExists(db, DB_NAME); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	return db, nil
}

// NewCloudsqlPostgresDatabase connects to the local database in development and Cloud SQL otherwise
func NewCloudsqlPostgresDatabase(conf config.Config) (*sqlx.DB, error) {
	db, err := NewPostgresDatabase(connectionStringFor(conf))
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres database (%s): %w", conf.Environment(), err)
	}
	return db, nil
}

func createDatabaseIfNotExists(db *sqlx.DB, dbName string) error {
	var exists bool
	err := db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", dbName)
	if err != nil {
		return fmt.Errorf("createDB: failed to check if database exists: %w", err)
	}
	if exists {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName)))
	if err != nil {
		return fmt.Errorf("createDB: failed to create database: %w", err)
	}

	return nil
}
