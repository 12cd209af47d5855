package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/yourusername/lab-ranker/internal/config"
)

// TestDatabaseEnv names the variables that point tests at a database.
// Tests that need one are skipped when LAB_RANKER_TEST_DB_HOST is unset.
const (
	envTestHost     = "LAB_RANKER_TEST_DB_HOST"
	envTestPort     = "LAB_RANKER_TEST_DB_PORT"
	envTestName     = "LAB_RANKER_TEST_DB_NAME"
	envTestUser     = "LAB_RANKER_TEST_DB_USER"
	envTestPassword = "LAB_RANKER_TEST_DB_PASSWORD"
)

// SetupTestDB connects to the test database and applies the schema
func SetupTestDB(t *testing.T) *DB {
	t.Helper()
	host := os.Getenv(envTestHost)
	if host == "" {
		t.Skipf("Integration test - set %s to run", envTestHost)
	}
	port, err := strconv.Atoi(getenv(envTestPort, "5432"))
	if err != nil {
		t.Fatalf("invalid %s: %v", envTestPort, err)
	}

	cfg := &config.DatabaseConfig{
		Enabled:        true,
		Host:           host,
		Port:           port,
		Name:           getenv(envTestName, "lab_ranker_test"),
		User:           getenv(envTestUser, "postgres"),
		Password:       os.Getenv(envTestPassword),
		SSLMode:        "disable",
		MaxConnections: 4,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	return db
}

// TeardownTestDB removes test rows and closes the connection
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.pool.Exec(ctx, "TRUNCATE analysis_runs CASCADE"); err != nil {
		t.Logf("warning: failed to clean test database: %v", err)
	}
	db.Close()
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
