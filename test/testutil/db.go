package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/hearthlabs/hearth/internal/config"
	"github.com/hearthlabs/hearth/internal/db"
)

// TestEmbeddingDim keeps integration fixtures small; the schema token makes
// the real dimensionality a config concern, not a schema constant.
const TestEmbeddingDim = 4

func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "hearth",
		Password: "hearth_pass",
		DBName:   "hearth_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn, TestEmbeddingDim); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}

func TruncateTables(t *testing.T, conn *sql.DB, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := conn.Exec("TRUNCATE TABLE " + table); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}
