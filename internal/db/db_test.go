package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/helpdevoir/hdq/internal/storage"
)

// Helper to create a test database
func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "quota.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestNew_CreatesNestedFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "helpdevoir", "hdq", "quota.db")

	database, err := New(dbPath)
	if err != nil {
		t.Fatalf("New(%q): %v", dbPath, err)
	}
	defer database.Close()

	if database.Path() != dbPath {
		t.Errorf("Path() = %s, want %s", database.Path(), dbPath)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file missing: %v", err)
	}
}

func TestConfigure_WAL(t *testing.T) {
	database := newTestDB(t)

	var mode string
	if err := database.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestSchema_KVColumns(t *testing.T) {
	database := newTestDB(t)

	rows, err := database.QueryContext(context.Background(), "SELECT name FROM pragma_table_info('kv_store')")
	if err != nil {
		t.Fatalf("table_info: %v", err)
	}
	defer rows.Close()

	got := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatal(err)
		}
		got[name] = true
	}
	for _, col := range []string{"key", "version", "value", "updated_at"} {
		if !got[col] {
			t.Errorf("kv_store is missing column %q", col)
		}
	}
}

func TestVacuum_AfterDelete(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	if err := database.Save(ctx, "usage", storage.Envelope{Version: 1, Data: []byte(`[]`)}); err != nil {
		t.Fatal(err)
	}
	if err := database.Delete(ctx, "usage"); err != nil {
		t.Fatal(err)
	}
	if err := database.Vacuum(); err != nil {
		t.Errorf("Vacuum failed: %v", err)
	}
}

func TestClose(t *testing.T) {
	database, err := New(filepath.Join(t.TempDir(), "quota.db"))
	if err != nil {
		t.Fatal(err)
	}

	if err := database.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if _, err := database.QueryContext(context.Background(), "SELECT 1"); err == nil {
		t.Error("Expected error querying closed database")
	}
}
