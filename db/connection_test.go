package db

import (
	"path/filepath"
	"testing"
)

// TestNewSQLiteConnectionEnablesWAL verifies the WAL pragma sticks.
func TestNewSQLiteConnectionEnablesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.db")

	conn, err := NewSQLiteConnectionWithDefaults(path)
	if err != nil {
		t.Fatalf("failed to open connection: %v", err)
	}
	defer conn.Close()

	var mode string
	if err := conn.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("expected wal journal mode, got %s", mode)
	}
}

// TestNewSQLiteConnectionEmptyPath verifies the path is required.
func TestNewSQLiteConnectionEmptyPath(t *testing.T) {
	if _, err := NewSQLiteConnection(ConnectionConfig{}); err == nil {
		t.Error("expected error for empty path")
	}
}

// TestNewDatabaseCreatesParentDirs verifies missing directories are created.
func TestNewDatabaseCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "test.db")

	database, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer database.Close()

	if err := database.Ping(); err != nil {
		t.Errorf("ping failed: %v", err)
	}
}

// TestDatabaseCloseIsIdempotent verifies double-close is safe.
func TestDatabaseCloseIsIdempotent(t *testing.T) {
	database, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Close(); err != nil {
		t.Fatal(err)
	}
	if err := database.Close(); err != nil {
		t.Errorf("second close returned error: %v", err)
	}
	if err := database.Ping(); err == nil {
		t.Error("expected ping to fail after close")
	}
}
