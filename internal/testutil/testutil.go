// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/localnerve/jam-build-docsql/internal/config"
	"github.com/localnerve/jam-build-docsql/internal/database"
)

// Config returns a configuration with the built-in defaults, a quiet SQL
// logger and the pure Go driver, independent of the environment
func Config() *config.Config {
	return &config.Config{
		DBType:              config.DBTypeSQLite,
		DocExtension:        ".docdb",
		InternalTablePrefix: "_docsys_",
		LogLevel:            "silent",
		DumpMode:            config.DumpModeNative,
		SQLiteBinary:        "sqlite3",
		OutputFormat:        config.FormatGo,
		OutputPackage:       "initialdoc",
		ConstPrefix:         "Initial",
		MaxLineLength:       120,
	}
}

// NewStorageManager creates a storage manager rooted in a fresh temp directory
func NewStorageManager(t *testing.T, cfg *config.Config) *database.StorageManager {
	t.Helper()
	m, err := database.NewStorageManager(cfg, t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage manager: %v", err)
	}
	return m
}

// CreateStorage creates a new document file named baseName and closes it when the test ends
func CreateStorage(t *testing.T, m *database.StorageManager, baseName string) *database.DocStorage {
	t.Helper()
	s, err := m.CreateStorage(context.Background(), m.GetPath(baseName))
	if err != nil {
		t.Fatalf("Failed to create storage %s: %v", baseName, err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("Failed to close storage %s: %v", baseName, err)
		}
	})
	return s
}

// OpenMemory opens an empty in-memory database wrapped as storage, for replaying SQL
func OpenMemory(t *testing.T, cfg *config.Config) *database.DocStorage {
	t.Helper()
	db, err := database.Open(cfg, database.MemoryPath)
	if err != nil {
		t.Fatalf("Failed to open memory database: %v", err)
	}
	s := database.WrapStorage(db, database.MemoryPath, database.PrefixPredicate(cfg.InternalTablePrefix))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Exec runs statements against s, failing the test on error
func Exec(t *testing.T, s *database.DocStorage, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		if err := s.Exec(context.Background(), stmt); err != nil {
			t.Fatalf("Failed to exec %q: %v", stmt, err)
		}
	}
}

// Schema returns name -> CREATE statement for every non sqlite_* table in s
func Schema(t *testing.T, s *database.DocStorage) map[string]string {
	t.Helper()
	rows, err := s.All(context.Background(),
		`SELECT name, sql FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'`)
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}
	schema := make(map[string]string, len(rows))
	for _, row := range rows {
		schema[row["name"].(string)] = row["sql"].(string)
	}
	return schema
}
