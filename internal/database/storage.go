// storage.go
//
// Canonical SQL snapshot generator for jam-build documents
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-build-docsql.
// jam-build-docsql is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-build-docsql is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-build-docsql.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package database

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/localnerve/jam-build-docsql/data"
	"github.com/localnerve/jam-build-docsql/internal/config"
	"gorm.io/gorm"
)

// TablePredicate reports whether a table belongs to the storage layer rather
// than to the document's data model
type TablePredicate func(name string) bool

// PrefixPredicate matches tables whose name starts with prefix. The match is
// literal; '_' is not a wildcard as it would be in a LIKE pattern.
func PrefixPredicate(prefix string) TablePredicate {
	return func(name string) bool {
		return strings.HasPrefix(name, prefix)
	}
}

// StorageManager resolves document paths under one docs root and creates
// the storage for new documents
type StorageManager struct {
	cfg      *config.Config
	docsRoot string
}

// NewStorageManager creates a storage manager rooted at docsRoot. A relative
// root is resolved against the working directory once, here.
func NewStorageManager(cfg *config.Config, docsRoot string) (*StorageManager, error) {
	root, err := filepath.Abs(docsRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving docs root %q: %w", docsRoot, err)
	}
	return &StorageManager{cfg: cfg, docsRoot: root}, nil
}

// DocsRoot returns the absolute directory documents live in
func (m *StorageManager) DocsRoot() string {
	return m.docsRoot
}

// GetPath returns the file path for the document named baseName
func (m *StorageManager) GetPath(baseName string) string {
	name := strings.TrimSuffix(baseName, m.cfg.DocExtension) + m.cfg.DocExtension
	return filepath.Join(m.docsRoot, name)
}

// InternalTables returns the predicate identifying bookkeeping tables
func (m *StorageManager) InternalTables() TablePredicate {
	return PrefixPredicate(m.cfg.InternalTablePrefix)
}

// CreateStorage opens a new document file at path and lays down the
// storage layer's bookkeeping tables
func (m *StorageManager) CreateStorage(ctx context.Context, path string) (*DocStorage, error) {
	db, err := Open(m.cfg, path)
	if err != nil {
		return nil, err
	}

	s := WrapStorage(db, path, m.InternalTables())

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(data.InitdbSQLiteDocsys).Error; err != nil {
			return fmt.Errorf("creating storage tables: %w", err)
		}
		if err := tx.Exec(data.InitdbSQLiteDocsysRows).Error; err != nil {
			return fmt.Errorf("seeding storage tables: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// DocStorage is the open storage connection of one document file
type DocStorage struct {
	db       *gorm.DB
	path     string
	internal TablePredicate
	closed   bool
}

// WrapStorage adopts an already open connection
func WrapStorage(db *gorm.DB, path string, internal TablePredicate) *DocStorage {
	return &DocStorage{db: db, path: path, internal: internal}
}

// DB returns the gorm handle for the document file
func (s *DocStorage) DB() *gorm.DB {
	return s.db
}

// Path returns the document file path
func (s *DocStorage) Path() string {
	return s.path
}

// IsInternalTable reports whether name is a storage bookkeeping table
func (s *DocStorage) IsInternalTable(name string) bool {
	return s.internal(name)
}

// All runs a read statement and returns every row keyed by column name
func (s *DocStorage) All(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, column := range columns {
			// Drivers may reuse byte buffers between rows
			if b, ok := values[i].([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
			row[column] = values[i]
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// Exec runs a write statement
func (s *DocStorage) Exec(ctx context.Context, stmt string, args ...any) error {
	return s.db.WithContext(ctx).Exec(stmt, args...).Error
}

// TableNames lists the tables in the file, leaving out SQLite's own sqlite_* tables
func (s *DocStorage) TableNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Raw(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\' ORDER BY name`).
		Scan(&names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Close closes the connection. Calling it again is a no-op.
func (s *DocStorage) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return Close(s.db)
}
