// manager.go
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

// Package docmanager creates, tracks and shuts down open documents.
package docmanager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/localnerve/jam-build-docsql/internal/database"
	"github.com/localnerve/jam-build-docsql/internal/plugins"
	"github.com/localnerve/jam-build-docsql/internal/session"
	"gorm.io/gorm"
)

var (
	// ErrMissingDependency is returned when a manager is built without one of its collaborators
	ErrMissingDependency = errors.New("document manager dependency missing")
	// ErrDocAlreadyOpen is returned when a base name already has an open document
	ErrDocAlreadyOpen = errors.New("document is already open")
	// ErrDocExists is returned when a new document would overwrite an existing file
	ErrDocExists = errors.New("document file already exists")
	// ErrNotCreated is returned when a document operation needs a created document
	ErrNotCreated = errors.New("document has not been created")
)

// Engine is the document engine's creation surface
type Engine interface {
	CreateEmptyDoc(ctx context.Context, sess *session.Session, db *gorm.DB) error
	AddInitialTable(ctx context.Context, sess *session.Session, db *gorm.DB) error
}

// Manager owns the documents opened through it until they are shut down
type Manager struct {
	storage *database.StorageManager
	plugins *plugins.Manager
	engine  Engine

	mu   sync.Mutex
	docs map[string]*ActiveDoc
}

// NewManager creates a document manager. Every dependency is required.
func NewManager(storage *database.StorageManager, pluginManager *plugins.Manager, engine Engine) (*Manager, error) {
	switch {
	case storage == nil:
		return nil, fmt.Errorf("%w: storage manager", ErrMissingDependency)
	case pluginManager == nil:
		return nil, fmt.Errorf("%w: plugin manager", ErrMissingDependency)
	case engine == nil:
		return nil, fmt.Errorf("%w: document engine", ErrMissingDependency)
	}

	return &Manager{
		storage: storage,
		plugins: pluginManager,
		engine:  engine,
		docs:    make(map[string]*ActiveDoc),
	}, nil
}

// Plugins returns the plugin registry documents are opened with
func (m *Manager) Plugins() *plugins.Manager {
	return m.plugins
}

// Open allocates a document bound to baseName's path. Nothing is written to
// disk until CreateEmpty.
func (m *Manager) Open(baseName string) (*ActiveDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[baseName]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDocAlreadyOpen, baseName)
	}

	doc := &ActiveDoc{
		manager:  m,
		baseName: baseName,
		path:     m.storage.GetPath(baseName),
	}
	m.docs[baseName] = doc

	return doc, nil
}

// OpenDocs returns the base names of the documents still open
func (m *Manager) OpenDocs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.docs))
	for name := range m.docs {
		names = append(names, name)
	}
	return names
}

// ShutdownAll shuts down every document still open. Documents already shut
// down are skipped, and calling it again is a no-op.
func (m *Manager) ShutdownAll(ctx context.Context) error {
	m.mu.Lock()
	docs := make([]*ActiveDoc, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, doc)
	}
	m.mu.Unlock()

	var errs []error
	for _, doc := range docs {
		if err := doc.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) release(doc *ActiveDoc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.docs[doc.baseName] == doc {
		delete(m.docs, doc.baseName)
	}
}
