// active_doc.go
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

package docmanager

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/localnerve/jam-build-docsql/internal/database"
	"github.com/localnerve/jam-build-docsql/internal/session"
)

// ErrDocClosed is returned when a shut down document is used
var ErrDocClosed = errors.New("document is shut down")

// ActiveDoc is one open document file. It is created by Manager.Open and
// must not be reused once shut down.
type ActiveDoc struct {
	manager  *Manager
	baseName string
	path     string

	storage *database.DocStorage
	created bool
	closed  bool
}

// BaseName returns the name the document was opened with
func (d *ActiveDoc) BaseName() string {
	return d.baseName
}

// Path returns the document file path
func (d *ActiveDoc) Path() string {
	return d.path
}

// CreateEmpty creates the document file with its storage tables and the
// engine's empty document inside it. The file must not exist yet.
func (d *ActiveDoc) CreateEmpty(ctx context.Context, sess *session.Session) error {
	if d.closed {
		return fmt.Errorf("%w: %s", ErrDocClosed, d.baseName)
	}

	if _, err := os.Stat(d.path); err == nil {
		return fmt.Errorf("%w: %s", ErrDocExists, d.path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", d.path, err)
	}

	storage, err := d.manager.storage.CreateStorage(ctx, d.path)
	if err != nil {
		return fmt.Errorf("creating storage for %s: %w", d.baseName, err)
	}
	d.storage = storage

	if err := d.manager.engine.CreateEmptyDoc(ctx, sess, storage.DB()); err != nil {
		return fmt.Errorf("creating empty document %s: %w", d.baseName, err)
	}
	d.created = true

	log.Printf("Created document %s at %s", d.baseName, d.path)
	return nil
}

// AddDefaultTable has the engine add its default table. CreateEmpty must
// have succeeded first.
func (d *ActiveDoc) AddDefaultTable(ctx context.Context, sess *session.Session) error {
	if err := d.ready(); err != nil {
		return err
	}

	if err := d.manager.engine.AddInitialTable(ctx, sess, d.storage.DB()); err != nil {
		return fmt.Errorf("adding default table to %s: %w", d.baseName, err)
	}
	return nil
}

// All runs a read statement against the document's storage
func (d *ActiveDoc) All(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	return d.storage.All(ctx, query, args...)
}

// Exec runs a write statement against the document's storage
func (d *ActiveDoc) Exec(ctx context.Context, stmt string, args ...any) error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.storage.Exec(ctx, stmt, args...)
}

// TableNames lists the tables in the document's storage
func (d *ActiveDoc) TableNames(ctx context.Context) ([]string, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	return d.storage.TableNames(ctx)
}

// IsInternalTable reports whether name is one of the storage layer's tables
func (d *ActiveDoc) IsInternalTable(name string) bool {
	return d.manager.storage.InternalTables()(name)
}

// Shutdown closes the storage connection, if one was opened, and detaches
// the document from its manager. Calling it again is a no-op.
func (d *ActiveDoc) Shutdown(ctx context.Context) error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.manager.release(d)

	if d.storage == nil {
		return nil
	}
	if err := d.storage.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", d.baseName, err)
	}
	return nil
}

func (d *ActiveDoc) ready() error {
	switch {
	case d.closed:
		return fmt.Errorf("%w: %s", ErrDocClosed, d.baseName)
	case !d.created:
		return fmt.Errorf("%w: %s", ErrNotCreated, d.baseName)
	}
	return nil
}
