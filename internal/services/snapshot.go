// snapshot.go
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

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/localnerve/jam-build-docsql/internal/database"
	"github.com/localnerve/jam-build-docsql/internal/types"
)

// SnapshotSource is an open, finished document the extractor can filter and dump
type SnapshotSource interface {
	database.Dumpable
	TableNames(ctx context.Context) ([]string, error)
	IsInternalTable(name string) bool
	Exec(ctx context.Context, stmt string, args ...any) error
}

// ErrDumpFailed marks an extraction that failed while exporting, after the
// internal tables were dropped
var ErrDumpFailed = errors.New("dumping document")

// Extractor turns a finished document into its snapshot text
type Extractor struct {
	Dumper database.Dumper
}

// NewExtractor creates an extractor that exports through dumper
func NewExtractor(dumper database.Dumper) *Extractor {
	return &Extractor{Dumper: dumper}
}

// Extract drops the storage bookkeeping tables from src and dumps what is
// left. src is modified; it is expected to be a scratch document. Export
// failures wrap ErrDumpFailed, anything else failed in storage.
func (e *Extractor) Extract(ctx context.Context, src SnapshotSource) (string, error) {
	if err := e.DropInternalTables(ctx, src); err != nil {
		return "", err
	}
	return e.Dump(ctx, src)
}

// Dump exports src as trimmed SQL text
func (e *Extractor) Dump(ctx context.Context, src database.Dumpable) (string, error) {
	out, err := e.Dumper.Dump(ctx, src)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrDumpFailed, src.Path(), err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w %s: %w", ErrDumpFailed, src.Path(), types.ErrEmptyDump)
	}

	return out, nil
}

// DropInternalTables drops every table the storage predicate marks as
// internal. Drops refused by a foreign key are retried once the referencing
// tables are gone; a round that drops nothing ends with ErrDropFixedPoint.
func (e *Extractor) DropInternalTables(ctx context.Context, src SnapshotSource) error {
	names, err := src.TableNames(ctx)
	if err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}

	var pending []string
	for _, name := range names {
		if src.IsInternalTable(name) {
			pending = append(pending, name)
		}
	}
	sort.Strings(pending)

	for round := 1; len(pending) > 0; round++ {
		var remaining []string
		var lastErr error

		for _, name := range pending {
			if err := src.Exec(ctx, "DROP TABLE "+database.QuoteIdentifier(name)); err != nil {
				remaining = append(remaining, name)
				lastErr = err
			}
		}

		if len(remaining) == len(pending) {
			return fmt.Errorf("%w: %s: %v", types.ErrDropFixedPoint, strings.Join(remaining, ", "), lastErr)
		}
		if len(remaining) > 0 {
			log.Printf("Drop round %d left %d internal tables, retrying", round, len(remaining))
		}
		pending = remaining
	}

	return nil
}
