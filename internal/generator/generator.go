// generator.go
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

// Package generator runs the document creation pipeline once per variant and
// writes the resulting snapshots.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/localnerve/jam-build-docsql/internal/config"
	"github.com/localnerve/jam-build-docsql/internal/database"
	"github.com/localnerve/jam-build-docsql/internal/docmanager"
	"github.com/localnerve/jam-build-docsql/internal/plugins"
	"github.com/localnerve/jam-build-docsql/internal/render"
	"github.com/localnerve/jam-build-docsql/internal/services"
	"github.com/localnerve/jam-build-docsql/internal/session"
	"github.com/localnerve/jam-build-docsql/internal/types"
)

// SessionName names the system session every scratch document is built with
const SessionName = "nascent"

// Generator builds the snapshot of every variant. Runs must not overlap for
// the same docs root and base name.
type Generator struct {
	Config    *config.Config
	Plugins   *plugins.Manager
	Engine    docmanager.Engine
	Extractor *services.Extractor
	Renderer  render.Renderer
}

// New creates a generator from configuration, with the document engine, the
// configured dumper and renderer, and the plugins found in the plugin dirs
func New(cfg *config.Config) (*Generator, error) {
	dumper, err := database.NewDumper(cfg)
	if err != nil {
		return nil, err
	}

	renderer, err := render.New(cfg)
	if err != nil {
		return nil, err
	}

	pluginManager := plugins.NewManager(cfg.PluginDirs...)
	if err := pluginManager.Initialize(); err != nil {
		return nil, fmt.Errorf("loading plugins: %w", err)
	}

	return &Generator{
		Config:    cfg,
		Plugins:   pluginManager,
		Engine:    services.NewDocEngine(),
		Extractor: services.NewExtractor(dumper),
		Renderer:  renderer,
	}, nil
}

// Generate writes the header and then each variant's snapshot to w, in
// variant order. A variant is written as soon as it is extracted; the first
// failure stops the run.
func (g *Generator) Generate(ctx context.Context, baseName string, w io.Writer) error {
	if err := g.Renderer.Header(w); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, v := range types.Variants() {
		sql, err := g.Snapshot(ctx, baseName, v)
		if err != nil {
			return err
		}

		if err := g.Renderer.Snapshot(w, v, sql); err != nil {
			return types.NewPipelineError(v, types.StageEmitting, types.KindFilesystem, err)
		}
		log.Printf("Emitted %s snapshot (%d bytes)", v, len(sql))
	}

	return nil
}

// Snapshot builds v in a scratch document and returns its SQL text
func (g *Generator) Snapshot(ctx context.Context, baseName string, v types.Variant) (string, error) {
	var sql string

	err := g.withDocument(ctx, baseName, v, func(doc *docmanager.ActiveDoc) error {
		out, err := g.Extractor.Extract(ctx, doc)
		if err != nil {
			kind := types.KindStorage
			if errors.Is(err, services.ErrDumpFailed) {
				kind = types.KindExport
			}
			return types.NewPipelineError(v, types.StageExtracting, kind, err)
		}

		sql = out
		return nil
	})

	return sql, err
}

// TableInfo is one table of an inspected document
type TableInfo struct {
	Name string `json:"name"`
	SQL  string `json:"sql"`
}

// Inspection lists the tables of a variant's document before extraction,
// split the way the extractor splits them
type Inspection struct {
	Variant  types.Variant `json:"variant"`
	Logical  []TableInfo   `json:"logical"`
	Internal []TableInfo   `json:"internal"`
}

// Inspect builds v in a scratch document and reports its tables
func (g *Generator) Inspect(ctx context.Context, baseName string, v types.Variant) (*Inspection, error) {
	result := &Inspection{Variant: v}

	err := g.withDocument(ctx, baseName, v, func(doc *docmanager.ActiveDoc) error {
		rows, err := doc.All(ctx,
			`SELECT name, sql FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\' ORDER BY name`)
		if err != nil {
			return types.NewPipelineError(v, types.StageExtracting, types.KindStorage, err)
		}

		for _, row := range rows {
			name, _ := row["name"].(string)
			sql, _ := row["sql"].(string)
			table := TableInfo{Name: name, SQL: sql}
			if doc.IsInternalTable(name) {
				result.Internal = append(result.Internal, table)
			} else {
				result.Logical = append(result.Logical, table)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// withDocument runs a variant's pipeline up to the point its document is
// complete, hands the document to fn, and then shuts it down. The scratch
// file is removed afterwards whatever the outcome.
func (g *Generator) withDocument(ctx context.Context, baseName string, v types.Variant, fn func(*docmanager.ActiveDoc) error) (err error) {
	// Clearing
	root := g.Config.DocsRoot
	if root == "" {
		dir, err := os.MkdirTemp("", "docsql-"+strings.ToLower(v.String())+"-")
		if err != nil {
			return types.NewPipelineError(v, types.StageClearing, types.KindFilesystem, err)
		}
		defer removeScratch(dir, os.RemoveAll)
		root = dir
	}

	storage, err := database.NewStorageManager(g.Config, root)
	if err != nil {
		return types.NewPipelineError(v, types.StageClearing, types.KindFilesystem, err)
	}

	path := storage.GetPath(baseName)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return types.NewPipelineError(v, types.StageClearing, types.KindFilesystem, err)
	}
	defer removeScratch(path, os.Remove)

	// Opening
	manager, err := docmanager.NewManager(storage, g.Plugins, g.Engine)
	if err != nil {
		return types.NewPipelineError(v, types.StageOpening, types.KindEngine, err)
	}
	defer func() {
		if open := manager.OpenDocs(); len(open) > 0 {
			log.Printf("Shutting down documents of %s left open: %v", v, open)
		}
		closeErr := manager.ShutdownAll(ctx)
		if err == nil {
			err = types.NewPipelineError(v, types.StageClosing, types.KindStorage, closeErr)
		} else if closeErr != nil {
			log.Printf("Failed to shut down documents of %s: %v", v, closeErr)
		}
	}()

	doc, err := manager.Open(baseName)
	if err != nil {
		return types.NewPipelineError(v, types.StageOpening, types.KindEngine, err)
	}
	defer func() {
		closeErr := doc.Shutdown(ctx)
		if err == nil {
			err = types.NewPipelineError(v, types.StageClosing, types.KindStorage, closeErr)
		} else if closeErr != nil {
			log.Printf("Failed to shut down %s document: %v", v, closeErr)
		}
	}()

	sess := session.MakeExceptional(SessionName)

	// Creating
	log.Printf("Creating %s document at %s", v, doc.Path())
	if err := doc.CreateEmpty(ctx, sess); err != nil {
		kind := types.KindEngine
		if errors.Is(err, docmanager.ErrDocExists) {
			kind = types.KindFilesystem
		}
		return types.NewPipelineError(v, types.StageCreating, kind, err)
	}

	// Seeding
	if v.SeedsTable() {
		if err := doc.AddDefaultTable(ctx, sess); err != nil {
			return types.NewPipelineError(v, types.StageSeeding, types.KindEngine, err)
		}
	}

	return fn(doc)
}

func removeScratch(path string, remove func(string) error) {
	if err := remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Failed to remove scratch %s: %v", path, err)
	}
}
