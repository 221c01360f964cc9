// generator_test.go
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

package generator_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/localnerve/jam-build-docsql/internal/config"
	"github.com/localnerve/jam-build-docsql/internal/database"
	"github.com/localnerve/jam-build-docsql/internal/docmanager"
	"github.com/localnerve/jam-build-docsql/internal/generator"
	"github.com/localnerve/jam-build-docsql/internal/plugins"
	"github.com/localnerve/jam-build-docsql/internal/services"
	"github.com/localnerve/jam-build-docsql/internal/session"
	"github.com/localnerve/jam-build-docsql/internal/testutil"
	"github.com/localnerve/jam-build-docsql/internal/types"
)

var errSeed = errors.New("seeding exploded")

// seedFailingEngine creates documents normally but cannot add a table
type seedFailingEngine struct {
	docmanager.Engine
}

func (seedFailingEngine) AddInitialTable(ctx context.Context, sess *session.Session, db *gorm.DB) error {
	return errSeed
}

// countingDumper records how many dumps were taken
type countingDumper struct {
	dumps int
}

func (d *countingDumper) Dump(ctx context.Context, src database.Dumpable) (string, error) {
	d.dumps++
	return database.NativeDumper{}.Dump(ctx, src)
}

func newGenerator(t *testing.T, cfg *config.Config) *generator.Generator {
	t.Helper()
	g, err := generator.New(cfg)
	require.NoError(t, err)
	return g
}

func snapshot(t *testing.T, g *generator.Generator, v types.Variant) string {
	t.Helper()
	sql, err := g.Snapshot(context.Background(), "scratch", v)
	require.NoError(t, err)
	return sql
}

// replay runs sql against a fresh in-memory database
func replay(t *testing.T, cfg *config.Config, sql string) *database.DocStorage {
	t.Helper()
	s := testutil.OpenMemory(t, cfg)
	testutil.Exec(t, s, sql)
	return s
}

// userTables lists the tables that are not document metadata
func userTables(t *testing.T, s *database.DocStorage) []string {
	t.Helper()
	names, err := s.TableNames(context.Background())
	require.NoError(t, err)

	var user []string
	for _, name := range names {
		if !strings.HasPrefix(name, "_doc_") {
			user = append(user, name)
		}
	}
	return user
}

// direct builds a document the ordinary way and strips the storage tables,
// for comparison with a replayed snapshot
func direct(t *testing.T, cfg *config.Config, seed bool) *database.DocStorage {
	t.Helper()
	ctx := context.Background()

	storage := testutil.NewStorageManager(t, cfg)
	m, err := docmanager.NewManager(storage, plugins.NewManager(), services.NewDocEngine())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.ShutdownAll(ctx) })

	doc, err := m.Open("direct")
	require.NoError(t, err)

	sess := session.MakeExceptional(generator.SessionName)
	require.NoError(t, doc.CreateEmpty(ctx, sess))
	if seed {
		require.NoError(t, doc.AddDefaultTable(ctx, sess))
	}
	require.NoError(t, doc.Shutdown(ctx))

	db, err := database.Open(cfg, doc.Path())
	require.NoError(t, err)
	s := database.WrapStorage(db, doc.Path(), storage.InternalTables())
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, services.NewExtractor(database.NativeDumper{}).DropInternalTables(ctx, s))
	return s
}

func TestGenerateWritesVariantsInOrder(t *testing.T) {
	cfg := testutil.Config()
	g := newGenerator(t, cfg)

	var out strings.Builder
	require.NoError(t, g.Generate(context.Background(), "scratch", &out))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "// Code generated by docsql; DO NOT EDIT.\n\npackage initialdoc\n"))

	doc := strings.Index(text, "const InitialDocSQL = ")
	withTable := strings.Index(text, "const InitialDocWithTable1SQL = ")
	require.NotEqual(t, -1, doc)
	require.NotEqual(t, -1, withTable)
	assert.Less(t, doc, withTable)
	assert.Equal(t, 2, strings.Count(text, "COMMIT;"))
}

func TestDumpModesProduceSameSnapshot(t *testing.T) {
	if _, err := exec.LookPath("sqlite3"); err != nil {
		t.Skip("sqlite3 shell not installed")
	}

	native := newGenerator(t, testutil.Config())
	shellCfg := testutil.Config()
	shellCfg.DumpMode = config.DumpModeShell
	shell := newGenerator(t, shellCfg)

	for _, v := range types.Variants() {
		t.Run(v.String(), func(t *testing.T) {
			assert.Equal(t, snapshot(t, shell, v), snapshot(t, native, v))
		})
	}
}

func TestSnapshotTableCounts(t *testing.T) {
	cfg := testutil.Config()
	g := newGenerator(t, cfg)

	empty := replay(t, cfg, snapshot(t, g, types.VariantDoc))
	withTable := replay(t, cfg, snapshot(t, g, types.VariantDocWithTable1))

	assert.Empty(t, userTables(t, empty))
	assert.Equal(t, []string{"Table1"}, userTables(t, withTable))

	emptyNames, err := empty.TableNames(context.Background())
	require.NoError(t, err)
	withNames, err := withTable.TableNames(context.Background())
	require.NoError(t, err)
	assert.Len(t, withNames, len(emptyNames)+1)
	assert.Subset(t, withNames, emptyNames)
}

func TestSnapshotsExcludeInternalTables(t *testing.T) {
	cfg := testutil.Config()
	g := newGenerator(t, cfg)

	var out strings.Builder
	require.NoError(t, g.Generate(context.Background(), "scratch", &out))
	assert.NotContains(t, out.String(), cfg.InternalTablePrefix)
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := testutil.Config()
	cfg.DocsRoot = t.TempDir()
	g := newGenerator(t, cfg)

	var first, second strings.Builder
	require.NoError(t, g.Generate(context.Background(), "scratch", &first))
	require.NoError(t, g.Generate(context.Background(), "scratch", &second))

	assert.Equal(t, first.String(), second.String())
}

func TestReplayMatchesDirectCreation(t *testing.T) {
	cfg := testutil.Config()
	g := newGenerator(t, cfg)
	ctx := context.Background()

	for _, v := range types.Variants() {
		t.Run(v.String(), func(t *testing.T) {
			replayed := replay(t, cfg, snapshot(t, g, v))
			built := direct(t, cfg, v.SeedsTable())

			assert.Equal(t, testutil.Schema(t, built), testutil.Schema(t, replayed))

			builtDump, err := database.NativeDumper{}.Dump(ctx, built)
			require.NoError(t, err)
			replayedDump, err := database.NativeDumper{}.Dump(ctx, replayed)
			require.NoError(t, err)
			assert.Equal(t, builtDump, replayedDump)
		})
	}
}

func TestStaleFileIsCleared(t *testing.T) {
	cfg := testutil.Config()
	cfg.DocsRoot = t.TempDir()
	g := newGenerator(t, cfg)

	storage, err := database.NewStorageManager(cfg, cfg.DocsRoot)
	require.NoError(t, err)
	path := storage.GetPath("scratch")

	db, err := database.Open(cfg, path)
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE "Leftover" (id INTEGER PRIMARY KEY)`).Error)
	require.NoError(t, database.Close(db))
	require.FileExists(t, path)

	sql := snapshot(t, g, types.VariantDoc)
	assert.NotContains(t, sql, "Leftover")
	assert.NoFileExists(t, path)
}

func TestSeedingFailureAbortsRun(t *testing.T) {
	cfg := testutil.Config()
	cfg.DocsRoot = t.TempDir()
	g := newGenerator(t, cfg)

	dumper := &countingDumper{}
	g.Engine = seedFailingEngine{Engine: services.NewDocEngine()}
	g.Extractor = services.NewExtractor(dumper)

	var out strings.Builder
	err := g.Generate(context.Background(), "scratch", &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, errSeed)

	var pipelineErr *types.PipelineError
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, types.VariantDocWithTable1, pipelineErr.Variant)
	assert.Equal(t, types.StageSeeding, pipelineErr.Stage)
	assert.Equal(t, types.KindEngine, pipelineErr.Kind)

	assert.Equal(t, 1, dumper.dumps, "the failed variant must not be extracted")

	// The first variant was already emitted and stays intact
	reference := newGenerator(t, testutil.Config())
	var block strings.Builder
	require.NoError(t, reference.Renderer.Snapshot(&block, types.VariantDoc, snapshot(t, reference, types.VariantDoc)))

	text := out.String()
	assert.True(t, strings.HasSuffix(text, block.String()))
	assert.NotContains(t, text, "InitialDocWithTable1SQL")

	storage, err := database.NewStorageManager(cfg, cfg.DocsRoot)
	require.NoError(t, err)
	assert.NoFileExists(t, storage.GetPath("scratch"))
}

func TestDumpFailureIsExportError(t *testing.T) {
	cfg := testutil.Config()
	g := newGenerator(t, cfg)
	g.Extractor = services.NewExtractor(database.ShellDumper{Binary: "definitely-not-a-sqlite3-binary"})

	_, err := g.Snapshot(context.Background(), "scratch", types.VariantDoc)

	var pipelineErr *types.PipelineError
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, types.StageExtracting, pipelineErr.Stage)
	assert.Equal(t, types.KindExport, pipelineErr.Kind)
	assert.ErrorIs(t, err, services.ErrDumpFailed)
}

func TestInspect(t *testing.T) {
	cfg := testutil.Config()
	g := newGenerator(t, cfg)

	result, err := g.Inspect(context.Background(), "scratch", types.VariantDocWithTable1)
	require.NoError(t, err)

	assert.Equal(t, types.VariantDocWithTable1, result.Variant)
	require.NotEmpty(t, result.Internal)
	for _, table := range result.Internal {
		assert.True(t, strings.HasPrefix(table.Name, cfg.InternalTablePrefix), table.Name)
	}

	var logical []string
	for _, table := range result.Logical {
		logical = append(logical, table.Name)
		assert.NotEmpty(t, table.SQL)
	}
	assert.Contains(t, logical, "Table1")
	assert.Contains(t, logical, "_doc_info")
}

func TestNewRejectsBadPluginManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "broken"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken", plugins.ManifestFile), []byte("{"), 0o644))

	cfg := testutil.Config()
	cfg.PluginDirs = []string{dir}

	_, err := generator.New(cfg)
	assert.Error(t, err)
}
