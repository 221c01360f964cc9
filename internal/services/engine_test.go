package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/jam-build-docsql/internal/models"
	"github.com/localnerve/jam-build-docsql/internal/services"
	"github.com/localnerve/jam-build-docsql/internal/session"
	"github.com/localnerve/jam-build-docsql/internal/testutil"
)

var metadataTables = []string{
	"_doc_acl_resources",
	"_doc_acl_rules",
	"_doc_filters",
	"_doc_info",
	"_doc_pages",
	"_doc_tab_bar",
	"_doc_tables",
	"_doc_tables_column",
	"_doc_views",
	"_doc_views_section",
	"_doc_views_section_field",
}

func TestCreateEmptyDoc(t *testing.T) {
	ctx := context.Background()
	s := testutil.OpenMemory(t, testutil.Config())
	engine := services.NewDocEngine()

	require.NoError(t, engine.CreateEmptyDoc(ctx, session.MakeExceptional("test"), s.DB()))

	names, err := s.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, metadataTables, names)

	var info models.DocInfo
	require.NoError(t, s.DB().First(&info).Error)
	assert.Equal(t, int64(1), info.ID)
	assert.Equal(t, int64(models.SchemaVersion), info.SchemaVersion)
	assert.Equal(t, "UTC", info.Timezone)
	assert.JSONEq(t, `{"locale":"en-US"}`, string(info.DocumentSettings.JSON))

	var rules []models.ACLRule
	require.NoError(t, s.DB().Find(&rules).Error)
	require.Len(t, rules, 1)
	assert.Equal(t, "[1]", rules[0].Principals)
}

func TestCreateEmptyDocRejectsReadOnlySession(t *testing.T) {
	ctx := context.Background()
	s := testutil.OpenMemory(t, testutil.Config())
	engine := services.NewDocEngine()

	assert.ErrorIs(t, engine.CreateEmptyDoc(ctx, session.MakeReadOnly("viewer"), s.DB()), services.ErrUnauthorized)
	assert.ErrorIs(t, engine.CreateEmptyDoc(ctx, nil, s.DB()), services.ErrUnauthorized)

	names, err := s.TableNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestAddInitialTable(t *testing.T) {
	ctx := context.Background()
	s := testutil.OpenMemory(t, testutil.Config())
	engine := services.NewDocEngine()
	sess := session.MakeExceptional("test")

	require.NoError(t, engine.CreateEmptyDoc(ctx, sess, s.DB()))
	require.NoError(t, engine.AddInitialTable(ctx, sess, s.DB()))

	schema := testutil.Schema(t, s)
	require.Contains(t, schema, "Table1")
	assert.Contains(t, schema["Table1"], `"manualSort" NUMERIC DEFAULT 1e999`)
	assert.Len(t, schema, len(metadataTables)+1)

	var table models.Table
	require.NoError(t, s.DB().Where("table_id = ?", "Table1").First(&table).Error)
	assert.Equal(t, int64(1), table.ID)
	assert.Equal(t, int64(1), table.PrimaryViewID)
	assert.Equal(t, int64(2), table.RawViewSectionRef)
	assert.Equal(t, int64(3), table.RecordCardViewSectionRef)

	var columns []models.Column
	require.NoError(t, s.DB().Order("parent_pos").Find(&columns, "parent_id = ?", table.ID).Error)
	colIDs := make([]string, len(columns))
	for i, c := range columns {
		colIDs[i] = c.ColID
	}
	assert.Equal(t, []string{"manualSort", "A", "B", "C"}, colIDs)

	var fields int64
	require.NoError(t, s.DB().Model(&models.ViewField{}).Count(&fields).Error)
	assert.Equal(t, int64(9), fields)

	rows, err := s.All(ctx, `SELECT name FROM _doc_views`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Table1", rows[0]["name"])
}

func TestAddInitialTablePicksNextFreeName(t *testing.T) {
	ctx := context.Background()
	s := testutil.OpenMemory(t, testutil.Config())
	engine := services.NewDocEngine()
	sess := session.MakeExceptional("test")

	require.NoError(t, engine.CreateEmptyDoc(ctx, sess, s.DB()))
	require.NoError(t, engine.AddInitialTable(ctx, sess, s.DB()))
	require.NoError(t, engine.AddInitialTable(ctx, sess, s.DB()))

	var table models.Table
	require.NoError(t, s.DB().Where("table_id = ?", "Table2").First(&table).Error)
	assert.Equal(t, int64(2), table.ID)
	assert.Equal(t, int64(5), table.RawViewSectionRef)
}

func TestAddInitialTableRequiresDocument(t *testing.T) {
	ctx := context.Background()
	s := testutil.OpenMemory(t, testutil.Config())
	engine := services.NewDocEngine()

	err := engine.AddInitialTable(ctx, session.MakeExceptional("test"), s.DB())
	assert.ErrorIs(t, err, services.ErrNotInitialized)

	names, err := s.TableNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestEngineIsDeterministic(t *testing.T) {
	ctx := context.Background()
	cfg := testutil.Config()
	engine := services.NewDocEngine()

	build := func() []map[string]any {
		s := testutil.OpenMemory(t, cfg)
		sess := session.MakeExceptional("test")
		require.NoError(t, engine.CreateEmptyDoc(ctx, sess, s.DB()))
		require.NoError(t, engine.AddInitialTable(ctx, sess, s.DB()))
		rows, err := s.All(ctx, `SELECT * FROM _doc_views_section_field ORDER BY id`)
		require.NoError(t, err)
		return rows
	}

	assert.Equal(t, build(), build())
}
