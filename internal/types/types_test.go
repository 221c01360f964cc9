package types_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/jam-build-docsql/internal/types"
)

func TestVariantsOrder(t *testing.T) {
	assert.Equal(t, []types.Variant{types.VariantDoc, types.VariantDocWithTable1}, types.Variants())
}

func TestVariantSeedsTable(t *testing.T) {
	assert.False(t, types.VariantDoc.SeedsTable())
	assert.True(t, types.VariantDocWithTable1.SeedsTable())
}

func TestVariantCamelName(t *testing.T) {
	assert.Equal(t, "Doc", types.VariantDoc.CamelName())
	assert.Equal(t, "DocWithTable1", types.VariantDocWithTable1.CamelName())
}

func TestParseVariant(t *testing.T) {
	v, err := types.ParseVariant("doc_with_table1")
	require.NoError(t, err)
	assert.Equal(t, types.VariantDocWithTable1, v)

	_, err = types.ParseVariant("DOC_WITH_TABLE2")
	assert.Error(t, err)
}

func TestPipelineErrorUnwraps(t *testing.T) {
	cause := fmt.Errorf("wrapped: %w", types.ErrEmptyDump)
	err := types.NewPipelineError(types.VariantDoc, types.StageExtracting, types.KindExport, cause)

	assert.True(t, errors.Is(err, types.ErrEmptyDump))
	assert.Contains(t, err.Error(), "DOC: extracting failed [type: export]")

	var perr *types.PipelineError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, types.StageExtracting, perr.Stage)
	assert.Equal(t, types.KindExport, perr.Kind)
}

func TestNewPipelineErrorNil(t *testing.T) {
	assert.NoError(t, types.NewPipelineError(types.VariantDoc, types.StageClosing, types.KindStorage, nil))
}
