package plugins_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/jam-build-docsql/internal/plugins"
)

func writeManifest(t *testing.T, dir, id, body string) {
	t.Helper()
	pluginDir := filepath.Join(dir, id)
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, plugins.ManifestFile), []byte(body), 0o644))
}

func TestInitializeDiscoversPlugins(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "zeta", `{"name": "Zeta Importer", "version": "1.2.0"}`)
	writeManifest(t, dir, "alpha", `{}`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "no-manifest"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loose-file"), []byte("x"), 0o644))

	m := plugins.NewManager(dir, filepath.Join(dir, "missing"))
	require.NoError(t, m.Initialize())

	found := m.Plugins()
	require.Len(t, found, 2)
	assert.Equal(t, "alpha", found[0].ID)
	assert.Equal(t, "alpha", found[0].Name)
	assert.Equal(t, "zeta", found[1].ID)
	assert.Equal(t, "Zeta Importer", found[1].Name)
	assert.Equal(t, "1.2.0", found[1].Version)
}

func TestInitializeRejectsBadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "broken", `{"name": `)

	m := plugins.NewManager(dir)
	assert.Error(t, m.Initialize())
}

func TestNoDirectories(t *testing.T) {
	m := plugins.NewManager()
	require.NoError(t, m.Initialize())
	assert.Empty(t, m.Plugins())
}
