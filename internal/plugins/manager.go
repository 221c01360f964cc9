package plugins

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ManifestFile is the file that marks a directory as a plugin
const ManifestFile = "manifest.json"

// Plugin describes a discovered plugin
type Plugin struct {
	ID      string `json:"-"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Dir     string `json:"-"`
}

// Manager is the capability registry a document manager is built with.
// Snapshot generation does not call into plugins.
type Manager struct {
	dirs    []string
	plugins []Plugin
}

// NewManager creates a manager that will look for plugins under dirs
func NewManager(dirs ...string) *Manager {
	return &Manager{dirs: dirs}
}

// Initialize scans the configured directories. Missing directories are skipped.
func (m *Manager) Initialize() error {
	m.plugins = nil

	for _, dir := range m.dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading plugin directory %s: %w", dir, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			pluginDir := filepath.Join(dir, entry.Name())
			data, err := os.ReadFile(filepath.Join(pluginDir, ManifestFile))
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return fmt.Errorf("reading manifest in %s: %w", pluginDir, err)
			}

			plugin := Plugin{ID: entry.Name(), Dir: pluginDir}
			if err := json.Unmarshal(data, &plugin); err != nil {
				return fmt.Errorf("parsing manifest in %s: %w", pluginDir, err)
			}
			if plugin.Name == "" {
				plugin.Name = plugin.ID
			}
			m.plugins = append(m.plugins, plugin)
		}
	}

	sort.Slice(m.plugins, func(i, j int) bool {
		return m.plugins[i].ID < m.plugins[j].ID
	})

	return nil
}

// Plugins returns the discovered plugins ordered by id
func (m *Manager) Plugins() []Plugin {
	return append([]Plugin(nil), m.plugins...)
}
