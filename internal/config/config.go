package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Supported storage drivers
const (
	DBTypeSQLite  = "sqlite"  // pure Go, github.com/glebarez/sqlite
	DBTypeSQLite3 = "sqlite3" // cgo, gorm.io/driver/sqlite
)

// Supported dump modes
const (
	DumpModeNative = "native"
	DumpModeShell  = "sqlite3"
)

// Supported output formats
const (
	FormatGo         = "go"
	FormatTypeScript = "ts"
)

// Config holds all generator configuration
type Config struct {
	// Storage configuration
	DBType              string // sqlite, sqlite3
	DocsRoot            string // empty means a fresh temp directory per variant
	DocExtension        string
	InternalTablePrefix string
	LogLevel            string // silent, error, warn, info

	// Export configuration
	DumpMode     string // native, sqlite3
	SQLiteBinary string

	// Output configuration
	OutputFormat  string // go, ts
	OutputPackage string
	ConstPrefix   string
	MaxLineLength int

	// Plugin configuration
	PluginDirs []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DBType:              getEnv("DOCSQL_DB_TYPE", DBTypeSQLite),
		DocsRoot:            getEnv("DOCSQL_DOCS_ROOT", ""),
		DocExtension:        getEnv("DOCSQL_DOC_EXTENSION", ".docdb"),
		InternalTablePrefix: getEnv("DOCSQL_INTERNAL_TABLE_PREFIX", "_docsys_"),
		LogLevel:            getEnv("DOCSQL_LOG_LEVEL", "warn"),
		DumpMode:            getEnv("DOCSQL_DUMP_MODE", DumpModeNative),
		SQLiteBinary:        getEnv("DOCSQL_SQLITE_BINARY", "sqlite3"),
		OutputFormat:        getEnv("DOCSQL_OUTPUT_FORMAT", FormatGo),
		OutputPackage:       getEnv("DOCSQL_OUTPUT_PACKAGE", "initialdoc"),
		ConstPrefix:         getEnv("DOCSQL_CONST_PREFIX", "Initial"),
		MaxLineLength:       getEnvAsInt("DOCSQL_MAX_LINE_LENGTH", 120),
		PluginDirs:          getEnvAsList("DOCSQL_PLUGIN_DIRS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks enumerated and required fields. It is called by Load and
// again by the CLI after flag overrides are applied.
func (c *Config) Validate() error {
	switch c.DBType {
	case DBTypeSQLite, DBTypeSQLite3:
	default:
		return fmt.Errorf("DOCSQL_DB_TYPE must be %q or %q, got %q", DBTypeSQLite, DBTypeSQLite3, c.DBType)
	}
	switch c.DumpMode {
	case DumpModeNative, DumpModeShell:
	default:
		return fmt.Errorf("DOCSQL_DUMP_MODE must be %q or %q, got %q", DumpModeNative, DumpModeShell, c.DumpMode)
	}
	switch c.OutputFormat {
	case FormatGo, FormatTypeScript:
	default:
		return fmt.Errorf("DOCSQL_OUTPUT_FORMAT must be %q or %q, got %q", FormatGo, FormatTypeScript, c.OutputFormat)
	}
	switch c.LogLevel {
	case "silent", "error", "warn", "info":
	default:
		return fmt.Errorf("DOCSQL_LOG_LEVEL must be one of silent, error, warn, info, got %q", c.LogLevel)
	}

	if c.DocExtension == "" || !strings.HasPrefix(c.DocExtension, ".") {
		return fmt.Errorf("DOCSQL_DOC_EXTENSION must start with '.', got %q", c.DocExtension)
	}
	if c.InternalTablePrefix == "" {
		return fmt.Errorf("DOCSQL_INTERNAL_TABLE_PREFIX is required")
	}
	if c.DumpMode == DumpModeShell && c.SQLiteBinary == "" {
		return fmt.Errorf("DOCSQL_SQLITE_BINARY is required when DOCSQL_DUMP_MODE is %q", DumpModeShell)
	}
	if c.OutputFormat == FormatGo && c.OutputPackage == "" {
		return fmt.Errorf("DOCSQL_OUTPUT_PACKAGE is required for go output")
	}
	if c.ConstPrefix == "" {
		return fmt.Errorf("DOCSQL_CONST_PREFIX is required")
	}
	if c.MaxLineLength <= 0 {
		return fmt.Errorf("DOCSQL_MAX_LINE_LENGTH must be positive, got %d", c.MaxLineLength)
	}

	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated environment variable, dropping empty entries
func getEnvAsList(key string) []string {
	var list []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
