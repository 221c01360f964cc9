package services

import (
	"fmt"
	"log"
	"os"

	"github.com/localnerve/jam-build-docsql/internal/config"
	"github.com/localnerve/jam-build-docsql/internal/database"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Storage      string            `json:"storage"`
	Dumper       string            `json:"dumper"`
	DocsRoot     string            `json:"docs_root"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) fail(component, key string, err error, message string) {
	r.Status = "unhealthy"
	r.Details[key] = err.Error()
	if r.ErrorMessage == "" {
		r.ErrorMessage = fmt.Sprintf("%s: %v", message, err)
	} else {
		r.ErrorMessage += fmt.Sprintf("; %s: %v", message, err)
	}
	log.Printf("Health check failed - %s: %v", component, err)
}

// HealthCheck verifies that everything a generation run needs is in place:
// the storage driver opens a database, the dumper can run and the docs root
// accepts new files
func HealthCheck(cfg *config.Config) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	// Check the storage driver
	db, err := database.Open(cfg, database.MemoryPath)
	if err != nil {
		result.Storage = "error"
		result.fail("storage open", "storage_error", err, "Storage open failed")
	} else {
		var version string
		if err := db.Raw("SELECT sqlite_version()").Scan(&version).Error; err != nil {
			result.Storage = "unreachable"
			result.fail("storage query", "storage_query_error", err, "Storage query failed")
		} else {
			result.Storage = "ok"
			result.Details["storage_driver"] = cfg.DBType
			result.Details["sqlite_version"] = version
		}
		if err := database.Close(db); err != nil {
			log.Printf("Failed to close health check database: %v", err)
		}
	}

	// Check the dumper
	switch cfg.DumpMode {
	case config.DumpModeShell:
		shell := database.ShellDumper{Binary: cfg.SQLiteBinary}
		if err := shell.Available(); err != nil {
			result.Dumper = "unavailable"
			result.fail("dumper", "dumper_error", err, "Dump binary not found")
		} else {
			result.Dumper = "ok"
			result.Details["dumper_binary"] = cfg.SQLiteBinary
		}
	default:
		result.Dumper = "ok"
	}
	result.Details["dump_mode"] = cfg.DumpMode

	// Check the docs root; an unset root means a temp directory per variant
	root := cfg.DocsRoot
	if root == "" {
		root = os.TempDir()
	}
	if err := checkWritable(root); err != nil {
		result.DocsRoot = "unwritable"
		result.fail("docs root", "docs_root_error", err, "Docs root not writable")
	} else {
		result.DocsRoot = "ok"
		result.Details["docs_root"] = root
	}

	if result.Status == "healthy" {
		log.Println("Health check passed - ready to generate")
	}

	return result
}

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".docsql-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}
