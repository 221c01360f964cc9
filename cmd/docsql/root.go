// root.go
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

package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/localnerve/jam-build-docsql/internal/config"
	"github.com/localnerve/jam-build-docsql/internal/generator"
)

var (
	envFile       string
	dumpMode      string
	docsRoot      string
	verbose       bool
	outputFormat  string
	outputPackage string
	constPrefix   string
	outFile       string
)

var rootCmd = &cobra.Command{
	Use:   "docsql <base-name>",
	Short: "Generate the initial SQL of new documents",
	Long: `Builds a scratch document named <base-name> for each variant (DOC, then
DOC_WITH_TABLE1), drops the storage bookkeeping tables, and writes the
remaining schema and rows as SQL constants of a generated source file.

Configuration comes from DOCSQL_* environment variables; flags override them.`,
	Args:              cobra.ExactArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	RunE:              runGenerate,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", "", "Load environment variables from this file first")
	flags.StringVar(&dumpMode, "dump-mode", "", "Dump through native SQL or the sqlite3 shell (native, sqlite3)")
	flags.StringVar(&docsRoot, "docs-root", "", "Directory for scratch documents (default: a temp dir per variant)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log progress and SQL statements to stderr")

	rootCmd.Flags().StringVar(&outputFormat, "format", "", "Output format (go, ts)")
	rootCmd.Flags().StringVar(&outputPackage, "package", "", "Package clause of generated Go output")
	rootCmd.Flags().StringVar(&constPrefix, "const-prefix", "", "Prefix of the generated constant names")
	rootCmd.Flags().StringVarP(&outFile, "out", "o", "", "Write to this file instead of stdout, only if every variant succeeds")
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	if verbose {
		log.SetOutput(cmd.ErrOrStderr())
	} else {
		log.SetOutput(io.Discard)
	}
	return nil
}

// loadConfig reads the environment, optionally seeded from --env-file, and
// applies flag overrides
func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if dumpMode != "" {
		cfg.DumpMode = dumpMode
	}
	if docsRoot != "" {
		cfg.DocsRoot = docsRoot
	}
	if outputFormat != "" {
		cfg.OutputFormat = outputFormat
	}
	if outputPackage != "" {
		cfg.OutputPackage = outputPackage
	}
	if constPrefix != "" {
		cfg.ConstPrefix = constPrefix
	}
	if verbose {
		cfg.LogLevel = "info"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	g, err := generator.New(cfg)
	if err != nil {
		return err
	}

	if outFile == "" {
		return g.Generate(cmd.Context(), args[0], cmd.OutOrStdout())
	}

	var buf bytes.Buffer
	if err := g.Generate(cmd.Context(), args[0], &buf); err != nil {
		return err
	}
	return writeFileAtomic(outFile, buf.Bytes())
}

// writeFileAtomic replaces path with data through a temp file in the same
// directory, so readers never see a partial file
func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	log.Printf("Wrote %s", path)
	return nil
}
