// dump.go
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

package database

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/localnerve/jam-build-docsql/internal/config"
)

// Dumpable is what a dumper needs from an open document
type Dumpable interface {
	Path() string
	All(ctx context.Context, query string, args ...any) ([]map[string]any, error)
}

// Dumper renders a document file as replayable SQL text
type Dumper interface {
	Dump(ctx context.Context, src Dumpable) (string, error)
}

// NewDumper returns the dumper selected by DUMP_MODE
func NewDumper(cfg *config.Config) (Dumper, error) {
	switch cfg.DumpMode {
	case config.DumpModeNative:
		return NativeDumper{}, nil
	case config.DumpModeShell:
		return ShellDumper{Binary: cfg.SQLiteBinary}, nil
	default:
		return nil, fmt.Errorf("unsupported dump mode: %s", cfg.DumpMode)
	}
}

// ShellDumper runs the sqlite3 command line shell's .dump over the file
type ShellDumper struct {
	Binary string
}

// Dump implements Dumper
func (d ShellDumper) Dump(ctx context.Context, src Dumpable) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, d.Binary, src.Path(), ".dump")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s .dump %s: %w: %s", d.Binary, src.Path(), err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// Available reports whether the shell binary can be found
func (d ShellDumper) Available() error {
	_, err := exec.LookPath(d.Binary)
	return err
}

// NativeDumper produces the same layout as the sqlite3 shell's .dump
// through SQL alone, so no external binary is needed
type NativeDumper struct{}

// Dump implements Dumper
func (NativeDumper) Dump(ctx context.Context, src Dumpable) (string, error) {
	var b strings.Builder

	b.WriteString("PRAGMA foreign_keys=OFF;\n")
	b.WriteString("BEGIN TRANSACTION;\n")

	tables, err := src.All(ctx,
		`SELECT name, sql FROM sqlite_master WHERE type = 'table' AND sql NOT NULL ORDER BY name = 'sqlite_sequence', rowid`)
	if err != nil {
		return "", fmt.Errorf("listing tables: %w", err)
	}

	for _, table := range tables {
		name := asString(table["name"])

		switch {
		case name == "sqlite_sequence":
			b.WriteString("DELETE FROM sqlite_sequence;\n")
		case strings.HasPrefix(name, "sqlite_stat"):
			b.WriteString("ANALYZE sqlite_schema;\n")
		case strings.HasPrefix(name, "sqlite_"):
			continue
		default:
			b.WriteString(createTableStatement(asString(table["sql"])))
			b.WriteString(";\n")
		}

		if err := dumpRows(ctx, src, name, &b); err != nil {
			return "", err
		}
	}

	others, err := src.All(ctx,
		`SELECT sql FROM sqlite_master WHERE sql NOT NULL AND type IN ('index', 'trigger', 'view') ORDER BY rowid`)
	if err != nil {
		return "", fmt.Errorf("listing indexes, triggers and views: %w", err)
	}
	for _, other := range others {
		b.WriteString(asString(other["sql"]))
		b.WriteString(";\n")
	}

	b.WriteString("COMMIT;\n")

	return b.String(), nil
}

// createTableStatement makes a quoted-name CREATE TABLE idempotent, as the
// shell's .dump does
func createTableStatement(sql string) string {
	const create = "CREATE TABLE "
	if strings.HasPrefix(sql, create+`"`) || strings.HasPrefix(sql, create+"'") {
		return create + "IF NOT EXISTS " + sql[len(create):]
	}
	return sql
}

// dumpRows writes one INSERT per row, with every value rendered by SQLite's quote()
func dumpRows(ctx context.Context, src Dumpable, table string, b *strings.Builder) error {
	columns, err := src.All(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return fmt.Errorf("reading columns of %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil
	}

	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = "quote(" + QuoteIdentifier(asString(column["name"])) + ")"
	}
	query := "SELECT " + strings.Join(quoted, " || ',' || ") + " AS v FROM " + QuoteIdentifier(table)

	rows, err := src.All(ctx, query)
	if err != nil {
		return fmt.Errorf("reading rows of %s: %w", table, err)
	}
	for _, row := range rows {
		fmt.Fprintf(b, "INSERT INTO %s VALUES(%s);\n", dumpIdentifier(table), asString(row["v"]))
	}

	return nil
}

// QuoteIdentifier always double-quotes name
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Keywords that would need quoting as a table name in an INSERT statement
var reservedWords = map[string]bool{
	"ALL": true, "AND": true, "AS": true, "BETWEEN": true, "BY": true, "CASE": true, "CHECK": true,
	"COLLATE": true, "COLUMN": true, "CONSTRAINT": true, "CREATE": true, "DEFAULT": true, "DELETE": true,
	"DISTINCT": true, "DROP": true, "ELSE": true, "END": true, "EXISTS": true, "FROM": true, "GROUP": true,
	"IN": true, "INDEX": true, "INSERT": true, "INTO": true, "IS": true, "JOIN": true, "KEY": true,
	"LIMIT": true, "NOT": true, "NULL": true, "ON": true, "OR": true, "ORDER": true, "PRIMARY": true,
	"REFERENCES": true, "SELECT": true, "SET": true, "TABLE": true, "THEN": true, "TO": true,
	"TRANSACTION": true, "UNION": true, "UNIQUE": true, "UPDATE": true, "USING": true, "VALUES": true,
	"WHEN": true, "WHERE": true,
}

// dumpIdentifier quotes name only when the shell would
func dumpIdentifier(name string) string {
	if plainIdentifier.MatchString(name) && !reservedWords[strings.ToUpper(name)] {
		return name
	}
	return QuoteIdentifier(name)
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}
