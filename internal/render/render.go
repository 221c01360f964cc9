// Package render writes snapshots as constants of a generated source file.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/localnerve/jam-build-docsql/internal/config"
	"github.com/localnerve/jam-build-docsql/internal/types"
)

// Renderer writes the generated file: a header once, then one constant per snapshot
type Renderer interface {
	Header(w io.Writer) error
	Snapshot(w io.Writer, v types.Variant, sql string) error
}

// New returns the renderer for the configured output format
func New(cfg *config.Config) (Renderer, error) {
	switch cfg.OutputFormat {
	case config.FormatGo:
		return &GoRenderer{
			Package:       cfg.OutputPackage,
			ConstPrefix:   cfg.ConstPrefix,
			MaxLineLength: cfg.MaxLineLength,
		}, nil
	case config.FormatTypeScript:
		return &TypeScriptRenderer{
			ConstPrefix:   cfg.ConstPrefix,
			MaxLineLength: cfg.MaxLineLength,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", cfg.OutputFormat)
	}
}

// GoRenderer writes a Go file with one string constant per snapshot. A
// snapshot without backticks is a raw string; one with backticks is a
// concatenation of quoted lines.
type GoRenderer struct {
	Package       string
	ConstPrefix   string
	MaxLineLength int
}

// Header implements Renderer
func (r *GoRenderer) Header(w io.Writer) error {
	_, err := fmt.Fprintf(w, "// Code generated by docsql; DO NOT EDIT.\n\npackage %s\n", r.Package)
	return err
}

// ConstName returns the constant holding v's snapshot, e.g. InitialDocWithTable1SQL
func (r *GoRenderer) ConstName(v types.Variant) string {
	return r.ConstPrefix + v.CamelName() + "SQL"
}

// Snapshot implements Renderer. Either form holds "\n" + sql + "\n".
func (r *GoRenderer) Snapshot(w io.Writer, v types.Variant, sql string) error {
	var decl string
	if strings.Contains(sql, "`") {
		decl = quotedConst(r.ConstName(v), sql)
	} else {
		decl = fmt.Sprintf("const %s = `\n%s\n`\n", r.ConstName(v), sql)
	}

	var b strings.Builder
	b.WriteString("\n")
	if longestLine(decl) > r.MaxLineLength {
		b.WriteString("//nolint:lll\n")
	}
	b.WriteString(decl)

	_, err := io.WriteString(w, b.String())
	return err
}

// quotedConst declares name as sql split into one interpreted string per line
func quotedConst(name, sql string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "const %s = \"\\n\" +\n", name)

	lines := strings.Split(sql, "\n")
	for i, line := range lines {
		b.WriteString("\t")
		b.WriteString(strconv.Quote(line + "\n"))
		if i < len(lines)-1 {
			b.WriteString(" +")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// TypeScriptRenderer writes a TypeScript module exporting one template
// literal per snapshot
type TypeScriptRenderer struct {
	ConstPrefix   string
	MaxLineLength int
}

// Header implements Renderer
func (r *TypeScriptRenderer) Header(w io.Writer) error {
	_, err := io.WriteString(w, "/*** THIS FILE IS AUTO-GENERATED BY docsql ***/\n")
	return err
}

// ConstName returns the exported name of v's snapshot, e.g. INITIAL_DOC_WITH_TABLE1_SQL
func (r *TypeScriptRenderer) ConstName(v types.Variant) string {
	return upperSnake(r.ConstPrefix) + "_" + v.String() + "_SQL"
}

// Snapshot implements Renderer
func (r *TypeScriptRenderer) Snapshot(w io.Writer, v types.Variant, sql string) error {
	body := strings.NewReplacer(`\`, `\\`, "`", "\\`", "${", "\\${").Replace(sql)
	long := longestLine(body) > r.MaxLineLength

	var b strings.Builder
	b.WriteString("\n")
	if long {
		b.WriteString("/* eslint-disable max-len */\n")
	}
	fmt.Fprintf(&b, "export const %s = `\n%s\n`;\n", r.ConstName(v), body)
	if long {
		b.WriteString("/* eslint-enable max-len */\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func longestLine(s string) int {
	longest := 0
	for _, line := range strings.Split(s, "\n") {
		if n := len([]rune(line)); n > longest {
			longest = n
		}
	}
	return longest
}

// upperSnake turns InitialDoc into INITIAL_DOC
func upperSnake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			b.WriteRune('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
