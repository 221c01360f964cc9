package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localnerve/jam-build-docsql/internal/generator"
	"github.com/localnerve/jam-build-docsql/internal/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <variant> [base-name]",
	Short: "Show the tables of a variant's document before extraction",
	Long: `Builds one variant (DOC or DOC_WITH_TABLE1) in a scratch document and prints
every table with its CREATE statement, split into the tables a snapshot keeps
and the storage tables it drops.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	v, err := types.ParseVariant(args[0])
	if err != nil {
		return err
	}
	baseName := "inspect"
	if len(args) == 2 {
		baseName = args[1]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	g, err := generator.New(cfg)
	if err != nil {
		return err
	}

	result, err := g.Inspect(cmd.Context(), baseName, v)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, group := range []struct {
		title  string
		tables []generator.TableInfo
	}{
		{"Kept", result.Logical},
		{"Dropped", result.Internal},
	} {
		fmt.Fprintf(out, "### %s tables of %s (%d)\n", group.title, result.Variant, len(group.tables))
		for _, table := range group.tables {
			fmt.Fprintf(out, "\n=== Table: %s ===\n%s\n", table.Name, table.SQL)
		}
		fmt.Fprintln(out)
	}

	return nil
}
