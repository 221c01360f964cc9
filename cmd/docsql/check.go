package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localnerve/jam-build-docsql/internal/services"
)

var errUnhealthy = errors.New("health check failed")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that snapshots can be generated",
	Long:  `Opens the storage driver, looks for the dump binary and tries the docs root, then prints the result as JSON.`,
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result := services.HealthCheck(cfg)

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling health check result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(output))

	if result.Status != "healthy" {
		return errUnhealthy
	}
	return nil
}
