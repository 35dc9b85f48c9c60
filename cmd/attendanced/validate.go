package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Liyanipatel27/attendance-new/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the attendanced configuration file for syntax and semantic errors.`,
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration validation failed: %v\n", err)
		return err
	}

	fmt.Fprintf(os.Stdout, "configuration is valid\n")
	fmt.Fprintf(os.Stdout, "  server:       %s:%d\n", cfg.Server.BindAddress, cfg.Server.Port)
	fmt.Fprintf(os.Stdout, "  database:     %s\n", cfg.Database.Path)
	if cfg.Sheets.Enabled {
		fmt.Fprintf(os.Stdout, "  spreadsheet:  %s (%d tabs mapped)\n", cfg.Sheets.SpreadsheetID, len(cfg.Sheets.SheetIDs))
	} else {
		fmt.Fprintf(os.Stdout, "  spreadsheet:  disabled, serving schedules from the database\n")
	}
	if cfg.Verification.Enabled {
		fmt.Fprintf(os.Stdout, "  verification: %s\n", cfg.Verification.URL)
	} else {
		fmt.Fprintf(os.Stdout, "  verification: disabled\n")
	}
	return nil
}
