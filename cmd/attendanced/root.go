package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "attendanced",
	Short: "College attendance service",
	Long: `attendanced resolves live timetable slots from a shared Google Sheet,
coordinates faculty attendance sessions over websockets, and records
verified attendance in SQLite.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to the serve command when no subcommand is given.
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
