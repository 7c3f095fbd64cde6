// Package main provides the tactics command: it simulates battles from the
// content tree, validates that tree, and reads back the battle archive.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tactics",
	Short: "Turn-based tactical combat engine",
	Long: `tactics runs party-versus-enemy battles from YAML and Lua content,
validates that content, and lists battles archived in PostgreSQL.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file (defaults and TACTICS_* env when empty)")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(archiveCmd)
}
