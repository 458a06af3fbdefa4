package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "schemashift",
	Short: "Schemashift plans and runs zero-downtime schema migrations.",
	Long: `Schemashift plans and runs zero-downtime schema migrations.

Migrations are declared as multi-phase YAML documents, either written by
hand, generated from the built-in pattern library, or composed with the
interactive wizard. Each phase is planned, risk-checked and executed
separately so application deploys can happen between phases.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
