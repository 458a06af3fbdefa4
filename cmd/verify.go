package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dimensigon/schemashift/internal/planner"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <migration-file>",
	Short: "Check a migration for safety issues before running it",
	Long: `Verify loads a migration document and reports errors, warnings and
recommendations: irreversible operations, phases without rollback,
non-concurrent index builds and SQL that fails to parse.

The command exits non-zero only on errors; warnings are advisory.`,
	Example: `  schemashift verify migrations/rename-email.yaml`,
	Args:    cobra.ExactArgs(1),
	Run:     runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) {
	def, err := planner.LoadFile(args[0])
	if err != nil {
		log.Fatalf("Failed to load migration: %v", err)
	}

	result, err := planner.Verify(def)
	if err != nil {
		log.Fatalf("Failed to verify migration: %v", err)
	}

	for _, msg := range result.Errors {
		fmt.Printf("ERROR: %s\n", msg)
	}
	for _, msg := range result.Warnings {
		fmt.Printf("WARNING: %s\n", msg)
	}
	for _, msg := range result.Recommendations {
		fmt.Printf("RECOMMENDATION: %s\n", msg)
	}

	if !result.Safe {
		fmt.Printf("\n❌ %s failed verification\n", def.Name)
		os.Exit(1)
	}

	fmt.Printf("\n✅ %s passed verification (%d warnings)\n", def.Name, len(result.Warnings))
}
