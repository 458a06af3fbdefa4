package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/dimensigon/schemashift/internal/planner"
)

var planCmd = &cobra.Command{
	Use:   "plan <migration-file>",
	Short: "Show the execution plan for a migration",
	Long: `Load a migration document, synthesize the SQL for every phase and
print the plan together with the planner's risk findings. Nothing is
executed and no database connection is needed.`,
	Example: `  schemashift plan migrations/rename-email.yaml`,
	Args:    cobra.ExactArgs(1),
	Run:     runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) {
	def, err := planner.LoadFile(args[0])
	if err != nil {
		log.Fatalf("Failed to load migration: %v", err)
	}

	plan, err := planner.Generate(def)
	if err != nil {
		log.Fatalf("Failed to generate plan: %v", err)
	}

	printPlan(plan)
}

func printPlan(plan *planner.Plan) {
	fmt.Printf("Migration: %s (%s)\n", plan.Migration.Name, plan.Migration.Dialect)
	fmt.Printf("Phases: %d\n", len(plan.Phases))
	fmt.Printf("Estimated duration: %s\n\n", time.Duration(plan.EstimatedDurationMs)*time.Millisecond)

	for _, pp := range plan.Phases {
		fmt.Printf("Phase %d: %s\n", pp.Phase.Number, pp.Phase.Description)
		if len(pp.Statements) == 0 {
			fmt.Println("  (no SQL; flag toggles only)")
		}
		for _, stmt := range pp.Statements {
			fmt.Printf("  %s\n", stmt)
		}
		for _, v := range pp.Phase.Validations {
			fmt.Printf("  validate: %s\n", v.Describe())
		}
		fmt.Println()
	}

	if len(plan.Risks) > 0 {
		fmt.Printf("Risks (%d):\n", len(plan.Risks))
		for _, risk := range plan.Risks {
			fmt.Printf("  - %s\n", risk)
		}
	} else {
		fmt.Println("No lock or downtime risks detected.")
	}
}
