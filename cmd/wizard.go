package cmd

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dimensigon/schemashift/internal/wizard"
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Compose a migration interactively",
	Long: `Wizard walks through the pattern library interactively and writes
the resulting migration document.`,
	Args: cobra.NoArgs,
	Run:  runWizard,
}

var wizardOutput string

func init() {
	rootCmd.AddCommand(wizardCmd)
	wizardCmd.Flags().StringVarP(&wizardOutput, "output", "o", "", "Write the migration to a file instead of stdout")
}

func runWizard(cmd *cobra.Command, args []string) {
	final, err := tea.NewProgram(wizard.New()).Run()
	if err != nil {
		log.Fatalf("Wizard failed: %v", err)
	}

	model, ok := final.(wizard.Model)
	if !ok {
		log.Fatalf("Wizard returned unexpected model type")
	}
	if model.Aborted() {
		fmt.Println("Cancelled")
		return
	}
	if model.Err != nil {
		log.Fatalf("Failed to build migration: %v", model.Err)
	}

	if wizardOutput == "" {
		fmt.Print(string(model.YAML))
		return
	}
	if err := os.WriteFile(wizardOutput, model.YAML, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", wizardOutput, err)
	}
	fmt.Printf("Wrote %s\n", wizardOutput)
}
