package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dimensigon/schemashift/internal/builder"
	"github.com/dimensigon/schemashift/internal/patterns"
)

var patternCmd = &cobra.Command{
	Use:   "pattern <name>",
	Short: "Generate a migration from the pattern library",
	Long: `Pattern emits a ready-to-run multi-phase migration document for one
of the built-in zero-downtime patterns:

  add-nullable-column    --table --column --type
  add-required-column    --table --column --type --default
  remove-column          --table --column
  rename-column          --table --column --new-column --type
  change-column-type     --table --column --type [--using]
  concurrent-index       --table --index --columns
  foreign-key            --table --constraint --column --ref-table --ref-column
  unique-constraint      --table --constraint --columns`,
	Example: `  schemashift pattern rename-column --table users --column email --new-column email_address --type text -o rename-email.yaml`,
	Args:    cobra.ExactArgs(1),
	Run:     runPattern,
}

var (
	patTable      string
	patColumn     string
	patNewColumn  string
	patType       string
	patDefault    string
	patUsing      string
	patIndex      string
	patConstraint string
	patColumns    []string
	patRefTable   string
	patRefColumn  string
	patOutput     string
)

func init() {
	rootCmd.AddCommand(patternCmd)

	patternCmd.Flags().StringVar(&patTable, "table", "", "Table name")
	patternCmd.Flags().StringVar(&patColumn, "column", "", "Column name")
	patternCmd.Flags().StringVar(&patNewColumn, "new-column", "", "New column name (rename-column)")
	patternCmd.Flags().StringVar(&patType, "type", "", "Column data type")
	patternCmd.Flags().StringVar(&patDefault, "default", "", "Backfill default value (add-required-column)")
	patternCmd.Flags().StringVar(&patUsing, "using", "", "Conversion expression (change-column-type)")
	patternCmd.Flags().StringVar(&patIndex, "index", "", "Index name (concurrent-index)")
	patternCmd.Flags().StringVar(&patConstraint, "constraint", "", "Constraint name")
	patternCmd.Flags().StringSliceVar(&patColumns, "columns", nil, "Column list")
	patternCmd.Flags().StringVar(&patRefTable, "ref-table", "", "Referenced table (foreign-key)")
	patternCmd.Flags().StringVar(&patRefColumn, "ref-column", "", "Referenced column (foreign-key)")
	patternCmd.Flags().StringVarP(&patOutput, "output", "o", "", "Write the migration to a file instead of stdout")
}

func runPattern(cmd *cobra.Command, args []string) {
	b, err := buildPattern(args[0])
	if err != nil {
		log.Fatalf("%v", err)
	}

	data, err := b.YAML()
	if err != nil {
		log.Fatalf("Failed to build migration: %v", err)
	}

	if patOutput == "" {
		fmt.Print(string(data))
		return
	}
	if err := os.WriteFile(patOutput, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", patOutput, err)
	}
	fmt.Printf("Wrote %s\n", patOutput)
}

func buildPattern(name string) (*builder.Builder, error) {
	switch name {
	case "add-nullable-column":
		if err := requireFlags("table", patTable, "column", patColumn, "type", patType); err != nil {
			return nil, err
		}
		return patterns.AddNullableColumn(patTable, patColumn, patType), nil

	case "add-required-column":
		if err := requireFlags("table", patTable, "column", patColumn, "type", patType, "default", patDefault); err != nil {
			return nil, err
		}
		return patterns.AddRequiredColumn(patTable, patColumn, patType, patDefault), nil

	case "remove-column":
		if err := requireFlags("table", patTable, "column", patColumn); err != nil {
			return nil, err
		}
		return patterns.RemoveColumn(patTable, patColumn), nil

	case "rename-column":
		if err := requireFlags("table", patTable, "column", patColumn, "new-column", patNewColumn, "type", patType); err != nil {
			return nil, err
		}
		return patterns.SafeRenameColumn(patTable, patColumn, patNewColumn, patType), nil

	case "change-column-type":
		if err := requireFlags("table", patTable, "column", patColumn, "type", patType); err != nil {
			return nil, err
		}
		return patterns.ChangeColumnType(patTable, patColumn, patType, patUsing), nil

	case "concurrent-index":
		if err := requireFlags("table", patTable, "index", patIndex); err != nil {
			return nil, err
		}
		if len(patColumns) == 0 {
			return nil, fmt.Errorf("pattern concurrent-index requires --columns")
		}
		return patterns.AddConcurrentIndex(patTable, patIndex, patColumns...), nil

	case "foreign-key":
		if err := requireFlags("table", patTable, "constraint", patConstraint, "column", patColumn,
			"ref-table", patRefTable, "ref-column", patRefColumn); err != nil {
			return nil, err
		}
		return patterns.AddForeignKey(patTable, patConstraint, patColumn, patRefTable, patRefColumn), nil

	case "unique-constraint":
		if err := requireFlags("table", patTable, "constraint", patConstraint); err != nil {
			return nil, err
		}
		if len(patColumns) == 0 {
			return nil, fmt.Errorf("pattern unique-constraint requires --columns")
		}
		return patterns.AddUniqueConstraint(patTable, patConstraint, patColumns...), nil

	default:
		return nil, fmt.Errorf("unknown pattern %q (run 'schemashift pattern --help' for the list)", name)
	}
}

// requireFlags takes alternating flag-name/value pairs and reports every
// missing one at once.
func requireFlags(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, "--"+pairs[i])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	return nil
}
