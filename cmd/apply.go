package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/dimensigon/schemashift/database"
	"github.com/dimensigon/schemashift/internal/backup"
	"github.com/dimensigon/schemashift/internal/config"
	"github.com/dimensigon/schemashift/internal/engine"
	"github.com/dimensigon/schemashift/internal/planner"
	"github.com/dimensigon/schemashift/internal/statestore"
)

var applyCmd = &cobra.Command{
	Use:   "apply <migration-file>",
	Short: "Execute a migration against the target database",
	Long: `Apply loads a migration document, takes a safety snapshot, then runs
each phase in order against the target database. On failure the engine
rolls back the failing phase and every completed phase in reverse order,
and the execution record keeps the original error.

Multi-phase migrations are normally run one phase at a time with --phase,
deploying application code between phases.`,
	Example: `  # Run every phase
  schemashift apply migrations/add-index.yaml --environment production

  # Run only phase 2, after the phase-1 code deploy
  schemashift apply migrations/rename-email.yaml --phase 2

  # Show the plan without touching the database
  schemashift apply migrations/rename-email.yaml --dry-run`,
	Args: cobra.ExactArgs(1),
	Run:  runApply,
}

var (
	applyPhase        int
	applyDryRun       bool
	applySkipSnapshot bool
	applyEnvironment  string
	applyTarget       string
	applyAutoApprove  bool
	applyVerbose      bool
)

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().IntVar(&applyPhase, "phase", 0, "Phase number to execute (1-based, 0 runs all phases)")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Show what would be executed without applying changes")
	applyCmd.Flags().BoolVar(&applySkipSnapshot, "skip-snapshot", false, "Skip the pre-migration safety snapshot (not recommended)")
	applyCmd.Flags().StringVar(&applyEnvironment, "environment", "", "Named environment from schemashift.toml")
	applyCmd.Flags().StringVar(&applyTarget, "target", "", "Target database connection string (overrides the environment)")
	applyCmd.Flags().BoolVar(&applyAutoApprove, "auto-approve", false, "Automatically approve execution without prompting")
	applyCmd.Flags().BoolVarP(&applyVerbose, "verbose", "v", false, "Enable verbose output")
}

func runApply(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	def, err := planner.LoadFile(args[0])
	if err != nil {
		log.Fatalf("Failed to load migration: %v", err)
	}

	plan, err := planner.Generate(def)
	if err != nil {
		log.Fatalf("Failed to generate plan: %v", err)
	}

	printPlan(plan)

	if applyDryRun {
		fmt.Println("DRY RUN: no changes will be applied")
	}

	env, err := resolveEnvironment()
	if err != nil {
		log.Fatalf("Failed to resolve environment: %v", err)
	}

	if !applyDryRun && !applyAutoApprove {
		target := applyPhase
		prompt := "Proceed with execution? (yes/no): "
		if target != 0 {
			prompt = fmt.Sprintf("Proceed with phase %d execution? (yes/no): ", target)
		}
		fmt.Print(prompt)
		var response string
		if _, err := fmt.Scanln(&response); err != nil {
			log.Fatalf("Failed to read input: %v", err)
		}
		if response != "yes" && response != "y" {
			fmt.Println("Cancelled")
			return
		}
	}

	connStr := applyTarget
	if connStr == "" {
		connStr = env.DatabaseURL
	}
	if connStr == "" && !applyDryRun {
		log.Fatalf("No database connection specified (use --target, --environment, or configure %s)", config.ConfigFile)
	}

	var db *database.Conn
	if !applyDryRun {
		db, err = database.Connect(ctx, connStr)
		if err != nil {
			log.Fatalf("Failed to connect to target database: %v", err)
		}
		defer func() { _ = db.Close() }()

		if db.Dialect != def.Dialect {
			log.Fatalf("Migration targets %s but the connection is %s", def.Dialect, db.Dialect)
		}
	}

	flags, redisStore, err := openFlagStore(env)
	if err != nil {
		log.Fatalf("Failed to open state store: %v", err)
	}
	if redisStore != nil {
		defer func() { _ = redisStore.Close() }()
	}

	eng := engine.New(db, backup.NewManager(env.BackupDir), flags)

	exec, execErr := eng.Execute(ctx, def, engine.Options{
		DryRun:       applyDryRun,
		SkipSnapshot: applySkipSnapshot,
		Phase:        applyPhase,
	})

	if redisStore != nil {
		if err := eng.PersistHistory(ctx, redisStore); err != nil {
			fmt.Printf("WARNING: failed to persist execution history: %v\n", err)
		}
	}

	if exec != nil {
		printExecution(exec)
	}

	if execErr != nil {
		log.Fatalf("Migration failed: %v", execErr)
	}
}

func printExecution(exec *engine.Execution) {
	fmt.Printf("\nExecution %s: %s\n", exec.ID, exec.Status)
	if exec.BackupRef != "" {
		fmt.Printf("Snapshot: %s\n", exec.BackupRef)
	}
	for _, pr := range exec.PhaseResults {
		if pr.Status == engine.PhaseCompleted {
			fmt.Printf("  ✅ phase %d: %d statements\n", pr.PhaseNumber, pr.StatementsExecuted)
		} else {
			fmt.Printf("  ❌ phase %d: %s\n", pr.PhaseNumber, pr.Error)
		}
	}
	for _, msg := range exec.RollbackErrors {
		fmt.Printf("  rollback: %s\n", msg)
	}
}

// resolveEnvironment loads schemashift.toml and resolves the requested
// environment. A missing config file is fine when --target is given.
func resolveEnvironment() (*config.Environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg.Resolve(applyEnvironment)
}

// openFlagStore picks Redis when the environment configures it, so
// dual-write flags are visible to every application host. The memory
// store is a single-process fallback.
func openFlagStore(env *config.Environment) (engine.FlagStore, *statestore.Redis, error) {
	if env.RedisURL == "" {
		return statestore.NewMemory(), nil, nil
	}
	redisStore, err := statestore.NewRedis(env.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return redisStore, redisStore, nil
}
