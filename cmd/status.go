package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dimensigon/schemashift/internal/config"
	"github.com/dimensigon/schemashift/internal/engine"
	"github.com/dimensigon/schemashift/internal/statestore"
)

const executionKeyPrefix = "schemashift:execution:"

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show persisted migration executions",
	Long: `Status lists the execution records persisted to the environment's
state store, most recent last. It requires a redis_url in the resolved
environment; in-process history is only visible to the apply command
that produced it.`,
	Args: cobra.NoArgs,
	Run:  runStatus,
}

var statusEnvironment string

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusEnvironment, "environment", "", "Named environment from schemashift.toml")
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	env, err := cfg.Resolve(statusEnvironment)
	if err != nil {
		log.Fatalf("Failed to resolve environment: %v", err)
	}
	if env.RedisURL == "" {
		log.Fatalf("Environment %s has no redis_url; execution history is not persisted", env.Name)
	}

	store, err := statestore.NewRedis(env.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to state store: %v", err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.List(ctx, executionKeyPrefix)
	if err != nil {
		log.Fatalf("Failed to list executions: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("No executions recorded.")
		return
	}

	executions := make([]engine.Execution, 0, len(records))
	for key, value := range records {
		var exec engine.Execution
		if err := json.Unmarshal([]byte(value), &exec); err != nil {
			fmt.Printf("WARNING: skipping malformed record %s: %v\n", key, err)
			continue
		}
		executions = append(executions, exec)
	}
	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.Before(executions[j].StartedAt)
	})

	for _, exec := range executions {
		fmt.Printf("%s  %-10s  %-30s  phase %d/%d  %s\n",
			exec.StartedAt.Format("2006-01-02 15:04:05"),
			exec.Status,
			exec.MigrationName,
			exec.CurrentPhase,
			len(exec.PhaseResults),
			exec.ID)
	}

	last := executions[len(executions)-1]
	fmt.Printf("\nLast migration: %s (%s)\n", last.MigrationName, last.Status)
}
