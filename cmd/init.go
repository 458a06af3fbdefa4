package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dimensigon/schemashift/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter schemashift.toml and migrations directory",
	Args:  cobra.NoArgs,
	Run:   runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const starterConfig = `# schemashift configuration
default_environment = "development"

[environments.development]
database_url = "postgres://localhost:5432/myapp_dev?sslmode=disable"
backup_dir = ".schemashift/backups"

[environments.production]
# database_url is read from .env.production or the DATABASE_URL
# environment variable; keep credentials out of this file.
# redis_url = "redis://localhost:6379/0"
`

const starterMigration = `migration:
  name: example_add_nickname
  database: postgres
  phases:
    - phase: 1
      description: Add nullable nickname column to users
      operations:
        - type: add_column
          table: users
          column: nickname
          dataType: text
          nullable: true
      validation:
        - type: column_exists
          table: users
          column: nickname
`

func runInit(cmd *cobra.Command, args []string) {
	if _, err := os.Stat(config.ConfigFile); err == nil {
		log.Fatalf("%s already exists", config.ConfigFile)
	}

	if err := os.WriteFile(config.ConfigFile, []byte(starterConfig), 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", config.ConfigFile, err)
	}
	fmt.Printf("Created %s\n", config.ConfigFile)

	if err := os.MkdirAll("migrations", 0o755); err != nil {
		log.Fatalf("Failed to create migrations directory: %v", err)
	}

	examplePath := filepath.Join("migrations", "example_add_nickname.yaml")
	if _, err := os.Stat(examplePath); os.IsNotExist(err) {
		if err := os.WriteFile(examplePath, []byte(starterMigration), 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", examplePath, err)
		}
		fmt.Printf("Created %s\n", examplePath)
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit schemashift.toml with your database URLs")
	fmt.Println("  2. schemashift plan migrations/example_add_nickname.yaml")
	fmt.Println("  3. schemashift apply migrations/example_add_nickname.yaml --dry-run")
}
