// cmd/tools/catalog-seeder/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"workflow-chat/internal/catalog"
	"workflow-chat/internal/common/config"
	"workflow-chat/internal/common/database"
	"workflow-chat/internal/common/logger"
	"workflow-chat/internal/models"
	"workflow-chat/pkg/registry"
)

func main() {
	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	seedFile := seedCmd.String("file", "", "JSON file with an array of workflow definitions")
	dryRun := seedCmd.Bool("dry-run", false, "Validate the file without writing to the database")

	registryCmd := flag.NewFlagSet("registry", flag.ExitOnError)
	registryPath := registryCmd.String("path", "configs/intent-registry.json", "Path to the intent registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "seed":
		seedCmd.Parse(os.Args[2:])
		if *seedFile == "" {
			fmt.Println("Error: file is required for seed.")
			seedCmd.Usage()
			os.Exit(1)
		}
		if err := seedCatalog(*seedFile, *dryRun); err != nil {
			fmt.Printf("Error seeding catalog: %v\n", err)
			os.Exit(1)
		}

	case "registry":
		registryCmd.Parse(os.Args[2:])
		if err := validateRegistry(*registryPath); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Registry validation passed.")

	case "help":
		fallthrough
	default:
		help()
	}
}

func seedCatalog(path string, dryRun bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var workflows []models.WorkflowDetail
	if err := json.Unmarshal(data, &workflows); err != nil {
		return fmt.Errorf("failed to decode seed file: %w", err)
	}
	if len(workflows) == 0 {
		return fmt.Errorf("seed file contains no workflows")
	}

	seen := make(map[string]bool)
	for _, wf := range workflows {
		if wf.ID == "" {
			return fmt.Errorf("workflow %q missing required field: ID", wf.Title)
		}
		if wf.Title == "" {
			return fmt.Errorf("workflow %s missing required field: Title", wf.ID)
		}
		if seen[wf.ID] {
			return fmt.Errorf("duplicate workflow ID: %s", wf.ID)
		}
		seen[wf.ID] = true
	}

	if dryRun {
		fmt.Printf("Seed file valid. Found %d workflows.\n", len(workflows))
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pg.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}

	store := catalog.NewStore(pg.DB, logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format))
	for i := range workflows {
		if err := store.UpsertWorkflow(ctx, &workflows[i]); err != nil {
			return fmt.Errorf("failed to upsert workflow %s: %w", workflows[i].ID, err)
		}
		fmt.Printf("Upserted workflow: %s (%s)\n", workflows[i].ID, workflows[i].Title)
	}

	fmt.Printf("Seeded %d workflows.\n", len(workflows))
	return nil
}

func validateRegistry(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	fmt.Printf("Found %d intents.\n", len(reg.Intents))
	return nil
}

func help() {
	fmt.Print(`
Usage: catalog-seeder <command> [flags]

Commands:
  seed     Upsert workflow definitions from a JSON file into the catalog
  registry Validate the intent registry file
  help     Show this help message

Examples:
  catalog-seeder seed -file configs/workflows.json
  catalog-seeder seed -file configs/workflows.json -dry-run
  catalog-seeder registry -path configs/intent-registry.json

Use 'catalog-seeder <command> -h' for more information about a command.

`)
}
