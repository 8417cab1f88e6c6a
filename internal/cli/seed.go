package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"github.com/yuyuyu0706/quiz-practice/internal/config"
	filecatalog "github.com/yuyuyu0706/quiz-practice/internal/infra/file"
	pgcatalog "github.com/yuyuyu0706/quiz-practice/internal/infra/postgres"
)

// NewSeedCmd loads the question file into the Postgres catalog table.
func NewSeedCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the question catalog file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
	return cmd
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	catalogPath := cfg.Catalog.Path
	if catalogPath == "" {
		catalogPath = defaultCatalogPath
	}
	questions, err := filecatalog.NewCatalog(catalogPath).Load(ctx)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("catalog file %s is empty", catalogPath)
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pgcatalog.NewCatalog(pool).Replace(ctx, questions); err != nil {
		return err
	}
	log.Printf("seeded %d questions from %s", len(questions), catalogPath)
	return nil
}
