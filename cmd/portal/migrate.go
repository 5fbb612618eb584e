package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hackgods/sus-scheduling/internal/config"
	"github.com/hackgods/sus-scheduling/internal/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres record table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.StoreBackend != config.BackendPostgres {
				fmt.Printf("STORE_BACKEND=%s has no schema, nothing to do.\n", cfg.StoreBackend)
				return nil
			}

			ctx := context.Background()
			pool, err := connectPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Println("Schema is up to date.")
			return nil
		},
	}
}
