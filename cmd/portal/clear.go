package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hackgods/sus-scheduling/internal/config"
)

func clearPatientsCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear-patients",
		Short: "Remove every registered patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear patients without --yes")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := requirePersistentBackend(cfg, "clear-patients"); err != nil {
				return err
			}
			logger := newLogger(cfg)

			a, err := buildApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.identity.ClearPatients(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("All patient records removed.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the bulk delete")
	return cmd
}
