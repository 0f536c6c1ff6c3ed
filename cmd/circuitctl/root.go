package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/umtracker/platform/pkg/common/config"
	"github.com/umtracker/platform/pkg/common/database"
	"github.com/umtracker/platform/pkg/common/logger"
	"gorm.io/gorm"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "circuitctl",
		Short:         "Administrative tasks for the circuit tracker database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init()
		},
	}

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newExportCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// withDB opens the configured database for the duration of fn.
func withDB(ctx context.Context, fn func(db *gorm.DB) error) error {
	cfg := config.Load()
	db, err := database.OpenPostgres(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer database.ClosePostgres(db)
	return fn(db)
}
