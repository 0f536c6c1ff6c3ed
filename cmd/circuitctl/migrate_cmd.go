package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/umtracker/platform/pkg/migrations"
	"gorm.io/gorm"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the circuits, import_reports and users tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				if err := migrations.Run(db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}
