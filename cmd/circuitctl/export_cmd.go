package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/umtracker/platform/pkg/circuits"
	"github.com/umtracker/platform/pkg/csvcodec"
	"gorm.io/gorm"
)

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every circuit as CSV, in the same layout the import endpoint accepts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				all, err := circuits.NewRepository(db).GetAll(cmd.Context())
				if err != nil {
					return err
				}

				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create %s: %w", output, err)
					}
					defer f.Close()
					w = f
				}
				return csvcodec.Encode(w, all)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, - for stdout")
	return cmd
}
