package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/umtracker/platform/pkg/identity"
	"gorm.io/gorm"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login accounts",
	}
	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserPasswordCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var username, password, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user with the admin or user role",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(username) == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}
			if !identity.ValidRole(role) {
				return fmt.Errorf("invalid --role %q: %w", role, identity.ErrInvalidRole)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				svc := identity.NewService(identity.NewRepository(db))
				user, err := svc.CreateUser(cmd.Context(), username, password, role)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", user.Username, user.Role, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Login name (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	cmd.Flags().StringVar(&role, "role", "user", "Role: admin or user")
	return cmd
}

func newUserPasswordCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Replace a user's password",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(username) == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(db *gorm.DB) error {
				svc := identity.NewService(identity.NewRepository(db))
				if err := svc.SetPassword(cmd.Context(), username, password); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", username)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Login name (required)")
	cmd.Flags().StringVar(&password, "password", "", "New password (required)")
	return cmd
}
