package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xiaot623/healthflow/internal/auth"
	"github.com/xiaot623/healthflow/internal/config"
	"github.com/xiaot623/healthflow/internal/domain"
	"github.com/xiaot623/healthflow/internal/repository"
)

type seedUser struct {
	Email    string
	FullName string
	Role     domain.UserRole
}

var demoUsers = []seedUser{
	{Email: "john.smith@healthflow.test", FullName: "Dr. John Smith", Role: domain.UserRoleDoctor},
	{Email: "priya.sharma@healthflow.test", FullName: "Dr. Priya Sharma", Role: domain.UserRoleDoctor},
	{Email: "emily.chen@healthflow.test", FullName: "Dr. Emily Chen", Role: domain.UserRoleDoctor},
	{Email: "patient@healthflow.test", FullName: "Demo Patient", Role: domain.UserRolePatient},
}

func newSeedCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo doctors and a demo patient",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := repository.NewSQLiteStore(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}
			defer store.Close()

			created, err := seed(cmd.Context(), store, password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users into %s (password %q)\n", created, cfg.DatabasePath, password)
			return err
		},
	}
	cmd.Flags().StringVar(&password, "password", "password123", "password for every demo user")
	return cmd
}

// seed inserts the demo users that do not exist yet and reports how many it created.
func seed(ctx context.Context, store repository.Store, password string) (int, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, su := range demoUsers {
		existing, err := store.GetUserByEmail(ctx, su.Email)
		if err != nil {
			return created, fmt.Errorf("failed to look up %s: %w", su.Email, err)
		}
		if existing != nil {
			continue
		}
		u := &domain.User{Email: su.Email, FullName: su.FullName, Role: su.Role, PasswordHash: hash}
		if err := store.CreateUser(ctx, u); err != nil {
			return created, fmt.Errorf("failed to create %s: %w", su.Email, err)
		}
		created++
	}
	return created, nil
}
