package cli

import (
	"errors"
	"fmt"
	"strings"

	"amia-console/internal/auth"
	"amia-console/internal/config"
	"amia-console/internal/domain"
	"amia-console/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewSeedAdminCmd creates or replaces an administrator account in Postgres.
func NewSeedAdminCmd(configPath *string) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create or update an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			if err := runMigrations(ctx, cfg, log); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			id, err := postgres.NewDirectory(pool).Upsert(ctx, domain.Profile{
				Email:        email,
				FullName:     name,
				Role:         domain.RoleAdmin,
				PasswordHash: hash,
			})
			if err != nil {
				return err
			}
			log.Info("administrator saved", "id", id, "email", strings.ToLower(email))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "administrator e-mail")
	cmd.Flags().StringVar(&password, "password", "", "administrator password")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}
