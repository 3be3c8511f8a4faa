package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the postgres store",
		RunE:  runMigration,
	}
	migrateDir string
)

func init() {
	migrateCmd.Flags().StringVarP(&migrateDir, "dir", "d", "", "sql migrations directory (defaults to POSTGRES_MIGRATIONS_DIR)")
}

func runMigration(_ *cobra.Command, _ []string) error {
	cfg, logger := bootstrap()
	defer logger.Sync() //nolint:errcheck

	if cfg.Postgres.DSN == "" {
		return errors.New("POSTGRES_DSN is not set")
	}
	dir := cfg.Postgres.MigrationsDir
	if migrateDir != "" {
		dir = migrateDir
	}

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := persistence.RunMigrations(ctx, pg.Pool, dir, logger); err != nil {
		logger.Error("migration failed", zap.Error(err))
		return err
	}
	logger.Info("migrations applied", zap.String("dir", dir), zap.String("driver", config.StorageDriverPostgres))
	return nil
}
