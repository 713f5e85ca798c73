// portfin-admin carries the operational commands that do not belong in the
// API process: schema migration, seeding master data, and audit retention.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/seaboard-ops/port-finance/internal/config"
	"github.com/seaboard-ops/port-finance/internal/logging"
	"github.com/seaboard-ops/port-finance/internal/repository"
	"github.com/seaboard-ops/port-finance/internal/seed"
	"github.com/seaboard-ops/port-finance/internal/service"
)

var rootCmd = &cobra.Command{
	Use:           "portfin-admin",
	Short:         "Operational commands for the port finance service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		db, cleanup, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if err := repository.RunMigrations(db, dir); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert baseline users and master data",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, cleanup, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if err := seed.Run(cmd.Context(), db); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "seed data inserted")
		return nil
	},
}

var auditTrimCmd = &cobra.Command{
	Use:   "audit-trim",
	Short: "Delete all but the newest N audit rows per subject",
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")
		db, cleanup, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		audit := service.NewAuditService(repository.NewAuditRepository(db), cfg.AuditKeepCount, db)
		deleted, err := audit.Trim(cmd.Context(), keep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d audit rows\n", deleted)
		return nil
	},
}

var cfg *config.Config

func openDB(ctx context.Context) (*sql.DB, func(), error) {
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("openDB: %w", err)
	}
	return db, func() { db.Close() }, nil
}

func main() {
	loaded, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg = loaded
	logging.Init("portfin-admin", cfg.LogLevel, cfg.AppEnv)

	migrateCmd.Flags().String("dir", "migrations", "directory holding *.up.sql files")
	auditTrimCmd.Flags().Int("keep", 0, "rows to keep per subject (0 = configured default)")

	rootCmd.AddCommand(migrateCmd, seedCmd, auditTrimCmd)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
