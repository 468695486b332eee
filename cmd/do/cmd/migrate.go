package cmd

import (
	"context"
	"fmt"

	"github.com/smartstudy/smartstudy/internal/config"
	"github.com/smartstudy/smartstudy/internal/db"
	"github.com/smartstudy/smartstudy/internal/logger"
	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), "up")
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), "down")
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), "status")
		},
	})
	return cmd
}

func migrate(ctx context.Context, direction string) error {
	cfg := config.Load()
	logger.Init(logger.Options{Development: true})

	// Mongo has no schema; connecting creates the indexes.
	if cfg.UsesMongo() {
		if direction != "up" {
			return fmt.Errorf("migrate %s is not supported for DB_DRIVER=mongo", direction)
		}
		mdb, err := db.InitMongo(ctx, cfg.DBConnection, cfg.MongoDatabase)
		if err != nil {
			return err
		}
		return db.CloseMongo(ctx, mdb)
	}

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(database) }()

	switch direction {
	case "up":
		return db.RunMigrations(database.DB, cfg.DBDriver)
	case "down":
		return db.MigrateDown(database.DB, cfg.DBDriver)
	default:
		return db.MigrationStatus(database.DB, cfg.DBDriver)
	}
}
