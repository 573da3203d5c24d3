package cmd

import (
	"database/sql"
	"fmt"

	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/db"
	"github.com/rentdesk/rentdesk/internal/logger"

	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(db.RunMigrations)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(db.MigrateDown)
		},
	})

	return cmd
}

func runMigrate(step func(*sql.DB, string) error) error {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), "")

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(database) }()

	if err := step(database.DB, cfg.DBDriver); err != nil {
		return err
	}

	fmt.Println("ok")
	return nil
}
