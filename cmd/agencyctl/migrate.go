package main

import (
	"github.com/spf13/cobra"

	"agency-dashboard-backend/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, logger, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()
		defer func() { _ = logger.Sync() }()

		if err := db.Migrate(cmd.Context(), database); err != nil {
			return err
		}
		logger.Info("schema applied")
		return nil
	},
}
