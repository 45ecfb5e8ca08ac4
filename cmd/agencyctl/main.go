// Command agencyctl runs maintenance jobs against the dashboard database and
// converts campaign CSV files offline.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agency-dashboard-backend/internal/config"
	"agency-dashboard-backend/internal/db"
	"agency-dashboard-backend/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "agencyctl",
	Short:         "Agency dashboard maintenance tool",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd, campaignCmd, csvCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openDB loads configuration and connects to Postgres. Callers close the
// database and sync the logger.
func openDB() (*sql.DB, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		return nil, nil, err
	}
	database, err := db.Connect(cfg.ConnString())
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return database, logger, nil
}
