package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agency-dashboard-backend/internal/auth"
	"agency-dashboard-backend/internal/campaigns"
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Import and export campaigns",
}

var (
	importName string
	exportOut  string
)

var campaignImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import a CSV file as a new unassigned campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignImport,
}

var campaignExportCmd = &cobra.Command{
	Use:   "export <campaign-id>",
	Short: "Write a campaign's leads as CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignExport,
}

func init() {
	campaignImportCmd.Flags().StringVar(&importName, "name", "", "campaign name (defaults to the file name)")
	campaignExportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (defaults to stdout)")
	campaignCmd.AddCommand(campaignImportCmd, campaignExportCmd)
}

func runCampaignImport(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	name := strings.TrimSpace(importName)
	if name == "" {
		base := filepath.Base(args[0])
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	c, err := campaigns.FromCSV(name, string(raw), auth.Principal{}, time.Now())
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	database, logger, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()
	defer func() { _ = logger.Sync() }()

	store := &campaigns.PGStore{DB: database}
	if err := store.Create(cmd.Context(), c); err != nil {
		return err
	}

	logger.Info("campaign imported", zap.String("campaign_id", c.ID), zap.Int("leads", len(c.Leads)))
	fmt.Fprintln(cmd.OutOrStdout(), c.ID)
	return nil
}

func runCampaignExport(cmd *cobra.Command, args []string) error {
	database, logger, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()
	defer func() { _ = logger.Sync() }()

	store := &campaigns.PGStore{DB: database}
	c, err := store.ByID(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if exportOut == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), c.CSV())
		return err
	}
	if err := os.WriteFile(exportOut, []byte(c.CSV()), 0o644); err != nil {
		return err
	}
	logger.Info("campaign exported", zap.String("campaign_id", c.ID), zap.String("file", exportOut))
	return nil
}
