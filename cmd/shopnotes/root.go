package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/shopnotes/app"
	"github.com/dmitrymomot/shopnotes/pkg/config"
	"github.com/dmitrymomot/shopnotes/pkg/logger"
)

var (
	verbose bool

	appCfg app.Config
	log    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shopnotes",
	Short: "Plan entitlements and note version history for the shopnotes Shopify app",
	Long: `shopnotes serves the notes API, applies Shopify billing webhooks and
keeps every shop's plan, quotas and version history in PostgreSQL.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.Load(&appCfg); err != nil {
			return err
		}
		var opts []logger.Option
		if verbose {
			opts = append(opts, logger.WithLevel(slog.LevelDebug))
		}
		log = app.NewLogger(appCfg, opts...)
		logger.SetAsDefault(log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
