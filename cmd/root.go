package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/config"
)

var cfg *config.Config

// offlineDB is the SQLite file offline runs fall back to.
const offlineDB = "broker-catalog.db"

var (
	offline   bool
	outputDir string
)

var rootCmd = &cobra.Command{
	Use:   "broker-catalog",
	Short: "Broker extraction, outreach drafting and deal catalog builder",
	Long: "Reads scraped business-for-sale listings, extracts and enriches broker contacts, " +
		"drafts outreach emails and links everything into a tagged catalog for Notion, Airtable and Salesforce.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if outputDir != "" {
			c.Paths.OutputDir = outputDir
		}
		if offline {
			c.Drafting.Provider = "stub"
			if c.Store.Driver != "sqlite" {
				c.Store.Driver = "sqlite"
				c.Store.DatabaseURL = offlineDB
			}
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "serve pages from fixtures and draft with the stub generator")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "artifact directory (default from config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
