package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/export"
	"github.com/sells-group/broker-catalog/internal/pipeline"
)

var (
	draftBrokers string
	draftTone    string
	draftLimit   int
	draftDryRun  bool
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Draft one outreach email per broker in the broker database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if draftLimit > 0 {
			cfg.Drafting.MaxPerRun = draftLimit
		}

		brokersPath := orString(draftBrokers, cfg.Paths.Brokers)
		brokers, err := pipeline.ReadBrokers(brokersPath)
		if err != nil {
			return err
		}

		svc, err := initDraftService()
		if err != nil {
			return err
		}

		tone := parseTone(draftTone)
		drafts, errs := svc.DraftAll(ctx, brokers, tone)
		for _, e := range errs {
			zap.L().Warn("draft failed", zap.Error(e))
		}

		if !draftDryRun {
			paths, err := export.NewWriter(cfg.Paths.OutputDir).WriteDrafts(drafts)
			if err != nil {
				return eris.Wrap(err, "draft: export")
			}
			for _, p := range paths {
				fmt.Fprintln(os.Stdout, p)
			}
		}

		zap.L().Info("drafting complete",
			zap.String("tone", string(tone)),
			zap.Int("brokers", len(brokers)),
			zap.Int("drafts", len(drafts)),
			zap.Int("failed", len(errs)),
		)
		if len(drafts) == 0 && len(errs) > 0 {
			return eris.Errorf("draft: all %d drafts failed", len(errs))
		}
		return nil
	},
}

func init() {
	draftCmd.Flags().StringVar(&draftBrokers, "brokers", "", "broker database CSV (default from config)")
	draftCmd.Flags().StringVar(&draftTone, "tone", "", "professional, relationship or direct (default from config)")
	draftCmd.Flags().IntVar(&draftLimit, "limit", 0, "draft for at most this many brokers (default drafting.max_per_run)")
	draftCmd.Flags().BoolVar(&draftDryRun, "dry-run", false, "draft without writing files")
	rootCmd.AddCommand(draftCmd)
}
