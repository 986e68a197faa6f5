package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/pipeline"
)

var (
	runListings  string
	runLimit     int
	runTone      string
	runSkipDraft bool
	runDryRun    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract brokers, draft outreach and build the catalog in one tracked run",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		listingsPath := orString(runListings, cfg.Paths.Listings)
		listingFile, err := pipeline.ReadListingFile(listingsPath)
		if err != nil {
			return err
		}
		listings := limitListings(listingFile.Listings, runLimit)

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		connector, closeConnector := initConnector(st)
		defer closeConnector()

		opts, err := pipelineOptions(runDryRun)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithInputErrors(listingFile.Skipped))
		if !runSkipDraft {
			svc, err := initDraftService()
			if err != nil {
				return err
			}
			opts = append(opts, pipeline.WithDrafter(svc, parseTone(runTone)))
		}

		p := pipeline.New(st, connector, opts...)
		records, result, err := p.Run(ctx, model.RunInput{
			Command:      "run",
			ListingsPath: listingsPath,
			OutputDir:    cfg.Paths.OutputDir,
		}, listings)
		if err != nil {
			return eris.Wrap(err, "run")
		}

		zap.L().Info("run complete", zap.Int("catalog_records", len(records)))
		return printResult(os.Stdout, result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runListings, "listings", "", "listings CSV (default from config)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "process at most this many listings (0 = all)")
	runCmd.Flags().StringVar(&runTone, "tone", "", "draft tone: professional, relationship or direct")
	runCmd.Flags().BoolVar(&runSkipDraft, "skip-draft", false, "build the catalog without drafting emails")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "run every stage but write no artifacts")
	rootCmd.AddCommand(runCmd)
}

func printResult(w io.Writer, result *model.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func orString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
