package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/pipeline"
)

var (
	brokersListings string
	brokersLimit    int
	brokersDryRun   bool
)

var brokersCmd = &cobra.Command{
	Use:   "brokers",
	Short: "Extract, dedupe and enrich brokers from a listings file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("brokers"); err != nil {
			return err
		}

		listingsPath := orString(brokersListings, cfg.Paths.Listings)
		listingFile, err := pipeline.ReadListingFile(listingsPath)
		if err != nil {
			return err
		}
		listings := limitListings(listingFile.Listings, brokersLimit)

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		connector, closeConnector := initConnector(st)
		defer closeConnector()

		opts, err := pipelineOptions(brokersDryRun)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithInputErrors(listingFile.Skipped))

		p := pipeline.New(st, connector, opts...)
		_, result, err := p.Brokers(ctx, model.RunInput{
			Command:      "brokers",
			ListingsPath: listingsPath,
			OutputDir:    cfg.Paths.OutputDir,
		}, listings)
		if err != nil {
			return eris.Wrap(err, "brokers")
		}
		return printResult(os.Stdout, result)
	},
}

func init() {
	brokersCmd.Flags().StringVar(&brokersListings, "listings", "", "listings CSV (default from config)")
	brokersCmd.Flags().IntVar(&brokersLimit, "limit", 0, "process at most this many listings (0 = all)")
	brokersCmd.Flags().BoolVar(&brokersDryRun, "dry-run", false, "extract without writing the broker database")
	rootCmd.AddCommand(brokersCmd)
}
