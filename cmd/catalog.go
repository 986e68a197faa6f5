package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/pipeline"
)

var (
	catalogListings string
	catalogBrokers  string
	catalogDrafts   string
	catalogDryRun   bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Link listings, brokers and drafts into the tagged catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("catalog"); err != nil {
			return err
		}

		input := model.RunInput{
			Command:      "catalog",
			ListingsPath: orString(catalogListings, cfg.Paths.Listings),
			BrokersPath:  orString(catalogBrokers, cfg.Paths.Brokers),
			DraftsPath:   orString(catalogDrafts, cfg.Paths.Drafts),
			OutputDir:    cfg.Paths.OutputDir,
		}

		listingFile, err := pipeline.ReadListingFile(input.ListingsPath)
		if err != nil {
			return err
		}
		listings := listingFile.Listings
		brokers, err := readOptional(input.BrokersPath, pipeline.ReadBrokers)
		if err != nil {
			return err
		}
		drafts, err := readOptional(input.DraftsPath, pipeline.ReadDrafts)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		opts, err := pipelineOptions(catalogDryRun)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithInputErrors(listingFile.Skipped))

		// Linking never fetches, so no connector is needed.
		p := pipeline.New(st, nil, opts...)
		_, result, err := p.Catalog(ctx, input, listings, brokers, drafts)
		if err != nil {
			return eris.Wrap(err, "catalog")
		}
		return printResult(os.Stdout, result)
	},
}

// readOptional loads a secondary input. A missing file yields no records so
// a catalog can be built from listings alone.
func readOptional[T any](path string, read func(string) ([]T, error)) ([]T, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("input not found, continuing without it", zap.String("path", path))
		return nil, nil
	}
	return read(path)
}

func init() {
	catalogCmd.Flags().StringVar(&catalogListings, "listings", "", "listings CSV (default from config)")
	catalogCmd.Flags().StringVar(&catalogBrokers, "brokers", "", "broker database CSV (default from config)")
	catalogCmd.Flags().StringVar(&catalogDrafts, "drafts", "", "email drafts CSV (default from config)")
	catalogCmd.Flags().BoolVar(&catalogDryRun, "dry-run", false, "build and store the catalog without writing exports")
	rootCmd.AddCommand(catalogCmd)
}
