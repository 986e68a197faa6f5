package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/broker-catalog/internal/collect"
	"github.com/sells-group/broker-catalog/internal/export"
)

var (
	collectIndex    string
	collectURLsFile string
	collectSource   string
	collectSelector string
	collectLimit    int
	collectOut      string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch listing pages and write a listings file",
	Long: "Discovers listing links on an index page (or reads them from a file), " +
		"fetches each listing and writes the fields the broker pipeline consumes.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("collect"); err != nil {
			return err
		}
		if collectIndex == "" && collectURLsFile == "" {
			return eris.New("collect: --index or --urls is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		connector, closeConnector := initConnector(st)
		defer closeConnector()

		var opts []collect.Option
		if collectSelector != "" {
			opts = append(opts, collect.WithLinkSelector(collectSelector))
		}
		c := collect.New(connector, collectSource, opts...)

		var urls []string
		if collectURLsFile != "" {
			urls, err = readURLs(collectURLsFile)
			if err != nil {
				return err
			}
			if collectLimit > 0 && len(urls) > collectLimit {
				urls = urls[:collectLimit]
			}
		} else {
			urls, err = c.DiscoverLinks(ctx, collectIndex, collectLimit)
			if err != nil {
				return err
			}
		}

		listings, errs := c.Collect(ctx, urls)
		for _, e := range errs {
			zap.L().Warn("listing not collected", zap.Error(e))
		}

		out := orString(collectOut, cfg.Paths.Listings)
		if err := export.WriteListings(out, listings); err != nil {
			return err
		}
		zap.L().Info("collection complete",
			zap.String("source", collectSource),
			zap.Int("urls", len(urls)),
			zap.Int("listings", len(listings)),
			zap.Int("failed", len(errs)),
			zap.String("path", out),
		)
		return nil
	},
}

// readURLs reads one URL per line, skipping blanks and # comments.
func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "collect: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, eris.Wrapf(sc.Err(), "collect: read %s", path)
}

func init() {
	collectCmd.Flags().StringVar(&collectIndex, "index", "", "search results page to discover listing links on")
	collectCmd.Flags().StringVar(&collectURLsFile, "urls", "", "file with one listing URL per line")
	collectCmd.Flags().StringVar(&collectSource, "source", "BizBuySell", "source marketplace name")
	collectCmd.Flags().StringVar(&collectSelector, "link-selector", "", "CSS selector for listing links (default "+collect.DefaultLinkSelector+")")
	collectCmd.Flags().IntVar(&collectLimit, "limit", 50, "collect at most this many listings (0 = all)")
	collectCmd.Flags().StringVar(&collectOut, "out", "", "listings CSV to write (default paths.listings)")
	rootCmd.AddCommand(collectCmd)
}
