package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/broker-catalog/internal/export"
	"github.com/sells-group/broker-catalog/internal/model"
	"github.com/sells-group/broker-catalog/internal/store"
)

var (
	syncRunID  string
	syncDryRun bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push a stored catalog to Notion and Salesforce",
	Long: "Loads the catalog of a finished run (the latest one by default) and pushes it " +
		"to every configured destination concurrently.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("sync"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runID := syncRunID
		if runID == "" {
			runID, err = latestCatalogRun(ctx, st)
			if err != nil {
				return err
			}
		}
		records, err := st.ListCatalog(ctx, runID)
		if err != nil {
			return eris.Wrapf(err, "sync: load catalog for run %s", runID)
		}

		log := zap.L().With(zap.String("run_id", runID), zap.Int("records", len(records)))
		if syncDryRun {
			printSyncPlan(os.Stdout, runID, records)
			return nil
		}

		g, gctx := errgroup.WithContext(ctx)
		if cfg.Notion.Token != "" {
			g.Go(func() error {
				res, err := export.PushNotion(gctx, initNotion(), cfg.Notion.CatalogDB, records)
				if err != nil {
					return eris.Wrap(err, "sync: notion")
				}
				log.Info("notion synced", zap.Int("created", res.Created), zap.Int("updated", res.Updated))
				return nil
			})
		}
		if cfg.Salesforce.Username != "" {
			g.Go(func() error {
				sf, err := initSalesforce()
				if err != nil {
					return err
				}
				res, err := export.SyncSalesforce(gctx, sf, records)
				if err != nil {
					return eris.Wrap(err, "sync: salesforce")
				}
				log.Info("salesforce synced", zap.Int("contacts", res.Contacts), zap.Int("accounts_created", res.AccountsCreated))
				return nil
			})
		}
		return g.Wait()
	},
}

// latestCatalogRun returns the newest completed run that stored a catalog.
func latestCatalogRun(ctx context.Context, st store.Store) (string, error) {
	runs, err := st.ListRuns(ctx, store.RunFilter{Status: model.RunStatusComplete, Limit: 50})
	if err != nil {
		return "", eris.Wrap(err, "sync: list runs")
	}
	for _, r := range runs {
		if r.Result != nil && r.Result.Catalog > 0 {
			return r.ID, nil
		}
	}
	return "", eris.New("sync: no completed run with a catalog; pass --run")
}

func printSyncPlan(w io.Writer, runID string, records []model.CatalogRecord) {
	_, _ = fmt.Fprintf(w, "run %s: %d catalog records\n", runID, len(records))
	if cfg.Notion.Token != "" {
		_, _ = fmt.Fprintf(w, "  notion database %s: %d pages to upsert\n", cfg.Notion.CatalogDB, len(records))
	}
	if cfg.Salesforce.Username != "" {
		firms := make(map[string]bool)
		brokers := 0
		for _, r := range records {
			if r.Raw.BrokerName == "" {
				continue
			}
			brokers++
			firms[orString(r.Raw.BrokerFirm, export.IndependentFirm)] = true
		}
		_, _ = fmt.Fprintf(w, "  salesforce: %d accounts, up to %d contacts\n", len(firms), brokers)
	}
}

func init() {
	syncCmd.Flags().StringVar(&syncRunID, "run", "", "run id whose catalog to push (default latest)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "show what would be pushed without calling any API")
	rootCmd.AddCommand(syncCmd)
}
