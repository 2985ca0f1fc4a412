package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	deeplink "github.com/goliatone/go-deeplink"
	"github.com/goliatone/go-deeplink/core"
	deeplinkquery "github.com/goliatone/go-deeplink/query"
	sqlstore "github.com/goliatone/go-deeplink/store/sql"
	"github.com/spf13/cobra"
)

type journalOptions struct {
	driver string
	dsn    string
}

func (o *journalOptions) bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.driver, "db-driver", sqlstore.DriverSQLite,
		"journal database driver (sqlite3 or postgres)")
	cmd.PersistentFlags().StringVar(&o.dsn, "dsn", "",
		"journal database DSN")
}

// openJournal opens the journal store behind the summary cache and makes
// sure the schema exists. The returned close func releases the connection.
func openJournal(ctx context.Context, opts journalOptions, summaryTTL time.Duration) (*sqlstore.CachedJournalSummary, func() error, error) {
	client, err := sqlstore.Open(ctx, opts.driver, opts.dsn)
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlstore.NewJournalStoreFromPersistence(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	cache, err := sqlstore.NewSummaryCacheService(summaryTTL)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	cached, err := sqlstore.NewCachedJournalSummary(store, cache)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return cached, client.Close, nil
}

// pendingNone satisfies the facade's service side for read-only journal
// commands, which run outside a live service.
type pendingNone struct{}

func (pendingNone) HandleURL(_ context.Context, raw string) core.IngestResult {
	return core.IngestResult{Event: core.Unrecognized(raw), Outcome: core.IngestOutcomeIgnored}
}
func (pendingNone) DeliverRedirect(string, string) bool { return false }
func (pendingNone) SubmitOffer(string) error            { return nil }
func (pendingNone) PendingRedirects() []string          { return nil }
func (pendingNone) PendingOffers() int                  { return 0 }

func newJournalCommand(_ *rootOptions) *cobra.Command {
	opts := journalOptions{}
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect and prune the ingestion journal",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.dsn == "" {
				return fmt.Errorf("--dsn is required")
			}
			return nil
		},
	}
	opts.bind(cmd)

	var filter core.IngestionFilter
	var kind, outcome string
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded ingestions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			journal, closeFn, err := openJournal(cmd.Context(), opts, 0)
			if err != nil {
				return err
			}
			defer closeFn()
			facade, err := deeplink.NewFacade(pendingNone{}, deeplink.WithJournalReader(journal))
			if err != nil {
				return err
			}
			filter.Kind = core.EventKind(kind)
			filter.Outcome = core.IngestOutcome(outcome)
			page, err := facade.Queries().ListIngestion.Query(cmd.Context(), deeplinkquery.ListIngestionMessage{Filter: filter})
			if err != nil {
				return err
			}
			return writeJSON(cmd, page)
		},
	}
	list.Flags().StringVar(&kind, "kind", "", "filter by kind")
	list.Flags().StringVar(&outcome, "outcome", "", "filter by outcome")
	list.Flags().StringVar(&filter.Token, "token", "", "filter by redirect token")
	list.Flags().IntVar(&filter.Page, "page", 1, "page number")
	list.Flags().IntVar(&filter.PerPage, "per-page", core.DefaultIngestionPerPage, "records per page")

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Count recorded ingestions by kind and outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			journal, closeFn, err := openJournal(cmd.Context(), opts, 0)
			if err != nil {
				return err
			}
			defer closeFn()
			facade, err := deeplink.NewFacade(pendingNone{}, deeplink.WithJournalReader(journal))
			if err != nil {
				return err
			}
			result, err := facade.Queries().IngestionSummary.Query(cmd.Context(), deeplinkquery.IngestionSummaryMessage{})
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete records older than the given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			journal, closeFn, err := openJournal(cmd.Context(), opts, 0)
			if err != nil {
				return err
			}
			defer closeFn()
			deleted, err := journal.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d records\n", deleted)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "minimum record age to delete")

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded journal migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := sqlstore.Open(cmd.Context(), opts.driver, opts.dsn)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()
			if err := sqlstore.Migrate(cmd.Context(), client, opts.driver); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "journal schema up to date")
			return nil
		},
	}

	cmd.AddCommand(list, summary, prune, migrate)
	return cmd
}

func writeJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
