package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-deeplink/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const ingestionSummaryCacheKey = "go-deeplink::ingestion_summary::v1"

type JournalBackend interface {
	core.IngestionJournal
	core.IngestionJournalReader
	core.IngestionJournalPruner
}

// CachedJournalSummary serves Summary from a cache that is invalidated by
// every write through it.
type CachedJournalSummary struct {
	base  JournalBackend
	cache repositorycache.CacheService
}

func NewCachedJournalSummary(
	base JournalBackend,
	cacheService repositorycache.CacheService,
) (*CachedJournalSummary, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base journal store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: journal cache service is required")
	}
	return &CachedJournalSummary{base: base, cache: cacheService}, nil
}

// NewSummaryCacheService builds the in-process cache used for summaries.
func NewSummaryCacheService(ttl time.Duration) (repositorycache.CacheService, error) {
	config := repositorycache.DefaultConfig()
	if ttl > 0 {
		config.TTL = ttl
	}
	return repositorycache.NewCacheService(config)
}

func (s *CachedJournalSummary) Record(ctx context.Context, record core.IngestionRecord) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached journal is not configured")
	}
	if err := s.base.Record(ctx, record); err != nil {
		return err
	}
	return s.invalidate(ctx)
}

func (s *CachedJournalSummary) List(ctx context.Context, filter core.IngestionFilter) (core.IngestionPage, error) {
	if s == nil || s.base == nil {
		return core.IngestionPage{}, fmt.Errorf("sqlstore: cached journal is not configured")
	}
	return s.base.List(ctx, filter)
}

func (s *CachedJournalSummary) Summary(ctx context.Context) (core.IngestionSummary, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.IngestionSummary{}, fmt.Errorf("sqlstore: cached journal is not configured")
	}
	summary, err := repositorycache.GetOrFetch(ctx, s.cache, ingestionSummaryCacheKey, func(ctx context.Context) (core.IngestionSummary, error) {
		fetched, fetchErr := s.base.Summary(ctx)
		if fetchErr != nil {
			return core.IngestionSummary{}, fetchErr
		}
		return cloneSummary(fetched), nil
	})
	if err != nil {
		return core.IngestionSummary{}, err
	}
	return cloneSummary(summary), nil
}

func (s *CachedJournalSummary) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return 0, fmt.Errorf("sqlstore: cached journal is not configured")
	}
	deleted, err := s.base.Prune(ctx, olderThan)
	if err != nil {
		return deleted, err
	}
	if deleted > 0 {
		if err := s.invalidate(ctx); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

func (s *CachedJournalSummary) invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, ingestionSummaryCacheKey)
}

func cloneSummary(summary core.IngestionSummary) core.IngestionSummary {
	cloned := core.IngestionSummary{
		Total:     summary.Total,
		ByKind:    make(map[core.EventKind]int, len(summary.ByKind)),
		ByOutcome: make(map[core.IngestOutcome]int, len(summary.ByOutcome)),
	}
	for key, value := range summary.ByKind {
		cloned.ByKind[key] = value
	}
	for key, value := range summary.ByOutcome {
		cloned.ByOutcome[key] = value
	}
	return cloned
}
