package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-deeplink/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type stubJournalBackend struct {
	mu           sync.Mutex
	total        int
	summaryCalls int
	pruned       int
	recordErr    error
}

func (s *stubJournalBackend) Record(context.Context, core.IngestionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	s.total++
	return nil
}

func (s *stubJournalBackend) List(context.Context, core.IngestionFilter) (core.IngestionPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.IngestionPage{Total: s.total}, nil
}

func (s *stubJournalBackend) Summary(context.Context) (core.IngestionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaryCalls++
	return core.IngestionSummary{
		Total:  s.total,
		ByKind: map[core.EventKind]int{core.EventKindUnrecognized: s.total},
	}, nil
}

func (s *stubJournalBackend) Prune(context.Context, time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := s.pruned
	s.total -= deleted
	return deleted, nil
}

func newTestSummaryCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	service, err := NewSummaryCacheService(time.Minute)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func TestCachedJournalSummary_MissFetchThenHit(t *testing.T) {
	base := &stubJournalBackend{total: 2}
	cached, err := NewCachedJournalSummary(base, newTestSummaryCacheService(t))
	if err != nil {
		t.Fatalf("new cached summary: %v", err)
	}

	for range 2 {
		summary, err := cached.Summary(context.Background())
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		if summary.Total != 2 {
			t.Fatalf("expected total 2, got %d", summary.Total)
		}
	}
	if base.summaryCalls != 1 {
		t.Fatalf("expected second summary to be a cache hit, base calls=%d", base.summaryCalls)
	}
}

func TestCachedJournalSummary_RecordInvalidates(t *testing.T) {
	base := &stubJournalBackend{total: 1}
	cached, err := NewCachedJournalSummary(base, newTestSummaryCacheService(t))
	if err != nil {
		t.Fatalf("new cached summary: %v", err)
	}
	if _, err := cached.Summary(context.Background()); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if err := cached.Record(context.Background(), core.IngestionRecord{}); err != nil {
		t.Fatalf("record: %v", err)
	}
	summary, err := cached.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary after record: %v", err)
	}
	if summary.Total != 2 || base.summaryCalls != 2 {
		t.Fatalf("expected refreshed summary, total=%d calls=%d", summary.Total, base.summaryCalls)
	}
}

func TestCachedJournalSummary_RecordErrorKeepsCache(t *testing.T) {
	base := &stubJournalBackend{total: 1, recordErr: errors.New("db down")}
	cached, err := NewCachedJournalSummary(base, newTestSummaryCacheService(t))
	if err != nil {
		t.Fatalf("new cached summary: %v", err)
	}
	_, _ = cached.Summary(context.Background())
	if err := cached.Record(context.Background(), core.IngestionRecord{}); err == nil {
		t.Fatalf("expected record error")
	}
	_, _ = cached.Summary(context.Background())
	if base.summaryCalls != 1 {
		t.Fatalf("expected cache to survive failed write, calls=%d", base.summaryCalls)
	}
}

func TestCachedJournalSummary_PruneInvalidates(t *testing.T) {
	base := &stubJournalBackend{total: 3, pruned: 2}
	cached, err := NewCachedJournalSummary(base, newTestSummaryCacheService(t))
	if err != nil {
		t.Fatalf("new cached summary: %v", err)
	}
	_, _ = cached.Summary(context.Background())
	if deleted, err := cached.Prune(context.Background(), time.Now()); err != nil || deleted != 2 {
		t.Fatalf("expected two deleted, got %d err=%v", deleted, err)
	}
	summary, _ := cached.Summary(context.Background())
	if summary.Total != 1 {
		t.Fatalf("expected refreshed total 1, got %d", summary.Total)
	}
}

func TestNewCachedJournalSummary_RequiresDependencies(t *testing.T) {
	if _, err := NewCachedJournalSummary(nil, newTestSummaryCacheService(t)); err == nil {
		t.Fatalf("expected missing base error")
	}
	if _, err := NewCachedJournalSummary(&stubJournalBackend{}, nil); err == nil {
		t.Fatalf("expected missing cache error")
	}
}
