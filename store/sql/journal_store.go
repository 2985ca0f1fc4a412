package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-deeplink/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// JournalStore persists ingestion diagnostics. It never holds correlation
// state; pending redirect waits live only in memory.
type JournalStore struct {
	db   *bun.DB
	repo repository.Repository[*ingestionRecord]
}

func NewJournalStore(db *bun.DB) (*JournalStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*ingestionRecord](db, ingestionHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid ingestion repository wiring: %w", err)
		}
	}
	return &JournalStore{db: db, repo: repo}, nil
}

// EnsureSchema creates the journal table and its time index when missing.
func (s *JournalStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: journal store is not configured")
	}
	if _, err := s.db.NewCreateTable().
		Model((*ingestionRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("sqlstore: create ingestion table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*ingestionRecord)(nil)).
		Index("deeplink_ingestion_records_created_at_idx").
		Column("created_at").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("sqlstore: create ingestion index: %w", err)
	}
	return nil
}

func (s *JournalStore) Record(ctx context.Context, entry core.IngestionRecord) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: journal store is not configured")
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := entry.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	record := &ingestionRecord{
		ID:          id,
		Kind:        strings.TrimSpace(string(entry.Kind)),
		Outcome:     strings.TrimSpace(string(entry.Outcome)),
		Token:       entry.Token,
		RedactedURL: entry.RedactedURL,
		CreatedAt:   createdAt,
	}
	if record.Kind == "" {
		record.Kind = string(core.EventKindUnrecognized)
	}
	if record.Outcome == "" {
		record.Outcome = string(core.IngestOutcomeIgnored)
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

func (s *JournalStore) List(ctx context.Context, filter core.IngestionFilter) (core.IngestionPage, error) {
	if s == nil || s.repo == nil {
		return core.IngestionPage{}, fmt.Errorf("sqlstore: journal store is not configured")
	}
	filter = core.NormalizeIngestionFilter(filter)
	offset := (filter.Page - 1) * filter.PerPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(filter.PerPage, offset),
	}
	if filter.Kind != "" {
		selectors = append(selectors, repository.SelectBy("kind", "=", string(filter.Kind)))
	}
	if filter.Outcome != "" {
		selectors = append(selectors, repository.SelectBy("outcome", "=", string(filter.Outcome)))
	}
	if filter.Token != "" {
		selectors = append(selectors, repository.SelectBy("token", "=", filter.Token))
	}
	if filter.From != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", ">=", filter.From.UTC()))
	}
	if filter.To != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", "<=", filter.To.UTC()))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.IngestionPage{}, err
	}
	items := make([]core.IngestionRecord, 0, len(records))
	for _, record := range records {
		items = append(items, ingestionRecordToDomain(record))
	}
	return core.IngestionPage{
		Items:   items,
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

func (s *JournalStore) Summary(ctx context.Context) (core.IngestionSummary, error) {
	if s == nil || s.db == nil {
		return core.IngestionSummary{}, fmt.Errorf("sqlstore: journal store is not configured")
	}
	byKind, err := s.countBy(ctx, "kind")
	if err != nil {
		return core.IngestionSummary{}, err
	}
	byOutcome, err := s.countBy(ctx, "outcome")
	if err != nil {
		return core.IngestionSummary{}, err
	}
	summary := core.IngestionSummary{
		ByKind:    make(map[core.EventKind]int, len(byKind)),
		ByOutcome: make(map[core.IngestOutcome]int, len(byOutcome)),
	}
	for _, row := range byKind {
		summary.ByKind[core.EventKind(row.Key)] = row.Total
		summary.Total += row.Total
	}
	for _, row := range byOutcome {
		summary.ByOutcome[core.IngestOutcome(row.Key)] = row.Total
	}
	return summary, nil
}

// Prune deletes records created before olderThan and returns how many were
// removed.
func (s *JournalStore) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: journal store is not configured")
	}
	res, err := s.db.NewDelete().
		Model((*ingestionRecord)(nil)).
		Where("created_at < ?", olderThan.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return prunedCount(res)
}

func prunedCount(res sql.Result) (int, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlstore: prune ingestion records: rows affected: %w", err)
	}
	return int(affected), nil
}

func (s *JournalStore) countBy(ctx context.Context, column string) ([]groupCount, error) {
	var rows []groupCount
	err := s.db.NewSelect().
		Model((*ingestionRecord)(nil)).
		ColumnExpr("? AS group_key", bun.Ident(column)).
		ColumnExpr("COUNT(*) AS total").
		GroupExpr("?", bun.Ident(column)).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: count ingestion records by %s: %w", column, err)
	}
	return rows, nil
}

func ingestionRecordToDomain(record *ingestionRecord) core.IngestionRecord {
	if record == nil {
		return core.IngestionRecord{}
	}
	return core.IngestionRecord{
		ID:          record.ID,
		Kind:        core.EventKind(record.Kind),
		Outcome:     core.IngestOutcome(record.Outcome),
		Token:       record.Token,
		RedactedURL: record.RedactedURL,
		CreatedAt:   record.CreatedAt.UTC(),
	}
}
