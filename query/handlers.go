package query

import (
	"context"

	"github.com/goliatone/go-deeplink/core"
)

type PendingReader interface {
	PendingRedirects() []string
	PendingOffers() int
}

type IngestionReader interface {
	List(ctx context.Context, filter core.IngestionFilter) (core.IngestionPage, error)
}

type IngestionSummaryReader interface {
	Summary(ctx context.Context) (core.IngestionSummary, error)
}

type PendingRedirectsQuery struct {
	reader PendingReader
}

func NewPendingRedirectsQuery(reader PendingReader) *PendingRedirectsQuery {
	return &PendingRedirectsQuery{reader: reader}
}

func (q *PendingRedirectsQuery) Query(context.Context, PendingRedirectsMessage) ([]string, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: pending redirect reader is required")
	}
	return q.reader.PendingRedirects(), nil
}

type PendingOffersQuery struct {
	reader PendingReader
}

func NewPendingOffersQuery(reader PendingReader) *PendingOffersQuery {
	return &PendingOffersQuery{reader: reader}
}

func (q *PendingOffersQuery) Query(context.Context, PendingOffersMessage) (int, error) {
	if q == nil || q.reader == nil {
		return 0, queryDependencyError("query: pending offer reader is required")
	}
	return q.reader.PendingOffers(), nil
}

type ListIngestionQuery struct {
	reader IngestionReader
}

func NewListIngestionQuery(reader IngestionReader) *ListIngestionQuery {
	return &ListIngestionQuery{reader: reader}
}

func (q *ListIngestionQuery) Query(ctx context.Context, msg ListIngestionMessage) (core.IngestionPage, error) {
	if q == nil || q.reader == nil {
		return core.IngestionPage{}, queryDependencyError("query: ingestion journal reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.IngestionPage{}, err
	}
	return q.reader.List(ctx, core.NormalizeIngestionFilter(msg.Filter))
}

type IngestionSummaryQuery struct {
	reader IngestionSummaryReader
}

func NewIngestionSummaryQuery(reader IngestionSummaryReader) *IngestionSummaryQuery {
	return &IngestionSummaryQuery{reader: reader}
}

func (q *IngestionSummaryQuery) Query(ctx context.Context, _ IngestionSummaryMessage) (core.IngestionSummary, error) {
	if q == nil || q.reader == nil {
		return core.IngestionSummary{}, queryDependencyError("query: ingestion summary reader is required")
	}
	return q.reader.Summary(ctx)
}
