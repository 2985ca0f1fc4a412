package query

import (
	"github.com/goliatone/go-deeplink/core"
)

const (
	TypePendingRedirects = "deeplink.query.redirect.pending"
	TypePendingOffers    = "deeplink.query.offer.pending"
	TypeListIngestion    = "deeplink.query.ingestion.list"
	TypeIngestionSummary = "deeplink.query.ingestion.summary"
)

type PendingRedirectsMessage struct{}

func (PendingRedirectsMessage) Type() string { return TypePendingRedirects }

type PendingOffersMessage struct{}

func (PendingOffersMessage) Type() string { return TypePendingOffers }

type ListIngestionMessage struct {
	Filter core.IngestionFilter
}

func (ListIngestionMessage) Type() string { return TypeListIngestion }

func (m ListIngestionMessage) Validate() error {
	if m.Filter.Page < 0 {
		return queryValidationError("page", "page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return queryValidationError("per_page", "per_page must be >= 0")
	}
	return queryWrapValidation(m.Filter.Validate(), "query: invalid ingestion filter")
}

type IngestionSummaryMessage struct{}

func (IngestionSummaryMessage) Type() string { return TypeIngestionSummary }
