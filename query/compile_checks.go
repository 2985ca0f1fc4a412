package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-deeplink/core"
)

var (
	_ gocmd.Querier[PendingRedirectsMessage, []string]              = (*PendingRedirectsQuery)(nil)
	_ gocmd.Querier[PendingOffersMessage, int]                      = (*PendingOffersQuery)(nil)
	_ gocmd.Querier[ListIngestionMessage, core.IngestionPage]       = (*ListIngestionQuery)(nil)
	_ gocmd.Querier[IngestionSummaryMessage, core.IngestionSummary] = (*IngestionSummaryQuery)(nil)

	_ PendingReader = (*core.Service)(nil)
)
