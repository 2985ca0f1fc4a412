package sqlstore

import "github.com/goliatone/go-deeplink/core"

var (
	_ JournalBackend = (*JournalStore)(nil)
	_ JournalBackend = (*CachedJournalSummary)(nil)

	_ core.IngestionJournal = (*JournalStore)(nil)
)
