package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type ingestionRecord struct {
	bun.BaseModel `bun:"table:deeplink_ingestion_records,alias:dir"`

	ID          string    `bun:"id,pk"`
	Kind        string    `bun:"kind,notnull"`
	Outcome     string    `bun:"outcome,notnull"`
	Token       string    `bun:"token,notnull"`
	RedactedURL string    `bun:"redacted_url,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type groupCount struct {
	Key   string `bun:"group_key"`
	Total int    `bun:"total"`
}
