package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// IngestionJournal receives one record per handled URL. Implementations may
// perform I/O; the ingestion path only reaches them through AsyncJournal.
type IngestionJournal interface {
	Record(ctx context.Context, record IngestionRecord) error
}

type IngestionJournalReader interface {
	List(ctx context.Context, filter IngestionFilter) (IngestionPage, error)
	Summary(ctx context.Context) (IngestionSummary, error)
}

type IngestionJournalPruner interface {
	Prune(ctx context.Context, olderThan time.Time) (int, error)
}

// OfferReceiver is the pull side used by a provisioning coordinator.
type OfferReceiver interface {
	ReceiveOffer(ctx context.Context) (string, error)
}

// URLHandler is the platform-facing ingestion contract.
type URLHandler interface {
	HandleURL(ctx context.Context, raw string) IngestResult
}

type RedirectAwaiter interface {
	RegisterRedirect(token string) (*RedirectWait, error)
	CancelRedirect(wait *RedirectWait) bool
	AwaitRedirect(ctx context.Context, token string, initiate func(ctx context.Context) error) (string, error)
}

type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}
