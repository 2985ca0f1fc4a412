package core

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	DefaultIngestionPerPage = 50
	MaxIngestionPerPage     = 500

	defaultJournalWriteTimeout = 5 * time.Second
)

// NormalizeIngestionFilter lowercases the enum fields and clamps paging.
func NormalizeIngestionFilter(filter IngestionFilter) IngestionFilter {
	filter.Kind = normalizeEventKind(filter.Kind)
	filter.Outcome = normalizeIngestOutcome(filter.Outcome)
	filter.Token = strings.TrimSpace(filter.Token)
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = DefaultIngestionPerPage
	}
	if filter.PerPage > MaxIngestionPerPage {
		filter.PerPage = MaxIngestionPerPage
	}
	return filter
}

func (f IngestionFilter) Validate() error {
	switch normalizeEventKind(f.Kind) {
	case "", EventKindCredentialOffer, EventKindAppLinkRedirect, EventKindUnrecognized:
	default:
		return badInputError("core: unknown ingestion kind", map[string]any{"kind": string(f.Kind)})
	}
	switch normalizeIngestOutcome(f.Outcome) {
	case "", IngestOutcomeOfferQueued, IngestOutcomeOfferRejected,
		IngestOutcomeRedirectDelivered, IngestOutcomeRedirectUnmatched, IngestOutcomeIgnored:
	default:
		return badInputError("core: unknown ingestion outcome", map[string]any{"outcome": string(f.Outcome)})
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return badInputError("core: ingestion filter range is invalid", nil)
	}
	return nil
}

// NewIngestionRecord builds the journal entry for a handled URL. The stored
// URL is redacted.
func NewIngestionRecord(result IngestResult, at time.Time) IngestionRecord {
	token := ""
	if result.Event.IsRedirect() {
		token = result.Event.Token
	}
	return IngestionRecord{
		Kind:        result.Event.Kind,
		Outcome:     result.Outcome,
		Token:       token,
		RedactedURL: RedactURL(result.Event.URL),
		CreatedAt:   at.UTC(),
	}
}

type AsyncJournalOption func(*AsyncJournal)

func WithAsyncJournalLogger(logger Logger) AsyncJournalOption {
	return func(j *AsyncJournal) {
		j.telemetry.logger = logger
	}
}

func WithAsyncJournalMetrics(recorder MetricsRecorder) AsyncJournalOption {
	return func(j *AsyncJournal) {
		if recorder != nil {
			j.telemetry.metrics = recorder
		}
	}
}

// AsyncJournal buffers records for a single writer goroutine so callers on
// the ingestion path never wait on journal I/O. Records offered while the
// buffer is full are dropped and counted.
type AsyncJournal struct {
	sink      IngestionJournal
	telemetry telemetry
	timeout   time.Duration

	mu      sync.RWMutex
	closed  bool
	records chan IngestionRecord
	wg      sync.WaitGroup
	once    sync.Once
}

func NewAsyncJournal(sink IngestionJournal, bufferSize int, opts ...AsyncJournalOption) *AsyncJournal {
	if bufferSize <= 0 {
		bufferSize = defaultJournalBufferSize
	}
	j := &AsyncJournal{
		sink:      sink,
		telemetry: newTelemetry(nil, nil),
		timeout:   defaultJournalWriteTimeout,
		records:   make(chan IngestionRecord, bufferSize),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(j)
		}
	}
	j.telemetry = newTelemetry(j.telemetry.logger, j.telemetry.metrics)
	j.wg.Add(1)
	go j.run()
	return j
}

// Offer reports whether the record was accepted into the buffer.
func (j *AsyncJournal) Offer(record IngestionRecord) bool {
	if j == nil || j.sink == nil {
		return false
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return false
	}
	select {
	case j.records <- record:
		return true
	default:
		j.telemetry.count(context.Background(), MetricJournalDropped, map[string]string{
			"kind": string(record.Kind),
		})
		return false
	}
}

// Close flushes buffered records and stops the writer.
func (j *AsyncJournal) Close() {
	if j == nil {
		return
	}
	j.once.Do(func() {
		j.mu.Lock()
		j.closed = true
		close(j.records)
		j.mu.Unlock()
		j.wg.Wait()
	})
}

func (j *AsyncJournal) run() {
	defer j.wg.Done()
	for record := range j.records {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		err := j.sink.Record(ctx, record)
		cancel()
		if err != nil {
			j.telemetry.count(ctx, MetricJournalFailed, nil)
			j.telemetry.error(ctx, "ingestion journal write failed", map[string]any{
				"kind":    string(record.Kind),
				"outcome": string(record.Outcome),
				"error":   err.Error(),
			})
		}
	}
}
