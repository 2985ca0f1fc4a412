package core

import (
	"context"
	"time"
)

type IngestorOption func(*Ingestor)

func WithIngestorLogger(logger Logger) IngestorOption {
	return func(i *Ingestor) {
		i.telemetry.logger = logger
	}
}

func WithIngestorMetrics(recorder MetricsRecorder) IngestorOption {
	return func(i *Ingestor) {
		if recorder != nil {
			i.telemetry.metrics = recorder
		}
	}
}

func WithIngestorJournal(journal *AsyncJournal) IngestorOption {
	return func(i *Ingestor) {
		i.journal = journal
	}
}

func WithIngestorClock(clock Clock) IngestorOption {
	return func(i *Ingestor) {
		if clock != nil {
			i.clock = clock
		}
	}
}

// Ingestor is the single entry point for URLs handed over by the platform.
// Handle returns without waiting on any consumer.
type Ingestor struct {
	classifier *Classifier
	offers     *OfferChannel
	redirects  *RedirectRegistry
	journal    *AsyncJournal
	telemetry  telemetry
	clock      Clock
}

func NewIngestor(
	classifier *Classifier,
	offers *OfferChannel,
	redirects *RedirectRegistry,
	opts ...IngestorOption,
) *Ingestor {
	if classifier == nil {
		classifier = defaultClassifier
	}
	i := &Ingestor{
		classifier: classifier,
		offers:     offers,
		redirects:  redirects,
		telemetry:  newTelemetry(nil, nil),
		clock:      systemClock,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	i.telemetry = newTelemetry(i.telemetry.logger, i.telemetry.metrics)
	return i
}

func (i *Ingestor) Handle(ctx context.Context, raw string) IngestResult {
	if i == nil {
		return IngestResult{Event: Unrecognized(raw), Outcome: IngestOutcomeIgnored}
	}
	ctx = contextOrBackground(ctx)
	startedAt := time.Now()

	event := i.classifier.Classify(raw)
	result := IngestResult{Event: event}

	switch event.Kind {
	case EventKindCredentialOffer:
		if err := i.offers.Submit(event.URL); err != nil {
			result.Outcome = IngestOutcomeOfferRejected
			result.Err = err
			i.telemetry.warn(ctx, "credential offer rejected", map[string]any{
				"url":   RedactURL(event.URL),
				"error": err.Error(),
			})
		} else {
			result.Outcome = IngestOutcomeOfferQueued
			i.telemetry.info(ctx, "credential offer queued", map[string]any{
				"url": RedactURL(event.URL),
			})
		}
	case EventKindAppLinkRedirect:
		if i.redirects.Deliver(event.Token, event.URL) {
			result.Outcome = IngestOutcomeRedirectDelivered
		} else {
			result.Outcome = IngestOutcomeRedirectUnmatched
		}
	default:
		result.Outcome = IngestOutcomeIgnored
		i.telemetry.debug(ctx, "unrecognized url ignored", map[string]any{
			"url": RedactURL(event.URL),
		})
	}

	tags := map[string]string{
		"kind":    string(event.Kind),
		"outcome": string(result.Outcome),
	}
	i.telemetry.count(ctx, MetricIngestTotal, tags)
	i.telemetry.observe(ctx, MetricIngestDurationMS, float64(time.Since(startedAt).Milliseconds()), tags)
	if i.journal != nil {
		i.journal.Offer(NewIngestionRecord(result, i.clock()))
	}
	return result
}
