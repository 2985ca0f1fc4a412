package core

import "context"

const (
	MetricIngestTotal            = "deeplink.ingest.total"
	MetricIngestDurationMS       = "deeplink.ingest.duration_ms"
	MetricRedirectRegistered     = "deeplink.redirect.registered"
	MetricRedirectDelivered      = "deeplink.redirect.delivered"
	MetricRedirectUnmatched      = "deeplink.redirect.unmatched"
	MetricRedirectCancelled      = "deeplink.redirect.cancelled"
	MetricRedirectDuplicateToken = "deeplink.redirect.duplicate_token"
	MetricRedirectWaitMS         = "deeplink.redirect.wait_ms"
	MetricOfferSubmitted         = "deeplink.offer.submitted"
	MetricOfferRejected          = "deeplink.offer.rejected"
	MetricOfferDelivered         = "deeplink.offer.delivered"
	MetricJournalDropped         = "deeplink.journal.dropped"
	MetricJournalFailed          = "deeplink.journal.failed"
)

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var _ MetricsRecorder = NopMetricsRecorder{}
