// Package deeplink routes platform-delivered URLs into a wallet: credential
// offers go to a FIFO offer channel and app-link redirects resolve the
// pending wait registered under their state token.
//
// The root package re-exports the core composition root. The HTTP surface
// lives in inbound, the journal store in store/sql and the daemon in
// cmd/deeplinkd.
package deeplink

import "github.com/goliatone/go-deeplink/core"

type Config = core.Config
type ClassifierConfig = core.ClassifierConfig
type OffersConfig = core.OffersConfig
type JournalConfig = core.JournalConfig

type Option = core.Option

type Service = core.Service
type ServiceDependencies = core.ServiceDependencies

type ClassifiedEvent = core.ClassifiedEvent
type EventKind = core.EventKind
type IngestResult = core.IngestResult
type IngestOutcome = core.IngestOutcome
type RedirectWait = core.RedirectWait
type WaitOutcome = core.WaitOutcome

type IngestionJournal = core.IngestionJournal
type IngestionRecord = core.IngestionRecord
type IngestionFilter = core.IngestionFilter
type IngestionPage = core.IngestionPage
type IngestionSummary = core.IngestionSummary

type MetricsRecorder = core.MetricsRecorder

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithJournal         = core.WithJournal
	WithClock           = core.WithClock
)

var (
	IsDuplicateToken     = core.IsDuplicateToken
	IsRedirectCancelled  = core.IsRedirectCancelled
	IsOfferChannelClosed = core.IsOfferChannelClosed
	IsOfferQueueFull     = core.IsOfferQueueFull
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}

// Classify labels raw with the default classifier configuration.
func Classify(raw string) ClassifiedEvent {
	return core.Classify(raw)
}
