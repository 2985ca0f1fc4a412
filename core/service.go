package core

import (
	"context"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Service is the composition root for deep-link ingestion. Build one with
// NewService and share it by reference.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	clock           Clock
	telemetry       telemetry

	classifier *Classifier
	offers     *OfferChannel
	redirects  *RedirectRegistry
	journal    *AsyncJournal
	ingestor   *Ingestor

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	Classifier      *Classifier
	Offers          *OfferChannel
	Redirects       *RedirectRegistry
	Journal         *AsyncJournal
	Ingestor        *Ingestor
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve(loggerName, builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(loggerName); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.clock == nil {
		builder.clock = systemClock
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	classifier := NewClassifier(finalConfig.Classifier)
	offers := NewOfferChannel(finalConfig.Offers.Capacity,
		WithOfferChannelLogger(logger),
		WithOfferChannelMetrics(builder.metricsRecorder),
	)
	redirects := NewRedirectRegistry(
		WithRedirectRegistryLogger(logger),
		WithRedirectRegistryMetrics(builder.metricsRecorder),
		WithRedirectRegistryClock(builder.clock),
	)

	var journal *AsyncJournal
	if finalConfig.Journal.Enabled && builder.journal != nil {
		journal = NewAsyncJournal(builder.journal, finalConfig.Journal.BufferSize,
			WithAsyncJournalLogger(logger),
			WithAsyncJournalMetrics(builder.metricsRecorder),
		)
	}

	ingestor := NewIngestor(classifier, offers, redirects,
		WithIngestorLogger(logger),
		WithIngestorMetrics(builder.metricsRecorder),
		WithIngestorJournal(journal),
		WithIngestorClock(builder.clock),
	)

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		clock:           builder.clock,
		telemetry:       newTelemetry(logger, builder.metricsRecorder),
		classifier:      classifier,
		offers:          offers,
		redirects:       redirects,
		journal:         journal,
		ingestor:        ingestor,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) mapError(err error) error {
	if err == nil || s == nil {
		return err
	}
	return mapBuildError(s.errorMapper, err)
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		Classifier:      s.classifier,
		Offers:          s.offers,
		Redirects:       s.redirects,
		Journal:         s.journal,
		Ingestor:        s.ingestor,
	}
}

// HandleURL is the platform callback. It never blocks and never fails; the
// result is diagnostic only.
func (s *Service) HandleURL(ctx context.Context, raw string) IngestResult {
	if s == nil {
		return IngestResult{Event: Unrecognized(raw), Outcome: IngestOutcomeIgnored}
	}
	return s.ingestor.Handle(ctx, raw)
}

func (s *Service) Classify(raw string) ClassifiedEvent {
	if s == nil {
		return Classify(raw)
	}
	return s.classifier.Classify(raw)
}

func (s *Service) SubmitOffer(offerURL string) error {
	if s == nil {
		return serviceClosedError()
	}
	return s.mapError(s.offers.Submit(offerURL))
}

func (s *Service) ReceiveOffer(ctx context.Context) (string, error) {
	if s == nil {
		return "", serviceClosedError()
	}
	offerURL, err := s.offers.Receive(ctx)
	if err != nil {
		return "", s.mapError(err)
	}
	return offerURL, nil
}

func (s *Service) PendingOffers() int {
	if s == nil {
		return 0
	}
	return s.offers.Len()
}

func (s *Service) RegisterRedirect(token string) (*RedirectWait, error) {
	if s == nil {
		return nil, serviceClosedError()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, serviceClosedError()
	}
	wait, err := s.redirects.Register(token)
	if err != nil {
		return nil, s.mapError(err)
	}
	return wait, nil
}

func (s *Service) DeliverRedirect(token, redirectURL string) bool {
	if s == nil {
		return false
	}
	return s.redirects.Deliver(token, redirectURL)
}

func (s *Service) CancelRedirect(wait *RedirectWait) bool {
	if s == nil {
		return false
	}
	return s.redirects.Cancel(wait)
}

func (s *Service) PendingRedirects() []string {
	if s == nil {
		return nil
	}
	return s.redirects.Tokens()
}

// AwaitRedirect registers token, runs initiate and waits for the matching
// redirect. The wait is cancelled when initiate fails or ctx ends. Timeouts
// are the caller's to impose through ctx.
func (s *Service) AwaitRedirect(
	ctx context.Context,
	token string,
	initiate func(ctx context.Context) error,
) (redirectURL string, err error) {
	if s == nil {
		return "", serviceClosedError()
	}
	ctx = contextOrBackground(ctx)
	startedAt := time.Now()
	fields := map[string]any{"token": redactToken(token)}
	defer func() {
		fields["duration_ms"] = time.Since(startedAt).Milliseconds()
		if err != nil {
			fields["error"] = err.Error()
			s.telemetry.warn(ctx, "redirect wait ended without delivery", fields)
			return
		}
		s.telemetry.info(ctx, "redirect wait delivered", fields)
	}()

	wait, err := s.RegisterRedirect(token)
	if err != nil {
		return "", err
	}
	if initiate != nil {
		if initiateErr := initiate(ctx); initiateErr != nil {
			s.redirects.Cancel(wait)
			err = s.mapError(initiateErr)
			return "", err
		}
	}
	redirectURL, err = wait.Await(ctx)
	if err != nil {
		err = s.mapError(err)
		return "", err
	}
	return redirectURL, nil
}

func (s *Service) GenerateCorrelationToken() (string, error) {
	token, err := GenerateCorrelationToken()
	if err != nil {
		return "", s.mapError(err)
	}
	return token, nil
}

// Close stops offer delivery, cancels pending redirect waits and flushes the
// journal. It is safe to call more than once.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.offers.Close()
		cancelled := s.redirects.CancelAll()
		if s.journal != nil {
			s.journal.Close()
		}
		s.telemetry.info(context.Background(), "deeplink service closed", map[string]any{
			"cancelled_waits": cancelled,
		})
	})
	return nil
}
