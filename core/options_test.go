package core

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

type fixedConfigProvider struct {
	cfg Config
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, nil
}

type fixedOptionsResolver struct {
	cfg Config
}

func (r *fixedOptionsResolver) Resolve(Config, Config, Config) (Config, error) {
	return r.cfg, nil
}

func TestNewService_DefaultDependencies(t *testing.T) {
	svc, err := NewService(Config{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()

	deps := svc.Dependencies()
	if deps.Logger == nil {
		t.Fatalf("expected default logger")
	}
	if deps.LoggerProvider == nil {
		t.Fatalf("expected default logger provider")
	}
	if deps.ErrorMapper == nil {
		t.Fatalf("expected default error mapper")
	}
	if deps.ConfigProvider == nil {
		t.Fatalf("expected default config provider")
	}
	if deps.OptionsResolver == nil {
		t.Fatalf("expected default options resolver")
	}
	if deps.Offers == nil || deps.Redirects == nil || deps.Ingestor == nil {
		t.Fatalf("expected offer channel, registry and ingestor")
	}
	if deps.Journal != nil {
		t.Fatalf("expected no journal without a sink")
	}
	cfg := svc.Config()
	if cfg.ServiceName != "deeplink" {
		t.Fatalf("expected default config service_name=deeplink, got %q", cfg.ServiceName)
	}
	if len(cfg.Classifier.OfferSchemes) != 2 || cfg.Classifier.AppLinkPrefixes[0] != DefaultAppLinkPrefix {
		t.Fatalf("expected default classifier config, got %#v", cfg.Classifier)
	}
}

func TestNewService_WithXOverrides(t *testing.T) {
	customLogger := stubLogger{}
	customProvider := stubLoggerProvider{logger: customLogger}
	sentinel := errors.New("sentinel")
	customMapper := func(error) *goerrors.Error {
		return goerrors.Wrap(sentinel, goerrors.CategoryOperation, "mapped")
	}
	configProvider := &fixedConfigProvider{cfg: DefaultConfig()}
	resolved := DefaultConfig()
	resolved.ServiceName = "resolved"
	optionsResolver := &fixedOptionsResolver{cfg: resolved}
	metrics := &captureMetricsRecorder{}

	svc, err := NewService(Config{ServiceName: "runtime"},
		WithLogger(customLogger),
		WithLoggerProvider(customProvider),
		WithErrorMapper(customMapper),
		WithConfigProvider(configProvider),
		WithOptionsResolver(optionsResolver),
		WithMetricsRecorder(metrics),
		WithJournal(&memoryJournal{}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()

	deps := svc.Dependencies()
	if deps.Logger != customLogger {
		t.Fatalf("expected custom logger override")
	}
	if resolved := deps.LoggerProvider.GetLogger("deeplink.override"); resolved != customLogger {
		t.Fatalf("expected logger provider to resolve custom logger")
	}
	if deps.ConfigProvider != configProvider {
		t.Fatalf("expected custom config provider override")
	}
	if deps.OptionsResolver != optionsResolver {
		t.Fatalf("expected custom options resolver override")
	}
	if deps.MetricsRecorder != metrics {
		t.Fatalf("expected custom metrics recorder")
	}
	if deps.Journal == nil {
		t.Fatalf("expected async journal around the configured sink")
	}
	if got := svc.Config().ServiceName; got != "resolved" {
		t.Fatalf("expected options resolver output config, got %q", got)
	}

	_, err = svc.RegisterRedirect("a")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = svc.RegisterRedirect("a")
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Message != "mapped" {
		t.Fatalf("expected custom mapper output, got %v", err)
	}
}

func TestNewService_ConfigLayeringPrecedence(t *testing.T) {
	provider := NewCfgxConfigProvider(mapRawLoader{values: map[string]any{
		"service_name": "from-config",
		"classifier": map[string]any{
			"app_link_prefixes": []string{"https://wallet.example/landing/"},
		},
		"offers": map[string]any{
			"capacity": 8,
		},
	}})

	svc, err := NewService(Config{ServiceName: "from-runtime"}, WithConfigProvider(provider))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()

	cfg := svc.Config()
	if cfg.ServiceName != "from-runtime" {
		t.Fatalf("expected runtime value to override config/default, got %q", cfg.ServiceName)
	}
	if len(cfg.Classifier.AppLinkPrefixes) != 1 || cfg.Classifier.AppLinkPrefixes[0] != "https://wallet.example/landing/" {
		t.Fatalf("expected config layer app link prefixes, got %#v", cfg.Classifier.AppLinkPrefixes)
	}
	if len(cfg.Classifier.OfferSchemes) != 2 {
		t.Fatalf("expected default offer schemes to survive, got %#v", cfg.Classifier.OfferSchemes)
	}
	if cfg.Offers.Capacity != 8 {
		t.Fatalf("expected offers.capacity from config, got %d", cfg.Offers.Capacity)
	}
	if event := svc.Classify("https://wallet.example/landing/?state=s"); !event.IsRedirect() {
		t.Fatalf("expected configured https prefix to classify as redirect")
	}
}

func TestNewService_RuntimeCanDisableJournal(t *testing.T) {
	runtime := DefaultConfig()
	runtime.Journal.Enabled = false
	svc, err := NewService(runtime, WithJournal(&memoryJournal{}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()
	if svc.Dependencies().Journal != nil {
		t.Fatalf("expected journal disabled by runtime config")
	}
}

func TestNewService_InvalidConfigIsMapped(t *testing.T) {
	provider := NewCfgxConfigProvider(mapRawLoader{values: map[string]any{
		"offers": map[string]any{"capacity": -1},
	}})
	_, err := NewService(Config{}, WithConfigProvider(provider))
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
}

func TestNewService_ConfigLoaderFailure(t *testing.T) {
	provider := NewCfgxConfigProvider(mapRawLoader{err: errors.New("config unavailable")})
	if _, err := NewService(Config{}, WithConfigProvider(provider)); err == nil {
		t.Fatalf("expected loader error")
	}
}
