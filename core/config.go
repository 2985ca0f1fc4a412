package core

import (
	"fmt"
	"strings"
)

const (
	defaultServiceName       = "deeplink"
	defaultJournalBufferSize = 256
)

type OffersConfig struct {
	// Capacity bounds the pending offer queue. Zero means unbounded.
	Capacity int `koanf:"capacity" mapstructure:"capacity"`
}

type JournalConfig struct {
	Enabled    bool `koanf:"enabled" mapstructure:"enabled"`
	BufferSize int  `koanf:"buffer_size" mapstructure:"buffer_size"`
}

type Config struct {
	ServiceName string           `koanf:"service_name" mapstructure:"service_name"`
	Classifier  ClassifierConfig `koanf:"classifier" mapstructure:"classifier"`
	Offers      OffersConfig     `koanf:"offers" mapstructure:"offers"`
	Journal     JournalConfig    `koanf:"journal" mapstructure:"journal"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: defaultServiceName,
		Classifier:  DefaultClassifierConfig(),
		Offers:      OffersConfig{},
		Journal: JournalConfig{
			Enabled:    true,
			BufferSize: defaultJournalBufferSize,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if len(compactPrefixes(c.Classifier.OfferSchemes)) == 0 {
		return fmt.Errorf("core: classifier.offer_schemes is required")
	}
	if len(compactPrefixes(c.Classifier.AppLinkPrefixes)) == 0 {
		return fmt.Errorf("core: classifier.app_link_prefixes is required")
	}
	if c.Offers.Capacity < 0 {
		return fmt.Errorf("core: offers.capacity must be zero or positive")
	}
	if c.Journal.BufferSize < 0 {
		return fmt.Errorf("core: journal.buffer_size must be zero or positive")
	}
	return nil
}
