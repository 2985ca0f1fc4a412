package core

import (
	"net/url"
	"strings"
)

const (
	OfferSchemeOpenID4VCI = "openid-credential-offer://"
	OfferSchemeHAIP       = "haip://"

	DefaultAppLinkPrefix = "wholesale-test-app://landing/"

	StateQueryKey = "state"
)

type ClassifierConfig struct {
	OfferSchemes    []string `koanf:"offer_schemes" mapstructure:"offer_schemes"`
	AppLinkPrefixes []string `koanf:"app_link_prefixes" mapstructure:"app_link_prefixes"`
}

func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		OfferSchemes:    []string{OfferSchemeOpenID4VCI, OfferSchemeHAIP},
		AppLinkPrefixes: []string{DefaultAppLinkPrefix},
	}
}

// Classifier maps raw platform URLs to a ClassifiedEvent. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	offerSchemes    []string
	appLinkPrefixes []string
}

func NewClassifier(cfg ClassifierConfig) *Classifier {
	return &Classifier{
		offerSchemes:    compactPrefixes(cfg.OfferSchemes),
		appLinkPrefixes: compactPrefixes(cfg.AppLinkPrefixes),
	}
}

var defaultClassifier = NewClassifier(DefaultClassifierConfig())

// Classify uses the default offer schemes and app-link prefix.
func Classify(raw string) ClassifiedEvent {
	return defaultClassifier.Classify(raw)
}

// Classify never fails. Offer schemes take precedence over app-link prefixes;
// anything else is Unrecognized.
func (c *Classifier) Classify(raw string) ClassifiedEvent {
	if c == nil {
		return Unrecognized(raw)
	}
	if hasAnyPrefix(raw, c.offerSchemes) {
		return CredentialOffer(raw)
	}
	if hasAnyPrefix(raw, c.appLinkPrefixes) {
		return AppLinkRedirect(raw, extractState(raw))
	}
	return Unrecognized(raw)
}

func (c *Classifier) OfferSchemes() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.offerSchemes...)
}

func (c *Classifier) AppLinkPrefixes() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.appLinkPrefixes...)
}

// extractState returns the first state value, or "" when absent. Callers that
// omit state share the empty token. A present value that fails to decode is
// kept as written.
func extractState(raw string) string {
	_, query, found := strings.Cut(raw, "?")
	if !found {
		return ""
	}
	query, _, _ = strings.Cut(query, "#")
	for query != "" {
		var pair string
		pair, query, _ = strings.Cut(query, "&")
		key, value, _ := strings.Cut(pair, "=")
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if key != StateQueryKey {
			continue
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			return decoded
		}
		return value
	}
	return ""
}

func hasAnyPrefix(raw string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(raw, prefix) {
			return true
		}
	}
	return false
}

func compactPrefixes(prefixes []string) []string {
	out := make([]string, 0, len(prefixes))
	seen := make(map[string]struct{}, len(prefixes))
	for _, prefix := range prefixes {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			continue
		}
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		out = append(out, prefix)
	}
	return out
}
