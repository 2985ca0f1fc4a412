// Package tomlconfig loads deeplink configuration from TOML files.
package tomlconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goliatone/go-deeplink/core"
)

var knownSections = map[string]bool{
	"service_name": true,
	"classifier":   true,
	"offers":       true,
	"journal":      true,
}

var _ core.RawConfigLoader = (*Loader)(nil)

// Loader reads a TOML document into the raw map consumed by
// core.CfgxConfigProvider.
type Loader struct {
	Path string
	// Optional makes a missing file load as an empty map.
	Optional bool
}

func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

func (l *Loader) LoadRaw(context.Context) (map[string]any, error) {
	if l == nil || strings.TrimSpace(l.Path) == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if l.Optional && errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("tomlconfig: read %s: %w", l.Path, err)
	}
	return Decode(data)
}

// Decode parses TOML and rejects unknown top-level keys.
func Decode(data []byte) (map[string]any, error) {
	raw := map[string]any{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("tomlconfig: decode: %w", err)
	}
	var unknown []string
	for key := range raw {
		if !knownSections[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("tomlconfig: unknown keys: %s", strings.Join(unknown, ", "))
	}
	return raw, nil
}

// Encode writes cfg as a TOML document Decode accepts.
func Encode(w io.Writer, cfg core.Config) error {
	doc := map[string]any{
		"service_name": cfg.ServiceName,
		"classifier": map[string]any{
			"offer_schemes":     cfg.Classifier.OfferSchemes,
			"app_link_prefixes": cfg.Classifier.AppLinkPrefixes,
		},
		"offers": map[string]any{
			"capacity": cfg.Offers.Capacity,
		},
		"journal": map[string]any{
			"enabled":     cfg.Journal.Enabled,
			"buffer_size": cfg.Journal.BufferSize,
		},
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("tomlconfig: encode: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
