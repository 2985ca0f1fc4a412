package tomlconfig

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-deeplink/core"
)

const sampleConfig = `
service_name = "wallet-links"

[classifier]
app_link_prefixes = ["wholesale-test-app://landing/", "https://wallet.example/landing/"]

[offers]
capacity = 8

[journal]
enabled = false
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deeplink.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoader_FeedsServiceConfig(t *testing.T) {
	loader := NewLoader(writeConfig(t, sampleConfig))

	svc, err := core.NewService(core.Config{}, core.WithConfigProvider(core.NewCfgxConfigProvider(loader)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.Close()

	cfg := svc.Config()
	if cfg.ServiceName != "wallet-links" {
		t.Fatalf("expected service name from file, got %q", cfg.ServiceName)
	}
	if cfg.Offers.Capacity != 8 {
		t.Fatalf("expected capacity 8, got %d", cfg.Offers.Capacity)
	}
	if len(cfg.Classifier.AppLinkPrefixes) != 2 {
		t.Fatalf("expected two app link prefixes, got %#v", cfg.Classifier.AppLinkPrefixes)
	}
	if len(cfg.Classifier.OfferSchemes) != 2 {
		t.Fatalf("expected default offer schemes to survive, got %#v", cfg.Classifier.OfferSchemes)
	}
	if svc.Classify("https://wallet.example/landing/?state=s1").Token != "s1" {
		t.Fatalf("expected https landing prefix to classify as redirect")
	}
}

func TestLoader_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	if _, err := NewLoader(path).LoadRaw(context.Background()); err == nil {
		t.Fatalf("expected missing file error")
	}
	raw, err := (&Loader{Path: path, Optional: true}).LoadRaw(context.Background())
	if err != nil || len(raw) != 0 {
		t.Fatalf("expected empty map for optional missing file, got %#v err=%v", raw, err)
	}
}

func TestDecode_RejectsUnknownKeys(t *testing.T) {
	_, err := Decode([]byte("service_name = \"x\"\n[offer]\ncapacity = 1\n"))
	if err == nil || !strings.Contains(err.Error(), "offer") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
	if _, err := Decode([]byte("service_name = ")); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestEncode_RoundTripsThroughDecode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, core.DefaultConfig()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("decode encoded config: %v", err)
	}
	if raw["service_name"] != core.DefaultConfig().ServiceName {
		t.Fatalf("unexpected service name %#v", raw["service_name"])
	}
}
