package core

import (
	"context"
	"testing"
)

type argsOnlyLogger struct {
	stubLogger
	args *[]any
}

func (l argsOnlyLogger) Info(_ string, args ...any) {
	*l.args = append(*l.args, args...)
}

func (l argsOnlyLogger) WithContext(context.Context) Logger {
	return l
}

func TestTelemetry_UsesFieldsLogger(t *testing.T) {
	logger := newCaptureLogger()
	tel := newTelemetry(logger, nil)
	tel.warn(context.Background(), "redirect dropped", map[string]any{"token": "ab..."})

	records := logger.snapshot()
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if records[0].level != "warn" || records[0].fields["token"] != "ab..." {
		t.Fatalf("unexpected record %#v", records[0])
	}
}

func TestTelemetry_FlattensFieldsForPlainLogger(t *testing.T) {
	var args []any
	tel := newTelemetry(argsOnlyLogger{args: &args}, nil)
	tel.info(context.Background(), "hello", map[string]any{"b": 2, "a": 1})

	if len(args) != 4 || args[0] != "a" || args[2] != "b" {
		t.Fatalf("expected sorted key/value args, got %#v", args)
	}
}

func TestTelemetry_NilMetricsIsNop(t *testing.T) {
	tel := newTelemetry(nil, nil)
	tel.count(context.Background(), MetricIngestTotal, nil)
	tel.observe(context.TODO(), MetricIngestDurationMS, 1, nil)
}

func TestTelemetry_CountsWithTags(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	tel := newTelemetry(nil, metrics)
	tags := map[string]string{"kind": "credential_offer"}
	tel.count(context.Background(), " "+MetricIngestTotal+" ", tags)
	tags["kind"] = "mutated"

	if !metrics.hasCounter(MetricIngestTotal, "kind", "credential_offer") {
		t.Fatalf("expected trimmed counter name and copied tags")
	}
}
