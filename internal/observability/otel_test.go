package observability

import (
	"context"
	"errors"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" api-key = secret ,broken, =x,tenant=casedata")
	if len(got) != 2 || got["api-key"] != "secret" || got["tenant"] != "casedata" {
		t.Fatalf("headers: %v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty headers should be nil")
	}
}

func TestLoadOtelConfig(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_SAMPLER_PERCENT", "250")

	cfg := LoadOtelConfig()
	if !cfg.Enabled || cfg.Exporter != ExporterOTLP || cfg.Endpoint != "collector:4318" {
		t.Fatalf("config: %+v", cfg)
	}
	if cfg.SampleRatio != 1 {
		t.Fatalf("sample ratio: want=1 got=%v", cfg.SampleRatio)
	}

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	if got := LoadOtelConfig().Exporter; got != ExporterStdout {
		t.Fatalf("exporter without endpoint: want=%s got=%s", ExporterStdout, got)
	}
}

func TestEndSpanRecordsError(t *testing.T) {
	_, span := StartSpan(context.Background(), "CaseData.Errand.Get")
	EndSpan(span, errors.New("boom"))
	if span.IsRecording() {
		t.Fatalf("span still recording after EndSpan")
	}
}
