package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" api-key = abc ,broken, =x,team=support")
	if len(got) != 2 || got["api-key"] != "abc" || got["team"] != "support" {
		t.Fatalf("unexpected headers %#v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestOtelConfigFromEnvClampsRatio(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLER_RATIO", "7")
	cfg := OtelConfigFromEnv("autocrm")
	if !cfg.Enabled || cfg.SampleRatio != 1 || cfg.ServiceName != "autocrm" {
		t.Fatalf("unexpected config %#v", cfg)
	}
}
