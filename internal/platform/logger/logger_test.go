package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsSecretsAndHashesIDs(t *testing.T) {
	t.Setenv("LOG_REDACTION_ENABLED", "true")

	out := sanitizeKVs([]interface{}{
		"api_key", "sk-live-123",
		"user_id", "0d6f1c55-3f55-4d7a-9d36-6f6a3f0f4b7e",
		"ticket_id", "t-1",
		"dangling",
	})
	if len(out) != 7 {
		t.Fatalf("expected 7 values, got %d: %#v", len(out), out)
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("api_key not redacted: %#v", out[1])
	}
	hashed, _ := out[3].(string)
	if !strings.HasPrefix(hashed, "hash:") || len(hashed) != len("hash:")+12 {
		t.Fatalf("user_id not hashed: %#v", out[3])
	}
	if out[5] != "t-1" {
		t.Fatalf("ticket_id should pass through, got %#v", out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("dangling key should be kept, got %#v", out[6])
	}
}

func TestSanitizeValueRedactsJWTLookingStrings(t *testing.T) {
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.signature"
	if got := sanitizeValue("note", jwt); got != "[REDACTED]" {
		t.Fatalf("expected jwt-like string to be redacted, got %#v", got)
	}
	if got := sanitizeValue("note", "plain text"); got != "plain text" {
		t.Fatalf("plain text changed: %#v", got)
	}
}

func TestNewTestModeIsNop(t *testing.T) {
	log, err := New("test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("discarded", "k", "v")
	log.With("component", "x").Warn("also discarded")
	log.Sync()
}
