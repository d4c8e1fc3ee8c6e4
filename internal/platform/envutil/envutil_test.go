package envutil

import (
	"testing"
	"time"
)

func TestParsersFallBackToDefaults(t *testing.T) {
	t.Setenv("ENVUTIL_INT", "nope")
	t.Setenv("ENVUTIL_FLOAT", "")
	t.Setenv("ENVUTIL_BOOL", "maybe")
	t.Setenv("ENVUTIL_DUR", "soon")

	if got := Int("ENVUTIL_INT", 7); got != 7 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Float("ENVUTIL_FLOAT", 0.8); got != 0.8 {
		t.Fatalf("Float: got %v", got)
	}
	if got := Bool("ENVUTIL_BOOL", true); !got {
		t.Fatalf("Bool: got %v", got)
	}
	if got := Duration("ENVUTIL_DUR", time.Second); got != time.Second {
		t.Fatalf("Duration: got %v", got)
	}
}

func TestParsersReadValues(t *testing.T) {
	t.Setenv("ENVUTIL_INT", " 5 ")
	t.Setenv("ENVUTIL_FLOAT", "0.75")
	t.Setenv("ENVUTIL_BOOL", "off")
	t.Setenv("ENVUTIL_DUR", "1.5")
	t.Setenv("ENVUTIL_DUR2", "250ms")
	t.Setenv("ENVUTIL_STR", "  pinecone ")

	if got := Int("ENVUTIL_INT", 0); got != 5 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Float("ENVUTIL_FLOAT", 0); got != 0.75 {
		t.Fatalf("Float: got %v", got)
	}
	if got := Bool("ENVUTIL_BOOL", true); got {
		t.Fatalf("Bool: got %v", got)
	}
	if got := Duration("ENVUTIL_DUR", 0); got != 1500*time.Millisecond {
		t.Fatalf("Duration seconds: got %v", got)
	}
	if got := Duration("ENVUTIL_DUR2", 0); got != 250*time.Millisecond {
		t.Fatalf("Duration string: got %v", got)
	}
	if got := String("ENVUTIL_STR", "x"); got != "pinecone" {
		t.Fatalf("String: got %q", got)
	}
}
