package bootstrap

import (
	"testing"
	"time"
)

func TestPollIntervalFloorsNonpositive(t *testing.T) {
	if got := pollInterval(0); got != 2*time.Second {
		t.Fatalf("expected 2s floor for zero interval, got %s", got)
	}
	if got := pollInterval(-time.Second); got != 2*time.Second {
		t.Fatalf("expected 2s floor for negative interval, got %s", got)
	}
	if got := pollInterval(500 * time.Millisecond); got != 500*time.Millisecond {
		t.Fatalf("expected configured interval to pass through, got %s", got)
	}
}

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":      ":8080",
		"9090":  ":9090",
		":7070": ":7070",
		" 8081": ":8081",
	}
	for input, want := range cases {
		if got := normalizeAddr(input); got != want {
			t.Fatalf("normalizeAddr(%q): expected %q, got %q", input, want, got)
		}
	}
}
