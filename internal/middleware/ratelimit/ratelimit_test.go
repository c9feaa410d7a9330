package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 3, CleanupInterval: time.Minute})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Fatalf("fourth request should be throttled")
	}
}

func TestAllowTracksClientsIndependently(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Minute})
	defer l.Stop()

	if !l.Allow("1.1.1.1") {
		t.Fatalf("first client should be allowed")
	}
	if !l.Allow("2.2.2.2") {
		t.Fatalf("second client should be allowed")
	}
	if l.Allow("1.1.1.1") {
		t.Fatalf("first client should be throttled")
	}
	if l.ActiveClients() != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", l.ActiveClients())
	}
}

func TestZeroConfigFallsBackToDefaults(t *testing.T) {
	l := NewLimiter(Config{})
	defer l.Stop()

	if l.requestsPerMinute != DefaultConfig().RequestsPerMinute {
		t.Fatalf("unexpected limit %d", l.requestsPerMinute)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	l.Stop()
	l.Stop()
}
