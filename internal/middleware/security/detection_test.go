package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name   string
		method string
		target string
		want   bool
	}{
		{"entity route", http.MethodGet, "/plans", false},
		{"session route", http.MethodPost, "/session/commit", false},
		{"summary with period", http.MethodGet, "/students/s1/summary?month=5&year=2025", false},
		{"path traversal", http.MethodGet, "/../etc/passwd", true},
		{"scanner probe", http.MethodGet, "/wp-admin/setup.php", true},
		{"probe in query", http.MethodGet, "/payments?path=.env", true},
		{"trace method", "TRACE", "/plans", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if got := d.DetectSuspiciousRequest(r); got != tt.want {
				t.Fatalf("DetectSuspiciousRequest(%s %s) = %v, want %v", tt.method, tt.target, got, tt.want)
			}
		})
	}

	if d.SuspiciousCount() != 4 {
		t.Fatalf("expected 4 flagged requests, got %d", d.SuspiciousCount())
	}
}

func TestDetectOversizedURL(t *testing.T) {
	d := NewDetector()
	r := httptest.NewRequest(http.MethodGet, "/payments?student="+strings.Repeat("a", 3000), nil)
	if !d.DetectSuspiciousRequest(r) {
		t.Fatalf("oversized URL should be flagged")
	}
}

func TestExtractClientIPDirect(t *testing.T) {
	d := NewDetector()
	r := httptest.NewRequest(http.MethodGet, "/plans", nil)
	r.RemoteAddr = "203.0.113.7:52100"

	if ip := d.ExtractClientIP(r); ip != "203.0.113.7" {
		t.Fatalf("unexpected ip %q", ip)
	}
}

func TestExtractClientIPBehindTrustedProxy(t *testing.T) {
	d := NewDetector()
	r := httptest.NewRequest(http.MethodGet, "/plans", nil)
	r.RemoteAddr = "10.0.0.5:41000"
	r.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.5")

	if ip := d.ExtractClientIP(r); ip != "198.51.100.9" {
		t.Fatalf("unexpected ip %q", ip)
	}
}

func TestForwardedHeaderIgnoredFromUntrustedPeer(t *testing.T) {
	d := NewDetector()
	r := httptest.NewRequest(http.MethodGet, "/plans", nil)
	r.RemoteAddr = "203.0.113.7:52100"
	r.Header.Set("X-Forwarded-For", "198.51.100.9")

	if ip := d.ExtractClientIP(r); ip != "203.0.113.7" {
		t.Fatalf("spoofed forwarded header honored: %q", ip)
	}
}
