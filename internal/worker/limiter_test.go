package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	if l := NewLimiter(10, 5); l.defaultBurst != 5 {
		t.Errorf("Expected burst 5, got %d", l.defaultBurst)
	}
	if l := NewLimiter(10, -1); l.defaultBurst != 2 {
		t.Errorf("Expected default burst 2 for negative input, got %d", l.defaultBurst)
	}
}

func TestLimiter_PerDomainTokens(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://legacy.com/obituaries/foo"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Burst of 1 is spent on that domain only.
	if limiter.Allow("http://legacy.com/obituaries/bar") {
		t.Error("Expected same-domain request to be rejected")
	}
	if !limiter.Allow("http://findagrave.com/memorial/1") {
		t.Error("Expected other domain to pass")
	}
}

func TestLimiter_SetDomainRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	limiter.SetDomainRate("newspapers.com", 0.1, 1)

	if !limiter.Allow("http://newspapers.com/search") {
		t.Error("Expected first request to pass")
	}
	if limiter.Allow("http://newspapers.com/search") {
		t.Error("Expected second request to be rejected")
	}
	if !limiter.Allow("http://fast.com") {
		t.Error("Expected unconfigured domain to use the default rate")
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)

	start := time.Now()
	if err := limiter.WaitWithDelay(context.Background(), "http://example.com", 50*time.Millisecond); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Expected delay >= 50ms, got %v", elapsed)
	}
}

func TestExtractDomain(t *testing.T) {
	domain, err := extractDomain("http://example.com/foo")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if domain != "example.com" {
		t.Errorf("Expected example.com, got %s", domain)
	}

	if _, err := extractDomain("::invalid"); err == nil {
		t.Error("Expected error for invalid URL")
	}
}
