package resilience

import (
	"testing"
	"time"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := Config{
		RetryInitialBackoff: time.Second,
		RetryMaxBackoff:     10 * time.Millisecond,
		RetryMultiplier:     0.5,
		BreakerFailureRatio: 1.5,
	}.normalize()

	def := DefaultConfig()
	if cfg.RetryMaxAttempts != def.RetryMaxAttempts {
		t.Fatalf("expected default attempts, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryMaxBackoff != time.Second {
		t.Fatalf("max backoff must not be below initial backoff, got %v", cfg.RetryMaxBackoff)
	}
	if cfg.RetryMultiplier != def.RetryMultiplier || cfg.BreakerFailureRatio != def.BreakerFailureRatio {
		t.Fatalf("invalid multiplier/ratio must reset, got %v %v", cfg.RetryMultiplier, cfg.BreakerFailureRatio)
	}
	if cfg.BreakerMinRequests == 0 || cfg.BreakerHalfOpenMaxCalls == 0 || cfg.BreakerOpenTimeout <= 0 {
		t.Fatalf("breaker defaults missing: %+v", cfg)
	}
}
