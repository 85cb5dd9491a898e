package ratelimit

import "testing"

func TestNoopLimiterAlwaysAllows(t *testing.T) {
	l := NewNoopLimiter()
	for i := 0; i < 100; i++ {
		if !l.Allow("key") {
			t.Fatal("noop limiter must always allow")
		}
	}
}

func TestMemoryLimiterEnforcesBurst(t *testing.T) {
	l := NewMemoryLimiter(60, 2)

	if !l.Allow("k1") || !l.Allow("k1") {
		t.Fatal("requests within burst must be allowed")
	}
	if l.Allow("k1") {
		t.Error("request beyond burst must be rejected")
	}

	// 不同key互不影响
	if !l.Allow("k2") {
		t.Error("separate keys must have separate buckets")
	}
}
