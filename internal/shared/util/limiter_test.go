package util

import (
	"context"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow(1) {
		t.Error("expected first token to be allowed")
	}
	if !l.Allow(1) {
		t.Error("expected second token to be allowed (burst)")
	}
	if l.Allow(1) {
		t.Error("expected third token to be rejected (burst exhausted)")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow(1) {
		t.Error("expected token to be refilled after wait")
	}
}

func TestPerMinute(t *testing.T) {
	l := PerMinute(2)
	if !l.Allow(1) {
		t.Fatal("expected first regeneration to be allowed")
	}
	if l.Allow(1) {
		t.Fatal("expected second immediate regeneration to be throttled")
	}

	unlimited := PerMinute(0)
	for i := 0; i < 100; i++ {
		if !unlimited.Allow(1) {
			t.Fatalf("unlimited limiter rejected event %d", i)
		}
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	l.Allow(1) // consume burst

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := l.Wait(ctx, 1); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("Wait returned too early")
	}
}
