package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, time.Second)

	// Test initial capacity
	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	// Test exhaustion
	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	// Test refill after waiting
	time.Sleep(time.Second + 100*time.Millisecond)
	if !tb.Allow() {
		t.Error("Expected tokens to be refilled after waiting")
	}

	// Test reset
	tb.tokens = 0
	tb.Reset()
	if tb.tokens != tb.capacity {
		t.Error("Expected tokens to be reset to capacity")
	}
}

func TestTokenBucketRetryAfter(t *testing.T) {
	tb := NewTokenBucket(1, time.Second)

	if got := tb.RetryAfter(); got != 0 {
		t.Errorf("Expected zero retry-after with tokens available, got %s", got)
	}

	tb.Allow()

	got := tb.RetryAfter()
	if got <= 0 || got > time.Second {
		t.Errorf("Expected retry-after within (0, 1s], got %s", got)
	}
}

func TestTokenBucketWaitContext(t *testing.T) {
	tb := NewTokenBucket(1, 10*time.Second)
	tb.Allow() // exhaust

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := tb.WaitContext(ctx)
	if err == nil {
		t.Fatal("Expected WaitContext to fail when context expires first")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected WaitContext to return promptly after cancellation, took %s", elapsed)
	}
}

func TestPerMinute(t *testing.T) {
	tb := PerMinute(30)

	if tb.capacity != 30 {
		t.Errorf("Expected capacity 30, got %d", tb.capacity)
	}
	if tb.refillPeriod != time.Minute {
		t.Errorf("Expected refill period of one minute, got %s", tb.refillPeriod)
	}
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(3, time.Second)

	// Test initial requests
	for i := 0; i < 3; i++ {
		if !sw.Allow() {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}

	// Test limit reached
	if sw.Allow() {
		t.Error("Expected request to be denied when limit is reached")
	}

	// Test window sliding
	time.Sleep(time.Second + 100*time.Millisecond)
	if !sw.Allow() {
		t.Error("Expected request to be allowed after window slides")
	}

	// Test reset
	sw.Reset()
	if len(sw.requests) != 0 {
		t.Error("Expected requests to be cleared after reset")
	}
}

func TestSlidingWindowWaitContext(t *testing.T) {
	sw := NewSlidingWindow(1, 10*time.Second)
	sw.Allow() // fill the window

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sw.WaitContext(ctx); err == nil {
		t.Fatal("Expected WaitContext to fail on cancelled context")
	}
}

func TestSlidingWindowRetryAfter(t *testing.T) {
	sw := NewSlidingWindow(1, time.Second)

	if got := sw.RetryAfter(); got != 0 {
		t.Errorf("Expected zero retry-after with an empty window, got %s", got)
	}

	sw.Allow()

	got := sw.RetryAfter()
	if got <= 0 || got > time.Second {
		t.Errorf("Expected retry-after within (0, 1s], got %s", got)
	}
}
