package ratelimiter

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFixedWindowLimiter(t *testing.T) {
	rl := NewFixedWindowLimiter(2, time.Minute)

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("10.0.0.1"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	ok, retry := rl.Allow("10.0.0.1")
	if ok {
		t.Error("third request in window should be denied")
	}
	if retry != time.Minute {
		t.Errorf("got retry-after %v, want %v", retry, time.Minute)
	}

	// A different client has its own budget.
	if ok, _ := rl.Allow("10.0.0.2"); !ok {
		t.Error("other client should be allowed")
	}
}

func TestFixedWindowLimiterConcurrent(t *testing.T) {
	const limit = 50
	rl := NewFixedWindowLimiter(limit, time.Minute)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < limit*4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := rl.Allow("10.0.0.1"); ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	// The check and the increment hold one lock, so the window can
	// never over-admit under contention.
	if got := admitted.Load(); got != limit {
		t.Fatalf("admitted %d requests, want exactly %d", got, limit)
	}
}
