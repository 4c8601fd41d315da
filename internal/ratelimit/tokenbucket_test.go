package ratelimit

import (
	"testing"
	"time"
)

func TestAllowConsumesTokensUpToCapacity(t *testing.T) {
	b := New(1, 3)
	for i := 0; i < 3; i++ {
		if !b.Allow() {
			t.Fatalf("expected burst token %d to be allowed", i)
		}
	}
	if b.Allow() {
		t.Error("expected bucket to be exhausted after burst")
	}
}

func TestAllowRefillsOverTime(t *testing.T) {
	b := New(1, 1)
	start := time.Now()
	cur := start
	b.now = func() time.Time { return cur }

	if !b.Allow() {
		t.Fatal("expected initial token to be available")
	}
	if b.Allow() {
		t.Fatal("expected bucket to be exhausted")
	}

	cur = start.Add(2 * time.Second)
	if !b.Allow() {
		t.Error("expected a token to have refilled after 2 seconds at rate 1/s")
	}
}
