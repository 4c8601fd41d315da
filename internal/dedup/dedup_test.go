package dedup

import (
	"sync"
	"testing"
	"time"
)

func TestShouldProcessExactlyOnceConcurrent(t *testing.T) {
	c := New(time.Second)
	key := Key{EventType: "ChatMessage", Room: "roomA", Identity: "abc123456789"}

	const n = 100
	var wg sync.WaitGroup
	results := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.ShouldProcess(key)
		}(i)
	}
	wg.Wait()

	trueCount := 0
	for _, r := range results {
		if r {
			trueCount++
		}
	}
	if trueCount != 1 {
		t.Errorf("expected exactly one true result, got %d", trueCount)
	}
}

func TestShouldProcessDistinctKeys(t *testing.T) {
	c := New(time.Second)
	k1 := Key{EventType: "ChatMessage", Identity: "a"}
	k2 := Key{EventType: "ChatMessage", Identity: "b"}

	if !c.ShouldProcess(k1) || !c.ShouldProcess(k2) {
		t.Error("distinct keys must each be processed once")
	}
}

func TestShouldProcessAfterExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)
	key := Key{EventType: "Danmaku", Identity: "x"}

	if !c.ShouldProcess(key) {
		t.Fatal("first call should process")
	}
	time.Sleep(20 * time.Millisecond)
	if !c.ShouldProcess(key) {
		t.Error("after the window expires, the key should be processable again")
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	c := New(5 * time.Millisecond)
	c.ShouldProcess(Key{Identity: "a"})
	time.Sleep(15 * time.Millisecond)
	c.Sweep()
	if c.Len() != 0 {
		t.Errorf("expected sweep to remove expired entries, len=%d", c.Len())
	}
}
