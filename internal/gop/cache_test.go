package gop

import "testing"

func frame(kind Kind, key bool, n int) *Frame {
	return NewFrame(kind, 0, make([]byte, n), key)
}

func TestCacheSnapshotStartsWithKeyframe(t *testing.T) {
	c := NewCache(2, 1<<20)

	c.Append(frame(Video, true, 10))
	c.Append(frame(Video, false, 10))
	c.Append(frame(Video, true, 10))

	snap := c.Snapshot()
	if len(snap) == 0 {
		t.Fatal("expected non-empty snapshot")
	}
	if !snap[0].IsKeyframe {
		t.Error("first frame of snapshot must be a keyframe")
	}
}

func TestCacheEvictsOldestGopPastMax(t *testing.T) {
	c := NewCache(2, 1<<20)

	for i := 0; i < 4; i++ {
		c.Append(frame(Video, true, 10))
		c.Append(frame(Video, false, 10))
	}

	if got := c.CompletedGopCount(); got > 2 {
		t.Errorf("expected at most 2 completed gops, got %d", got)
	}
}

func TestCacheEnforcesByteBound(t *testing.T) {
	c := NewCache(10, 100)

	for i := 0; i < 20; i++ {
		c.Append(frame(Video, true, 20))
		c.Append(frame(Video, false, 20))
	}

	if c.TotalBytes() > 100 {
		t.Errorf("total bytes %d exceeds bound", c.TotalBytes())
	}
}

func TestCacheEmptySnapshot(t *testing.T) {
	c := NewCache(2, 1<<20)
	if len(c.Snapshot()) != 0 {
		t.Error("new cache should have empty snapshot")
	}
}

func TestCacheReset(t *testing.T) {
	c := NewCache(2, 1<<20)
	c.Append(frame(Video, true, 10))
	c.Reset()
	if len(c.Snapshot()) != 0 || c.TotalBytes() != 0 {
		t.Error("reset should clear all cached frames and byte accounting")
	}
}
