package registry

import (
	"context"
	"testing"

	"github.com/synctv-org/synctv-core/internal/ids"
)

func TestTryClaimSingleOwner(t *testing.T) {
	reg := New(NewMemoryStore(), 0, nil)
	ctx := context.Background()
	key := ids.NewRoomMediaKey("roomA", "mediaX")

	epoch1, ok, err := reg.TryClaim(ctx, key, "n1", "n1:9000")
	if err != nil || !ok || epoch1 != 1 {
		t.Fatalf("first claim should succeed with epoch 1, got (%d, %v, %v)", epoch1, ok, err)
	}

	_, ok, err = reg.TryClaim(ctx, key, "n2", "n2:9000")
	if err != nil || ok {
		t.Fatalf("second claim should fail on contention, got ok=%v err=%v", ok, err)
	}
}

func TestFencingMonotonicAcrossFailover(t *testing.T) {
	reg := New(NewMemoryStore(), 0, nil)
	ctx := context.Background()
	key := ids.NewRoomMediaKey("roomA", "mediaX")

	epoch1, _, _ := reg.TryClaim(ctx, key, "n1", "n1:9000")
	if err := reg.Release(ctx, key, "n1"); err != nil {
		t.Fatalf("release: %v", err)
	}

	epoch2, ok, err := reg.TryClaim(ctx, key, "n3", "n3:9000")
	if err != nil || !ok {
		t.Fatalf("claim after release should succeed: ok=%v err=%v", ok, err)
	}
	if epoch2 <= epoch1 {
		t.Errorf("epoch after failover (%d) must exceed prior epoch (%d)", epoch2, epoch1)
	}
}

func TestValidateEpochDetectsStaleOwner(t *testing.T) {
	reg := New(NewMemoryStore(), 0, nil)
	ctx := context.Background()
	key := ids.NewRoomMediaKey("roomA", "mediaX")

	epoch1, _, _ := reg.TryClaim(ctx, key, "n1", "n1:9000")
	if !reg.ValidateEpoch(ctx, key, epoch1) {
		t.Error("epoch should validate immediately after claim")
	}

	reg.Release(ctx, key, "n1")
	reg.TryClaim(ctx, key, "n3", "n3:9000")

	if reg.ValidateEpoch(ctx, key, epoch1) {
		t.Error("stale epoch must fail validation after failover")
	}
}

func TestRefreshRejectsNonOwner(t *testing.T) {
	reg := New(NewMemoryStore(), 0, nil)
	ctx := context.Background()
	key := ids.NewRoomMediaKey("roomA", "mediaX")

	reg.TryClaim(ctx, key, "n1", "n1:9000")
	if err := reg.Refresh(ctx, key, "n2"); err != ErrOwnedByOther {
		t.Errorf("expected ErrOwnedByOther, got %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	reg := New(NewMemoryStore(), 0, nil)
	ctx := context.Background()
	key := ids.NewRoomMediaKey("roomA", "mediaX")

	if err := reg.Release(ctx, key, "n1"); err != nil {
		t.Errorf("releasing an absent record should be a no-op, got %v", err)
	}
}

func TestListActive(t *testing.T) {
	reg := New(NewMemoryStore(), 0, nil)
	ctx := context.Background()

	reg.TryClaim(ctx, ids.NewRoomMediaKey("roomA", "m1"), "n1", "n1:9000")
	reg.TryClaim(ctx, ids.NewRoomMediaKey("roomB", "m2"), "n1", "n1:9000")

	active, err := reg.ListActive(ctx)
	if err != nil || len(active) != 2 {
		t.Errorf("expected 2 active streams, got %d (err=%v)", len(active), err)
	}
}
