package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc"

	"github.com/synctv-org/synctv-core/internal/ids"
	"github.com/synctv-org/synctv-core/internal/registry"
)

var errDialRefused = errors.New("dial refused in test")

func failingDial(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	return nil, errDialRefused
}

func TestGetOrCreateReturnsSameStreamOnRepeatedCalls(t *testing.T) {
	store := registry.NewMemoryStore()
	reg := registry.New(store, 0, nil)
	key := ids.NewRoomMediaKey("room1", "cam1")

	if _, ok, err := reg.TryClaim(context.Background(), key, "owner-node", "owner:1234"); err != nil || !ok {
		t.Fatalf("setup claim failed: ok=%v err=%v", ok, err)
	}

	mgr := NewPullManager(reg, failingDial, 0, 0, nil)

	first := mgr.GetOrCreate(context.Background(), key)
	second := mgr.GetOrCreate(context.Background(), key)
	if first != second {
		t.Error("expected GetOrCreate to return the same PullStream for concurrent callers")
	}
}

func TestGetOrCreateCleansUpAfterRunFails(t *testing.T) {
	store := registry.NewMemoryStore()
	reg := registry.New(store, 0, nil)
	key := ids.NewRoomMediaKey("room2", "cam1")
	// No claim exists for key, so Run should fail fast with ErrNoPublisher.

	mgr := NewPullManager(reg, failingDial, 0, 0, nil)
	mgr.GetOrCreate(context.Background(), key)

	deadline := time.Now().Add(time.Second)
	for mgr.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if mgr.Count() != 0 {
		t.Error("expected the manager to clean up the entry after Run failed")
	}
}

func TestSweepRemovesIdlePullStreams(t *testing.T) {
	store := registry.NewMemoryStore()
	reg := registry.New(store, 0, nil)
	key := ids.NewRoomMediaKey("room3", "cam1")
	if _, ok, err := reg.TryClaim(context.Background(), key, "owner-node", "owner:1234"); err != nil || !ok {
		t.Fatalf("setup claim failed: ok=%v err=%v", ok, err)
	}

	mgr := NewPullManager(reg, failingDial, 0, 0, nil)
	mgr.GetOrCreate(context.Background(), key)

	mgr.Sweep(0) // first pass only marks idleSince
	mgr.Sweep(0) // second pass observes the elapsed idle window and evicts

	if mgr.Count() != 0 {
		t.Error("expected a zero idle timeout to sweep an entry with no sinks after two passes")
	}
}
