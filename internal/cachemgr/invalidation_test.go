package cachemgr

import (
	"context"
	"testing"
	"time"
)

func TestApplyUserInvalidationEvictsL1(t *testing.T) {
	l2 := newFakeL2()
	mgr := NewManager(l2, 100, time.Minute)
	ctx := context.Background()
	bus := NewInvalidationBus(nil, "", mgr, nil)

	load := func(ctx context.Context) (any, error) {
		return userRecord{ID: "u1", Name: "alice"}, nil
	}
	var out userRecord
	_ = mgr.GetUser(ctx, "u1", &out, load)

	bus.Apply(ctx, InvalidationMessage{Kind: InvalidateUser, ID: "u1"})

	if _, ok := mgr.userL1.Get("user:u1"); ok {
		t.Error("expected user entry to be evicted from L1")
	}
}

func TestApplyAllFlushesBothTiers(t *testing.T) {
	l2 := newFakeL2()
	mgr := NewManager(l2, 100, time.Minute)
	ctx := context.Background()
	bus := NewInvalidationBus(nil, "", mgr, nil)

	_ = mgr.GetUser(ctx, "u1", &userRecord{}, func(ctx context.Context) (any, error) {
		return userRecord{ID: "u1"}, nil
	})
	_ = mgr.GetRoom(ctx, "r1", &userRecord{}, func(ctx context.Context) (any, error) {
		return userRecord{ID: "r1"}, nil
	})

	bus.Apply(ctx, InvalidationMessage{Kind: InvalidateAll})

	if mgr.userL1.Len() != 0 || mgr.roomL1.Len() != 0 {
		t.Error("expected both L1 tiers to be flushed")
	}
}

func TestApplyMalformedKindIsNoop(t *testing.T) {
	l2 := newFakeL2()
	mgr := NewManager(l2, 100, time.Minute)
	bus := NewInvalidationBus(nil, "", mgr, nil)
	bus.Apply(context.Background(), InvalidationMessage{Kind: "bogus"})
}
