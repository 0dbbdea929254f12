package followstore

import (
	"testing"

	"followstore/pkg/eventbus"
	"followstore/pkg/ferrors"
	"followstore/pkg/kv"
	"followstore/pkg/message"
	"followstore/pkg/metrics"
)

func newPruneTestStore(t *testing.T, cfg Config) (*Store, *eventbus.Bus) {
	t.Helper()
	e, err := kv.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("kv.Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	bus := eventbus.New()
	return New(e, bus, metrics.NewCollector(), cfg), bus
}

func uintPtr(v uint) *uint { return &v }

func TestPruneMessagesIsNoopWithoutCaps(t *testing.T) {
	s, _ := newPruneTestStore(t, Config{})
	if err := s.Merge(add(fid(1), fid(2), 100, hash(1))); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if err := s.PruneMessages(fid(1)); err != nil {
		t.Fatalf("PruneMessages: %v", err)
	}
	if _, err := s.GetFollowAdd(fid(1), fid(2)); err != nil {
		t.Fatalf("expected message retained with no caps, got %v", err)
	}
}

func TestPruneMessagesEvictsOldestBeyondSizeLimit(t *testing.T) {
	s, _ := newPruneTestStore(t, Config{PruneSizeLimit: uintPtr(2)})
	for i, target := range []byte{1, 2, 3} {
		ts := uint32(100 + i*10)
		if err := s.Merge(add(fid(1), fid(target), ts, hash(target))); err != nil {
			t.Fatalf("Merge: %v", err)
		}
	}

	if err := s.PruneMessages(fid(1)); err != nil {
		t.Fatalf("PruneMessages: %v", err)
	}

	if _, err := s.GetFollowAdd(fid(1), fid(1)); !ferrors.IsNotFound(err) {
		t.Fatalf("expected oldest follow (target=1) evicted, got err=%v", err)
	}
	if _, err := s.GetFollowAdd(fid(1), fid(2)); err != nil {
		t.Fatalf("expected target=2 retained: %v", err)
	}
	if _, err := s.GetFollowAdd(fid(1), fid(3)); err != nil {
		t.Fatalf("expected target=3 retained: %v", err)
	}
}

func TestPruneMessagesEvictsEntriesOlderThanTimeLimit(t *testing.T) {
	maxAge := uint32(50)
	now := uint32(1000)
	s, _ := newPruneTestStore(t, Config{
		PruneTimeLimit: &maxAge,
		Clock:          func() uint32 { return now },
	})

	if err := s.Merge(add(fid(1), fid(1), now-100, hash(1))); err != nil { // stale
		t.Fatalf("Merge: %v", err)
	}
	if err := s.Merge(add(fid(1), fid(2), now-10, hash(2))); err != nil { // fresh
		t.Fatalf("Merge: %v", err)
	}

	if err := s.PruneMessages(fid(1)); err != nil {
		t.Fatalf("PruneMessages: %v", err)
	}

	if _, err := s.GetFollowAdd(fid(1), fid(1)); !ferrors.IsNotFound(err) {
		t.Fatalf("expected stale follow (target=1) evicted, got err=%v", err)
	}
	if _, err := s.GetFollowAdd(fid(1), fid(2)); err != nil {
		t.Fatalf("expected fresh follow (target=2) retained: %v", err)
	}
}

func TestPruneMessagesKeepsEverythingWhenUnderBothCaps(t *testing.T) {
	maxAge := uint32(1000)
	now := uint32(1000)
	s, _ := newPruneTestStore(t, Config{
		PruneSizeLimit: uintPtr(10),
		PruneTimeLimit: &maxAge,
		Clock:          func() uint32 { return now },
	})

	if err := s.Merge(add(fid(1), fid(1), now-100, hash(1))); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if err := s.PruneMessages(fid(1)); err != nil {
		t.Fatalf("PruneMessages: %v", err)
	}
	if _, err := s.GetFollowAdd(fid(1), fid(1)); err != nil {
		t.Fatalf("expected message retained under both caps, got %v", err)
	}
}

func TestPruneMessagesPublishesPruneEvents(t *testing.T) {
	s, bus := newPruneTestStore(t, Config{PruneSizeLimit: uintPtr(1)})
	var pruned []*message.Message
	bus.Subscribe(eventbus.KindPrune, func(m *message.Message) {
		pruned = append(pruned, m)
	})

	for i, target := range []byte{1, 2} {
		ts := uint32(100 + i*10)
		if err := s.Merge(add(fid(1), fid(target), ts, hash(target))); err != nil {
			t.Fatalf("Merge: %v", err)
		}
	}
	if err := s.PruneMessages(fid(1)); err != nil {
		t.Fatalf("PruneMessages: %v", err)
	}
	if len(pruned) != 1 {
		t.Fatalf("got %d prune events, want 1", len(pruned))
	}
	if !bytesEqualFid(pruned[0].TargetFid, fid(1)) {
		t.Fatalf("expected oldest entry (target=1) pruned, got target=%x", pruned[0].TargetFid)
	}
}

func bytesEqualFid(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
