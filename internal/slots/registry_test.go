package slots

import (
	"strings"
	"testing"
	"time"
)

func TestCreateAssignsUniqueIDs(t *testing.T) {
	r := NewRegistry(newFakeClock(mondayAt(16, 0)))

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		res := r.Create("bread", false, "claimant", 0)
		if !strings.HasPrefix(res.ID, "res_") {
			t.Fatalf("id %q missing res_ prefix", res.ID)
		}
		if seen[res.ID] {
			t.Fatalf("duplicate id %q", res.ID)
		}
		seen[res.ID] = true
	}
}

func TestFindActiveMatchesProductTierAndClaimant(t *testing.T) {
	r := NewRegistry(newFakeClock(mondayAt(16, 0)))
	created := r.Create("bread", false, "alice", 0)

	res, ok := r.FindActive("bread", false, "alice")
	if !ok || res.ID != created.ID {
		t.Fatalf("FindActive = %+v %v, want the created reservation", res, ok)
	}

	// Different tier, product, or claimant must not match.
	if _, ok := r.FindActive("bread", true, "alice"); ok {
		t.Error("extra-tier lookup matched a regular reservation")
	}
	if _, ok := r.FindActive("cake", false, "alice"); ok {
		t.Error("other product matched")
	}
	if _, ok := r.FindActive("bread", false, "bob"); ok {
		t.Error("other claimant matched")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := NewRegistry(newFakeClock(mondayAt(16, 0)))
	res := r.Create("bread", false, "alice", 0)

	if _, ok := r.Remove(res.ID); !ok {
		t.Fatal("first remove should find the reservation")
	}
	if _, ok := r.Remove(res.ID); ok {
		t.Error("second remove should report missing, not fail")
	}
	if r.Len() != 0 {
		t.Errorf("len = %d, want 0", r.Len())
	}
}

func TestRemoveAllForProduct(t *testing.T) {
	r := NewRegistry(newFakeClock(mondayAt(16, 0)))
	r.Create("bread", false, "alice", 0)
	r.Create("bread", true, "bob", 4)
	r.Create("cake", false, "carol", 0)

	removed := r.RemoveAllForProduct("bread")
	if len(removed) != 2 {
		t.Fatalf("removed %d reservations, want 2", len(removed))
	}
	if r.Len() != 1 {
		t.Errorf("len = %d, want 1 (cake untouched)", r.Len())
	}
}

func TestOlderThan(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	r := NewRegistry(clock)

	old := r.Create("bread", false, "alice", 0)
	clock.Advance(20 * time.Minute)
	young := r.Create("bread", false, "bob", 0)
	clock.Advance(15 * time.Minute)

	expired := r.OlderThan(30 * time.Minute)
	if len(expired) != 1 {
		t.Fatalf("expired %d reservations, want 1", len(expired))
	}
	if expired[0].ID != old.ID {
		t.Errorf("expired %s, want %s (the 35-minute-old claim, not %s)", expired[0].ID, old.ID, young.ID)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	r := NewRegistry(clock)
	r.Create("bread", false, "alice", 0)
	r.Create("bread", true, "bob", 5)

	snap := r.Snapshot()

	fresh := NewRegistry(clock)
	fresh.Restore(snap)
	if fresh.Len() != 2 {
		t.Fatalf("restored len = %d, want 2", fresh.Len())
	}
	if _, ok := fresh.FindActive("bread", true, "bob"); !ok {
		t.Error("restored registry lost bob's extra reservation")
	}
}
