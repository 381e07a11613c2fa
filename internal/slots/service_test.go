package slots

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// chanPublisher collects published events for assertions. Publishing
// happens on background goroutines, so collection is channel-based.
type chanPublisher struct {
	events chan SlotEvent
}

func newChanPublisher() *chanPublisher {
	return &chanPublisher{events: make(chan SlotEvent, 64)}
}

func (p *chanPublisher) Publish(_ context.Context, event SlotEvent) error {
	p.events <- event
	return nil
}

func (p *chanPublisher) waitFor(t *testing.T, eventType string) SlotEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-p.events:
			if ev.Type == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event published", eventType)
		}
	}
}

func newTestService(t *testing.T, clock Clock, store SnapshotStore, publisher EventPublisher) Service {
	t.Helper()
	svc, err := NewService(context.Background(), Options{
		Clock:     clock,
		Store:     store,
		Publisher: publisher,
		Products: []ProductSeed{
			{Name: "bread", RegularMax: 5, ExtraMax: 8, ExtraBasePrice: 3},
			{Name: "cake", RegularMax: 2},
		},
		ReservationTTL: 30 * time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func waitForSaves(t *testing.T, store *MemorySnapshotStore, atLeast int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.Saves() >= atLeast {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("store saw %d saves, want at least %d", store.Saves(), atLeast)
}

func TestReserveConcurrentExactlyMaxSucceed(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	svc := newTestService(t, clock, nil, nil)
	ctx := context.Background()

	const attempts = 20
	var wg sync.WaitGroup
	outcomes := make([]*ReserveOutcome, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := svc.Reserve(ctx, "bread", false, string(rune('a'+i)))
			if err != nil {
				t.Errorf("reserve %d: %v", i, err)
				return
			}
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	granted, full := 0, 0
	for _, out := range outcomes {
		if out == nil {
			continue
		}
		switch {
		case out.OK:
			granted++
		case out.Reason == ReasonCapacityFull:
			full++
		default:
			t.Errorf("unexpected reject reason %s", out.Reason)
		}
	}
	if granted != 5 {
		t.Errorf("granted = %d, want exactly regularMax (5)", granted)
	}
	if full != attempts-5 {
		t.Errorf("capacity rejects = %d, want %d", full, attempts-5)
	}
}

func TestReserveDuplicateReturnsExisting(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	svc := newTestService(t, clock, nil, nil)
	ctx := context.Background()

	first, err := svc.Reserve(ctx, "bread", false, "alice")
	if err != nil || !first.OK {
		t.Fatalf("first reserve: %+v %v", first, err)
	}
	second, err := svc.Reserve(ctx, "bread", false, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !second.OK || !second.IsDuplicate {
		t.Fatalf("retry = %+v, want duplicate grant", second)
	}
	if second.Reservation.ID != first.Reservation.ID {
		t.Errorf("retry returned a new reservation %s, want %s", second.Reservation.ID, first.Reservation.ID)
	}

	// The retry must not have consumed a second slot.
	avail, err := svc.Availability(ctx, "bread")
	if err != nil {
		t.Fatal(err)
	}
	if avail.Count != 1 {
		t.Errorf("count = %d after duplicate retry, want 1", avail.Count)
	}
}

func TestReserveRejectReasons(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	svc := newTestService(t, clock, nil, nil)
	ctx := context.Background()

	out, err := svc.Reserve(ctx, "croissant", false, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if out.OK || out.Reason != ReasonNotFound {
		t.Errorf("unknown product: %+v, want NOT_FOUND", out)
	}

	if err := svc.SetAvailability(ctx, "bread", false); err != nil {
		t.Fatal(err)
	}
	out, _ = svc.Reserve(ctx, "bread", false, "alice")
	if out.OK || out.Reason != ReasonDisabled {
		t.Errorf("disabled product: %+v, want DISABLED", out)
	}
	svc.SetAvailability(ctx, "bread", true)

	clock.Set(mondayAt(10, 0)) // before the 15:30 opening
	out, _ = svc.Reserve(ctx, "bread", false, "alice")
	if out.OK || out.Reason != ReasonTimeRestricted {
		t.Errorf("outside window: %+v, want TIME_RESTRICTED", out)
	}
	clock.Set(mondayAt(16, 0))

	if err := svc.BanClaimant(ctx, "Mallory", "fraud"); err != nil {
		t.Fatal(err)
	}
	out, _ = svc.Reserve(ctx, "bread", false, "mallory")
	if out.OK || out.Reason != ReasonBanned {
		t.Errorf("banned claimant: %+v, want BANNED", out)
	}

	svc.SetTestMode(ctx, true)
	out, _ = svc.Reserve(ctx, "bread", false, "alice")
	if out.OK || out.Reason != ReasonTestModeBlocked {
		t.Errorf("test mode: %+v, want TEST_MODE_BLOCKED", out)
	}
}

func TestReserveExtraTierFlow(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	svc := newTestService(t, clock, nil, nil)
	ctx := context.Background()

	out, err := svc.Reserve(ctx, "bread", true, "early-bird")
	if err != nil {
		t.Fatal(err)
	}
	if out.OK || out.Reason != ReasonRegularNotExhausted {
		t.Fatalf("extra before exhaustion: %+v", out)
	}

	for i := 0; i < 5; i++ {
		if out, err := svc.Reserve(ctx, "bread", false, string(rune('a'+i))); err != nil || !out.OK {
			t.Fatalf("regular %d: %+v %v", i, out, err)
		}
	}

	out, err = svc.Reserve(ctx, "bread", true, "overflow-1")
	if err != nil || !out.OK {
		t.Fatalf("first extra: %+v %v", out, err)
	}
	if out.ExtraPrice != 3 {
		t.Errorf("first extra price = %d, want base 3", out.ExtraPrice)
	}
	out, _ = svc.Reserve(ctx, "bread", true, "overflow-2")
	if out.ExtraPrice != 4 {
		t.Errorf("second extra price = %d, want 4", out.ExtraPrice)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	svc := newTestService(t, clock, nil, nil)
	ctx := context.Background()

	out, _ := svc.Reserve(ctx, "bread", false, "alice")
	first, err := svc.Release(ctx, out.Reservation.ID, "bread")
	if err != nil || !first.Released {
		t.Fatalf("first release: %+v %v", first, err)
	}
	if first.Remaining != 5 {
		t.Errorf("remaining after release = %d, want 5", first.Remaining)
	}

	second, err := svc.Release(ctx, out.Reservation.ID, "bread")
	if err != nil {
		t.Fatal(err)
	}
	if second.Released {
		t.Error("second release reported Released=true, want idempotent no-op")
	}
}

func TestReleaseWrongProduct(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	svc := newTestService(t, clock, nil, nil)
	ctx := context.Background()

	out, _ := svc.Reserve(ctx, "bread", false, "alice")
	if _, err := svc.Release(ctx, out.Reservation.ID, "cake"); !errors.Is(err, ErrProductMismatch) {
		t.Errorf("err = %v, want ErrProductMismatch", err)
	}
}

func TestConfirmConsumesWithoutReturningSlot(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	svc := newTestService(t, clock, nil, nil)
	ctx := context.Background()

	out, _ := svc.Reserve(ctx, "bread", false, "alice")
	confirm, err := svc.Confirm(ctx, "bread", out.Reservation.ID)
	if err != nil || confirm.Confirmed != 1 {
		t.Fatalf("confirm: %+v %v", confirm, err)
	}

	// A confirmed sale keeps its slot consumed for the day.
	avail, _ := svc.Availability(ctx, "bread")
	if avail.Count != 1 {
		t.Errorf("count = %d after confirm, want 1", avail.Count)
	}

	// Confirming again is a no-op, and the reservation can no longer
	// be released back.
	confirm, err = svc.Confirm(ctx, "bread", out.Reservation.ID)
	if err != nil || confirm.Confirmed != 0 {
		t.Fatalf("re-confirm: %+v %v", confirm, err)
	}
	rel, err := svc.Release(ctx, out.Reservation.ID, "bread")
	if err != nil || rel.Released {
		t.Errorf("release after confirm: %+v %v, want no-op", rel, err)
	}
}

func TestConfirmAllForProductFallback(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	svc := newTestService(t, clock, nil, nil)
	ctx := context.Background()

	svc.Reserve(ctx, "bread", false, "alice")
	svc.Reserve(ctx, "bread", false, "bob")
	svc.Reserve(ctx, "cake", false, "carol")

	confirm, err := svc.Confirm(ctx, "bread", "")
	if err != nil {
		t.Fatal(err)
	}
	if confirm.Confirmed != 2 {
		t.Errorf("confirmed = %d, want both bread reservations", confirm.Confirmed)
	}

	// Carol's cake reservation is untouched.
	rel, err := svc.Release(ctx, "nonexistent", "cake")
	if err != nil || rel.Released {
		t.Fatalf("sanity release: %+v %v", rel, err)
	}
	confirm, _ = svc.Confirm(ctx, "cake", "")
	if confirm.Confirmed != 1 {
		t.Errorf("cake confirm = %d, want 1", confirm.Confirmed)
	}
}

func TestSnapshotPersistAndRestore(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	store := NewMemorySnapshotStore()
	svc := newTestService(t, clock, store, nil)
	ctx := context.Background()

	out, _ := svc.Reserve(ctx, "bread", false, "alice")
	svc.SetTestMode(ctx, true)
	waitForSaves(t, store, 2)

	// A fresh service over the same store picks up where we left off.
	restored := newTestService(t, clock, store, nil)
	avail, err := restored.Availability(ctx, "bread")
	if err != nil {
		t.Fatal(err)
	}
	if avail.Count != 1 {
		t.Errorf("restored count = %d, want 1", avail.Count)
	}
	testMode, _, _, _ := restored.AccessState(ctx)
	if !testMode {
		t.Error("restored service lost test mode")
	}

	// The active reservation survives the restart and is still
	// duplicate-detected.
	retry, err := restored.Reserve(ctx, "bread", false, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !retry.IsDuplicate || retry.Reservation.ID != out.Reservation.ID {
		t.Errorf("retry after restore = %+v, want duplicate of %s", retry, out.Reservation.ID)
	}
}

func TestSoldOutEventPublished(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	publisher := newChanPublisher()
	svc := newTestService(t, clock, nil, publisher)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if out, err := svc.Reserve(ctx, "cake", false, string(rune('a'+i))); err != nil || !out.OK {
			t.Fatalf("reserve %d: %+v %v", i, out, err)
		}
	}

	ev := publisher.waitFor(t, EventSoldOut)
	if ev.ProductName != "cake" {
		t.Errorf("sold-out event for %q, want cake", ev.ProductName)
	}
}

func TestAvailabilityView(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	svc := newTestService(t, clock, nil, nil)
	ctx := context.Background()

	avail, err := svc.Availability(ctx, "bread")
	if err != nil {
		t.Fatal(err)
	}
	if !avail.Available || avail.Remaining != 5 {
		t.Errorf("fresh product: %+v", avail)
	}
	if avail.Extra == nil || avail.Extra.Available {
		t.Errorf("extra tier should exist but be closed: %+v", avail.Extra)
	}

	for i := 0; i < 5; i++ {
		svc.Reserve(ctx, "bread", false, string(rune('a'+i)))
	}
	avail, _ = svc.Availability(ctx, "bread")
	if avail.Available {
		t.Error("regular tier should be sold out")
	}
	if avail.Extra == nil || !avail.Extra.Available || avail.Extra.Price != 3 {
		t.Errorf("extra tier should open at base price: %+v", avail.Extra)
	}

	clock.Set(mondayAt(10, 0))
	avail, _ = svc.Availability(ctx, "bread")
	if !avail.TimeRestricted || avail.NextAvailable != "15:30 today" {
		t.Errorf("morning view: %+v, want time-restricted with hint", avail)
	}
}

func TestForceTimerResetRunsRollover(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	svc := newTestService(t, clock, nil, nil)
	ctx := context.Background()

	svc.Reserve(ctx, "bread", false, "alice")
	clock.Advance(24 * time.Hour)

	resetAt := svc.ForceTimerReset(ctx)
	if !resetAt.Equal(clock.Now()) {
		t.Errorf("resetAt = %v, want clock time", resetAt)
	}
	avail, _ := svc.Availability(ctx, "bread")
	if avail.Count != 0 {
		t.Errorf("count = %d after forced reset on new day, want 0", avail.Count)
	}
}
