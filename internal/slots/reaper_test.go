package slots

import (
	"context"
	"testing"
	"time"
)

func TestSweepReleasesOnlyExpired(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	svc := newTestService(t, clock, nil, nil)
	ctx := context.Background()

	old, _ := svc.Reserve(ctx, "bread", false, "alice")
	clock.Advance(20 * time.Minute)
	young, _ := svc.Reserve(ctx, "bread", false, "bob")
	clock.Advance(15 * time.Minute) // alice is now 35m old, bob 15m

	reaper := NewReaper(svc, nil)
	reaper.Sweep(ctx)

	avail, _ := svc.Availability(ctx, "bread")
	if avail.Count != 1 {
		t.Errorf("count = %d after sweep, want 1 (only the stale claim released)", avail.Count)
	}

	// Alice's claim is gone, Bob's still holds.
	rel, err := svc.Release(ctx, old.Reservation.ID, "bread")
	if err != nil || rel.Released {
		t.Errorf("stale claim still present after sweep: %+v %v", rel, err)
	}
	rel, err = svc.Release(ctx, young.Reservation.ID, "bread")
	if err != nil || !rel.Released {
		t.Errorf("fresh claim lost by sweep: %+v %v", rel, err)
	}
}

func TestSweepPublishesExpiredEvent(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	publisher := newChanPublisher()
	svc := newTestService(t, clock, nil, publisher)
	ctx := context.Background()

	out, _ := svc.Reserve(ctx, "bread", false, "alice")
	clock.Advance(31 * time.Minute)

	NewReaper(svc, nil).Sweep(ctx)

	ev := publisher.waitFor(t, EventExpired)
	if ev.ReservationID != out.Reservation.ID {
		t.Errorf("expired event for %s, want %s", ev.ReservationID, out.Reservation.ID)
	}
}

func TestSweepRunsDayRollover(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	svc := newTestService(t, clock, nil, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		svc.Reserve(ctx, "bread", false, string(rune('a'+i)))
	}
	clock.Advance(24 * time.Hour)

	NewReaper(svc, nil).Sweep(ctx)

	avail, _ := svc.Availability(ctx, "bread")
	if avail.Count != 0 {
		t.Errorf("count = %d after midnight sweep, want 0", avail.Count)
	}
	if avail.Remaining != 5 {
		t.Errorf("remaining = %d, want full pool back", avail.Remaining)
	}
}

func TestReaperStartStop(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	svc := newTestService(t, clock, nil, nil)

	reaper := NewReaper(svc, &ReaperConfig{SweepInterval: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reaper.Start(ctx)
	time.Sleep(20 * time.Millisecond) // let a few ticks run
	reaper.Stop()
}
