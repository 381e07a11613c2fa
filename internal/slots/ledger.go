package slots

import (
	"fmt"
	"sync"
)

// Admin ceilings for the bounded setters.
const (
	RegularMaxCeiling = 20
	ExtraMaxCeiling   = 50
	ExtraPriceFloor   = 1
	ExtraPriceCeiling = 50
)

const dateLayout = "2006-01-02"

// RegularReserveResult is the outcome of a regular-tier claim attempt.
type RegularReserveResult struct {
	OK          bool
	Reason      Reason
	NewCount    int
	Remaining   int
	WasLastSlot bool
}

// ExtraReserveResult is the outcome of an overflow-tier claim attempt.
// PriceCharged is captured before the increment, so successive buyers
// pay BasePrice, BasePrice+1, ...
type ExtraReserveResult struct {
	OK           bool
	Reason       Reason
	PriceCharged int
	NewCount     int
}

// Ledger owns every ProductSlotState. Each product is guarded by its
// own mutex so different products admit in parallel; the map itself is
// guarded separately.
type Ledger struct {
	clock Clock

	mu       sync.RWMutex
	products map[string]*productEntry
}

type productEntry struct {
	mu    sync.Mutex
	state ProductSlotState
}

// NewLedger creates an empty ledger.
func NewLedger(clock Clock) *Ledger {
	if clock == nil {
		clock = SystemClock
	}
	return &Ledger{
		clock:    clock,
		products: make(map[string]*productEntry),
	}
}

// EnsureProduct registers a product if it is not already tracked.
func (l *Ledger) EnsureProduct(name string, regularMax, extraMax, extraBasePrice int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.products[name]; ok {
		return
	}
	if regularMax <= 0 {
		regularMax = 5
	}
	if regularMax > RegularMaxCeiling {
		regularMax = RegularMaxCeiling
	}
	if extraBasePrice < ExtraPriceFloor {
		extraBasePrice = ExtraPriceFloor
	}
	l.products[name] = &productEntry{
		state: ProductSlotState{
			Name:          name,
			RegularMax:    regularMax,
			Available:     true,
			LastResetDate: l.clock.Now().Format(dateLayout),
			Extra: ExtraTier{
				Max:          extraMax,
				BasePrice:    extraBasePrice,
				CurrentPrice: extraBasePrice,
			},
		},
	}
}

// Restore replaces a product's state from a snapshot.
func (l *Ledger) Restore(state ProductSlotState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.products[state.Name] = &productEntry{state: state}
}

func (l *Ledger) entry(name string) (*productEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.products[name]
	return e, ok
}

// Names returns every tracked product name.
func (l *Ledger) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.products))
	for name := range l.products {
		names = append(names, name)
	}
	return names
}

// Get returns a copy of a product's state.
func (l *Ledger) Get(name string) (ProductSlotState, bool) {
	e, ok := l.entry(name)
	if !ok {
		return ProductSlotState{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, true
}

// Snapshot returns a copy of all product states keyed by name.
func (l *Ledger) Snapshot() map[string]ProductSlotState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]ProductSlotState, len(l.products))
	for name, e := range l.products {
		e.mu.Lock()
		out[name] = e.state
		e.mu.Unlock()
	}
	return out
}

// RolloverIfNewDay resets a product's counters when the calendar date
// has changed since the last reset. A manually disabled product only
// advances the date: operator holds survive midnight.
func (l *Ledger) RolloverIfNewDay(name string) (bool, error) {
	e, ok := l.entry(name)
	if !ok {
		return false, ErrProductNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	today := l.clock.Now().Format(dateLayout)
	if e.state.LastResetDate == today {
		return false, nil
	}
	e.state.LastResetDate = today
	if !e.state.Available {
		return false, nil
	}
	e.state.RegularCount = 0
	e.state.Extra.Count = 0
	e.state.Extra.CurrentPrice = e.state.Extra.BasePrice
	return true, nil
}

// TryReserveRegular claims one regular slot. The check-and-increment
// holds the product lock for its whole duration, so of N simultaneous
// callers exactly RegularMax succeed.
func (l *Ledger) TryReserveRegular(name string) (RegularReserveResult, error) {
	e, ok := l.entry(name)
	if !ok {
		return RegularReserveResult{}, ErrProductNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.RegularCount >= e.state.RegularMax {
		return RegularReserveResult{Reason: ReasonCapacityFull}, nil
	}
	e.state.RegularCount++
	return RegularReserveResult{
		OK:          true,
		NewCount:    e.state.RegularCount,
		Remaining:   e.state.RegularMax - e.state.RegularCount,
		WasLastSlot: e.state.RegularCount == e.state.RegularMax,
	}, nil
}

// TryReserveExtra claims one overflow slot. Only valid once the regular
// tier is exhausted; charges the ladder price captured before the
// increment and steps the price up for the next buyer.
func (l *Ledger) TryReserveExtra(name string) (ExtraReserveResult, error) {
	e, ok := l.entry(name)
	if !ok {
		return ExtraReserveResult{}, ErrProductNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.RegularCount < e.state.RegularMax {
		return ExtraReserveResult{Reason: ReasonRegularNotExhausted}, nil
	}
	if e.state.Extra.Count >= e.state.Extra.Max {
		return ExtraReserveResult{Reason: ReasonExtraFull}, nil
	}
	charged := e.state.Extra.CurrentPrice
	e.state.Extra.Count++
	e.state.Extra.CurrentPrice++
	return ExtraReserveResult{
		OK:           true,
		PriceCharged: charged,
		NewCount:     e.state.Extra.Count,
	}, nil
}

// ReleaseRegular returns one regular slot to the pool, flooring at 0.
func (l *Ledger) ReleaseRegular(name string) error {
	e, ok := l.entry(name)
	if !ok {
		return ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.RegularCount > 0 {
		e.state.RegularCount--
	}
	return nil
}

// ReleaseExtra returns one overflow slot and steps the ladder price
// back by one, flooring at the base price.
func (l *Ledger) ReleaseExtra(name string) error {
	e, ok := l.entry(name)
	if !ok {
		return ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Extra.Count > 0 {
		e.state.Extra.Count--
	}
	if e.state.Extra.CurrentPrice > e.state.Extra.BasePrice {
		e.state.Extra.CurrentPrice--
	}
	return nil
}

// ResetCounters zeroes both tiers, used by the admin reset operations.
func (l *Ledger) ResetCounters(name string) error {
	e, ok := l.entry(name)
	if !ok {
		return ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.RegularCount = 0
	e.state.Extra.Count = 0
	e.state.Extra.CurrentPrice = e.state.Extra.BasePrice
	e.state.LastResetDate = l.clock.Now().Format(dateLayout)
	return nil
}

// SetAvailability flips the manual kill-switch.
func (l *Ledger) SetAvailability(name string, available bool) error {
	e, ok := l.entry(name)
	if !ok {
		return ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Available = available
	return nil
}

// SetRegularMax updates the regular cap, bounded by the admin ceiling.
func (l *Ledger) SetRegularMax(name string, max int) error {
	if max < 1 || max > RegularMaxCeiling {
		return fmt.Errorf("%w: regular max must be 1..%d", ErrValidation, RegularMaxCeiling)
	}
	e, ok := l.entry(name)
	if !ok {
		return ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.RegularMax = max
	if e.state.RegularCount > max {
		e.state.RegularCount = max
	}
	return nil
}

// SetRegularCount manually corrects the regular counter, 0..max.
func (l *Ledger) SetRegularCount(name string, count int) error {
	e, ok := l.entry(name)
	if !ok {
		return ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if count < 0 || count > e.state.RegularMax {
		return fmt.Errorf("%w: regular count must be 0..%d", ErrValidation, e.state.RegularMax)
	}
	e.state.RegularCount = count
	return nil
}

// SetExtraMax updates the overflow cap, clamping the count down when
// the cap shrinks below it.
func (l *Ledger) SetExtraMax(name string, max int) error {
	if max < 0 || max > ExtraMaxCeiling {
		return fmt.Errorf("%w: extra max must be 0..%d", ErrValidation, ExtraMaxCeiling)
	}
	e, ok := l.entry(name)
	if !ok {
		return ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Extra.Max = max
	if e.state.Extra.Count > max {
		e.state.Extra.Count = max
		e.state.Extra.CurrentPrice = e.state.Extra.BasePrice + e.state.Extra.Count
	}
	return nil
}

// SetExtraBasePrice updates the ladder base and recomputes the current
// price so the invariant currentPrice = basePrice + count holds.
func (l *Ledger) SetExtraBasePrice(name string, price int) error {
	if price < ExtraPriceFloor || price > ExtraPriceCeiling {
		return fmt.Errorf("%w: extra base price must be %d..%d", ErrValidation, ExtraPriceFloor, ExtraPriceCeiling)
	}
	e, ok := l.entry(name)
	if !ok {
		return ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Extra.BasePrice = price
	e.state.Extra.CurrentPrice = price + e.state.Extra.Count
	return nil
}

// SetExtraCount manually corrects the overflow counter and recomputes
// the ladder price.
func (l *Ledger) SetExtraCount(name string, count int) error {
	e, ok := l.entry(name)
	if !ok {
		return ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if count < 0 || count > e.state.Extra.Max {
		return fmt.Errorf("%w: extra count must be 0..%d", ErrValidation, e.state.Extra.Max)
	}
	e.state.Extra.Count = count
	e.state.Extra.CurrentPrice = e.state.Extra.BasePrice + count
	return nil
}
