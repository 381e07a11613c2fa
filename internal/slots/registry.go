package slots

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry owns every active Reservation. A reservation exists only
// between a successful reserve and its confirm/release/expire.
type Registry struct {
	clock Clock

	mu           sync.RWMutex
	reservations map[string]Reservation
}

// NewRegistry creates an empty registry.
func NewRegistry(clock Clock) *Registry {
	if clock == nil {
		clock = SystemClock
	}
	return &Registry{
		clock:        clock,
		reservations: make(map[string]Reservation),
	}
}

// newReservationID builds a collision-resistant id: creation timestamp
// plus a random suffix, so ids sort roughly by age and never collide
// within a millisecond.
func (r *Registry) newReservationID() string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("res_%d_%s", r.clock.Now().UnixMilli(), suffix)
}

// Create stores a new reservation and returns it.
func (r *Registry) Create(product string, isExtra bool, claimantID string, price int) Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := Reservation{
		ID:                 r.newReservationID(),
		ProductName:        product,
		CreatedAt:          r.clock.Now(),
		IsExtra:            isExtra,
		PriceAtReservation: price,
		ClaimantID:         claimantID,
	}
	r.reservations[res.ID] = res
	return res
}

// FindActive scans for an existing claim by the same claimant on the
// same product and tier. Guards against double-submission from retried
// network calls: the caller returns the existing reservation instead
// of double-incrementing the ledger. Linear scan is fine at the scale
// observed (dozens of concurrent reservations).
func (r *Registry) FindActive(product string, isExtra bool, claimantID string) (Reservation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, res := range r.reservations {
		if res.ProductName == product && res.IsExtra == isExtra && res.ClaimantID == claimantID {
			return res, true
		}
	}
	return Reservation{}, false
}

// Get returns a reservation by id.
func (r *Registry) Get(id string) (Reservation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.reservations[id]
	return res, ok
}

// Remove deletes a reservation, reporting whether it was present.
// Removing an already-removed reservation is not an error.
func (r *Registry) Remove(id string) (Reservation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if ok {
		delete(r.reservations, id)
	}
	return res, ok
}

// RemoveAllForProduct deletes and returns every active reservation for
// a product. Used by the confirm fallback when a payment callback
// cannot identify its reservation.
func (r *Registry) RemoveAllForProduct(product string) []Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []Reservation
	for id, res := range r.reservations {
		if res.ProductName == product {
			removed = append(removed, res)
			delete(r.reservations, id)
		}
	}
	return removed
}

// OlderThan returns reservations whose age exceeds ttl. The reaper
// releases them through the normal release path.
func (r *Registry) OlderThan(ttl time.Duration) []Reservation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := r.clock.Now().Add(-ttl)
	var expired []Reservation
	for _, res := range r.reservations {
		if res.CreatedAt.Before(cutoff) {
			expired = append(expired, res)
		}
	}
	return expired
}

// Len returns the number of active reservations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.reservations)
}

// Snapshot returns a copy of all active reservations keyed by id.
func (r *Registry) Snapshot() map[string]Reservation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Reservation, len(r.reservations))
	for id, res := range r.reservations {
		out[id] = res
	}
	return out
}

// Restore replaces the registry contents from a snapshot.
func (r *Registry) Restore(reservations map[string]Reservation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations = make(map[string]Reservation, len(reservations))
	for id, res := range reservations {
		r.reservations[id] = res
	}
}
