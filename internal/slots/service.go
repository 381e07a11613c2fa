package slots

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"slotly/pkg/logger"
)

// Slot lifecycle event types published for downstream collaborators
// (checkout, fulfilment automation).
const (
	EventReserved  = "slot.reserved"
	EventReleased  = "slot.released"
	EventExpired   = "slot.expired"
	EventConfirmed = "slot.confirmed"
	EventSoldOut   = "slot.sold_out"
)

// SlotEvent describes one slot lifecycle transition.
type SlotEvent struct {
	Type          string    `json:"type"`
	ProductName   string    `json:"product_name"`
	ReservationID string    `json:"reservation_id,omitempty"`
	ClaimantID    string    `json:"claimant_id,omitempty"`
	IsExtra       bool      `json:"is_extra"`
	Price         int       `json:"price,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventPublisher pushes slot events to the downstream bus. Publishing
// is best-effort and never blocks the admission path.
type EventPublisher interface {
	Publish(ctx context.Context, event SlotEvent) error
}

// ReserveOutcome is the typed result of a reserve call. A reject is a
// normal business outcome carried in Reason, never an error.
type ReserveOutcome struct {
	OK          bool
	Reason      Reason
	Reservation Reservation
	IsDuplicate bool
	Remaining   int
	ExtraPrice  int
	WasLastSlot bool
}

// ReleaseOutcome reports whether a release actually returned a slot.
// Released=false means the reservation was already gone (idempotent).
type ReleaseOutcome struct {
	Released  bool
	Remaining int
}

// ConfirmOutcome reports how many reservations a confirm consumed.
type ConfirmOutcome struct {
	Confirmed int
}

// ExtraAvailability describes the overflow tier in availability
// responses. Nil when the product has no overflow tier configured.
type ExtraAvailability struct {
	Available bool `json:"available"`
	Count     int  `json:"count"`
	Max       int  `json:"max"`
	Price     int  `json:"price"`
	NextPrice int  `json:"next_price"`
}

// AvailabilityResult is the public availability view of one product.
type AvailabilityResult struct {
	ProductName      string             `json:"product_name"`
	Available        bool               `json:"available"`
	Remaining        int                `json:"remaining"`
	Count            int                `json:"count"`
	Max              int                `json:"max"`
	ManuallyDisabled bool               `json:"manually_disabled"`
	TimeRestricted   bool               `json:"time_restricted"`
	Message          string             `json:"message,omitempty"`
	NextAvailable    string             `json:"next_available,omitempty"`
	Extra            *ExtraAvailability `json:"extra,omitempty"`
}

// ProductSeed configures one product at startup.
type ProductSeed struct {
	Name           string
	RegularMax     int
	ExtraMax       int
	ExtraBasePrice int
}

// Options wires the admission service together.
type Options struct {
	Clock          Clock
	Store          SnapshotStore   // nil runs memory-only
	Publisher      EventPublisher  // nil disables events
	Products       []ProductSeed
	Schedule       *AvailabilitySchedule
	ReservationTTL time.Duration // default 30m
}

// Service is the admission-control engine: one atomic reserve, one
// atomic release/confirm, plus the operator surface.
type Service interface {
	Availability(ctx context.Context, product string) (*AvailabilityResult, error)
	Reserve(ctx context.Context, product string, isExtra bool, claimantID string) (*ReserveOutcome, error)
	Release(ctx context.Context, reservationID, product string) (*ReleaseOutcome, error)
	Confirm(ctx context.Context, product, reservationID string) (*ConfirmOutcome, error)

	// Reaper entry points.
	SweepExpired(ctx context.Context) int
	RolloverAll(ctx context.Context)
	ReservationTTL() time.Duration

	// Operator surface. All setters persist after mutating.
	Products(ctx context.Context) map[string]ProductSlotState
	ResetAllCounters(ctx context.Context) error
	ResetCounters(ctx context.Context, product string) error
	SetAvailabilityAll(ctx context.Context, available bool) error
	SetAvailability(ctx context.Context, product string, available bool) error
	SetRegularMax(ctx context.Context, product string, max int) error
	SetRegularCount(ctx context.Context, product string, count int) error
	SetExtraMax(ctx context.Context, product string, max int) error
	SetExtraBasePrice(ctx context.Context, product string, price int) error
	SetExtraCount(ctx context.Context, product string, count int) error

	SetTestMode(ctx context.Context, on bool)
	SetWhitelistMode(ctx context.Context, on bool)
	AddWhitelist(ctx context.Context, id string) error
	RemoveWhitelist(ctx context.Context, id string) error
	BanClaimant(ctx context.Context, id, reason string) error
	UnbanClaimant(ctx context.Context, id string) error
	AccessState(ctx context.Context) (testMode, whitelistMode bool, whitelisted []string, banned map[string]BanEntry)

	Schedule(ctx context.Context) AvailabilitySchedule
	UpdateWeekdaySchedule(ctx context.Context, window DayWindow) error
	UpdateWeekendSchedule(ctx context.Context, window WeekendWindow) error
	ForceTimerReset(ctx context.Context) time.Time
}

type service struct {
	clock     Clock
	ledger    *Ledger
	registry  *Registry
	access    *AccessGate
	store     SnapshotStore
	publisher EventPublisher
	ttl       time.Duration

	scheduleMu     sync.RWMutex
	schedule       AvailabilitySchedule
	lastTimerReset time.Time

	// One admission lock per product: the duplicate-check, capacity
	// check, increment and registry create must not interleave with
	// another mutation of the same product. Different products admit
	// in parallel.
	admission sync.Map // product name -> *sync.Mutex
}

// NewService builds the engine, seeds configured products and restores
// the last snapshot when a store is wired.
func NewService(ctx context.Context, opts Options) (Service, error) {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}
	ttl := opts.ReservationTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	s := &service{
		clock:          clock,
		ledger:         NewLedger(clock),
		registry:       NewRegistry(clock),
		access:         NewAccessGate(clock),
		store:          opts.Store,
		publisher:      opts.Publisher,
		ttl:            ttl,
		schedule:       DefaultSchedule(),
		lastTimerReset: clock.Now(),
	}
	if opts.Schedule != nil {
		s.schedule = *opts.Schedule
	}
	for _, seed := range opts.Products {
		s.ledger.EnsureProduct(seed.Name, seed.RegularMax, seed.ExtraMax, seed.ExtraBasePrice)
	}

	if s.store != nil {
		doc, err := s.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
		if doc != nil {
			s.restore(doc)
			logger.GetDefault().Info("snapshot restored",
				slog.Int("products", len(doc.DailyLimits)),
				slog.Int("active_reservations", len(doc.ActiveReservations)),
			)
		}
	}
	return s, nil
}

func (s *service) restore(doc *SnapshotDocument) {
	for _, state := range doc.DailyLimits {
		s.ledger.Restore(state)
	}
	s.registry.Restore(doc.ActiveReservations)
	s.access.Restore(doc.TestMode, doc.WhitelistMode, doc.WhitelistedUsers, doc.BannedUsers)

	s.scheduleMu.Lock()
	if doc.AvailabilitySchedule != (AvailabilitySchedule{}) {
		s.schedule = doc.AvailabilitySchedule
	}
	if !doc.LastTimerResetTime.IsZero() {
		s.lastTimerReset = doc.LastTimerResetTime
	}
	s.scheduleMu.Unlock()
}

func (s *service) lockProduct(name string) func() {
	muAny, _ := s.admission.LoadOrStore(name, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *service) currentSchedule() AvailabilitySchedule {
	s.scheduleMu.RLock()
	defer s.scheduleMu.RUnlock()
	return s.schedule
}

// persist writes the snapshot in the background. A failed save is
// logged and counted as degraded persistence; the in-memory mutation
// is never rolled back and the caller's response is never delayed.
func (s *service) persist() {
	if s.store == nil {
		return
	}
	doc := s.snapshotDocument()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.Save(ctx, doc); err != nil {
			logger.GetDefault().Warn("snapshot save failed, serving from memory",
				slog.Any("error", err),
			)
		}
	}()
}

func (s *service) snapshotDocument() *SnapshotDocument {
	testMode, whitelistMode, whitelisted, banned := s.access.State()
	s.scheduleMu.RLock()
	schedule := s.schedule
	lastReset := s.lastTimerReset
	s.scheduleMu.RUnlock()

	return &SnapshotDocument{
		DailyLimits:          s.ledger.Snapshot(),
		ActiveReservations:   s.registry.Snapshot(),
		LastTimerResetTime:   lastReset,
		AvailabilitySchedule: schedule,
		BannedUsers:          banned,
		TestMode:             testMode,
		WhitelistMode:        whitelistMode,
		WhitelistedUsers:     whitelisted,
	}
}

// publish sends a lifecycle event without blocking the admission path.
func (s *service) publish(eventType string, res Reservation) {
	if s.publisher == nil {
		return
	}
	event := SlotEvent{
		Type:          eventType,
		ProductName:   res.ProductName,
		ReservationID: res.ID,
		ClaimantID:    res.ClaimantID,
		IsExtra:       res.IsExtra,
		Price:         res.PriceAtReservation,
		OccurredAt:    s.clock.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.Publish(ctx, event); err != nil {
			logger.GetDefault().Warn("slot event publish failed",
				slog.String("type", eventType),
				slog.Any("error", err),
			)
		}
	}()
}

func (s *service) publishSoldOut(product string) {
	if s.publisher == nil {
		return
	}
	event := SlotEvent{
		Type:        EventSoldOut,
		ProductName: product,
		OccurredAt:  s.clock.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.Publish(ctx, event); err != nil {
			logger.GetDefault().Warn("slot event publish failed",
				slog.String("type", EventSoldOut),
				slog.Any("error", err),
			)
		}
	}()
}

// Availability reports the public view of one product, after the
// rollover check.
func (s *service) Availability(ctx context.Context, product string) (*AvailabilityResult, error) {
	if product == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrValidation)
	}

	unlock := s.lockProduct(product)
	defer unlock()

	if _, err := s.ledger.RolloverIfNewDay(product); err != nil {
		return nil, err
	}
	state, _ := s.ledger.Get(product)
	scheduleResult := EvaluateSchedule(s.clock.Now(), s.currentSchedule())

	result := &AvailabilityResult{
		ProductName:      product,
		Remaining:        state.Remaining(),
		Count:            state.RegularCount,
		Max:              state.RegularMax,
		ManuallyDisabled: !state.Available,
		TimeRestricted:   !scheduleResult.Available,
		Message:          scheduleResult.Message,
		NextAvailable:    scheduleResult.NextAvailableHint,
	}
	sellable := state.Available && scheduleResult.Available
	result.Available = sellable && state.Remaining() > 0

	if state.Extra.Max > 0 {
		result.Extra = &ExtraAvailability{
			Available: sellable && state.RegularCount >= state.RegularMax && state.Extra.Count < state.Extra.Max,
			Count:     state.Extra.Count,
			Max:       state.Extra.Max,
			Price:     state.Extra.CurrentPrice,
			NextPrice: state.Extra.CurrentPrice + 1,
		}
	}
	return result, nil
}

// Reserve runs the admission state machine:
// rollover -> duplicate-check -> availability gate -> access gate ->
// capacity check -> increment + create -> persist.
// The whole sequence holds the product's admission lock, so of N
// simultaneous attempts exactly regularMax succeed.
func (s *service) Reserve(ctx context.Context, product string, isExtra bool, claimantID string) (*ReserveOutcome, error) {
	if product == "" || claimantID == "" {
		return nil, fmt.Errorf("%w: product name and claimant id are required", ErrValidation)
	}

	unlock := s.lockProduct(product)
	defer unlock()

	if _, err := s.ledger.RolloverIfNewDay(product); err != nil {
		if err == ErrProductNotFound {
			return &ReserveOutcome{Reason: ReasonNotFound}, nil
		}
		return nil, err
	}

	// Retried network calls must not double-claim: hand back the
	// existing reservation instead.
	if existing, ok := s.registry.FindActive(product, isExtra, claimantID); ok {
		state, _ := s.ledger.Get(product)
		return &ReserveOutcome{
			OK:          true,
			Reservation: existing,
			IsDuplicate: true,
			Remaining:   state.Remaining(),
			ExtraPrice:  existing.PriceAtReservation,
		}, nil
	}

	state, _ := s.ledger.Get(product)
	if !state.Available {
		return &ReserveOutcome{Reason: ReasonDisabled}, nil
	}
	if sched := EvaluateSchedule(s.clock.Now(), s.currentSchedule()); !sched.Available {
		return &ReserveOutcome{Reason: ReasonTimeRestricted}, nil
	}
	if reason, ok := s.access.Check(claimantID); !ok {
		return &ReserveOutcome{Reason: reason}, nil
	}

	if isExtra {
		return s.reserveExtra(product, claimantID)
	}
	return s.reserveRegular(product, claimantID)
}

func (s *service) reserveRegular(product, claimantID string) (*ReserveOutcome, error) {
	result, err := s.ledger.TryReserveRegular(product)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return &ReserveOutcome{Reason: result.Reason}, nil
	}

	res := s.registry.Create(product, false, claimantID, 0)
	s.persist()
	s.publish(EventReserved, res)
	if result.WasLastSlot {
		s.publishSoldOut(product)
	}
	logger.GetDefault().Info("slot reserved",
		slog.String("product", product),
		slog.String("reservation_id", res.ID),
		slog.String("claimant_id", claimantID),
		slog.Int("remaining", result.Remaining),
	)
	return &ReserveOutcome{
		OK:          true,
		Reservation: res,
		Remaining:   result.Remaining,
		WasLastSlot: result.WasLastSlot,
	}, nil
}

func (s *service) reserveExtra(product, claimantID string) (*ReserveOutcome, error) {
	result, err := s.ledger.TryReserveExtra(product)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return &ReserveOutcome{Reason: result.Reason}, nil
	}

	res := s.registry.Create(product, true, claimantID, result.PriceCharged)
	s.persist()
	s.publish(EventReserved, res)
	logger.GetDefault().Info("extra slot reserved",
		slog.String("product", product),
		slog.String("reservation_id", res.ID),
		slog.String("claimant_id", claimantID),
		slog.Int("price_charged", result.PriceCharged),
	)
	return &ReserveOutcome{
		OK:          true,
		Reservation: res,
		ExtraPrice:  result.PriceCharged,
	}, nil
}

// Release returns an abandoned claim to the pool. Releasing a
// reservation that no longer exists is not an error: the outcome just
// reports Released=false.
func (s *service) Release(ctx context.Context, reservationID, product string) (*ReleaseOutcome, error) {
	if reservationID == "" || product == "" {
		return nil, fmt.Errorf("%w: reservation id and product name are required", ErrValidation)
	}

	unlock := s.lockProduct(product)
	defer unlock()

	return s.releaseLocked(reservationID, product, EventReleased)
}

// releaseLocked is the shared release path for abandons and expiry.
// Caller must hold the product's admission lock.
func (s *service) releaseLocked(reservationID, product, eventType string) (*ReleaseOutcome, error) {
	res, ok := s.registry.Get(reservationID)
	if !ok {
		state, found := s.ledger.Get(product)
		if !found {
			return nil, ErrProductNotFound
		}
		return &ReleaseOutcome{Released: false, Remaining: state.Remaining()}, nil
	}
	if res.ProductName != product {
		return nil, ErrProductMismatch
	}

	s.registry.Remove(reservationID)
	var err error
	if res.IsExtra {
		err = s.ledger.ReleaseExtra(product)
	} else {
		err = s.ledger.ReleaseRegular(product)
	}
	if err != nil {
		return nil, err
	}

	s.persist()
	s.publish(eventType, res)
	logger.GetDefault().Info("slot released",
		slog.String("product", product),
		slog.String("reservation_id", reservationID),
		slog.Bool("is_extra", res.IsExtra),
		slog.String("event", eventType),
	)
	state, _ := s.ledger.Get(product)
	return &ReleaseOutcome{Released: true, Remaining: state.Remaining()}, nil
}

// Confirm consumes reservations after payment: they leave the registry
// without returning their slots. With no reservation id (a payment
// callback that cannot name its reservation) every active reservation
// for the product is confirmed. Idempotent.
func (s *service) Confirm(ctx context.Context, product, reservationID string) (*ConfirmOutcome, error) {
	if product == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrValidation)
	}

	unlock := s.lockProduct(product)
	defer unlock()

	if _, ok := s.ledger.Get(product); !ok {
		return nil, ErrProductNotFound
	}

	var confirmed []Reservation
	if reservationID != "" {
		res, ok := s.registry.Get(reservationID)
		if !ok {
			// Already confirmed or released; nothing to do.
			return &ConfirmOutcome{Confirmed: 0}, nil
		}
		if res.ProductName != product {
			return nil, ErrProductMismatch
		}
		s.registry.Remove(reservationID)
		confirmed = append(confirmed, res)
	} else {
		confirmed = s.registry.RemoveAllForProduct(product)
	}

	if len(confirmed) > 0 {
		s.persist()
		for _, res := range confirmed {
			s.publish(EventConfirmed, res)
		}
		logger.GetDefault().Info("reservations confirmed",
			slog.String("product", product),
			slog.Int("count", len(confirmed)),
		)
	}
	return &ConfirmOutcome{Confirmed: len(confirmed)}, nil
}

// SweepExpired releases every reservation older than the TTL, exactly
// as if the claimant had abandoned it. Called by the reaper.
func (s *service) SweepExpired(ctx context.Context) int {
	expired := s.registry.OlderThan(s.ttl)
	released := 0
	for _, res := range expired {
		unlock := s.lockProduct(res.ProductName)
		outcome, err := s.releaseLocked(res.ID, res.ProductName, EventExpired)
		unlock()
		if err != nil {
			logger.GetDefault().Warn("failed to release expired reservation",
				slog.String("reservation_id", res.ID),
				slog.Any("error", err),
			)
			continue
		}
		if outcome.Released {
			released++
		}
	}
	return released
}

// RolloverAll runs the day-rollover check for every product. Called by
// the reaper so counters reset shortly after midnight even with no
// traffic.
func (s *service) RolloverAll(ctx context.Context) {
	changed := false
	for _, name := range s.ledger.Names() {
		unlock := s.lockProduct(name)
		didReset, err := s.ledger.RolloverIfNewDay(name)
		unlock()
		if err == nil && didReset {
			changed = true
		}
	}
	if changed {
		s.persist()
	}
}

func (s *service) ReservationTTL() time.Duration { return s.ttl }

// Operator surface.

func (s *service) Products(ctx context.Context) map[string]ProductSlotState {
	return s.ledger.Snapshot()
}

func (s *service) ResetAllCounters(ctx context.Context) error {
	for _, name := range s.ledger.Names() {
		unlock := s.lockProduct(name)
		err := s.ledger.ResetCounters(name)
		unlock()
		if err != nil {
			return err
		}
	}
	s.persist()
	return nil
}

func (s *service) ResetCounters(ctx context.Context, product string) error {
	unlock := s.lockProduct(product)
	defer unlock()
	if err := s.ledger.ResetCounters(product); err != nil {
		return err
	}
	s.persist()
	return nil
}

func (s *service) SetAvailabilityAll(ctx context.Context, available bool) error {
	for _, name := range s.ledger.Names() {
		unlock := s.lockProduct(name)
		err := s.ledger.SetAvailability(name, available)
		unlock()
		if err != nil {
			return err
		}
	}
	s.persist()
	return nil
}

func (s *service) SetAvailability(ctx context.Context, product string, available bool) error {
	unlock := s.lockProduct(product)
	defer unlock()
	if err := s.ledger.SetAvailability(product, available); err != nil {
		return err
	}
	s.persist()
	return nil
}

func (s *service) SetRegularMax(ctx context.Context, product string, max int) error {
	unlock := s.lockProduct(product)
	defer unlock()
	if err := s.ledger.SetRegularMax(product, max); err != nil {
		return err
	}
	s.persist()
	return nil
}

func (s *service) SetRegularCount(ctx context.Context, product string, count int) error {
	unlock := s.lockProduct(product)
	defer unlock()
	if err := s.ledger.SetRegularCount(product, count); err != nil {
		return err
	}
	s.persist()
	return nil
}

func (s *service) SetExtraMax(ctx context.Context, product string, max int) error {
	unlock := s.lockProduct(product)
	defer unlock()
	if err := s.ledger.SetExtraMax(product, max); err != nil {
		return err
	}
	s.persist()
	return nil
}

func (s *service) SetExtraBasePrice(ctx context.Context, product string, price int) error {
	unlock := s.lockProduct(product)
	defer unlock()
	if err := s.ledger.SetExtraBasePrice(product, price); err != nil {
		return err
	}
	s.persist()
	return nil
}

func (s *service) SetExtraCount(ctx context.Context, product string, count int) error {
	unlock := s.lockProduct(product)
	defer unlock()
	if err := s.ledger.SetExtraCount(product, count); err != nil {
		return err
	}
	s.persist()
	return nil
}

func (s *service) SetTestMode(ctx context.Context, on bool) {
	s.access.SetTestMode(on)
	s.persist()
}

func (s *service) SetWhitelistMode(ctx context.Context, on bool) {
	s.access.SetWhitelistMode(on)
	s.persist()
}

func (s *service) AddWhitelist(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: identity is required", ErrValidation)
	}
	s.access.AddWhitelist(id)
	s.persist()
	return nil
}

func (s *service) RemoveWhitelist(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: identity is required", ErrValidation)
	}
	s.access.RemoveWhitelist(id)
	s.persist()
	return nil
}

func (s *service) BanClaimant(ctx context.Context, id, reason string) error {
	if id == "" {
		return fmt.Errorf("%w: identity is required", ErrValidation)
	}
	s.access.Ban(id, reason)
	s.persist()
	return nil
}

func (s *service) UnbanClaimant(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: identity is required", ErrValidation)
	}
	s.access.Unban(id)
	s.persist()
	return nil
}

func (s *service) AccessState(ctx context.Context) (bool, bool, []string, map[string]BanEntry) {
	return s.access.State()
}

func (s *service) Schedule(ctx context.Context) AvailabilitySchedule {
	return s.currentSchedule()
}

func (s *service) UpdateWeekdaySchedule(ctx context.Context, window DayWindow) error {
	if err := ValidateWindow(window); err != nil {
		return err
	}
	s.scheduleMu.Lock()
	s.schedule.Weekday = window
	s.scheduleMu.Unlock()
	s.persist()
	return nil
}

func (s *service) UpdateWeekendSchedule(ctx context.Context, window WeekendWindow) error {
	s.scheduleMu.Lock()
	s.schedule.Weekend = window
	s.scheduleMu.Unlock()
	s.persist()
	return nil
}

// ForceTimerReset stamps the timer and re-runs the rollover pass,
// letting an operator recover from a missed midnight reset.
func (s *service) ForceTimerReset(ctx context.Context) time.Time {
	now := s.clock.Now()
	s.scheduleMu.Lock()
	s.lastTimerReset = now
	s.scheduleMu.Unlock()
	s.RolloverAll(ctx)
	s.persist()
	return now
}
