package slots

import "time"

// ProductSlotState holds the daily allocation for one sellable product.
// All mutation goes through the Ledger.
type ProductSlotState struct {
	Name          string    `json:"name"`
	RegularCount  int       `json:"regular_count"`
	RegularMax    int       `json:"regular_max"`
	Available     bool      `json:"available"`
	LastResetDate string    `json:"last_reset_date"` // 2006-01-02
	Extra         ExtraTier `json:"extra"`
}

// ExtraTier is the overflow pool sellable once the regular tier is
// exhausted. CurrentPrice is the price the *next* buyer pays and is
// always BasePrice + Count.
type ExtraTier struct {
	Count        int `json:"count"`
	Max          int `json:"max"`
	BasePrice    int `json:"base_price"`
	CurrentPrice int `json:"current_price"`
}

// Remaining returns how many regular slots are still open.
func (p *ProductSlotState) Remaining() int {
	if p.RegularCount >= p.RegularMax {
		return 0
	}
	return p.RegularMax - p.RegularCount
}

// Reservation is a provisional claim on a slot, held until the buyer
// confirms, releases, or the reaper expires it. Immutable once created.
type Reservation struct {
	ID                 string    `json:"id"`
	ProductName        string    `json:"product_name"`
	CreatedAt          time.Time `json:"created_at"`
	IsExtra            bool      `json:"is_extra"`
	PriceAtReservation int       `json:"price_at_reservation"`
	ClaimantID         string    `json:"claimant_id"`
}

// DayWindow is the selling window for weekdays, times as "HH:MM".
type DayWindow struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// WeekendWindow is the weekend rule: all-day or closed.
type WeekendWindow struct {
	Enabled bool `json:"enabled"`
	AllDay  bool `json:"all_day"`
}

// AvailabilitySchedule is the recurring weekly selling schedule.
type AvailabilitySchedule struct {
	Weekday DayWindow     `json:"weekday"`
	Weekend WeekendWindow `json:"weekend"`
}

// DefaultSchedule sells weekdays 15:30 through midnight and all weekend.
func DefaultSchedule() AvailabilitySchedule {
	return AvailabilitySchedule{
		Weekday: DayWindow{Enabled: true, StartTime: "15:30", EndTime: "00:00"},
		Weekend: WeekendWindow{Enabled: true, AllDay: true},
	}
}

// BanEntry records a banned identity.
type BanEntry struct {
	Reason   string    `json:"reason"`
	BannedAt time.Time `json:"banned_at"`
}

// SnapshotDocument is the wholesale persisted state: written after
// every mutating call, loaded once at startup.
type SnapshotDocument struct {
	DailyLimits          map[string]ProductSlotState `json:"dailyLimits"`
	ActiveReservations   map[string]Reservation      `json:"activeReservations"`
	LastTimerResetTime   time.Time                   `json:"lastTimerResetTime"`
	AvailabilitySchedule AvailabilitySchedule        `json:"availabilitySchedule"`
	BannedUsers          map[string]BanEntry         `json:"bannedUsers"`
	TestMode             bool                        `json:"testMode"`
	WhitelistMode        bool                        `json:"whitelistMode"`
	WhitelistedUsers     []string                    `json:"whitelistedUsers"`
}
