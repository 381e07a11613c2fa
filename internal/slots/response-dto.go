package slots

import "time"

// ReserveResponse mirrors ReserveOutcome on the wire.
type ReserveResponse struct {
	OK            bool       `json:"ok"`
	Reason        string     `json:"reason,omitempty"`
	ReservationID string     `json:"reservation_id,omitempty"`
	IsExtra       bool       `json:"is_extra"`
	IsDuplicate   bool       `json:"is_duplicate,omitempty"`
	Remaining     *int       `json:"remaining,omitempty"`
	ExtraPrice    *int       `json:"extra_price,omitempty"`
	WasLastSlot   bool       `json:"was_last_slot,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// ReleaseResponse reports a release result. Released=false means the
// reservation was already gone and Reason carries ALREADY_RELEASED.
type ReleaseResponse struct {
	OK        bool   `json:"ok"`
	Released  bool   `json:"released"`
	Reason    string `json:"reason,omitempty"`
	Remaining int    `json:"remaining"`
}

// ConfirmResponse reports how many reservations the confirm consumed.
type ConfirmResponse struct {
	OK        bool `json:"ok"`
	Confirmed int  `json:"confirmed"`
}
