package admin

import (
	"time"

	"slotly/internal/slots"
)

// LoginResponse carries the freshly issued operator token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccessStateResponse is the operator view of the access gate.
type AccessStateResponse struct {
	TestMode         bool                      `json:"test_mode"`
	WhitelistMode    bool                      `json:"whitelist_mode"`
	WhitelistedUsers []string                  `json:"whitelisted_users"`
	BannedUsers      map[string]slots.BanEntry `json:"banned_users"`
}

// TimerResetResponse confirms a forced rollover pass.
type TimerResetResponse struct {
	LastTimerResetTime time.Time `json:"last_timer_reset_time"`
}
