package admin

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// LoginRequest carries the operator password.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AvailabilityRequest toggles the manual kill-switch.
type AvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// ValueRequest sets a single bounded counter or price.
type ValueRequest struct {
	Value *int `json:"value" binding:"required"`
}

// ModeRequest toggles test mode or whitelist mode.
type ModeRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// WhitelistRequest adds one claimant to the allow-list.
type WhitelistRequest struct {
	ClaimantID string `json:"claimant_id" binding:"required"`
}

// BanRequest bans one claimant.
type BanRequest struct {
	ClaimantID string `json:"claimant_id" binding:"required"`
	Reason     string `json:"reason"`
}

// WeekdayScheduleRequest replaces the weekday sales window.
type WeekdayScheduleRequest struct {
	Enabled   *bool  `json:"enabled" binding:"required"`
	StartTime string `json:"start_time" binding:"required,hhmm"`
	EndTime   string `json:"end_time" binding:"required,hhmm"`
}

// WeekendScheduleRequest replaces the weekend sales window.
type WeekendScheduleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
	AllDay  *bool `json:"all_day" binding:"required"`
}

// RegisterValidators installs the custom binding rules. Call once
// before the routes are mounted.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("hhmm", validateHHMM)
	}
}

// validateHHMM accepts 24h wall-clock times like "15:30" or "00:00".
func validateHHMM(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	return hour <= 23 && minute <= 59
}
