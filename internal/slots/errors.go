package slots

import "errors"

// Reason is the typed outcome of an admission attempt. Rejects are
// business outcomes, not errors: a busy day produces CAPACITY_FULL on
// every call past the cap.
type Reason string

const (
	ReasonNotFound            Reason = "NOT_FOUND"
	ReasonDisabled            Reason = "DISABLED"
	ReasonTestModeBlocked     Reason = "TEST_MODE_BLOCKED"
	ReasonNotWhitelisted      Reason = "NOT_WHITELISTED"
	ReasonBanned              Reason = "BANNED"
	ReasonTimeRestricted      Reason = "TIME_RESTRICTED"
	ReasonRegularNotExhausted Reason = "REGULAR_NOT_EXHAUSTED"
	ReasonExtraFull           Reason = "EXTRA_FULL"
	ReasonCapacityFull        Reason = "CAPACITY_FULL"
	ReasonAlreadyReleased     Reason = "ALREADY_RELEASED"
)

// Sentinel errors for the non-business failure modes. Controllers map
// these to 4xx responses.
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrProductMismatch     = errors.New("reservation does not belong to this product")
	ErrValidation          = errors.New("validation failed")
)
