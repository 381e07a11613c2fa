package slots

// ReserveRequest is the public reserve call body.
type ReserveRequest struct {
	ProductName string `json:"product_name" binding:"required"`
	IsExtra     bool   `json:"is_extra"`
	ClaimantID  string `json:"claimant_id" binding:"required"`
}

// ReleaseRequest abandons a reservation.
type ReleaseRequest struct {
	ReservationID string `json:"reservation_id" binding:"required"`
	ProductName   string `json:"product_name" binding:"required"`
}

// ConfirmRequest marks reservations as paid. ReservationID is optional:
// payment callbacks that cannot identify their reservation confirm all
// active reservations for the product.
type ConfirmRequest struct {
	ProductName   string `json:"product_name" binding:"required"`
	ReservationID string `json:"reservation_id"`
}
