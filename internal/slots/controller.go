package slots

import (
	"errors"
	"net/http"

	"slotly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// respondServiceError maps engine errors onto the response envelope.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.RespondJSON(c, "error", http.StatusBadRequest, err.Error(), nil, nil)
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrReservationNotFound):
		response.RespondJSON(c, "error", http.StatusNotFound, err.Error(), nil, nil)
	case errors.Is(err, ErrProductMismatch):
		response.RespondJSON(c, "error", http.StatusConflict, err.Error(), nil, nil)
	default:
		response.RespondJSON(c, "error", http.StatusInternalServerError, "internal error", nil, err.Error())
	}
}

// GetAvailability handles GET /api/v1/slots/:product/availability
func (c *Controller) GetAvailability(ctx *gin.Context) {
	product := ctx.Param("product")

	result, err := c.service.Availability(ctx.Request.Context(), product)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "availability retrieved", result, nil)
}

// Reserve handles POST /api/v1/slots/reserve
func (c *Controller) Reserve(ctx *gin.Context) {
	var req ReserveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	outcome, err := c.service.Reserve(ctx.Request.Context(), req.ProductName, req.IsExtra, req.ClaimantID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	if !outcome.OK {
		// A reject is a normal business outcome on a busy day.
		resp := ReserveResponse{OK: false, Reason: string(outcome.Reason)}
		response.RespondJSON(ctx, "success", http.StatusOK, "slot not granted", resp, nil)
		return
	}

	resp := ReserveResponse{
		OK:            true,
		ReservationID: outcome.Reservation.ID,
		IsExtra:       outcome.Reservation.IsExtra,
		IsDuplicate:   outcome.IsDuplicate,
		WasLastSlot:   outcome.WasLastSlot,
	}
	if outcome.Reservation.IsExtra {
		price := outcome.ExtraPrice
		resp.ExtraPrice = &price
	} else {
		remaining := outcome.Remaining
		resp.Remaining = &remaining
	}
	expires := outcome.Reservation.CreatedAt.Add(c.service.ReservationTTL())
	resp.ExpiresAt = &expires

	response.RespondJSON(ctx, "success", http.StatusOK, "slot reserved", resp, nil)
}

// Release handles POST /api/v1/slots/release
func (c *Controller) Release(ctx *gin.Context) {
	var req ReleaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	outcome, err := c.service.Release(ctx.Request.Context(), req.ReservationID, req.ProductName)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	resp := ReleaseResponse{OK: true, Released: outcome.Released, Remaining: outcome.Remaining}
	if !outcome.Released {
		resp.Reason = string(ReasonAlreadyReleased)
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "release processed", resp, nil)
}

// Confirm handles POST /api/v1/slots/confirm
func (c *Controller) Confirm(ctx *gin.Context) {
	var req ConfirmRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	outcome, err := c.service.Confirm(ctx.Request.Context(), req.ProductName, req.ReservationID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	resp := ConfirmResponse{OK: true, Confirmed: outcome.Confirmed}
	response.RespondJSON(ctx, "success", http.StatusOK, "confirmation processed", resp, nil)
}
