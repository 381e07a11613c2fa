package admin

import (
	"errors"
	"net/http"
	"time"

	"slotly/internal/shared/config"
	"slotly/internal/shared/utils/response"
	"slotly/internal/slots"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// Controller exposes the operator surface over the admission service.
type Controller struct {
	service slots.Service
	cfg     *config.Config
}

func NewController(service slots.Service, cfg *config.Config) *Controller {
	return &Controller{service: service, cfg: cfg}
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, slots.ErrValidation):
		response.RespondJSON(c, "error", http.StatusBadRequest, err.Error(), nil, nil)
	case errors.Is(err, slots.ErrProductNotFound):
		response.RespondJSON(c, "error", http.StatusNotFound, err.Error(), nil, nil)
	default:
		response.RespondJSON(c, "error", http.StatusInternalServerError, "internal error", nil, err.Error())
	}
}

// Login handles POST /api/v1/admin/login
func (ac *Controller) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	if ac.cfg.Admin.PasswordHash == "" {
		response.RespondJSON(c, "error", http.StatusServiceUnavailable, "operator login is not configured", nil, nil)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ac.cfg.Admin.PasswordHash), []byte(req.Password)); err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid password", nil, nil)
		return
	}

	now := time.Now()
	expiresAt := now.Add(ac.cfg.Admin.JWTExpiresIn)
	claims := jwt.MapClaims{
		"sub":  "operator",
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ac.cfg.Admin.JWTSecret))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "failed to issue token", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "login successful",
		LoginResponse{Token: token, ExpiresAt: expiresAt}, nil)
}

// GetProducts handles GET /api/v1/admin/slots
func (ac *Controller) GetProducts(c *gin.Context) {
	products := ac.service.Products(c.Request.Context())
	response.RespondJSON(c, "success", http.StatusOK, "products retrieved", products, nil)
}

// ResetAllCounters handles POST /api/v1/admin/slots/reset
func (ac *Controller) ResetAllCounters(c *gin.Context) {
	if err := ac.service.ResetAllCounters(c.Request.Context()); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "all counters reset", nil, nil)
}

// ResetCounters handles POST /api/v1/admin/slots/:product/reset
func (ac *Controller) ResetCounters(c *gin.Context) {
	if err := ac.service.ResetCounters(c.Request.Context(), c.Param("product")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "counters reset", nil, nil)
}

// SetAvailabilityAll handles PUT /api/v1/admin/slots/availability
func (ac *Controller) SetAvailabilityAll(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}
	if err := ac.service.SetAvailabilityAll(c.Request.Context(), *req.Available); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "availability updated", nil, nil)
}

// SetAvailability handles PUT /api/v1/admin/slots/:product/availability
func (ac *Controller) SetAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}
	if err := ac.service.SetAvailability(c.Request.Context(), c.Param("product"), *req.Available); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "availability updated", nil, nil)
}

// setValue binds a ValueRequest and applies it through fn.
func (ac *Controller) setValue(c *gin.Context, message string, fn func(product string, value int) error) {
	var req ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}
	if err := fn(c.Param("product"), *req.Value); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, message, nil, nil)
}

// SetRegularMax handles PUT /api/v1/admin/slots/:product/regular-max
func (ac *Controller) SetRegularMax(c *gin.Context) {
	ac.setValue(c, "regular max updated", func(product string, value int) error {
		return ac.service.SetRegularMax(c.Request.Context(), product, value)
	})
}

// SetRegularCount handles PUT /api/v1/admin/slots/:product/regular-count
func (ac *Controller) SetRegularCount(c *gin.Context) {
	ac.setValue(c, "regular count updated", func(product string, value int) error {
		return ac.service.SetRegularCount(c.Request.Context(), product, value)
	})
}

// SetExtraMax handles PUT /api/v1/admin/slots/:product/extra-max
func (ac *Controller) SetExtraMax(c *gin.Context) {
	ac.setValue(c, "extra max updated", func(product string, value int) error {
		return ac.service.SetExtraMax(c.Request.Context(), product, value)
	})
}

// SetExtraBasePrice handles PUT /api/v1/admin/slots/:product/extra-base-price
func (ac *Controller) SetExtraBasePrice(c *gin.Context) {
	ac.setValue(c, "extra base price updated", func(product string, value int) error {
		return ac.service.SetExtraBasePrice(c.Request.Context(), product, value)
	})
}

// SetExtraCount handles PUT /api/v1/admin/slots/:product/extra-count
func (ac *Controller) SetExtraCount(c *gin.Context) {
	ac.setValue(c, "extra count updated", func(product string, value int) error {
		return ac.service.SetExtraCount(c.Request.Context(), product, value)
	})
}

// SetTestMode handles POST /api/v1/admin/access/test-mode
func (ac *Controller) SetTestMode(c *gin.Context) {
	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}
	ac.service.SetTestMode(c.Request.Context(), *req.Enabled)
	response.RespondJSON(c, "success", http.StatusOK, "test mode updated", nil, nil)
}

// SetWhitelistMode handles POST /api/v1/admin/access/whitelist-mode
func (ac *Controller) SetWhitelistMode(c *gin.Context) {
	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}
	ac.service.SetWhitelistMode(c.Request.Context(), *req.Enabled)
	response.RespondJSON(c, "success", http.StatusOK, "whitelist mode updated", nil, nil)
}

// AddWhitelist handles POST /api/v1/admin/access/whitelist
func (ac *Controller) AddWhitelist(c *gin.Context) {
	var req WhitelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}
	if err := ac.service.AddWhitelist(c.Request.Context(), req.ClaimantID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "claimant whitelisted", nil, nil)
}

// RemoveWhitelist handles DELETE /api/v1/admin/access/whitelist/:id
func (ac *Controller) RemoveWhitelist(c *gin.Context) {
	if err := ac.service.RemoveWhitelist(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "claimant removed from whitelist", nil, nil)
}

// BanClaimant handles POST /api/v1/admin/access/bans
func (ac *Controller) BanClaimant(c *gin.Context) {
	var req BanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}
	if err := ac.service.BanClaimant(c.Request.Context(), req.ClaimantID, req.Reason); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "claimant banned", nil, nil)
}

// UnbanClaimant handles DELETE /api/v1/admin/access/bans/:id
func (ac *Controller) UnbanClaimant(c *gin.Context) {
	if err := ac.service.UnbanClaimant(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "claimant unbanned", nil, nil)
}

// GetAccessState handles GET /api/v1/admin/access
func (ac *Controller) GetAccessState(c *gin.Context) {
	testMode, whitelistMode, whitelisted, banned := ac.service.AccessState(c.Request.Context())
	resp := AccessStateResponse{
		TestMode:         testMode,
		WhitelistMode:    whitelistMode,
		WhitelistedUsers: whitelisted,
		BannedUsers:      banned,
	}
	response.RespondJSON(c, "success", http.StatusOK, "access state retrieved", resp, nil)
}

// GetSchedule handles GET /api/v1/admin/schedule
func (ac *Controller) GetSchedule(c *gin.Context) {
	schedule := ac.service.Schedule(c.Request.Context())
	response.RespondJSON(c, "success", http.StatusOK, "schedule retrieved", schedule, nil)
}

// UpdateWeekdaySchedule handles PUT /api/v1/admin/schedule/weekday
func (ac *Controller) UpdateWeekdaySchedule(c *gin.Context) {
	var req WeekdayScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}
	window := slots.DayWindow{
		Enabled:   *req.Enabled,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := ac.service.UpdateWeekdaySchedule(c.Request.Context(), window); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "weekday schedule updated", nil, nil)
}

// UpdateWeekendSchedule handles PUT /api/v1/admin/schedule/weekend
func (ac *Controller) UpdateWeekendSchedule(c *gin.Context) {
	var req WeekendScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}
	window := slots.WeekendWindow{Enabled: *req.Enabled, AllDay: *req.AllDay}
	if err := ac.service.UpdateWeekendSchedule(c.Request.Context(), window); err != nil {
		respondServiceError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "weekend schedule updated", nil, nil)
}

// ForceTimerReset handles POST /api/v1/admin/timer/reset
func (ac *Controller) ForceTimerReset(c *gin.Context) {
	resetAt := ac.service.ForceTimerReset(c.Request.Context())
	response.RespondJSON(c, "success", http.StatusOK, "timer reset",
		TimerResetResponse{LastTimerResetTime: resetAt}, nil)
}
