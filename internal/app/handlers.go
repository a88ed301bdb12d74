package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"availability-engine/internal/engine"
	"availability-engine/internal/lock"
	"availability-engine/internal/logger"
)

// RegisterRoutes mounts the scheduling API on api.
func (a *App) RegisterRoutes(api *gin.RouterGroup) {
	resources := api.Group("/resources")
	{
		resources.POST("/:id/availability", a.CreateAvailabilityHandler)
		resources.GET("/:id/availability", a.ListAvailabilityHandler)
		resources.PUT("/:id/availability/:rule_id", a.UpdateAvailabilityHandler)
		resources.DELETE("/:id/availability/:rule_id", a.DeactivateAvailabilityHandler)
		resources.POST("/:id/availability/defaults", a.EnsureDefaultsHandler)
		resources.GET("/:id/slots", a.GetSlotsHandler)
		resources.POST("/:id/bookings/check", a.CheckBookingHandler)
		resources.POST("/:id/bookings", a.CreateBookingHandler)
		resources.GET("/:id/bookings", a.ListBookingsHandler)
		resources.GET("/:id/calendar/busy", a.ExternalBusyHandler)
	}
	api.PUT("/bookings/:id", a.RescheduleBookingHandler)
	api.DELETE("/bookings/:id", a.CancelBookingHandler)
}

// writeError maps service errors onto status codes. Unknown errors are logged
// and hidden behind a generic message.
func (a *App) writeError(c *gin.Context, err error) {
	var (
		status int
		code   string
	)
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		status, code = http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, engine.ErrSlotTaken):
		status, code = http.StatusConflict, "SLOT_NOT_AVAILABLE"
	case errors.Is(err, lock.ErrLocked):
		status, code = http.StatusConflict, "LOCKED"
	case errors.Is(err, engine.ErrOutsideAvailability):
		status, code = http.StatusUnprocessableEntity, "OUTSIDE_AVAILABILITY"
	case errors.Is(err, engine.ErrInPast):
		status, code = http.StatusUnprocessableEntity, "IN_PAST"
	case errors.Is(err, ErrBeyondLookahead):
		status, code = http.StatusUnprocessableEntity, "BEYOND_LOOKAHEAD"
	default:
		a.log().Error("request failed", "method", c.Request.Method, "path", c.FullPath(), logger.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "INTERNAL"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "INVALID_INPUT"})
}

type ruleRequest struct {
	Kind      engine.RuleKind `json:"kind" binding:"required"`
	DayOfWeek *int            `json:"day_of_week"`
	Date      *engine.Date    `json:"date"`
	StartTime string          `json:"start_time" binding:"required"`
	EndTime   string          `json:"end_time" binding:"required"`
	IsActive  *bool           `json:"is_active"` // defaults to true
}

func (r ruleRequest) rule(resourceID, ruleID string) engine.AvailabilityRule {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return engine.AvailabilityRule{
		ID:         ruleID,
		ResourceID: resourceID,
		Kind:       r.Kind,
		DayOfWeek:  r.DayOfWeek,
		Date:       r.Date,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		IsActive:   active,
	}
}

// POST /resources/:id/availability
func (a *App) CreateAvailabilityHandler(c *gin.Context) {
	resourceID := c.Param("id")
	var payload []ruleRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err.Error())
		return
	}
	if len(payload) == 0 {
		badRequest(c, "at least one rule is required")
		return
	}

	rules := make([]engine.AvailabilityRule, len(payload))
	for i, p := range payload {
		rules[i] = p.rule(resourceID, "")
	}
	saved, err := a.CreateRules(c.Request.Context(), resourceID, rules)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// GET /resources/:id/availability
func (a *App) ListAvailabilityHandler(c *gin.Context) {
	rules, err := a.ListRules(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	if rules == nil {
		rules = []engine.AvailabilityRule{}
	}
	c.JSON(http.StatusOK, rules)
}

// PUT /resources/:id/availability/:rule_id
func (a *App) UpdateAvailabilityHandler(c *gin.Context) {
	var payload ruleRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err.Error())
		return
	}
	rule, err := a.UpdateRule(c.Request.Context(), payload.rule(c.Param("id"), c.Param("rule_id")))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// DELETE /resources/:id/availability/:rule_id
func (a *App) DeactivateAvailabilityHandler(c *gin.Context) {
	if err := a.DeactivateRule(c.Request.Context(), c.Param("id"), c.Param("rule_id")); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /resources/:id/availability/defaults
func (a *App) EnsureDefaultsHandler(c *gin.Context) {
	rules, created, err := a.EnsureDefaultSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"created": created, "rules": rules})
}

// GET /resources/:id/slots?date=YYYY-MM-DD&product_id=
func (a *App) GetSlotsHandler(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		badRequest(c, "date required (YYYY-MM-DD)")
		return
	}
	date, err := engine.ParseDate(dateStr)
	if err != nil {
		badRequest(c, "invalid date")
		return
	}

	res, err := a.AvailableSlots(c.Request.Context(), c.Param("id"), date, c.Query("product_id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	if c.Query("available") == "true" {
		res.Slots = engine.AvailableOnly(res.Slots)
	}
	c.JSON(http.StatusOK, res)
}

type intervalReq struct {
	StartAt string `json:"start_at" binding:"required"` // RFC3339
	EndAt   string `json:"end_at" binding:"required"`
}

func (r intervalReq) parse() (time.Time, time.Time, string) {
	start, err := time.Parse(time.RFC3339, r.StartAt)
	if err != nil {
		return time.Time{}, time.Time{}, "invalid start_at"
	}
	end, err := time.Parse(time.RFC3339, r.EndAt)
	if err != nil {
		return time.Time{}, time.Time{}, "invalid end_at"
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, "start_at must be before end_at"
	}
	return start, end, ""
}

type checkBookingReq struct {
	intervalReq
	ExcludeBookingID string `json:"exclude_booking_id,omitempty"`
}

// POST /resources/:id/bookings/check
func (a *App) CheckBookingHandler(c *gin.Context) {
	var req checkBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, end, msg := req.parse()
	if msg != "" {
		badRequest(c, msg)
		return
	}

	err := a.CheckBooking(c.Request.Context(), c.Param("id"), start, end, req.ExcludeBookingID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"bookable": true})
	case errors.Is(err, engine.ErrOutsideAvailability),
		errors.Is(err, engine.ErrInPast),
		errors.Is(err, engine.ErrSlotTaken),
		errors.Is(err, ErrBeyondLookahead):
		c.JSON(http.StatusOK, gin.H{"bookable": false, "reason": err.Error()})
	default:
		a.writeError(c, err)
	}
}

type createBookingReq struct {
	intervalReq
	ProductID     string `json:"product_id,omitempty"`
	CustomerEmail string `json:"customer_email" binding:"required,email"`
	Source        string `json:"source,omitempty"`
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
}

// POST /resources/:id/bookings
func (a *App) CreateBookingHandler(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, end, msg := req.parse()
	if msg != "" {
		badRequest(c, msg)
		return
	}

	b, err := a.CreateBooking(c.Request.Context(), BookingRequest{
		ResourceID:    c.Param("id"),
		ProductID:     req.ProductID,
		CustomerEmail: req.CustomerEmail,
		Start:         start,
		End:           end,
		Source:        req.Source,
		Title:         req.Title,
		Description:   req.Description,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GET /resources/:id/bookings?from=ISO&to=ISO
func (a *App) ListBookingsHandler(c *gin.Context) {
	from, ok := optionalTime(c, "from")
	if !ok {
		return
	}
	to, ok := optionalTime(c, "to")
	if !ok {
		return
	}

	bookings, err := a.ListBookings(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		a.writeError(c, err)
		return
	}
	if bookings == nil {
		bookings = []Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

func optionalTime(c *gin.Context, name string) (*time.Time, bool) {
	s := c.Query(name)
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	return &t, true
}

// PUT /bookings/:id
func (a *App) RescheduleBookingHandler(c *gin.Context) {
	var req intervalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, end, msg := req.parse()
	if msg != "" {
		badRequest(c, msg)
		return
	}

	b, err := a.RescheduleBooking(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DELETE /bookings/:id
func (a *App) CancelBookingHandler(c *gin.Context) {
	if err := a.CancelBooking(c.Request.Context(), c.Param("id")); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
