package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/winterveil/parkslot-backend/internal/parking"
	"github.com/winterveil/parkslot-backend/internal/pkg/response"
	"github.com/winterveil/parkslot-backend/internal/report"
)

// AdminHandler serves the operator-only endpoints.
type AdminHandler struct {
	engine  parking.Service
	reports report.Service
}

func NewAdminHandler(engine parking.Service, reports report.Service) *AdminHandler {
	return &AdminHandler{engine: engine, reports: reports}
}

//
// GET /v1/admin/bookings?status=...&date=YYYY-MM-DD
//

func (h *AdminHandler) Bookings(c *gin.Context) {
	status := c.Query("status")

	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = &d
	}

	bookings, err := h.reports.ListBookings(c.Request.Context(), status, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingListResponse(bookings))
}

//
// GET /v1/admin/stats?date=YYYY-MM-DD
//

func (h *AdminHandler) Stats(c *gin.Context) {
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = d
	}

	stats, err := h.reports.Stats(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		TotalBookings:  stats.TotalBookings,
		ActiveBookings: stats.ActiveBookings,
		RevenueToday:   stats.RevenueToday,
	})
}

//
// GET /v1/admin/slots
//

func (h *AdminHandler) Slots(c *gin.Context) {
	slots, err := h.engine.ListSlots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSlotListResponse(slots))
}

//
// POST /v1/admin/slots
//

func (h *AdminHandler) AddSlot(c *gin.Context) {
	var req AddSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	id, err := h.engine.AddSlot(c.Request.Context(), req.VehicleType)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, AddSlotResponse{SlotID: id})
}

//
// PATCH /v1/admin/slots/:id/active
//

func (h *AdminHandler) ToggleSlotActive(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slot id"})
		return
	}

	active, err := h.engine.ToggleSlotActive(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, ToggleSlotResponse{SlotID: id, Active: active})
}
