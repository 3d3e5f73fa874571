package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/winterveil/parkslot-backend/internal/parking"
	"github.com/winterveil/parkslot-backend/internal/pkg/response"
)

// ParkingHandler serves the public booking endpoints.
type ParkingHandler struct {
	engine parking.Service
}

func NewParkingHandler(engine parking.Service) *ParkingHandler {
	return &ParkingHandler{engine: engine}
}

//
// GET /v1/slots/available
//

func (h *ParkingHandler) AvailableSlots(c *gin.Context) {
	ids, err := h.engine.AvailableSlots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	c.JSON(http.StatusOK, AvailableSlotsResponse{SlotIDs: ids})
}

//
// POST /v1/bookings
//

func (h *ParkingHandler) Book(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	conf, err := h.engine.Book(c.Request.Context(), parking.BookRequest{
		SlotID:          req.SlotID,
		UserID:          req.UserID,
		VehicleNumber:   req.VehicleNumber,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, BookResponse{
		BookingID: conf.BookingID,
		SlotID:    conf.SlotID,
		EndTime:   conf.EndTime,
		Amount:    conf.Amount,
	})
}

//
// POST /v1/bookings/:id/release
//

func (h *ParkingHandler) Release(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	b, err := h.engine.Release(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

//
// GET /v1/bookings?user_id=...
//

func (h *ParkingHandler) UserBookings(c *gin.Context) {
	userID := c.Query("user_id")

	bookings, err := h.engine.ListUserActiveBookings(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingListResponse(bookings))
}
