package api

import (
	"time"

	"github.com/winterveil/parkslot-backend/internal/parking"
)

// LoginRequest is the payload for POST /v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response for POST /v1/auth/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}

// BookRequest is the payload for POST /v1/bookings.
type BookRequest struct {
	SlotID          int64  `json:"slot_id"`
	UserID          string `json:"user_id"`
	VehicleNumber   string `json:"vehicle_number"`
	DurationMinutes int    `json:"duration_minutes"`
}

// BookResponse is the response for POST /v1/bookings.
type BookResponse struct {
	BookingID int64     `json:"booking_id"`
	SlotID    int64     `json:"slot_id"`
	EndTime   time.Time `json:"end_time"`
	Amount    float64   `json:"amount"`
}

// AvailableSlotsResponse is the response for GET /v1/slots/available.
type AvailableSlotsResponse struct {
	SlotIDs []int64 `json:"slot_ids"`
}

// BookingResponse is the shape of booking data returned in API responses.
type BookingResponse struct {
	ID            int64     `json:"id"`
	SlotID        int64     `json:"slot_id"`
	UserID        string    `json:"user_id"`
	VehicleNumber string    `json:"vehicle_number"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	AmountDue     float64   `json:"amount_due"`
	PaymentStatus string    `json:"payment_status"`
}

// BookingListResponse wraps booking list endpoints.
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// SlotResponse is the shape of slot data returned in API responses.
type SlotResponse struct {
	ID          int64  `json:"id"`
	Status      string `json:"status"`
	VehicleType string `json:"vehicle_type"`
	Active      bool   `json:"active"`
}

// SlotListResponse wraps slot list endpoints.
type SlotListResponse struct {
	Slots []SlotResponse `json:"slots"`
}

// AddSlotRequest is the payload for POST /v1/admin/slots.
type AddSlotRequest struct {
	VehicleType string `json:"vehicle_type"`
}

// AddSlotResponse is the response for POST /v1/admin/slots.
type AddSlotResponse struct {
	SlotID int64 `json:"slot_id"`
}

// ToggleSlotResponse is the response for PATCH /v1/admin/slots/:id/active.
type ToggleSlotResponse struct {
	SlotID int64 `json:"slot_id"`
	Active bool  `json:"active"`
}

// StatsResponse is the response for GET /v1/admin/stats.
type StatsResponse struct {
	TotalBookings  int     `json:"total_bookings"`
	ActiveBookings int     `json:"active_bookings"`
	RevenueToday   float64 `json:"revenue_today"`
}

// NewBookingResponse converts a domain booking to its API shape.
func NewBookingResponse(b *parking.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		SlotID:        b.SlotID,
		UserID:        b.UserID,
		VehicleNumber: b.VehicleNumber,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Status:        string(b.Status),
		AmountDue:     b.AmountDue,
		PaymentStatus: string(b.PaymentStatus),
	}
}

// NewBookingListResponse converts a slice of domain bookings.
func NewBookingListResponse(bs []*parking.Booking) BookingListResponse {
	resp := BookingListResponse{Bookings: make([]BookingResponse, 0, len(bs))}
	for _, b := range bs {
		resp.Bookings = append(resp.Bookings, NewBookingResponse(b))
	}
	return resp
}

// NewSlotListResponse converts a slice of domain slots.
func NewSlotListResponse(slots []*parking.Slot) SlotListResponse {
	resp := SlotListResponse{Slots: make([]SlotResponse, 0, len(slots))}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, SlotResponse{
			ID:          s.ID,
			Status:      string(s.Status),
			VehicleType: s.VehicleType,
			Active:      s.Active,
		})
	}
	return resp
}
