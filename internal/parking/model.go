package parking

import (
	"errors"
	"net/http"
	"time"

	"github.com/winterveil/parkslot-backend/internal/pkg/apperror"
)

// Engine-boundary errors, mapped to HTTP status codes by the API layer.
var (
	ErrInvalidDuration    = apperror.New(http.StatusBadRequest, "duration must be a positive number of minutes")
	ErrMissingField       = apperror.New(http.StatusBadRequest, "user id and vehicle number are required")
	ErrSlotUnavailable    = apperror.New(http.StatusConflict, "slot is not available")
	ErrNotFoundOrReleased = apperror.New(http.StatusNotFound, "booking not found or already released")
	ErrInvalidFilter      = apperror.New(http.StatusBadRequest, "invalid filter parameters")
	ErrNoSuchSlot         = apperror.New(http.StatusNotFound, "slot not found")
)

// Store-level errors.
var (
	ErrSlotNotFound     = errors.New("slot not found")
	ErrSlotExists       = errors.New("slot already exists")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrBookingNotActive = errors.New("booking is not active")
	ErrOperatorNotFound = errors.New("operator not found")
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
)

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingExpired   BookingStatus = "expired"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// DefaultVehicleType is assigned to slots created without an explicit type.
const DefaultVehicleType = "regular"

// Slot is a physical parking space. Inactive slots are excluded from
// availability regardless of status.
type Slot struct {
	ID          int64
	Status      SlotStatus
	VehicleType string
	Active      bool
}

// Booking is a time-bounded claim on a slot. Bookings are never deleted;
// completed and expired bookings are retained for listing and audit.
type Booking struct {
	ID            int64
	SlotID        int64
	UserID        string
	VehicleNumber string
	StartTime     time.Time
	EndTime       time.Time
	Status        BookingStatus
	AmountDue     float64
	PaymentStatus PaymentStatus
}

// Filter defines parameters for listing bookings. Zero values mean
// unconstrained. Date matches on the date component of StartTime.
type Filter struct {
	UserID    string
	Status    BookingStatus
	Date      *time.Time
	SortBy    string // "start_time" (default) or "end_time"
	SortOrder string // "ASC" or "DESC" (default)
}

// ExpiringBooking identifies an overdue active booking and the slot it holds.
type ExpiringBooking struct {
	BookingID int64
	SlotID    int64
}

// Credential is the single operator login record.
type Credential struct {
	Username     string
	PasswordHash string
	Role         string
}

// Stats summarizes bookings for the admin dashboard.
type Stats struct {
	TotalBookings  int
	ActiveBookings int
	RevenueToday   float64
}
