package report

import (
	"context"
	"time"

	"github.com/winterveil/parkslot-backend/internal/parking"
)

// Service is the read-only reporting facade over the booking records. It
// never mutates state; writes go through the booking engine.
type Service interface {
	ListBookings(ctx context.Context, status string, date *time.Time) ([]*parking.Booking, error)
	Stats(ctx context.Context, day time.Time) (parking.Stats, error)
}

type service struct {
	store parking.Store
}

// NewService creates the reporting facade.
func NewService(store parking.Store) Service {
	return &service{store: store}
}

// ListBookings returns bookings filtered by status and start date, newest
// first. An unknown status is rejected before touching the store.
func (s *service) ListBookings(ctx context.Context, status string, date *time.Time) ([]*parking.Booking, error) {
	switch parking.BookingStatus(status) {
	case "", parking.BookingActive, parking.BookingCompleted, parking.BookingExpired:
	default:
		return nil, parking.ErrInvalidFilter
	}
	return s.store.ListBookings(ctx, parking.Filter{
		Status: parking.BookingStatus(status),
		Date:   date,
	})
}

// Stats summarizes bookings and the day's collected revenue.
func (s *service) Stats(ctx context.Context, day time.Time) (parking.Stats, error) {
	return s.store.Stats(ctx, day)
}
