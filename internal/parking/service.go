package parking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/winterveil/parkslot-backend/internal/event"
	"github.com/winterveil/parkslot-backend/internal/payment"
	"github.com/winterveil/parkslot-backend/internal/pricing"
)

// Cache is an optional read-through cache for slot availability. A nil
// cache disables caching entirely.
type Cache interface {
	GetAvailable(ctx context.Context) ([]int64, error)
	SetAvailable(ctx context.Context, ids []int64) error
	InvalidateAvailable(ctx context.Context) error
}

// Publisher emits booking lifecycle events. A nil publisher disables
// event emission.
type Publisher interface {
	Publish(ctx context.Context, ev event.BookingEvent) error
}

// BookRequest carries the inputs for a new booking.
type BookRequest struct {
	SlotID          int64
	UserID          string
	VehicleNumber   string
	DurationMinutes int
}

// Confirmation is returned when a booking succeeds.
type Confirmation struct {
	BookingID int64
	SlotID    int64
	EndTime   time.Time
	Amount    float64
}

// Service is the booking engine. It coordinates slot claims, charge
// calculation, payment and booking records, and reclaims overdue bookings.
type Service interface {
	AvailableSlots(ctx context.Context) ([]int64, error)
	Book(ctx context.Context, req BookRequest) (*Confirmation, error)
	Release(ctx context.Context, bookingID int64) (*Booking, error)
	ReclaimExpired(ctx context.Context, now time.Time) (int, error)
	ListUserActiveBookings(ctx context.Context, userID string) ([]*Booking, error)
	ListSlots(ctx context.Context) ([]*Slot, error)
	AddSlot(ctx context.Context, vehicleType string) (int64, error)
	ToggleSlotActive(ctx context.Context, slotID int64) (bool, error)
}

type service struct {
	store    Store
	pricing  *pricing.Calculator
	payments payment.Processor
	cache    Cache
	events   Publisher
	logger   *zap.Logger
}

// Option customizes the service with optional collaborators.
type Option func(*service)

// WithCache enables the availability cache.
func WithCache(c Cache) Option {
	return func(s *service) { s.cache = c }
}

// WithEvents enables booking event publication.
func WithEvents(p Publisher) Option {
	return func(s *service) { s.events = p }
}

// NewService wires the booking engine.
func NewService(store Store, pricer *pricing.Calculator, payments payment.Processor, logger *zap.Logger, opts ...Option) Service {
	s := &service{
		store:    store,
		pricing:  pricer,
		payments: payments,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AvailableSlots returns the ids of bookable slots, serving from the cache
// when one is configured and warm.
func (s *service) AvailableSlots(ctx context.Context) ([]int64, error) {
	if s.cache != nil {
		if ids, err := s.cache.GetAvailable(ctx); err != nil {
			s.logger.Warn("availability cache read failed", zap.Error(err))
		} else if ids != nil {
			return ids, nil
		}
	}

	ids, err := s.store.AvailableSlotIDs(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetAvailable(ctx, ids); err != nil {
			s.logger.Warn("availability cache write failed", zap.Error(err))
		}
	}
	return ids, nil
}

// Book claims the slot, calculates the charge, records the booking and
// attempts payment. A failed payment leaves the booking active and unpaid;
// the caller still receives the confirmation.
func (s *service) Book(ctx context.Context, req BookRequest) (*Confirmation, error) {
	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if req.UserID == "" || req.VehicleNumber == "" {
		return nil, ErrMissingField
	}

	claimed, err := s.store.TrySetSlotBooked(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrSlotUnavailable
	}

	start := time.Now()
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)
	amount, err := s.pricing.Charge(start, end)
	if err != nil {
		s.undoClaim(ctx, req.SlotID)
		return nil, err
	}

	b := &Booking{
		SlotID:        req.SlotID,
		UserID:        req.UserID,
		VehicleNumber: req.VehicleNumber,
		StartTime:     start,
		EndTime:       end,
		Status:        BookingActive,
		AmountDue:     amount,
		PaymentStatus: PaymentUnpaid,
	}
	if err := s.store.InsertBooking(ctx, b); err != nil {
		s.undoClaim(ctx, req.SlotID)
		return nil, err
	}

	if err := s.payments.Charge(ctx, amount); err != nil {
		// The slot stays held: payment is retried out of band and the
		// booking remains collectible.
		s.logger.Warn("payment failed, booking kept unpaid",
			zap.Int64("booking_id", b.ID),
			zap.Float64("amount", amount),
			zap.Error(err))
	} else if err := s.store.UpdateBookingPayment(ctx, b.ID, PaymentPaid); err != nil {
		s.logger.Error("recording payment failed",
			zap.Int64("booking_id", b.ID),
			zap.Error(err))
	}

	s.invalidateCache(ctx)
	s.publish(ctx, event.BookingEvent{
		Type:      event.TypeBookingCreated,
		BookingID: b.ID,
		SlotID:    b.SlotID,
		UserID:    b.UserID,
		Status:    string(BookingActive),
		EndTime:   b.EndTime,
	})

	s.logger.Info("booking created",
		zap.Int64("booking_id", b.ID),
		zap.Int64("slot_id", b.SlotID),
		zap.String("user_id", b.UserID),
		zap.Float64("amount", amount))

	return &Confirmation{
		BookingID: b.ID,
		SlotID:    b.SlotID,
		EndTime:   b.EndTime,
		Amount:    amount,
	}, nil
}

// Release completes an active booking and frees its slot. Releasing a
// booking that is missing or already terminal reports not found.
func (s *service) Release(ctx context.Context, bookingID int64) (*Booking, error) {
	slotID, err := s.store.FinishBooking(ctx, bookingID, BookingCompleted)
	if err != nil {
		if errors.Is(err, ErrBookingNotActive) {
			return nil, ErrNotFoundOrReleased
		}
		return nil, err
	}

	s.invalidateCache(ctx)

	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.BookingEvent{
		Type:      event.TypeBookingReleased,
		BookingID: b.ID,
		SlotID:    slotID,
		UserID:    b.UserID,
		Status:    string(BookingCompleted),
	})

	s.logger.Info("booking released",
		zap.Int64("booking_id", b.ID),
		zap.Int64("slot_id", slotID))
	return b, nil
}

// ReclaimExpired transitions every overdue active booking to expired and
// frees its slot, returning the number reclaimed. A booking released
// concurrently between the scan and the transition is skipped.
func (s *service) ReclaimExpired(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.store.ActiveExpiringBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, eb := range overdue {
		if _, err := s.store.FinishBooking(ctx, eb.BookingID, BookingExpired); err != nil {
			if errors.Is(err, ErrBookingNotActive) {
				continue
			}
			return reclaimed, err
		}
		reclaimed++

		s.publish(ctx, event.BookingEvent{
			Type:      event.TypeBookingExpired,
			BookingID: eb.BookingID,
			SlotID:    eb.SlotID,
			Status:    string(BookingExpired),
		})
		s.logger.Info("booking expired",
			zap.Int64("booking_id", eb.BookingID),
			zap.Int64("slot_id", eb.SlotID))
	}

	if reclaimed > 0 {
		s.invalidateCache(ctx)
	}
	return reclaimed, nil
}

// ListUserActiveBookings returns a user's active bookings, soonest-ending
// first.
func (s *service) ListUserActiveBookings(ctx context.Context, userID string) ([]*Booking, error) {
	if userID == "" {
		return nil, ErrMissingField
	}
	return s.store.ListBookings(ctx, Filter{
		UserID:    userID,
		Status:    BookingActive,
		SortBy:    "end_time",
		SortOrder: "ASC",
	})
}

func (s *service) ListSlots(ctx context.Context) ([]*Slot, error) {
	return s.store.ListSlots(ctx)
}

func (s *service) AddSlot(ctx context.Context, vehicleType string) (int64, error) {
	id, err := s.store.AddSlot(ctx, vehicleType)
	if err != nil {
		return 0, err
	}
	s.invalidateCache(ctx)
	s.logger.Info("slot added", zap.Int64("slot_id", id))
	return id, nil
}

func (s *service) ToggleSlotActive(ctx context.Context, slotID int64) (bool, error) {
	active, err := s.store.ToggleSlotActive(ctx, slotID)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return false, ErrNoSuchSlot
		}
		return false, err
	}
	s.invalidateCache(ctx)
	s.logger.Info("slot active toggled",
		zap.Int64("slot_id", slotID),
		zap.Bool("active", active))
	return active, nil
}

func (s *service) undoClaim(ctx context.Context, slotID int64) {
	if err := s.store.SetSlotAvailable(ctx, slotID); err != nil {
		s.logger.Error("releasing claimed slot failed",
			zap.Int64("slot_id", slotID),
			zap.Error(err))
	}
}

func (s *service) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAvailable(ctx); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

func (s *service) publish(ctx context.Context, ev event.BookingEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("type", ev.Type),
			zap.Int64("booking_id", ev.BookingID),
			zap.Error(err))
	}
}
