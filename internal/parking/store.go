package parking

import (
	"context"
	"time"
)

// Store owns the canonical slot, booking and operator records. Every
// operation is atomic with respect to the others: the booking engine and
// the expiry worker call concurrently and must never observe a partial
// write. Implementations: PgxStore (Postgres) and MemStore (in-process).
type Store interface {
	// AvailableSlotIDs returns the ids of slots that are available and
	// active, in ascending order.
	AvailableSlotIDs(ctx context.Context) ([]int64, error)

	// TrySetSlotBooked atomically claims a slot. It returns false when the
	// slot is missing, inactive, or not currently available — including
	// when a concurrent caller claimed it first.
	TrySetSlotBooked(ctx context.Context, slotID int64) (bool, error)

	// SetSlotAvailable marks a slot available again. Used to undo a claim
	// when the booking insert that followed it failed.
	SetSlotAvailable(ctx context.Context, slotID int64) error

	// AddSlot creates a new slot with the next id (max+1), available and
	// active.
	AddSlot(ctx context.Context, vehicleType string) (int64, error)

	// ToggleSlotActive flips a slot's active flag and returns the new value.
	ToggleSlotActive(ctx context.Context, slotID int64) (bool, error)

	// ListSlots returns every slot in ascending id order.
	ListSlots(ctx context.Context) ([]*Slot, error)

	// InsertBooking appends a booking record and assigns its id.
	InsertBooking(ctx context.Context, b *Booking) error

	// GetBooking returns a booking by id, or ErrBookingNotFound.
	GetBooking(ctx context.Context, id int64) (*Booking, error)

	// FinishBooking atomically transitions an active booking to the given
	// terminal status and returns its slot to available. It returns
	// ErrBookingNotActive when the booking is missing or already terminal,
	// so of two racing callers exactly one wins.
	FinishBooking(ctx context.Context, id int64, terminal BookingStatus) (slotID int64, err error)

	// UpdateBookingPayment records the outcome of a payment attempt.
	UpdateBookingPayment(ctx context.Context, id int64, status PaymentStatus) error

	// ListBookings returns bookings matching the filter, ordered by start
	// time descending unless the filter says otherwise.
	ListBookings(ctx context.Context, filter Filter) ([]*Booking, error)

	// ActiveExpiringBefore returns the active bookings whose end time is
	// before t.
	ActiveExpiringBefore(ctx context.Context, t time.Time) ([]ExpiringBooking, error)

	// GetCredential returns the operator record for a username, or
	// ErrOperatorNotFound.
	GetCredential(ctx context.Context, username string) (*Credential, error)

	// Stats summarizes bookings; revenue covers paid bookings whose start
	// time falls on the given day.
	Stats(ctx context.Context, day time.Time) (Stats, error)

	// Seed populates the initial slot pool (ids 1..slotCount) and the
	// operator record. It is idempotent: existing records are left alone.
	Seed(ctx context.Context, slotCount int, operator Credential) error
}
