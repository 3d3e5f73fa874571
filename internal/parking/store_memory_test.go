package parking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededStore(t *testing.T, slots int) *MemStore {
	t.Helper()
	s := NewMemStore()
	err := s.Seed(context.Background(), slots, Credential{
		Username:     "admin",
		PasswordHash: "x",
		Role:         "superadmin",
	})
	require.NoError(t, err)
	return s
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, 5)

	ok, err := s.TrySetSlotBooked(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)

	// Reseeding must not resurrect the booked slot.
	require.NoError(t, s.Seed(ctx, 5, Credential{Username: "admin"}))

	ids, err := s.AvailableSlotIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 4, 5}, ids)
}

func TestTrySetSlotBookedClaimsOnce(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, 2)

	ok, err := s.TrySetSlotBooked(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.TrySetSlotBooked(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.TrySetSlotBooked(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTrySetSlotBookedSkipsInactive(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, 2)

	active, err := s.ToggleSlotActive(ctx, 2)
	require.NoError(t, err)
	require.False(t, active)

	ok, err := s.TrySetSlotBooked(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := s.AvailableSlotIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestConcurrentClaimHasExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, 1)

	const claimers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.TrySetSlotBooked(ctx, 1)
			assert.NoError(t, err)
			if ok {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1)
}

func TestFinishBookingFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, 1)

	ok, err := s.TrySetSlotBooked(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)

	b := &Booking{
		SlotID:        1,
		UserID:        "u1",
		VehicleNumber: "KA-01",
		StartTime:     time.Now(),
		EndTime:       time.Now().Add(time.Hour),
		Status:        BookingActive,
		PaymentStatus: PaymentUnpaid,
	}
	require.NoError(t, s.InsertBooking(ctx, b))

	slotID, err := s.FinishBooking(ctx, b.ID, BookingCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), slotID)

	// Second transition loses.
	_, err = s.FinishBooking(ctx, b.ID, BookingExpired)
	assert.ErrorIs(t, err, ErrBookingNotActive)

	got, err := s.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, BookingCompleted, got.Status)

	ids, err := s.AvailableSlotIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestFinishBookingUnknownID(t *testing.T) {
	s := newSeededStore(t, 1)
	_, err := s.FinishBooking(context.Background(), 42, BookingCompleted)
	assert.ErrorIs(t, err, ErrBookingNotActive)
}

func TestAddSlotUsesNextID(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, 3)

	id, err := s.AddSlot(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)

	slots, err := s.ListSlots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 4)
	assert.Equal(t, DefaultVehicleType, slots[3].VehicleType)
	assert.True(t, slots[3].Active)

	id, err = s.AddSlot(ctx, "ev")
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
}

func TestToggleSlotActiveUnknown(t *testing.T) {
	s := newSeededStore(t, 1)
	_, err := s.ToggleSlotActive(context.Background(), 7)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestActiveExpiringBefore(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, 3)
	now := time.Now()

	insert := func(slot int64, end time.Time, status BookingStatus) int64 {
		b := &Booking{
			SlotID:        slot,
			UserID:        "u",
			VehicleNumber: "V",
			StartTime:     now.Add(-time.Hour),
			EndTime:       end,
			Status:        status,
			PaymentStatus: PaymentPaid,
		}
		require.NoError(t, s.InsertBooking(ctx, b))
		return b.ID
	}

	overdueID := insert(1, now.Add(-time.Minute), BookingActive)
	insert(2, now.Add(time.Hour), BookingActive)
	insert(3, now.Add(-time.Minute), BookingCompleted)

	expiring, err := s.ActiveExpiringBefore(ctx, now)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, overdueID, expiring[0].BookingID)
	assert.Equal(t, int64(1), expiring[0].SlotID)
}

func TestListBookingsFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, 5)
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	mk := func(user string, start time.Time, status BookingStatus) {
		b := &Booking{
			SlotID:        1,
			UserID:        user,
			VehicleNumber: "V",
			StartTime:     start,
			EndTime:       start.Add(time.Hour),
			Status:        status,
			PaymentStatus: PaymentUnpaid,
		}
		require.NoError(t, s.InsertBooking(ctx, b))
	}

	mk("alice", base, BookingActive)
	mk("bob", base.Add(time.Hour), BookingCompleted)
	mk("alice", base.Add(2*time.Hour), BookingActive)
	mk("alice", base.AddDate(0, 0, 1), BookingExpired)

	// Default listing: newest start first.
	all, err := s.ListBookings(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.True(t, all[0].StartTime.After(all[1].StartTime))

	// User + status filter, soonest end first.
	mine, err := s.ListBookings(ctx, Filter{
		UserID:    "alice",
		Status:    BookingActive,
		SortBy:    "end_time",
		SortOrder: "ASC",
	})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.True(t, mine[0].EndTime.Before(mine[1].EndTime))

	// Date filter matches the start date only.
	day := base.AddDate(0, 0, 1)
	onDay, err := s.ListBookings(ctx, Filter{Date: &day})
	require.NoError(t, err)
	require.Len(t, onDay, 1)
	assert.Equal(t, BookingExpired, onDay[0].Status)
}

func TestStatsCountsTodayRevenueOnly(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, 5)
	today := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	mk := func(start time.Time, status BookingStatus, pay PaymentStatus, amount float64) {
		b := &Booking{
			SlotID:        1,
			UserID:        "u",
			VehicleNumber: "V",
			StartTime:     start,
			EndTime:       start.Add(time.Hour),
			Status:        status,
			AmountDue:     amount,
			PaymentStatus: pay,
		}
		require.NoError(t, s.InsertBooking(ctx, b))
	}

	mk(today, BookingActive, PaymentPaid, 5.00)
	mk(today.Add(time.Hour), BookingCompleted, PaymentPaid, 7.50)
	mk(today, BookingActive, PaymentUnpaid, 2.50)
	mk(today.AddDate(0, 0, -1), BookingCompleted, PaymentPaid, 9.00)

	stats, err := s.Stats(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalBookings)
	assert.Equal(t, 2, stats.ActiveBookings)
	assert.InDelta(t, 12.50, stats.RevenueToday, 1e-9)
}

func TestGetCredential(t *testing.T) {
	ctx := context.Background()
	s := newSeededStore(t, 1)

	cred, err := s.GetCredential(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "superadmin", cred.Role)

	_, err = s.GetCredential(ctx, "nobody")
	assert.ErrorIs(t, err, ErrOperatorNotFound)
}
