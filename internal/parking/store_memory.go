package parking

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is a mutex-guarded in-process Store. It backs the server when no
// database is configured and serves as the concurrency test bed; it keeps
// the same semantics and ordering guarantees as the Postgres store.
type MemStore struct {
	mu            sync.Mutex
	slots         map[int64]*Slot
	bookings      map[int64]*Booking
	operators     map[string]*Credential
	nextBookingID int64
}

// NewMemStore creates an empty in-memory store. Call Seed to populate the
// initial slot pool.
func NewMemStore() *MemStore {
	return &MemStore{
		slots:         make(map[int64]*Slot),
		bookings:      make(map[int64]*Booking),
		operators:     make(map[string]*Credential),
		nextBookingID: 1,
	}
}

func (s *MemStore) AvailableSlotIDs(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	for _, sl := range s.slots {
		if sl.Status == SlotAvailable && sl.Active {
			ids = append(ids, sl.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemStore) TrySetSlotBooked(ctx context.Context, slotID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[slotID]
	if !ok || !sl.Active || sl.Status != SlotAvailable {
		return false, nil
	}
	sl.Status = SlotBooked
	return true, nil
}

func (s *MemStore) SetSlotAvailable(ctx context.Context, slotID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[slotID]
	if !ok {
		return ErrSlotNotFound
	}
	sl.Status = SlotAvailable
	return nil
}

func (s *MemStore) AddSlot(ctx context.Context, vehicleType string) (int64, error) {
	if vehicleType == "" {
		vehicleType = DefaultVehicleType
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var maxID int64
	for id := range s.slots {
		if id > maxID {
			maxID = id
		}
	}
	id := maxID + 1
	s.slots[id] = &Slot{ID: id, Status: SlotAvailable, VehicleType: vehicleType, Active: true}
	return id, nil
}

func (s *MemStore) ToggleSlotActive(ctx context.Context, slotID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[slotID]
	if !ok {
		return false, ErrSlotNotFound
	}
	sl.Active = !sl.Active
	return sl.Active, nil
}

func (s *MemStore) ListSlots(ctx context.Context) ([]*Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots := make([]*Slot, 0, len(s.slots))
	for _, sl := range s.slots {
		copied := *sl
		slots = append(slots, &copied)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].ID < slots[j].ID })
	return slots, nil
}

func (s *MemStore) InsertBooking(ctx context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = s.nextBookingID
	s.nextBookingID++

	copied := *b
	s.bookings[b.ID] = &copied
	return nil
}

func (s *MemStore) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *MemStore) FinishBooking(ctx context.Context, id int64, terminal BookingStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok || b.Status != BookingActive {
		return 0, ErrBookingNotActive
	}
	b.Status = terminal
	if sl, ok := s.slots[b.SlotID]; ok {
		sl.Status = SlotAvailable
	}
	return b.SlotID, nil
}

func (s *MemStore) UpdateBookingPayment(ctx context.Context, id int64, status PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.PaymentStatus = status
	return nil
}

func (s *MemStore) ListBookings(ctx context.Context, filter Filter) ([]*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bookings []*Booking
	for _, b := range s.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.Date != nil && !sameDate(b.StartTime, *filter.Date) {
			continue
		}
		copied := *b
		bookings = append(bookings, &copied)
	}

	key := func(b *Booking) time.Time { return b.StartTime }
	if filter.SortBy == "end_time" {
		key = func(b *Booking) time.Time { return b.EndTime }
	}
	asc := filter.SortOrder == "ASC"
	sort.Slice(bookings, func(i, j int) bool {
		ti, tj := key(bookings[i]), key(bookings[j])
		if ti.Equal(tj) {
			if asc {
				return bookings[i].ID < bookings[j].ID
			}
			return bookings[i].ID > bookings[j].ID
		}
		if asc {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})
	return bookings, nil
}

func (s *MemStore) ActiveExpiringBefore(ctx context.Context, t time.Time) ([]ExpiringBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiring []ExpiringBooking
	for _, b := range s.bookings {
		if b.Status == BookingActive && b.EndTime.Before(t) {
			expiring = append(expiring, ExpiringBooking{BookingID: b.ID, SlotID: b.SlotID})
		}
	}
	sort.Slice(expiring, func(i, j int) bool { return expiring[i].BookingID < expiring[j].BookingID })
	return expiring, nil
}

func (s *MemStore) GetCredential(ctx context.Context, username string) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.operators[username]
	if !ok {
		return nil, ErrOperatorNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *MemStore) Stats(ctx context.Context, day time.Time) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	for _, b := range s.bookings {
		st.TotalBookings++
		if b.Status == BookingActive {
			st.ActiveBookings++
		}
		if b.PaymentStatus == PaymentPaid && sameDate(b.StartTime, day) {
			st.RevenueToday += b.AmountDue
		}
	}
	return st, nil
}

func (s *MemStore) Seed(ctx context.Context, slotCount int, operator Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := int64(1); id <= int64(slotCount); id++ {
		if _, ok := s.slots[id]; ok {
			continue
		}
		s.slots[id] = &Slot{ID: id, Status: SlotAvailable, VehicleType: DefaultVehicleType, Active: true}
	}
	if _, ok := s.operators[operator.Username]; !ok {
		copied := operator
		s.operators[operator.Username] = &copied
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

var _ Store = (*MemStore)(nil)
