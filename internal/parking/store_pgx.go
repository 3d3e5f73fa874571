package parking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxStore is the Postgres-backed Store.
type PgxStore struct {
	pool *pgxpool.Pool
}

// NewPgxStore creates a Postgres-backed Store.
func NewPgxStore(pool *pgxpool.Pool) *PgxStore {
	return &PgxStore{pool: pool}
}

// Migrate creates the schema if it does not exist yet.
func (s *PgxStore) Migrate(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS public.slots (
			id           BIGINT PRIMARY KEY,
			status       TEXT NOT NULL DEFAULT 'available',
			vehicle_type TEXT NOT NULL DEFAULT 'regular',
			active       BOOLEAN NOT NULL DEFAULT TRUE
		);
		CREATE TABLE IF NOT EXISTS public.bookings (
			id             BIGSERIAL PRIMARY KEY,
			slot_id        BIGINT NOT NULL REFERENCES public.slots (id),
			user_id        TEXT NOT NULL,
			vehicle_number TEXT NOT NULL,
			start_time     TIMESTAMPTZ NOT NULL,
			end_time       TIMESTAMPTZ NOT NULL,
			status         TEXT NOT NULL DEFAULT 'active',
			amount_due     NUMERIC(12, 2) NOT NULL DEFAULT 0,
			payment_status TEXT NOT NULL DEFAULT 'unpaid'
		);
		CREATE INDEX IF NOT EXISTS bookings_status_end_time_idx
			ON public.bookings (status, end_time);
		CREATE TABLE IF NOT EXISTS public.operators (
			username      TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL
		);
	`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migrate schema failed: %w", err)
	}
	return nil
}

func (s *PgxStore) AvailableSlotIDs(ctx context.Context) ([]int64, error) {
	const query = `
		SELECT id FROM public.slots
		WHERE status = 'available' AND active
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list available slots failed: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan slot id failed: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PgxStore) TrySetSlotBooked(ctx context.Context, slotID int64) (bool, error) {
	// Single check-and-set statement: of two concurrent claims on the
	// same slot, exactly one sees a row affected.
	const query = `
		UPDATE public.slots SET status = 'booked'
		WHERE id = $1 AND status = 'available' AND active
	`
	ct, err := s.pool.Exec(ctx, query, slotID)
	if err != nil {
		return false, fmt.Errorf("claim slot failed: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (s *PgxStore) SetSlotAvailable(ctx context.Context, slotID int64) error {
	const query = `UPDATE public.slots SET status = 'available' WHERE id = $1`
	ct, err := s.pool.Exec(ctx, query, slotID)
	if err != nil {
		return fmt.Errorf("release slot failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (s *PgxStore) AddSlot(ctx context.Context, vehicleType string) (int64, error) {
	if vehicleType == "" {
		vehicleType = DefaultVehicleType
	}

	const query = `
		INSERT INTO public.slots (id, vehicle_type)
		SELECT COALESCE(MAX(id), 0) + 1, $1 FROM public.slots
		RETURNING id
	`
	var id int64
	if err := s.pool.QueryRow(ctx, query, vehicleType).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, ErrSlotExists
		}
		return 0, fmt.Errorf("add slot failed: %w", err)
	}
	return id, nil
}

func (s *PgxStore) ToggleSlotActive(ctx context.Context, slotID int64) (bool, error) {
	const query = `
		UPDATE public.slots SET active = NOT active
		WHERE id = $1
		RETURNING active
	`
	var active bool
	if err := s.pool.QueryRow(ctx, query, slotID).Scan(&active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrSlotNotFound
		}
		return false, fmt.Errorf("toggle slot failed: %w", err)
	}
	return active, nil
}

func (s *PgxStore) ListSlots(ctx context.Context) ([]*Slot, error) {
	const query = `
		SELECT id, status, vehicle_type, active
		FROM public.slots
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list slots failed: %w", err)
	}
	defer rows.Close()

	var slots []*Slot
	for rows.Next() {
		var sl Slot
		if err := rows.Scan(&sl.ID, &sl.Status, &sl.VehicleType, &sl.Active); err != nil {
			return nil, fmt.Errorf("scan slot failed: %w", err)
		}
		slots = append(slots, &sl)
	}
	return slots, rows.Err()
}

func (s *PgxStore) InsertBooking(ctx context.Context, b *Booking) error {
	const query = `
		INSERT INTO public.bookings
			(slot_id, user_id, vehicle_number, start_time, end_time, status, amount_due, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := s.pool.QueryRow(ctx, query,
		b.SlotID, b.UserID, b.VehicleNumber,
		b.StartTime, b.EndTime, b.Status, b.AmountDue, b.PaymentStatus,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert booking failed: %w", err)
	}
	return nil
}

func (s *PgxStore) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	const query = `
		SELECT id, slot_id, user_id, vehicle_number, start_time, end_time, status, amount_due, payment_status
		FROM public.bookings
		WHERE id = $1
	`
	row := s.pool.QueryRow(ctx, query, id)

	var b Booking
	if err := row.Scan(
		&b.ID, &b.SlotID, &b.UserID, &b.VehicleNumber,
		&b.StartTime, &b.EndTime, &b.Status, &b.AmountDue, &b.PaymentStatus,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return &b, nil
}

func (s *PgxStore) FinishBooking(ctx context.Context, id int64, terminal BookingStatus) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin finish booking failed: %w", err)
	}
	defer tx.Rollback(ctx)

	// The status guard makes the transition first-writer-wins: a release
	// and an expiry racing on the same booking cannot both succeed.
	var slotID int64
	err = tx.QueryRow(ctx, `
		UPDATE public.bookings SET status = $2
		WHERE id = $1 AND status = 'active'
		RETURNING slot_id
	`, id, terminal).Scan(&slotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrBookingNotActive
		}
		return 0, fmt.Errorf("finish booking failed: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE public.slots SET status = 'available' WHERE id = $1`, slotID); err != nil {
		return 0, fmt.Errorf("release booked slot failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit finish booking failed: %w", err)
	}
	return slotID, nil
}

func (s *PgxStore) UpdateBookingPayment(ctx context.Context, id int64, status PaymentStatus) error {
	const query = `UPDATE public.bookings SET payment_status = $2 WHERE id = $1`
	ct, err := s.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update booking payment failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (s *PgxStore) ListBookings(ctx context.Context, filter Filter) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"id", "slot_id", "user_id", "vehicle_number",
		"start_time", "end_time", "status", "amount_due", "payment_status",
	).From("public.bookings")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Date != nil {
		query = query.Where("start_time::date = ?::date", filter.Date.Format("2006-01-02"))
	}

	orderBy := "start_time"
	if filter.SortBy != "" {
		orderBy = filter.SortBy
	}
	orderDir := "DESC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.SlotID, &b.UserID, &b.VehicleNumber,
			&b.StartTime, &b.EndTime, &b.Status, &b.AmountDue, &b.PaymentStatus,
		); err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}
	return bookings, rows.Err()
}

func (s *PgxStore) ActiveExpiringBefore(ctx context.Context, t time.Time) ([]ExpiringBooking, error) {
	const query = `
		SELECT id, slot_id FROM public.bookings
		WHERE status = 'active' AND end_time < $1
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query, t)
	if err != nil {
		return nil, fmt.Errorf("list expiring bookings failed: %w", err)
	}
	defer rows.Close()

	var expiring []ExpiringBooking
	for rows.Next() {
		var e ExpiringBooking
		if err := rows.Scan(&e.BookingID, &e.SlotID); err != nil {
			return nil, fmt.Errorf("scan expiring booking failed: %w", err)
		}
		expiring = append(expiring, e)
	}
	return expiring, rows.Err()
}

func (s *PgxStore) GetCredential(ctx context.Context, username string) (*Credential, error) {
	const query = `
		SELECT username, password_hash, role
		FROM public.operators
		WHERE username = $1
	`
	row := s.pool.QueryRow(ctx, query, username)

	var c Credential
	if err := row.Scan(&c.Username, &c.PasswordHash, &c.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("get credential failed: %w", err)
	}
	return &c, nil
}

func (s *PgxStore) Stats(ctx context.Context, day time.Time) (Stats, error) {
	const query = `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'active'),
			COALESCE(SUM(amount_due) FILTER (
				WHERE payment_status = 'paid' AND start_time::date = $1::date
			), 0)
		FROM public.bookings
	`
	var st Stats
	err := s.pool.QueryRow(ctx, query, day.Format("2006-01-02")).
		Scan(&st.TotalBookings, &st.ActiveBookings, &st.RevenueToday)
	if err != nil {
		return Stats{}, fmt.Errorf("booking stats failed: %w", err)
	}
	return st, nil
}

func (s *PgxStore) Seed(ctx context.Context, slotCount int, operator Credential) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed failed: %w", err)
	}
	defer tx.Rollback(ctx)

	for id := int64(1); id <= int64(slotCount); id++ {
		if _, err := tx.Exec(ctx, `
			INSERT INTO public.slots (id) VALUES ($1)
			ON CONFLICT (id) DO NOTHING
		`, id); err != nil {
			return fmt.Errorf("seed slot %d failed: %w", id, err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO public.operators (username, password_hash, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING
	`, operator.Username, operator.PasswordHash, operator.Role); err != nil {
		return fmt.Errorf("seed operator failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed failed: %w", err)
	}
	return nil
}

var _ Store = (*PgxStore)(nil)
