package courier

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gofer/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, c *Courier) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO couriers (
			id, user_id, full_name, phone, vehicle_type, vehicle_plate,
			is_online, is_approved, is_active,
			rating, acceptance_rate, total_deliveries, offers_total, offers_accepted,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $15
		)`,
		string(c.ID),
		idPtr(c.UserID),
		c.FullName,
		c.Phone,
		c.VehicleType,
		c.VehiclePlate,
		c.IsOnline, c.IsApproved, c.IsActive,
		c.Rating, c.AcceptanceRate, c.TotalDeliveries, c.OffersTotal, c.OffersAccepted,
		c.CreatedAt,
	)
	return err
}

const courierColumns = `
	id, user_id, full_name, phone, vehicle_type, vehicle_plate,
	is_online, is_approved, is_active,
	current_lat, current_lng, location_updated_at,
	rating, acceptance_rate, total_deliveries, offers_total, offers_accepted,
	created_at, updated_at`

func (s *Store) Get(ctx context.Context, id types.ID) (*Courier, error) {
	row := s.db.QueryRow(ctx, `SELECT `+courierColumns+` FROM couriers WHERE id = $1`, string(id))
	c, err := scanCourier(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListEligible returns the snapshot the matching engine filters: active,
// approved couriers who are currently accepting offers.
func (s *Store) ListEligible(ctx context.Context) ([]Courier, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+courierColumns+`
		FROM couriers
		WHERE is_online AND is_approved AND is_active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Courier
	for rows.Next() {
		c, err := scanCourier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// UpdateLocation is last-write-wins; no history is retained here (the GEO
// index mirror is maintained by the service layer).
func (s *Store) UpdateLocation(ctx context.Context, id types.ID, pos types.Point, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE couriers
		SET current_lat = $1, current_lng = $2, location_updated_at = $3, updated_at = NOW()
		WHERE id = $4`,
		pos.Lat, pos.Lng, at, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetOnline(ctx context.Context, id types.ID, online bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE couriers SET is_online = $1, updated_at = NOW() WHERE id = $2`,
		online, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetApproved(ctx context.Context, id types.ID, approved bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE couriers SET is_approved = $1, updated_at = NOW() WHERE id = $2`,
		approved, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Deactivate(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE couriers
		SET is_active = FALSE, is_online = FALSE, updated_at = NOW()
		WHERE id = $1`,
		string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TodayDeliveryCounts aggregates assigned-or-delivered orders per courier
// since the given instant (local midnight). Recomputed per dispatch cycle;
// nothing is cached.
func (s *Store) TodayDeliveryCounts(ctx context.Context, since time.Time) (map[types.ID]int, error) {
	rows, err := s.db.Query(ctx, `
		SELECT rider_id, COUNT(*)
		FROM orders
		WHERE rider_id IS NOT NULL
		  AND created_at >= $1
		  AND status NOT IN ('cancelled')
		GROUP BY rider_id`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[types.ID]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[types.ID(id)] = n
	}
	return counts, rows.Err()
}

// RecordOfferResponse bumps offer counters and recomputes the acceptance
// rate in one statement.
func (s *Store) RecordOfferResponse(ctx context.Context, id types.ID, accepted bool) error {
	inc := 0
	if accepted {
		inc = 1
	}
	_, err := s.db.Exec(ctx, `
		UPDATE couriers
		SET offers_total = offers_total + 1,
		    offers_accepted = offers_accepted + $1,
		    acceptance_rate = (offers_accepted + $1) * 100.0 / (offers_total + 1),
		    updated_at = NOW()
		WHERE id = $2`,
		inc, string(id),
	)
	return err
}

// IncrementDeliveries records a completed job.
func (s *Store) IncrementDeliveries(ctx context.Context, id types.ID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE couriers
		SET total_deliveries = total_deliveries + 1, updated_at = NOW()
		WHERE id = $1`,
		string(id),
	)
	return err
}

func scanCourier(row pgx.Row) (*Courier, error) {
	var c Courier
	var userID sql.NullString
	var lat, lng sql.NullFloat64
	var locAt sql.NullTime

	err := row.Scan(
		&c.ID, &userID, &c.FullName, &c.Phone, &c.VehicleType, &c.VehiclePlate,
		&c.IsOnline, &c.IsApproved, &c.IsActive,
		&lat, &lng, &locAt,
		&c.Rating, &c.AcceptanceRate, &c.TotalDeliveries, &c.OffersTotal, &c.OffersAccepted,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		u := types.ID(userID.String)
		c.UserID = &u
	}
	if lat.Valid && lng.Valid {
		c.Location = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	if locAt.Valid {
		t := locAt.Time
		c.LocationUpdatedAt = &t
	}
	return &c, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
