package order

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

func (s *Store) Create(ctx context.Context, o *Order) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, customer_id, merchant_id, rider_id,
			service_type, category, status, status_version,
			origin_lat, origin_lng, dest_lat, dest_lng,
			pickup_address, dropoff_address, note, distance_km,
			subtotal, delivery_fee, surge_fee, platform_fee, total,
			rider_earnings, platform_earnings, community_fund, is_surge,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17,
			$18, $19, $20, $21, $22,
			$23, $24, $25, $26,
			$27
		)`,
		string(o.ID), o.OrderNumber, string(o.CustomerID), idPtr(o.MerchantID), idPtr(o.RiderID),
		string(o.ServiceType), string(o.Category), string(o.Status), o.StatusVersion,
		o.Origin.Lat, o.Origin.Lng, o.Destination.Lat, o.Destination.Lng,
		o.PickupAddress, o.DropoffAddress, o.Note, o.DistanceKm,
		o.Subtotal, o.DeliveryFee, o.SurgeFee, o.PlatformFee, o.Total,
		o.RiderEarnings, o.PlatformEarnings, o.CommunityFund, o.IsSurge,
		o.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, order_number, customer_id, merchant_id, rider_id,
		       service_type, category, status, status_version,
		       origin_lat, origin_lng, dest_lat, dest_lng,
		       pickup_address, dropoff_address, note, distance_km,
		       subtotal, delivery_fee, surge_fee, platform_fee, total,
		       rider_earnings, platform_earnings, community_fund, is_surge,
		       created_at, delivered_at, cancelled_at, cancel_reason
		FROM orders
		WHERE id = $1`, string(id),
	)

	var o Order
	var merchantID, riderID, cancelReason sql.NullString
	var deliveredAt, cancelledAt sql.NullTime

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &merchantID, &riderID,
		&o.ServiceType, &o.Category, &o.Status, &o.StatusVersion,
		&o.Origin.Lat, &o.Origin.Lng, &o.Destination.Lat, &o.Destination.Lng,
		&o.PickupAddress, &o.DropoffAddress, &o.Note, &o.DistanceKm,
		&o.Subtotal, &o.DeliveryFee, &o.SurgeFee, &o.PlatformFee, &o.Total,
		&o.RiderEarnings, &o.PlatformEarnings, &o.CommunityFund, &o.IsSurge,
		&o.CreatedAt, &deliveredAt, &cancelledAt, &cancelReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if merchantID.Valid {
		m := types.ID(merchantID.String)
		o.MerchantID = &m
	}
	if riderID.Valid {
		r := types.ID(riderID.String)
		o.RiderID = &r
	}
	o.DeliveredAt = toTimePtr(deliveredAt)
	o.CancelledAt = toTimePtr(cancelledAt)
	if cancelReason.Valid {
		o.CancelReason = &cancelReason.String
	}
	return &o, nil
}

// UpdateStatus performs the optimistic compare-and-set transition. It only
// succeeds when the row still carries the expected (status, version) pair,
// which makes concurrent transitions race-safe without row locks.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, riderID *types.ID, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    status_version = status_version + 1,
		    rider_id = COALESCE($2, rider_id),
		    delivered_at = CASE WHEN $1 = 'delivered' THEN NOW() ELSE delivered_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END,
		    cancel_reason = COALESCE($3, cancel_reason)
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to),
		idPtr(riderID),
		reason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_state_events (
			order_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.OrderID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		idPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
