package courier

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gofer/internal/geo"
	"gofer/internal/types"
)

// GeoIndex mirrors courier positions into the radius-search index kept by
// the matching module.
type GeoIndex interface {
	Upsert(ctx context.Context, id types.ID, pos types.Point) error
	Remove(ctx context.Context, id types.ID) error
}

type Service struct {
	store *Store
	geo   GeoIndex
	now   func() time.Time
}

func NewService(store *Store, geoIndex GeoIndex) *Service {
	return &Service{store: store, geo: geoIndex, now: time.Now}
}

type RegisterCommand struct {
	UserID       *types.ID
	FullName     string
	Phone        string
	VehicleType  string
	VehiclePlate string
}

// Register creates a courier pending admin approval. New couriers start at
// the neutral rating and acceptance defaults so scoring does not punish a
// missing history.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (types.ID, error) {
	if cmd.FullName == "" || cmd.Phone == "" {
		return "", ErrBadRequest
	}
	c := &Courier{
		ID:             types.ID(uuid.NewString()),
		UserID:         cmd.UserID,
		FullName:       cmd.FullName,
		Phone:          cmd.Phone,
		VehicleType:    cmd.VehicleType,
		VehiclePlate:   cmd.VehiclePlate,
		IsActive:       true,
		Rating:         defaultRating,
		AcceptanceRate: defaultAcceptanceRate,
		CreatedAt:      s.now(),
	}
	if err := s.store.Create(ctx, c); err != nil {
		return "", err
	}
	return c.ID, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Courier, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListEligible(ctx context.Context) ([]Courier, error) {
	return s.store.ListEligible(ctx)
}

// UpdateLocation accepts reports at any frequency, last-write-wins. The
// Postgres row is the source of truth; the GEO index is a best-effort
// mirror used only for radius prefiltering.
func (s *Service) UpdateLocation(ctx context.Context, id types.ID, pos types.Point) error {
	if !geo.ValidPoint(pos) {
		return ErrBadRequest
	}
	if err := s.store.UpdateLocation(ctx, id, pos, s.now()); err != nil {
		return err
	}
	return s.geo.Upsert(ctx, id, pos)
}

// SetOnline toggles offer acceptance. Going offline removes the courier
// from the radius index so stale members never surface in searches.
func (s *Service) SetOnline(ctx context.Context, id types.ID, online bool) error {
	if err := s.store.SetOnline(ctx, id, online); err != nil {
		return err
	}
	if online {
		c, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if c.Location != nil {
			return s.geo.Upsert(ctx, id, *c.Location)
		}
		return nil
	}
	return s.geo.Remove(ctx, id)
}

func (s *Service) Approve(ctx context.Context, id types.ID) error {
	return s.store.SetApproved(ctx, id, true)
}

func (s *Service) Deactivate(ctx context.Context, id types.ID) error {
	if err := s.store.Deactivate(ctx, id); err != nil {
		return err
	}
	return s.geo.Remove(ctx, id)
}

// TodayDeliveryCounts returns the per-courier workload since local midnight.
func (s *Service) TodayDeliveryCounts(ctx context.Context) (map[types.ID]int, error) {
	return s.store.TodayDeliveryCounts(ctx, MidnightBangkok(s.now()))
}

func (s *Service) RecordOfferResponse(ctx context.Context, id types.ID, accepted bool) error {
	return s.store.RecordOfferResponse(ctx, id, accepted)
}

func (s *Service) IncrementDeliveries(ctx context.Context, id types.ID) error {
	return s.store.IncrementDeliveries(ctx, id)
}
