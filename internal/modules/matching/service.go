package matching

import (
	"context"
	"time"

	"gofer/internal/modules/courier"
	"gofer/internal/types"
)

// CourierSource supplies the pool snapshot and the daily workload map.
// Both are fetched fresh per dispatch cycle.
type CourierSource interface {
	ListEligible(ctx context.Context) ([]courier.Courier, error)
	TodayDeliveryCounts(ctx context.Context) (map[types.ID]int, error)
}

// Service glues the pure ranking to its data sources.
type Service struct {
	store    *Store
	couriers CourierSource
	cfg      Config
	now      func() time.Time
}

func NewService(store *Store, couriers CourierSource, cfg Config) *Service {
	return &Service{store: store, couriers: couriers, cfg: cfg, now: time.Now}
}

func (s *Service) Config() Config {
	return s.cfg
}

// CandidatesFor returns the ranked candidate list for an order origin.
// The GEO index narrows the snapshot when it has members; the authoritative
// filter is still Rank over the Postgres state.
func (s *Service) CandidatesFor(ctx context.Context, origin types.Point) ([]Candidate, error) {
	pool, err := s.couriers.ListEligible(ctx)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}

	if nearby, err := s.store.Nearby(ctx, origin, s.cfg.RadiusKm); err == nil && len(nearby) > 0 {
		inRange := make(map[types.ID]bool, len(nearby))
		for _, id := range nearby {
			inRange[id] = true
		}
		filtered := pool[:0:0]
		for _, c := range pool {
			if inRange[c.ID] {
				filtered = append(filtered, c)
			}
		}
		// An empty intersection means the index lagged behind the store;
		// fall through with the full snapshot rather than dropping riders.
		if len(filtered) > 0 {
			pool = filtered
		}
	}

	counts, err := s.couriers.TodayDeliveryCounts(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(origin, pool, counts, s.cfg, s.now()), nil
}
