package pricing

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store loads admin-edited fare overrides from Postgres. The engine itself
// stays pure; the loaded Config is passed into it by callers.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// LoadConfig merges per-category rows from pricing_rates over the default
// table. Missing rows keep their defaults, so a fresh database quotes the
// production fares.
func (s *Store) LoadConfig(ctx context.Context) (Config, error) {
	cfg := DefaultConfig()

	rows, err := s.db.Query(ctx, `
		SELECT category, base_fare, extra_fee
		FROM pricing_rates`)
	if err != nil {
		return cfg, err
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var base, extra float64
		if err := rows.Scan(&category, &base, &extra); err != nil {
			return cfg, err
		}
		cfg.Fares[Category(category)] = CategoryFare{Base: base, ExtraFee: extra}
	}
	if err := rows.Err(); err != nil {
		return cfg, err
	}

	row := s.db.QueryRow(ctx, `
		SELECT free_distance_km, per_km_rate, surge_multiplier,
		       platform_fee_rate, rider_share_rate, community_fund_rate
		FROM pricing_settings
		ORDER BY updated_at DESC
		LIMIT 1`)
	var free, perKm, surge, platform, rider, community float64
	if err := row.Scan(&free, &perKm, &surge, &platform, &rider, &community); err == nil {
		cfg.FreeDistanceKm = free
		cfg.PerKmRate = perKm
		cfg.SurgeMultiplier = surge
		cfg.PlatformFeeRate = platform
		cfg.RiderShareRate = rider
		cfg.CommunityFundRate = community
	}
	return cfg, nil
}

// SaveRate upserts one category row (admin settings screen).
func (s *Store) SaveRate(ctx context.Context, category Category, fare CategoryFare) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO pricing_rates (category, base_fare, extra_fee, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (category)
		DO UPDATE SET base_fare = $2, extra_fee = $3, updated_at = NOW()`,
		string(category), fare.Base, fare.ExtraFee,
	)
	return err
}
