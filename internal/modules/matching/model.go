// Package matching ranks eligible couriers for a dispatch request.
package matching

import (
	"time"

	"gofer/internal/modules/courier"
)

// Config carries the eligibility and scoring tunables.
type Config struct {
	// RadiusKm is a hard cutoff, not a soft preference.
	RadiusKm float64

	// LocationMaxAge gates out couriers whose last location report is older
	// than this. Zero disables the freshness check.
	LocationMaxAge time.Duration

	WeightDistance   float64
	WeightRating     float64
	WeightAcceptance float64
	WeightLoad       float64
}

func DefaultConfig() Config {
	return Config{
		RadiusKm:         5,
		LocationMaxAge:   10 * time.Minute,
		WeightDistance:   0.4,
		WeightRating:     0.3,
		WeightAcceptance: 0.2,
		WeightLoad:       0.1,
	}
}

// Candidate is one eligible courier with its composite score.
type Candidate struct {
	Courier    courier.Courier
	Score      float64
	DistanceKm float64
}

// LessFunc orders candidates; "less" means ranked earlier (better).
type LessFunc func(a, b Candidate) bool

// ByScoreThenDistance is the default ordering: higher score first, equal
// scores broken by ascending distance so ranking stays deterministic.
func ByScoreThenDistance(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DistanceKm < b.DistanceKm
}
