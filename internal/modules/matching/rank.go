package matching

import (
	"sort"
	"time"

	"gofer/internal/geo"
	"gofer/internal/modules/courier"
	"gofer/internal/types"
)

// Rank filters and scores a courier snapshot against an order origin,
// best candidate first. It performs no I/O and never mutates its inputs;
// an empty result is a normal outcome ("no riders in range"), not an error.
func Rank(origin types.Point, couriers []courier.Courier, todayCounts map[types.ID]int, cfg Config, now time.Time) []Candidate {
	return RankWith(origin, couriers, todayCounts, cfg, now, ByScoreThenDistance)
}

// RankWith is Rank with a caller-supplied ordering for the final sort.
func RankWith(origin types.Point, couriers []courier.Courier, todayCounts map[types.ID]int, cfg Config, now time.Time, less LessFunc) []Candidate {
	candidates := make([]Candidate, 0, len(couriers))
	for _, c := range couriers {
		if !eligible(c, origin, cfg, now) {
			continue
		}
		candidates = append(candidates, Candidate{
			Courier:    c,
			DistanceKm: geo.DistanceKm(*c.Location, origin),
		})
	}

	// Load-balancing denominator: the busiest candidate today, floored at 1
	// so an all-idle pool scores 1.0 across the board.
	maxToday := 1
	for _, c := range candidates {
		if n := todayCounts[c.Courier.ID]; n > maxToday {
			maxToday = n
		}
	}

	for i := range candidates {
		c := &candidates[i]

		distScore := 1 - c.DistanceKm/cfg.RadiusKm

		rating := c.Courier.Rating
		if rating == 0 {
			rating = 5
		}
		ratingScore := rating / 5

		acceptance := c.Courier.AcceptanceRate
		if acceptance == 0 {
			acceptance = 100
		}
		acceptScore := acceptance / 100

		loadScore := 1 - float64(todayCounts[c.Courier.ID])/float64(maxToday)

		c.Score = distScore*cfg.WeightDistance +
			ratingScore*cfg.WeightRating +
			acceptScore*cfg.WeightAcceptance +
			loadScore*cfg.WeightLoad
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return less(candidates[i], candidates[j])
	})
	return candidates
}

// eligible applies the hard pass/fail gate: online, approved, active,
// located (and fresh, when configured), inside the search radius.
func eligible(c courier.Courier, origin types.Point, cfg Config, now time.Time) bool {
	if !c.IsOnline || !c.IsApproved || !c.IsActive {
		return false
	}
	if c.Location == nil {
		return false
	}
	if cfg.LocationMaxAge > 0 {
		if c.LocationUpdatedAt == nil || now.Sub(*c.LocationUpdatedAt) > cfg.LocationMaxAge {
			return false
		}
	}
	return geo.DistanceKm(*c.Location, origin) <= cfg.RadiusKm
}
