package pricing

import (
	"math"
	"time"
)

// Surge windows are evaluated in Thailand civil time regardless of the host
// timezone, so a server running in UTC quotes the same fee as one in Bangkok.
var bangkok = time.FixedZone("ICT", 7*60*60)

// IsSurgePeriod reports whether at falls inside one of the configured peak
// windows, evaluated in UTC+7.
func IsSurgePeriod(cfg Config, at time.Time) bool {
	hour := at.In(bangkok).Hour()
	for _, w := range cfg.SurgeWindows {
		if hour >= w.StartHour && hour < w.EndHour {
			return true
		}
	}
	return false
}

// DeliveryFee converts a distance and category into a fee breakdown.
//
// distanceKm must be non-negative; the engine does not validate it and a
// negative value would be subtracted into the fee. Callers clamp or reject
// before calling. Zero distance and distances under the free threshold
// degrade to base + extra.
func DeliveryFee(distanceKm float64, category Category, cfg Config, at time.Time) (Breakdown, error) {
	fare, ok := cfg.Fares[category]
	if !ok {
		return Breakdown{}, ErrUnknownCategory
	}
	surge := IsSurgePeriod(cfg, at)

	chargeableKm := math.Max(0, distanceKm-cfg.FreeDistanceKm)
	distanceFee := chargeableKm * cfg.PerKmRate

	subtotal := fare.Base + fare.ExtraFee + distanceFee
	surgeFee := 0.0
	if surge {
		surgeFee = subtotal * (cfg.SurgeMultiplier - 1)
	}
	fee := subtotal + surgeFee

	platformFee := fee * cfg.PlatformFeeRate
	total := math.Ceil(fee + platformFee)

	// Settlement split. The denominator is the pre-ceiling fee unless
	// SplitRoundedFee says otherwise (see Config).
	splitBase := fee
	if cfg.SplitRoundedFee {
		splitBase = math.Ceil(fee)
	}
	riderEarnings := round2(splitBase * cfg.RiderShareRate)
	communityFund := round2(splitBase * cfg.CommunityFundRate)
	platformEarnings := round2(splitBase * (1 - cfg.RiderShareRate - cfg.CommunityFundRate))

	return Breakdown{
		BaseFare:         fare.Base,
		ExtraFee:         fare.ExtraFee,
		DistanceFee:      distanceFee,
		SurgeFee:         surgeFee,
		Subtotal:         subtotal,
		PlatformFee:      platformFee,
		Total:            total,
		DeliveryFee:      math.Ceil(fee),
		RiderEarnings:    riderEarnings,
		PlatformEarnings: platformEarnings,
		CommunityFund:    communityFund,
		IsSurge:          surge,
		DistanceKm:       round2(distanceKm),
	}, nil
}

// RideFare computes the flat person-transport fare. No earnings split is
// produced at quote time; settlement happens downstream.
func RideFare(distanceKm, surgeMultiplier float64, cfg Config) float64 {
	base := cfg.Fares[CategoryRide].Base
	chargeableKm := math.Max(0, distanceKm-cfg.RideFreeKm)
	return math.Ceil((base + chargeableKm*cfg.PerKmRate) * surgeMultiplier)
}

// Commission is the merchant commission on an item subtotal; ratePct is a
// percentage (e.g. 15 for 15%).
func Commission(subtotal, ratePct float64) float64 {
	return round2(subtotal * ratePct / 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Service wraps the pure engine with the live configuration so consumers
// (order creation, dispatch) do not reload the fare table per call.
type Service struct {
	store *Store
	cfg   Config
	now   func() time.Time
}

func NewService(store *Store, cfg Config) *Service {
	return &Service{store: store, cfg: cfg, now: time.Now}
}

// Config returns the active configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// DeliveryFee quotes with the active config at the current instant.
func (s *Service) DeliveryFee(distanceKm float64, category Category) (Breakdown, error) {
	return DeliveryFee(distanceKm, category, s.cfg, s.now())
}

// RideFare quotes a ride with the active config.
func (s *Service) RideFare(distanceKm, surgeMultiplier float64) float64 {
	return RideFare(distanceKm, surgeMultiplier, s.cfg)
}

// CurrentSurgeMultiplier is the multiplier in effect right now: the
// configured peak multiplier inside a surge window, 1 otherwise.
func (s *Service) CurrentSurgeMultiplier() float64 {
	if IsSurgePeriod(s.cfg, s.now()) {
		return s.cfg.SurgeMultiplier
	}
	return 1
}
