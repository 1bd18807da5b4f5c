// Package pricing computes delivery fee breakdowns and ride fares.
package pricing

import "errors"

// Category is the service category a fee is quoted for.
type Category string

const (
	CategoryFood        Category = "food"
	CategoryDocument    Category = "document"
	CategoryParcelSmall Category = "parcel_small"
	CategoryParcelLarge Category = "parcel_large"
	CategoryRide        Category = "ride"
)

// ErrUnknownCategory is returned when a category is not in the fare table.
// It signals a programmer or configuration error and is never retried.
var ErrUnknownCategory = errors.New("pricing: unknown service category")

// CategoryFare is the fixed base configuration for one category.
type CategoryFare struct {
	Base     float64
	ExtraFee float64
}

// SurgeWindow is a half-open [StartHour, EndHour) range of local hours.
type SurgeWindow struct {
	StartHour int
	EndHour   int
}

// Config carries every tunable the engine needs. The engine never reads
// global state; the admin settings layer loads live values through Store
// and passes them in here.
type Config struct {
	Fares             map[Category]CategoryFare
	FreeDistanceKm    float64
	RideFreeKm        float64
	PerKmRate         float64
	SurgeMultiplier   float64
	SurgeWindows      []SurgeWindow
	PlatformFeeRate   float64
	RiderShareRate    float64
	CommunityFundRate float64

	// SplitRoundedFee selects the denominator for the earnings split.
	// false (default, matches production behaviour): split the pre-ceiling
	// delivery fee, so the platform absorbs the ceiling residual as margin.
	// true: split the rounded fee the customer is actually charged.
	// Pending product clarification; both paths are covered by tests.
	SplitRoundedFee bool
}

// DefaultConfig returns the production fare table.
func DefaultConfig() Config {
	return Config{
		Fares: map[Category]CategoryFare{
			CategoryFood:        {Base: 25, ExtraFee: 0},
			CategoryDocument:    {Base: 20, ExtraFee: 0},
			CategoryParcelSmall: {Base: 20, ExtraFee: 10},
			CategoryParcelLarge: {Base: 30, ExtraFee: 50},
			CategoryRide:        {Base: 25, ExtraFee: 0},
		},
		FreeDistanceKm:  2,
		RideFreeKm:      2,
		PerKmRate:       10,
		SurgeMultiplier: 1.3,
		SurgeWindows: []SurgeWindow{
			{StartHour: 11, EndHour: 13},
			{StartHour: 17, EndHour: 20},
		},
		PlatformFeeRate:   0.04,
		RiderShareRate:    0.70,
		CommunityFundRate: 0.01,
	}
}

// Breakdown is the immutable fee computation result. It is not persisted as
// its own entity; order creation copies its fields onto the order row.
type Breakdown struct {
	BaseFare         float64
	ExtraFee         float64
	DistanceFee      float64
	SurgeFee         float64
	Subtotal         float64
	PlatformFee      float64
	Total            float64
	DeliveryFee      float64
	RiderEarnings    float64
	PlatformEarnings float64
	CommunityFund    float64
	IsSurge          bool
	DistanceKm       float64
}
