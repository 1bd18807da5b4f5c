// Package courier manages the rider pool: profiles, availability, live
// location, and per-day workload aggregates.
package courier

import (
	"errors"
	"time"

	"gofer/internal/types"
)

var (
	ErrNotFound   = errors.New("courier not found")
	ErrBadRequest = errors.New("bad request")
)

// Courier is an independent contractor performing pickups and deliveries.
// Couriers are never deleted, only deactivated.
type Courier struct {
	ID           types.ID
	UserID       *types.ID
	FullName     string
	Phone        string
	VehicleType  string
	VehiclePlate string

	IsOnline   bool
	IsApproved bool
	IsActive   bool

	// Location is nil until the first location report arrives.
	Location          *types.Point
	LocationUpdatedAt *time.Time

	Rating          float64 // 0-5, new couriers start at 5
	AcceptanceRate  float64 // 0-100, new couriers start at 100
	TotalDeliveries int
	OffersTotal     int
	OffersAccepted  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	defaultRating         = 5
	defaultAcceptanceRate = 100
)

// Thailand civil time; daily workload windows reset at local midnight.
var bangkok = time.FixedZone("ICT", 7*60*60)

// MidnightBangkok returns the most recent local midnight at or before t.
func MidnightBangkok(t time.Time) time.Time {
	local := t.In(bangkok)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, bangkok)
}
