// Package order owns the order/ride/parcel aggregate and its lifecycle.
package order

import (
	"time"

	"gofer/internal/modules/pricing"
	"gofer/internal/types"
)

// ServiceType distinguishes the three demand types. They share one
// aggregate because matching and dispatch treat them identically.
type ServiceType string

const (
	ServiceFood   ServiceType = "food_delivery"
	ServiceRide   ServiceType = "ride"
	ServiceParcel ServiceType = "parcel"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusPreparing  Status = "preparing"
	StatusReady      Status = "ready"
	StatusPickingUp  Status = "picking_up"
	StatusDelivering Status = "delivering"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// AllowedTransitions encodes the linear lifecycle. Rides and parcels have
// no merchant stage and jump from pending to picking_up when a courier
// accepts; cancelled is reachable from every pre-delivering state.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusPickingUp, StatusCancelled},
	StatusConfirmed:  {StatusPreparing, StatusCancelled},
	StatusPreparing:  {StatusReady, StatusCancelled},
	StatusReady:      {StatusPickingUp, StatusCancelled},
	StatusPickingUp:  {StatusDelivering, StatusCancelled},
	StatusDelivering: {StatusDelivered},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID          types.ID
	OrderNumber string
	CustomerID  types.ID
	MerchantID  *types.ID
	RiderID     *types.ID
	ServiceType ServiceType
	Category    pricing.Category

	Status        Status
	StatusVersion int

	// Origin is the merchant location for food, the pickup point otherwise.
	Origin         types.Point
	Destination    types.Point
	PickupAddress  string
	DropoffAddress string
	Note           string

	DistanceKm float64

	// Fee breakdown captured at creation time; immutable afterwards.
	Subtotal         float64
	DeliveryFee      float64
	SurgeFee         float64
	PlatformFee      float64
	Total            float64
	RiderEarnings    float64
	PlatformEarnings float64
	CommunityFund    float64
	IsSurge          bool

	CreatedAt    time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	CancelReason *string
}

// Event is one audit row in the order's state history.
type Event struct {
	ID         int64
	OrderID    types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}
