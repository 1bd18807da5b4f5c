// Package notify delivers events to end-user devices. Delivery is
// fire-and-forget: a failed or dropped notification is logged and never
// fails the state transition that produced it.
package notify

import (
	"context"

	"gofer/internal/types"
)

// JobOffer is pushed to a courier when dispatch offers them a job.
type JobOffer struct {
	CourierID      types.ID `json:"courier_id"`
	OrderID        types.ID `json:"order_id"`
	Category       string   `json:"category"`
	PickupAddress  string   `json:"pickup_address"`
	DropoffAddress string   `json:"dropoff_address"`
	Fee            float64  `json:"fee"`
}

// StatusChange is pushed to a customer when their order moves state.
type StatusChange struct {
	CustomerID  types.ID `json:"customer_id"`
	OrderNumber string   `json:"order_number"`
	NewStatus   string   `json:"new_status"`
}

// Notifier is the outbound event surface. Implementations must not block
// the caller and must swallow delivery failures.
type Notifier interface {
	NewJob(ctx context.Context, offer JobOffer)
	OrderStatusChanged(ctx context.Context, customerID types.ID, orderNumber string, newStatus string)
}

// Nop drops every event; used in tests and when no transport is configured.
type Nop struct{}

func (Nop) NewJob(ctx context.Context, offer JobOffer) {}
func (Nop) OrderStatusChanged(ctx context.Context, customerID types.ID, orderNumber string, newStatus string) {
}
