package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gofer/internal/geo"
	"gofer/internal/modules/pricing"
	"gofer/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("order not found")
	ErrConflict     = errors.New("order state conflict")
	ErrBadRequest   = errors.New("bad request")
)

// Pricing is the fee engine surface the order flow needs.
type Pricing interface {
	DeliveryFee(distanceKm float64, category pricing.Category) (pricing.Breakdown, error)
	RideFare(distanceKm, surgeMultiplier float64) float64
	CurrentSurgeMultiplier() float64
}

// Geocoder resolves a street address to coordinates when the caller did not
// supply them. Optional; creation fails without coordinates if unset.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

// StatusNotifier receives status-change events. Delivery is fire-and-forget;
// implementations must not block and must never fail the transition.
type StatusNotifier interface {
	OrderStatusChanged(ctx context.Context, customerID types.ID, orderNumber string, newStatus string)
}

type Service struct {
	store    *Store
	pricing  Pricing
	geocoder Geocoder
	notifier StatusNotifier
	now      func() time.Time
}

func NewService(store *Store, pricingSvc Pricing, geocoder Geocoder, notifier StatusNotifier) *Service {
	return &Service{
		store:    store,
		pricing:  pricingSvc,
		geocoder: geocoder,
		notifier: notifier,
		now:      time.Now,
	}
}

type CreateCommand struct {
	CustomerID  types.ID
	MerchantID  *types.ID
	ServiceType ServiceType
	Category    pricing.Category

	Origin      *types.Point
	Destination *types.Point

	PickupAddress  string
	DropoffAddress string
	Note           string

	// ItemsSubtotal is the food basket total; zero for rides and parcels.
	ItemsSubtotal float64
}

// Create prices the request and persists the order in pending state. The
// fee breakdown is computed once here and never recomputed.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	if cmd.CustomerID == "" || cmd.ServiceType == "" {
		return nil, ErrBadRequest
	}

	origin, err := s.resolvePoint(ctx, cmd.Origin, cmd.PickupAddress)
	if err != nil {
		return nil, err
	}
	dest, err := s.resolvePoint(ctx, cmd.Destination, cmd.DropoffAddress)
	if err != nil {
		return nil, err
	}

	// The pricing engine trusts its distance input, so validation lives here.
	distanceKm := geo.DistanceKm(origin, dest)
	if distanceKm < 0 {
		return nil, ErrBadRequest
	}

	now := s.now()
	o := &Order{
		ID:             types.ID(uuid.NewString()),
		OrderNumber:    newOrderNumber(cmd.ServiceType, now),
		CustomerID:     cmd.CustomerID,
		MerchantID:     cmd.MerchantID,
		ServiceType:    cmd.ServiceType,
		Category:       cmd.Category,
		Status:         StatusPending,
		Origin:         origin,
		Destination:    dest,
		PickupAddress:  cmd.PickupAddress,
		DropoffAddress: cmd.DropoffAddress,
		Note:           cmd.Note,
		DistanceKm:     distanceKm,
		Subtotal:       cmd.ItemsSubtotal,
		CreatedAt:      now,
	}

	if cmd.ServiceType == ServiceRide {
		o.Category = pricing.CategoryRide
		fare := s.pricing.RideFare(distanceKm, s.pricing.CurrentSurgeMultiplier())
		o.DeliveryFee = fare
		o.Total = fare
	} else {
		if o.Category == "" {
			return nil, ErrBadRequest
		}
		b, err := s.pricing.DeliveryFee(distanceKm, o.Category)
		if err != nil {
			return nil, err
		}
		o.DeliveryFee = b.DeliveryFee
		o.SurgeFee = b.SurgeFee
		o.PlatformFee = b.PlatformFee
		o.Total = cmd.ItemsSubtotal + b.Total
		o.RiderEarnings = b.RiderEarnings
		o.PlatformEarnings = b.PlatformEarnings
		o.CommunityFund = b.CommunityFund
		o.IsSurge = b.IsSurge
	}

	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: "",
		ToStatus:   StatusPending,
		ActorType:  "customer",
		ActorID:    &cmd.CustomerID,
		CreatedAt:  now,
	})
	return o, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

// Confirm, Prepare, and Ready are the merchant-side transitions.

func (s *Service) Confirm(ctx context.Context, id types.ID, merchantID types.ID) error {
	return s.transition(ctx, id, StatusConfirmed, "merchant", &merchantID, nil, nil)
}

func (s *Service) Prepare(ctx context.Context, id types.ID, merchantID types.ID) error {
	return s.transition(ctx, id, StatusPreparing, "merchant", &merchantID, nil, nil)
}

func (s *Service) Ready(ctx context.Context, id types.ID, merchantID types.ID) error {
	return s.transition(ctx, id, StatusReady, "merchant", &merchantID, nil, nil)
}

// AssignCourier is invoked by dispatch when an offer is accepted: it sets
// the rider and moves the order to picking_up in one compare-and-set.
func (s *Service) AssignCourier(ctx context.Context, id types.ID, courierID types.ID) error {
	return s.transition(ctx, id, StatusPickingUp, "dispatch", nil, &courierID, nil)
}

// PickUp and Deliver are the courier-side transitions.

func (s *Service) PickUp(ctx context.Context, id types.ID, courierID types.ID) error {
	return s.transition(ctx, id, StatusDelivering, "courier", &courierID, nil, nil)
}

func (s *Service) Deliver(ctx context.Context, id types.ID, courierID types.ID) error {
	return s.transition(ctx, id, StatusDelivered, "courier", &courierID, nil, nil)
}

type CancelCommand struct {
	OrderID   types.ID
	ActorType string
	ActorID   *types.ID
	Reason    string
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	reason := cmd.Reason
	return s.transition(ctx, cmd.OrderID, StatusCancelled, cmd.ActorType, cmd.ActorID, nil, &reason)
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status, actorType string, actorID, riderID *types.ID, reason *string) error {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, to) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, to, o.StatusVersion, riderID, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: o.Status,
		ToStatus:   to,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  s.now(),
	})
	if s.notifier != nil {
		s.notifier.OrderStatusChanged(ctx, o.CustomerID, o.OrderNumber, string(to))
	}
	return nil
}

func (s *Service) resolvePoint(ctx context.Context, p *types.Point, address string) (types.Point, error) {
	if p != nil {
		if !geo.ValidPoint(*p) {
			return types.Point{}, ErrBadRequest
		}
		return *p, nil
	}
	if address == "" || s.geocoder == nil {
		return types.Point{}, ErrBadRequest
	}
	return s.geocoder.Geocode(ctx, address)
}

var numberPrefixes = map[ServiceType]string{
	ServiceFood:   "FD",
	ServiceRide:   "RD",
	ServiceParcel: "PC",
}

var bangkok = time.FixedZone("ICT", 7*60*60)

func newOrderNumber(t ServiceType, at time.Time) string {
	prefix, ok := numberPrefixes[t]
	if !ok {
		prefix = "OD"
	}
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", prefix, at.In(bangkok).Format("20060102"), short)
}
