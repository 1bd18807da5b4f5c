package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gofer/internal/geo"
	"gofer/internal/modules/matching"
	"gofer/internal/notify"
	"gofer/internal/types"
)

// Matcher produces the ranked candidate list for an order origin.
type Matcher interface {
	CandidatesFor(ctx context.Context, origin types.Point) ([]matching.Candidate, error)
}

// Orders is the slice of the order service dispatch needs: committing an
// accepted offer as the order's rider.
type Orders interface {
	AssignCourier(ctx context.Context, orderID, courierID types.ID) error
}

// CourierStats records offer outcomes so acceptance rates feed back into
// future ranking.
type CourierStats interface {
	RecordOfferResponse(ctx context.Context, courierID types.ID, accepted bool) error
}

// Request carries everything the coordinator needs to run a cycle for an
// order. The offer fields are captured once at trigger time; dispatch never
// re-reads the order.
type Request struct {
	OrderID        types.ID
	Origin         types.Point
	Category       string
	PickupAddress  string
	DropoffAddress string
	// Fee is the rider earnings shown on the offer card.
	Fee float64
}

type cycle struct {
	orderID types.ID
	offer   notify.JobOffer

	ranked []matching.Candidate
	next   int
	round  int

	state   State
	current types.ID
	timer   *time.Timer
}

// Coordinator runs one offer cycle per order: offer the top candidate, wait
// for accept/reject/timeout, move to the next. All cycle state lives in
// memory under one mutex; the cross-process guarantee (at most one live
// offer per courier) lives in the OfferStore.
type Coordinator struct {
	cfg      Config
	store    OfferStore
	matcher  Matcher
	orders   Orders
	stats    CourierStats
	notifier notify.Notifier
	log      *slog.Logger

	mu     sync.Mutex
	cycles map[types.ID]*cycle

	// afterFunc is swapped in tests to control timeout firing.
	afterFunc func(d time.Duration, f func()) *time.Timer
}

func NewCoordinator(cfg Config, store OfferStore, matcher Matcher, orders Orders, stats CourierStats, notifier notify.Notifier, log *slog.Logger) *Coordinator {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Coordinator{
		cfg:       cfg,
		store:     store,
		matcher:   matcher,
		orders:    orders,
		stats:     stats,
		notifier:  notifier,
		log:       log,
		cycles:    make(map[types.ID]*cycle),
		afterFunc: time.AfterFunc,
	}
}

// Dispatch starts a cycle for the order and places the first offer. An
// exhausted result with zero candidates means no riders are in range right
// now; the caller retries later.
func (c *Coordinator) Dispatch(ctx context.Context, req Request) (Result, error) {
	if req.OrderID == "" || !geo.ValidPoint(req.Origin) {
		return Result{}, ErrBadRequest
	}

	cy := &cycle{
		orderID: req.OrderID,
		state:   StateAwaitingMatch,
		offer: notify.JobOffer{
			OrderID:        req.OrderID,
			Category:       req.Category,
			PickupAddress:  req.PickupAddress,
			DropoffAddress: req.DropoffAddress,
			Fee:            req.Fee,
		},
	}

	c.mu.Lock()
	if _, exists := c.cycles[req.OrderID]; exists {
		c.mu.Unlock()
		return Result{}, ErrDispatchInProgress
	}
	c.cycles[req.OrderID] = cy
	c.mu.Unlock()

	ranked, err := c.matcher.CandidatesFor(ctx, req.Origin)
	if err != nil {
		c.mu.Lock()
		delete(c.cycles, req.OrderID)
		c.mu.Unlock()
		return Result{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cy.ranked = ranked
	res := c.offerNextLocked(ctx, cy)
	c.log.Info("dispatch triggered",
		"order_id", req.OrderID, "candidates", len(ranked), "state", res.State)
	return res, nil
}

// HandleResponse applies a courier's answer to their outstanding offer.
// Responses for an offer that already timed out or was superseded get
// ErrNoActiveOffer; the caller should tell the courier the job is gone.
func (c *Coordinator) HandleResponse(ctx context.Context, orderID, courierID types.ID, accepted bool) error {
	c.mu.Lock()
	cy, ok := c.cycles[orderID]
	if !ok || cy.state != StateOffered || cy.current != courierID {
		c.mu.Unlock()
		return ErrNoActiveOffer
	}
	cy.timer.Stop()

	if err := c.stats.RecordOfferResponse(ctx, courierID, accepted); err != nil {
		c.log.Warn("record offer response failed", "courier_id", courierID, "error", err)
	}

	if !accepted {
		c.releaseCourier(ctx, courierID)
		res := c.offerNextLocked(ctx, cy)
		c.mu.Unlock()
		c.log.Info("offer rejected",
			"order_id", orderID, "courier_id", courierID, "next_state", res.State)
		return nil
	}

	cy.state = StateAccepted
	delete(c.cycles, orderID)
	c.mu.Unlock()

	// The CAS inside AssignCourier loses if the order was cancelled while
	// the offer was out; the courier is released either way.
	err := c.orders.AssignCourier(ctx, orderID, courierID)
	c.releaseCourier(ctx, courierID)
	if err != nil {
		c.log.Warn("assign after accept failed",
			"order_id", orderID, "courier_id", courierID, "error", err)
		return err
	}
	c.log.Info("offer accepted", "order_id", orderID, "courier_id", courierID)
	return nil
}

// Cancel tears down the order's cycle, if any. Safe to call for orders with
// no running dispatch.
func (c *Coordinator) Cancel(ctx context.Context, orderID types.ID) {
	c.mu.Lock()
	cy, ok := c.cycles[orderID]
	if !ok {
		c.mu.Unlock()
		return
	}
	if cy.state == StateOffered {
		cy.timer.Stop()
		c.releaseCourier(ctx, cy.current)
	}
	delete(c.cycles, orderID)
	c.mu.Unlock()
	c.log.Info("dispatch cancelled", "order_id", orderID)
}

// Status reports the live cycle state for an order; ok is false when no
// cycle is running.
func (c *Coordinator) Status(orderID types.ID) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cy, ok := c.cycles[orderID]
	if !ok {
		return Result{}, false
	}
	return Result{State: cy.state, CourierID: cy.current, Candidates: len(cy.ranked)}, true
}

func (c *Coordinator) onTimeout(orderID, courierID types.ID) {
	ctx := context.Background()

	c.mu.Lock()
	cy, ok := c.cycles[orderID]
	if !ok || cy.state != StateOffered || cy.current != courierID {
		// The response won the race against the timer.
		c.mu.Unlock()
		return
	}

	if err := c.stats.RecordOfferResponse(ctx, courierID, false); err != nil {
		c.log.Warn("record offer timeout failed", "courier_id", courierID, "error", err)
	}
	c.releaseCourier(ctx, courierID)
	res := c.offerNextLocked(ctx, cy)
	c.mu.Unlock()

	c.log.Info("offer timed out",
		"order_id", orderID, "courier_id", courierID, "next_state", res.State)
}

// offerNextLocked advances the cycle to the next available candidate.
// Couriers already holding an offer elsewhere are skipped without consuming
// a round; only placed offers count against MaxOfferRounds. Caller holds mu.
func (c *Coordinator) offerNextLocked(ctx context.Context, cy *cycle) Result {
	for cy.round < c.cfg.MaxOfferRounds && cy.next < len(cy.ranked) {
		cand := cy.ranked[cy.next]
		cy.next++

		ok, err := c.store.AcquireCourier(ctx, cand.Courier.ID, cy.orderID)
		if err != nil {
			c.log.Warn("acquire courier failed, skipping",
				"order_id", cy.orderID, "courier_id", cand.Courier.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}

		cy.round++
		cy.state = StateOffered
		cy.current = cand.Courier.ID
		if err := c.store.RecordOffer(ctx, cy.orderID, cand.Courier.ID, cy.round); err != nil {
			c.log.Warn("record offer failed", "order_id", cy.orderID, "error", err)
		}

		orderID, courierID := cy.orderID, cand.Courier.ID
		cy.timer = c.afterFunc(c.cfg.AcceptTimeout, func() {
			c.onTimeout(orderID, courierID)
		})

		offer := cy.offer
		offer.CourierID = courierID
		c.notifier.NewJob(ctx, offer)

		return Result{State: StateOffered, CourierID: courierID, Candidates: len(cy.ranked)}
	}

	cy.state = StateExhausted
	delete(c.cycles, cy.orderID)
	return Result{State: StateExhausted, Candidates: len(cy.ranked)}
}

func (c *Coordinator) releaseCourier(ctx context.Context, courierID types.ID) {
	if err := c.store.ReleaseCourier(ctx, courierID); err != nil {
		c.log.Warn("release courier failed", "courier_id", courierID, "error", err)
	}
}
