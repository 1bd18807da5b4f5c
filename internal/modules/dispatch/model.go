// Package dispatch runs the offer/timeout/next-candidate loop that turns a
// ranked candidate list into an assigned courier.
package dispatch

import (
	"errors"
	"time"

	"gofer/internal/types"
)

// State of one dispatch cycle.
type State string

const (
	StateAwaitingMatch State = "awaiting_match"
	StateOffered       State = "offered"
	StateAccepted      State = "accepted"
	StateExhausted     State = "exhausted"
)

var (
	// ErrDispatchInProgress rejects a second trigger for an order whose
	// cycle is still running.
	ErrDispatchInProgress = errors.New("dispatch already in progress")
	// ErrNoActiveOffer means a courier responded to an offer that is no
	// longer theirs (timed out, superseded, or never existed).
	ErrNoActiveOffer = errors.New("no active offer for courier")
	// ErrBadRequest rejects a dispatch trigger with missing order data.
	ErrBadRequest = errors.New("bad dispatch request")
)

type Config struct {
	// AcceptTimeout is how long a courier holds an offer before it moves on.
	AcceptTimeout time.Duration
	// MaxOfferRounds caps how many couriers are tried per cycle.
	MaxOfferRounds int
}

func DefaultConfig() Config {
	return Config{
		AcceptTimeout:  60 * time.Second,
		MaxOfferRounds: 3,
	}
}

// Result reports how a dispatch trigger ended.
type Result struct {
	State State
	// CourierID is set when State is StateOffered or StateAccepted.
	CourierID types.ID
	// Candidates is the size of the ranked list the cycle started with.
	// Zero with StateExhausted means "no riders in range" — a normal
	// outcome the caller retries later, not an error.
	Candidates int
}
