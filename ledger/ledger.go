/*
Package ledger defines the boundary between the lot engine and the backend
event ledger.

PURPOSE:
  Every mutating lot action is submitted here before any local state changes.
  The ledger assigns identifiers and records the action; the engine applies
  its optimistic update only after the submission is acknowledged.

KEY INTERFACES:
  Adapter: Submit one action, get back assigned event identifiers.
  Journal: Read back the recorded actions, in submission order.

APPEND-ONLY CONTRACT:
  Actions are recorded, never updated, never deleted. The journal is the
  durable source of truth for lot history: replaying it reproduces the
  in-memory lot collection exactly.

FAILURE SEMANTICS:
  Submit is fallible. A rejection carries a human-readable message and means
  nothing was recorded; the caller must leave its local state untouched.
  Implementations may be HTTP calls, queue publishes, or local databases -
  callers must not assume any of them.

IMPLEMENTATIONS:
  - memory.go: In-memory adapter for tests and dev.
  - store/sqlite: Durable SQLite-backed adapter.
*/
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// =============================================================================
// ACTION KINDS
// =============================================================================

// Kind identifies one of the mutating lot actions.
type Kind string

const (
	KindSellCoveredCall   Kind = "sell_covered_call"
	KindCloseCoveredCall  Kind = "close_covered_call"
	KindRollCoveredCall   Kind = "roll_covered_call"
	KindCloseShortPut     Kind = "close_short_put"
	KindCreateLotBuy      Kind = "create_lot_buy"
	KindCreateLotShortPut Kind = "create_lot_short_put"
)

// Kinds lists every action kind, in no particular order.
func Kinds() []Kind {
	return []Kind{
		KindSellCoveredCall,
		KindCloseCoveredCall,
		KindRollCoveredCall,
		KindCloseShortPut,
		KindCreateLotBuy,
		KindCreateLotShortPut,
	}
}

// Valid reports whether k is a known action kind.
func (k Kind) Valid() bool {
	switch k {
	case KindSellCoveredCall, KindCloseCoveredCall, KindRollCoveredCall,
		KindCloseShortPut, KindCreateLotBuy, KindCreateLotShortPut:
		return true
	}
	return false
}

// EventCount returns how many lot events a successful submission of this
// kind produces. A roll closes one leg and opens another in a single action.
func (k Kind) EventCount() int {
	if k == KindRollCoveredCall {
		return 2
	}
	return 1
}

// =============================================================================
// ACK / ACTION RECORDS
// =============================================================================

// Ack is the acknowledgement returned by a successful submission.
type Ack struct {
	// ActionID identifies the recorded action.
	ActionID string
	// EventIDs are the identifiers assigned to the lot events this action
	// produces, in the order the events are appended.
	EventIDs []string
	// SubmittedAt is when the ledger recorded the action.
	SubmittedAt time.Time
}

// Action is a recorded submission as the journal returns it.
type Action struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	EventIDs    []string        `json:"event_ids"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// =============================================================================
// BOUNDARY INTERFACES
// =============================================================================

// ErrUnknownKind is returned when a submission names an unrecognized action.
var ErrUnknownKind = errors.New("unknown action kind")

// Adapter submits actions to the backend event ledger.
//
// Submit records exactly one action and returns the assigned identifiers.
// On error nothing is recorded. Payload must be JSON-marshalable.
type Adapter interface {
	Submit(ctx context.Context, kind Kind, payload any) (Ack, error)
}

// Journal reads back recorded actions in submission order. Read-only.
type Journal interface {
	Actions(ctx context.Context) ([]Action, error)
}
