/*
Package wheel models wheel-strategy option cycles as per-lot state machines.

PURPOSE:
  A "lot" is a 100-share unit of an underlying tracked independently through
  the wheel: acquired outright or by put assignment, covered by short calls,
  and eventually closed. This package owns the rules for which actions are
  legal given a lot's state, applies them optimistically after the backend
  ledger acknowledges a submission, and appends an immutable event per action.

KEY CONCEPTS IN THIS FILE (types.go):
  - Lot: the position unit, with status and cost basis DERIVED, never stored
  - Acquisition: tagged variant recording how the lot came to exist
  - Coverage: the short option leg currently written against the lot
  - LotEvent: immutable, append-only history record
  - Action payloads: one input shape per mutating operation

DESIGN PRINCIPLES:
  1. Derived state: Lot.Status() is a pure function of acquisition and
     coverage. Hand-updating a status field per branch is the bug class
     this eliminates: status and coverage can never disagree.
  2. Immutability: events are appended, never mutated or removed.
  3. Precision: decimal.Decimal for every price and premium.

SEE ALSO:
  - engine.go: the action engine (guards, submission, optimistic apply)
  - validate.go: pure payload validators
  - modal.go: single-slot dialog controller
*/
package wheel

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// LOT STATUS - Derived lifecycle position
// =============================================================================

type LotStatus string

const (
	StatusOpenUncovered LotStatus = "OPEN_UNCOVERED"
	StatusOpenCovered   LotStatus = "OPEN_COVERED"
	StatusCashReserved  LotStatus = "CASH_RESERVED"
	StatusClosed        LotStatus = "CLOSED"
)

// =============================================================================
// ACQUISITION - How the lot came to exist (tagged variant)
// =============================================================================

type AcquisitionKind string

const (
	// AcqOutrightPurchase: shares bought directly. Price and Date are set.
	AcqOutrightPurchase AcquisitionKind = "OUTRIGHT_PURCHASE"
	// AcqPutAssignment: shares delivered by an assigned short put. Expiry is
	// set; Price holds the assignment strike when known.
	AcqPutAssignment AcquisitionKind = "PUT_ASSIGNMENT"
	// AcqCashSecuredPut: a short put with cash reserved, assignment pending.
	// No shares exist yet. Expiry is set.
	AcqCashSecuredPut AcquisitionKind = "CASH_SECURED_PUT"
)

type Acquisition struct {
	Kind   AcquisitionKind `json:"kind"`
	Price  decimal.Decimal `json:"price"`
	Date   Date            `json:"date"`
	Expiry Date            `json:"expiry"`
}

// =============================================================================
// COVERAGE - The short option leg written against the lot
// =============================================================================

type CoverageStatus string

const (
	CoverageOpen   CoverageStatus = "OPEN"
	CoverageClosed CoverageStatus = "CLOSED"
)

// Coverage is present only for lots with an active or past short-call or
// short-put leg.
type Coverage struct {
	Strike  decimal.Decimal `json:"strike"`
	Premium decimal.Decimal `json:"premium"`
	Status  CoverageStatus  `json:"status"`
}

// =============================================================================
// LOT EVENTS - Append-only audit trail
// =============================================================================

type EventType string

const (
	EventBuyShares     EventType = "BUY_SHARES"
	EventSellPut       EventType = "SELL_PUT"
	EventSellCallOpen  EventType = "SELL_CALL_OPEN"
	EventSellCallClose EventType = "SELL_CALL_CLOSE"
	EventSellPutClose  EventType = "SELL_PUT_CLOSE"
)

// LotEvent is an immutable history record. Events are ordered by insertion
// within a lot; no two events share an ID.
type LotEvent struct {
	ID      string           `json:"id"`
	Date    Date             `json:"date"`
	Type    EventType        `json:"type"`
	Label   string           `json:"label"`
	Strike  *decimal.Decimal `json:"strike,omitempty"`
	Premium *decimal.Decimal `json:"premium,omitempty"`
	Price   *decimal.Decimal `json:"price,omitempty"`
	Qty     int              `json:"qty"`
	Notes   string           `json:"notes,omitempty"`
}

// =============================================================================
// LOT - A 100-share position unit within a wheel cycle
// =============================================================================

type Lot struct {
	// Number is unique within the cycle, assigned max(existing)+1.
	Number      int         `json:"number"`
	Ticker      string      `json:"ticker"`
	Acquisition Acquisition `json:"acquisition"`
	Coverage    *Coverage   `json:"coverage,omitempty"`
	Events      []LotEvent  `json:"events"`
}

// Status derives the lifecycle position from acquisition and coverage.
//
// A pending cash-secured put reserves cash whether or not its leg is still
// open: closing the put releases the obligation but the lot never held
// shares, so it stays in the reserved bucket until assignment converts it.
// A share-backed lot is covered exactly while its call leg is open; closing
// the call reverts it to uncovered.
func (l *Lot) Status() LotStatus {
	if l.Acquisition.Kind == AcqCashSecuredPut {
		return StatusCashReserved
	}
	if l.Coverage != nil && l.Coverage.Status == CoverageOpen {
		return StatusOpenCovered
	}
	return StatusOpenUncovered
}

// CostBasis returns the display cost basis derived from the acquisition
// price, or CostBasisPending when the lot has no shares yet.
func (l *Lot) CostBasis() string {
	if l.Acquisition.Kind == AcqCashSecuredPut || l.Acquisition.Price.IsZero() {
		return CostBasisPending
	}
	return FormatUSD(l.Acquisition.Price)
}

// Clone deep-copies the lot so snapshots never alias the live event slice.
func (l Lot) Clone() Lot {
	out := l
	if l.Coverage != nil {
		cov := *l.Coverage
		out.Coverage = &cov
	}
	out.Events = make([]LotEvent, len(l.Events))
	copy(out.Events, l.Events)
	return out
}

// NextLotNumber returns max(existing)+1, starting at 1.
func NextLotNumber(lots []Lot) int {
	max := 0
	for _, l := range lots {
		if l.Number > max {
			max = l.Number
		}
	}
	return max + 1
}

// =============================================================================
// ACTION PAYLOADS - One input shape per mutating operation
// =============================================================================
// Payloads are ephemeral: validated, submitted to the ledger, and applied.
// They are never persisted as entities, but they are JSON-encoded into the
// action journal, so shapes must stay decodable.

type SellCoveredCallInput struct {
	LotNumber    int             `json:"lot_number"`
	Strike       decimal.Decimal `json:"strike"`
	Expiry       Date            `json:"expiry"`
	LimitPremium decimal.Decimal `json:"limit_premium"`
	TimeInForce  string          `json:"time_in_force"`
	Fees         decimal.Decimal `json:"fees"`
}

type CloseCoveredCallInput struct {
	LotNumber  int             `json:"lot_number"`
	LimitDebit decimal.Decimal `json:"limit_debit"`
	Fees       decimal.Decimal `json:"fees"`
	Notes      string          `json:"notes,omitempty"`
}

// RollCloseLeg and RollOpenLeg are the two halves of a roll: buy back the
// existing call, write a new one, one logical action.
type RollCloseLeg struct {
	LimitDebit decimal.Decimal `json:"limit_debit"`
}

type RollOpenLeg struct {
	Strike       decimal.Decimal `json:"strike"`
	Expiry       Date            `json:"expiry"`
	LimitPremium decimal.Decimal `json:"limit_premium"`
	TimeInForce  string          `json:"time_in_force"`
}

type RollCoveredCallInput struct {
	LotNumber int          `json:"lot_number"`
	Close     RollCloseLeg `json:"close"`
	Open      RollOpenLeg  `json:"open"`
}

type ClosePutInput struct {
	LotNumber  int             `json:"lot_number"`
	TradeDate  Date            `json:"trade_date"`
	LimitDebit decimal.Decimal `json:"limit_debit"`
	Contracts  int             `json:"contracts"`
	Fees       decimal.Decimal `json:"fees"`
	Notes      string          `json:"notes,omitempty"`
}

type CreateLotBuyInput struct {
	Ticker string          `json:"ticker"`
	Price  decimal.Decimal `json:"price"`
	Date   Date            `json:"date"`
	Fees   decimal.Decimal `json:"fees"`
}

type CreateLotShortPutInput struct {
	Ticker      string          `json:"ticker"`
	Strike      decimal.Decimal `json:"strike"`
	Expiry      Date            `json:"expiry"`
	Premium     decimal.Decimal `json:"premium"`
	TimeInForce string          `json:"time_in_force"`
	Fees        decimal.Decimal `json:"fees"`
}
