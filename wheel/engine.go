/*
engine.go - The lot actions engine

PURPOSE:
  The single authority for "given this lot and this action, is it legal,
  and what does state look like afterward". Guard predicates gate which
  actions a surface may present; the operations validate, submit to the
  ledger adapter, and only then apply the optimistic local update.

OPERATION FLOW:
  1. Validate the payload (pure, no side effects). Failure: ErrInvalidInput,
     the adapter is never called, no state changes.
  2. Check the guard against the lot's current state.
  3. Lock the target lot. A second action against the same lot while one is
     in flight is rejected with ErrLotBusy, not queued.
  4. Submit to the ledger adapter. Failure: the adapter's error propagates
     as-is, local state is untouched, the dialog stays open.
  5. Apply the optimistic update through the caller-supplied updater and
     append the event(s) with the ledger-assigned identifiers.
  6. Dismiss the dialog.

STATE MACHINE (per lot, status derived):
  OPEN_UNCOVERED --(sell call)--> OPEN_COVERED
  OPEN_COVERED   --(close call)--> OPEN_UNCOVERED  [coverage -> CLOSED]
  OPEN_COVERED   --(roll call)---> OPEN_COVERED    [close+open, one action]
  CASH_RESERVED  --(close put)---> CASH_RESERVED   [coverage -> CLOSED]
  (new)          --(buy shares)--> OPEN_UNCOVERED
  (new)          --(sell put)----> CASH_RESERVED

OWNERSHIP:
  The lot collection is owned by the caller. The engine reads it through
  View and mutates it only through Apply; it never holds lots itself.

SEE ALSO:
  - validate.go: payload validators
  - modal.go: dialog controller driven by the engine
  - replay.go: rebuilds a collection from the recorded action journal
*/
package wheel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/allocraft/wheel-engine/ledger"
	"github.com/allocraft/wheel-engine/metrics"
)

// =============================================================================
// ENGINE
// =============================================================================

// ViewFunc returns a snapshot of the caller-owned lot collection.
type ViewFunc func() []Lot

// ApplyFunc runs a mutation against the caller-owned lot collection. The
// mutation receives the previous lots and returns the next lots; this is
// the only way the engine changes externally-owned state.
type ApplyFunc func(mutate func(prev []Lot) []Lot)

// Engine executes lot actions against a ledger adapter and a caller-owned
// lot collection.
type Engine struct {
	adapter ledger.Adapter
	modal   *ModalController
	view    ViewFunc
	apply   ApplyFunc

	// Now is the clock used for event dates when the ledger does not supply
	// one. Overridable in tests.
	Now func() Date

	mu       sync.Mutex
	inFlight map[int]struct{}
}

func NewEngine(adapter ledger.Adapter, modal *ModalController, view ViewFunc, apply ApplyFunc) *Engine {
	return &Engine{
		adapter:  adapter,
		modal:    modal,
		view:     view,
		apply:    apply,
		Now:      Today,
		inFlight: make(map[int]struct{}),
	}
}

// =============================================================================
// GUARDS - Which actions may be presented for a lot
// =============================================================================

// CanCover reports whether a covered call may be sold against the lot.
func CanCover(l Lot) bool {
	return l.Status() == StatusOpenUncovered
}

// CanCloseCall reports whether the lot's call leg may be bought back.
func CanCloseCall(l Lot) bool {
	return l.Status() == StatusOpenCovered && l.Coverage != nil && l.Coverage.Status == CoverageOpen
}

// CanRollCall reports whether the lot's call leg may be rolled. Same
// precondition as closing: an open call leg must exist.
func CanRollCall(l Lot) bool {
	return CanCloseCall(l)
}

// CanClosePut reports whether the lot's short put may be bought back.
func CanClosePut(l Lot) bool {
	return l.Acquisition.Kind == AcqCashSecuredPut &&
		(l.Coverage == nil || l.Coverage.Status != CoverageClosed)
}

// =============================================================================
// DIALOG SURFACE - Open the corresponding action dialog
// =============================================================================

func (e *Engine) OpenCover(lotNumber int) error {
	return e.openFor(lotNumber, ModalCover, CanCover)
}

func (e *Engine) OpenCloseCall(lotNumber int) error {
	return e.openFor(lotNumber, ModalCloseCall, CanCloseCall)
}

func (e *Engine) OpenClosePut(lotNumber int) error {
	return e.openFor(lotNumber, ModalClosePut, CanClosePut)
}

func (e *Engine) OpenRoll(lotNumber int) error {
	return e.openFor(lotNumber, ModalRoll, CanRollCall)
}

// OpenNewLot opens the new-lot dialog, optionally pre-filled with a ticker.
func (e *Engine) OpenNewLot(ticker string) {
	e.modal.Open(Modal{Kind: ModalNewLot, Ticker: ticker})
}

// Modal returns the active dialog, or nil.
func (e *Engine) Modal() *Modal { return e.modal.Active() }

// CloseModal dismisses the active dialog. Refused while a submission is
// in flight.
func (e *Engine) CloseModal() error { return e.modal.Close() }

func (e *Engine) openFor(lotNumber int, kind ModalKind, guard func(Lot) bool) error {
	l, err := e.lot(lotNumber)
	if err != nil {
		return err
	}
	if !guard(l) {
		return fmt.Errorf("lot %d: %w", lotNumber, ErrActionUnavailable)
	}
	e.modal.Open(Modal{Kind: kind, LotNumber: lotNumber, Ticker: l.Ticker})
	return nil
}

// =============================================================================
// OPERATIONS
// =============================================================================

// SellCoveredCall writes a call against an uncovered lot.
func (e *Engine) SellCoveredCall(ctx context.Context, in SellCoveredCallInput) error {
	if !ValidSellCoveredCall(in) {
		return e.reject(ledger.KindSellCoveredCall)
	}
	return e.mutateLot(ctx, in.LotNumber, ledger.KindSellCoveredCall, in, CanCover,
		func(prev []Lot, ack ledger.Ack) []Lot {
			return applySellCoveredCall(prev, in, ack.EventIDs, e.ackDate(ack))
		})
}

// CloseCoveredCall buys back the lot's open call leg.
func (e *Engine) CloseCoveredCall(ctx context.Context, in CloseCoveredCallInput) error {
	if !ValidCloseCoveredCall(in) {
		return e.reject(ledger.KindCloseCoveredCall)
	}
	return e.mutateLot(ctx, in.LotNumber, ledger.KindCloseCoveredCall, in, CanCloseCall,
		func(prev []Lot, ack ledger.Ack) []Lot {
			return applyCloseCoveredCall(prev, in, ack.EventIDs, e.ackDate(ack))
		})
}

// RollCoveredCall closes the existing call leg and opens a new one in a
// single logical action: two events, one submission.
func (e *Engine) RollCoveredCall(ctx context.Context, in RollCoveredCallInput) error {
	if !ValidRollCoveredCall(in) {
		return e.reject(ledger.KindRollCoveredCall)
	}
	return e.mutateLot(ctx, in.LotNumber, ledger.KindRollCoveredCall, in, CanRollCall,
		func(prev []Lot, ack ledger.Ack) []Lot {
			return applyRollCoveredCall(prev, in, ack.EventIDs, e.ackDate(ack))
		})
}

// CloseShortPut buys back the short put of a cash-reserved lot.
func (e *Engine) CloseShortPut(ctx context.Context, in ClosePutInput) error {
	if !ValidClosePut(in) {
		return e.reject(ledger.KindCloseShortPut)
	}
	return e.mutateLot(ctx, in.LotNumber, ledger.KindCloseShortPut, in, CanClosePut,
		func(prev []Lot, ack ledger.Ack) []Lot {
			return applyClosePut(prev, in, ack.EventIDs)
		})
}

// CreateLotBuy creates a new lot from an outright share purchase.
func (e *Engine) CreateLotBuy(ctx context.Context, in CreateLotBuyInput) error {
	if !ValidCreateLotBuy(in) {
		return e.reject(ledger.KindCreateLotBuy)
	}
	return e.create(ctx, ledger.KindCreateLotBuy, in,
		func(prev []Lot, ack ledger.Ack) []Lot {
			return applyCreateLotBuy(prev, in, ack.EventIDs)
		})
}

// CreateLotShortPut creates a new lot by selling a cash-secured put,
// pending assignment.
func (e *Engine) CreateLotShortPut(ctx context.Context, in CreateLotShortPutInput) error {
	if !ValidCreateLotShortPut(in) {
		return e.reject(ledger.KindCreateLotShortPut)
	}
	return e.create(ctx, ledger.KindCreateLotShortPut, in,
		func(prev []Lot, ack ledger.Ack) []Lot {
			return applyCreateLotShortPut(prev, in, ack.EventIDs, e.ackDate(ack))
		})
}

// =============================================================================
// SUBMISSION PLUMBING
// =============================================================================

// mutateLot runs the common path for actions against an existing lot:
// guard check, per-lot lock, submit, optimistic apply, dialog dismissal.
// The lock is held through the apply so the update lands before the next
// action against the same lot can start.
func (e *Engine) mutateLot(ctx context.Context, lotNumber int, kind ledger.Kind, payload any,
	guard func(Lot) bool, mutate func(prev []Lot, ack ledger.Ack) []Lot) error {

	l, err := e.lot(lotNumber)
	if err != nil {
		return err
	}
	if !guard(l) {
		return fmt.Errorf("lot %d: %w", lotNumber, ErrActionUnavailable)
	}

	if err := e.lockLot(lotNumber); err != nil {
		metrics.ActionsTotal.WithLabelValues(string(kind), metrics.OutcomeRejected).Inc()
		return err
	}
	defer e.unlockLot(lotNumber)

	ack, err := e.submit(ctx, kind, payload)
	if err != nil {
		return err
	}

	e.apply(func(prev []Lot) []Lot { return mutate(prev, ack) })
	e.modal.closeAfterSubmit()
	return nil
}

// create runs the common path for lot-creating actions. There is no lot to
// lock: numbering is resolved inside the apply against the latest state.
func (e *Engine) create(ctx context.Context, kind ledger.Kind, payload any,
	mutate func(prev []Lot, ack ledger.Ack) []Lot) error {

	ack, err := e.submit(ctx, kind, payload)
	if err != nil {
		return err
	}

	e.apply(func(prev []Lot) []Lot { return mutate(prev, ack) })
	e.modal.closeAfterSubmit()
	return nil
}

// submit sends the action to the ledger adapter. On rejection the adapter's
// error is returned as-is and the dialog stays open.
func (e *Engine) submit(ctx context.Context, kind ledger.Kind, payload any) (ledger.Ack, error) {
	e.modal.beginSubmit()
	defer e.modal.endSubmit()

	start := time.Now()
	ack, err := e.adapter.Submit(ctx, kind, payload)
	metrics.SubmitLatency.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ActionsTotal.WithLabelValues(string(kind), metrics.OutcomeFailed).Inc()
		return ledger.Ack{}, err
	}
	metrics.ActionsTotal.WithLabelValues(string(kind), metrics.OutcomeOK).Inc()
	return ack, nil
}

func (e *Engine) reject(kind ledger.Kind) error {
	metrics.ActionsTotal.WithLabelValues(string(kind), metrics.OutcomeRejected).Inc()
	return ErrInvalidInput
}

func (e *Engine) lot(number int) (Lot, error) {
	for _, l := range e.view() {
		if l.Number == number {
			return l, nil
		}
	}
	return Lot{}, fmt.Errorf("lot %d: %w", number, ErrLotNotFound)
}

func (e *Engine) lockLot(number int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[number]; busy {
		return fmt.Errorf("lot %d: %w", number, ErrLotBusy)
	}
	e.inFlight[number] = struct{}{}
	return nil
}

func (e *Engine) unlockLot(number int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, number)
}

// ackDate prefers the ledger's submission date for event dating so replayed
// and optimistic state agree.
func (e *Engine) ackDate(ack ledger.Ack) Date {
	if ack.SubmittedAt.IsZero() {
		return e.Now()
	}
	return DateOf(ack.SubmittedAt)
}

// =============================================================================
// TRANSITIONS - Shared by optimistic apply and journal replay
// =============================================================================
// Each transition clones the collection, mutates the clone, and returns it.
// Prior events are never touched; an unknown lot number leaves the
// collection unchanged (the guard ran before submission).

func applySellCoveredCall(prev []Lot, in SellCoveredCallInput, ids []string, on Date) []Lot {
	next := cloneLots(prev)
	i := lotIndex(next, in.LotNumber)
	if i < 0 {
		return prev
	}
	l := &next[i]
	l.Coverage = &Coverage{Strike: in.Strike, Premium: in.LimitPremium, Status: CoverageOpen}
	l.Events = append(l.Events, LotEvent{
		ID:      eventID(ids, 0),
		Date:    on,
		Type:    EventSellCallOpen,
		Label:   fmt.Sprintf("Sell %s call exp %s", FormatUSD(in.Strike), in.Expiry),
		Strike:  dec(in.Strike),
		Premium: dec(in.LimitPremium),
		Qty:     1,
	})
	return next
}

func applyCloseCoveredCall(prev []Lot, in CloseCoveredCallInput, ids []string, on Date) []Lot {
	next := cloneLots(prev)
	i := lotIndex(next, in.LotNumber)
	if i < 0 {
		return prev
	}
	l := &next[i]
	if l.Coverage != nil {
		l.Coverage.Status = CoverageClosed
	}
	l.Events = append(l.Events, LotEvent{
		ID:      eventID(ids, 0),
		Date:    on,
		Type:    EventSellCallClose,
		Label:   "Buy to close call",
		Premium: dec(in.LimitDebit),
		Qty:     1,
		Notes:   in.Notes,
	})
	return next
}

func applyRollCoveredCall(prev []Lot, in RollCoveredCallInput, ids []string, on Date) []Lot {
	next := cloneLots(prev)
	i := lotIndex(next, in.LotNumber)
	if i < 0 {
		return prev
	}
	l := &next[i]
	l.Events = append(l.Events,
		LotEvent{
			ID:      eventID(ids, 0),
			Date:    on,
			Type:    EventSellCallClose,
			Label:   "Buy to close call (roll)",
			Premium: dec(in.Close.LimitDebit),
			Qty:     1,
		},
		LotEvent{
			ID:      eventID(ids, 1),
			Date:    on,
			Type:    EventSellCallOpen,
			Label:   fmt.Sprintf("Sell %s call exp %s (roll)", FormatUSD(in.Open.Strike), in.Open.Expiry),
			Strike:  dec(in.Open.Strike),
			Premium: dec(in.Open.LimitPremium),
			Qty:     1,
		},
	)
	l.Coverage = &Coverage{Strike: in.Open.Strike, Premium: in.Open.LimitPremium, Status: CoverageOpen}
	return next
}

func applyClosePut(prev []Lot, in ClosePutInput, ids []string) []Lot {
	next := cloneLots(prev)
	i := lotIndex(next, in.LotNumber)
	if i < 0 {
		return prev
	}
	l := &next[i]
	if l.Coverage != nil {
		l.Coverage.Status = CoverageClosed
	}
	l.Events = append(l.Events, LotEvent{
		ID:      eventID(ids, 0),
		Date:    in.TradeDate,
		Type:    EventSellPutClose,
		Label:   "Buy to close put",
		Premium: dec(in.LimitDebit),
		Qty:     in.Contracts,
		Notes:   in.Notes,
	})
	return next
}

func applyCreateLotBuy(prev []Lot, in CreateLotBuyInput, ids []string) []Lot {
	next := cloneLots(prev)
	lot := Lot{
		Number: NextLotNumber(next),
		Ticker: in.Ticker,
		Acquisition: Acquisition{
			Kind:  AcqOutrightPurchase,
			Price: in.Price,
			Date:  in.Date,
		},
		Events: []LotEvent{{
			ID:    eventID(ids, 0),
			Date:  in.Date,
			Type:  EventBuyShares,
			Label: fmt.Sprintf("Buy 100 %s @ %s", in.Ticker, FormatUSD(in.Price)),
			Price: dec(in.Price),
			Qty:   100,
		}},
	}
	return append(next, lot)
}

func applyCreateLotShortPut(prev []Lot, in CreateLotShortPutInput, ids []string, on Date) []Lot {
	next := cloneLots(prev)
	lot := Lot{
		Number: NextLotNumber(next),
		Ticker: in.Ticker,
		Acquisition: Acquisition{
			Kind:   AcqCashSecuredPut,
			Expiry: in.Expiry,
		},
		Coverage: &Coverage{Strike: in.Strike, Premium: in.Premium, Status: CoverageOpen},
		Events: []LotEvent{{
			ID:      eventID(ids, 0),
			Date:    on,
			Type:    EventSellPut,
			Label:   fmt.Sprintf("Sell %s %s put exp %s", in.Ticker, FormatUSD(in.Strike), in.Expiry),
			Strike:  dec(in.Strike),
			Premium: dec(in.Premium),
			Qty:     1,
		}},
	}
	return append(next, lot)
}

// =============================================================================
// TRANSITION HELPERS
// =============================================================================

func cloneLots(prev []Lot) []Lot {
	next := make([]Lot, len(prev))
	for i, l := range prev {
		next[i] = l.Clone()
	}
	return next
}

func lotIndex(lots []Lot, number int) int {
	for i := range lots {
		if lots[i].Number == number {
			return i
		}
	}
	return -1
}

// eventID uses the ledger-assigned identifier when present, falling back to
// a locally generated one.
func eventID(ids []string, i int) string {
	if i < len(ids) && ids[i] != "" {
		return ids[i]
	}
	return uuid.NewString()
}

func dec(d decimal.Decimal) *decimal.Decimal {
	return &d
}
