/*
replay.go - Rebuild the lot collection from the action journal

PURPOSE:
  The journal is the durable source of truth; the in-memory collection is a
  derived cache. Replaying the recorded actions in submission order through
  the same transition functions the engine uses reproduces the collection
  exactly, so optimistic state and replayed state cannot drift.

VALIDATION:
  Replay does not re-run payload validators. Recorded actions were validated
  before submission; rejecting them retroactively would orphan history.
*/
package wheel

import (
	"encoding/json"
	"fmt"

	"github.com/allocraft/wheel-engine/ledger"
)

// Replay rebuilds a lot collection by applying recorded actions in order.
func Replay(actions []ledger.Action) ([]Lot, error) {
	var lots []Lot
	for _, act := range actions {
		next, err := replayOne(lots, act)
		if err != nil {
			return nil, fmt.Errorf("replay action %s: %w", act.ID, err)
		}
		lots = next
	}
	return lots, nil
}

func replayOne(lots []Lot, act ledger.Action) ([]Lot, error) {
	on := DateOf(act.SubmittedAt)

	switch act.Kind {
	case ledger.KindSellCoveredCall:
		var in SellCoveredCallInput
		if err := json.Unmarshal(act.Payload, &in); err != nil {
			return nil, err
		}
		return applySellCoveredCall(lots, in, act.EventIDs, on), nil

	case ledger.KindCloseCoveredCall:
		var in CloseCoveredCallInput
		if err := json.Unmarshal(act.Payload, &in); err != nil {
			return nil, err
		}
		return applyCloseCoveredCall(lots, in, act.EventIDs, on), nil

	case ledger.KindRollCoveredCall:
		var in RollCoveredCallInput
		if err := json.Unmarshal(act.Payload, &in); err != nil {
			return nil, err
		}
		return applyRollCoveredCall(lots, in, act.EventIDs, on), nil

	case ledger.KindCloseShortPut:
		var in ClosePutInput
		if err := json.Unmarshal(act.Payload, &in); err != nil {
			return nil, err
		}
		return applyClosePut(lots, in, act.EventIDs), nil

	case ledger.KindCreateLotBuy:
		var in CreateLotBuyInput
		if err := json.Unmarshal(act.Payload, &in); err != nil {
			return nil, err
		}
		return applyCreateLotBuy(lots, in, act.EventIDs), nil

	case ledger.KindCreateLotShortPut:
		var in CreateLotShortPutInput
		if err := json.Unmarshal(act.Payload, &in); err != nil {
			return nil, err
		}
		return applyCreateLotShortPut(lots, in, act.EventIDs, on), nil

	default:
		return nil, fmt.Errorf("%w: %q", ledger.ErrUnknownKind, act.Kind)
	}
}
