package sqlite_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allocraft/wheel-engine/ledger"
	"github.com/allocraft/wheel-engine/store/sqlite"
)

func newTestLedger(t *testing.T) *sqlite.Ledger {
	t.Helper()
	led, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { led.Close() })
	return led
}

func TestSubmit_RecordsAction(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	payload := map[string]any{"ticker": "AAPL", "price": "150"}
	ack, err := led.Submit(ctx, ledger.KindCreateLotBuy, payload)
	require.NoError(t, err)
	assert.NotEmpty(t, ack.ActionID)
	require.Len(t, ack.EventIDs, 1)

	acts, err := led.Actions(ctx)
	require.NoError(t, err)
	require.Len(t, acts, 1)

	act := acts[0]
	assert.Equal(t, ack.ActionID, act.ID)
	assert.Equal(t, ledger.KindCreateLotBuy, act.Kind)
	assert.Equal(t, ack.EventIDs, act.EventIDs)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(act.Payload, &decoded))
	assert.Equal(t, "AAPL", decoded["ticker"])
}

func TestSubmit_RollRecordsTwoEventIDs(t *testing.T) {
	led := newTestLedger(t)

	ack, err := led.Submit(context.Background(), ledger.KindRollCoveredCall, map[string]any{})
	require.NoError(t, err)
	assert.Len(t, ack.EventIDs, 2)
}

func TestSubmit_UnknownKindRejected(t *testing.T) {
	led := newTestLedger(t)

	_, err := led.Submit(context.Background(), ledger.Kind("split_lot"), map[string]any{})
	assert.ErrorIs(t, err, ledger.ErrUnknownKind)

	acts, _ := led.Actions(context.Background())
	assert.Empty(t, acts, "rejected submissions must not be recorded")
}

func TestActions_PreserveSubmissionOrder(t *testing.T) {
	// Replay depends on journal order matching submission order.
	led := newTestLedger(t)
	ctx := context.Background()

	kinds := []ledger.Kind{
		ledger.KindCreateLotShortPut,
		ledger.KindCloseShortPut,
		ledger.KindCreateLotBuy,
		ledger.KindSellCoveredCall,
	}
	for _, k := range kinds {
		_, err := led.Submit(ctx, k, map[string]any{})
		require.NoError(t, err)
	}

	acts, err := led.Actions(ctx)
	require.NoError(t, err)
	require.Len(t, acts, len(kinds))
	for i, k := range kinds {
		assert.Equal(t, k, acts[i].Kind)
	}
	for i := 1; i < len(acts); i++ {
		assert.False(t, acts[i].SubmittedAt.Before(acts[i-1].SubmittedAt))
	}
}
