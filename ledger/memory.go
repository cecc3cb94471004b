package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// MEMORY ADAPTER - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is an in-memory Adapter and Journal. It assigns uuid identifiers
// and keeps recorded actions in submission order.
type Memory struct {
	mu      sync.Mutex
	actions []Action
	err     error
}

func NewMemory() *Memory {
	return &Memory{}
}

// SetError makes every subsequent Submit fail with err until cleared with
// SetError(nil). Nothing is recorded for failed submissions.
func (m *Memory) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Submit records the action and returns uuid-assigned identifiers.
func (m *Memory) Submit(_ context.Context, kind Kind, payload any) (Ack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Ack{}, m.err
	}
	if !kind.Valid() {
		return Ack{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Ack{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}

	ids := make([]string, kind.EventCount())
	for i := range ids {
		ids[i] = uuid.NewString()
	}

	act := Action{
		ID:          uuid.NewString(),
		Kind:        kind,
		Payload:     raw,
		EventIDs:    ids,
		SubmittedAt: time.Now().UTC(),
	}
	m.actions = append(m.actions, act)

	return Ack{ActionID: act.ID, EventIDs: ids, SubmittedAt: act.SubmittedAt}, nil
}

// Actions returns a copy of the recorded actions in submission order.
func (m *Memory) Actions(_ context.Context) ([]Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Action, len(m.actions))
	copy(out, m.actions)
	return out, nil
}
