/*
Package sqlite provides the SQLite-backed action ledger.

PURPOSE:
  Durable implementation of the ledger Adapter and Journal interfaces. The
  actions table is the backend event ledger: one row per submitted action,
  append-only, replayed at startup to rebuild the lot collection.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the actions table
  - No DELETE statements on the actions table
  - seq (rowid) preserves submission order for replay

WAL MODE:
  Opened with WAL for better concurrency: readers don't block, single
  writer, better crash recovery.

USAGE:
  led, err := sqlite.New("./data/wheel.db")
  if err != nil {
      log.Fatal(err)
  }
  defer led.Close()

  acts, _ := led.Actions(ctx)
  lots, _ := wheel.Replay(acts)

SEE ALSO:
  - ledger/ledger.go: interface definitions
  - ledger/memory.go: in-memory twin for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/allocraft/wheel-engine/ledger"
)

// Ledger implements ledger.Adapter and ledger.Journal over SQLite.
type Ledger struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) migrate() error {
	schema := `
	-- Actions (append-only event ledger)
	CREATE TABLE IF NOT EXISTS actions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT UNIQUE NOT NULL,
		kind TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		event_ids_json TEXT NOT NULL,
		submitted_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_actions_kind ON actions(kind);
	CREATE INDEX IF NOT EXISTS idx_actions_submitted_at ON actions(submitted_at);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Submit records one action and returns the assigned identifiers.
func (l *Ledger) Submit(ctx context.Context, kind ledger.Kind, payload any) (ledger.Ack, error) {
	if !kind.Valid() {
		return ledger.Ack{}, fmt.Errorf("%w: %q", ledger.ErrUnknownKind, kind)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return ledger.Ack{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}

	ids := make([]string, kind.EventCount())
	for i := range ids {
		ids[i] = uuid.NewString()
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return ledger.Ack{}, err
	}

	actionID := uuid.NewString()
	submittedAt := time.Now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO actions (id, kind, payload_json, event_ids_json, submitted_at)
		VALUES (?, ?, ?, ?, ?)`,
		actionID, string(kind), string(raw), string(idsJSON), submittedAt.Format(time.RFC3339Nano))
	if err != nil {
		return ledger.Ack{}, fmt.Errorf("record action: %w", err)
	}

	return ledger.Ack{ActionID: actionID, EventIDs: ids, SubmittedAt: submittedAt}, nil
}

// Actions returns all recorded actions in submission order.
func (l *Ledger) Actions(ctx context.Context) ([]ledger.Action, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, kind, payload_json, event_ids_json, submitted_at
		FROM actions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load actions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Action
	for rows.Next() {
		var (
			act         ledger.Action
			kind        string
			payload     string
			idsJSON     string
			submittedAt string
		)
		if err := rows.Scan(&act.ID, &kind, &payload, &idsJSON, &submittedAt); err != nil {
			return nil, err
		}
		act.Kind = ledger.Kind(kind)
		act.Payload = json.RawMessage(payload)
		if err := json.Unmarshal([]byte(idsJSON), &act.EventIDs); err != nil {
			return nil, fmt.Errorf("decode event ids for action %s: %w", act.ID, err)
		}
		at, err := time.Parse(time.RFC3339Nano, submittedAt)
		if err != nil {
			return nil, fmt.Errorf("decode timestamp for action %s: %w", act.ID, err)
		}
		act.SubmittedAt = at
		out = append(out, act)
	}
	return out, rows.Err()
}
