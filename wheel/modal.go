/*
modal.go - Single-slot dialog controller

PURPOSE:
  Tracks the one action dialog that may be open at a time. Opening a new
  dialog silently replaces the current one; there is no queue and no stack.
  Only one financial action should be visible at a time so the user cannot
  issue conflicting instructions against the same lot concurrently.

OWNERSHIP:
  The controller is an injectable object, passed to the engine by reference.
  It holds dialog state only, never lot data.

DISMISSAL WHILE PENDING:
  Close refuses while a submission is in flight. A submission cannot be
  aborted once started, and dismissing its dialog would let the optimistic
  update land with no surface to report to.
*/
package wheel

import "sync"

// =============================================================================
// MODAL KINDS
// =============================================================================

type ModalKind string

const (
	ModalCover     ModalKind = "cover"
	ModalCloseCall ModalKind = "closeCall"
	ModalClosePut  ModalKind = "closePut"
	ModalRoll      ModalKind = "roll"
	ModalNewLot    ModalKind = "new"
)

// Modal is the active dialog. LotNumber is zero for new-lot dialogs;
// Ticker may pre-fill the new-lot form.
type Modal struct {
	Kind      ModalKind `json:"kind"`
	LotNumber int       `json:"lot_number,omitempty"`
	Ticker    string    `json:"ticker,omitempty"`
}

// =============================================================================
// CONTROLLER
// =============================================================================

// ModalController holds at most one active dialog.
type ModalController struct {
	mu     sync.Mutex
	active *Modal
	// pending counts submissions in flight. A counter, not a flag: actions
	// against different lots may overlap, and the first to complete must not
	// unblock dismissal while another is still pending.
	pending int
}

func NewModalController() *ModalController {
	return &ModalController{}
}

// Open replaces any active dialog unconditionally.
func (c *ModalController) Open(m Modal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = &m
}

// Close dismisses the active dialog. It fails with ErrSubmissionPending
// while a submission is in flight.
func (c *ModalController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending > 0 {
		return ErrSubmissionPending
	}
	c.active = nil
	return nil
}

// Active returns a copy of the current dialog, or nil when none is open.
func (c *ModalController) Active() *Modal {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	m := *c.active
	return &m
}

// beginSubmit marks a submission in flight; Close refuses until every
// in-flight submission has ended.
func (c *ModalController) beginSubmit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending++
}

func (c *ModalController) endSubmit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--
}

// closeAfterSubmit dismisses the dialog once its submission has been
// applied. The pending count is untouched: other lots may still have
// submissions in flight.
func (c *ModalController) closeAfterSubmit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = nil
}
