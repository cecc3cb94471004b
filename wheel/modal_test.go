package wheel_test

import (
	"testing"

	"github.com/allocraft/wheel-engine/wheel"
)

func TestModal_OpenOverwritesCurrentDialog(t *testing.T) {
	// GIVEN: A cover dialog is open for lot 1
	// WHEN: A roll dialog opens for lot 2
	// THEN: The roll dialog silently replaces the cover dialog; no queue

	c := wheel.NewModalController()
	c.Open(wheel.Modal{Kind: wheel.ModalCover, LotNumber: 1, Ticker: "AAPL"})
	c.Open(wheel.Modal{Kind: wheel.ModalRoll, LotNumber: 2, Ticker: "MSFT"})

	m := c.Active()
	if m == nil {
		t.Fatal("expected an active dialog")
	}
	if m.Kind != wheel.ModalRoll || m.LotNumber != 2 {
		t.Errorf("expected roll dialog for lot 2, got %+v", m)
	}
}

func TestModal_CloseResetsToEmpty(t *testing.T) {
	c := wheel.NewModalController()
	c.Open(wheel.Modal{Kind: wheel.ModalNewLot, Ticker: "AAPL"})

	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Active() != nil {
		t.Error("expected no active dialog after close")
	}
}

func TestModal_ActiveReturnsCopy(t *testing.T) {
	// Mutating the returned dialog must not affect the controller's slot.
	c := wheel.NewModalController()
	c.Open(wheel.Modal{Kind: wheel.ModalCover, LotNumber: 1})

	m := c.Active()
	m.LotNumber = 99

	if got := c.Active().LotNumber; got != 1 {
		t.Errorf("controller state leaked: lot number became %d", got)
	}
}

func TestModal_NilWhenNothingOpen(t *testing.T) {
	c := wheel.NewModalController()
	if c.Active() != nil {
		t.Error("expected nil active dialog")
	}
	if err := c.Close(); err != nil {
		t.Errorf("closing an empty slot should be a no-op, got %v", err)
	}
}
