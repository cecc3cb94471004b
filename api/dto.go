/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupled from the domain model.
  Display formatting (dollar strings, date strings) lives here so the
  domain keeps exact decimals and calendar dates.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  DTOs are pure data carriers. Shape validation (date parsing) happens in
  handlers; business validation is the engine's job.
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/allocraft/wheel-engine/wheel"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// LotDTO represents a lot in API responses.
type LotDTO struct {
	Number      int            `json:"number"`
	Ticker      string         `json:"ticker"`
	Acquisition AcquisitionDTO `json:"acquisition"`
	CostBasis   string         `json:"cost_basis"`
	Status      string         `json:"status"`
	Coverage    *CoverageDTO   `json:"coverage,omitempty"`
	Events      []EventDTO     `json:"events"`
}

type AcquisitionDTO struct {
	Kind   string `json:"kind"`
	Price  string `json:"price,omitempty"`
	Date   string `json:"date,omitempty"`
	Expiry string `json:"expiry,omitempty"`
}

// CoverageDTO carries display strings: "$160.00", "$2.50".
type CoverageDTO struct {
	Strike  string `json:"strike"`
	Premium string `json:"premium"`
	Status  string `json:"status"`
}

type EventDTO struct {
	ID      string  `json:"id"`
	Date    string  `json:"date"`
	Type    string  `json:"type"`
	Label   string  `json:"label"`
	Strike  *string `json:"strike,omitempty"`
	Premium *string `json:"premium,omitempty"`
	Price   *string `json:"price,omitempty"`
	Qty     int     `json:"qty"`
	Notes   string  `json:"notes,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

type SellCoveredCallRequest struct {
	Strike       decimal.Decimal `json:"strike"`
	Expiry       string          `json:"expiry"`
	LimitPremium decimal.Decimal `json:"limit_premium"`
	TimeInForce  string          `json:"time_in_force"`
	Fees         decimal.Decimal `json:"fees"`
}

type CloseCoveredCallRequest struct {
	LimitDebit decimal.Decimal `json:"limit_debit"`
	Fees       decimal.Decimal `json:"fees"`
	Notes      string          `json:"notes"`
}

type RollCoveredCallRequest struct {
	Close struct {
		LimitDebit decimal.Decimal `json:"limit_debit"`
	} `json:"close"`
	Open struct {
		Strike       decimal.Decimal `json:"strike"`
		Expiry       string          `json:"expiry"`
		LimitPremium decimal.Decimal `json:"limit_premium"`
		TimeInForce  string          `json:"time_in_force"`
	} `json:"open"`
}

type ClosePutRequest struct {
	TradeDate  string          `json:"trade_date"`
	LimitDebit decimal.Decimal `json:"limit_debit"`
	Contracts  int             `json:"contracts"`
	Fees       decimal.Decimal `json:"fees"`
	Notes      string          `json:"notes"`
}

type CreateLotBuyRequest struct {
	Ticker string          `json:"ticker"`
	Price  decimal.Decimal `json:"price"`
	Date   string          `json:"date"`
	Fees   decimal.Decimal `json:"fees"`
}

type CreateLotShortPutRequest struct {
	Ticker      string          `json:"ticker"`
	Strike      decimal.Decimal `json:"strike"`
	Expiry      string          `json:"expiry"`
	Premium     decimal.Decimal `json:"premium"`
	TimeInForce string          `json:"time_in_force"`
	Fees        decimal.Decimal `json:"fees"`
}

// OpenModalRequest opens an action dialog.
type OpenModalRequest struct {
	Kind      string `json:"kind"`
	LotNumber int    `json:"lot_number,omitempty"`
	Ticker    string `json:"ticker,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toLotDTO(l wheel.Lot) LotDTO {
	dto := LotDTO{
		Number:    l.Number,
		Ticker:    l.Ticker,
		CostBasis: l.CostBasis(),
		Status:    string(l.Status()),
		Events:    make([]EventDTO, len(l.Events)),
		Acquisition: AcquisitionDTO{
			Kind:   string(l.Acquisition.Kind),
			Date:   l.Acquisition.Date.String(),
			Expiry: l.Acquisition.Expiry.String(),
		},
	}
	if !l.Acquisition.Price.IsZero() {
		dto.Acquisition.Price = wheel.FormatUSD(l.Acquisition.Price)
	}
	if l.Coverage != nil {
		dto.Coverage = &CoverageDTO{
			Strike:  wheel.FormatUSD(l.Coverage.Strike),
			Premium: wheel.FormatUSD(l.Coverage.Premium),
			Status:  string(l.Coverage.Status),
		}
	}
	for i, ev := range l.Events {
		dto.Events[i] = toEventDTO(ev)
	}
	return dto
}

func toEventDTO(ev wheel.LotEvent) EventDTO {
	dto := EventDTO{
		ID:    ev.ID,
		Date:  ev.Date.String(),
		Type:  string(ev.Type),
		Label: ev.Label,
		Qty:   ev.Qty,
		Notes: ev.Notes,
	}
	if ev.Strike != nil {
		s := wheel.FormatUSD(*ev.Strike)
		dto.Strike = &s
	}
	if ev.Premium != nil {
		s := wheel.FormatUSD(*ev.Premium)
		dto.Premium = &s
	}
	if ev.Price != nil {
		s := wheel.FormatUSD(*ev.Price)
		dto.Price = &s
	}
	return dto
}
