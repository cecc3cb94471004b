/*
validate.go - Pure payload validators

PURPOSE:
  One boolean predicate per action payload, composed from four primitives:
  IsPositive, IsNonNegative, IsFutureOrToday, and presence checks on string
  and count fields.

CONTRACT:
  Validators are pure and total: same payload, same answer, never a panic.
  They return a single boolean and do not explain which field failed; the
  caller surfaces one generic message. Keeping them side-effect-free makes
  them reusable on both the optimistic path and any server-side mirror.

DEFINITIONS:
  positive        strictly greater than zero
  non-negative    greater than or equal to zero
  future-or-today calendar date >= today's calendar date, inclusive;
                  same-day expiry is legal
*/
package wheel

import "github.com/shopspring/decimal"

// =============================================================================
// PRIMITIVES
// =============================================================================

func IsPositive(d decimal.Decimal) bool { return d.IsPositive() }

func IsNonNegative(d decimal.Decimal) bool { return !d.IsNegative() }

// IsFutureOrToday compares calendar dates only; time-of-day never matters.
func IsFutureOrToday(d Date) bool {
	return !d.IsZero() && !d.Before(Today())
}

// =============================================================================
// PAYLOAD VALIDATORS
// =============================================================================

func ValidSellCoveredCall(in SellCoveredCallInput) bool {
	return IsPositive(in.Strike) &&
		IsNonNegative(in.LimitPremium) &&
		IsFutureOrToday(in.Expiry) &&
		in.TimeInForce != "" &&
		IsNonNegative(in.Fees)
}

func ValidCloseCoveredCall(in CloseCoveredCallInput) bool {
	return IsNonNegative(in.LimitDebit) && IsNonNegative(in.Fees)
}

func ValidRollCoveredCall(in RollCoveredCallInput) bool {
	return IsNonNegative(in.Close.LimitDebit) &&
		IsPositive(in.Open.Strike) &&
		IsNonNegative(in.Open.LimitPremium) &&
		IsFutureOrToday(in.Open.Expiry) &&
		in.Open.TimeInForce != ""
}

func ValidClosePut(in ClosePutInput) bool {
	return IsNonNegative(in.LimitDebit) &&
		!in.TradeDate.IsZero() &&
		in.Contracts > 0 &&
		IsNonNegative(in.Fees)
}

func ValidCreateLotBuy(in CreateLotBuyInput) bool {
	return in.Ticker != "" &&
		IsPositive(in.Price) &&
		!in.Date.IsZero() &&
		IsNonNegative(in.Fees)
}

func ValidCreateLotShortPut(in CreateLotShortPutInput) bool {
	return in.Ticker != "" &&
		IsPositive(in.Strike) &&
		IsNonNegative(in.Premium) &&
		IsFutureOrToday(in.Expiry) &&
		in.TimeInForce != "" &&
		IsNonNegative(in.Fees)
}
