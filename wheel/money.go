package wheel

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - USD display helpers (decimal everywhere, never float64)
// =============================================================================

// CostBasisPending is displayed for lots that do not have a cost basis yet,
// i.e. a cash-secured put that has not been assigned.
const CostBasisPending = "—"

// FormatUSD renders a decimal as a dollar display string with two decimals.
func FormatUSD(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// MustParseDecimal parses s, panicking on malformed input. For fixtures
// and hard-coded values only; parse user input with decimal.NewFromString.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("invalid decimal %q: %v", s, err))
	}
	return d
}
