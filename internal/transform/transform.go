// Package transform holds the pure bidirectional mapping between
// ledger transactions (signed milliunits) and split expenses (decimal
// cost strings with per-party repayments). Nothing here touches the
// network or storage.
package transform

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/iho/splitsync/internal/domain"
)

var milli = decimal.NewFromInt(1000)

// CostFromMilliunits renders a signed milliunit amount as the absolute
// decimal cost string the split side expects. The flow's sign is
// implied by direction, not encoded in the output.
func CostFromMilliunits(amount int64) string {
	return decimal.NewFromInt(amount).Abs().Div(milli).StringFixed(2)
}

// MilliunitsFromCost parses a decimal cost string into milliunits,
// rounding symmetrically so CostFromMilliunits round-trips.
func MilliunitsFromCost(cost string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(cost))
	if err != nil {
		return 0, fmt.Errorf("parse cost %q: %w", cost, err)
	}

	return d.Mul(milli).Round(0).IntPart(), nil
}

// Repayment is one per-party share of a split expense.
type Repayment struct {
	FromUserID string
	ToUserID   string
	Amount     string
}

// RepaymentAmount resolves the signed milliunit amount of an expense
// for the syncing user: money owed to the user is an inflow, money the
// user owes is an outflow. An expense with no repayment touching the
// user (e.g. zero-cost) yields 0.
func RepaymentAmount(repayments []Repayment, userID string) (int64, error) {
	for _, r := range repayments {
		switch userID {
		case r.ToUserID:
			return MilliunitsFromCost(r.Amount)
		case r.FromUserID:
			amount, err := MilliunitsFromCost(r.Amount)
			if err != nil {
				return 0, err
			}
			return -amount, nil
		}
	}

	return 0, nil
}

// Reserved ledger description prefixes. The Ledger API rejects these as
// payee names, so items carrying them always route through the custom
// payee regardless of the configured mode.
var reservedPrefixes = []string{
	"Transfer :",
	"Starting Balance",
	"Manual Balance Adjustment",
	"Reconciliation Balance Adjustment",
}

// HasReservedPrefix reports whether a description starts with a
// source-side reserved prefix.
func HasReservedPrefix(description string) bool {
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(description, p) {
			return true
		}
	}
	return false
}

// PayeeMemo derives the ledger payee and memo fields from a source
// description and optional secondary notes, honoring the configured
// payee mode.
func PayeeMemo(mode domain.PayeeMode, customName, description, notes string) (payee, memo string) {
	custom := mode == domain.PayeeModeCustom || HasReservedPrefix(description)

	if !custom {
		return strings.TrimSpace(StripPictographs(description)), notes
	}

	payee = customName
	memo = description
	if notes != "" {
		memo = notes + " | " + description
	}

	return payee, memo
}

// Pictographic blocks the Ledger API cannot accept in payee names.
var pictographs = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200D, Hi: 0x200D, Stride: 1}, // zero-width joiner
		{Lo: 0x2600, Hi: 0x27BF, Stride: 1}, // symbols and dingbats
		{Lo: 0xFE0F, Hi: 0xFE0F, Stride: 1}, // variation selector-16
	},
	R32: []unicode.Range32{
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1}, // misc symbols and pictographs
		{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1}, // emoticons
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1}, // transport and map
		{Lo: 0x1F900, Hi: 0x1F9FF, Stride: 1}, // supplemental symbols
		{Lo: 0x1FA70, Hi: 0x1FAFF, Stride: 1}, // symbols extended-A
	},
}

// StripPictographs removes pictographic runes from a string.
func StripPictographs(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(pictographs, r) {
			return -1
		}
		return r
	}, s)
}
