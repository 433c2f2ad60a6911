/*
balance.go - Running balance per leave type

PURPOSE:
  Combines the entitlement ledger with the sum of chargeable durations over
  consumed requests to produce balance = granted - consumed per type.

PERIOD RESOLUTION:
  With an active contract, the contract's entitlement period bounds both the
  grants and the consumption window; consumed intervals are clipped to the
  period at both ends. Without a contract, granted is unavailable and only
  the raw consumed day count from hire date to the reference date is
  meaningful.

ROUNDING:
  Balances are exact decimals inside the engine; granted - consumed ==
  balance holds before any rounding. Presentation rounds to three decimals
  with round-half-down: ties go toward negative infinity, not away from
  zero. That policy is deliberate and pay-relevant - keep it.
*/
package engine

import (
	"context"

	"github.com/shopspring/decimal"
)

// TypeBalance is the per-type line of a balance summary. Amounts are exact;
// rounding happens at presentation (see RoundHalfDown).
type TypeBalance struct {
	Type     LeaveType
	Granted  Credit
	Consumed decimal.Decimal
}

// Balance returns granted - consumed. Only meaningful when Granted.Known.
func (b TypeBalance) Balance() decimal.Decimal {
	return b.Granted.Amount.Sub(b.Consumed)
}

// BalanceSummary maps type name to its balance line, plus the period the
// summary was computed over.
type BalanceSummary struct {
	HasContract bool
	Period      Period
	Types       map[string]TypeBalance
}

// consumedInPeriod sums the chargeable duration of every Requested or
// Accepted leave of a type whose interval intersects the period, clipped to
// the period boundary at both ends.
func consumedInPeriod(ctx context.Context, requests RequestStore, cal *DayOffCalendar, employeeID, typeID string, period Period) (decimal.Decimal, error) {
	list, err := requests.ListLeaves(ctx, employeeID, LeaveFilter{
		TypeID:   typeID,
		Statuses: consumingStatuses,
		Range:    &period,
	})
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, req := range list {
		clipped, ok := req.Interval.Clip(period)
		if !ok {
			continue
		}
		total = total.Add(Length(clipped, cal).Days())
	}
	return total, nil
}

// RoundHalfDown rounds to the given number of decimal places with ties
// toward negative infinity: 0.0625 -> 0.062 at 3 places, -0.0625 -> -0.063.
func RoundHalfDown(d decimal.Decimal, places int32) decimal.Decimal {
	shift := decimal.New(1, places)
	scaled := d.Mul(shift)
	floor := scaled.Floor()
	if scaled.Sub(floor).GreaterThan(decimal.New(5, -1)) {
		floor = floor.Add(decimal.NewFromInt(1))
	}
	return floor.Div(shift)
}
