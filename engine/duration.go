/*
duration.go - Chargeable length of a half-day interval

PURPOSE:
  Computes how much of an interval is actually charged against an
  entitlement, at half-day resolution.

ALGORITHM:
  Enumerate each calendar date in [start, end] by proper date stepping
  (AddDate, so months of varying length and leap years are handled). For the
  first date count only halves from startHalf onward; for the last date only
  up to endHalf; interior dates contribute both halves. Each candidate half
  is then excluded if the calendar marks it non-working.

  start == end counts exactly the halves spanned by [startHalf, endHalf] on
  that single date, still subject to non-working exclusion.

  Total function: Length never fails on a validated interval. A nil calendar
  means every half is working (the no-contract raw length of the validate
  endpoint).
*/
package engine

import "github.com/shopspring/decimal"

// Duration is the result of measuring an interval.
type Duration struct {
	// Halves is the chargeable length in half-day units.
	Halves int

	// DaysOff is the summed length of non-working days encountered inside
	// the interval (reported separately by the balance aggregator and the
	// validate endpoint when a contract is present).
	DaysOff decimal.Decimal

	// OverlapsDayOff is true when at least one half of the interval was
	// excluded as non-working - the caller may warn that the request wastes
	// days on a holiday.
	OverlapsDayOff bool
}

// Days converts the half-unit count to a decimal day count.
func (d Duration) Days() decimal.Decimal {
	return decimal.NewFromInt(int64(d.Halves)).Div(decimal.NewFromInt(2))
}

// Length measures a validated interval against a resolved calendar.
// cal may be nil, in which case no half is excluded.
func Length(iv Interval, cal *DayOffCalendar) Duration {
	var out Duration
	first, last := iv.startSlot(), iv.endSlot()

	for d := iv.Start; d.BeforeOrEqual(iv.End); d = d.AddDays(1) {
		morningSlot := d.dayIndex() * 2
		halves := [2]Half{Morning, Afternoon}
		for offset, half := range halves {
			slot := morningSlot + offset
			if slot < first || slot > last {
				continue
			}
			if cal.IsNonWorking(d, half) {
				out.OverlapsDayOff = true
				continue
			}
			out.Halves++
		}
		out.DaysOff = out.DaysOff.Add(cal.DayOffLength(d))
	}
	return out
}
