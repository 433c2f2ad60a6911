package engine

import "time"

// =============================================================================
// PERIOD - Entitlement period boundaries
// =============================================================================

// Period is an inclusive date range, usually one contract year. Balances are
// always computed for a period, never at a bare point in time.
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Matches reports whether another period is the same range. Grants attach to
// a period by exact boundary match.
func (p Period) Matches(other Period) bool {
	return p.Start.Equal(other.Start) && p.End.Equal(other.End)
}

// Days returns the inclusive calendar day count.
func (p Period) Days() int {
	return p.Start.DaysUntil(p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// MonthPeriod returns the period covering one calendar month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}
