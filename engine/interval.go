/*
interval.go - Half-day intervals and the half-slot timeline

PURPOSE:
  One representation of half-day intervals shared by the duration calculator,
  the overlap detector, and the lifecycle "start in the past" check.

THE HALF-SLOT TIMELINE:
  Each calendar date contributes two slots, morning then afternoon:

    ... | d morning | d afternoon | d+1 morning | d+1 afternoon | ...

  An interval maps to an inclusive slot range:
    start (d, Morning|FullDay)  -> d's morning slot
    start (d, Afternoon)        -> d's afternoon slot
    end   (d, Afternoon|FullDay)-> d's afternoon slot
    end   (d, Morning)          -> d's morning slot

  This gives the required total order (morning < full-day midpoint <
  afternoon) and reduces overlap to integer interval intersection:
  s1 <= e2 AND s2 <= e1.
*/
package engine

import "fmt"

// Interval is a (date, half)..(date, half) span, inclusive at both ends.
type Interval struct {
	Start     Date
	StartHalf Half
	End       Date
	EndHalf   Half
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s(%s)..%s(%s)", iv.Start, iv.StartHalf, iv.End, iv.EndHalf)
}

// Validate rejects malformed intervals before any calculation runs.
// Single-day rules: the halves must be equal (morning-only, afternoon-only,
// or full day) or span morning..afternoon.
func (iv Interval) Validate() error {
	if iv.Start.IsZero() || iv.End.IsZero() {
		return &IntervalError{Interval: iv, Reason: "missing start or end date"}
	}
	if iv.End.Before(iv.Start) {
		return &IntervalError{Interval: iv, Reason: "end date before start date"}
	}
	if iv.Start.Equal(iv.End) {
		ok := iv.StartHalf == iv.EndHalf || (iv.StartHalf == Morning && iv.EndHalf == Afternoon)
		if !ok {
			return &IntervalError{Interval: iv, Reason: "incompatible half values on a single day"}
		}
	}
	return nil
}

// startSlot returns the first half-slot covered by the interval.
func (iv Interval) startSlot() int {
	slot := iv.Start.dayIndex() * 2
	if iv.StartHalf == Afternoon {
		slot++
	}
	return slot
}

// endSlot returns the last half-slot covered by the interval.
func (iv Interval) endSlot() int {
	slot := iv.End.dayIndex() * 2
	if iv.EndHalf != Morning {
		slot++
	}
	return slot
}

// Overlaps reports whether two validated intervals share at least one
// half-slot. Classic interval intersection, not equality.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.startSlot() <= other.endSlot() && other.startSlot() <= iv.endSlot()
}

// Intersects reports whether the interval touches the period at all.
func (iv Interval) Intersects(p Period) bool {
	return iv.Start.BeforeOrEqual(p.End) && p.Start.BeforeOrEqual(iv.End)
}

// Clip bounds the interval to a period at both ends. A clipped boundary
// always covers the whole boundary day (morning start, afternoon end).
// Returns false when the interval lies entirely outside the period.
func (iv Interval) Clip(p Period) (Interval, bool) {
	if !iv.Intersects(p) {
		return Interval{}, false
	}
	out := iv
	if out.Start.Before(p.Start) {
		out.Start = p.Start
		out.StartHalf = Morning
	}
	if out.End.After(p.End) {
		out.End = p.End
		out.EndHalf = Afternoon
	}
	return out, true
}

// StartsBefore reports whether the interval's first half-slot is strictly
// before the given date. Used by the lifecycle gate on cancelling past
// requests: a leave starting this morning is not "in the past" at noon.
func (iv Interval) StartsBefore(d Date) bool {
	return iv.Start.Before(d)
}
