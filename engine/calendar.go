/*
calendar.go - Non-working day resolution

PURPOSE:
  Answers "is date D, half H, a non-working day for employee E?".

RESOLUTION ORDER (per date and half):
  1. employee-scoped entry covering (date, half) -> non-working
  2. global entry covering (date, half)          -> non-working
  3. otherwise                                    -> working

  A full-day entry covers both halves. Entries only ever mark halves as
  non-working; employee entries extend the global calendar, they cannot
  reopen a global holiday.

  Pure read; lookups are prefetched into a DayOffCalendar so the duration
  calculator never touches the store mid-enumeration.
*/
package engine

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// halfMask is a per-date bitmask of non-working halves.
type halfMask uint8

const (
	maskMorning   halfMask = 1 << 0
	maskAfternoon halfMask = 1 << 1
	maskFullDay            = maskMorning | maskAfternoon
)

func (h Half) mask() halfMask {
	switch h {
	case Morning:
		return maskMorning
	case Afternoon:
		return maskAfternoon
	default:
		return maskFullDay
	}
}

// DayOffCalendar is the resolved non-working calendar for one employee over
// a bounded date range. Build it with LoadCalendar, then query for free.
type DayOffCalendar struct {
	nonWorking map[int]halfMask // dayIndex -> non-working halves
	entries    []DayOffEntry
}

// LoadCalendar fetches and resolves day-off entries for [from, to].
func LoadCalendar(ctx context.Context, store CalendarStore, employeeID string, from, to Date) (*DayOffCalendar, error) {
	entries, err := store.DayOffEntries(ctx, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	cal := &DayOffCalendar{nonWorking: make(map[int]halfMask, len(entries))}
	for _, e := range entries {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		cal.nonWorking[e.Date.dayIndex()] |= e.Half.mask()
		cal.entries = append(cal.entries, e)
	}
	sort.Slice(cal.entries, func(i, j int) bool {
		return cal.entries[i].Date.Before(cal.entries[j].Date)
	})
	return cal, nil
}

// IsNonWorking reports whether the given half of a date is non-working.
// Querying FullDay asks whether the whole day is off.
func (c *DayOffCalendar) IsNonWorking(d Date, half Half) bool {
	if c == nil {
		return false
	}
	m := half.mask()
	return c.nonWorking[d.dayIndex()]&m == m
}

// DayOffLength returns how much of a date is non-working: 0, 0.5 or 1.
func (c *DayOffCalendar) DayOffLength(d Date) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	switch c.nonWorking[d.dayIndex()] {
	case maskFullDay:
		return decimal.NewFromInt(1)
	case maskMorning, maskAfternoon:
		return decimal.New(5, -1)
	default:
		return decimal.Zero
	}
}

// TotalDaysOff sums day-off lengths over a period.
func (c *DayOffCalendar) TotalDaysOff(p Period) decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for d := p.Start; d.BeforeOrEqual(p.End); d = d.AddDays(1) {
		total = total.Add(c.DayOffLength(d))
	}
	return total
}

// Entries returns the resolved entries, ordered by date. This is what the
// validate endpoint reports as listDaysOff.
func (c *DayOffCalendar) Entries() []DayOffEntry {
	if c == nil {
		return nil
	}
	return c.entries
}
