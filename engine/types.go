/*
Package engine implements the leave-entitlement and interval-reconciliation
engine: chargeable duration of half-day intervals, overlap detection against
existing requests, entitlement ledgers, running balances, and the request
lifecycle state machine.

PURPOSE:
  This package contains the pay-relevant arithmetic of a leave management
  system. Everything around it (routing, rendering, auth, notifications,
  persistence) is a collaborator reached through the interfaces in store.go.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date: A calendar date at day granularity (no clock, always UTC)
  - Half: The smallest chargeable granularity {Morning, Afternoon, FullDay}
  - Interval: A (date, half)..(date, half) span with a total order over
    endpoints, shared by the duration calculator and the overlap detector
  - Status: The request lifecycle domain, Planned(1)..Cancelled(5)
  - Credit: A remaining entitlement that may be unlimited or unavailable

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for day counts, never float64
  2. Totality: calculation functions never fail on validated intervals;
     malformed intervals are rejected at the boundary with ErrInvalidInterval
  3. Explicit absence: "no contract" and "unlimited entitlement" are modeled
     as distinguished values, never as zero or a magic sentinel number

SEE ALSO:
  - duration.go: Chargeable length in half-day units
  - overlap.go:  Interval intersection over the half-day timeline
  - lifecycle.go: Status transition rules and actor gating
*/
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE - Calendar date at day granularity
// =============================================================================

// Date is a calendar date with no time-of-day component. All arithmetic steps
// through the proper calendar (months of varying length, leap years), never
// through fixed hour offsets.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.t.Before(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{t: d.t.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{t: d.t.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// DaysUntil returns the number of calendar days from d to other
// (0 for the same day, negative if other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.t.Sub(d.t).Hours() / 24)
}

// dayIndex is a dense day number used to build the half-slot timeline.
func (d Date) dayIndex() int {
	return int(d.t.Unix() / 86400)
}

func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }

func EndOfMonth(year int, month time.Month) Date {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return Date{t: t}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// HALF - Half-day granularity
// =============================================================================

// Half identifies which part of a date an interval endpoint covers.
// The total order over (date, half) endpoints is:
//
//	(d, Morning) < (d, FullDay midpoint) < (d, Afternoon) < (d+1, Morning)
//
// FullDay is a dedicated value meaning the whole day; a full single-day
// request has no morning/afternoon split.
type Half int

const (
	FullDay Half = iota
	Morning
	Afternoon
)

func (h Half) String() string {
	switch h {
	case Morning:
		return "Morning"
	case Afternoon:
		return "Afternoon"
	default:
		return "All day"
	}
}

// ParseHalf parses the wire names used by the validate endpoint.
func ParseHalf(s string) (Half, error) {
	switch s {
	case "Morning", "morning":
		return Morning, nil
	case "Afternoon", "afternoon":
		return Afternoon, nil
	case "All day", "all day", "Full", "full", "":
		return FullDay, nil
	default:
		return FullDay, fmt.Errorf("invalid half-day value %q", s)
	}
}

// =============================================================================
// STATUS - Request lifecycle domain (shared by leave and overtime)
// =============================================================================

type Status int

const (
	StatusPlanned   Status = 1
	StatusRequested Status = 2
	StatusAccepted  Status = 3
	StatusRejected  Status = 4
	StatusCancelled Status = 5
)

func (s Status) String() string {
	switch s {
	case StatusPlanned:
		return "Planned"
	case StatusRequested:
		return "Requested"
	case StatusAccepted:
		return "Accepted"
	case StatusRejected:
		return "Rejected"
	case StatusCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Consuming reports whether a request in this status counts against balances
// and blocks overlapping submissions. Planned never blocks; neither do
// terminal Rejected/Cancelled.
func (s Status) Consuming() bool {
	return s == StatusRequested || s == StatusAccepted
}

// =============================================================================
// DOMAIN RECORDS
// =============================================================================

// Employee carries the attributes the engine needs; everything else about a
// person lives with the caller.
type Employee struct {
	ID        string
	ManagerID string // empty when the employee has no manager
	HireDate  Date
	Timezone  string
}

// Contract binds an employee to an entitlement period. An open-ended contract
// has a zero End date. At most one contract is active per reference date.
type Contract struct {
	ID         string
	EmployeeID string
	Start      Date
	End        Date // zero = open-ended
}

// Contains reports whether ref falls inside the contract's period.
func (c Contract) Contains(ref Date) bool {
	if ref.Before(c.Start) {
		return false
	}
	return c.End.IsZero() || ref.BeforeOrEqual(c.End)
}

// Period returns the entitlement period for a reference date. Open-ended
// contracts are bounded at the reference date.
func (c Contract) Period(ref Date) Period {
	end := c.End
	if end.IsZero() {
		end = ref
	}
	return Period{Start: c.Start, End: end}
}

// LeaveType describes a category of leave. Entitled types accrue from grants;
// non-entitled types (unpaid, exceptional) are unlimited and report no
// numeric credit.
type LeaveType struct {
	ID       string
	Name     string
	Entitled bool
	Order    int // display ordering
}

// EntitlementGrant is one immutable signed addition to an employee's entitled
// days for a type and period. Corrections are new grants, never edits.
type EntitlementGrant struct {
	ID         string
	EmployeeID string
	TypeID     string
	Period     Period
	Days       decimal.Decimal // signed; half-day steps
	Note       string
	CreatedAt  time.Time
}

// LeaveRequest is a half-day-granular leave interval with lifecycle status.
type LeaveRequest struct {
	ID         string
	EmployeeID string
	TypeID     string
	Interval   Interval
	Cause      string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OvertimeRequest is the overtime counterpart: one date, measured in minutes
// rather than half-days, with the same lifecycle.
type OvertimeRequest struct {
	ID         string
	EmployeeID string
	Date       Date
	StartTime  string // HH:MM
	EndTime    string // HH:MM
	Cause      string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Minutes returns the overtime duration. Malformed times report an error
// rather than a zero that could silently drop paid minutes.
func (o OvertimeRequest) Minutes() (int, error) {
	start, err := time.Parse("15:04", o.StartTime)
	if err != nil {
		return 0, fmt.Errorf("invalid start time %q: %w", o.StartTime, err)
	}
	end, err := time.Parse("15:04", o.EndTime)
	if err != nil {
		return 0, fmt.Errorf("invalid end time %q: %w", o.EndTime, err)
	}
	minutes := int(end.Sub(start).Minutes())
	if minutes <= 0 {
		return 0, fmt.Errorf("%w: overtime end %s not after start %s", ErrInvalidInterval, o.EndTime, o.StartTime)
	}
	return minutes, nil
}

// DayOffScope says who a non-working entry applies to.
type DayOffScope int

const (
	ScopeGlobal DayOffScope = iota
	ScopeEmployee
)

// DayOffEntry marks a date (or one half of it) as non-working. Global entries
// apply to everyone; employee-scoped entries extend them for one person.
type DayOffEntry struct {
	Scope      DayOffScope
	EmployeeID string // only for ScopeEmployee
	Date       Date
	Half       Half // FullDay = whole day off
	Title      string
}

// Length returns how much of a day the entry removes: 1 for a full day,
// 0.5 for a single half.
func (e DayOffEntry) Length() decimal.Decimal {
	if e.Half == FullDay {
		return decimal.NewFromInt(1)
	}
	return decimal.New(5, -1)
}

// =============================================================================
// CREDIT - Remaining entitlement with explicit absence
// =============================================================================

// Credit is the remaining entitlement for a leave type. Three shapes:
//
//	Known:              a numeric balance in days
//	Unlimited:          the type has no accrual policy; no bound applies
//	neither (zero val): unavailable, e.g. the employee has no contract
//
// Callers must branch on Unlimited/Known before treating Amount as a bound.
type Credit struct {
	Amount    decimal.Decimal
	Unlimited bool
	Known     bool
}

func CreditOf(amount decimal.Decimal) Credit { return Credit{Amount: amount, Known: true} }
func UnlimitedCredit() Credit                { return Credit{Unlimited: true} }
func UnavailableCredit() Credit              { return Credit{} }
