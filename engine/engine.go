/*
engine.go - Engine facade: the operations controllers call

PURPOSE:
  Wires the leaf components (calendar, contract resolution, duration,
  overlap, entitlement, lifecycle) into the three computed views and the
  request mutations. Every collaborator arrives through the Store
  interfaces - no ambient globals, no framework-loaded models.

CONTROL FLOW (validation):
  contract resolver -> calendar provider -> duration calculator ->
  overlap detector -> entitlement ledger -> balance aggregator

CONCURRENCY:
  All operations are synchronous, stateless computations over store
  snapshots. Status transitions rely on the store's optimistic
  expected-status check; see store.go.
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Engine exposes the leave computations and lifecycle operations.
type Engine struct {
	Store     Store
	Lifecycle Lifecycle

	// Now supplies "today" for past-start checks; defaults to Today.
	// Tests pin it.
	Now func() Date
}

func New(store Store, config ConfigFlags) *Engine {
	return &Engine{
		Store:     store,
		Lifecycle: Lifecycle{Config: config},
		Now:       Today,
	}
}

func (e *Engine) today() Date {
	if e.Now != nil {
		return e.Now()
	}
	return Today()
}

// Actor identifies the user performing an operation. HR is resolved by the
// caller's auth layer; everything else is resolved here per request.
type Actor struct {
	UserID string
	HR     bool
}

// rolesFor resolves the actor's relationship to a request's employee.
func (e *Engine) rolesFor(ctx context.Context, actor Actor, employeeID, ownerID string) (RoleSet, error) {
	roles := RoleSet{Owner: actor.UserID == ownerID, HR: actor.HR}

	employee, err := e.Store.GetEmployee(ctx, employeeID)
	if err != nil {
		return RoleSet{}, err
	}
	if employee.ManagerID != "" {
		roles.Manager = actor.UserID == employee.ManagerID
		if !roles.Manager {
			isDelegate, err := e.Store.IsDelegateOf(ctx, actor.UserID, employee.ManagerID)
			if err != nil {
				return RoleSet{}, err
			}
			roles.Delegate = isDelegate
		}
	}
	return roles, nil
}

// =============================================================================
// COMPUTED VIEWS
// =============================================================================

// ValidationResult is the combined pre-submission check, mirroring the JSON
// shape of the validate endpoint.
type ValidationResult struct {
	Credit      Credit
	Overlap     bool
	HasContract bool
	PeriodStart *Date
	PeriodEnd   *Date

	// Length is the chargeable duration in days. With a contract it excludes
	// non-working halves; without one it is the raw calendar length.
	Length   decimal.Decimal
	Halves   int
	DaysOff  decimal.Decimal
	ListDays []DayOffEntry

	// OverlapsDayOff warns that part of the interval falls on non-working
	// halves.
	OverlapsDayOff bool

	Start     Date
	StartHalf Half
	End       Date
	EndHalf   Half
}

// ComputeValidation runs the single combined check used before accepting a
// submission: credit, overlap and chargeable length for a proposed interval.
// excludeRequestID is set when validating an edit in place.
func (e *Engine) ComputeValidation(ctx context.Context, employeeID, typeID string, iv Interval, excludeRequestID string) (*ValidationResult, error) {
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	if _, err := e.Store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}

	out := &ValidationResult{
		Start:     iv.Start,
		StartHalf: iv.StartHalf,
		End:       iv.End,
		EndHalf:   iv.EndHalf,
		Credit:    UnavailableCredit(),
	}

	contract, err := e.Store.ActiveContract(ctx, employeeID, iv.Start)
	if err != nil {
		return nil, err
	}

	if contract == nil {
		// Unbounded mode: raw calendar length, no credit, no day-off data.
		d := Length(iv, nil)
		out.Halves = d.Halves
		out.Length = d.Days()
	} else {
		period := contract.Period(iv.Start)
		out.HasContract = true
		out.PeriodStart = &period.Start
		out.PeriodEnd = &period.End

		cal, err := LoadCalendar(ctx, e.Store, employeeID, iv.Start, iv.End)
		if err != nil {
			return nil, err
		}
		d := Length(iv, cal)
		out.Halves = d.Halves
		out.Length = d.Days()
		out.DaysOff = d.DaysOff
		out.OverlapsDayOff = d.OverlapsDayOff
		out.ListDays = cal.Entries()

		// Consumption is measured over the whole entitlement period, so the
		// credit needs the period-wide calendar, not the interval-scoped one.
		periodCal, err := LoadCalendar(ctx, e.Store, employeeID, period.Start, period.End)
		if err != nil {
			return nil, err
		}
		credit, err := e.creditFor(ctx, employeeID, typeID, period, periodCal)
		if err != nil {
			return nil, err
		}
		out.Credit = credit
	}

	overlap, err := DetectOverlap(ctx, e.Store, employeeID, iv, excludeRequestID)
	if err != nil {
		return nil, err
	}
	out.Overlap = overlap
	return out, nil
}

// creditFor computes granted - consumed for one type over a period.
func (e *Engine) creditFor(ctx context.Context, employeeID, typeID string, period Period, cal *DayOffCalendar) (Credit, error) {
	granted, err := Granted(ctx, e.Store, e.Store, employeeID, typeID, period)
	if err != nil {
		return Credit{}, err
	}
	if !granted.Known {
		return granted, nil
	}
	consumed, err := consumedInPeriod(ctx, e.Store, cal, employeeID, typeID, period)
	if err != nil {
		return Credit{}, err
	}
	return CreditOf(granted.Amount.Sub(consumed)), nil
}

// ComputeBalanceSummary produces the per-type balance lines for an employee
// at a reference date: granted, consumed and their exact difference.
func (e *Engine) ComputeBalanceSummary(ctx context.Context, employeeID string, ref Date) (*BalanceSummary, error) {
	employee, err := e.Store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	contract, err := e.Store.ActiveContract(ctx, employeeID, ref)
	if err != nil {
		return nil, err
	}

	summary := &BalanceSummary{Types: make(map[string]TypeBalance)}
	var cal *DayOffCalendar
	if contract != nil {
		summary.HasContract = true
		summary.Period = contract.Period(ref)
	} else {
		// No contract: raw consumption from hire date, granted unavailable.
		summary.Period = Period{Start: employee.HireDate, End: ref}
	}
	if summary.Period.End.Before(summary.Period.Start) {
		return nil, fmt.Errorf("%w: reference date %s precedes period start %s",
			ErrInvalidInterval, ref, summary.Period.Start)
	}
	if contract != nil {
		cal, err = LoadCalendar(ctx, e.Store, employeeID, summary.Period.Start, summary.Period.End)
		if err != nil {
			return nil, err
		}
	}

	types, err := e.Store.ListTypes(ctx)
	if err != nil {
		return nil, err
	}
	for _, leaveType := range types {
		line := TypeBalance{Type: leaveType, Granted: UnavailableCredit()}
		if contract != nil {
			line.Granted, err = Granted(ctx, e.Store, e.Store, employeeID, leaveType.ID, summary.Period)
			if err != nil {
				return nil, err
			}
		} else if !leaveType.Entitled {
			line.Granted = UnlimitedCredit()
		}
		line.Consumed, err = consumedInPeriod(ctx, e.Store, cal, employeeID, leaveType.ID, summary.Period)
		if err != nil {
			return nil, err
		}
		summary.Types[leaveType.Name] = line
	}
	return summary, nil
}

// MonthlyPresence is the presence breakdown for one calendar month:
// openDays = totalDays - nonWorkingDays, workDays = openDays - leaveDays.
type MonthlyPresence struct {
	Period         Period
	TotalDays      int
	NonWorkingDays decimal.Decimal
	LeaveDays      decimal.Decimal
	OpenDays       decimal.Decimal
	WorkDays       decimal.Decimal
}

// ComputeMonthlyPresence computes presence stats for an employee and month.
// Requires an active contract; without one there is no working calendar to
// measure presence against.
func (e *Engine) ComputeMonthlyPresence(ctx context.Context, employeeID string, year int, month time.Month) (*MonthlyPresence, error) {
	if _, err := e.Store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	monthPeriod := MonthPeriod(year, month)
	contract, err := e.Store.ActiveContract(ctx, employeeID, monthPeriod.Start)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, fmt.Errorf("%w: employee %s has no active contract for %s", ErrNotFound, employeeID, monthPeriod.Start)
	}

	cal, err := LoadCalendar(ctx, e.Store, employeeID, monthPeriod.Start, monthPeriod.End)
	if err != nil {
		return nil, err
	}

	// Accepted leaves only: requested days are not yet absences.
	leaves, err := e.Store.ListLeaves(ctx, employeeID, LeaveFilter{
		Statuses: []Status{StatusAccepted},
		Range:    &monthPeriod,
	})
	if err != nil {
		return nil, err
	}
	leaveDays := decimal.Zero
	for _, req := range leaves {
		clipped, ok := req.Interval.Clip(monthPeriod)
		if !ok {
			continue
		}
		leaveDays = leaveDays.Add(Length(clipped, cal).Days())
	}

	out := &MonthlyPresence{
		Period:         monthPeriod,
		TotalDays:      monthPeriod.Days(),
		NonWorkingDays: cal.TotalDaysOff(monthPeriod),
		LeaveDays:      leaveDays,
	}
	out.OpenDays = decimal.NewFromInt(int64(out.TotalDays)).Sub(out.NonWorkingDays)
	out.WorkDays = out.OpenDays.Sub(out.LeaveDays)
	return out, nil
}
