/*
store.go - Persistence interfaces consumed by the engine

PURPOSE:
  The engine does not implement storage. It consumes read/write operations
  against an employee/contract/calendar/request store supplied by the caller.
  Implementations: store/sqlite (production), engine/store (in-memory).

OPTIMISTIC STATUS CHECK:
  UpdateLeaveStatus/UpdateOvertimeStatus take the expected current status and
  must perform the compare inside the same write ("transition only if current
  status == expected"), returning ErrInvalidState on mismatch. This is what
  keeps two concurrent accept/reject calls from both succeeding; the engine
  itself holds no locks.

ADVISORY OVERLAP:
  Overlap detection reads possibly-concurrently-mutating data. It is a
  best-effort check at submission time, not a storage-level constraint; a
  race between two simultaneous submissions can still create overlapping
  accepted requests. Known limitation, by contract of spec'd behavior.
*/
package engine

import "context"

// EmployeeStore resolves employees and their contracts.
type EmployeeStore interface {
	// GetEmployee returns ErrNotFound when the employee does not exist.
	GetEmployee(ctx context.Context, id string) (*Employee, error)

	// ActiveContract returns the contract whose period contains ref, or
	// (nil, nil) when the employee has no contract covering that date.
	// Absence of a contract is a valid, non-error outcome.
	ActiveContract(ctx context.Context, employeeID string, ref Date) (*Contract, error)
}

// CalendarStore returns the non-working day records relevant to an employee:
// global entries plus the employee's own, for dates in [from, to].
type CalendarStore interface {
	DayOffEntries(ctx context.Context, employeeID string, from, to Date) ([]DayOffEntry, error)
}

// LeaveFilter narrows ListLeaves. Zero values mean "no filter".
type LeaveFilter struct {
	TypeID   string
	Statuses []Status
	Range    *Period // requests whose interval touches the range
}

// RequestStore persists leave and overtime requests.
type RequestStore interface {
	ListLeaves(ctx context.Context, employeeID string, filter LeaveFilter) ([]LeaveRequest, error)
	GetLeave(ctx context.Context, id string) (*LeaveRequest, error)
	CreateLeave(ctx context.Context, req *LeaveRequest) error
	UpdateLeave(ctx context.Context, req *LeaveRequest) error

	// UpdateLeaveStatus transitions id from expected to next, failing with
	// ErrInvalidState if the persisted status is no longer expected.
	UpdateLeaveStatus(ctx context.Context, id string, expected, next Status) error
	DeleteLeave(ctx context.Context, id string) error

	GetOvertime(ctx context.Context, id string) (*OvertimeRequest, error)
	ListOvertime(ctx context.Context, employeeID string, statuses []Status) ([]OvertimeRequest, error)
	CreateOvertime(ctx context.Context, req *OvertimeRequest) error
	UpdateOvertimeStatus(ctx context.Context, id string, expected, next Status) error
	DeleteOvertime(ctx context.Context, id string) error
}

// GrantStore persists entitlement grants. Grants are immutable; there is no
// update or delete, corrections are new grants.
type GrantStore interface {
	// ListGrants returns grants for employee+type whose period matches the
	// given period exactly. A zero period returns all grants for the pair.
	ListGrants(ctx context.Context, employeeID, typeID string, period Period) ([]EntitlementGrant, error)
	CreateGrant(ctx context.Context, grant *EntitlementGrant) error
}

// TypeStore lists the leave type catalogue.
type TypeStore interface {
	// GetType returns ErrNotFound for an unknown type.
	GetType(ctx context.Context, id string) (*LeaveType, error)
	ListTypes(ctx context.Context) ([]LeaveType, error)
}

// DelegationStore answers whether a user is a registered delegate of a
// manager. Direct lookup only; delegation does not chain.
type DelegationStore interface {
	IsDelegateOf(ctx context.Context, userID, managerID string) (bool, error)
}

// Store bundles every interface the engine consumes. Concrete stores
// implement all of them over one backend.
type Store interface {
	EmployeeStore
	CalendarStore
	RequestStore
	GrantStore
	TypeStore
	DelegationStore
}
