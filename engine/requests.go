/*
requests.go - Request mutations gated by the lifecycle machine

PURPOSE:
  Create/edit/accept/reject/cancel/delete for leave and overtime requests.
  Each mutation resolves the actor's roles once, asks the lifecycle machine,
  and then performs the write - status transitions go through the store's
  optimistic expected-status check so a concurrent accept and reject cannot
  both land.

  No operation partially applies: a Forbidden or InvalidState answer leaves
  the store untouched.
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// SubmitLeave validates and persists a new leave request. The request may be
// created as Planned (a draft) or directly as Requested; any other status is
// rejected. Only the owner or HR can create a request for an employee.
func (e *Engine) SubmitLeave(ctx context.Context, actor Actor, req *LeaveRequest) (*LeaveRequest, error) {
	if err := req.Interval.Validate(); err != nil {
		return nil, err
	}
	if req.Status != StatusPlanned && req.Status != StatusRequested {
		return nil, invalidState(req.Status, req.Status, "new requests start as Planned or Requested")
	}
	if actor.UserID != req.EmployeeID && !actor.HR {
		return nil, forbidden(req.Status, req.Status, "only the employee or HR can create a request")
	}
	if _, err := e.Store.GetType(ctx, req.TypeID); err != nil {
		return nil, err
	}
	if _, err := e.Store.GetEmployee(ctx, req.EmployeeID); err != nil {
		return nil, err
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	if err := e.Store.CreateLeave(ctx, req); err != nil {
		return nil, fmt.Errorf("create leave: %w", err)
	}
	return req, nil
}

// EditLeave replaces the interval, type and cause of an existing request.
// Permitted to HR always, to the owner while Planned, or while Rejected when
// the deployment allows editing rejected requests.
func (e *Engine) EditLeave(ctx context.Context, actor Actor, id string, iv Interval, typeID, cause string) (*LeaveRequest, error) {
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	req, err := e.Store.GetLeave(ctx, id)
	if err != nil {
		return nil, err
	}
	roles, err := e.rolesFor(ctx, actor, req.EmployeeID, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := e.Lifecycle.CanEdit(req.Status, roles); err != nil {
		return nil, err
	}
	if typeID != "" && typeID != req.TypeID {
		if _, err := e.Store.GetType(ctx, typeID); err != nil {
			return nil, err
		}
		req.TypeID = typeID
	}
	req.Interval = iv
	req.Cause = cause
	req.UpdatedAt = time.Now().UTC()
	if err := e.Store.UpdateLeave(ctx, req); err != nil {
		return nil, fmt.Errorf("update leave: %w", err)
	}
	return req, nil
}

// PromoteLeave turns a Planned draft into a Requested submission.
func (e *Engine) PromoteLeave(ctx context.Context, actor Actor, id string) error {
	return e.transitionLeave(ctx, actor, id, StatusRequested, func(status Status, roles RoleSet, _ bool) error {
		return e.Lifecycle.CanSubmit(status, roles)
	})
}

// AcceptLeave transitions a Requested leave to Accepted.
func (e *Engine) AcceptLeave(ctx context.Context, actor Actor, id string) error {
	return e.transitionLeave(ctx, actor, id, StatusAccepted, func(status Status, roles RoleSet, _ bool) error {
		return e.Lifecycle.CanAccept(status, roles)
	})
}

// RejectLeave transitions a Requested leave to Rejected.
func (e *Engine) RejectLeave(ctx context.Context, actor Actor, id string) error {
	return e.transitionLeave(ctx, actor, id, StatusRejected, func(status Status, roles RoleSet, _ bool) error {
		return e.Lifecycle.CanReject(status, roles)
	})
}

// CancelLeave transitions a Requested or Accepted leave to Cancelled.
func (e *Engine) CancelLeave(ctx context.Context, actor Actor, id string) error {
	return e.transitionLeave(ctx, actor, id, StatusCancelled, func(status Status, roles RoleSet, startedInPast bool) error {
		return e.Lifecycle.CanCancel(status, roles, startedInPast)
	})
}

type transitionGuard func(status Status, roles RoleSet, startedInPast bool) error

func (e *Engine) transitionLeave(ctx context.Context, actor Actor, id string, next Status, guard transitionGuard) error {
	req, err := e.Store.GetLeave(ctx, id)
	if err != nil {
		return err
	}
	roles, err := e.rolesFor(ctx, actor, req.EmployeeID, req.EmployeeID)
	if err != nil {
		return err
	}
	if err := guard(req.Status, roles, req.Interval.StartsBefore(e.today())); err != nil {
		return err
	}
	// Guard re-evaluated against the persisted status inside the write.
	return e.Store.UpdateLeaveStatus(ctx, id, req.Status, next)
}

// DeleteLeave hard-removes a request while in a deletable status.
func (e *Engine) DeleteLeave(ctx context.Context, actor Actor, id string) error {
	req, err := e.Store.GetLeave(ctx, id)
	if err != nil {
		return err
	}
	roles, err := e.rolesFor(ctx, actor, req.EmployeeID, req.EmployeeID)
	if err != nil {
		return err
	}
	if err := e.Lifecycle.CanDelete(req.Status, roles); err != nil {
		return err
	}
	return e.Store.DeleteLeave(ctx, id)
}

// =============================================================================
// OVERTIME REQUESTS
// =============================================================================

// SubmitOvertime validates and persists a new overtime request. A conflict
// with an existing Requested or Accepted entry on the same date is rejected
// outright; unlike leave overlap there is no pre-check endpoint to warn from.
func (e *Engine) SubmitOvertime(ctx context.Context, actor Actor, req *OvertimeRequest) (*OvertimeRequest, error) {
	if _, err := req.Minutes(); err != nil {
		return nil, err
	}
	if req.Status != StatusPlanned && req.Status != StatusRequested {
		return nil, invalidState(req.Status, req.Status, "new requests start as Planned or Requested")
	}
	if actor.UserID != req.EmployeeID && !actor.HR {
		return nil, forbidden(req.Status, req.Status, "only the employee or HR can create a request")
	}
	if _, err := e.Store.GetEmployee(ctx, req.EmployeeID); err != nil {
		return nil, err
	}
	conflict, err := DetectOvertimeConflict(ctx, e.Store, req)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, invalidState(req.Status, req.Status, "an overtime entry already covers this time range")
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	if err := e.Store.CreateOvertime(ctx, req); err != nil {
		return nil, fmt.Errorf("create overtime: %w", err)
	}
	return req, nil
}

// PromoteOvertime turns a Planned overtime draft into a submission.
func (e *Engine) PromoteOvertime(ctx context.Context, actor Actor, id string) error {
	return e.transitionOvertime(ctx, actor, id, StatusRequested, func(status Status, roles RoleSet, _ bool) error {
		return e.Lifecycle.CanSubmit(status, roles)
	})
}

// AcceptOvertime transitions a Requested overtime to Accepted.
func (e *Engine) AcceptOvertime(ctx context.Context, actor Actor, id string) error {
	return e.transitionOvertime(ctx, actor, id, StatusAccepted, func(status Status, roles RoleSet, _ bool) error {
		return e.Lifecycle.CanAccept(status, roles)
	})
}

// RejectOvertime transitions a Requested overtime to Rejected.
func (e *Engine) RejectOvertime(ctx context.Context, actor Actor, id string) error {
	return e.transitionOvertime(ctx, actor, id, StatusRejected, func(status Status, roles RoleSet, _ bool) error {
		return e.Lifecycle.CanReject(status, roles)
	})
}

// CancelOvertime transitions a Requested or Accepted overtime to Cancelled.
func (e *Engine) CancelOvertime(ctx context.Context, actor Actor, id string) error {
	return e.transitionOvertime(ctx, actor, id, StatusCancelled, func(status Status, roles RoleSet, startedInPast bool) error {
		return e.Lifecycle.CanCancel(status, roles, startedInPast)
	})
}

// DeleteOvertime hard-removes an overtime request.
func (e *Engine) DeleteOvertime(ctx context.Context, actor Actor, id string) error {
	req, err := e.Store.GetOvertime(ctx, id)
	if err != nil {
		return err
	}
	roles, err := e.rolesFor(ctx, actor, req.EmployeeID, req.EmployeeID)
	if err != nil {
		return err
	}
	if err := e.Lifecycle.CanDelete(req.Status, roles); err != nil {
		return err
	}
	return e.Store.DeleteOvertime(ctx, id)
}

func (e *Engine) transitionOvertime(ctx context.Context, actor Actor, id string, next Status, guard transitionGuard) error {
	req, err := e.Store.GetOvertime(ctx, id)
	if err != nil {
		return err
	}
	roles, err := e.rolesFor(ctx, actor, req.EmployeeID, req.EmployeeID)
	if err != nil {
		return err
	}
	if err := guard(req.Status, roles, req.Date.Before(e.today())); err != nil {
		return err
	}
	return e.Store.UpdateOvertimeStatus(ctx, id, req.Status, next)
}

// =============================================================================
// GRANTS
// =============================================================================

// CreateGrant records an immutable entitlement grant. HR only; corrections
// are additional grants with the opposite sign.
func (e *Engine) CreateGrant(ctx context.Context, actor Actor, grant *EntitlementGrant) (*EntitlementGrant, error) {
	if !actor.HR {
		return nil, fmt.Errorf("%w: only HR can record entitlement grants", ErrForbidden)
	}
	if grant.Period.End.Before(grant.Period.Start) {
		return nil, fmt.Errorf("%w: grant period %s", ErrInvalidInterval, grant.Period)
	}
	if _, err := e.Store.GetEmployee(ctx, grant.EmployeeID); err != nil {
		return nil, err
	}
	leaveType, err := e.Store.GetType(ctx, grant.TypeID)
	if err != nil {
		return nil, err
	}
	if !leaveType.Entitled {
		return nil, fmt.Errorf("%w: type %s has no accrual policy", ErrInvalidState, leaveType.Name)
	}

	if grant.ID == "" {
		grant.ID = uuid.NewString()
	}
	grant.CreatedAt = time.Now().UTC()
	if err := e.Store.CreateGrant(ctx, grant); err != nil {
		return nil, fmt.Errorf("create grant: %w", err)
	}
	return grant, nil
}
