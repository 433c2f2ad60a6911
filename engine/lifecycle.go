/*
lifecycle.go - Request lifecycle state machine

PURPOSE:
  The single place where status transitions are gated. Controllers resolve
  who the actor is relative to the request (owner, manager, delegate, HR)
  and this machine decides whether the transition is legal given the current
  status and the deployment's config flags.

STATES:
  Planned(1) -> Requested(2) -> {Accepted(3), Rejected(4)}
  Requested/Accepted -> Cancelled(5) under policy gates

TRANSITION TABLE:
  Planned -> Requested          owner
  Requested -> Accepted/Reject  manager, delegate, HR
  Requested -> Cancelled        owner/manager/delegate/HR, flag CancelLeaveRequest
  Accepted -> Cancelled         owner/manager/delegate/HR, flag CancelAcceptedLeave;
                                a past start date additionally restricts the
                                owner unless CancelPastRequests is set
  delete                        HR always; owner while Planned, or while
                                Rejected with DeleteRejectedRequests
  edit                          HR always; owner while Planned, or while
                                Rejected with EditRejectedRequests

  A transition from the wrong source status is ErrInvalidState; a transition
  the actor may not perform (or a flag forbids) is ErrForbidden. Neither
  mutates anything.

DELEGATION:
  "Delegate" means a user registered as delegate of the employee's direct
  manager. The check is deliberately non-transitive: a delegate of a
  delegate has no standing.
*/
package engine

// ConfigFlags are the deployment policy switches consulted by the machine.
// They mirror the installation options of the HR application this engine
// serves: each defaults to the restrictive setting.
type ConfigFlags struct {
	CancelLeaveRequest     bool // allow Requested -> Cancelled
	CancelAcceptedLeave    bool // allow Accepted -> Cancelled
	CancelPastRequests     bool // owner may cancel a leave that already started
	DeleteRejectedRequests bool // owner may hard-delete a Rejected request
	EditRejectedRequests   bool // owner may edit a Rejected request
}

// RoleSet is the actor's relationship to one specific request, resolved by
// the caller (see Engine.rolesFor). HR subsumes nothing here: each capability
// names the roles it accepts.
type RoleSet struct {
	Owner    bool // the requester
	Manager  bool // the employee's direct manager
	Delegate bool // registered delegate of that manager
	HR       bool
}

func (r RoleSet) managerial() bool { return r.Manager || r.Delegate || r.HR }

// Lifecycle evaluates transitions under one set of config flags.
type Lifecycle struct {
	Config ConfigFlags
}

// CanSubmit gates Planned -> Requested. Owner only.
func (l Lifecycle) CanSubmit(status Status, roles RoleSet) error {
	if status != StatusPlanned {
		return invalidState(status, StatusRequested, "only planned requests can be submitted")
	}
	if !roles.Owner {
		return forbidden(status, StatusRequested, "only the requester can submit")
	}
	return nil
}

// CanAccept gates Requested -> Accepted.
func (l Lifecycle) CanAccept(status Status, roles RoleSet) error {
	return l.decide(status, StatusAccepted, roles)
}

// CanReject gates Requested -> Rejected.
func (l Lifecycle) CanReject(status Status, roles RoleSet) error {
	return l.decide(status, StatusRejected, roles)
}

func (l Lifecycle) decide(status, next Status, roles RoleSet) error {
	if status != StatusRequested {
		return invalidState(status, next, "request is not awaiting approval")
	}
	if !roles.managerial() {
		return forbidden(status, next, "approval requires manager, delegate or HR")
	}
	return nil
}

// CanCancel gates Requested/Accepted -> Cancelled. startedInPast must be true
// when the request's first day is strictly before today.
func (l Lifecycle) CanCancel(status Status, roles RoleSet, startedInPast bool) error {
	switch status {
	case StatusRequested:
		if !l.Config.CancelLeaveRequest {
			return forbidden(status, StatusCancelled, "cancelling requested leaves is disabled")
		}
	case StatusAccepted:
		if !l.Config.CancelAcceptedLeave {
			return forbidden(status, StatusCancelled, "cancelling accepted leaves is disabled")
		}
	default:
		return invalidState(status, StatusCancelled, "only requested or accepted leaves can be cancelled")
	}
	if !roles.Owner && !roles.managerial() {
		return forbidden(status, StatusCancelled, "actor is not involved with this request")
	}
	// An already-started leave is out of the owner's hands unless the
	// deployment explicitly allows it.
	if startedInPast && !l.Config.CancelPastRequests && !roles.managerial() {
		return forbidden(status, StatusCancelled, "request already started; only manager, delegate or HR can cancel")
	}
	return nil
}

// CanDelete gates the hard removal of a request.
func (l Lifecycle) CanDelete(status Status, roles RoleSet) error {
	if roles.HR {
		return nil
	}
	if roles.Owner && status == StatusPlanned {
		return nil
	}
	if roles.Owner && status == StatusRejected && l.Config.DeleteRejectedRequests {
		return nil
	}
	if !roles.Owner {
		return forbidden(status, status, "only the requester or HR can delete")
	}
	return forbidden(status, status, "request is not in a deletable status")
}

// CanEdit gates modification of a request's content.
func (l Lifecycle) CanEdit(status Status, roles RoleSet) error {
	if roles.HR {
		return nil
	}
	if roles.Owner && status == StatusPlanned {
		return nil
	}
	if roles.Owner && status == StatusRejected && l.Config.EditRejectedRequests {
		return nil
	}
	if !roles.Owner {
		return forbidden(status, status, "only the requester or HR can edit")
	}
	return forbidden(status, status, "request is not editable in its current status")
}
