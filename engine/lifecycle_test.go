package engine_test

import (
	"errors"
	"testing"

	"github.com/absentia/leave-engine/engine"
)

var (
	asOwner    = engine.RoleSet{Owner: true}
	asManager  = engine.RoleSet{Manager: true}
	asDelegate = engine.RoleSet{Delegate: true}
	asHR       = engine.RoleSet{HR: true}
	asStranger = engine.RoleSet{}
)

func wantForbidden(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, engine.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func wantInvalidState(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, engine.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestCanSubmit(t *testing.T) {
	var l engine.Lifecycle

	if err := l.CanSubmit(engine.StatusPlanned, asOwner); err != nil {
		t.Errorf("owner submitting a planned request: %v", err)
	}
	wantForbidden(t, l.CanSubmit(engine.StatusPlanned, asManager))
	wantForbidden(t, l.CanSubmit(engine.StatusPlanned, asHR))

	for _, status := range []engine.Status{
		engine.StatusRequested, engine.StatusAccepted,
		engine.StatusRejected, engine.StatusCancelled,
	} {
		wantInvalidState(t, l.CanSubmit(status, asOwner))
	}
}

// =============================================================================
// ACCEPT / REJECT
// =============================================================================

func TestCanAcceptReject_Roles(t *testing.T) {
	var l engine.Lifecycle

	for _, roles := range []engine.RoleSet{asManager, asDelegate, asHR} {
		if err := l.CanAccept(engine.StatusRequested, roles); err != nil {
			t.Errorf("accept as %+v: %v", roles, err)
		}
		if err := l.CanReject(engine.StatusRequested, roles); err != nil {
			t.Errorf("reject as %+v: %v", roles, err)
		}
	}
	wantForbidden(t, l.CanAccept(engine.StatusRequested, asOwner))
	wantForbidden(t, l.CanReject(engine.StatusRequested, asOwner))
	wantForbidden(t, l.CanAccept(engine.StatusRequested, asStranger))
}

func TestCanAcceptReject_WrongSourceStatus(t *testing.T) {
	var l engine.Lifecycle
	for _, status := range []engine.Status{
		engine.StatusPlanned, engine.StatusAccepted,
		engine.StatusRejected, engine.StatusCancelled,
	} {
		wantInvalidState(t, l.CanAccept(status, asManager))
		wantInvalidState(t, l.CanReject(status, asManager))
	}
}

func TestCanAcceptReject_WrongStatusBeatsWrongRole(t *testing.T) {
	// An owner poking an already-accepted request gets the status error, not
	// the role error. Status is checked first.
	var l engine.Lifecycle
	wantInvalidState(t, l.CanAccept(engine.StatusAccepted, asOwner))
}

// =============================================================================
// CANCEL
// =============================================================================

func TestCanCancel_FlagsGateEachSourceStatus(t *testing.T) {
	allOff := engine.Lifecycle{}
	wantForbidden(t, allOff.CanCancel(engine.StatusRequested, asOwner, false))
	wantForbidden(t, allOff.CanCancel(engine.StatusAccepted, asHR, false))

	requestedOnly := engine.Lifecycle{Config: engine.ConfigFlags{CancelLeaveRequest: true}}
	if err := requestedOnly.CanCancel(engine.StatusRequested, asOwner, false); err != nil {
		t.Errorf("cancel requested with flag on: %v", err)
	}
	wantForbidden(t, requestedOnly.CanCancel(engine.StatusAccepted, asOwner, false))

	acceptedOnly := engine.Lifecycle{Config: engine.ConfigFlags{CancelAcceptedLeave: true}}
	if err := acceptedOnly.CanCancel(engine.StatusAccepted, asManager, false); err != nil {
		t.Errorf("cancel accepted with flag on: %v", err)
	}
	wantForbidden(t, acceptedOnly.CanCancel(engine.StatusRequested, asManager, false))
}

func TestCanCancel_WrongSourceStatus(t *testing.T) {
	l := engine.Lifecycle{Config: engine.ConfigFlags{CancelLeaveRequest: true, CancelAcceptedLeave: true}}
	for _, status := range []engine.Status{engine.StatusPlanned, engine.StatusRejected, engine.StatusCancelled} {
		wantInvalidState(t, l.CanCancel(status, asHR, false))
	}
}

func TestCanCancel_StrangerForbidden(t *testing.T) {
	l := engine.Lifecycle{Config: engine.ConfigFlags{CancelLeaveRequest: true}}
	wantForbidden(t, l.CanCancel(engine.StatusRequested, asStranger, false))
}

func TestCanCancel_PastStartRestrictsOwnerOnly(t *testing.T) {
	// GIVEN: CancelAcceptedLeave on, CancelPastRequests off
	// THEN: The owner cannot cancel a leave that already started, but the
	//       managerial side still can

	l := engine.Lifecycle{Config: engine.ConfigFlags{CancelAcceptedLeave: true}}
	wantForbidden(t, l.CanCancel(engine.StatusAccepted, asOwner, true))
	for _, roles := range []engine.RoleSet{asManager, asDelegate, asHR} {
		if err := l.CanCancel(engine.StatusAccepted, roles, true); err != nil {
			t.Errorf("past cancel as %+v: %v", roles, err)
		}
	}

	permissive := engine.Lifecycle{Config: engine.ConfigFlags{CancelAcceptedLeave: true, CancelPastRequests: true}}
	if err := permissive.CanCancel(engine.StatusAccepted, asOwner, true); err != nil {
		t.Errorf("past cancel by owner with CancelPastRequests: %v", err)
	}
}

// =============================================================================
// DELETE / EDIT
// =============================================================================

func TestCanDelete(t *testing.T) {
	var l engine.Lifecycle

	// HR deletes anything.
	for _, status := range []engine.Status{
		engine.StatusPlanned, engine.StatusRequested, engine.StatusAccepted,
		engine.StatusRejected, engine.StatusCancelled,
	} {
		if err := l.CanDelete(status, asHR); err != nil {
			t.Errorf("HR delete of %v: %v", status, err)
		}
	}

	if err := l.CanDelete(engine.StatusPlanned, asOwner); err != nil {
		t.Errorf("owner delete of planned: %v", err)
	}
	wantForbidden(t, l.CanDelete(engine.StatusRequested, asOwner))
	wantForbidden(t, l.CanDelete(engine.StatusRejected, asOwner))
	wantForbidden(t, l.CanDelete(engine.StatusPlanned, asManager))

	withFlag := engine.Lifecycle{Config: engine.ConfigFlags{DeleteRejectedRequests: true}}
	if err := withFlag.CanDelete(engine.StatusRejected, asOwner); err != nil {
		t.Errorf("owner delete of rejected with flag: %v", err)
	}
	wantForbidden(t, withFlag.CanDelete(engine.StatusAccepted, asOwner))
}

func TestCanEdit(t *testing.T) {
	var l engine.Lifecycle

	if err := l.CanEdit(engine.StatusPlanned, asOwner); err != nil {
		t.Errorf("owner edit of planned: %v", err)
	}
	if err := l.CanEdit(engine.StatusAccepted, asHR); err != nil {
		t.Errorf("HR edit: %v", err)
	}
	wantForbidden(t, l.CanEdit(engine.StatusRejected, asOwner))
	wantForbidden(t, l.CanEdit(engine.StatusPlanned, asDelegate))

	withFlag := engine.Lifecycle{Config: engine.ConfigFlags{EditRejectedRequests: true}}
	if err := withFlag.CanEdit(engine.StatusRejected, asOwner); err != nil {
		t.Errorf("owner edit of rejected with flag: %v", err)
	}
	wantForbidden(t, withFlag.CanEdit(engine.StatusRequested, asOwner))
}
