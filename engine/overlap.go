/*
overlap.go - Detection of conflicting leave requests

PURPOSE:
  Tests a proposed interval against the employee's existing requests for
  half-day intersection. Two intervals overlap iff s1 <= e2 AND s2 <= e1 on
  the half-slot timeline (see interval.go) - intersection, not equality.

  Only Requested and Accepted requests block; Planned drafts and terminal
  Rejected/Cancelled never do. excludeRequestID lets an edit-in-place check
  ignore the request being edited.

  Pure query against a snapshot; see store.go for why this is advisory.
*/
package engine

import "context"

// consumingStatuses are the statuses that block an overlapping submission.
var consumingStatuses = []Status{StatusRequested, StatusAccepted}

// DetectOverlap reports whether iv intersects any non-cancelled request of
// the employee. excludeRequestID may be empty.
func DetectOverlap(ctx context.Context, store RequestStore, employeeID string, iv Interval, excludeRequestID string) (bool, error) {
	if err := iv.Validate(); err != nil {
		return false, err
	}
	searchRange := Period{Start: iv.Start, End: iv.End}
	existing, err := store.ListLeaves(ctx, employeeID, LeaveFilter{
		Statuses: consumingStatuses,
		Range:    &searchRange,
	})
	if err != nil {
		return false, err
	}
	for _, req := range existing {
		if req.ID == excludeRequestID {
			continue
		}
		if iv.Overlaps(req.Interval) {
			return true, nil
		}
	}
	return false, nil
}

// DetectOvertimeConflict reports whether the employee already holds a
// Requested or Accepted overtime entry on the same date whose time range
// intersects the candidate's. "HH:MM" compares correctly as a string.
func DetectOvertimeConflict(ctx context.Context, store RequestStore, candidate *OvertimeRequest) (bool, error) {
	if _, err := candidate.Minutes(); err != nil {
		return false, err
	}
	existing, err := store.ListOvertime(ctx, candidate.EmployeeID, consumingStatuses)
	if err != nil {
		return false, err
	}
	for _, req := range existing {
		if req.ID == candidate.ID || !req.Date.Equal(candidate.Date) {
			continue
		}
		if candidate.StartTime < req.EndTime && req.StartTime < candidate.EndTime {
			return true, nil
		}
	}
	return false, nil
}
