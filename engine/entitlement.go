/*
entitlement.go - Grant aggregation per (employee, type, period)

PURPOSE:
  Sums all entitlement grants for an employee and leave type within a
  period. Grants are signed and accumulate additively; HR corrections are
  new grants, never edits (the grant store has no update).

  Unlimited types (no accrual policy) report UnlimitedCredit, a sentinel
  the caller must branch on - never a number, never zero.
*/
package engine

import (
	"context"

	"github.com/shopspring/decimal"
)

// Granted returns the total entitlement for employee+type over a period.
// The leave type decides the shape of the result: entitled types sum their
// grants, unlimited types report the not-applicable sentinel.
func Granted(ctx context.Context, grants GrantStore, types TypeStore, employeeID, typeID string, period Period) (Credit, error) {
	leaveType, err := types.GetType(ctx, typeID)
	if err != nil {
		return Credit{}, err
	}
	if !leaveType.Entitled {
		return UnlimitedCredit(), nil
	}

	records, err := grants.ListGrants(ctx, employeeID, typeID, period)
	if err != nil {
		return Credit{}, err
	}
	total := decimal.Zero
	for _, g := range records {
		total = total.Add(g.Days)
	}
	return CreditOf(total), nil
}
