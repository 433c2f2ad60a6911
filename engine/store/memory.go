// Package store provides an in-memory implementation of the engine's
// storage interfaces, used by tests and local development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/absentia/leave-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements engine.Store over maps. All methods copy on the way in
// and out so callers can't mutate stored state behind the lock.
type Memory struct {
	mu          sync.RWMutex
	employees   map[string]engine.Employee
	contracts   map[string][]engine.Contract // by employee
	types       map[string]engine.LeaveType
	grants      map[string][]engine.EntitlementGrant // by employee
	leaves      map[string]engine.LeaveRequest
	overtime    map[string]engine.OvertimeRequest
	dayOffs     []engine.DayOffEntry
	delegations map[string][]string // manager -> delegates
}

func NewMemory() *Memory {
	return &Memory{
		employees:   make(map[string]engine.Employee),
		contracts:   make(map[string][]engine.Contract),
		types:       make(map[string]engine.LeaveType),
		grants:      make(map[string][]engine.EntitlementGrant),
		leaves:      make(map[string]engine.LeaveRequest),
		overtime:    make(map[string]engine.OvertimeRequest),
		delegations: make(map[string][]string),
	}
}

var _ engine.Store = (*Memory)(nil)

// =============================================================================
// SEEDING (no interface counterpart; tests populate state directly)
// =============================================================================

func (m *Memory) AddEmployee(e engine.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
}

func (m *Memory) AddContract(c engine.Contract) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.EmployeeID] = append(m.contracts[c.EmployeeID], c)
}

func (m *Memory) AddType(t engine.LeaveType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[t.ID] = t
}

func (m *Memory) AddDayOff(e engine.DayOffEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dayOffs = append(m.dayOffs, e)
}

func (m *Memory) AddDelegation(managerID, delegateID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delegations[managerID] = append(m.delegations[managerID], delegateID)
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

func (m *Memory) GetEmployee(_ context.Context, id string) (*engine.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	out := e
	return &out, nil
}

func (m *Memory) ActiveContract(_ context.Context, employeeID string, ref engine.Date) (*engine.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.contracts[employeeID] {
		if c.Contains(ref) {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

// =============================================================================
// CALENDAR STORE
// =============================================================================

func (m *Memory) DayOffEntries(_ context.Context, employeeID string, from, to engine.Date) ([]engine.DayOffEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.DayOffEntry
	for _, e := range m.dayOffs {
		if e.Scope == engine.ScopeEmployee && e.EmployeeID != employeeID {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// =============================================================================
// REQUEST STORE
// =============================================================================

func matchesFilter(req engine.LeaveRequest, filter engine.LeaveFilter) bool {
	if filter.TypeID != "" && req.TypeID != filter.TypeID {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, s := range filter.Statuses {
			if req.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Range != nil && !req.Interval.Intersects(*filter.Range) {
		return false
	}
	return true
}

func (m *Memory) ListLeaves(_ context.Context, employeeID string, filter engine.LeaveFilter) ([]engine.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.LeaveRequest
	for _, req := range m.leaves {
		if req.EmployeeID != employeeID || !matchesFilter(req, filter) {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Interval.Start.Before(out[j].Interval.Start)
	})
	return out, nil
}

func (m *Memory) GetLeave(_ context.Context, id string) (*engine.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.leaves[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	out := req
	return &out, nil
}

func (m *Memory) CreateLeave(_ context.Context, req *engine.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves[req.ID] = *req
	return nil
}

func (m *Memory) UpdateLeave(_ context.Context, req *engine.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leaves[req.ID]; !ok {
		return engine.ErrNotFound
	}
	m.leaves[req.ID] = *req
	return nil
}

// UpdateLeaveStatus performs the optimistic expected-status check and the
// write under one lock, the in-memory equivalent of a compare-and-set row
// update.
func (m *Memory) UpdateLeaveStatus(_ context.Context, id string, expected, next engine.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.leaves[id]
	if !ok {
		return engine.ErrNotFound
	}
	if req.Status != expected {
		return engine.ErrInvalidState
	}
	req.Status = next
	m.leaves[id] = req
	return nil
}

func (m *Memory) DeleteLeave(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leaves[id]; !ok {
		return engine.ErrNotFound
	}
	delete(m.leaves, id)
	return nil
}

func (m *Memory) GetOvertime(_ context.Context, id string) (*engine.OvertimeRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.overtime[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	out := req
	return &out, nil
}

func (m *Memory) ListOvertime(_ context.Context, employeeID string, statuses []engine.Status) ([]engine.OvertimeRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.OvertimeRequest
	for _, req := range m.overtime {
		if req.EmployeeID != employeeID {
			continue
		}
		if len(statuses) > 0 {
			found := false
			for _, s := range statuses {
				if req.Status == s {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) CreateOvertime(_ context.Context, req *engine.OvertimeRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overtime[req.ID] = *req
	return nil
}

func (m *Memory) UpdateOvertimeStatus(_ context.Context, id string, expected, next engine.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.overtime[id]
	if !ok {
		return engine.ErrNotFound
	}
	if req.Status != expected {
		return engine.ErrInvalidState
	}
	req.Status = next
	m.overtime[id] = req
	return nil
}

func (m *Memory) DeleteOvertime(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.overtime[id]; !ok {
		return engine.ErrNotFound
	}
	delete(m.overtime, id)
	return nil
}

// =============================================================================
// GRANT / TYPE / DELEGATION STORES
// =============================================================================

func (m *Memory) ListGrants(_ context.Context, employeeID, typeID string, period engine.Period) ([]engine.EntitlementGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.EntitlementGrant
	zero := engine.Period{}
	for _, g := range m.grants[employeeID] {
		if g.TypeID != typeID {
			continue
		}
		if !period.Matches(zero) && !g.Period.Matches(period) {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (m *Memory) CreateGrant(_ context.Context, grant *engine.EntitlementGrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants[grant.EmployeeID] = append(m.grants[grant.EmployeeID], *grant)
	return nil
}

func (m *Memory) GetType(_ context.Context, id string) (*engine.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.types[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	out := t
	return &out, nil
}

func (m *Memory) ListTypes(_ context.Context) ([]engine.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.LeaveType, 0, len(m.types))
	for _, t := range m.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *Memory) IsDelegateOf(_ context.Context, userID, managerID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.delegations[managerID] {
		if d == userID {
			return true, nil
		}
	}
	return false, nil
}
