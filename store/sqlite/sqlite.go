/*
Package sqlite provides a SQLite-backed implementation of the engine's
storage interfaces.

PURPOSE:
  Implements engine.Store (employees, contracts, calendar, requests, grants,
  types, delegations) using SQLite. The same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

OPTIMISTIC STATUS CHECK:
  UpdateLeaveStatus/UpdateOvertimeStatus run

      UPDATE ... SET status = next WHERE id = ? AND status = expected

  and translate zero affected rows into engine.ErrInvalidState (or
  ErrNotFound when the row is gone). That single statement is the
  transactional read-then-write the lifecycle machine relies on.

GRANTS ARE APPEND-ONLY:
  entitlement_grants has inserts only; corrections are new rows with the
  opposite sign. No UPDATE or DELETE statements exist for that table.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers don't
  block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil { ... }
  defer store.Close()
  eng := engine.New(store, engine.ConfigFlags{...})

MIGRATION:
  Schema is auto-migrated on New(). For production, use a versioned
  migration tool.

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/absentia/leave-engine/engine"
)

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
}

var _ engine.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		manager_id TEXT,
		hire_date TEXT NOT NULL,
		timezone TEXT NOT NULL DEFAULT 'UTC'
	);

	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		period_start TEXT NOT NULL,
		period_end TEXT -- NULL = open-ended
	);
	CREATE INDEX IF NOT EXISTS idx_contracts_employee ON contracts(employee_id);

	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		entitled INTEGER NOT NULL DEFAULT 1,
		sort_order INTEGER NOT NULL DEFAULT 0
	);

	-- Append-only; corrections are new rows.
	CREATE TABLE IF NOT EXISTS entitlement_grants (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		type_id TEXT NOT NULL REFERENCES leave_types(id),
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		days TEXT NOT NULL,
		note TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_grants_employee_type
		ON entitlement_grants(employee_id, type_id, period_start, period_end);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		type_id TEXT NOT NULL REFERENCES leave_types(id),
		start_date TEXT NOT NULL,
		start_half INTEGER NOT NULL,
		end_date TEXT NOT NULL,
		end_half INTEGER NOT NULL,
		cause TEXT,
		status INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_leaves_employee_status
		ON leave_requests(employee_id, status);
	CREATE INDEX IF NOT EXISTS idx_leaves_employee_dates
		ON leave_requests(employee_id, start_date, end_date);

	CREATE TABLE IF NOT EXISTS overtime_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		cause TEXT,
		status INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_overtime_employee ON overtime_requests(employee_id);

	CREATE TABLE IF NOT EXISTS dayoffs (
		id TEXT PRIMARY KEY,
		scope INTEGER NOT NULL, -- 0 global, 1 employee
		employee_id TEXT,
		date TEXT NOT NULL,
		half INTEGER NOT NULL, -- 0 full day, 1 morning, 2 afternoon
		title TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_dayoffs_date ON dayoffs(date);

	CREATE TABLE IF NOT EXISTS delegations (
		manager_id TEXT NOT NULL,
		delegate_id TEXT NOT NULL,
		PRIMARY KEY (manager_id, delegate_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func dateOf(s string) (engine.Date, error) { return engine.ParseDate(s) }

func mustDate(s string) engine.Date {
	d, _ := engine.ParseDate(s)
	return d
}

func timestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func parseTimestamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// =============================================================================
// EMPLOYEES & CONTRACTS
// =============================================================================

// CreateEmployee inserts an employee record (admin/seed path).
func (s *Store) CreateEmployee(ctx context.Context, e *engine.Employee) error {
	var manager sql.NullString
	if e.ManagerID != "" {
		manager = sql.NullString{String: e.ManagerID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO employees (id, manager_id, hire_date, timezone) VALUES (?, ?, ?, ?)`,
		e.ID, manager, e.HireDate.String(), e.Timezone)
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*engine.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, manager_id, hire_date, timezone FROM employees WHERE id = ?`, id)
	var e engine.Employee
	var manager sql.NullString
	var hireDate string
	if err := row.Scan(&e.ID, &manager, &hireDate, &e.Timezone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("employee %s: %w", id, engine.ErrNotFound)
		}
		return nil, err
	}
	e.ManagerID = manager.String
	var err error
	e.HireDate, err = dateOf(hireDate)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateContract inserts a contract record (admin/seed path).
func (s *Store) CreateContract(ctx context.Context, c *engine.Contract) error {
	var end sql.NullString
	if !c.End.IsZero() {
		end = sql.NullString{String: c.End.String(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contracts (id, employee_id, period_start, period_end) VALUES (?, ?, ?, ?)`,
		c.ID, c.EmployeeID, c.Start.String(), end)
	return err
}

func (s *Store) ActiveContract(ctx context.Context, employeeID string, ref engine.Date) (*engine.Contract, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, period_start, period_end FROM contracts WHERE employee_id = ?`,
		employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c engine.Contract
		var start string
		var end sql.NullString
		if err := rows.Scan(&c.ID, &c.EmployeeID, &start, &end); err != nil {
			return nil, err
		}
		if c.Start, err = dateOf(start); err != nil {
			return nil, err
		}
		if end.Valid {
			if c.End, err = dateOf(end.String); err != nil {
				return nil, err
			}
		}
		if c.Contains(ref) {
			return &c, nil
		}
	}
	return nil, rows.Err()
}

// =============================================================================
// CALENDAR
// =============================================================================

// CreateDayOff inserts a non-working day entry (admin/seed path).
func (s *Store) CreateDayOff(ctx context.Context, e *engine.DayOffEntry) error {
	var employee sql.NullString
	if e.Scope == engine.ScopeEmployee {
		employee = sql.NullString{String: e.EmployeeID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dayoffs (id, scope, employee_id, date, half, title) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), int(e.Scope), employee, e.Date.String(), int(e.Half), e.Title)
	return err
}

func (s *Store) DayOffEntries(ctx context.Context, employeeID string, from, to engine.Date) ([]engine.DayOffEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT scope, employee_id, date, half, title FROM dayoffs
		 WHERE date >= ? AND date <= ? AND (scope = 0 OR employee_id = ?)
		 ORDER BY date`,
		from.String(), to.String(), employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.DayOffEntry
	for rows.Next() {
		var e engine.DayOffEntry
		var scope, half int
		var employee, title sql.NullString
		var date string
		if err := rows.Scan(&scope, &employee, &date, &half, &title); err != nil {
			return nil, err
		}
		e.Scope = engine.DayOffScope(scope)
		e.EmployeeID = employee.String
		e.Half = engine.Half(half)
		e.Title = title.String
		if e.Date, err = dateOf(date); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

const leaveColumns = `id, employee_id, type_id, start_date, start_half, end_date, end_half, cause, status, created_at, updated_at`

func scanLeave(scanner interface{ Scan(...any) error }) (*engine.LeaveRequest, error) {
	var req engine.LeaveRequest
	var start, end, createdAt, updatedAt string
	var startHalf, endHalf, status int
	var cause sql.NullString
	err := scanner.Scan(&req.ID, &req.EmployeeID, &req.TypeID,
		&start, &startHalf, &end, &endHalf, &cause, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	req.Interval = engine.Interval{
		Start:     mustDate(start),
		StartHalf: engine.Half(startHalf),
		End:       mustDate(end),
		EndHalf:   engine.Half(endHalf),
	}
	req.Cause = cause.String
	req.Status = engine.Status(status)
	req.CreatedAt = parseTimestamp(createdAt)
	req.UpdatedAt = parseTimestamp(updatedAt)
	return &req, nil
}

func (s *Store) ListLeaves(ctx context.Context, employeeID string, filter engine.LeaveFilter) ([]engine.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE employee_id = ?`
	args := []any{employeeID}

	if filter.TypeID != "" {
		query += ` AND type_id = ?`
		args = append(args, filter.TypeID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Statuses)), ",")
		query += ` AND status IN (` + placeholders + `)`
		for _, st := range filter.Statuses {
			args = append(args, int(st))
		}
	}
	if filter.Range != nil {
		// Interval touches the range: start <= range.end AND end >= range.start
		query += ` AND start_date <= ? AND end_date >= ?`
		args = append(args, filter.Range.End.String(), filter.Range.Start.String())
	}
	query += ` ORDER BY start_date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.LeaveRequest
	for rows.Next() {
		req, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (s *Store) GetLeave(ctx context.Context, id string) (*engine.LeaveRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leaveColumns+` FROM leave_requests WHERE id = ?`, id)
	req, err := scanLeave(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("leave %s: %w", id, engine.ErrNotFound)
	}
	return req, err
}

func (s *Store) CreateLeave(ctx context.Context, req *engine.LeaveRequest) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leave_requests (`+leaveColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.EmployeeID, req.TypeID,
		req.Interval.Start.String(), int(req.Interval.StartHalf),
		req.Interval.End.String(), int(req.Interval.EndHalf),
		req.Cause, int(req.Status), timestamp(req.CreatedAt), timestamp(req.UpdatedAt))
	return err
}

func (s *Store) UpdateLeave(ctx context.Context, req *engine.LeaveRequest) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leave_requests
		 SET type_id = ?, start_date = ?, start_half = ?, end_date = ?, end_half = ?,
		     cause = ?, updated_at = ?
		 WHERE id = ?`,
		req.TypeID,
		req.Interval.Start.String(), int(req.Interval.StartHalf),
		req.Interval.End.String(), int(req.Interval.EndHalf),
		req.Cause, timestamp(req.UpdatedAt), req.ID)
	if err != nil {
		return err
	}
	return s.requireRow(res, req.ID)
}

// UpdateLeaveStatus is the optimistic transition: the expected-status compare
// happens inside the UPDATE itself.
func (s *Store) UpdateLeaveStatus(ctx context.Context, id string, expected, next engine.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leave_requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		int(next), timestamp(time.Now()), id, int(expected))
	if err != nil {
		return err
	}
	return s.requireTransition(ctx, res, `SELECT 1 FROM leave_requests WHERE id = ?`, id)
}

func (s *Store) DeleteLeave(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leave_requests WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return s.requireRow(res, id)
}

func (s *Store) requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, engine.ErrNotFound)
	}
	return nil
}

// requireTransition distinguishes "row gone" (NotFound) from "status moved
// underneath us" (InvalidState) after a zero-row compare-and-set.
func (s *Store) requireTransition(ctx context.Context, res sql.Result, existsQuery, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = s.db.QueryRowContext(ctx, existsQuery, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", id, engine.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%s: concurrent status change: %w", id, engine.ErrInvalidState)
}

// =============================================================================
// OVERTIME REQUESTS
// =============================================================================

const overtimeColumns = `id, employee_id, date, start_time, end_time, cause, status, created_at, updated_at`

func scanOvertime(scanner interface{ Scan(...any) error }) (*engine.OvertimeRequest, error) {
	var req engine.OvertimeRequest
	var date, createdAt, updatedAt string
	var status int
	var cause sql.NullString
	err := scanner.Scan(&req.ID, &req.EmployeeID, &date,
		&req.StartTime, &req.EndTime, &cause, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	req.Date = mustDate(date)
	req.Cause = cause.String
	req.Status = engine.Status(status)
	req.CreatedAt = parseTimestamp(createdAt)
	req.UpdatedAt = parseTimestamp(updatedAt)
	return &req, nil
}

func (s *Store) GetOvertime(ctx context.Context, id string) (*engine.OvertimeRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+overtimeColumns+` FROM overtime_requests WHERE id = ?`, id)
	req, err := scanOvertime(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("overtime %s: %w", id, engine.ErrNotFound)
	}
	return req, err
}

func (s *Store) ListOvertime(ctx context.Context, employeeID string, statuses []engine.Status) ([]engine.OvertimeRequest, error) {
	query := `SELECT ` + overtimeColumns + ` FROM overtime_requests WHERE employee_id = ?`
	args := []any{employeeID}
	if len(statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
		query += ` AND status IN (` + placeholders + `)`
		for _, st := range statuses {
			args = append(args, int(st))
		}
	}
	query += ` ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.OvertimeRequest
	for rows.Next() {
		req, err := scanOvertime(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func (s *Store) CreateOvertime(ctx context.Context, req *engine.OvertimeRequest) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO overtime_requests (`+overtimeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.EmployeeID, req.Date.String(), req.StartTime, req.EndTime,
		req.Cause, int(req.Status), timestamp(req.CreatedAt), timestamp(req.UpdatedAt))
	return err
}

func (s *Store) UpdateOvertimeStatus(ctx context.Context, id string, expected, next engine.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE overtime_requests SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		int(next), timestamp(time.Now()), id, int(expected))
	if err != nil {
		return err
	}
	return s.requireTransition(ctx, res, `SELECT 1 FROM overtime_requests WHERE id = ?`, id)
}

func (s *Store) DeleteOvertime(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM overtime_requests WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return s.requireRow(res, id)
}

// =============================================================================
// GRANTS, TYPES, DELEGATIONS
// =============================================================================

func (s *Store) CreateGrant(ctx context.Context, grant *engine.EntitlementGrant) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entitlement_grants (id, employee_id, type_id, period_start, period_end, days, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		grant.ID, grant.EmployeeID, grant.TypeID,
		grant.Period.Start.String(), grant.Period.End.String(),
		grant.Days.String(), grant.Note, timestamp(grant.CreatedAt))
	return err
}

func (s *Store) ListGrants(ctx context.Context, employeeID, typeID string, period engine.Period) ([]engine.EntitlementGrant, error) {
	query := `SELECT id, employee_id, type_id, period_start, period_end, days, note, created_at
	          FROM entitlement_grants WHERE employee_id = ? AND type_id = ?`
	args := []any{employeeID, typeID}
	if !period.Start.IsZero() {
		query += ` AND period_start = ? AND period_end = ?`
		args = append(args, period.Start.String(), period.End.String())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.EntitlementGrant
	for rows.Next() {
		var g engine.EntitlementGrant
		var start, end, days, createdAt string
		var note sql.NullString
		if err := rows.Scan(&g.ID, &g.EmployeeID, &g.TypeID, &start, &end, &days, &note, &createdAt); err != nil {
			return nil, err
		}
		g.Period = engine.Period{Start: mustDate(start), End: mustDate(end)}
		if g.Days, err = decimal.NewFromString(days); err != nil {
			return nil, fmt.Errorf("grant %s: bad quantity %q: %w", g.ID, days, err)
		}
		g.Note = note.String
		g.CreatedAt = parseTimestamp(createdAt)
		out = append(out, g)
	}
	return out, rows.Err()
}

// CreateType inserts a leave type (admin/seed path).
func (s *Store) CreateType(ctx context.Context, t *engine.LeaveType) error {
	entitled := 0
	if t.Entitled {
		entitled = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leave_types (id, name, entitled, sort_order) VALUES (?, ?, ?, ?)`,
		t.ID, t.Name, entitled, t.Order)
	return err
}

func (s *Store) GetType(ctx context.Context, id string) (*engine.LeaveType, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, entitled, sort_order FROM leave_types WHERE id = ?`, id)
	var t engine.LeaveType
	var entitled int
	if err := row.Scan(&t.ID, &t.Name, &entitled, &t.Order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("leave type %s: %w", id, engine.ErrNotFound)
		}
		return nil, err
	}
	t.Entitled = entitled != 0
	return &t, nil
}

func (s *Store) ListTypes(ctx context.Context) ([]engine.LeaveType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, entitled, sort_order FROM leave_types ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.LeaveType
	for rows.Next() {
		var t engine.LeaveType
		var entitled int
		if err := rows.Scan(&t.ID, &t.Name, &entitled, &t.Order); err != nil {
			return nil, err
		}
		t.Entitled = entitled != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// AddDelegation registers a delegate for a manager (admin/seed path).
func (s *Store) AddDelegation(ctx context.Context, managerID, delegateID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO delegations (manager_id, delegate_id) VALUES (?, ?)`,
		managerID, delegateID)
	return err
}

func (s *Store) IsDelegateOf(ctx context.Context, userID, managerID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM delegations WHERE manager_id = ? AND delegate_id = ?`,
		managerID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
