package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absentia/leave-engine/api"
	"github.com/absentia/leave-engine/engine"
	"github.com/absentia/leave-engine/engine/store"
)

func day(year int, month time.Month, d int) engine.Date {
	return engine.NewDate(year, month, d)
}

// newServer wires a router over the in-memory store with one employee under
// a 2024 contract, a manager, an Annual type and a pinned clock.
func newServer(t *testing.T, config engine.ConfigFlags) (*httptest.Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	mem.AddEmployee(engine.Employee{ID: "marc", HireDate: day(2015, time.January, 1)})
	mem.AddEmployee(engine.Employee{ID: "alice", ManagerID: "marc", HireDate: day(2020, time.June, 1)})
	mem.AddContract(engine.Contract{
		ID:         "c1",
		EmployeeID: "alice",
		Start:      day(2024, time.January, 1),
		End:        day(2024, time.December, 31),
	})
	mem.AddType(engine.LeaveType{ID: "annual", Name: "Annual", Entitled: true, Order: 1})
	mem.AddType(engine.LeaveType{ID: "unpaid", Name: "Unpaid", Entitled: false, Order: 2})

	eng := engine.New(mem, config)
	eng.Now = func() engine.Date { return day(2024, time.June, 15) }

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(eng, zerolog.Nop())))
	t.Cleanup(srv.Close)
	return srv, mem
}

type call struct {
	method, path string
	body         any
	actor        string
	hr           bool
}

func do(t *testing.T, srv *httptest.Server, c call) *http.Response {
	t.Helper()
	var payload bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(c.body))
	}
	req, err := http.NewRequest(c.method, srv.URL+c.path, &payload)
	require.NoError(t, err)
	if c.actor != "" {
		req.Header.Set("X-Actor-ID", c.actor)
	}
	if c.hr {
		req.Header.Set("X-Actor-HR", "true")
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

// =============================================================================
// VALIDATE
// =============================================================================

func TestValidateEndpoint(t *testing.T) {
	srv, mem := newServer(t, engine.ConfigFlags{})
	require.NoError(t, mem.CreateGrant(context.Background(), &engine.EntitlementGrant{
		ID: "g1", EmployeeID: "alice", TypeID: "annual",
		Period: engine.Period{Start: day(2024, time.January, 1), End: day(2024, time.December, 31)},
		Days:   decimal.NewFromInt(25),
	}))
	mem.AddDayOff(engine.DayOffEntry{
		Scope: engine.ScopeGlobal, Date: day(2024, time.July, 4),
		Half: engine.FullDay, Title: "Independence Day",
	})

	resp := do(t, srv, call{method: http.MethodPost, path: "/api/leaves/validate", body: map[string]string{
		"id":            "alice",
		"type":          "annual",
		"startdate":     "2024-07-01",
		"enddate":       "2024-07-05",
		"startdatetype": "Morning",
		"enddatetype":   "Afternoon",
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The historical field names are part of the contract.
	var body map[string]json.RawMessage
	decodeBody(t, resp, &body)
	for _, field := range []string{
		"credit", "overlap", "PeriodStartDate", "PeriodEndDate",
		"hasContract", "listDaysOff", "length", "lengthDaysOff",
		"overlapDayOff", "RequestStartDate", "RequestEndDate",
	} {
		assert.Contains(t, body, field)
	}

	var decoded struct {
		Credit          *decimal.Decimal `json:"credit"`
		Overlap         bool             `json:"overlap"`
		PeriodStartDate *string          `json:"PeriodStartDate"`
		HasContract     bool             `json:"hasContract"`
		Length          decimal.Decimal  `json:"length"`
		LengthDaysOff   decimal.Decimal  `json:"lengthDaysOff"`
		OverlapDayOff   bool             `json:"overlapDayOff"`
		ListDaysOff     []struct {
			Date  string `json:"date"`
			Title string `json:"title"`
		} `json:"listDaysOff"`
	}
	require.NoError(t, json.Unmarshal(mustMarshal(t, body), &decoded))

	assert.True(t, decoded.HasContract)
	require.NotNil(t, decoded.Credit)
	assert.True(t, decoded.Credit.Equal(decimal.NewFromInt(25)), "credit = %s", decoded.Credit)
	assert.True(t, decoded.Length.Equal(decimal.NewFromInt(4)), "length = %s", decoded.Length)
	assert.True(t, decoded.OverlapDayOff)
	assert.False(t, decoded.Overlap)
	require.NotNil(t, decoded.PeriodStartDate)
	assert.Equal(t, "2024-01-01", *decoded.PeriodStartDate)
	require.Len(t, decoded.ListDaysOff, 1)
	assert.Equal(t, "2024-07-04", decoded.ListDaysOff[0].Date)
	assert.Equal(t, "Independence Day", decoded.ListDaysOff[0].Title)
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestValidateEndpoint_NoContract(t *testing.T) {
	srv, _ := newServer(t, engine.ConfigFlags{})

	resp := do(t, srv, call{method: http.MethodPost, path: "/api/leaves/validate", body: map[string]string{
		"id":        "marc", // no contract seeded
		"type":      "annual",
		"startdate": "2024-07-01",
		"enddate":   "2024-07-03",
	}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded struct {
		Credit          *decimal.Decimal `json:"credit"`
		HasContract     bool             `json:"hasContract"`
		PeriodStartDate *string          `json:"PeriodStartDate"`
		Length          decimal.Decimal  `json:"length"`
	}
	decodeBody(t, resp, &decoded)
	assert.False(t, decoded.HasContract)
	assert.Nil(t, decoded.Credit)
	assert.Nil(t, decoded.PeriodStartDate)
	assert.True(t, decoded.Length.Equal(decimal.NewFromInt(3)))
}

func TestValidateEndpoint_Errors(t *testing.T) {
	srv, _ := newServer(t, engine.ConfigFlags{})

	// Unknown employee maps to 404.
	resp := do(t, srv, call{method: http.MethodPost, path: "/api/leaves/validate", body: map[string]string{
		"id": "nobody", "type": "annual",
		"startdate": "2024-07-01", "enddate": "2024-07-03",
	}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Inverted interval maps to 400.
	resp = do(t, srv, call{method: http.MethodPost, path: "/api/leaves/validate", body: map[string]string{
		"id": "alice", "type": "annual",
		"startdate": "2024-07-05", "enddate": "2024-07-01",
	}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unparsable date maps to 400.
	resp = do(t, srv, call{method: http.MethodPost, path: "/api/leaves/validate", body: map[string]string{
		"id": "alice", "type": "annual",
		"startdate": "July 1st", "enddate": "2024-07-03",
	}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// LIFECYCLE OVER HTTP
// =============================================================================

func TestLeaveLifecycleEndpoints(t *testing.T) {
	srv, _ := newServer(t, engine.ConfigFlags{})

	// Alice drafts a leave.
	resp := do(t, srv, call{method: http.MethodPost, path: "/api/leaves", actor: "alice", body: map[string]any{
		"employeeId": "alice", "type": "annual",
		"startdate": "2024-07-01", "enddate": "2024-07-05",
		"cause": "summer", "status": 1,
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID     string          `json:"id"`
		Status int             `json:"status"`
		Length decimal.Decimal `json:"length"`
	}
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Status)
	assert.True(t, created.Length.Equal(decimal.NewFromInt(5)))

	// She submits it, her manager accepts it.
	resp = do(t, srv, call{method: http.MethodPost, path: "/api/leaves/" + created.ID + "/request", actor: "alice"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, srv, call{method: http.MethodPost, path: "/api/leaves/" + created.ID + "/accept", actor: "marc"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A second accept hits the wrong source status: 409.
	resp = do(t, srv, call{method: http.MethodPost, path: "/api/leaves/" + created.ID + "/accept", actor: "marc"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The history shows the accepted request.
	resp = do(t, srv, call{method: http.MethodGet, path: "/api/employees/alice/leaves"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []struct {
		ID     string `json:"id"`
		Status int    `json:"status"`
	}
	decodeBody(t, resp, &history)
	require.Len(t, history, 1)
	assert.Equal(t, created.ID, history[0].ID)
	assert.Equal(t, int(engine.StatusAccepted), history[0].Status)
}

func TestCreateLeave_LengthExcludesDaysOff(t *testing.T) {
	// The length reported on creation must match the one the history
	// endpoint computes: non-working halves are excluded by both.
	srv, mem := newServer(t, engine.ConfigFlags{})
	mem.AddDayOff(engine.DayOffEntry{
		Scope: engine.ScopeGlobal, Date: day(2024, time.July, 4), Half: engine.FullDay,
	})

	resp := do(t, srv, call{method: http.MethodPost, path: "/api/leaves", actor: "alice", body: map[string]any{
		"employeeId": "alice", "type": "annual",
		"startdate": "2024-07-01", "enddate": "2024-07-05",
		"status": 1,
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID     string          `json:"id"`
		Length decimal.Decimal `json:"length"`
	}
	decodeBody(t, resp, &created)
	assert.True(t, created.Length.Equal(decimal.NewFromInt(4)), "created length = %s", created.Length)

	resp = do(t, srv, call{method: http.MethodGet, path: "/api/employees/alice/leaves"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []struct {
		ID     string          `json:"id"`
		Length decimal.Decimal `json:"length"`
	}
	decodeBody(t, resp, &history)
	require.Len(t, history, 1)
	assert.True(t, history[0].Length.Equal(created.Length), "history length = %s", history[0].Length)
}

func TestLeaveEndpoints_Authorization(t *testing.T) {
	srv, mem := newServer(t, engine.ConfigFlags{})
	require.NoError(t, mem.CreateLeave(context.Background(), &engine.LeaveRequest{
		ID: "l1", EmployeeID: "alice", TypeID: "annual",
		Interval: engine.Interval{Start: day(2024, time.July, 1), End: day(2024, time.July, 5)},
		Status:   engine.StatusRequested,
	}))

	// The owner cannot approve her own request: 403.
	resp := do(t, srv, call{method: http.MethodPost, path: "/api/leaves/l1/accept", actor: "alice"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// An unknown id: 404.
	resp = do(t, srv, call{method: http.MethodPost, path: "/api/leaves/missing/accept", actor: "marc"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Cancelling while the deployment flag is off: 403.
	resp = do(t, srv, call{method: http.MethodPost, path: "/api/leaves/l1/cancel", actor: "alice"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOvertimeEndpoints(t *testing.T) {
	srv, _ := newServer(t, engine.ConfigFlags{})

	resp := do(t, srv, call{method: http.MethodPost, path: "/api/overtime", actor: "alice", body: map[string]any{
		"employeeId": "alice", "date": "2024-07-20",
		"startTime": "18:00", "endTime": "21:30",
		"cause": "release night", "status": 2,
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID      string `json:"id"`
		Minutes int    `json:"minutes"`
	}
	decodeBody(t, resp, &created)
	assert.Equal(t, 210, created.Minutes)

	resp = do(t, srv, call{method: http.MethodPost, path: "/api/overtime/" + created.ID + "/reject", actor: "marc"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// VIEWS
// =============================================================================

func TestBalanceSummaryEndpoint(t *testing.T) {
	srv, mem := newServer(t, engine.ConfigFlags{})
	require.NoError(t, mem.CreateGrant(context.Background(), &engine.EntitlementGrant{
		ID: "g1", EmployeeID: "alice", TypeID: "annual",
		Period: engine.Period{Start: day(2024, time.January, 1), End: day(2024, time.December, 31)},
		Days:   decimal.NewFromInt(25),
	}))
	require.NoError(t, mem.CreateLeave(context.Background(), &engine.LeaveRequest{
		ID: "l1", EmployeeID: "alice", TypeID: "annual",
		Interval: engine.Interval{Start: day(2024, time.March, 4), End: day(2024, time.March, 8)},
		Status:   engine.StatusAccepted,
	}))

	resp := do(t, srv, call{method: http.MethodGet, path: "/api/employees/alice/summary?ref=2024-06-15"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary struct {
		HasContract bool   `json:"hasContract"`
		PeriodStart string `json:"periodStart"`
		Types       map[string]struct {
			Granted   *decimal.Decimal `json:"granted"`
			Unlimited bool             `json:"unlimited"`
			Consumed  decimal.Decimal  `json:"consumed"`
			Balance   *decimal.Decimal `json:"balance"`
		} `json:"types"`
	}
	decodeBody(t, resp, &summary)
	assert.True(t, summary.HasContract)
	assert.Equal(t, "2024-01-01", summary.PeriodStart)

	annual := summary.Types["Annual"]
	require.NotNil(t, annual.Granted)
	assert.True(t, annual.Consumed.Equal(decimal.NewFromInt(5)), "consumed = %s", annual.Consumed)
	require.NotNil(t, annual.Balance)
	assert.True(t, annual.Balance.Equal(decimal.NewFromInt(20)), "balance = %s", annual.Balance)

	unpaid := summary.Types["Unpaid"]
	assert.True(t, unpaid.Unlimited)
	assert.Nil(t, unpaid.Granted)
}

func TestMonthlyPresenceEndpoint(t *testing.T) {
	srv, mem := newServer(t, engine.ConfigFlags{})
	mem.AddDayOff(engine.DayOffEntry{Scope: engine.ScopeGlobal, Date: day(2024, time.June, 1), Half: engine.FullDay})
	mem.AddDayOff(engine.DayOffEntry{Scope: engine.ScopeGlobal, Date: day(2024, time.June, 2), Half: engine.FullDay})

	resp := do(t, srv, call{method: http.MethodGet, path: "/api/employees/alice/presence/2024/6"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var presence struct {
		Total   int             `json:"total"`
		DayOffs decimal.Decimal `json:"dayoffs"`
		Open    decimal.Decimal `json:"open"`
		Work    decimal.Decimal `json:"work"`
	}
	decodeBody(t, resp, &presence)
	assert.Equal(t, 30, presence.Total)
	assert.True(t, presence.DayOffs.Equal(decimal.NewFromInt(2)))
	assert.True(t, presence.Open.Equal(decimal.NewFromInt(28)))
	assert.True(t, presence.Work.Equal(decimal.NewFromInt(28)))

	// Months are range-checked before hitting the engine.
	resp = do(t, srv, call{method: http.MethodGet, path: "/api/employees/alice/presence/2024/13"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// No contract means no presence to measure.
	resp = do(t, srv, call{method: http.MethodGet, path: "/api/employees/marc/presence/2024/6"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListTypesEndpoint(t *testing.T) {
	srv, _ := newServer(t, engine.ConfigFlags{})
	resp := do(t, srv, call{method: http.MethodGet, path: "/api/types"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var types []struct {
		ID       string `json:"id"`
		Entitled bool   `json:"entitled"`
	}
	decodeBody(t, resp, &types)
	require.Len(t, types, 2)
}

// =============================================================================
// GRANTS
// =============================================================================

func TestCreateGrantEndpoint(t *testing.T) {
	srv, _ := newServer(t, engine.ConfigFlags{})
	body := map[string]string{
		"type":        "annual",
		"periodStart": "2024-01-01",
		"periodEnd":   "2024-12-31",
		"days":        "25",
		"note":        "annual allocation",
	}

	// Non-HR caller: 403.
	resp := do(t, srv, call{method: http.MethodPost, path: "/api/employees/alice/grants", actor: "marc", body: body})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, srv, call{method: http.MethodPost, path: "/api/employees/alice/grants", actor: "hr", hr: true, body: body})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]string
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created["id"])

	// The grant now shows up in the balance.
	resp = do(t, srv, call{method: http.MethodGet, path: fmt.Sprintf("/api/employees/alice/summary?ref=%s", "2024-06-15")})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary struct {
		Types map[string]struct {
			Granted *decimal.Decimal `json:"granted"`
		} `json:"types"`
	}
	decodeBody(t, resp, &summary)
	require.NotNil(t, summary.Types["Annual"].Granted)
	assert.True(t, summary.Types["Annual"].Granted.Equal(decimal.NewFromInt(25)))
}
