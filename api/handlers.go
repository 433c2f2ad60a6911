/*
handlers.go - HTTP handlers for the leave engine

PURPOSE:
  Exposes the engine via REST. Handles HTTP parsing, JSON serialization and
  error mapping; every decision is delegated to the engine.

ENDPOINTS:
  Validation & views:
    POST   /api/leaves/validate                       Combined pre-check
    GET    /api/employees/{id}/summary?ref=DATE       Balance per type
    GET    /api/employees/{id}/presence/{year}/{month} Presence stats
    GET    /api/employees/{id}/leaves                 Request history

  Leave lifecycle:
    POST   /api/leaves                   Create (Planned or Requested)
    PUT    /api/leaves/{id}              Edit
    DELETE /api/leaves/{id}              Hard delete
    POST   /api/leaves/{id}/request      Planned -> Requested
    POST   /api/leaves/{id}/accept       Requested -> Accepted
    POST   /api/leaves/{id}/reject       Requested -> Rejected
    POST   /api/leaves/{id}/cancel       -> Cancelled

  Overtime lifecycle: same verbs under /api/overtime.

  Catalogue & grants:
    GET    /api/types
    POST   /api/employees/{id}/grants    HR records a grant

ACTOR IDENTITY:
  X-Actor-ID and X-Actor-HR headers identify the caller. Authentication is
  the deployment's concern; these headers stand in for its session.

ERROR HANDLING:
  engine.ErrNotFound        -> 404
  engine.ErrInvalidInterval -> 400
  engine.ErrForbidden       -> 403
  engine.ErrInvalidState    -> 409
  anything else             -> 500 (logged, body is generic)
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/absentia/leave-engine/engine"
)

// Handler holds the handler dependencies.
type Handler struct {
	Engine *engine.Engine
	Log    zerolog.Logger
}

func NewHandler(eng *engine.Engine, log zerolog.Logger) *Handler {
	return &Handler{Engine: eng, Log: log}
}

// =============================================================================
// PLUMBING
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Log.Error().Err(err).Msg("encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := err.Error()
	switch {
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidInterval):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrInvalidState):
		status = http.StatusConflict
	default:
		h.Log.Error().Err(err).Str("path", r.URL.Path).Msg("internal error")
		message = "internal error"
	}
	h.writeJSON(w, status, ErrorResponse{Error: message})
}

func actorFrom(r *http.Request) engine.Actor {
	return engine.Actor{
		UserID: r.Header.Get("X-Actor-ID"),
		HR:     r.Header.Get("X-Actor-HR") == "true",
	}
}

func decode(r *http.Request, into any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(into)
}

func parseInterval(startDate, startHalf, endDate, endHalf string) (engine.Interval, error) {
	var iv engine.Interval
	var err error
	if iv.Start, err = engine.ParseDate(startDate); err != nil {
		return iv, errors.Join(engine.ErrInvalidInterval, err)
	}
	if iv.End, err = engine.ParseDate(endDate); err != nil {
		return iv, errors.Join(engine.ErrInvalidInterval, err)
	}
	if iv.StartHalf, err = engine.ParseHalf(startHalf); err != nil {
		return iv, errors.Join(engine.ErrInvalidInterval, err)
	}
	if iv.EndHalf, err = engine.ParseHalf(endHalf); err != nil {
		return iv, errors.Join(engine.ErrInvalidInterval, err)
	}
	return iv, nil
}

// =============================================================================
// VALIDATION & VIEWS
// =============================================================================

// Validate runs the combined pre-submission check.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var body ValidateRequest
	if err := decode(r, &body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	iv, err := parseInterval(body.StartDate, body.StartHalf, body.EndDate, body.EndHalf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.Engine.ComputeValidation(r.Context(), body.EmployeeID, body.TypeID, iv, body.LeaveID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toValidateResponse(result))
}

// BalanceSummary returns granted/consumed/balance per leave type.
func (h *Handler) BalanceSummary(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	ref := engine.Today()
	if refParam := r.URL.Query().Get("ref"); refParam != "" {
		var err error
		if ref, err = engine.ParseDate(refParam); err != nil {
			h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
	}
	summary, err := h.Engine.ComputeBalanceSummary(r.Context(), employeeID, ref)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toBalanceSummaryDTO(summary))
}

// MonthlyPresence returns the presence stats for one month.
func (h *Handler) MonthlyPresence(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid year"})
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid month"})
		return
	}
	presence, err := h.Engine.ComputeMonthlyPresence(r.Context(), employeeID, year, time.Month(month))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPresenceDTO(presence))
}

// ListLeaves returns the employee's request history with computed lengths.
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	leaves, err := h.Engine.Store.ListLeaves(r.Context(), employeeID, engine.LeaveFilter{})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]LeaveDTO, 0, len(leaves))
	for _, req := range leaves {
		cal, err := engine.LoadCalendar(r.Context(), h.Engine.Store, employeeID, req.Interval.Start, req.Interval.End)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		out = append(out, toLeaveDTO(req, engine.Length(req.Interval, cal)))
	}
	h.writeJSON(w, http.StatusOK, out)
}

// ListTypes returns the leave type catalogue in display order.
func (h *Handler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Engine.Store.ListTypes(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]TypeDTO, 0, len(types))
	for _, t := range types {
		out = append(out, TypeDTO{ID: t.ID, Name: t.Name, Entitled: t.Entitled, Order: t.Order})
	}
	h.writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// LEAVE LIFECYCLE
// =============================================================================

// CreateLeave creates a new Planned or Requested leave.
func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	var body CreateLeaveRequest
	if err := decode(r, &body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	iv, err := parseInterval(body.StartDate, body.StartHalf, body.EndDate, body.EndHalf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req := &engine.LeaveRequest{
		EmployeeID: body.EmployeeID,
		TypeID:     body.TypeID,
		Interval:   iv,
		Cause:      body.Cause,
		Status:     engine.Status(body.Status),
	}
	created, err := h.Engine.SubmitLeave(r.Context(), actorFrom(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	length, err := h.leaveLength(r, created)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toLeaveDTO(*created, length))
}

// leaveLength computes a request's chargeable length with the employee's
// calendar, the same measure ListLeaves reports.
func (h *Handler) leaveLength(r *http.Request, req *engine.LeaveRequest) (engine.Duration, error) {
	cal, err := engine.LoadCalendar(r.Context(), h.Engine.Store, req.EmployeeID, req.Interval.Start, req.Interval.End)
	if err != nil {
		return engine.Duration{}, err
	}
	return engine.Length(req.Interval, cal), nil
}

// EditLeave replaces interval, type and cause of an existing leave.
func (h *Handler) EditLeave(w http.ResponseWriter, r *http.Request) {
	var body CreateLeaveRequest
	if err := decode(r, &body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	iv, err := parseInterval(body.StartDate, body.StartHalf, body.EndDate, body.EndHalf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	updated, err := h.Engine.EditLeave(r.Context(), actorFrom(r), chi.URLParam(r, "id"), iv, body.TypeID, body.Cause)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	length, err := h.leaveLength(r, updated)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toLeaveDTO(*updated, length))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(r *http.Request, id string) error) {
	id := chi.URLParam(r, "id")
	if err := op(r, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"id": id, "result": "ok"})
}

func (h *Handler) PromoteLeave(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id string) error {
		return h.Engine.PromoteLeave(r.Context(), actorFrom(r), id)
	})
}

func (h *Handler) AcceptLeave(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id string) error {
		return h.Engine.AcceptLeave(r.Context(), actorFrom(r), id)
	})
}

func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id string) error {
		return h.Engine.RejectLeave(r.Context(), actorFrom(r), id)
	})
}

func (h *Handler) CancelLeave(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id string) error {
		return h.Engine.CancelLeave(r.Context(), actorFrom(r), id)
	})
}

func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id string) error {
		return h.Engine.DeleteLeave(r.Context(), actorFrom(r), id)
	})
}

// =============================================================================
// OVERTIME LIFECYCLE
// =============================================================================

// CreateOvertime creates a new Planned or Requested overtime entry.
func (h *Handler) CreateOvertime(w http.ResponseWriter, r *http.Request) {
	var body CreateOvertimeRequest
	if err := decode(r, &body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	date, err := engine.ParseDate(body.Date)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	req := &engine.OvertimeRequest{
		EmployeeID: body.EmployeeID,
		Date:       date,
		StartTime:  body.StartTime,
		EndTime:    body.EndTime,
		Cause:      body.Cause,
		Status:     engine.Status(body.Status),
	}
	created, err := h.Engine.SubmitOvertime(r.Context(), actorFrom(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	minutes, _ := created.Minutes()
	h.writeJSON(w, http.StatusCreated, OvertimeDTO{
		ID:        created.ID,
		Employee:  created.EmployeeID,
		Date:      created.Date.String(),
		StartTime: created.StartTime,
		EndTime:   created.EndTime,
		Minutes:   minutes,
		Cause:     created.Cause,
		Status:    int(created.Status),
		StatusStr: created.Status.String(),
	})
}

func (h *Handler) PromoteOvertime(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id string) error {
		return h.Engine.PromoteOvertime(r.Context(), actorFrom(r), id)
	})
}

func (h *Handler) AcceptOvertime(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id string) error {
		return h.Engine.AcceptOvertime(r.Context(), actorFrom(r), id)
	})
}

func (h *Handler) RejectOvertime(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id string) error {
		return h.Engine.RejectOvertime(r.Context(), actorFrom(r), id)
	})
}

func (h *Handler) CancelOvertime(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id string) error {
		return h.Engine.CancelOvertime(r.Context(), actorFrom(r), id)
	})
}

func (h *Handler) DeleteOvertime(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(r *http.Request, id string) error {
		return h.Engine.DeleteOvertime(r.Context(), actorFrom(r), id)
	})
}

// =============================================================================
// GRANTS
// =============================================================================

// CreateGrant records an entitlement grant for an employee (HR only).
func (h *Handler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	var body CreateGrantRequest
	if err := decode(r, &body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	start, err := engine.ParseDate(body.PeriodStart)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	end, err := engine.ParseDate(body.PeriodEnd)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	days, err := decimal.NewFromString(body.Days)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid days quantity"})
		return
	}
	grant := &engine.EntitlementGrant{
		EmployeeID: chi.URLParam(r, "id"),
		TypeID:     body.TypeID,
		Period:     engine.Period{Start: start, End: end},
		Days:       days,
		Note:       body.Note,
	}
	created, err := h.Engine.CreateGrant(r.Context(), actorFrom(r), grant)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": created.ID})
}
