/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the engine's
  internal model from the wire contract. The validate response keeps the
  historical field names (PeriodStartDate, listDaysOff, ...) that existing
  clients depend on.

ROUNDING:
  Balances are exact inside the engine; DTO construction is the one place
  where the three-decimal round-half-down presentation policy is applied.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/engine.go: The computed views behind them
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/absentia/leave-engine/engine"
)

// =============================================================================
// VALIDATE
// =============================================================================

// ValidateRequest is the combined pre-submission check input.
type ValidateRequest struct {
	EmployeeID string `json:"id"`
	TypeID     string `json:"type"`
	StartDate  string `json:"startdate"`
	EndDate    string `json:"enddate"`
	StartHalf  string `json:"startdatetype"`
	EndHalf    string `json:"enddatetype"`
	LeaveID    string `json:"leave_id,omitempty"` // set when validating an edit
}

// DayOffDTO is one non-working entry in the validate response.
type DayOffDTO struct {
	Date   string `json:"date"`
	Length string `json:"length"`
	Type   string `json:"type"`
	Title  string `json:"title,omitempty"`
}

// ValidateResponse mirrors the historical validate JSON shape.
type ValidateResponse struct {
	Credit           *decimal.Decimal `json:"credit"` // null when unavailable or unlimited
	CreditUnlimited  bool             `json:"creditUnlimited,omitempty"`
	Overlap          bool             `json:"overlap"`
	PeriodStartDate  *string          `json:"PeriodStartDate"`
	PeriodEndDate    *string          `json:"PeriodEndDate"`
	HasContract      bool             `json:"hasContract"`
	ListDaysOff      []DayOffDTO      `json:"listDaysOff,omitempty"`
	Length           decimal.Decimal  `json:"length"`
	LengthDaysOff    decimal.Decimal  `json:"lengthDaysOff"`
	OverlapDayOff    bool             `json:"overlapDayOff"`
	RequestStartDate string           `json:"RequestStartDate"`
	RequestEndDate   string           `json:"RequestEndDate"`
}

func toValidateResponse(v *engine.ValidationResult) ValidateResponse {
	out := ValidateResponse{
		Overlap:          v.Overlap,
		HasContract:      v.HasContract,
		Length:           v.Length,
		LengthDaysOff:    v.DaysOff,
		OverlapDayOff:    v.OverlapsDayOff,
		RequestStartDate: v.Start.String(),
		RequestEndDate:   v.End.String(),
	}
	if v.PeriodStart != nil {
		s := v.PeriodStart.String()
		out.PeriodStartDate = &s
	}
	if v.PeriodEnd != nil {
		s := v.PeriodEnd.String()
		out.PeriodEndDate = &s
	}
	if v.Credit.Known {
		rounded := engine.RoundHalfDown(v.Credit.Amount, 3)
		out.Credit = &rounded
	}
	out.CreditUnlimited = v.Credit.Unlimited
	for _, e := range v.ListDays {
		out.ListDaysOff = append(out.ListDaysOff, DayOffDTO{
			Date:   e.Date.String(),
			Length: e.Length().String(),
			Type:   e.Half.String(),
			Title:  e.Title,
		})
	}
	return out
}

// =============================================================================
// BALANCE SUMMARY
// =============================================================================

// TypeBalanceDTO is one leave type's line in the balance summary.
type TypeBalanceDTO struct {
	Granted   *decimal.Decimal `json:"granted"` // null when unavailable
	Unlimited bool             `json:"unlimited,omitempty"`
	Consumed  decimal.Decimal  `json:"consumed"`
	Balance   *decimal.Decimal `json:"balance"`
}

// BalanceSummaryDTO maps type name to its balance line.
type BalanceSummaryDTO struct {
	HasContract bool                      `json:"hasContract"`
	PeriodStart string                    `json:"periodStart"`
	PeriodEnd   string                    `json:"periodEnd"`
	Types       map[string]TypeBalanceDTO `json:"types"`
}

func toBalanceSummaryDTO(s *engine.BalanceSummary) BalanceSummaryDTO {
	out := BalanceSummaryDTO{
		HasContract: s.HasContract,
		PeriodStart: s.Period.Start.String(),
		PeriodEnd:   s.Period.End.String(),
		Types:       make(map[string]TypeBalanceDTO, len(s.Types)),
	}
	for name, line := range s.Types {
		dto := TypeBalanceDTO{
			Consumed:  engine.RoundHalfDown(line.Consumed, 3),
			Unlimited: line.Granted.Unlimited,
		}
		if line.Granted.Known {
			granted := engine.RoundHalfDown(line.Granted.Amount, 3)
			balance := engine.RoundHalfDown(line.Balance(), 3)
			dto.Granted = &granted
			dto.Balance = &balance
		}
		out.Types[name] = dto
	}
	return out
}

// =============================================================================
// MONTHLY PRESENCE
// =============================================================================

// PresenceDTO carries the monthly presence stats.
type PresenceDTO struct {
	Start    string          `json:"start"`
	End      string          `json:"end"`
	Total    int             `json:"total"`
	DayOffs  decimal.Decimal `json:"dayoffs"`
	Leaves   decimal.Decimal `json:"leaves"`
	OpenDays decimal.Decimal `json:"open"`
	WorkDays decimal.Decimal `json:"work"`
}

func toPresenceDTO(p *engine.MonthlyPresence) PresenceDTO {
	return PresenceDTO{
		Start:    p.Period.Start.String(),
		End:      p.Period.End.String(),
		Total:    p.TotalDays,
		DayOffs:  p.NonWorkingDays,
		Leaves:   p.LeaveDays,
		OpenDays: p.OpenDays,
		WorkDays: p.WorkDays,
	}
}

// =============================================================================
// REQUESTS
// =============================================================================

// CreateLeaveRequest is the request body for creating or editing a leave.
type CreateLeaveRequest struct {
	EmployeeID string `json:"employeeId"`
	TypeID     string `json:"type"`
	StartDate  string `json:"startdate"`
	EndDate    string `json:"enddate"`
	StartHalf  string `json:"startdatetype"`
	EndHalf    string `json:"enddatetype"`
	Cause      string `json:"cause,omitempty"`
	Status     int    `json:"status"` // Planned(1) or Requested(2)
}

// LeaveDTO is a leave request in API responses, with its computed length.
type LeaveDTO struct {
	ID        string          `json:"id"`
	Employee  string          `json:"employeeId"`
	Type      string          `json:"type"`
	StartDate string          `json:"startdate"`
	StartHalf string          `json:"startdatetype"`
	EndDate   string          `json:"enddate"`
	EndHalf   string          `json:"enddatetype"`
	Cause     string          `json:"cause,omitempty"`
	Status    int             `json:"status"`
	StatusStr string          `json:"statusLabel"`
	Length    decimal.Decimal `json:"length"`
}

func toLeaveDTO(req engine.LeaveRequest, length engine.Duration) LeaveDTO {
	return LeaveDTO{
		ID:        req.ID,
		Employee:  req.EmployeeID,
		Type:      req.TypeID,
		StartDate: req.Interval.Start.String(),
		StartHalf: req.Interval.StartHalf.String(),
		EndDate:   req.Interval.End.String(),
		EndHalf:   req.Interval.EndHalf.String(),
		Cause:     req.Cause,
		Status:    int(req.Status),
		StatusStr: req.Status.String(),
		Length:    length.Days(),
	}
}

// CreateOvertimeRequest is the request body for creating an overtime entry.
type CreateOvertimeRequest struct {
	EmployeeID string `json:"employeeId"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Cause      string `json:"cause,omitempty"`
	Status     int    `json:"status"`
}

// OvertimeDTO is an overtime request in API responses.
type OvertimeDTO struct {
	ID        string `json:"id"`
	Employee  string `json:"employeeId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Minutes   int    `json:"minutes"`
	Cause     string `json:"cause,omitempty"`
	Status    int    `json:"status"`
	StatusStr string `json:"statusLabel"`
}

// CreateGrantRequest is the request body for recording an entitlement grant.
type CreateGrantRequest struct {
	TypeID      string `json:"type"`
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
	Days        string `json:"days"` // signed decimal, half-day steps
	Note        string `json:"note,omitempty"`
}

// TypeDTO is a leave type in API responses.
type TypeDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Entitled bool   `json:"entitled"`
	Order    int    `json:"order"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
