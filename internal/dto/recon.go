package dto

import (
	"time"

	"github.com/fintrackr/recon_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OutcomeResponse is the caller-facing result of one target's recomputation.
type OutcomeResponse struct {
	TargetType string                 `json:"targetType"`
	TargetID   string                 `json:"targetID"`
	State      string                 `json:"state"`
	Balance    *domain.Balance        `json:"balance,omitempty"`
	Cashback   *domain.CashbackResult `json:"cashback,omitempty"`
	NetOwed    *domain.NetOwed        `json:"netOwed,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// ToOutcomeResponse converts a domain.Outcome to its response DTO.
func ToOutcomeResponse(o *domain.Outcome) OutcomeResponse {
	return OutcomeResponse{
		TargetType: string(o.Target.Type),
		TargetID:   o.Target.ID,
		State:      string(o.State),
		Balance:    o.Balance,
		Cashback:   o.Cashback,
		NetOwed:    o.NetOwed,
		Error:      o.Err,
	}
}

// ReportResponse aggregates per-target outcomes of a fan-out recomputation.
type ReportResponse struct {
	StartedAt time.Time         `json:"startedAt"`
	EndedAt   time.Time         `json:"endedAt"`
	Targets   int               `json:"targets"`
	Failed    int               `json:"failed"`
	Outcomes  []OutcomeResponse `json:"outcomes"`
}

// ToReportResponse converts a domain.Report to its response DTO.
func ToReportResponse(r *domain.Report) ReportResponse {
	resp := ReportResponse{
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
		Targets:   len(r.Outcomes),
		Outcomes:  make([]OutcomeResponse, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		out := o
		resp.Outcomes = append(resp.Outcomes, ToOutcomeResponse(&out))
		if o.State != domain.RunCommitted {
			resp.Failed++
		}
	}
	return resp
}

// CashbackResponse is the caller-facing cashback read for one cycle.
type CashbackResponse struct {
	AccountID     string          `json:"accountID"`
	CycleStart    time.Time       `json:"cycleStart"`
	CycleEnd      time.Time       `json:"cycleEnd"`
	EligibleSpend decimal.Decimal `json:"eligibleSpend"`
	Earned        decimal.Decimal `json:"earned"`
}

// ToCashbackResponse converts a domain.CashbackResult to its response DTO.
func ToCashbackResponse(r *domain.CashbackResult) CashbackResponse {
	return CashbackResponse{
		AccountID:     r.AccountID,
		CycleStart:    r.Cycle.Start,
		CycleEnd:      r.Cycle.End,
		EligibleSpend: r.EligibleSpend,
		Earned:        r.Earned,
	}
}

// NetOwedResponse is the caller-facing debt read for one person or group.
type NetOwedResponse struct {
	PersonID string          `json:"personID"`
	Amount   decimal.Decimal `json:"amount"`
	Surplus  decimal.Decimal `json:"surplus"`
}

// ToNetOwedResponse converts a domain.NetOwed to its response DTO.
func ToNetOwedResponse(n *domain.NetOwed) NetOwedResponse {
	return NetOwedResponse{PersonID: n.PersonID, Amount: n.Amount, Surplus: n.Surplus}
}

// CashbackQueryParams selects the cycle for a cashback read. Omitting both
// year and month selects the cycle containing today.
type CashbackQueryParams struct {
	Year  int `form:"year"`
	Month int `form:"month" binding:"omitempty,min=1,max=12"`
}
