package models

import (
	"time"

	"github.com/google/uuid"
)

// DateRange represents a reporting period
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// PartnerReconciliation is one partner's commission rollup for a period.
// Outstanding falls back to the full owed amount when the partner has no paid
// payouts in the period; that conflates "not yet paid" with "not yet
// scheduled" and is a documented simplification, not a true ledger
// reconciliation.
type PartnerReconciliation struct {
	PartnerID   uuid.UUID `json:"partnerId"`
	PartnerName string    `json:"partnerName"`

	DealsAttributed   int64   `json:"dealsAttributed"`
	AttributedRevenue float64 `json:"attributedRevenue"`
	CommissionOwed    float64 `json:"commissionOwed"`
	CommissionPaid    float64 `json:"commissionPaid"`
	Outstanding       float64 `json:"outstanding"`
}

// ReconciliationReport aggregates per-partner rollups for a period
type ReconciliationReport struct {
	DateRange DateRange `json:"dateRange"`

	Partners []PartnerReconciliation `json:"partners"`

	TotalAttributedRevenue float64 `json:"totalAttributedRevenue"`
	TotalCommissionOwed    float64 `json:"totalCommissionOwed"`
	TotalCommissionPaid    float64 `json:"totalCommissionPaid"`
	TotalOutstanding       float64 `json:"totalOutstanding"`
}

// ForecastScenario scales projected figures; a deterministic multiplier, not
// a statistical model
type ForecastScenario string

const (
	ScenarioConservative ForecastScenario = "conservative"
	ScenarioBase         ForecastScenario = "base"
	ScenarioOptimistic   ForecastScenario = "optimistic"
)

// ScenarioMultiplier returns the scaling factor for a scenario; unknown
// scenarios scale as base.
func ScenarioMultiplier(s ForecastScenario) float64 {
	switch s {
	case ScenarioConservative:
		return 0.7
	case ScenarioOptimistic:
		return 1.3
	default:
		return 1.0
	}
}

// ValidForecastScenario reports whether s is a known scenario
func ValidForecastScenario(s ForecastScenario) bool {
	switch s {
	case ScenarioConservative, ScenarioBase, ScenarioOptimistic:
		return true
	}
	return false
}

// ForecastMonth groups open deals by expected close month
type ForecastMonth struct {
	Month string `json:"month"` // "2026-09", or "unscheduled" when no expected close date

	DealCount           int64   `json:"dealCount"`
	ProjectedValue      float64 `json:"projectedValue"`
	ProjectedCommission float64 `json:"projectedCommission"`
}

// ForecastReport projects open pipeline value under a scenario
type ForecastReport struct {
	Scenario   ForecastScenario `json:"scenario"`
	Multiplier float64          `json:"multiplier"`

	Months []ForecastMonth `json:"months"`

	TotalProjectedValue      float64 `json:"totalProjectedValue"`
	TotalProjectedCommission float64 `json:"totalProjectedCommission"`
}
