package models

import (
	"time"

	"github.com/google/uuid"
)

// AttributionModel selects the algorithm used to split deal credit
type AttributionModel string

const (
	ModelEqualSplit AttributionModel = "equal_split"
	ModelFirstTouch AttributionModel = "first_touch"
	ModelLastTouch  AttributionModel = "last_touch"
	ModelTimeDecay  AttributionModel = "time_decay"
	ModelRoleBased  AttributionModel = "role_based"
)

// AllAttributionModels lists every supported model in a stable order
func AllAttributionModels() []AttributionModel {
	return []AttributionModel{
		ModelEqualSplit,
		ModelFirstTouch,
		ModelLastTouch,
		ModelTimeDecay,
		ModelRoleBased,
	}
}

// ValidAttributionModel reports whether m is a known model
func ValidAttributionModel(m AttributionModel) bool {
	switch m {
	case ModelEqualSplit, ModelFirstTouch, ModelLastTouch, ModelTimeDecay, ModelRoleBased:
		return true
	}
	return false
}

// PayableModel is the model actual commission payouts are based on;
// the other models are computed for reporting and comparison only.
const PayableModel = ModelRoleBased

// Attribution is a derived record assigning a share of a deal's revenue to a
// partner under one model. Rows are keyed by (deal, partner, model) and
// rewritten as a set whenever the deal's touchpoints change or the deal closes.
type Attribution struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`

	DealID    uuid.UUID        `json:"dealId" gorm:"type:uuid;not null;uniqueIndex:idx_attribution_key"`
	PartnerID uuid.UUID        `json:"partnerId" gorm:"type:uuid;not null;uniqueIndex:idx_attribution_key;index"`
	Model     AttributionModel `json:"model" gorm:"type:varchar(30);not null;uniqueIndex:idx_attribution_key"`

	// Percentage is the partner's share of the deal (0-100). For a given
	// (deal, model) the percentages across all rows sum to 100.
	Percentage       float64 `json:"percentage" gorm:"not null"`
	Amount           float64 `json:"amount" gorm:"not null"`           // deal amount x percentage/100
	CommissionRate   float64 `json:"commissionRate" gorm:"not null"`   // resolved rate, 0-1 fraction
	CommissionAmount float64 `json:"commissionAmount" gorm:"not null"` // amount x rate

	CalculatedAt time.Time `json:"calculatedAt" gorm:"not null;index"`
}

// TableName specifies the table name
func (Attribution) TableName() string {
	return "attributions"
}
