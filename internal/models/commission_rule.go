package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CommissionRule overrides a partner's default commission rate when all of its
// set filter fields match the partner/deal pair. Unset filters are wildcards.
// Rules are evaluated in ascending priority order and the first match wins.
// Rules are not versioned: editing a rule never rewrites attribution rows that
// were already calculated.
type CommissionRule struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`

	Name string `json:"name" gorm:"type:varchar(255);not null"`

	// Optional filters; nil means "matches anything"
	PartnerType *PartnerType `json:"partnerType,omitempty" gorm:"type:varchar(50)"`
	PartnerTier *PartnerTier `json:"partnerTier,omitempty" gorm:"type:varchar(20)"`
	ProductLine *string      `json:"productLine,omitempty" gorm:"type:varchar(100)"`
	MinDealSize *float64     `json:"minDealSize,omitempty"`

	Rate     float64 `json:"rate" gorm:"not null"`     // fraction, 0-1
	Priority int     `json:"priority" gorm:"not null"` // lower number = evaluated first

	Active bool `json:"active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (CommissionRule) TableName() string {
	return "commission_rules"
}

// Validate rejects malformed rules at creation/update time so resolution
// never has to handle them.
func (r *CommissionRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Rate < 0 || r.Rate > 1 {
		return fmt.Errorf("rule rate must be a fraction between 0 and 1, got %v", r.Rate)
	}
	if r.Priority < 0 {
		return fmt.Errorf("rule priority must be non-negative, got %d", r.Priority)
	}
	if r.PartnerType != nil && !ValidPartnerType(*r.PartnerType) {
		return fmt.Errorf("unknown partner type %q", *r.PartnerType)
	}
	if r.PartnerTier != nil && !ValidPartnerTier(*r.PartnerTier) {
		return fmt.Errorf("unknown partner tier %q", *r.PartnerTier)
	}
	if r.MinDealSize != nil && *r.MinDealSize < 0 {
		return fmt.Errorf("minimum deal size must be non-negative, got %v", *r.MinDealSize)
	}
	return nil
}

// Matches reports whether every set filter on the rule matches the given
// partner and deal.
func (r *CommissionRule) Matches(partner *Partner, deal *Deal) bool {
	if r.PartnerType != nil && partner.Type != *r.PartnerType {
		return false
	}
	if r.PartnerTier != nil {
		if partner.Tier == nil || *partner.Tier != *r.PartnerTier {
			return false
		}
	}
	if r.ProductLine != nil && deal.ProductLine != *r.ProductLine {
		return false
	}
	if r.MinDealSize != nil && deal.Amount < *r.MinDealSize {
		return false
	}
	return true
}
