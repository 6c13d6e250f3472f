package models

import (
	"time"

	"github.com/google/uuid"
)

// PartnerType classifies how a partner engages with the program
type PartnerType string

const (
	PartnerTypeReseller    PartnerType = "reseller"
	PartnerTypeReferral    PartnerType = "referral"
	PartnerTypeIntegration PartnerType = "integration"
	PartnerTypeAffiliate   PartnerType = "affiliate"
	PartnerTypeAgency      PartnerType = "agency"
)

// PartnerTier represents the partner's program level
type PartnerTier string

const (
	TierBronze   PartnerTier = "bronze"
	TierSilver   PartnerTier = "silver"
	TierGold     PartnerTier = "gold"
	TierPlatinum PartnerTier = "platinum"
)

// PartnerStatus represents the partner's lifecycle state
type PartnerStatus string

const (
	PartnerStatusActive   PartnerStatus = "active"
	PartnerStatusPending  PartnerStatus = "pending"
	PartnerStatusInactive PartnerStatus = "inactive"
)

// Partner represents a channel partner enrolled in the program.
// Partners are never hard-deleted; deactivation sets status to inactive.
type Partner struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`

	Name         string `json:"name" gorm:"type:varchar(255);not null"`
	Email        string `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	ContactName  string `json:"contactName" gorm:"type:varchar(255)"`
	ContactPhone string `json:"contactPhone" gorm:"type:varchar(50)"`

	Type PartnerType  `json:"type" gorm:"type:varchar(50);not null;index"`
	Tier *PartnerTier `json:"tier,omitempty" gorm:"type:varchar(20);index"` // nil = untiered

	// CommissionRate is the default flat percentage (0-100) applied when no
	// commission rule matches.
	CommissionRate float64 `json:"commissionRate" gorm:"not null;default:10"`

	Status    PartnerStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Territory string        `json:"territory" gorm:"type:varchar(100)"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (Partner) TableName() string {
	return "partners"
}

// IsActive checks if the partner can participate in attribution
func (p *Partner) IsActive() bool {
	return p.Status == PartnerStatusActive
}

// HasTier checks if the partner has been assigned a program tier
func (p *Partner) HasTier() bool {
	return p.Tier != nil && *p.Tier != ""
}

// ValidPartnerType reports whether t is a known partner type
func ValidPartnerType(t PartnerType) bool {
	switch t {
	case PartnerTypeReseller, PartnerTypeReferral, PartnerTypeIntegration, PartnerTypeAffiliate, PartnerTypeAgency:
		return true
	}
	return false
}

// ValidPartnerTier reports whether t is a known tier
func ValidPartnerTier(t PartnerTier) bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}
