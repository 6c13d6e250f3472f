package models

import (
	"time"

	"github.com/google/uuid"
)

// DealStatus represents the lifecycle state of a deal.
// won and lost are terminal; the open -> won|lost transition is one-directional.
type DealStatus string

const (
	DealStatusOpen DealStatus = "open"
	DealStatusWon  DealStatus = "won"
	DealStatusLost DealStatus = "lost"
)

// TouchpointType identifies the sales-cycle role of a partner interaction
type TouchpointType string

const (
	TouchpointReferral            TouchpointType = "referral"
	TouchpointDemo                TouchpointType = "demo"
	TouchpointCoSell              TouchpointType = "co_sell"
	TouchpointDealRegistration    TouchpointType = "deal_registration"
	TouchpointIntroduction        TouchpointType = "introduction"
	TouchpointProposal            TouchpointType = "proposal"
	TouchpointNegotiation         TouchpointType = "negotiation"
	TouchpointContentShare        TouchpointType = "content_share"
	TouchpointTechnicalEnablement TouchpointType = "technical_enablement"
)

// Deal represents a revenue opportunity, typically imported from the CRM
type Deal struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`

	Name   string  `json:"name" gorm:"type:varchar(255);not null"`
	Amount float64 `json:"amount" gorm:"not null"` // deal value in dollars, must be > 0

	ProductLine string `json:"productLine" gorm:"type:varchar(100);index"`

	Status   DealStatus `json:"status" gorm:"type:varchar(20);not null;default:'open';index"`
	ClosedAt *time.Time `json:"closedAt,omitempty"` // set exactly when status becomes won/lost

	// ExpectedCloseAt drives forecast grouping for open deals
	ExpectedCloseAt *time.Time `json:"expectedCloseAt,omitempty"`

	// RegisteredBy is the partner who registered the deal, if any
	RegisteredBy *uuid.UUID `json:"registeredBy,omitempty" gorm:"type:uuid;index"`

	ContactName  string `json:"contactName" gorm:"type:varchar(255)"`
	ContactEmail string `json:"contactEmail" gorm:"type:varchar(255)"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (Deal) TableName() string {
	return "deals"
}

// IsClosed checks if the deal reached a terminal status
func (d *Deal) IsClosed() bool {
	return d.Status == DealStatusWon || d.Status == DealStatusLost
}

// CloseReference returns the timestamp attribution decay is anchored to:
// the close time for closed deals, otherwise now.
func (d *Deal) CloseReference(now time.Time) time.Time {
	if d.ClosedAt != nil {
		return *d.ClosedAt
	}
	return now
}

// Touchpoint records a single partner interaction with a deal.
// Touchpoints are append-only: they form the attribution evidence trail and
// are never edited or deleted once recorded.
type Touchpoint struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`

	DealID    uuid.UUID      `json:"dealId" gorm:"type:uuid;not null;index"`
	PartnerID uuid.UUID      `json:"partnerId" gorm:"type:uuid;not null;index"`
	Type      TouchpointType `json:"type" gorm:"type:varchar(50);not null"`
	Notes     string         `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt" gorm:"index;not null"`
}

// TableName specifies the table name
func (Touchpoint) TableName() string {
	return "touchpoints"
}

// ValidTouchpointType reports whether t is a known touchpoint type
func ValidTouchpointType(t TouchpointType) bool {
	switch t {
	case TouchpointReferral, TouchpointDemo, TouchpointCoSell, TouchpointDealRegistration,
		TouchpointIntroduction, TouchpointProposal, TouchpointNegotiation,
		TouchpointContentShare, TouchpointTechnicalEnablement:
		return true
	}
	return false
}
