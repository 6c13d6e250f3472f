package models

import (
	"time"

	"github.com/google/uuid"
)

// PayoutStatus represents a payout's position in its approval lifecycle
type PayoutStatus string

const (
	PayoutPendingApproval PayoutStatus = "pending_approval"
	PayoutApproved        PayoutStatus = "approved"
	PayoutProcessing      PayoutStatus = "processing"
	PayoutPaid            PayoutStatus = "paid"
	PayoutRejected        PayoutStatus = "rejected"
	PayoutFailed          PayoutStatus = "failed"
)

// Payout represents accumulated commission owed to a partner for a period
type Payout struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`

	PartnerID uuid.UUID `json:"partnerId" gorm:"type:uuid;not null;index"`

	Amount float64      `json:"amount" gorm:"not null"` // must be > 0
	Status PayoutStatus `json:"status" gorm:"type:varchar(30);not null;default:'pending_approval';index"`

	// Period is an optional label, e.g. "2026-Q2"
	Period string `json:"period,omitempty" gorm:"type:varchar(50);index"`

	ApprovedBy *string    `json:"approvedBy,omitempty" gorm:"type:varchar(255)"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	PaidAt     *time.Time `json:"paidAt,omitempty"`

	Notes string `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (Payout) TableName() string {
	return "payouts"
}

// IsTerminal checks if the payout is in a state with no automatic exits.
// failed can still be manually re-approved.
func (p *Payout) IsTerminal() bool {
	return p.Status == PayoutPaid || p.Status == PayoutRejected
}

// IsMutable checks if the payout's amount/period/notes may still be edited
// or the payout deleted. Only pending payouts are mutable.
func (p *Payout) IsMutable() bool {
	return p.Status == PayoutPendingApproval
}
