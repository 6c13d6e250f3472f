package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditAction represents the type of action performed
type AuditAction string

const (
	ActionCreate AuditAction = "CREATE"
	ActionUpdate AuditAction = "UPDATE"
	ActionDelete AuditAction = "DELETE"

	// Payout workflow actions
	ActionApprove        AuditAction = "APPROVE"
	ActionReject         AuditAction = "REJECT"
	ActionMarkProcessing AuditAction = "MARK_PROCESSING"
	ActionMarkPaid       AuditAction = "MARK_PAID"
	ActionMarkFailed     AuditAction = "MARK_FAILED"
	ActionReapprove      AuditAction = "REAPPROVE"

	// Attribution actions
	ActionRecalculate AuditAction = "RECALCULATE"
)

// AuditEntity represents the type of entity being audited
type AuditEntity string

const (
	EntityPartner        AuditEntity = "PARTNER"
	EntityDeal           AuditEntity = "DEAL"
	EntityTouchpoint     AuditEntity = "TOUCHPOINT"
	EntityAttribution    AuditEntity = "ATTRIBUTION"
	EntityCommissionRule AuditEntity = "COMMISSION_RULE"
	EntityPayout         AuditEntity = "PAYOUT"
)

// AuditLog is an append-only compliance record. Entries are immutable once
// written; the service exposes no update or delete path for them apart from
// scheduled retention cleanup.
type AuditLog struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`

	Action     AuditAction `json:"action" gorm:"type:varchar(50);not null;index"`
	EntityType AuditEntity `json:"entityType" gorm:"type:varchar(50);not null;index"`
	EntityID   uuid.UUID   `json:"entityId" gorm:"type:uuid;not null;index"`

	// Actor is the admin user or system component that performed the action
	Actor string `json:"actor" gorm:"type:varchar(255)"`

	Description string         `json:"description" gorm:"type:text"`
	Metadata    datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"createdAt" gorm:"index;not null"`
}

// TableName specifies the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate hook to set timestamp
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return nil
}
