package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/payout"
)

// PartnerStore defines the contract for partner persistence.
// Interfaces allow the service layer to be tested against in-memory fakes.
type PartnerStore interface {
	Create(ctx context.Context, partner *models.Partner) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Partner, error)
	List(ctx context.Context, filter PartnerFilter) ([]models.Partner, int64, error)
	Update(ctx context.Context, partner *models.Partner) error
}

// DealStore defines the contract for deal and touchpoint persistence
type DealStore interface {
	Create(ctx context.Context, deal *models.Deal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	List(ctx context.Context, filter DealFilter) ([]models.Deal, int64, error)
	ListOpen(ctx context.Context) ([]models.Deal, error)

	// Close transitions an open deal to won/lost and stamps closedAt, atomically.
	// Closing an already-closed deal fails with ErrDealClosed.
	Close(ctx context.Context, id uuid.UUID, status models.DealStatus, closedAt time.Time) (*models.Deal, error)

	AddTouchpoint(ctx context.Context, tp *models.Touchpoint) error
	ListTouchpoints(ctx context.Context, dealID uuid.UUID) ([]models.Touchpoint, error)
}

// RuleStore defines the contract for commission rule persistence
type RuleStore interface {
	Create(ctx context.Context, rule *models.CommissionRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CommissionRule, error)
	List(ctx context.Context) ([]models.CommissionRule, error)
	Update(ctx context.Context, rule *models.CommissionRule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AttributionStore defines the contract for attribution row persistence
type AttributionStore interface {
	// ReplaceForDeal atomically rewrites the full attribution row set for a
	// deal and appends the audit entry in the same transaction.
	ReplaceForDeal(ctx context.Context, dealID uuid.UUID, rows []models.Attribution, entry *models.AuditLog) error

	ListByDeal(ctx context.Context, dealID uuid.UUID, model models.AttributionModel) ([]models.Attribution, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID, model models.AttributionModel) ([]models.Attribution, error)
	ListInRange(ctx context.Context, model models.AttributionModel, from, to time.Time) ([]models.Attribution, error)
}

// PayoutStore defines the contract for payout persistence and transitions
type PayoutStore interface {
	Create(ctx context.Context, p *models.Payout, entry *models.AuditLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	List(ctx context.Context, filter PayoutFilter) ([]models.Payout, int64, error)
	ListPaidInRange(ctx context.Context, from, to time.Time) ([]models.Payout, error)

	// Transition re-checks the lifecycle guard and applies the event inside a
	// single row-locked transaction, appending the audit entry with it.
	Transition(ctx context.Context, id uuid.UUID, event payout.Event, actor string) (*models.Payout, error)

	// Update and Delete are only permitted while pending_approval
	Update(ctx context.Context, id uuid.UUID, amount *float64, period, notes *string) (*models.Payout, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditStore defines the contract for append-only audit log persistence
type AuditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByEntity(ctx context.Context, entityType models.AuditEntity, entityID uuid.UUID, limit int) ([]models.AuditLog, error)
	List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Compile-time checks that the gorm implementations satisfy the contracts
var (
	_ PartnerStore     = (*PartnerRepository)(nil)
	_ DealStore        = (*DealRepository)(nil)
	_ RuleStore        = (*RuleRepository)(nil)
	_ AttributionStore = (*AttributionRepository)(nil)
	_ PayoutStore      = (*PayoutRepository)(nil)
	_ AuditStore       = (*AuditRepository)(nil)
)
