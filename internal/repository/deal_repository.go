package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/partnerhub/attribution-service/internal/models"
)

// ErrDealClosed is returned when closing a deal that already reached a
// terminal status; won/lost are irreversible.
var ErrDealClosed = errors.New("deal is already closed")

// DealFilter represents filter criteria for listing deals
type DealFilter struct {
	Status       models.DealStatus
	RegisteredBy *uuid.UUID
	Limit        int
	Offset       int
}

// DealRepository handles database operations for deals and their touchpoints
type DealRepository struct {
	db *gorm.DB
}

// NewDealRepository creates a new deal repository
func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{db: db}
}

// Create creates a new deal
func (r *DealRepository) Create(ctx context.Context, deal *models.Deal) error {
	return r.db.WithContext(ctx).Create(deal).Error
}

// GetByID retrieves a deal by ID
func (r *DealRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	if err := r.db.WithContext(ctx).First(&deal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

// List retrieves deals with filtering and pagination
func (r *DealRepository) List(ctx context.Context, filter DealFilter) ([]models.Deal, int64, error) {
	var deals []models.Deal
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Deal{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RegisteredBy != nil {
		query = query.Where("registered_by = ?", *filter.RegisteredBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := 50
	if filter.Limit > 0 {
		limit = filter.Limit
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(filter.Offset).Find(&deals).Error; err != nil {
		return nil, 0, err
	}

	return deals, total, nil
}

// ListOpen retrieves all open deals, used by forecasting
func (r *DealRepository) ListOpen(ctx context.Context) ([]models.Deal, error) {
	var deals []models.Deal
	err := r.db.WithContext(ctx).
		Where("status = ?", models.DealStatusOpen).
		Order("expected_close_at ASC NULLS LAST").
		Find(&deals).Error
	if err != nil {
		return nil, err
	}
	return deals, nil
}

// Close transitions an open deal to won/lost. The guard is re-checked on the
// row-locked record inside the transaction, so concurrent closes cannot both
// succeed.
func (r *DealRepository) Close(ctx context.Context, id uuid.UUID, status models.DealStatus, closedAt time.Time) (*models.Deal, error) {
	var closed *models.Deal

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deal models.Deal
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&deal, "id = ?", id).Error; err != nil {
			return err
		}
		if deal.IsClosed() {
			return ErrDealClosed
		}

		deal.Status = status
		deal.ClosedAt = &closedAt
		if err := tx.Save(&deal).Error; err != nil {
			return err
		}

		closed = &deal
		return nil
	})
	if err != nil {
		return nil, err
	}

	return closed, nil
}

// AddTouchpoint appends a touchpoint to the ledger. There is deliberately no
// update or delete counterpart.
func (r *DealRepository) AddTouchpoint(ctx context.Context, tp *models.Touchpoint) error {
	return r.db.WithContext(ctx).Create(tp).Error
}

// ListTouchpoints retrieves a deal's touchpoints in chronological order
func (r *DealRepository) ListTouchpoints(ctx context.Context, dealID uuid.UUID) ([]models.Touchpoint, error) {
	var touchpoints []models.Touchpoint
	err := r.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order("created_at ASC").
		Find(&touchpoints).Error
	if err != nil {
		return nil, err
	}
	return touchpoints, nil
}
