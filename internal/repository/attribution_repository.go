package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partnerhub/attribution-service/internal/models"
)

// AttributionRepository handles database operations for attribution rows
type AttributionRepository struct {
	db *gorm.DB
}

// NewAttributionRepository creates a new attribution repository
func NewAttributionRepository(db *gorm.DB) *AttributionRepository {
	return &AttributionRepository{db: db}
}

// ReplaceForDeal rewrites the deal's full attribution row set and appends the
// audit entry in one transaction. Replace-not-merge keeps recalculation
// idempotent: an unchanged touchpoint set always produces the same rows.
func (r *AttributionRepository) ReplaceForDeal(ctx context.Context, dealID uuid.UUID, rows []models.Attribution, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deal_id = ?", dealID).Delete(&models.Attribution{}).Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 100).Error; err != nil {
				return err
			}
		}
		if entry != nil {
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListByDeal retrieves attribution rows for a deal, optionally one model only
func (r *AttributionRepository) ListByDeal(ctx context.Context, dealID uuid.UUID, model models.AttributionModel) ([]models.Attribution, error) {
	var rows []models.Attribution

	query := r.db.WithContext(ctx).Where("deal_id = ?", dealID)
	if model != "" {
		query = query.Where("model = ?", model)
	}

	if err := query.Order("model ASC, percentage DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByPartner retrieves a partner's attribution rows under one model
func (r *AttributionRepository) ListByPartner(ctx context.Context, partnerID uuid.UUID, model models.AttributionModel) ([]models.Attribution, error) {
	var rows []models.Attribution

	query := r.db.WithContext(ctx).Where("partner_id = ?", partnerID)
	if model != "" {
		query = query.Where("model = ?", model)
	}

	if err := query.Order("calculated_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListInRange retrieves all rows for one model calculated inside [from, to],
// used by reconciliation rollups
func (r *AttributionRepository) ListInRange(ctx context.Context, model models.AttributionModel, from, to time.Time) ([]models.Attribution, error) {
	var rows []models.Attribution
	err := r.db.WithContext(ctx).
		Where("model = ? AND calculated_at BETWEEN ? AND ?", model, from, to).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
