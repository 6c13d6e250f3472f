package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partnerhub/attribution-service/internal/models"
)

// RuleRepository handles database operations for commission rules
type RuleRepository struct {
	db *gorm.DB
}

// NewRuleRepository creates a new commission rule repository
func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// Create creates a new commission rule
func (r *RuleRepository) Create(ctx context.Context, rule *models.CommissionRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

// GetByID retrieves a commission rule by ID
func (r *RuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CommissionRule, error) {
	var rule models.CommissionRule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

// List retrieves all commission rules in resolution order
func (r *RuleRepository) List(ctx context.Context) ([]models.CommissionRule, error) {
	var rules []models.CommissionRule
	err := r.db.WithContext(ctx).
		Order("priority ASC, created_at ASC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// Update persists changes to a commission rule
func (r *RuleRepository) Update(ctx context.Context, rule *models.CommissionRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

// Delete removes a commission rule
func (r *RuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CommissionRule{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
