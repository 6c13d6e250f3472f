package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partnerhub/attribution-service/internal/models"
)

// PartnerFilter represents filter criteria for listing partners
type PartnerFilter struct {
	Type   models.PartnerType
	Tier   models.PartnerTier
	Status models.PartnerStatus
	Limit  int
	Offset int
}

// PartnerRepository handles database operations for partners
type PartnerRepository struct {
	db *gorm.DB
}

// NewPartnerRepository creates a new partner repository
func NewPartnerRepository(db *gorm.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// Create creates a new partner
func (r *PartnerRepository) Create(ctx context.Context, partner *models.Partner) error {
	return r.db.WithContext(ctx).Create(partner).Error
}

// GetByID retrieves a partner by ID
func (r *PartnerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	var partner models.Partner
	if err := r.db.WithContext(ctx).First(&partner, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

// List retrieves partners with filtering and pagination
func (r *PartnerRepository) List(ctx context.Context, filter PartnerFilter) ([]models.Partner, int64, error) {
	var partners []models.Partner
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Partner{})

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Tier != "" {
		query = query.Where("tier = ?", filter.Tier)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := 50
	if filter.Limit > 0 {
		limit = filter.Limit
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(filter.Offset).Find(&partners).Error; err != nil {
		return nil, 0, err
	}

	return partners, total, nil
}

// Update persists changes to a partner
func (r *PartnerRepository) Update(ctx context.Context, partner *models.Partner) error {
	return r.db.WithContext(ctx).Save(partner).Error
}
