package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/repository"
)

// PartnerService manages partner records. Partners are never hard-deleted;
// deactivation flips status to inactive so attribution history stays intact.
type PartnerService struct {
	partners repository.PartnerStore
	audits   repository.AuditStore
	logger   *logrus.Logger
}

// NewPartnerService creates a new partner service
func NewPartnerService(partners repository.PartnerStore, audits repository.AuditStore, logger *logrus.Logger) *PartnerService {
	return &PartnerService{partners: partners, audits: audits, logger: logger}
}

// Create registers a new partner, typically on application approval
func (s *PartnerService) Create(ctx context.Context, partner *models.Partner) error {
	if partner.Name == "" || partner.Email == "" {
		return invalidf("partner name and email are required")
	}
	if !models.ValidPartnerType(partner.Type) {
		return invalidf("unknown partner type %q", partner.Type)
	}
	if partner.Tier != nil && !models.ValidPartnerTier(*partner.Tier) {
		return invalidf("unknown partner tier %q", *partner.Tier)
	}
	if partner.CommissionRate < 0 || partner.CommissionRate > 100 {
		return invalidf("commission rate must be a percentage between 0 and 100, got %v", partner.CommissionRate)
	}
	if partner.Status == "" {
		partner.Status = models.PartnerStatusPending
	}

	if err := s.partners.Create(ctx, partner); err != nil {
		return fmt.Errorf("failed to create partner: %w", err)
	}

	s.audit(ctx, models.ActionCreate, partner.ID, fmt.Sprintf("created partner %q", partner.Name))
	return nil
}

// Get retrieves a partner by ID
func (s *PartnerService) Get(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	partner, err := s.partners.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundf(err, "partner %s", id)
	}
	return partner, nil
}

// List retrieves partners with filtering
func (s *PartnerService) List(ctx context.Context, filter repository.PartnerFilter) ([]models.Partner, int64, error) {
	return s.partners.List(ctx, filter)
}

// UpdateProgram changes a partner's tier, default rate, or status. Rate and
// tier changes never retroactively alter calculated attributions.
func (s *PartnerService) UpdateProgram(ctx context.Context, id uuid.UUID, tier *models.PartnerTier, rate *float64, status *models.PartnerStatus) (*models.Partner, error) {
	partner, err := s.partners.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundf(err, "partner %s", id)
	}

	if tier != nil {
		if !models.ValidPartnerTier(*tier) {
			return nil, invalidf("unknown partner tier %q", *tier)
		}
		partner.Tier = tier
	}
	if rate != nil {
		if *rate < 0 || *rate > 100 {
			return nil, invalidf("commission rate must be a percentage between 0 and 100, got %v", *rate)
		}
		partner.CommissionRate = *rate
	}
	if status != nil {
		switch *status {
		case models.PartnerStatusActive, models.PartnerStatusPending, models.PartnerStatusInactive:
			partner.Status = *status
		default:
			return nil, invalidf("unknown partner status %q", *status)
		}
	}

	if err := s.partners.Update(ctx, partner); err != nil {
		return nil, fmt.Errorf("failed to update partner: %w", err)
	}

	s.audit(ctx, models.ActionUpdate, partner.ID, fmt.Sprintf("updated program settings for partner %q", partner.Name))
	return partner, nil
}

// Deactivate soft-deletes a partner by setting status to inactive
func (s *PartnerService) Deactivate(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	inactive := models.PartnerStatusInactive
	return s.UpdateProgram(ctx, id, nil, nil, &inactive)
}

func (s *PartnerService) audit(ctx context.Context, action models.AuditAction, id uuid.UUID, description string) {
	entry := &models.AuditLog{
		Action:      action,
		EntityType:  models.EntityPartner,
		EntityID:    id,
		Actor:       "admin",
		Description: description,
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		s.logger.WithError(err).Warn("Failed to write partner audit entry")
	}
}
