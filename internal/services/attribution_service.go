package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/partnerhub/attribution-service/internal/attribution"
	"github.com/partnerhub/attribution-service/internal/cache"
	"github.com/partnerhub/attribution-service/internal/commission"
	"github.com/partnerhub/attribution-service/internal/events"
	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/repository"
)

// AttributionService orchestrates attribution recalculation. The engine
// itself is pure; this layer fetches snapshots, persists the derived rows,
// and makes the change observable via audit log and events.
type AttributionService struct {
	deals        repository.DealStore
	partners     repository.PartnerStore
	rules        repository.RuleStore
	attributions repository.AttributionStore
	publisher    *events.Publisher
	reportCache  *cache.ReportCache
	logger       *logrus.Logger
}

// NewAttributionService creates a new attribution service
func NewAttributionService(
	deals repository.DealStore,
	partners repository.PartnerStore,
	rules repository.RuleStore,
	attributions repository.AttributionStore,
	publisher *events.Publisher,
	reportCache *cache.ReportCache,
	logger *logrus.Logger,
) *AttributionService {
	return &AttributionService{
		deals:        deals,
		partners:     partners,
		rules:        rules,
		attributions: attributions,
		publisher:    publisher,
		reportCache:  reportCache,
		logger:       logger,
	}
}

// CreateDeal registers a deal from CRM sync or manual import
func (s *AttributionService) CreateDeal(ctx context.Context, deal *models.Deal) error {
	if deal.Name == "" {
		return invalidf("deal name is required")
	}
	if deal.Amount <= 0 {
		return invalidf("deal amount must be positive, got %v", deal.Amount)
	}
	if deal.RegisteredBy != nil {
		if _, err := s.partners.GetByID(ctx, *deal.RegisteredBy); err != nil {
			return notFoundf(err, "registering partner %s", *deal.RegisteredBy)
		}
	}
	deal.Status = models.DealStatusOpen
	deal.ClosedAt = nil

	if err := s.deals.Create(ctx, deal); err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}
	return nil
}

// GetDeal retrieves a deal by ID
func (s *AttributionService) GetDeal(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	deal, err := s.deals.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundf(err, "deal %s", id)
	}
	return deal, nil
}

// ListDeals retrieves deals with filtering
func (s *AttributionService) ListDeals(ctx context.Context, filter repository.DealFilter) ([]models.Deal, int64, error) {
	return s.deals.List(ctx, filter)
}

// ListTouchpoints retrieves a deal's touchpoint ledger in chronological order
func (s *AttributionService) ListTouchpoints(ctx context.Context, dealID uuid.UUID) ([]models.Touchpoint, error) {
	if _, err := s.deals.GetByID(ctx, dealID); err != nil {
		return nil, notFoundf(err, "deal %s", dealID)
	}
	return s.deals.ListTouchpoints(ctx, dealID)
}

// RecalculateDeal rewrites the deal's attribution rows for every model from
// the current touchpoint ledger. Recalculating with an unchanged ledger
// yields identical percentages and amounts. A deal with no touchpoints ends
// up with no rows, which is not an error.
func (s *AttributionService) RecalculateDeal(ctx context.Context, dealID uuid.UUID) ([]models.Attribution, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, notFoundf(err, "deal %s", dealID)
	}
	if deal.Amount <= 0 {
		return nil, invalidf("deal %s has non-positive amount %v", dealID, deal.Amount)
	}

	touchpoints, err := s.deals.ListTouchpoints(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to load touchpoints: %w", err)
	}

	rules, err := s.rules.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load commission rules: %w", err)
	}

	partnersByID, err := s.loadPartners(ctx, touchpoints)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var rows []models.Attribution
	for _, model := range models.AllAttributionModels() {
		shares, err := attribution.Compute(deal, touchpoints, model, now)
		if err != nil {
			return nil, invalidf("attribution failed for deal %s: %v", dealID, err)
		}

		for _, share := range shares {
			partner := partnersByID[share.PartnerID]
			rate := commission.ResolveRate(partner, deal, rules)

			rows = append(rows, models.Attribution{
				DealID:           dealID,
				PartnerID:        share.PartnerID,
				Model:            model,
				Percentage:       share.Percentage,
				Amount:           share.Amount,
				CommissionRate:   rate,
				CommissionAmount: commission.Amount(share.Amount, rate),
				CalculatedAt:     now,
			})
		}
	}

	entry, err := recalculationAuditEntry(deal, len(rows))
	if err != nil {
		return nil, err
	}

	if err := s.attributions.ReplaceForDeal(ctx, dealID, rows, entry); err != nil {
		return nil, fmt.Errorf("failed to persist attribution for deal %s: %w", dealID, err)
	}

	if err := s.publisher.PublishAttributionRecalculated(ctx, events.AttributionRecalculatedEvent{
		DealID:     dealID,
		DealStatus: string(deal.Status),
		RowCount:   len(rows),
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to publish attribution event")
	}
	s.reportCache.InvalidateReports(ctx)

	s.logger.WithFields(logrus.Fields{
		"deal_id":     dealID,
		"touchpoints": len(touchpoints),
		"rows":        len(rows),
	}).Info("Recalculated attribution")

	return rows, nil
}

// AddTouchpoint appends a touchpoint to the deal's ledger and recalculates
// attribution from the new ledger state.
func (s *AttributionService) AddTouchpoint(ctx context.Context, dealID, partnerID uuid.UUID, tpType models.TouchpointType, notes string) (*models.Touchpoint, error) {
	if !models.ValidTouchpointType(tpType) {
		return nil, invalidf("unknown touchpoint type %q", tpType)
	}

	if _, err := s.deals.GetByID(ctx, dealID); err != nil {
		return nil, notFoundf(err, "deal %s", dealID)
	}
	if _, err := s.partners.GetByID(ctx, partnerID); err != nil {
		return nil, notFoundf(err, "partner %s", partnerID)
	}

	tp := &models.Touchpoint{
		DealID:    dealID,
		PartnerID: partnerID,
		Type:      tpType,
		Notes:     notes,
		CreatedAt: time.Now(),
	}
	if err := s.deals.AddTouchpoint(ctx, tp); err != nil {
		return nil, fmt.Errorf("failed to record touchpoint: %w", err)
	}

	if _, err := s.RecalculateDeal(ctx, dealID); err != nil {
		s.logger.WithError(err).WithField("deal_id", dealID).Error("Recalculation after touchpoint failed")
		return nil, err
	}

	return tp, nil
}

// CloseDeal transitions an open deal to won or lost. Winning the deal
// finalizes attribution against the close timestamp.
func (s *AttributionService) CloseDeal(ctx context.Context, dealID uuid.UUID, status models.DealStatus) (*models.Deal, error) {
	if status != models.DealStatusWon && status != models.DealStatusLost {
		return nil, invalidf("close status must be won or lost, got %q", status)
	}

	deal, err := s.deals.Close(ctx, dealID, status, time.Now())
	if err != nil {
		return nil, notFoundf(err, "deal %s", dealID)
	}

	if status == models.DealStatusWon {
		if _, err := s.RecalculateDeal(ctx, dealID); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"deal_id": dealID,
		"status":  status,
	}).Info("Closed deal")

	return deal, nil
}

// GetDealAttribution retrieves persisted attribution rows for a deal; model
// is optional
func (s *AttributionService) GetDealAttribution(ctx context.Context, dealID uuid.UUID, model models.AttributionModel) ([]models.Attribution, error) {
	if model != "" && !models.ValidAttributionModel(model) {
		return nil, invalidf("unknown attribution model %q", model)
	}
	if _, err := s.deals.GetByID(ctx, dealID); err != nil {
		return nil, notFoundf(err, "deal %s", dealID)
	}
	return s.attributions.ListByDeal(ctx, dealID, model)
}

// GetPartnerAttribution retrieves a partner's rows under one model
func (s *AttributionService) GetPartnerAttribution(ctx context.Context, partnerID uuid.UUID, model models.AttributionModel) ([]models.Attribution, error) {
	if model == "" {
		model = models.PayableModel
	}
	if !models.ValidAttributionModel(model) {
		return nil, invalidf("unknown attribution model %q", model)
	}
	if _, err := s.partners.GetByID(ctx, partnerID); err != nil {
		return nil, notFoundf(err, "partner %s", partnerID)
	}
	return s.attributions.ListByPartner(ctx, partnerID, model)
}

// loadPartners fetches each distinct partner appearing in the touchpoint set
func (s *AttributionService) loadPartners(ctx context.Context, touchpoints []models.Touchpoint) (map[uuid.UUID]*models.Partner, error) {
	partnersByID := make(map[uuid.UUID]*models.Partner)
	for _, tp := range touchpoints {
		if _, ok := partnersByID[tp.PartnerID]; ok {
			continue
		}
		partner, err := s.partners.GetByID(ctx, tp.PartnerID)
		if err != nil {
			return nil, notFoundf(err, "partner %s", tp.PartnerID)
		}
		partnersByID[tp.PartnerID] = partner
	}
	return partnersByID, nil
}

func recalculationAuditEntry(deal *models.Deal, rowCount int) (*models.AuditLog, error) {
	metadata, err := json.Marshal(map[string]interface{}{
		"dealStatus": deal.Status,
		"dealAmount": deal.Amount,
		"rowCount":   rowCount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit metadata: %w", err)
	}

	return &models.AuditLog{
		Action:      models.ActionRecalculate,
		EntityType:  models.EntityAttribution,
		EntityID:    deal.ID,
		Actor:       "system",
		Description: fmt.Sprintf("recalculated attribution for deal %q (%d rows)", deal.Name, rowCount),
		Metadata:    datatypes.JSON(metadata),
	}, nil
}
