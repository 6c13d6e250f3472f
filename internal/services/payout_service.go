package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/partnerhub/attribution-service/internal/cache"
	"github.com/partnerhub/attribution-service/internal/events"
	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/payout"
	"github.com/partnerhub/attribution-service/internal/repository"
)

// BulkApproveResult reports partial-failure semantics for bulk approval:
// bad items are skipped with a reason, never failing the whole batch.
type BulkApproveResult struct {
	Approved []uuid.UUID   `json:"approved"`
	Skipped  []SkippedItem `json:"skipped"`
}

// SkippedItem identifies a payout the bulk operation could not approve
type SkippedItem struct {
	PayoutID uuid.UUID `json:"payoutId"`
	Reason   string    `json:"reason"`
}

// PayoutService manages the payout approval lifecycle. Guards live in the
// payout state table and are re-checked inside the repository transaction
// that persists each change.
type PayoutService struct {
	payouts     repository.PayoutStore
	partners    repository.PartnerStore
	publisher   *events.Publisher
	reportCache *cache.ReportCache
	logger      *logrus.Logger
}

// NewPayoutService creates a new payout service
func NewPayoutService(
	payouts repository.PayoutStore,
	partners repository.PartnerStore,
	publisher *events.Publisher,
	reportCache *cache.ReportCache,
	logger *logrus.Logger,
) *PayoutService {
	return &PayoutService{
		payouts:     payouts,
		partners:    partners,
		publisher:   publisher,
		reportCache: reportCache,
		logger:      logger,
	}
}

// Create creates a payout in pending_approval for accumulated commission
func (s *PayoutService) Create(ctx context.Context, partnerID uuid.UUID, amount float64, period, notes, actor string) (*models.Payout, error) {
	if amount <= 0 {
		return nil, invalidf("payout amount must be positive, got %v", amount)
	}
	if _, err := s.partners.GetByID(ctx, partnerID); err != nil {
		return nil, notFoundf(err, "partner %s", partnerID)
	}

	p := &models.Payout{
		PartnerID: partnerID,
		Amount:    amount,
		Status:    models.PayoutPendingApproval,
		Period:    period,
		Notes:     notes,
	}

	entry := &models.AuditLog{
		Action:      models.ActionCreate,
		EntityType:  models.EntityPayout,
		Actor:       actor,
		Description: fmt.Sprintf("created payout of %.2f for partner %s", amount, partnerID),
	}

	if err := s.payouts.Create(ctx, p, entry); err != nil {
		return nil, fmt.Errorf("failed to create payout: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"payout_id":  p.ID,
		"partner_id": partnerID,
		"amount":     amount,
	}).Info("Created payout")

	return p, nil
}

// Transition applies a lifecycle event. Guard failures surface as
// *payout.InvalidTransitionError with the store untouched.
func (s *PayoutService) Transition(ctx context.Context, id uuid.UUID, event payout.Event, actor string) (*models.Payout, error) {
	updated, err := s.payouts.Transition(ctx, id, event, actor)
	if err != nil {
		var invalid *payout.InvalidTransitionError
		if errors.As(err, &invalid) {
			return nil, err
		}
		return nil, notFoundf(err, "payout %s", id)
	}

	if err := s.publisher.PublishPayoutTransition(ctx, events.PayoutTransitionEvent{
		PayoutID:  updated.ID,
		PartnerID: updated.PartnerID,
		Event:     string(event),
		Status:    updated.Status,
		Amount:    updated.Amount,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to publish payout event")
	}
	s.reportCache.InvalidateReports(ctx)

	s.logger.WithFields(logrus.Fields{
		"payout_id": id,
		"event":     event,
		"status":    updated.Status,
	}).Info("Payout transition applied")

	return updated, nil
}

// Approve approves a pending payout
func (s *PayoutService) Approve(ctx context.Context, id uuid.UUID, actor string) (*models.Payout, error) {
	return s.Transition(ctx, id, payout.EventApprove, actor)
}

// Reject rejects a pending payout; rejected is terminal
func (s *PayoutService) Reject(ctx context.Context, id uuid.UUID, actor string) (*models.Payout, error) {
	return s.Transition(ctx, id, payout.EventReject, actor)
}

// MarkProcessing moves an approved payout into processing
func (s *PayoutService) MarkProcessing(ctx context.Context, id uuid.UUID, actor string) (*models.Payout, error) {
	return s.Transition(ctx, id, payout.EventMarkProcessing, actor)
}

// MarkPaid marks an approved payout as paid; processing is skippable
func (s *PayoutService) MarkPaid(ctx context.Context, id uuid.UUID, actor string) (*models.Payout, error) {
	return s.Transition(ctx, id, payout.EventMarkPaid, actor)
}

// MarkFailed marks a processing payout as failed
func (s *PayoutService) MarkFailed(ctx context.Context, id uuid.UUID, actor string) (*models.Payout, error) {
	return s.Transition(ctx, id, payout.EventMarkFailed, actor)
}

// Reapprove is the explicit manual path from failed back to approved
func (s *PayoutService) Reapprove(ctx context.Context, id uuid.UUID, actor string) (*models.Payout, error) {
	return s.Transition(ctx, id, payout.EventReapprove, actor)
}

// BulkApprove approves each payout independently, skipping and continuing on
// guard failures. Callers must inspect the result; skipped items leave their
// payout untouched.
func (s *PayoutService) BulkApprove(ctx context.Context, ids []uuid.UUID, actor string) *BulkApproveResult {
	result := &BulkApproveResult{
		Approved: []uuid.UUID{},
		Skipped:  []SkippedItem{},
	}

	for _, id := range ids {
		if _, err := s.payouts.Transition(ctx, id, payout.EventApprove, actor); err != nil {
			result.Skipped = append(result.Skipped, SkippedItem{PayoutID: id, Reason: err.Error()})
			continue
		}
		result.Approved = append(result.Approved, id)
	}

	if len(result.Approved) > 0 {
		s.reportCache.InvalidateReports(ctx)
	}

	s.logger.WithFields(logrus.Fields{
		"approved": len(result.Approved),
		"skipped":  len(result.Skipped),
	}).Info("Bulk approve finished")

	return result
}

// Update edits a payout's amount/period/notes while it is pending approval
func (s *PayoutService) Update(ctx context.Context, id uuid.UUID, amount *float64, period, notes *string) (*models.Payout, error) {
	if amount != nil && *amount <= 0 {
		return nil, invalidf("payout amount must be positive, got %v", *amount)
	}

	updated, err := s.payouts.Update(ctx, id, amount, period, notes)
	if err != nil {
		if errors.Is(err, repository.ErrPayoutImmutable) {
			return nil, err
		}
		return nil, notFoundf(err, "payout %s", id)
	}
	return updated, nil
}

// Delete removes a payout while it is pending approval
func (s *PayoutService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.payouts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrPayoutImmutable) {
			return err
		}
		return notFoundf(err, "payout %s", id)
	}
	return nil
}

// Get retrieves a payout by ID
func (s *PayoutService) Get(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	p, err := s.payouts.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundf(err, "payout %s", id)
	}
	return p, nil
}

// List retrieves payouts with filtering
func (s *PayoutService) List(ctx context.Context, filter repository.PayoutFilter) ([]models.Payout, int64, error) {
	return s.payouts.List(ctx, filter)
}
