package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/repository"
)

// RuleService manages commission rule CRUD. Malformed rules are rejected here
// so the resolver never sees them. Rules are not versioned; editing one does
// not rewrite attributions that were already calculated.
type RuleService struct {
	rules  repository.RuleStore
	audits repository.AuditStore
	logger *logrus.Logger
}

// NewRuleService creates a new commission rule service
func NewRuleService(rules repository.RuleStore, audits repository.AuditStore, logger *logrus.Logger) *RuleService {
	return &RuleService{rules: rules, audits: audits, logger: logger}
}

// Create validates and stores a new commission rule
func (s *RuleService) Create(ctx context.Context, rule *models.CommissionRule) error {
	if err := rule.Validate(); err != nil {
		return invalidf("%v", err)
	}

	if err := s.rules.Create(ctx, rule); err != nil {
		return fmt.Errorf("failed to create commission rule: %w", err)
	}

	s.audit(ctx, models.ActionCreate, rule.ID, fmt.Sprintf("created commission rule %q (priority %d, rate %.2f)", rule.Name, rule.Priority, rule.Rate))
	return nil
}

// Get retrieves a commission rule by ID
func (s *RuleService) Get(ctx context.Context, id uuid.UUID) (*models.CommissionRule, error) {
	rule, err := s.rules.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundf(err, "commission rule %s", id)
	}
	return rule, nil
}

// List retrieves all rules in resolution order
func (s *RuleService) List(ctx context.Context) ([]models.CommissionRule, error) {
	return s.rules.List(ctx)
}

// Update validates and persists changes to a commission rule
func (s *RuleService) Update(ctx context.Context, rule *models.CommissionRule) error {
	if err := rule.Validate(); err != nil {
		return invalidf("%v", err)
	}
	if _, err := s.rules.GetByID(ctx, rule.ID); err != nil {
		return notFoundf(err, "commission rule %s", rule.ID)
	}

	if err := s.rules.Update(ctx, rule); err != nil {
		return fmt.Errorf("failed to update commission rule: %w", err)
	}

	s.audit(ctx, models.ActionUpdate, rule.ID, fmt.Sprintf("updated commission rule %q", rule.Name))
	return nil
}

// Delete removes a commission rule
func (s *RuleService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.rules.Delete(ctx, id); err != nil {
		return notFoundf(err, "commission rule %s", id)
	}

	s.audit(ctx, models.ActionDelete, id, "deleted commission rule")
	return nil
}

func (s *RuleService) audit(ctx context.Context, action models.AuditAction, id uuid.UUID, description string) {
	entry := &models.AuditLog{
		Action:      action,
		EntityType:  models.EntityCommissionRule,
		EntityID:    id,
		Actor:       "admin",
		Description: description,
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		s.logger.WithError(err).Warn("Failed to write rule audit entry")
	}
}
