package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/payout"
)

// ErrPayoutImmutable is returned when updating or deleting a payout that has
// left pending_approval.
var ErrPayoutImmutable = errors.New("payout can only be modified while pending approval")

// PayoutFilter represents filter criteria for listing payouts
type PayoutFilter struct {
	PartnerID *uuid.UUID
	Status    models.PayoutStatus
	Period    string
	Limit     int
	Offset    int
}

// PayoutRepository handles database operations for payouts. Lifecycle guards
// are re-checked on a row-locked record inside the transaction that performs
// the write, so concurrent transitions on one payout serialize.
type PayoutRepository struct {
	db *gorm.DB
}

// NewPayoutRepository creates a new payout repository
func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// Create creates a payout in pending_approval and its audit entry together
func (r *PayoutRepository) Create(ctx context.Context, p *models.Payout, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if entry != nil {
			entry.EntityID = p.ID
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a payout by ID
func (r *PayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	var p models.Payout
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// List retrieves payouts with filtering and pagination
func (r *PayoutRepository) List(ctx context.Context, filter PayoutFilter) ([]models.Payout, int64, error) {
	var payouts []models.Payout
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Payout{})

	if filter.PartnerID != nil {
		query = query.Where("partner_id = ?", *filter.PartnerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Period != "" {
		query = query.Where("period = ?", filter.Period)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := 50
	if filter.Limit > 0 {
		limit = filter.Limit
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(filter.Offset).Find(&payouts).Error; err != nil {
		return nil, 0, err
	}

	return payouts, total, nil
}

// ListPaidInRange retrieves paid payouts created inside [from, to]
func (r *PayoutRepository) ListPaidInRange(ctx context.Context, from, to time.Time) ([]models.Payout, error) {
	var payouts []models.Payout
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at BETWEEN ? AND ?", models.PayoutPaid, from, to).
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

// Transition applies a lifecycle event with the guard re-checked under a row
// lock, and writes the audit entry in the same transaction. On guard failure
// the store is left unmodified and a *payout.InvalidTransitionError surfaces.
func (r *PayoutRepository) Transition(ctx context.Context, id uuid.UUID, event payout.Event, actor string) (*models.Payout, error) {
	var updated *models.Payout

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Payout
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error; err != nil {
			return err
		}

		previous := p.Status
		if err := payout.Transition(&p, event, actor, time.Now()); err != nil {
			return err
		}

		if err := tx.Save(&p).Error; err != nil {
			return err
		}

		entry, err := transitionAuditEntry(&p, previous, event, actor)
		if err != nil {
			return err
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		updated = &p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Update edits amount/period/notes; rejected once the payout has left
// pending_approval
func (r *PayoutRepository) Update(ctx context.Context, id uuid.UUID, amount *float64, period, notes *string) (*models.Payout, error) {
	var updated *models.Payout

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Payout
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if !p.IsMutable() {
			return ErrPayoutImmutable
		}

		if amount != nil {
			p.Amount = *amount
		}
		if period != nil {
			p.Period = *period
		}
		if notes != nil {
			p.Notes = *notes
		}

		if err := tx.Save(&p).Error; err != nil {
			return err
		}

		updated = &p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes a payout; rejected once it has left pending_approval
func (r *PayoutRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Payout
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		if !p.IsMutable() {
			return ErrPayoutImmutable
		}
		return tx.Delete(&p).Error
	})
}

// transitionAuditEntry builds the immutable audit record for one transition
func transitionAuditEntry(p *models.Payout, previous models.PayoutStatus, event payout.Event, actor string) (*models.AuditLog, error) {
	metadata, err := json.Marshal(map[string]interface{}{
		"previousStatus": previous,
		"newStatus":      p.Status,
		"amount":         p.Amount,
		"partnerId":      p.PartnerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit metadata: %w", err)
	}

	return &models.AuditLog{
		Action:      payout.AuditAction(event),
		EntityType:  models.EntityPayout,
		EntityID:    p.ID,
		Actor:       actor,
		Description: fmt.Sprintf("payout %s: %s -> %s", event, previous, p.Status),
		Metadata:    datatypes.JSON(metadata),
	}, nil
}
