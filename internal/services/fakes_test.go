package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/payout"
	"github.com/partnerhub/attribution-service/internal/repository"
)

// In-memory store fakes so service behavior can be tested without Postgres.
// They mirror the guard semantics of the gorm repositories.

type fakePartnerStore struct {
	partners map[uuid.UUID]models.Partner
}

func newFakePartnerStore() *fakePartnerStore {
	return &fakePartnerStore{partners: make(map[uuid.UUID]models.Partner)}
}

func (f *fakePartnerStore) Create(_ context.Context, p *models.Partner) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.partners[p.ID] = *p
	return nil
}

func (f *fakePartnerStore) GetByID(_ context.Context, id uuid.UUID) (*models.Partner, error) {
	p, ok := f.partners[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := p
	return &out, nil
}

func (f *fakePartnerStore) List(_ context.Context, _ repository.PartnerFilter) ([]models.Partner, int64, error) {
	var out []models.Partner
	for _, p := range f.partners {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (f *fakePartnerStore) Update(_ context.Context, p *models.Partner) error {
	if _, ok := f.partners[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.partners[p.ID] = *p
	return nil
}

type fakeDealStore struct {
	deals       map[uuid.UUID]models.Deal
	touchpoints []models.Touchpoint
}

func newFakeDealStore() *fakeDealStore {
	return &fakeDealStore{deals: make(map[uuid.UUID]models.Deal)}
}

func (f *fakeDealStore) Create(_ context.Context, d *models.Deal) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.deals[d.ID] = *d
	return nil
}

func (f *fakeDealStore) GetByID(_ context.Context, id uuid.UUID) (*models.Deal, error) {
	d, ok := f.deals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := d
	return &out, nil
}

func (f *fakeDealStore) List(_ context.Context, filter repository.DealFilter) ([]models.Deal, int64, error) {
	var out []models.Deal
	for _, d := range f.deals {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, d)
	}
	return out, int64(len(out)), nil
}

func (f *fakeDealStore) ListOpen(_ context.Context) ([]models.Deal, error) {
	var out []models.Deal
	for _, d := range f.deals {
		if d.Status == models.DealStatusOpen {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakeDealStore) Close(_ context.Context, id uuid.UUID, status models.DealStatus, closedAt time.Time) (*models.Deal, error) {
	d, ok := f.deals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if d.IsClosed() {
		return nil, repository.ErrDealClosed
	}
	d.Status = status
	d.ClosedAt = &closedAt
	f.deals[id] = d
	out := d
	return &out, nil
}

func (f *fakeDealStore) AddTouchpoint(_ context.Context, tp *models.Touchpoint) error {
	if tp.ID == uuid.Nil {
		tp.ID = uuid.New()
	}
	f.touchpoints = append(f.touchpoints, *tp)
	return nil
}

func (f *fakeDealStore) ListTouchpoints(_ context.Context, dealID uuid.UUID) ([]models.Touchpoint, error) {
	var out []models.Touchpoint
	for _, tp := range f.touchpoints {
		if tp.DealID == dealID {
			out = append(out, tp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakeRuleStore struct {
	rules map[uuid.UUID]models.CommissionRule
}

func newFakeRuleStore() *fakeRuleStore {
	return &fakeRuleStore{rules: make(map[uuid.UUID]models.CommissionRule)}
}

func (f *fakeRuleStore) Create(_ context.Context, r *models.CommissionRule) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	f.rules[r.ID] = *r
	return nil
}

func (f *fakeRuleStore) GetByID(_ context.Context, id uuid.UUID) (*models.CommissionRule, error) {
	r, ok := f.rules[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := r
	return &out, nil
}

func (f *fakeRuleStore) List(_ context.Context) ([]models.CommissionRule, error) {
	var out []models.CommissionRule
	for _, r := range f.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeRuleStore) Update(_ context.Context, r *models.CommissionRule) error {
	if _, ok := f.rules[r.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.rules[r.ID] = *r
	return nil
}

func (f *fakeRuleStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.rules[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.rules, id)
	return nil
}

type fakeAttributionStore struct {
	rows    []models.Attribution
	entries []models.AuditLog
}

func (f *fakeAttributionStore) ReplaceForDeal(_ context.Context, dealID uuid.UUID, rows []models.Attribution, entry *models.AuditLog) error {
	kept := f.rows[:0]
	for _, row := range f.rows {
		if row.DealID != dealID {
			kept = append(kept, row)
		}
	}
	f.rows = append(kept, rows...)
	if entry != nil {
		f.entries = append(f.entries, *entry)
	}
	return nil
}

func (f *fakeAttributionStore) ListByDeal(_ context.Context, dealID uuid.UUID, model models.AttributionModel) ([]models.Attribution, error) {
	var out []models.Attribution
	for _, row := range f.rows {
		if row.DealID != dealID {
			continue
		}
		if model != "" && row.Model != model {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeAttributionStore) ListByPartner(_ context.Context, partnerID uuid.UUID, model models.AttributionModel) ([]models.Attribution, error) {
	var out []models.Attribution
	for _, row := range f.rows {
		if row.PartnerID == partnerID && row.Model == model {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeAttributionStore) ListInRange(_ context.Context, model models.AttributionModel, from, to time.Time) ([]models.Attribution, error) {
	var out []models.Attribution
	for _, row := range f.rows {
		if row.Model != model {
			continue
		}
		if row.CalculatedAt.Before(from) || row.CalculatedAt.After(to) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

type fakePayoutStore struct {
	payouts map[uuid.UUID]models.Payout
	entries []models.AuditLog
}

func newFakePayoutStore() *fakePayoutStore {
	return &fakePayoutStore{payouts: make(map[uuid.UUID]models.Payout)}
}

func (f *fakePayoutStore) Create(_ context.Context, p *models.Payout, entry *models.AuditLog) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	f.payouts[p.ID] = *p
	if entry != nil {
		f.entries = append(f.entries, *entry)
	}
	return nil
}

func (f *fakePayoutStore) GetByID(_ context.Context, id uuid.UUID) (*models.Payout, error) {
	p, ok := f.payouts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := p
	return &out, nil
}

func (f *fakePayoutStore) List(_ context.Context, filter repository.PayoutFilter) ([]models.Payout, int64, error) {
	var out []models.Payout
	for _, p := range f.payouts {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (f *fakePayoutStore) ListPaidInRange(_ context.Context, from, to time.Time) ([]models.Payout, error) {
	var out []models.Payout
	for _, p := range f.payouts {
		if p.Status != models.PayoutPaid {
			continue
		}
		if p.CreatedAt.Before(from) || p.CreatedAt.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePayoutStore) Transition(_ context.Context, id uuid.UUID, event payout.Event, actor string) (*models.Payout, error) {
	p, ok := f.payouts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if err := payout.Transition(&p, event, actor, time.Now()); err != nil {
		return nil, err
	}
	f.payouts[id] = p
	f.entries = append(f.entries, models.AuditLog{
		Action:     payout.AuditAction(event),
		EntityType: models.EntityPayout,
		EntityID:   id,
		Actor:      actor,
	})
	out := p
	return &out, nil
}

func (f *fakePayoutStore) Update(_ context.Context, id uuid.UUID, amount *float64, period, notes *string) (*models.Payout, error) {
	p, ok := f.payouts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if !p.IsMutable() {
		return nil, repository.ErrPayoutImmutable
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
	f.payouts[id] = p
	out := p
	return &out, nil
}

func (f *fakePayoutStore) Delete(_ context.Context, id uuid.UUID) error {
	p, ok := f.payouts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if !p.IsMutable() {
		return repository.ErrPayoutImmutable
	}
	delete(f.payouts, id)
	return nil
}

type fakeAuditStore struct {
	entries []models.AuditLog
}

func (f *fakeAuditStore) Create(_ context.Context, entry *models.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditStore) ListByEntity(_ context.Context, entityType models.AuditEntity, entityID uuid.UUID, _ int) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for _, e := range f.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditStore) List(_ context.Context, _ repository.AuditFilter) ([]models.AuditLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

func (f *fakeAuditStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	kept := f.entries[:0]
	var deleted int64
	for _, e := range f.entries {
		if e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return deleted, nil
}
