package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partnerhub/attribution-service/internal/cache"
	"github.com/partnerhub/attribution-service/internal/models"
)

type reportingFixture struct {
	svc          *ReportingService
	deals        *fakeDealStore
	partners     *fakePartnerStore
	attributions *fakeAttributionStore
	payouts      *fakePayoutStore
}

func newReportingFixture() *reportingFixture {
	logger := testLogger()
	deals := newFakeDealStore()
	partners := newFakePartnerStore()
	attributions := &fakeAttributionStore{}
	payouts := newFakePayoutStore()

	svc := NewReportingService(
		deals,
		partners,
		attributions,
		payouts,
		cache.NewReportCache(nil, logger, 0),
		logger,
	)
	return &reportingFixture{svc: svc, deals: deals, partners: partners, attributions: attributions, payouts: payouts}
}

func (f *reportingFixture) addPartner(t *testing.T, name string) uuid.UUID {
	t.Helper()
	p := &models.Partner{Name: name, Email: name + "@partners.example", Type: models.PartnerTypeReferral, Status: models.PartnerStatusActive}
	require.NoError(t, f.partners.Create(context.Background(), p))
	return p.ID
}

func TestReconcile_OwedVersusPaid(t *testing.T) {
	f := newReportingFixture()
	ctx := context.Background()

	alpha := f.addPartner(t, "alpha")
	beta := f.addPartner(t, "beta")

	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC)
	inRange := from.AddDate(0, 1, 0)

	dealOne := uuid.New()
	dealTwo := uuid.New()

	f.attributions.rows = []models.Attribution{
		{DealID: dealOne, PartnerID: alpha, Model: models.PayableModel, Amount: 40000, CommissionAmount: 4000, CalculatedAt: inRange},
		{DealID: dealTwo, PartnerID: alpha, Model: models.PayableModel, Amount: 10000, CommissionAmount: 1000, CalculatedAt: inRange},
		{DealID: dealTwo, PartnerID: beta, Model: models.PayableModel, Amount: 20000, CommissionAmount: 2000, CalculatedAt: inRange},
		// other models never feed reconciliation
		{DealID: dealOne, PartnerID: beta, Model: models.ModelEqualSplit, Amount: 99999, CommissionAmount: 9999, CalculatedAt: inRange},
		// outside the window
		{DealID: dealOne, PartnerID: alpha, Model: models.PayableModel, Amount: 5000, CommissionAmount: 500, CalculatedAt: from.AddDate(-1, 0, 0)},
	}

	paidAt := inRange
	require.NoError(t, f.payouts.Create(ctx, &models.Payout{
		PartnerID: alpha, Amount: 3000, Status: models.PayoutPaid, CreatedAt: paidAt, PaidAt: &paidAt,
	}, nil))
	// pending payouts do not count as paid
	require.NoError(t, f.payouts.Create(ctx, &models.Payout{
		PartnerID: beta, Amount: 2000, Status: models.PayoutPendingApproval, CreatedAt: paidAt,
	}, nil))

	report, err := f.svc.Reconcile(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, report.Partners, 2)

	// sorted by owed descending: alpha owed 5000, beta 2000
	a := report.Partners[0]
	assert.Equal(t, alpha, a.PartnerID)
	assert.Equal(t, int64(2), a.DealsAttributed)
	assert.Equal(t, 50000.0, a.AttributedRevenue)
	assert.Equal(t, 5000.0, a.CommissionOwed)
	assert.Equal(t, 3000.0, a.CommissionPaid)
	assert.Equal(t, 2000.0, a.Outstanding)

	b := report.Partners[1]
	assert.Equal(t, beta, b.PartnerID)
	assert.Equal(t, 2000.0, b.CommissionOwed)
	assert.Equal(t, 0.0, b.CommissionPaid)
	assert.Equal(t, 2000.0, b.Outstanding)

	assert.Equal(t, 7000.0, report.TotalCommissionOwed)
	assert.Equal(t, 3000.0, report.TotalCommissionPaid)
	assert.Equal(t, 4000.0, report.TotalOutstanding)
}

func TestReconcile_RejectsInvertedRange(t *testing.T) {
	f := newReportingFixture()
	now := time.Now()

	_, err := f.svc.Reconcile(context.Background(), now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestForecast_ScenarioMultipliers(t *testing.T) {
	f := newReportingFixture()
	ctx := context.Background()

	alpha := f.addPartner(t, "alpha")
	june := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	deal := &models.Deal{Name: "open pipeline", Amount: 10000, Status: models.DealStatusOpen, ExpectedCloseAt: &june}
	require.NoError(t, f.deals.Create(ctx, deal))
	f.attributions.rows = []models.Attribution{
		{DealID: deal.ID, PartnerID: alpha, Model: models.PayableModel, Amount: 10000, CommissionAmount: 1000, CalculatedAt: time.Now()},
	}

	// closed deals never appear in a forecast
	won := &models.Deal{Name: "already won", Amount: 50000, Status: models.DealStatusWon}
	require.NoError(t, f.deals.Create(ctx, won))

	base, err := f.svc.Forecast(ctx, models.ScenarioBase)
	require.NoError(t, err)
	require.Len(t, base.Months, 1)
	assert.Equal(t, "2026-06", base.Months[0].Month)
	assert.Equal(t, int64(1), base.Months[0].DealCount)
	assert.Equal(t, 10000.0, base.Months[0].ProjectedValue)
	assert.Equal(t, 1000.0, base.Months[0].ProjectedCommission)

	conservative, err := f.svc.Forecast(ctx, models.ScenarioConservative)
	require.NoError(t, err)
	assert.Equal(t, 7000.0, conservative.TotalProjectedValue)
	assert.Equal(t, 700.0, conservative.TotalProjectedCommission)

	optimistic, err := f.svc.Forecast(ctx, models.ScenarioOptimistic)
	require.NoError(t, err)
	assert.Equal(t, 13000.0, optimistic.TotalProjectedValue)

	_, err = f.svc.Forecast(ctx, "wishful")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestForecast_UnscheduledDealsSortLast(t *testing.T) {
	f := newReportingFixture()
	ctx := context.Background()

	july := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.deals.Create(ctx, &models.Deal{Name: "dated", Amount: 1000, Status: models.DealStatusOpen, ExpectedCloseAt: &july}))
	require.NoError(t, f.deals.Create(ctx, &models.Deal{Name: "undated", Amount: 2000, Status: models.DealStatusOpen}))

	report, err := f.svc.Forecast(ctx, models.ScenarioBase)
	require.NoError(t, err)
	require.Len(t, report.Months, 2)
	assert.Equal(t, "2026-07", report.Months[0].Month)
	assert.Equal(t, "unscheduled", report.Months[1].Month)
}

func TestExportReconciliationCSV(t *testing.T) {
	f := newReportingFixture()
	ctx := context.Background()

	alpha := f.addPartner(t, "alpha")
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 3, 0)

	f.attributions.rows = []models.Attribution{
		{DealID: uuid.New(), PartnerID: alpha, Model: models.PayableModel, Amount: 1000, CommissionAmount: 100, CalculatedAt: from.AddDate(0, 1, 0)},
	}

	data, err := f.svc.ExportReconciliationCSV(ctx, from, to)
	require.NoError(t, err)

	csv := string(data)
	assert.True(t, strings.HasPrefix(csv, "Partner,"))
	assert.Contains(t, csv, "alpha")
	assert.Contains(t, csv, "100.00")
	assert.Contains(t, csv, "TOTAL")
}
