package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/partnerhub/attribution-service/internal/cache"
	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/repository"
)

// ReportingService builds period-bounded rollups from finalized attribution
// and payout records. Everything here is read-only aggregation.
type ReportingService struct {
	deals        repository.DealStore
	partners     repository.PartnerStore
	attributions repository.AttributionStore
	payouts      repository.PayoutStore
	reportCache  *cache.ReportCache
	logger       *logrus.Logger
}

// NewReportingService creates a new reporting service
func NewReportingService(
	deals repository.DealStore,
	partners repository.PartnerStore,
	attributions repository.AttributionStore,
	payouts repository.PayoutStore,
	reportCache *cache.ReportCache,
	logger *logrus.Logger,
) *ReportingService {
	return &ReportingService{
		deals:        deals,
		partners:     partners,
		attributions: attributions,
		payouts:      payouts,
		reportCache:  reportCache,
		logger:       logger,
	}
}

// Reconcile rolls up commission owed vs paid per partner for [from, to].
// Owed sums role_based commission amounts calculated in range; paid sums paid
// payouts created in range. A partner with no paid payouts reports the full
// owed amount outstanding, which overstates liability for periods where
// payouts were simply not scheduled yet.
func (s *ReportingService) Reconcile(ctx context.Context, from, to time.Time) (*models.ReconciliationReport, error) {
	if !to.After(from) {
		return nil, invalidf("reconciliation range end must be after start")
	}

	key := cache.ReconciliationKey(from, to)
	var cached models.ReconciliationReport
	if err := s.reportCache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	rows, err := s.attributions.ListInRange(ctx, models.PayableModel, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load attribution rows: %w", err)
	}

	paid, err := s.payouts.ListPaidInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load paid payouts: %w", err)
	}

	type rollup struct {
		deals   map[uuid.UUID]bool
		revenue float64
		owed    float64
		paid    float64
	}
	byPartner := make(map[uuid.UUID]*rollup)
	get := func(id uuid.UUID) *rollup {
		if r, ok := byPartner[id]; ok {
			return r
		}
		r := &rollup{deals: make(map[uuid.UUID]bool)}
		byPartner[id] = r
		return r
	}

	for _, row := range rows {
		r := get(row.PartnerID)
		r.deals[row.DealID] = true
		r.revenue += row.Amount
		r.owed += row.CommissionAmount
	}
	for _, p := range paid {
		get(p.PartnerID).paid += p.Amount
	}

	report := &models.ReconciliationReport{
		DateRange: models.DateRange{From: from, To: to},
	}

	for partnerID, r := range byPartner {
		partner, err := s.partners.GetByID(ctx, partnerID)
		if err != nil {
			return nil, notFoundf(err, "partner %s", partnerID)
		}

		outstanding := round2(r.owed - r.paid)
		line := models.PartnerReconciliation{
			PartnerID:         partnerID,
			PartnerName:       partner.Name,
			DealsAttributed:   int64(len(r.deals)),
			AttributedRevenue: round2(r.revenue),
			CommissionOwed:    round2(r.owed),
			CommissionPaid:    round2(r.paid),
			Outstanding:       outstanding,
		}
		report.Partners = append(report.Partners, line)

		report.TotalAttributedRevenue += line.AttributedRevenue
		report.TotalCommissionOwed += line.CommissionOwed
		report.TotalCommissionPaid += line.CommissionPaid
		report.TotalOutstanding += line.Outstanding
	}

	sort.Slice(report.Partners, func(i, j int) bool {
		if report.Partners[i].CommissionOwed != report.Partners[j].CommissionOwed {
			return report.Partners[i].CommissionOwed > report.Partners[j].CommissionOwed
		}
		return report.Partners[i].PartnerID.String() < report.Partners[j].PartnerID.String()
	})

	report.TotalAttributedRevenue = round2(report.TotalAttributedRevenue)
	report.TotalCommissionOwed = round2(report.TotalCommissionOwed)
	report.TotalCommissionPaid = round2(report.TotalCommissionPaid)
	report.TotalOutstanding = round2(report.TotalOutstanding)

	s.reportCache.Set(ctx, key, report)

	s.logger.WithFields(logrus.Fields{
		"partners": len(report.Partners),
		"owed":     report.TotalCommissionOwed,
		"paid":     report.TotalCommissionPaid,
	}).Info("Generated reconciliation report")

	return report, nil
}

// Forecast groups open deals by expected close month and scales projected
// value and commission by the scenario multiplier.
func (s *ReportingService) Forecast(ctx context.Context, scenario models.ForecastScenario) (*models.ForecastReport, error) {
	if !models.ValidForecastScenario(scenario) {
		return nil, invalidf("unknown forecast scenario %q", scenario)
	}

	key := cache.ForecastKey(string(scenario))
	var cached models.ForecastReport
	if err := s.reportCache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	open, err := s.deals.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load open deals: %w", err)
	}

	multiplier := models.ScenarioMultiplier(scenario)
	months := make(map[string]*models.ForecastMonth)

	for i := range open {
		deal := &open[i]

		label := "unscheduled"
		if deal.ExpectedCloseAt != nil {
			label = deal.ExpectedCloseAt.Format("2006-01")
		}

		month, ok := months[label]
		if !ok {
			month = &models.ForecastMonth{Month: label}
			months[label] = month
		}

		month.DealCount++
		month.ProjectedValue += deal.Amount * multiplier

		rows, err := s.attributions.ListByDeal(ctx, deal.ID, models.PayableModel)
		if err != nil {
			return nil, fmt.Errorf("failed to load attribution for deal %s: %w", deal.ID, err)
		}
		for _, row := range rows {
			month.ProjectedCommission += row.CommissionAmount * multiplier
		}
	}

	report := &models.ForecastReport{
		Scenario:   scenario,
		Multiplier: multiplier,
	}
	for _, month := range months {
		month.ProjectedValue = round2(month.ProjectedValue)
		month.ProjectedCommission = round2(month.ProjectedCommission)
		report.Months = append(report.Months, *month)
		report.TotalProjectedValue += month.ProjectedValue
		report.TotalProjectedCommission += month.ProjectedCommission
	}
	sort.Slice(report.Months, func(i, j int) bool {
		// "unscheduled" sorts after dated months
		if (report.Months[i].Month == "unscheduled") != (report.Months[j].Month == "unscheduled") {
			return report.Months[j].Month == "unscheduled"
		}
		return report.Months[i].Month < report.Months[j].Month
	})
	report.TotalProjectedValue = round2(report.TotalProjectedValue)
	report.TotalProjectedCommission = round2(report.TotalProjectedCommission)

	s.reportCache.Set(ctx, key, report)

	return report, nil
}

// ExportReconciliationCSV renders the reconciliation rollup as CSV
func (s *ReportingService) ExportReconciliationCSV(ctx context.Context, from, to time.Time) ([]byte, error) {
	report, err := s.Reconcile(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var csvData [][]string
	csvData = append(csvData, []string{
		"Partner", "Deals Attributed", "Attributed Revenue", "Commission Owed", "Commission Paid", "Outstanding",
	})
	for _, line := range report.Partners {
		csvData = append(csvData, []string{
			line.PartnerName,
			fmt.Sprintf("%d", line.DealsAttributed),
			fmt.Sprintf("%.2f", line.AttributedRevenue),
			fmt.Sprintf("%.2f", line.CommissionOwed),
			fmt.Sprintf("%.2f", line.CommissionPaid),
			fmt.Sprintf("%.2f", line.Outstanding),
		})
	}
	csvData = append(csvData, []string{
		"TOTAL",
		"",
		fmt.Sprintf("%.2f", report.TotalAttributedRevenue),
		fmt.Sprintf("%.2f", report.TotalCommissionOwed),
		fmt.Sprintf("%.2f", report.TotalCommissionPaid),
		fmt.Sprintf("%.2f", report.TotalOutstanding),
	})

	var buf []byte
	writer := csv.NewWriter(&csvWriter{data: &buf})
	if err := writer.WriteAll(csvData); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}

	return buf, nil
}

// csvWriter is a helper to write CSV to byte slice
type csvWriter struct {
	data *[]byte
}

func (w *csvWriter) Write(p []byte) (n int, err error) {
	*w.data = append(*w.data, p...)
	return len(p), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
