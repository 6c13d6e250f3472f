package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/services"
)

// ReportHandlers handles HTTP requests for reconciliation and forecasting
type ReportHandlers struct {
	service *services.ReportingService
	logger  *logrus.Logger
}

// NewReportHandlers creates a new report handlers instance
func NewReportHandlers(service *services.ReportingService, logger *logrus.Logger) *ReportHandlers {
	return &ReportHandlers{service: service, logger: logger}
}

// GetReconciliation retrieves the commission reconciliation rollup
// GET /api/v1/reports/reconciliation
func (h *ReportHandlers) GetReconciliation(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.service.Reconcile(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.logger, err, "Failed to generate reconciliation report")
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportReconciliation exports the reconciliation rollup as CSV
// GET /api/v1/reports/reconciliation/export
func (h *ReportHandlers) ExportReconciliation(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := h.service.ExportReconciliationCSV(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.logger, err, "Failed to export reconciliation report")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=reconciliation-report.csv")
	c.Data(http.StatusOK, "text/csv", data)
}

// GetForecast retrieves the commission forecast for a scenario
// GET /api/v1/reports/forecast
func (h *ReportHandlers) GetForecast(c *gin.Context) {
	scenario := models.ForecastScenario(c.DefaultQuery("scenario", string(models.ScenarioBase)))

	report, err := h.service.Forecast(c.Request.Context(), scenario)
	if err != nil {
		respondError(c, h.logger, err, "Failed to generate forecast")
		return
	}

	c.JSON(http.StatusOK, report)
}
