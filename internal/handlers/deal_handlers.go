package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/repository"
	"github.com/partnerhub/attribution-service/internal/services"
)

// DealHandlers handles HTTP requests for deals, touchpoints, and attribution
type DealHandlers struct {
	service *services.AttributionService
	logger  *logrus.Logger
}

// NewDealHandlers creates a new deal handlers instance
func NewDealHandlers(service *services.AttributionService, logger *logrus.Logger) *DealHandlers {
	return &DealHandlers{service: service, logger: logger}
}

// CreateDealRequest is the payload for deal registration
type CreateDealRequest struct {
	Name            string     `json:"name" binding:"required"`
	Amount          float64    `json:"amount" binding:"required"`
	ProductLine     string     `json:"productLine"`
	RegisteredBy    *uuid.UUID `json:"registeredBy"`
	ExpectedCloseAt *time.Time `json:"expectedCloseAt"`
}

// CreateDeal registers a deal from CRM sync or manual import
// POST /api/v1/deals
func (h *DealHandlers) CreateDeal(c *gin.Context) {
	var req CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deal := &models.Deal{
		Name:            req.Name,
		Amount:          req.Amount,
		ProductLine:     req.ProductLine,
		RegisteredBy:    req.RegisteredBy,
		ExpectedCloseAt: req.ExpectedCloseAt,
	}

	if err := h.service.CreateDeal(c.Request.Context(), deal); err != nil {
		respondError(c, h.logger, err, "Failed to create deal")
		return
	}

	c.JSON(http.StatusCreated, deal)
}

// GetDeal retrieves a deal by ID
// GET /api/v1/deals/:id
func (h *DealHandlers) GetDeal(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	deal, err := h.service.GetDeal(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get deal")
		return
	}

	c.JSON(http.StatusOK, deal)
}

// ListDeals retrieves deals with optional filters
// GET /api/v1/deals
func (h *DealHandlers) ListDeals(c *gin.Context) {
	limit, offset := parsePagination(c)
	filter := repository.DealFilter{
		Status: models.DealStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.Query("registeredBy"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registeredBy"})
			return
		}
		filter.RegisteredBy = &id
	}

	deals, total, err := h.service.ListDeals(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list deals")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deals":  deals,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// CloseDealRequest names the terminal status for a deal
type CloseDealRequest struct {
	Status models.DealStatus `json:"status" binding:"required"`
}

// CloseDeal transitions an open deal to won or lost
// POST /api/v1/deals/:id/close
func (h *DealHandlers) CloseDeal(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req CloseDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deal, err := h.service.CloseDeal(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, h.logger, err, "Failed to close deal")
		return
	}

	c.JSON(http.StatusOK, deal)
}

// AddTouchpointRequest is the payload for recording a partner touchpoint
type AddTouchpointRequest struct {
	PartnerID uuid.UUID             `json:"partnerId" binding:"required"`
	Type      models.TouchpointType `json:"type" binding:"required"`
	Notes     string                `json:"notes"`
}

// AddTouchpoint appends a touchpoint to a deal and recalculates attribution
// POST /api/v1/deals/:id/touchpoints
func (h *DealHandlers) AddTouchpoint(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req AddTouchpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tp, err := h.service.AddTouchpoint(c.Request.Context(), id, req.PartnerID, req.Type, req.Notes)
	if err != nil {
		respondError(c, h.logger, err, "Failed to add touchpoint")
		return
	}

	c.JSON(http.StatusCreated, tp)
}

// ListTouchpoints retrieves a deal's touchpoint ledger
// GET /api/v1/deals/:id/touchpoints
func (h *DealHandlers) ListTouchpoints(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	touchpoints, err := h.service.ListTouchpoints(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list touchpoints")
		return
	}

	c.JSON(http.StatusOK, gin.H{"touchpoints": touchpoints})
}

// GetDealAttribution retrieves attribution rows for a deal, optionally
// filtered to one model
// GET /api/v1/deals/:id/attribution
func (h *DealHandlers) GetDealAttribution(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	model := models.AttributionModel(c.Query("model"))
	rows, err := h.service.GetDealAttribution(c.Request.Context(), id, model)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get attribution")
		return
	}

	c.JSON(http.StatusOK, gin.H{"attribution": rows})
}

// RecalculateDeal rebuilds attribution rows from the current ledger
// POST /api/v1/deals/:id/attribution/recalculate
func (h *DealHandlers) RecalculateDeal(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	rows, err := h.service.RecalculateDeal(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to recalculate attribution")
		return
	}

	c.JSON(http.StatusOK, gin.H{"attribution": rows})
}

// GetPartnerAttribution retrieves a partner's attribution rows under a model
// GET /api/v1/partners/:id/attribution
func (h *DealHandlers) GetPartnerAttribution(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	model := models.AttributionModel(c.Query("model"))
	rows, err := h.service.GetPartnerAttribution(c.Request.Context(), id, model)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get partner attribution")
		return
	}

	c.JSON(http.StatusOK, gin.H{"attribution": rows})
}
