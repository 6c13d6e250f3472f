package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/repository"
	"github.com/partnerhub/attribution-service/internal/services"
)

// PartnerHandlers handles HTTP requests for partner management
type PartnerHandlers struct {
	service *services.PartnerService
	logger  *logrus.Logger
}

// NewPartnerHandlers creates a new partner handlers instance
func NewPartnerHandlers(service *services.PartnerService, logger *logrus.Logger) *PartnerHandlers {
	return &PartnerHandlers{service: service, logger: logger}
}

// CreatePartnerRequest is the payload for partner creation
type CreatePartnerRequest struct {
	Name           string              `json:"name" binding:"required"`
	Email          string              `json:"email" binding:"required,email"`
	Type           models.PartnerType  `json:"type" binding:"required"`
	Tier           *models.PartnerTier `json:"tier"`
	CommissionRate float64             `json:"commissionRate"`
}

// CreatePartner registers a new partner
// POST /api/v1/partners
func (h *PartnerHandlers) CreatePartner(c *gin.Context) {
	var req CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	partner := &models.Partner{
		Name:           req.Name,
		Email:          req.Email,
		Type:           req.Type,
		Tier:           req.Tier,
		CommissionRate: req.CommissionRate,
	}

	if err := h.service.Create(c.Request.Context(), partner); err != nil {
		respondError(c, h.logger, err, "Failed to create partner")
		return
	}

	c.JSON(http.StatusCreated, partner)
}

// GetPartner retrieves a partner by ID
// GET /api/v1/partners/:id
func (h *PartnerHandlers) GetPartner(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	partner, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get partner")
		return
	}

	c.JSON(http.StatusOK, partner)
}

// ListPartners retrieves partners with optional filters
// GET /api/v1/partners
func (h *PartnerHandlers) ListPartners(c *gin.Context) {
	limit, offset := parsePagination(c)
	filter := repository.PartnerFilter{
		Type:   models.PartnerType(c.Query("type")),
		Tier:   models.PartnerTier(c.Query("tier")),
		Status: models.PartnerStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}

	partners, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list partners")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"partners": partners,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// UpdateProgramRequest carries partial program updates for a partner
type UpdateProgramRequest struct {
	Tier           *models.PartnerTier   `json:"tier"`
	CommissionRate *float64              `json:"commissionRate"`
	Status         *models.PartnerStatus `json:"status"`
}

// UpdateProgram changes a partner's tier, default rate, or status
// PATCH /api/v1/partners/:id
func (h *PartnerHandlers) UpdateProgram(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	partner, err := h.service.UpdateProgram(c.Request.Context(), id, req.Tier, req.CommissionRate, req.Status)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update partner")
		return
	}

	c.JSON(http.StatusOK, partner)
}

// DeactivatePartner soft-deletes a partner
// DELETE /api/v1/partners/:id
func (h *PartnerHandlers) DeactivatePartner(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	partner, err := h.service.Deactivate(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to deactivate partner")
		return
	}

	c.JSON(http.StatusOK, partner)
}
