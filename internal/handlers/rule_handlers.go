package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/services"
)

// RuleHandlers handles HTTP requests for commission rules
type RuleHandlers struct {
	service *services.RuleService
	logger  *logrus.Logger
}

// NewRuleHandlers creates a new rule handlers instance
func NewRuleHandlers(service *services.RuleService, logger *logrus.Logger) *RuleHandlers {
	return &RuleHandlers{service: service, logger: logger}
}

// CreateRule creates a commission rule
// POST /api/v1/commission-rules
func (h *RuleHandlers) CreateRule(c *gin.Context) {
	var rule models.CommissionRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Create(c.Request.Context(), &rule); err != nil {
		respondError(c, h.logger, err, "Failed to create commission rule")
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// GetRule retrieves a commission rule by ID
// GET /api/v1/commission-rules/:id
func (h *RuleHandlers) GetRule(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	rule, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get commission rule")
		return
	}

	c.JSON(http.StatusOK, rule)
}

// ListRules retrieves all rules in resolution order
// GET /api/v1/commission-rules
func (h *RuleHandlers) ListRules(c *gin.Context) {
	rules, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to list commission rules")
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// UpdateRule updates a commission rule
// PUT /api/v1/commission-rules/:id
func (h *RuleHandlers) UpdateRule(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var rule models.CommissionRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule.ID = id

	if err := h.service.Update(c.Request.Context(), &rule); err != nil {
		respondError(c, h.logger, err, "Failed to update commission rule")
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteRule removes a commission rule
// DELETE /api/v1/commission-rules/:id
func (h *RuleHandlers) DeleteRule(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete commission rule")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
