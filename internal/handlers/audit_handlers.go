package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/repository"
)

// AuditHandlers handles HTTP requests for the audit trail
type AuditHandlers struct {
	audits repository.AuditStore
	logger *logrus.Logger
}

// NewAuditHandlers creates a new audit handlers instance
func NewAuditHandlers(audits repository.AuditStore, logger *logrus.Logger) *AuditHandlers {
	return &AuditHandlers{audits: audits, logger: logger}
}

// ListAuditLogs retrieves audit entries with optional filters
// GET /api/v1/audit-logs
func (h *AuditHandlers) ListAuditLogs(c *gin.Context) {
	limit, offset := parsePagination(c)
	filter := repository.AuditFilter{
		Action:     models.AuditAction(c.Query("action")),
		EntityType: models.AuditEntity(c.Query("entityType")),
		Limit:      limit,
		Offset:     offset,
	}

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		filter.FromDate = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		filter.ToDate = &to
	}

	entries, total, err := h.audits.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list audit logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":   entries,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetEntityAuditTrail retrieves recent audit entries for one entity
// GET /api/v1/audit-logs/:entityType/:id
func (h *AuditHandlers) GetEntityAuditTrail(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	entityType := models.AuditEntity(c.Param("entityType"))
	entries, err := h.audits.ListByEntity(c.Request.Context(), entityType, id, 100)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get audit trail")
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": entries})
}
