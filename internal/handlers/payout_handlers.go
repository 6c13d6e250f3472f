package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/partnerhub/attribution-service/internal/models"
	"github.com/partnerhub/attribution-service/internal/repository"
	"github.com/partnerhub/attribution-service/internal/services"
)

// PayoutHandlers handles HTTP requests for the payout lifecycle
type PayoutHandlers struct {
	service *services.PayoutService
	logger  *logrus.Logger
}

// NewPayoutHandlers creates a new payout handlers instance
func NewPayoutHandlers(service *services.PayoutService, logger *logrus.Logger) *PayoutHandlers {
	return &PayoutHandlers{service: service, logger: logger}
}

// CreatePayoutRequest is the payload for payout creation
type CreatePayoutRequest struct {
	PartnerID uuid.UUID `json:"partnerId" binding:"required"`
	Amount    float64   `json:"amount" binding:"required"`
	Period    string    `json:"period"`
	Notes     string    `json:"notes"`
}

// CreatePayout creates a payout in pending approval
// POST /api/v1/payouts
func (h *PayoutHandlers) CreatePayout(c *gin.Context) {
	var req CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.Create(c.Request.Context(), req.PartnerID, req.Amount, req.Period, req.Notes, actor(c))
	if err != nil {
		respondError(c, h.logger, err, "Failed to create payout")
		return
	}

	c.JSON(http.StatusCreated, p)
}

// GetPayout retrieves a payout by ID
// GET /api/v1/payouts/:id
func (h *PayoutHandlers) GetPayout(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get payout")
		return
	}

	c.JSON(http.StatusOK, p)
}

// ListPayouts retrieves payouts with optional filters
// GET /api/v1/payouts
func (h *PayoutHandlers) ListPayouts(c *gin.Context) {
	limit, offset := parsePagination(c)
	filter := repository.PayoutFilter{
		Status: models.PayoutStatus(c.Query("status")),
		Period: c.Query("period"),
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.Query("partnerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid partnerId"})
			return
		}
		filter.PartnerID = &id
	}

	payouts, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list payouts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payouts": payouts,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// ApprovePayout approves a pending payout
// POST /api/v1/payouts/:id/approve
func (h *PayoutHandlers) ApprovePayout(c *gin.Context) {
	h.transition(c, h.service.Approve, "Failed to approve payout")
}

// RejectPayout rejects a pending payout
// POST /api/v1/payouts/:id/reject
func (h *PayoutHandlers) RejectPayout(c *gin.Context) {
	h.transition(c, h.service.Reject, "Failed to reject payout")
}

// MarkPayoutProcessing moves an approved payout into processing
// POST /api/v1/payouts/:id/process
func (h *PayoutHandlers) MarkPayoutProcessing(c *gin.Context) {
	h.transition(c, h.service.MarkProcessing, "Failed to mark payout processing")
}

// MarkPayoutPaid marks an approved or processing payout as paid
// POST /api/v1/payouts/:id/pay
func (h *PayoutHandlers) MarkPayoutPaid(c *gin.Context) {
	h.transition(c, h.service.MarkPaid, "Failed to mark payout paid")
}

// MarkPayoutFailed marks a processing payout as failed
// POST /api/v1/payouts/:id/fail
func (h *PayoutHandlers) MarkPayoutFailed(c *gin.Context) {
	h.transition(c, h.service.MarkFailed, "Failed to mark payout failed")
}

// ReapprovePayout returns a failed payout to approved for retry
// POST /api/v1/payouts/:id/reapprove
func (h *PayoutHandlers) ReapprovePayout(c *gin.Context) {
	h.transition(c, h.service.Reapprove, "Failed to reapprove payout")
}

// BulkApproveRequest lists payouts to approve in one batch
type BulkApproveRequest struct {
	PayoutIDs []uuid.UUID `json:"payoutIds" binding:"required"`
}

// BulkApprovePayouts approves payouts one by one, reporting skips
// POST /api/v1/payouts/bulk-approve
func (h *PayoutHandlers) BulkApprovePayouts(c *gin.Context) {
	var req BulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.service.BulkApprove(c.Request.Context(), req.PayoutIDs, actor(c))
	c.JSON(http.StatusOK, result)
}

// UpdatePayoutRequest carries partial edits to a pending payout
type UpdatePayoutRequest struct {
	Amount *float64 `json:"amount"`
	Period *string  `json:"period"`
	Notes  *string  `json:"notes"`
}

// UpdatePayout edits a payout while it is pending approval
// PATCH /api/v1/payouts/:id
func (h *PayoutHandlers) UpdatePayout(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.Update(c.Request.Context(), id, req.Amount, req.Period, req.Notes)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update payout")
		return
	}

	c.JSON(http.StatusOK, p)
}

// DeletePayout removes a payout while it is pending approval
// DELETE /api/v1/payouts/:id
func (h *PayoutHandlers) DeletePayout(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "Failed to delete payout")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

type transitionFunc func(ctx context.Context, id uuid.UUID, actor string) (*models.Payout, error)

func (h *PayoutHandlers) transition(c *gin.Context, fn transitionFunc, fallback string) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	p, err := fn(c.Request.Context(), id, actor(c))
	if err != nil {
		respondError(c, h.logger, err, fallback)
		return
	}

	c.JSON(http.StatusOK, p)
}
