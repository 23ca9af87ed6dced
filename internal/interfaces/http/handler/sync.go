package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/commercehub/backend/internal/domain/ordersync"
	"github.com/commercehub/backend/internal/interfaces/http/dto"
	"github.com/commercehub/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncService drives order synchronization runs
type SyncService interface {
	Start(ctx context.Context, tenantID uuid.UUID, mode ordersync.SyncMode) (*ordersync.SyncJob, error)
	GetStatus(ctx context.Context, tenantID uuid.UUID) (*ordersync.SyncJob, error)
	History(ctx context.Context, tenantID uuid.UUID, limit int) ([]ordersync.SyncJob, error)
}

// SyncHandler handles order synchronization API endpoints
type SyncHandler struct {
	BaseHandler
	service SyncService
	logger  *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service SyncService, logger *zap.Logger) *SyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{
		service: service,
		logger:  logger,
	}
}

// TriggerSync godoc
// @ID           triggerSync
// @Summary      Trigger an order synchronization run
// @Description  Starts a FULL or INCREMENTAL sync for the tenant. When a run
// @Description  is already active the current snapshot is returned instead.
// @Tags         sync
// @Accept       json
// @Produce      json
// @Success      202 {object} APIResponse[dto.SyncStatusResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /sync/trigger [post]
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid or missing tenant ID")
		return
	}

	var req dto.TriggerSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	job, err := h.service.Start(c.Request.Context(), tenantID, ordersync.SyncMode(req.Mode))
	switch {
	case err == nil:
	case errors.Is(err, ordersync.ErrConnectionNotFound):
		h.NotFound(c, "no store connection for tenant")
		return
	case errors.Is(err, ordersync.ErrInvalidSyncMode):
		h.BadRequest(c, "mode must be FULL or INCREMENTAL")
		return
	default:
		h.logger.Error("failed to trigger sync",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		h.InternalError(c, "failed to trigger sync")
		return
	}

	h.Accepted(c, dto.NewSyncStatusResponse(job))
}

// GetSyncStatus godoc
// @ID           getSyncStatus
// @Summary      Get current sync status
// @Description  Returns the tenant's latest sync snapshot. Tenants that never
// @Description  synced get an IDLE snapshot rather than a 404.
// @Tags         sync
// @Produce      json
// @Success      200 {object} APIResponse[dto.SyncStatusResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /sync/status [get]
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid or missing tenant ID")
		return
	}

	job, err := h.service.GetStatus(c.Request.Context(), tenantID)
	switch {
	case err == nil:
		h.Success(c, dto.NewSyncStatusResponse(job))
	case errors.Is(err, ordersync.ErrJobNotFound):
		h.Success(c, dto.NewIdleSyncStatusResponse(tenantID.String()))
	default:
		h.logger.Error("failed to read sync status",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		h.InternalError(c, "failed to read sync status")
	}
}

// GetSyncHistory godoc
// @ID           getSyncHistory
// @Summary      List recent sync runs
// @Description  Returns up to limit recent sync runs for the tenant, newest first
// @Tags         sync
// @Produce      json
// @Param        limit query int false "maximum runs to return" default(10)
// @Success      200 {object} APIResponse[dto.SyncHistoryResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /sync/history [get]
func (h *SyncHandler) GetSyncHistory(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "invalid or missing tenant ID")
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.BadRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	jobs, err := h.service.History(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.logger.Error("failed to read sync history",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		h.InternalError(c, "failed to read sync history")
		return
	}

	h.Success(c, dto.NewSyncHistoryResponse(jobs))
}

// RegisterRoutes registers all sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/trigger", h.TriggerSync)
		sync.GET("/status", h.GetSyncStatus)
		sync.GET("/history", h.GetSyncHistory)
	}
}
