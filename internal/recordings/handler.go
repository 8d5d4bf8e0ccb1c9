package recordings

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-webinar/recording-ingest/internal/models"
	"github.com/aura-webinar/recording-ingest/pkg/response"
)

// Runner executes one ingestion batch.
type Runner interface {
	Run(ctx context.Context, now time.Time) (*models.RunReport, error)
}

// ReportReader reads persisted run reports.
type ReportReader interface {
	Latest(ctx context.Context) (*models.RunReport, error)
	History(ctx context.Context, n int) ([]models.RunReport, error)
}

// TriggerResponse is the body returned to the scheduler after a batch.
type TriggerResponse struct {
	Message   string                   `json:"message"`
	Processed int                      `json:"processed"`
	Details   []models.IngestionResult `json:"details"`
}

// TriggerError is the body returned when a batch aborts before processing anything.
type TriggerError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Handler serves the ingestion trigger and run history.
type Handler struct {
	runner  Runner
	reports ReportReader // optional
	now     func() time.Time
	logger  *zap.Logger
}

// NewHandler creates a recordings handler. reports may be nil, which disables history.
func NewHandler(runner Runner, reports ReportReader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{runner: runner, reports: reports, now: time.Now, logger: logger}
}

// ProcessRecordings handles GET /api/cron/process-recordings. Runs one batch and
// reports every per-lesson result. The batch is detached from the caller so a
// scheduler hang-up does not abort it; the runner applies its own deadline.
func (h *Handler) ProcessRecordings(c *gin.Context) {
	response.NoStore(c)
	ctx := context.WithoutCancel(c.Request.Context())

	report, err := h.runner.Run(ctx, h.now())
	if err != nil {
		h.logger.Error("recording ingestion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, TriggerError{
			Message: "Failed to process recordings",
			Error:   err.Error(),
		})
		return
	}

	details := report.Results
	if details == nil {
		details = []models.IngestionResult{}
	}
	c.JSON(http.StatusOK, TriggerResponse{
		Message:   "Recordings processed",
		Processed: report.ProcessedCount,
		Details:   details,
	})
}

// LastReport handles GET /api/cron/process-recordings/last.
func (h *Handler) LastReport(c *gin.Context) {
	response.NoStore(c)
	if h.reports == nil {
		response.ServiceUnavailable(c, "report history not configured")
		return
	}
	report, err := h.reports.Latest(c.Request.Context())
	if err != nil {
		h.logger.Error("load last report failed", zap.Error(err))
		response.Internal(c, "failed to load last report")
		return
	}
	if report == nil {
		response.NotFound(c, "no run recorded yet")
		return
	}
	response.OK(c, report)
}

// History handles GET /api/cron/process-recordings/history?limit=n.
func (h *Handler) History(c *gin.Context) {
	response.NoStore(c)
	if h.reports == nil {
		response.ServiceUnavailable(c, "report history not configured")
		return
	}
	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := h.reports.History(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list reports failed", zap.Error(err))
		response.Internal(c, "failed to list reports")
		return
	}
	response.OK(c, list)
}
