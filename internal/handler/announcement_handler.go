package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pa-broadcaster/internal/dto"
	"github.com/noah-isme/pa-broadcaster/internal/models"
	"github.com/noah-isme/pa-broadcaster/internal/service"
	appErrors "github.com/noah-isme/pa-broadcaster/pkg/errors"
	"github.com/noah-isme/pa-broadcaster/pkg/response"
)

type broadcastService interface {
	Submit(ctx context.Context, req models.AnnouncementRequest) (*dto.SubmitAck, error)
	Replay(ctx context.Context, id int64) (*dto.ReplayAck, error)
	History(ctx context.Context) []models.AnnouncementRecord
	HistoryCapacity() int
	ClearHistory(ctx context.Context) (*dto.ClearHistoryAck, error)
}

type historyExporter interface {
	Export(ctx context.Context, format string) (*service.ExportResult, error)
}

// AnnouncementHandler exposes submission, replay and history endpoints.
type AnnouncementHandler struct {
	broadcasts broadcastService
	exporter   historyExporter
}

// NewAnnouncementHandler constructs an AnnouncementHandler.
func NewAnnouncementHandler(broadcasts broadcastService, exporter historyExporter) *AnnouncementHandler {
	return &AnnouncementHandler{broadcasts: broadcasts, exporter: exporter}
}

// Submit godoc
// @Summary Broadcast announcement
// @Description Translate, synthesize, record and broadcast an announcement to every display
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body models.AnnouncementRequest true "Announcement"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Submit(c *gin.Context) {
	var req models.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid announcement payload"))
		return
	}

	ack, err := h.broadcasts.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ack)
}

// Replay godoc
// @Summary Replay announcement
// @Description Re-deliver a recorded announcement without recomputing it
// @Tags Announcements
// @Produce json
// @Param id path int true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id}/replay [post]
func (h *AnnouncementHandler) Replay(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid announcement id"))
		return
	}

	ack, err := h.broadcasts.Replay(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ack)
}

// History godoc
// @Summary Announcement history
// @Description Most recent announcements first
// @Tags History
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /history [get]
func (h *AnnouncementHandler) History(c *gin.Context) {
	items := h.broadcasts.History(c.Request.Context())
	response.JSON(c, http.StatusOK, dto.HistoryResponse{
		Items:    items,
		Count:    len(items),
		Capacity: h.broadcasts.HistoryCapacity(),
	})
}

// Clear godoc
// @Summary Clear history
// @Description Remove every recorded announcement and its audio
// @Tags History
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /history [delete]
func (h *AnnouncementHandler) Clear(c *gin.Context) {
	ack, err := h.broadcasts.ClearHistory(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ack)
}

// Export godoc
// @Summary Export history
// @Description Download the history as CSV or PDF
// @Tags History
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /history/export [get]
func (h *AnnouncementHandler) Export(c *gin.Context) {
	res, err := h.exporter.Export(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, res.ContentType, res.Data)
}
