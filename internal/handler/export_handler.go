package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusplan/timetable-api/internal/dto"
	"github.com/campusplan/timetable-api/internal/service"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
	"github.com/campusplan/timetable-api/pkg/response"
)

type scheduleExporter interface {
	Export(ctx context.Context, input dto.SchedulingInput, format service.ExportFormat) (*service.ExportResult, error)
}

// ExportHandler streams solved schedules as downloadable files.
type ExportHandler struct {
	exports scheduleExporter
}

// NewExportHandler constructs the handler. The export service may be nil
// when exports are disabled.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	h := &ExportHandler{}
	if exports != nil {
		h.exports = exports
	}
	return h
}

// Export godoc
// @Summary Solve a scheduling problem and download the schedule
// @Description Solves the submitted problem and streams the resulting schedule as a CSV or PDF attachment.
// @Tags Scheduling
// @Accept json
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Param payload body dto.SchedulingInput true "Scheduling problem"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedule/export [post]
func (h *ExportHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.New("EXPORT_DISABLED", http.StatusServiceUnavailable, "schedule export is disabled"))
		return
	}
	var input dto.SchedulingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scheduling payload"))
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	result, err := h.exports.Export(c.Request.Context(), input, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
