package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/campusplan/timetable-api/internal/dto"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
	"github.com/campusplan/timetable-api/pkg/export"
)

// ExportFormat enumerates supported download formats.
type ExportFormat string

// Supported formats, matched case-insensitively.
const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries one rendered schedule document.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

// ExportService solves a scheduling input and renders the result as a file.
// Solve failures pass through untouched, so an export of an over-constrained
// input fails exactly like the JSON endpoint does.
type ExportService struct {
	runner solveRunner
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(runner solveRunner, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{runner: runner, csv: csv, pdf: pdf, logger: logger}
}

// Export solves the input and renders the schedule in the requested format.
func (s *ExportService) Export(ctx context.Context, input dto.SchedulingInput, format ExportFormat) (*ExportResult, error) {
	format = ExportFormat(strings.ToLower(strings.TrimSpace(string(format))))
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q, expected csv or pdf", format))
	}

	output, err := s.runner.Solve(ctx, input)
	if err != nil {
		return nil, err
	}

	dataset := buildScheduleDataset(input, output)

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		subtitle := fmt.Sprintf("Score %d, %d unmet soft preference(s)", output.Score, len(output.UnmetSoftConstraints))
		payload, err = s.pdf.Render(dataset, "Course Schedule", subtitle)
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule export")
	}

	result := &ExportResult{
		Filename:    buildExportFilename(format),
		ContentType: contentType,
		Payload:     payload,
	}
	s.logger.Info("schedule exported",
		zap.String("format", string(format)),
		zap.Int("rows", len(output.Assignments)),
		zap.Int("bytes", len(result.Payload)),
	)
	return result, nil
}

func buildExportFilename(format ExportFormat) string {
	return fmt.Sprintf("schedule_%s.%s", time.Now().UTC().Format("20060102_150405"), format)
}

// buildScheduleDataset flattens the solved schedule into one row per
// assignment. Columns use the API's wire names so a CSV round-trips into
// the same vocabulary as the JSON endpoint.
func buildScheduleDataset(input dto.SchedulingInput, output *dto.SchedulingOutput) export.Dataset {
	courseByID := lo.KeyBy(input.Courses, func(c dto.Course) dto.CourseID { return c.ID })
	morningEnd := input.TotalTimeslots / 2

	rows := make([]map[string]string, 0, len(output.Assignments))
	for _, a := range output.Assignments {
		instructor := ""
		endSlot := ""
		if course, ok := courseByID[a.CourseID]; ok {
			instructor = fmt.Sprintf("%d", course.InstructorID)
			endSlot = fmt.Sprintf("%d", uint32(a.StartSlot)+course.DurationSlots)
		}
		morning := "no"
		if uint32(a.StartSlot) < morningEnd {
			morning = "yes"
		}
		rows = append(rows, map[string]string{
			"courseId":     fmt.Sprintf("%d", a.CourseID),
			"instructorId": instructor,
			"roomId":       fmt.Sprintf("%d", a.RoomID),
			"startSlot":    fmt.Sprintf("%d", a.StartSlot),
			"endSlot":      endSlot,
			"morning":      morning,
		})
	}

	return export.Dataset{
		Headers: []string{"courseId", "instructorId", "roomId", "startSlot", "endSlot", "morning"},
		Rows:    rows,
	}
}
