package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pa-broadcaster/internal/models"
	appErrors "github.com/noah-isme/pa-broadcaster/pkg/errors"
	"github.com/noah-isme/pa-broadcaster/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var historyExportHeaders = []string{"id", "timestamp", "priority", "original_text", "language", "text", "audio", "error"}

type historySource interface {
	History(ctx context.Context) []models.AnnouncementRecord
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered history document.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the announcement history as CSV or PDF.
type ExportService struct {
	history historySource
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(history historySource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{history: history, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Export renders the current history snapshot in the requested format.
func (s *ExportService) Export(ctx context.Context, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	records := s.history.History(ctx)
	dataset := buildHistoryDataset(records)
	stamp := s.now().UTC().Format("20060102_150405")

	var (
		data        []byte
		err         error
		contentType string
	)
	switch format {
	case ExportFormatPDF:
		data, err = s.pdf.Render(dataset, "Announcement history")
		contentType = "application/pdf"
	default:
		data, err = s.csv.Render(dataset)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render history export")
	}

	s.logger.Info("history exported", zap.String("format", format), zap.Int("records", len(records)))
	return &ExportResult{
		Filename:    fmt.Sprintf("announcement_history_%s.%s", stamp, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// buildHistoryDataset flattens records into one row per language result.
func buildHistoryDataset(records []models.AnnouncementRecord) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		for _, res := range rec.Results {
			audio := ""
			if res.AudioURL != nil {
				audio = *res.AudioURL
			}
			rows = append(rows, map[string]string{
				"id":            strconv.FormatInt(rec.ID, 10),
				"timestamp":     rec.Timestamp,
				"priority":      string(rec.Priority),
				"original_text": rec.OriginalText,
				"language":      res.Language,
				"text":          res.Text,
				"audio":         audio,
				"error":         res.Error,
			})
		}
	}
	return export.Dataset{Headers: historyExportHeaders, Rows: rows}
}
