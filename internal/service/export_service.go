package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hrops-platform/hrops-api/internal/models"
	appErrors "github.com/hrops-platform/hrops-api/pkg/errors"
	"github.com/hrops-platform/hrops-api/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(r export.Report) ([]byte, error)
}

type pdfRenderer interface {
	Render(r export.Report) ([]byte, error)
}

// ExportFile is a rendered export ready to stream to the client.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders asset-register and requisition reports as CSV or PDF.
type ExportService struct {
	jobs   jobPostingRepository
	assets assetRepository
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(jobs jobPostingRepository, assets assetRepository, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		jobs:   jobs,
		assets: assets,
		csv:    csv,
		pdf:    pdf,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// AssetRegister renders the asset register matching the filter.
func (s *ExportService) AssetRegister(ctx context.Context, filter models.AssetFilter, format ExportFormat) (*ExportFile, error) {
	filter.Page = 1
	filter.PageSize = 100
	var rows [][]string
	for {
		assets, total, err := s.assets.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assets for export")
		}
		for i := range assets {
			rows = append(rows, assetRow(&assets[i]))
		}
		if filter.Page*filter.PageSize >= total || len(assets) == 0 {
			break
		}
		filter.Page++
	}

	report := export.Report{
		Title:       "Asset Register",
		GeneratedAt: s.now(),
		Columns: []export.Column{
			{Title: "Asset ID", Width: 1.4},
			{Title: "Type"},
			{Title: "Brand"},
			{Title: "Model", Width: 1.2},
			{Title: "Status", Width: 1.1},
			{Title: "Condition"},
			{Title: "Assigned To", Width: 1.2},
			{Title: "Purchase Cost", Width: 1.1},
			{Title: "Current Value", Width: 1.1},
		},
		Rows: rows,
	}
	return s.render(report, "asset-register", format)
}

// JobPostingReport renders requisitions matching the filter.
func (s *ExportService) JobPostingReport(ctx context.Context, filter models.JobPostingFilter, format ExportFormat) (*ExportFile, error) {
	filter.Page = 1
	filter.PageSize = 100
	var rows [][]string
	for {
		jobs, total, err := s.jobs.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job postings for export")
		}
		for i := range jobs {
			rows = append(rows, jobRow(&jobs[i]))
		}
		if filter.Page*filter.PageSize >= total || len(jobs) == 0 {
			break
		}
		filter.Page++
	}

	report := export.Report{
		Title:       "Job Postings",
		GeneratedAt: s.now(),
		Columns: []export.Column{
			{Title: "Job ID", Width: 1.3},
			{Title: "Position", Width: 1.5},
			{Title: "Department", Width: 1.2},
			{Title: "Status", Width: 1.1},
			{Title: "Priority"},
			{Title: "Expected DOJ"},
			{Title: "Created"},
		},
		Rows: rows,
	}
	return s.render(report, "job-postings", format)
}

func (s *ExportService) render(report export.Report, baseName string, format ExportFormat) (*ExportFile, error) {
	stamp := s.now().Format("20060102-150405")
	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(report)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("%s-%s.csv", baseName, stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(report)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("%s-%s.pdf", baseName, stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func assetRow(a *models.Asset) []string {
	assignedTo := ""
	if a.AssignedTo != nil {
		assignedTo = *a.AssignedTo
	}
	return []string{
		a.AssetID,
		string(a.AssetType),
		a.Brand,
		a.Model,
		string(a.Status),
		string(a.Condition),
		assignedTo,
		formatMoney(a.PurchaseCost),
		formatMoney(a.CurrentValue),
	}
}

func jobRow(j *models.JobPosting) []string {
	return []string{
		j.JobID,
		j.PositionTitle,
		j.Department,
		string(j.Status),
		string(j.Priority),
		j.ExpectedDoj.Format("2006-01-02"),
		j.CreatedAt.Format("2006-01-02"),
	}
}

func formatMoney(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
