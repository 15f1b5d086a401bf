package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hrops-platform/hrops-api/internal/models"
	"github.com/hrops-platform/hrops-api/internal/service"
	"github.com/hrops-platform/hrops-api/pkg/response"
)

// ExportHandler streams rendered reports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// AssetRegister godoc
// @Summary Export asset register
// @Description Download the asset register as CSV or PDF
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf (default csv)"
// @Param status query string false "Status filter"
// @Param asset_type query string false "Type filter"
// @Success 200 {file} file
// @Router /exports/assets [get]
func (h *ExportHandler) AssetRegister(c *gin.Context) {
	var filter models.AssetFilter
	if status := c.Query("status"); status != "" {
		s := models.AssetStatus(status)
		filter.Status = &s
	}
	if assetType := c.Query("asset_type"); assetType != "" {
		t := models.AssetType(assetType)
		filter.AssetType = &t
	}

	file, err := h.service.AssetRegister(c.Request.Context(), filter, exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	stream(c, file)
}

// JobPostings godoc
// @Summary Export job postings
// @Description Download requisitions as CSV or PDF
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf (default csv)"
// @Param status query string false "Status filter"
// @Param department query string false "Department filter"
// @Success 200 {file} file
// @Router /exports/job-postings [get]
func (h *ExportHandler) JobPostings(c *gin.Context) {
	var filter models.JobPostingFilter
	if status := c.Query("status"); status != "" {
		s := models.JobPostingStatus(status)
		filter.Status = &s
	}
	filter.Department = c.Query("department")

	file, err := h.service.JobPostingReport(c.Request.Context(), filter, exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	stream(c, file)
}

func exportFormat(c *gin.Context) service.ExportFormat {
	if c.DefaultQuery("format", "csv") == "pdf" {
		return service.ExportFormatPDF
	}
	return service.ExportFormatCSV
}

func stream(c *gin.Context, file *service.ExportFile) {
	response.Download(c, file.FileName, file.ContentType, file.Content)
}
