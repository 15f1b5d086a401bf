package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrops-platform/hrops-api/internal/models"
	appErrors "github.com/hrops-platform/hrops-api/pkg/errors"
)

func newExportServiceForTest(jobs jobPostingRepository, assets assetRepository) *ExportService {
	svc := NewExportService(jobs, assets, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestAssetRegisterRendersCSV(t *testing.T) {
	cost := 80000.0
	value := 48000.0
	assignee := "emp-42"
	repo := newMockAssetRepo(&models.Asset{
		ID:           "id-1",
		AssetID:      "ASSET-2026-000001",
		AssetType:    models.AssetTypeLaptop,
		Brand:        "Lenovo",
		Status:       models.AssetStatusAllocated,
		Condition:    models.ConditionGood,
		AssignedTo:   &assignee,
		PurchaseCost: &cost,
		CurrentValue: &value,
	})
	svc := newExportServiceForTest(newMockJobRepo(), repo)

	file, err := svc.AssetRegister(context.Background(), models.AssetFilter{}, ExportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "asset-register-20260820-093000.csv", file.FileName)
	assert.Equal(t, "text/csv", file.ContentType)

	content := string(file.Content)
	assert.True(t, strings.HasPrefix(content, "Asset ID,"), "header row comes first")
	assert.Contains(t, content, "ASSET-2026-000001")
	assert.Contains(t, content, "48000.00")
	assert.Contains(t, content, "emp-42")
}

func TestJobPostingReportRendersPDF(t *testing.T) {
	repo := newMockJobRepo(&models.JobPosting{
		ID:            "id-1",
		JobID:         "JOB-2026-0001",
		PositionTitle: "Backend Engineer",
		Department:    "engineering",
		Status:        models.JobStatusApproved,
		Priority:      models.JobPriorityHigh,
		ExpectedDoj:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	})
	svc := newExportServiceForTest(repo, newMockAssetRepo())

	file, err := svc.JobPostingReport(context.Background(), models.JobPostingFilter{}, ExportFormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "job-postings-20260820-093000.pdf", file.FileName)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := newExportServiceForTest(newMockJobRepo(), newMockAssetRepo())

	_, err := svc.AssetRegister(context.Background(), models.AssetFilter{}, ExportFormat("xlsx"))
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
