package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFRenderProducesDocument(t *testing.T) {
	e := NewPDFExporter()

	out, err := e.Render(Report{
		Title:       "Asset Register",
		GeneratedAt: time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC),
		Columns:     []Column{{Title: "Asset ID", Width: 2}, {Title: "Status"}},
		Rows:        [][]string{{"ASSET-2026-000001", "available"}},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestPDFRenderRequiresColumns(t *testing.T) {
	e := NewPDFExporter()
	_, err := e.Render(Report{Title: "empty"})
	require.Error(t, err)
}

func TestColumnWidthsHonorWeights(t *testing.T) {
	widths := columnWidths([]Column{{Width: 3}, {Width: 1}, {}})

	assert.InDelta(t, 114.0, widths[0], 0.01)
	assert.InDelta(t, 38.0, widths[1], 0.01)
	assert.InDelta(t, 38.0, widths[2], 0.01, "zero weight defaults to an equal share")
}
