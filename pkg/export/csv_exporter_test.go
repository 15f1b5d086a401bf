package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderFollowsColumnOrder(t *testing.T) {
	e := NewCSVExporter()

	out, err := e.Render(Report{
		Columns: []Column{{Title: "ID"}, {Title: "Name"}},
		Rows: [][]string{
			{"A-1", "laptop"},
			{"A-2"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ID,Name\nA-1,laptop\nA-2,\n", string(out), "short rows are padded")
}

func TestCSVRenderRequiresColumns(t *testing.T) {
	e := NewCSVExporter()
	_, err := e.Render(Report{})
	require.Error(t, err)
}

func TestCSVRenderTruncatesOversizedRows(t *testing.T) {
	e := NewCSVExporter()

	out, err := e.Render(Report{
		Columns: []Column{{Title: "ID"}},
		Rows:    [][]string{{"A-1", "stray cell"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ID\nA-1\n", string(out))
}

func TestCSVRenderEscapesSeparators(t *testing.T) {
	e := NewCSVExporter()

	out, err := e.Render(Report{
		Columns: []Column{{Title: "Notes"}},
		Rows:    [][]string{{`contains, comma and "quotes"`}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"contains, comma and ""quotes"""`)
}
