package export

import "time"

// Column describes one report column. Width is a relative weight used by
// renderers that lay out fixed-width tables; zero means an equal share.
type Column struct {
	Title string
	Width float64
}

// Report is tabular report content, such as the asset register or the open
// requisition list. Rows are positional and follow the column order.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Columns     []Column
	Rows        [][]string
}
