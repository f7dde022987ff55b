package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

const gridSize = 12

// ReportData is a tabular report split into sections, one per party.
type ReportData struct {
	CompanyName string
	Title       string
	Period      string
	Sections    []ReportSection
}

type ReportSection struct {
	Heading  string
	Subtitle string
	Columns  []ReportColumn
	Rows     []ReportRow
}

// ReportColumn widths are grid units out of 12. Zero widths are spread evenly.
type ReportColumn struct {
	Title   string
	Width   int
	Numeric bool
}

type ReportRow struct {
	Cells []string
	Bold  bool
}

func (p *PDFProvider) GenerateReport(ctx context.Context, report ReportData) (io.Reader, error) {
	m := newDocument()

	m.AddRow(10,
		text.NewCol(gridSize, report.CompanyName, props.Text{Size: 14, Style: fontstyle.Bold}),
	)
	m.AddRow(8,
		text.NewCol(8, report.Title, props.Text{Size: 12, Style: fontstyle.Bold}),
		text.NewCol(4, report.Period, props.Text{Size: 9, Align: align.Right}),
	)

	for _, section := range report.Sections {
		widths := columnWidths(section.Columns)

		m.AddRow(10, text.NewCol(gridSize, section.Heading, props.Text{Size: 11, Style: fontstyle.Bold, Top: 3}))
		if section.Subtitle != "" {
			m.AddRow(6, text.NewCol(gridSize, section.Subtitle, props.Text{Size: 8}))
		}

		header := make([]core.Col, 0, len(section.Columns))
		for i, column := range section.Columns {
			header = append(header, text.NewCol(widths[i], column.Title, cellProps(column, true)))
		}
		m.AddRow(7, header...)

		for _, row := range section.Rows {
			cols := make([]core.Col, 0, len(section.Columns))
			for i, column := range section.Columns {
				value := ""
				if i < len(row.Cells) {
					value = row.Cells[i]
				}
				cols = append(cols, text.NewCol(widths[i], value, cellProps(column, row.Bold)))
			}
			m.AddRow(6, cols...)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

func cellProps(column ReportColumn, bold bool) props.Text {
	p := props.Text{Size: 8}
	if column.Numeric {
		p.Align = align.Right
	}
	if bold {
		p.Style = fontstyle.Bold
	}
	return p
}

func columnWidths(columns []ReportColumn) []int {
	widths := make([]int, len(columns))
	if len(columns) == 0 {
		return widths
	}
	total := 0
	for i, column := range columns {
		widths[i] = column.Width
		total += column.Width
	}
	if total > 0 && total <= gridSize {
		return widths
	}

	even := gridSize / len(columns)
	if even == 0 {
		even = 1
	}
	for i := range widths {
		widths[i] = even
	}
	widths[0] += gridSize - even*len(columns)
	if widths[0] < 1 {
		widths[0] = 1
	}
	return widths
}
