package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/fx"
)

// Provider renders tabular reports as spreadsheets.
type Provider interface {
	GenerateWorkbook(ctx context.Context, data WorkbookData) (io.Reader, error)
}

var Module = fx.Module("xlsx",
	fx.Provide(New),
)

type WorkbookData struct {
	Title  string
	Sheets []Sheet
}

type Sheet struct {
	Name    string
	Columns []Column
	Rows    []Row
}

// Column widths are in excel character units. Zero keeps the default.
type Column struct {
	Title   string
	Width   float64
	Numeric bool
}

// Row cells are written as-is; numeric columns expect float64 or int values.
type Row struct {
	Cells []any
	Bold  bool
}

const amountFormat = "#,##0.00"

type ExcelProvider struct{}

func New() Provider {
	return &ExcelProvider{}
}

func (p *ExcelProvider) GenerateWorkbook(ctx context.Context, data WorkbookData) (io.Reader, error) {
	if len(data.Sheets) == 0 {
		return nil, fmt.Errorf("workbook %q has no sheets", data.Title)
	}

	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	defaultSheet := f.GetSheetName(0)
	for i, sheet := range data.Sheets {
		name := sheetName(sheet.Name, i)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, sheet, styles); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

type styleSet struct {
	header     int
	bold       int
	amount     int
	boldAmount int
}

func newStyles(f *excelize.File) (styleSet, error) {
	var s styleSet
	var err error
	format := amountFormat
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6E6"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#999999", Style: 1},
		},
	}); err != nil {
		return s, err
	}
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	if s.amount, err = f.NewStyle(&excelize.Style{CustomNumFmt: &format}); err != nil {
		return s, err
	}
	if s.boldAmount, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		CustomNumFmt: &format,
	}); err != nil {
		return s, err
	}
	return s, nil
}

func writeSheet(f *excelize.File, name string, sheet Sheet, styles styleSet) error {
	for i, column := range sheet.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, column.Title); err != nil {
			return err
		}
		if err := f.SetCellStyle(name, cell, cell, styles.header); err != nil {
			return err
		}
		if column.Width > 0 {
			col, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				return err
			}
			if err := f.SetColWidth(name, col, col, column.Width); err != nil {
				return err
			}
		}
	}

	for r, row := range sheet.Rows {
		for c, value := range row.Cells {
			if value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, value); err != nil {
				return err
			}
			numeric := c < len(sheet.Columns) && sheet.Columns[c].Numeric
			style := 0
			switch {
			case numeric && row.Bold:
				style = styles.boldAmount
			case numeric:
				style = styles.amount
			case row.Bold:
				style = styles.bold
			}
			if style != 0 {
				if err := f.SetCellStyle(name, cell, cell, style); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// sheetName keeps names within excel's 31 character limit.
func sheetName(name string, idx int) string {
	if name == "" {
		name = fmt.Sprintf("Sheet%d", idx+1)
	}
	runes := []rune(name)
	if len(runes) > 31 {
		runes = runes[:31]
	}
	return string(runes)
}
