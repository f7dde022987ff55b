package xlsx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateWorkbook(t *testing.T) {
	r, err := New().GenerateWorkbook(context.Background(), WorkbookData{
		Title: "Trial Balance",
		Sheets: []Sheet{{
			Name: "Trial Balance",
			Columns: []Column{
				{Title: "Title", Width: 30},
				{Title: "Debit", Numeric: true},
				{Title: "Credit", Numeric: true},
			},
			Rows: []Row{
				{Cells: []any{"Cash", 125.5, 0.0}},
				{Cells: []any{"Income", nil, 40.25}, Bold: true},
			},
		}},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(r)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Trial Balance"}, f.GetSheetList())
	title, err := f.GetCellValue("Trial Balance", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Title", title)
	cash, err := f.GetCellValue("Trial Balance", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Cash", cash)
	credit, err := f.GetCellValue("Trial Balance", "C3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "40.25", credit)
}

func TestGenerateWorkbookRequiresSheets(t *testing.T) {
	_, err := New().GenerateWorkbook(context.Background(), WorkbookData{Title: "empty"})
	assert.Error(t, err)
}

func TestSheetNameIsTruncated(t *testing.T) {
	assert.Equal(t, "Sheet3", sheetName("", 2))
	assert.Len(t, []rune(sheetName("Items list of supplier invoices for the season", 0)), 31)
}
