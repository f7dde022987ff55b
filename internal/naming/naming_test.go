package naming

import (
	"testing"

	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	"github.com/smallbiznis/agrimarket/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFormatNumber(t *testing.T) {
	got, err := FormatNumber("IF-{YYYY}-{SEQ5}", testutil.Date(2024, 3, 9), 42)
	require.NoError(t, err)
	assert.Equal(t, "IF-2024-00042", got)

	got, err = FormatNumber("X{YY}{MM}{DD}-{SEQ}", testutil.Date(2024, 3, 9), 7)
	require.NoError(t, err)
	assert.Equal(t, "X240309-7", got)

	_, err = FormatNumber("", testutil.Date(2024, 3, 9), 1)
	assert.Error(t, err)
	_, err = FormatNumber("IF-{SEQ5}", testutil.Date(2024, 3, 9), 0)
	assert.Error(t, err)
	_, err = FormatNumber("IF-{NOPE}", testutil.Date(2024, 3, 9), 1)
	assert.Error(t, err)
}

func TestNextIsSequentialPerSeriesAndYear(t *testing.T) {
	db := testutil.NewDB(t, &NamingSeries{})
	n := New()
	ctx := testutil.Context()

	next := func(series Series, year int) string {
		var name string
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			name, err = n.Next(ctx, tx, series, testutil.Date(year, 6, 1))
			return err
		})
		require.NoError(t, err)
		return name
	}

	assert.Equal(t, "IF-2024-00001", next(SeriesInvoiceForm, 2024))
	assert.Equal(t, "IF-2024-00002", next(SeriesInvoiceForm, 2024))
	assert.Equal(t, "IF-2025-00001", next(SeriesInvoiceForm, 2025))
	assert.Equal(t, "SINV-2024-00001", next(SeriesSalesInvoice, 2024))
	assert.Equal(t, "PE-2024-00001", next(SeriesPayment, 2024))

	other := orgcontext.WithOrgID(ctx, 2)
	name, err := n.Next(other, db, SeriesInvoiceForm, testutil.Date(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, "IF-2024-00001", name)

	_, err = n.Next(ctx, db, Series("unknown"), testutil.Date(2024, 1, 1))
	assert.ErrorIs(t, err, ErrUnknownSeries)
}
