package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPercentOf(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		pct    string
		want   int64
	}{
		{name: "whole", amount: 10000, pct: "5", want: 500},
		{name: "fraction", amount: 12345, pct: "2.5", want: 309},
		{name: "half rounds up", amount: 10, pct: "5", want: 1},
		{name: "negative half rounds away", amount: -10, pct: "5", want: -1},
		{name: "zero pct", amount: 999, pct: "0", want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PercentOf(tc.amount, decimal.RequireFromString(tc.pct)))
		})
	}
}

func TestMul(t *testing.T) {
	assert.Equal(t, int64(2500), Mul(decimal.NewFromInt(10), 250))
	assert.Equal(t, int64(375), Mul(decimal.RequireFromString("1.5"), 250))
	assert.Equal(t, int64(0), Mul(decimal.Zero, 250))
}

func TestValidPercent(t *testing.T) {
	assert.True(t, ValidPercent(decimal.Zero))
	assert.True(t, ValidPercent(decimal.NewFromInt(100)))
	assert.False(t, ValidPercent(decimal.NewFromInt(101)))
	assert.False(t, ValidPercent(decimal.NewFromInt(-1)))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12,345.67", Format(1234567))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, "-1,000.00", Format(-100000))
	assert.Equal(t, "100.00", Format(10000))
}
