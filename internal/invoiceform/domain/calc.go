package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/pkg/money"
)

// Recalculate refreshes every derived amount on the form.
// customerPct returns the commission percentage of an item customer.
func Recalculate(form *InvoiceForm, supplierPct decimal.Decimal, customerPct func(snowflake.ID) decimal.Decimal) {
	form.GrandTotal = 0
	form.TotalCommission = 0
	form.TotalCustomerCommission = 0

	for i := range form.Items {
		item := &form.Items[i]
		item.Idx = i + 1
		item.Total = money.Mul(item.Qty, item.Price)
		item.Commission = money.PercentOf(item.Total, supplierPct)
		item.CustomerCommission = money.PercentOf(item.Total, customerPct(item.CustomerID))

		form.GrandTotal += item.Total
		form.TotalCommission += item.Commission
		form.TotalCustomerCommission += item.CustomerCommission
	}

	for i := range form.Commissions {
		row := &form.Commissions[i]
		row.Idx = i + 1
		row.CommissionTotal = row.Commission + row.Taxes
	}

	for i := range form.PamperCommissions {
		row := &form.PamperCommissions[i]
		row.Idx = i + 1
		row.Commission = money.PercentOf(row.Price, row.Percentage)
	}
}

// CustomerTotals returns item totals per customer in first-seen order.
func CustomerTotals(items []InvoiceFormItem) ([]snowflake.ID, map[snowflake.ID]int64) {
	order := make([]snowflake.ID, 0, len(items))
	totals := make(map[snowflake.ID]int64, len(items))
	for _, item := range items {
		if _, ok := totals[item.CustomerID]; !ok {
			order = append(order, item.CustomerID)
		}
		totals[item.CustomerID] += item.Total
	}
	return order, totals
}

// AllCustomersInvoiced reports whether every item row carries a commission invoice.
func AllCustomersInvoiced(items []InvoiceFormItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.HasCommissionInvoice {
			return false
		}
	}
	return true
}
