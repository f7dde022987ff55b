package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agrimarket/pkg/money"
)

// Recalculate refreshes item amounts and invoice totals.
func Recalculate(inv *SalesInvoice) {
	inv.NetTotal = 0
	for i := range inv.Items {
		item := &inv.Items[i]
		item.Idx = i + 1
		item.Amount = money.Mul(item.Qty, item.Rate)
		inv.NetTotal += item.Amount
	}
	inv.TaxTotal = money.PercentOf(inv.NetTotal, inv.TaxRate)
	inv.GrandTotal = inv.NetTotal + inv.TaxTotal
}

// InvoiceFormIDs returns the distinct invoice forms referenced by the items, in item order.
func (inv *SalesInvoice) InvoiceFormIDs() []snowflake.ID {
	seen := map[snowflake.ID]struct{}{}
	ids := []snowflake.ID{}
	for _, item := range inv.Items {
		if item.InvoiceFormID == nil || *item.InvoiceFormID == 0 {
			continue
		}
		if _, ok := seen[*item.InvoiceFormID]; ok {
			continue
		}
		seen[*item.InvoiceFormID] = struct{}{}
		ids = append(ids, *item.InvoiceFormID)
	}
	return ids
}
