package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/internal/report/domain"
	"github.com/smallbiznis/agrimarket/pkg/money"
)

func (s *Service) StatementForms(ctx context.Context, filter domain.Filter) ([]domain.StatementParty, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	filter, err = normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, orgID, reportStatementForms, filter, func() ([]domain.StatementParty, error) {
		return s.statementForms(ctx, orgID, filter)
	})
}

func (s *Service) statementForms(ctx context.Context, orgID snowflake.ID, filter domain.Filter) ([]domain.StatementParty, error) {
	parties, err := s.resolveParties(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	ids := partyIDs(parties)

	items, err := s.formItems(ctx, orgID, filter, ids, "f.posting_date DESC, f.name DESC, i.idx ASC")
	if err != nil {
		return nil, err
	}
	payments, err := s.payments(ctx, orgID, filter, ids)
	if err != nil {
		return nil, err
	}
	rate, err := s.taxRate(ctx)
	if err != nil {
		return nil, err
	}

	byParty := make(map[snowflake.ID]*domain.StatementParty, len(parties))
	get := func(id snowflake.ID) *domain.StatementParty {
		row, ok := byParty[id]
		if !ok {
			row = &domain.StatementParty{PartyID: id}
			byParty[id] = row
		}
		return row
	}

	supplier := filter.PartyType == partydomain.PartyTypeSupplier
	for _, item := range items {
		row := get(item.PartyID)
		var commission int64
		if supplier {
			commission = item.Commission
		}
		row.Items = append(row.Items, domain.StatementItem{
			FormID:      item.FormID,
			FormName:    item.FormName,
			PostingDate: item.PostingDate,
			ItemName:    item.ItemName,
			Qty:         item.Qty,
			Price:       item.Price,
			Total:       item.Total,
			Commission:  commission,
		})
	}
	for _, payment := range payments {
		row := get(payment.PartyID)
		row.Payments = append(row.Payments, payment.statementPayment(filter.PartyType, false))
	}

	out := make([]domain.StatementParty, 0, len(byParty))
	for _, party := range parties {
		row, ok := byParty[party.ID]
		if !ok {
			continue
		}
		row.PartyName = party.Name
		if len(row.Items) > 0 {
			row.Totals = statementTotals(row.Items, supplier, rate)
		}
		if len(row.Payments) > 0 {
			var total int64
			for _, payment := range row.Payments {
				total += payment.PaidAmount
			}
			row.PaymentsTotal = &total
		}
		out = append(out, *row)
	}
	return out, nil
}

// statementTotals reports supplier commission net of the tax withheld on it.
func statementTotals(items []domain.StatementItem, supplier bool, rate decimal.Decimal) []domain.StatementTotal {
	qty := decimal.Zero
	var total, commission int64
	for _, item := range items {
		qty = qty.Add(item.Qty)
		total += item.Total
		commission += item.Commission
	}

	var taxes int64
	if supplier {
		taxes = money.PercentOf(commission, rate)
	}

	totals := []domain.StatementTotal{{
		Label:      domain.LabelTotalWithoutTaxes,
		Qty:        qty,
		Total:      total,
		Commission: commission,
	}}
	if taxes != 0 {
		totals = append(totals, domain.StatementTotal{Label: domain.LabelTaxes, Commission: taxes})
	}
	return append(totals, domain.StatementTotal{
		Label:      domain.LabelTotalWithTaxes,
		Qty:        qty,
		Total:      total,
		Commission: commission - taxes,
	})
}
