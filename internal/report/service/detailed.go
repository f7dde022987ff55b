package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	paymentdomain "github.com/smallbiznis/agrimarket/internal/payment/domain"
	"github.com/smallbiznis/agrimarket/internal/report/domain"
	"github.com/smallbiznis/agrimarket/pkg/money"
)

func (s *Service) DetailedReport(ctx context.Context, filter domain.Filter) ([]domain.DetailedParty, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	filter, err = normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, orgID, reportDetailed, filter, func() ([]domain.DetailedParty, error) {
		return s.detailedReport(ctx, orgID, filter)
	})
}

func (s *Service) detailedReport(ctx context.Context, orgID snowflake.ID, filter domain.Filter) ([]domain.DetailedParty, error) {
	parties, err := s.resolveParties(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	ids := partyIDs(parties)

	items, err := s.formItems(ctx, orgID, filter, ids, "f.posting_date ASC, f.name ASC, i.item_name ASC, i.idx ASC")
	if err != nil {
		return nil, err
	}
	payments, err := s.payments(ctx, orgID, filter, ids)
	if err != nil {
		return nil, err
	}

	byParty := map[snowflake.ID]*domain.DetailedParty{}
	get := func(id snowflake.ID) *domain.DetailedParty {
		row, ok := byParty[id]
		if !ok {
			row = &domain.DetailedParty{PartyID: id}
			byParty[id] = row
		}
		return row
	}

	// merged[party][form] is the index of the single row kept per form.
	merged := map[snowflake.ID]map[snowflake.ID]int{}
	for _, item := range items {
		row := get(item.PartyID)
		commission := item.partyCommission(filter.PartyType)
		if filter.NeglectItems {
			forms, ok := merged[item.PartyID]
			if !ok {
				forms = map[snowflake.ID]int{}
				merged[item.PartyID] = forms
			}
			if idx, ok := forms[item.FormID]; ok {
				row.Items[idx].Total += item.Total
				// customer rows keep the commission of the first item only
				if filter.PartyType == partydomain.PartyTypeSupplier {
					row.Items[idx].Commission += commission
				}
				continue
			}
			forms[item.FormID] = len(row.Items)
			row.Items = append(row.Items, domain.StatementItem{
				FormID:      item.FormID,
				FormName:    item.FormName,
				PostingDate: item.PostingDate,
				Total:       item.Total,
				Commission:  commission,
			})
			continue
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
		row.Payments = append(row.Payments, payment.statementPayment(filter.PartyType, true))
	}
	if len(byParty) == 0 {
		return nil, domain.ErrNoData
	}

	rate, err := s.taxRate(ctx)
	if err != nil {
		return nil, err
	}
	openings, err := s.ledgerSvc.PartyOpeningBalances(ctx, filter.PartyType, ids, filter.FromDate)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DetailedParty, 0, len(byParty))
	for _, party := range parties {
		row, ok := byParty[party.ID]
		if !ok {
			continue
		}
		row.PartyName = party.Name
		row.PartyGroup = party.PartyGroup

		opening := openings[party.ID]
		debit, credit := opening.Debit, opening.Credit
		extraDebit, extraCredit, err := s.openingAdjustments(ctx, orgID, filter, party.ID, rate)
		if err != nil {
			return nil, err
		}
		row.Summary = partySummary(filter, *row, debit+extraDebit, credit+extraCredit, rate)
		out = append(out, *row)
	}
	return out, nil
}

// openingAdjustments adds to the GL opening what is owed but not yet posted
// before the report period.
func (s *Service) openingAdjustments(ctx context.Context, orgID snowflake.ID, filter domain.Filter, partyID snowflake.ID, rate decimal.Decimal) (int64, int64, error) {
	var debit, credit int64
	if filter.PartyType == partydomain.PartyTypeCustomer {
		unbilled, err := s.unbilledCustomerCommission(ctx, orgID, partyID, filter.FromDate)
		if err != nil {
			return 0, 0, err
		}
		drafts, err := s.draftCommissionInvoices(ctx, orgID, partyID, filter.FromDate)
		if err != nil {
			return 0, 0, err
		}
		debit += unbilled + money.PercentOf(unbilled, rate) + drafts
	}

	if filter.ConsiderDraft {
		items, err := s.draftItemsTotal(ctx, orgID, filter.PartyType, partyID, filter.FromDate)
		if err != nil {
			return 0, 0, err
		}
		payments, err := s.draftPaymentsTotal(ctx, orgID, filter.PartyType, partyID, filter.FromDate)
		if err != nil {
			return 0, 0, err
		}
		if filter.PartyType == partydomain.PartyTypeSupplier {
			debit += payments
			credit += items
		} else {
			debit += items
			credit += payments
		}
	}
	return debit, credit, nil
}

func (s *Service) unbilledCustomerCommission(ctx context.Context, orgID, customerID snowflake.ID, before time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(i.customer_commission), 0)
		 FROM invoice_forms f
		 JOIN invoice_form_items i ON i.form_id = f.id
		 WHERE f.org_id = ? AND i.customer_id = ? AND f.docstatus = ?
		   AND f.posting_date < ? AND i.has_commission_invoice = ?`,
		orgID,
		customerID,
		docstatus.Submitted,
		before,
		false,
	).Scan(&total).Error
	return total, err
}

func (s *Service) draftCommissionInvoices(ctx context.Context, orgID, customerID snowflake.ID, before time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(grand_total), 0)
		 FROM sales_invoices
		 WHERE org_id = ? AND customer_id = ? AND is_commission_invoice = ?
		   AND docstatus = ? AND posting_date < ?`,
		orgID,
		customerID,
		true,
		docstatus.Draft,
		before,
	).Scan(&total).Error
	return total, err
}

func (s *Service) draftItemsTotal(ctx context.Context, orgID snowflake.ID, partyType partydomain.PartyType, partyID snowflake.ID, before time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(i.total), 0)
		 FROM invoice_forms f
		 JOIN invoice_form_items i ON i.form_id = f.id
		 WHERE f.org_id = ? AND `+partyColumn(partyType)+` = ?
		   AND f.docstatus = ? AND f.posting_date < ?`,
		orgID,
		partyID,
		docstatus.Draft,
		before,
	).Scan(&total).Error
	return total, err
}

func (s *Service) draftPaymentsTotal(ctx context.Context, orgID snowflake.ID, partyType partydomain.PartyType, partyID snowflake.ID, before time.Time) (int64, error) {
	var rows []struct {
		PaymentType paymentdomain.PaymentType
		Total       int64
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT payment_type, COALESCE(SUM(paid_amount), 0) AS total
		 FROM payment_entries
		 WHERE org_id = ? AND party_type = ? AND party_id = ?
		   AND docstatus = ? AND posting_date < ?
		 GROUP BY payment_type`,
		orgID,
		partyType,
		partyID,
		docstatus.Draft,
		before,
	).Scan(&rows).Error
	if err != nil {
		return 0, err
	}
	var total int64
	for _, row := range rows {
		total += paymentdomain.SignedAmount(partyType, row.PaymentType, row.Total)
	}
	return total, nil
}

type runningSummary struct {
	switchColumns bool
	last          int64
	balanceFrom   int64
	balanceTo     int64
	rows          []domain.SummaryRow
}

func (r *runningSummary) append(reference string, date *time.Time, statement string, debit, credit int64) {
	if r.switchColumns {
		debit, credit = credit, debit
	}
	r.last += debit - credit
	if r.last > 0 {
		r.balanceFrom = r.last
	} else {
		r.balanceTo = r.last
	}
	r.rows = append(r.rows, domain.SummaryRow{
		Reference:   reference,
		PostingDate: date,
		Statement:   statement,
		Debit:       debit,
		Credit:      credit,
		BalanceFrom: abs(r.balanceFrom),
		BalanceTo:   abs(r.balanceTo),
	})
}

// partySummary builds the running balance of one party. Customer columns are
// switched so both party types read from the market's point of view.
func partySummary(filter domain.Filter, party domain.DetailedParty, debit, credit int64, rate decimal.Decimal) []domain.SummaryRow {
	r := &runningSummary{switchColumns: filter.PartyType == partydomain.PartyTypeCustomer}

	r.last = debit - credit
	if abs(debit) > abs(credit) {
		r.balanceFrom, r.balanceTo = r.last, 0
		debit, credit = abs(r.last), 0
	} else {
		r.balanceFrom, r.balanceTo = 0, r.last
		debit, credit = 0, abs(r.last)
	}
	r.rows = append(r.rows, domain.SummaryRow{
		Statement:   domain.LabelOpeningBalance,
		Debit:       debit,
		Credit:      credit,
		BalanceFrom: abs(r.balanceFrom),
		BalanceTo:   abs(r.balanceTo),
	})

	var sales, paid, commission int64
	for _, item := range party.Items {
		statement := item.FormName
		if !filter.NeglectItems {
			statement = fmt.Sprintf("%s * %s %s", item.Qty.String(), money.Format(item.Price), item.ItemName)
		}
		r.append(item.FormName, datePtr(item.PostingDate), statement, 0, item.Total)
		sales += item.Total
		commission += item.Commission
	}
	for _, payment := range party.Payments {
		r.append(payment.PaymentName, datePtr(payment.PostingDate), payment.Remarks, payment.PaidAmount, 0)
		paid += payment.PaidAmount
	}

	totalDebit, totalCredit := paid, sales
	if filter.PartyType == partydomain.PartyTypeSupplier {
		taxes := money.PercentOf(commission, rate)
		r.append("", nil, domain.LabelCommissions, commission, 0)
		r.append("", nil, domain.LabelTaxes, taxes, 0)
		totalDebit = commission + paid + taxes
	}
	if r.switchColumns {
		totalDebit, totalCredit = totalCredit, totalDebit
	}

	return append(r.rows, domain.SummaryRow{
		Statement:   domain.LabelTotal,
		Debit:       totalDebit + debit,
		Credit:      totalCredit + credit,
		BalanceFrom: abs(r.balanceFrom),
		BalanceTo:   abs(r.balanceTo),
	})
}
