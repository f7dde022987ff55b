package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/bwmarrin/snowflake"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/internal/report/domain"
	"github.com/smallbiznis/agrimarket/pkg/money"
)

func (s *Service) CollectionForm(ctx context.Context, filter domain.Filter) ([]domain.CollectionParty, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	filter, err = normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, orgID, reportCollectionForm, filter, func() ([]domain.CollectionParty, error) {
		return s.collectionForm(ctx, orgID, filter)
	})
}

func (s *Service) collectionForm(ctx context.Context, orgID snowflake.ID, filter domain.Filter) ([]domain.CollectionParty, error) {
	parties, err := s.resolveParties(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	ids := partyIDs(parties)

	items, err := s.formItems(ctx, orgID, filter, ids, "f.posting_date ASC, f.name ASC, i.idx ASC")
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
	openings, err := s.ledgerSvc.PartyOpeningBalances(ctx, filter.PartyType, ids, filter.FromDate)
	if err != nil {
		return nil, err
	}

	supplier := filter.PartyType == partydomain.PartyTypeSupplier
	switchColumns := !supplier

	type movement struct {
		row         domain.CollectionRow
		debit       int64
		credit      int64
		paymentLast bool
	}
	movements := map[snowflake.ID][]movement{}
	for _, item := range items {
		var debit int64
		if supplier && item.Commission != 0 {
			debit = item.Commission + money.PercentOf(item.Commission, rate)
		}
		movements[item.PartyID] = append(movements[item.PartyID], movement{
			row: domain.CollectionRow{
				Doctype:     domain.DoctypeInvoiceForm,
				DocumentID:  item.FormID,
				Reference:   item.FormName,
				PostingDate: datePtr(item.PostingDate),
				Qty:         item.Qty,
				Price:       item.Price,
				Statement:   item.ItemName,
			},
			debit:  debit,
			credit: item.Total,
		})
	}
	for _, payment := range payments {
		movements[payment.PartyID] = append(movements[payment.PartyID], movement{
			row: domain.CollectionRow{
				Doctype:     domain.DoctypePaymentEntry,
				DocumentID:  payment.PaymentID,
				Reference:   payment.PaymentName,
				PostingDate: datePtr(payment.PostingDate),
				Statement:   fmt.Sprintf("%s - %s", payment.ModeOfPayment, payment.Remarks),
			},
			debit:       paymentAmount(filter.PartyType, payment),
			paymentLast: true,
		})
	}

	out := make([]domain.CollectionParty, 0, len(parties))
	for _, party := range parties {
		opening := openings[party.ID]
		last := opening.Net()
		var openDebit, openCredit int64
		if opening.Debit > opening.Credit {
			openDebit = abs(last)
		} else if opening.Credit > opening.Debit {
			openCredit = abs(last)
		}

		rows := []domain.CollectionRow{{
			Reference: domain.LabelOpeningBalance,
			Debit:     openDebit,
			Credit:    openCredit,
		}}

		moves := movements[party.ID]
		sort.SliceStable(moves, func(i, j int) bool {
			di, dj := *moves[i].row.PostingDate, *moves[j].row.PostingDate
			if !di.Equal(dj) {
				return di.Before(dj)
			}
			return !moves[i].paymentLast && moves[j].paymentLast
		})

		var totalDebit, totalCredit int64
		for _, m := range moves {
			row := m.row
			row.Debit, row.Credit = m.debit, m.credit
			if switchColumns {
				row.Debit, row.Credit = row.Credit, row.Debit
			}
			rows = append(rows, row)
			totalDebit += m.debit
			totalCredit += m.credit
		}
		if switchColumns {
			totalDebit, totalCredit = totalCredit, totalDebit
		}
		totalDebit += openDebit
		totalCredit += openCredit

		rows = append(rows, domain.CollectionRow{
			Reference: domain.LabelTotal,
			Debit:     totalDebit,
			Credit:    totalCredit,
			Balance:   totalDebit - totalCredit,
		})
		out = append(out, domain.CollectionParty{
			PartyID:   party.ID,
			PartyName: party.Name,
			Rows:      rows,
		})
	}
	return out, nil
}

func paymentAmount(partyType partydomain.PartyType, payment paymentRow) int64 {
	return payment.statementPayment(partyType, true).PaidAmount
}
