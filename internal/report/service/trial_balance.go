package service

import (
	"context"

	"github.com/smallbiznis/agrimarket/internal/clock"
	"github.com/smallbiznis/agrimarket/internal/report/domain"
)

func normalizeTrialBalanceFilter(filter domain.TrialBalanceFilter) (domain.TrialBalanceFilter, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return filter, domain.ErrInvalidFilter
	}
	filter.FromDate = clock.Date(filter.FromDate)
	filter.ToDate = clock.Date(filter.ToDate)
	if filter.ToDate.Before(filter.FromDate) {
		return filter, domain.ErrInvalidDateRange
	}
	return filter, nil
}

func (s *Service) TrialBalance(ctx context.Context, filter domain.TrialBalanceFilter) ([]domain.TrialBalanceRow, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	filter, err = normalizeTrialBalanceFilter(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, orgID, reportTrialBalance, filter, func() ([]domain.TrialBalanceRow, error) {
		return s.trialBalance(ctx, filter)
	})
}

// trialBalance lays rows out as configured. Closing figures are opening minus
// period movement, and parent rows add up the rows that name them.
func (s *Service) trialBalance(ctx context.Context, filter domain.TrialBalanceFilter) ([]domain.TrialBalanceRow, error) {
	sections := s.settings.Get().TrialBalance.Sections

	var codes []string
	seen := map[string]bool{}
	for _, section := range sections {
		for _, row := range section.Rows {
			if row.IsParent || seen[row.Account] {
				continue
			}
			seen[row.Account] = true
			codes = append(codes, row.Account)
		}
	}
	balances, err := s.ledgerSvc.AccountBalances(ctx, codes, filter.FromDate, filter.ToDate)
	if err != nil {
		return nil, err
	}

	var out []domain.TrialBalanceRow
	for _, section := range sections {
		parents := map[string]int{}
		for _, row := range section.Rows {
			if row.IsParent {
				parents[row.Title] = len(out)
				out = append(out, domain.TrialBalanceRow{
					Section:  section.Name,
					Title:    row.Title,
					IsParent: true,
				})
				continue
			}

			balance := balances[row.Account]
			line := domain.TrialBalanceRow{
				Section:       section.Name,
				Title:         row.Title,
				Account:       row.Account,
				Parent:        row.Parent,
				OpeningDebit:  balance.Opening.Debit,
				OpeningCredit: balance.Opening.Credit,
				Debit:         balance.Period.Debit,
				Credit:        balance.Period.Credit,
				ClosingDebit:  balance.Opening.Debit - balance.Period.Debit,
				ClosingCredit: balance.Opening.Credit - balance.Period.Credit,
			}
			out = append(out, line)

			idx, ok := parents[row.Parent]
			if row.Parent == "" || !ok {
				continue
			}
			parent := &out[idx]
			parent.OpeningDebit += line.OpeningDebit
			parent.OpeningCredit += line.OpeningCredit
			parent.Debit += line.Debit
			parent.Credit += line.Credit
			parent.ClosingDebit += line.ClosingDebit
			parent.ClosingCredit += line.ClosingCredit
		}
	}
	return out, nil
}
