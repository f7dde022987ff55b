package domain

import (
	"context"
	"errors"
)

type Service interface {
	StatementForms(ctx context.Context, filter Filter) ([]StatementParty, error)
	DetailedReport(ctx context.Context, filter Filter) ([]DetailedParty, error)
	CollectionForm(ctx context.Context, filter Filter) ([]CollectionParty, error)
	TrialBalance(ctx context.Context, filter TrialBalanceFilter) ([]TrialBalanceRow, error)
	ItemsList(ctx context.Context, filter ItemsListFilter) ([]ItemsListRow, error)

	// RenderStatementForms and RenderDetailedReport produce one PDF per party.
	RenderStatementForms(ctx context.Context, filter Filter) (Files, error)
	RenderDetailedReport(ctx context.Context, filter Filter) (Files, error)
	// RenderCollectionForm produces a single PDF covering every party.
	RenderCollectionForm(ctx context.Context, filter Filter) (Files, error)
	RenderTrialBalance(ctx context.Context, filter TrialBalanceFilter, format Format) (Files, error)
	RenderItemsList(ctx context.Context, filter ItemsListFilter, format Format) (Files, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidPartyType    = errors.New("invalid_party_type")
	ErrInvalidDateRange    = errors.New("invalid_date_range")
	ErrInvalidFilter       = errors.New("invalid_report_filter")
	ErrInvalidFormat       = errors.New("invalid_report_format")
	ErrPartyNotFound       = errors.New("party_not_found")
	ErrNoData              = errors.New("no_report_data")
)
