package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	salesinvoicedomain "github.com/smallbiznis/agrimarket/internal/salesinvoice/domain"
)

// Filter selects the party whose commissions are listed or invoiced.
type Filter struct {
	FromDate  time.Time             `json:"from_date"`
	ToDate    time.Time             `json:"to_date"`
	PartyType partydomain.PartyType `json:"party_type"`
	Party     snowflake.ID          `json:"party"`
}

// Pending is an invoice form whose commission has not been invoiced for the party yet.
type Pending struct {
	InvoiceID   snowflake.ID `json:"invoice_id"`
	InvoiceName string       `json:"invoice_name"`
	PostingDate time.Time    `json:"posting_date"`
	Total       int64        `json:"total"`
}

type GenerateRequest struct {
	Filter
	// Invoices restricts generation to these invoice forms. Empty means every pending form.
	Invoices []snowflake.ID `json:"invoices"`
}

type Service interface {
	ListPending(ctx context.Context, filter Filter) ([]Pending, error)
	// Generate creates one draft commission sales invoice per pending invoice form and flags
	// the form. Each form is handled in its own transaction.
	Generate(ctx context.Context, req GenerateRequest) ([]salesinvoicedomain.SalesInvoice, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidFilter       = errors.New("invalid_commission_filter")
	ErrInvalidDateRange    = errors.New("invalid_date_range")
	ErrNoRelatedCustomer   = errors.New("supplier_has_no_related_customer")
	ErrNotPending          = errors.New("commission_not_pending")
	ErrGenerationRunning   = errors.New("commission_generation_running")
)
