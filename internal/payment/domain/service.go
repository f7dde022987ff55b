package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
)

type CreateRequest struct {
	PartyType     partydomain.PartyType `json:"party_type"`
	PartyID       snowflake.ID          `json:"party_id"`
	PaymentType   PaymentType           `json:"payment_type"`
	ModeOfPayment string                `json:"mode_of_payment"`
	PaidAmount    int64                 `json:"paid_amount"`
	PostingDate   time.Time             `json:"posting_date"`
	Remarks       string                `json:"remarks"`
	Metadata      map[string]any        `json:"metadata"`
}

type ListRequest struct {
	pagination.Pagination
	ListFilter
}

type ListResponse struct {
	pagination.PageInfo
	Payments []PaymentEntry `json:"payments"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (PaymentEntry, error)
	Get(ctx context.Context, id snowflake.ID) (PaymentEntry, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	// Submit posts cash against the party account: receipts debit cash, payments credit it.
	Submit(ctx context.Context, id snowflake.ID) (PaymentEntry, error)
	Cancel(ctx context.Context, id snowflake.ID) (PaymentEntry, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("payment_entry_not_found")
	ErrInvalidPartyType    = errors.New("invalid_party_type")
	ErrInvalidParty        = errors.New("invalid_party")
	ErrInvalidPaymentType  = errors.New("invalid_payment_type")
	ErrInvalidAmount       = errors.New("invalid_paid_amount")
	ErrInvalidDateRange    = errors.New("invalid_date_range")
)
