package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"gorm.io/gorm"
)

type GLFilter struct {
	VoucherType      VoucherType
	VoucherID        snowflake.ID
	PartyType        partydomain.PartyType
	PartyID          snowflake.ID
	AccountCode      string
	FromDate         *time.Time
	ToDate           *time.Time
	IncludeCancelled bool
}

type OpeningBalanceRequest struct {
	AccountCode string                `json:"account"`
	PartyType   partydomain.PartyType `json:"party_type"`
	PartyID     snowflake.ID          `json:"party_id"`
	Debit       int64                 `json:"debit"`
	Credit      int64                 `json:"credit"`
	PostingDate time.Time             `json:"posting_date"`
	Remarks     string                `json:"remarks"`
}

type Service interface {
	EnsureChartOfAccounts(ctx context.Context) error
	ListAccounts(ctx context.Context) ([]LedgerAccount, error)

	// Post books the posting through tx (or its own transaction when tx is nil).
	// Posting the same voucher twice is a no-op.
	Post(ctx context.Context, tx *gorm.DB, posting Posting) error
	// Reverse cancels a voucher's posting by flagging it and booking a mirrored entry.
	Reverse(ctx context.Context, tx *gorm.DB, voucherType VoucherType, voucherID snowflake.ID) error
	PostOpeningBalance(ctx context.Context, req OpeningBalanceRequest) (LedgerEntry, error)

	PartyOpeningBalance(ctx context.Context, partyType partydomain.PartyType, partyID snowflake.ID, fromDate time.Time) (Balance, error)
	// PartyOpeningBalances sums non-cancelled lines dated before fromDate or flagged opening.
	PartyOpeningBalances(ctx context.Context, partyType partydomain.PartyType, partyIDs []snowflake.ID, fromDate time.Time) (map[snowflake.ID]Balance, error)
	AccountBalances(ctx context.Context, accountCodes []string, from, to time.Time) (map[string]AccountBalance, error)
	ListGLEntries(ctx context.Context, filter GLFilter) ([]GLEntry, error)
}

var (
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrInvalidVoucher       = errors.New("invalid_voucher")
	ErrInvalidPostingDate   = errors.New("invalid_posting_date")
	ErrInvalidEntryLines    = errors.New("invalid_entry_lines")
	ErrInvalidAccount       = errors.New("invalid_account")
	ErrAccountNotFound      = errors.New("account_not_found")
	ErrInvalidLineAmount    = errors.New("invalid_line_amount")
	ErrInvalidLineDirection = errors.New("invalid_line_direction")
	ErrPartyRequired        = errors.New("party_required")
	ErrUnbalanced           = errors.New("unbalanced_entry")
	ErrZeroPosting          = errors.New("zero_posting")
	ErrInvalidDateRange     = errors.New("invalid_date_range")
)
