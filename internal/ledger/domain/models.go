package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
)

// LedgerEntryDirection represents debit or credit postings.
type LedgerEntryDirection string

const (
	LedgerEntryDirectionDebit  LedgerEntryDirection = "debit"
	LedgerEntryDirectionCredit LedgerEntryDirection = "credit"
)

// Opposite flips debit and credit.
func (d LedgerEntryDirection) Opposite() LedgerEntryDirection {
	if d == LedgerEntryDirectionDebit {
		return LedgerEntryDirectionCredit
	}
	return LedgerEntryDirectionDebit
}

// VoucherType names the document that produced a ledger entry.
type VoucherType string

const (
	VoucherTypeInvoiceForm  VoucherType = "invoice_form"
	VoucherTypeSalesInvoice VoucherType = "sales_invoice"
	VoucherTypePayment      VoucherType = "payment_entry"
	VoucherTypeOpening      VoucherType = "opening_balance"
)

// EntryKind separates the original posting of a voucher from its cancellation mirror.
type EntryKind string

const (
	EntryKindPosting  EntryKind = "posting"
	EntryKindReversal EntryKind = "reversal"
)

type RootType string

const (
	RootTypeAsset     RootType = "asset"
	RootTypeLiability RootType = "liability"
	RootTypeEquity    RootType = "equity"
	RootTypeIncome    RootType = "income"
	RootTypeExpense   RootType = "expense"
)

type AccountType string

const (
	AccountTypeReceivable AccountType = "receivable"
	AccountTypePayable    AccountType = "payable"
	AccountTypeCash       AccountType = "cash"
	AccountTypeTax        AccountType = "tax"
	AccountTypeIncome     AccountType = "income"
	AccountTypeExpense    AccountType = "expense"
	AccountTypeOther      AccountType = "other"
)

// RequiresParty reports whether lines on accounts of this type must name a party.
func (t AccountType) RequiresParty() bool {
	return t == AccountTypeReceivable || t == AccountTypePayable
}

// LedgerAccount defines a chart-of-accounts entry.
type LedgerAccount struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID `gorm:"not null;index;uniqueIndex:ux_ledger_accounts_org_code,priority:1" json:"company_id"`
	Code        string       `gorm:"type:text;not null;uniqueIndex:ux_ledger_accounts_org_code,priority:2" json:"code"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	RootType    RootType     `gorm:"type:text;not null" json:"root_type"`
	AccountType AccountType  `gorm:"type:text;not null" json:"account_type"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (LedgerAccount) TableName() string { return "ledger_accounts" }

// LedgerEntry is the header of one voucher posting. Cancelled vouchers keep their
// original entry flagged cancelled next to a mirrored reversal entry.
type LedgerEntry struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID `gorm:"not null;index;uniqueIndex:ux_ledger_entries_voucher,priority:1" json:"company_id"`
	VoucherType VoucherType  `gorm:"type:text;not null;uniqueIndex:ux_ledger_entries_voucher,priority:2" json:"voucher_type"`
	VoucherID   snowflake.ID `gorm:"not null;uniqueIndex:ux_ledger_entries_voucher,priority:3" json:"voucher_id"`
	Kind        EntryKind    `gorm:"type:text;not null;uniqueIndex:ux_ledger_entries_voucher,priority:4" json:"kind"`
	VoucherNo   string       `gorm:"type:text;not null;default:''" json:"voucher_no"`
	PostingDate time.Time    `gorm:"not null;index" json:"posting_date"`
	IsOpening   bool         `gorm:"not null;default:false" json:"is_opening"`
	IsCancelled bool         `gorm:"not null;default:false;index" json:"is_cancelled"`
	Remarks     string       `gorm:"type:text;not null;default:''" json:"remarks"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "ledger_entries" }

// LedgerEntryLine is a double-entry posting line.
type LedgerEntryLine struct {
	ID            snowflake.ID          `gorm:"primaryKey" json:"id"`
	LedgerEntryID snowflake.ID          `gorm:"not null;index" json:"ledger_entry_id"`
	AccountID     snowflake.ID          `gorm:"not null;index" json:"account_id"`
	PartyType     partydomain.PartyType `gorm:"type:text;not null;default:'';index:ix_ledger_lines_party,priority:1" json:"party_type,omitempty"`
	PartyID       snowflake.ID          `gorm:"not null;default:0;index:ix_ledger_lines_party,priority:2" json:"party_id,omitempty"`
	Direction     LedgerEntryDirection  `gorm:"type:text;not null" json:"direction"`
	Amount        int64                 `gorm:"not null" json:"amount"`
	CreatedAt     time.Time             `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (LedgerEntryLine) TableName() string { return "ledger_entry_lines" }

// GLEntry is a flattened ledger line with its header, as shown in the general ledger.
type GLEntry struct {
	EntryID     snowflake.ID          `json:"entry_id"`
	LineID      snowflake.ID          `json:"line_id"`
	PostingDate time.Time             `json:"posting_date"`
	AccountCode string                `json:"account"`
	AccountName string                `json:"account_name"`
	PartyType   partydomain.PartyType `json:"party_type,omitempty"`
	PartyID     snowflake.ID          `json:"party_id,omitempty"`
	Debit       int64                 `json:"debit"`
	Credit      int64                 `json:"credit"`
	VoucherType VoucherType           `json:"voucher_type"`
	VoucherID   snowflake.ID          `json:"voucher_id"`
	VoucherNo   string                `json:"voucher_no"`
	Kind        EntryKind             `json:"kind"`
	IsOpening   bool                  `json:"is_opening"`
	IsCancelled bool                  `json:"is_cancelled"`
	Remarks     string                `json:"remarks,omitempty"`
}

// Balance is a debit/credit pair in minor units.
type Balance struct {
	Debit  int64 `json:"debit"`
	Credit int64 `json:"credit"`
}

// Net returns debit minus credit.
func (b Balance) Net() int64 { return b.Debit - b.Credit }

// AccountBalance splits an account's movement into opening and period figures.
type AccountBalance struct {
	AccountCode string  `json:"account"`
	Opening     Balance `json:"opening"`
	Period      Balance `json:"period"`
}
