package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const (
	LabelTotalWithoutTaxes = "Total Without Taxes"
	LabelTaxes             = "Taxes"
	LabelTotalWithTaxes    = "Total with Taxes"
	LabelGrandTotal        = "Grand Total"
	LabelOpeningBalance    = "Opening Balance"
	LabelCommissions       = "Commissions"
	LabelTotal             = "Total"

	DoctypeInvoiceForm  = "Invoice Form"
	DoctypePaymentEntry = "Payment Entry"
)

// StatementParty is one party's page of the statement forms.
type StatementParty struct {
	PartyID       snowflake.ID       `json:"party"`
	PartyName     string             `json:"party_name"`
	Items         []StatementItem    `json:"items"`
	Totals        []StatementTotal   `json:"totals"`
	Payments      []StatementPayment `json:"payments"`
	PaymentsTotal *int64             `json:"payments_total,omitempty"`
}

type StatementItem struct {
	FormID      snowflake.ID    `json:"invoice_id"`
	FormName    string          `json:"invoice_name"`
	PostingDate time.Time       `json:"date"`
	ItemName    string          `json:"item_name"`
	Qty         decimal.Decimal `json:"qty"`
	Price       int64           `json:"price"`
	Total       int64           `json:"total"`
	Commission  int64           `json:"commission"`
}

type StatementTotal struct {
	Label      string          `json:"label"`
	Qty        decimal.Decimal `json:"qty"`
	Total      int64           `json:"total"`
	Commission int64           `json:"commission"`
}

type StatementPayment struct {
	PaymentID     snowflake.ID `json:"payment_id"`
	PaymentName   string       `json:"payment_name"`
	PostingDate   time.Time    `json:"date"`
	ModeOfPayment string       `json:"mop"`
	PaymentType   string       `json:"payment_type"`
	Remarks       string       `json:"remarks"`
	PaidAmount    int64        `json:"paid_amount"`
}

// DetailedParty is one party's detailed statement with its running summary.
type DetailedParty struct {
	PartyID    snowflake.ID       `json:"party"`
	PartyName  string             `json:"party_name"`
	PartyGroup string             `json:"party_group"`
	Items      []StatementItem    `json:"items"`
	Payments   []StatementPayment `json:"payments"`
	Summary    []SummaryRow       `json:"summary"`
}

// SummaryRow is a running-balance line. BalanceFrom holds the last positive
// balance and BalanceTo the last non-positive one, both as absolute values.
type SummaryRow struct {
	Reference   string     `json:"reference"`
	PostingDate *time.Time `json:"date,omitempty"`
	Statement   string     `json:"statement"`
	Debit       int64      `json:"debit"`
	Credit      int64      `json:"credit"`
	BalanceFrom int64      `json:"balance_from"`
	BalanceTo   int64      `json:"balance_to"`
}

// CollectionParty lists a party's movements between its opening and total rows.
type CollectionParty struct {
	PartyID   snowflake.ID    `json:"party"`
	PartyName string          `json:"party_name"`
	Rows      []CollectionRow `json:"rows"`
}

type CollectionRow struct {
	Doctype     string          `json:"doctype"`
	DocumentID  snowflake.ID    `json:"document_id,omitempty"`
	Reference   string          `json:"reference_id"`
	PostingDate *time.Time      `json:"date,omitempty"`
	Qty         decimal.Decimal `json:"qty"`
	Price       int64           `json:"price"`
	Statement   string          `json:"statement"`
	Debit       int64           `json:"debit"`
	Credit      int64           `json:"credit"`
	// Balance is debit minus credit, set on the total row only.
	Balance int64 `json:"balance"`
}

type TrialBalanceRow struct {
	Section       string `json:"section"`
	Title         string `json:"title"`
	Account       string `json:"account,omitempty"`
	Parent        string `json:"parent,omitempty"`
	IsParent      bool   `json:"is_parent"`
	OpeningDebit  int64  `json:"opening_debit"`
	OpeningCredit int64  `json:"opening_credit"`
	Debit         int64  `json:"debit"`
	Credit        int64  `json:"credit"`
	ClosingDebit  int64  `json:"closing_debit"`
	ClosingCredit int64  `json:"closing_credit"`
}

type ItemsListRow struct {
	FormID       snowflake.ID    `json:"invoice_id"`
	FormName     string          `json:"invoice_name"`
	PostingDate  time.Time       `json:"posting_date"`
	SupplierID   snowflake.ID    `json:"supplier"`
	SupplierName string          `json:"supplier_name"`
	ItemCode     string          `json:"item_code"`
	ItemName     string          `json:"item_name"`
	CustomerID   snowflake.ID    `json:"customer"`
	CustomerName string          `json:"customer_name"`
	Qty          decimal.Decimal `json:"qty"`
	Price        int64           `json:"price"`
	Total        int64           `json:"total"`
	Commission   int64           `json:"commission"`
}

// Files lists download URLs of generated report files.
type Files struct {
	FileURLs []string `json:"file_urls"`
}
