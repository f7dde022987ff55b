package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
)

// Format selects how a report is delivered.
type Format string

const (
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat defaults to JSON.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", ErrInvalidFormat
}

// Filter selects parties and the period for party statements.
// Party wins over PartyGroup; with neither, every party of the type is reported.
type Filter struct {
	PartyType     partydomain.PartyType `json:"party_type"`
	Party         snowflake.ID          `json:"party,omitempty"`
	PartyGroup    string                `json:"party_group,omitempty"`
	FromDate      time.Time             `json:"from_date"`
	ToDate        time.Time             `json:"to_date"`
	ConsiderDraft bool                  `json:"consider_draft,omitempty"`
	NeglectItems  bool                  `json:"neglect_items,omitempty"`
}

type TrialBalanceFilter struct {
	FromDate time.Time `json:"from_date"`
	ToDate   time.Time `json:"to_date"`
}

type ItemsListFilter struct {
	SupplierID  snowflake.ID `json:"supplier,omitempty"`
	InvoiceName string       `json:"invoice_id,omitempty"`
	ItemCode    string       `json:"item_code,omitempty"`
	FromDate    time.Time    `json:"from_date"`
	ToDate      time.Time    `json:"to_date"`
}
