package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"gorm.io/datatypes"
)

// PaymentType is the direction of a payment entry.
type PaymentType string

const (
	PaymentTypeReceive PaymentType = "Receive"
	PaymentTypePay     PaymentType = "Pay"
)

func (t PaymentType) Valid() bool {
	return t == PaymentTypeReceive || t == PaymentTypePay
}

const DefaultModeOfPayment = "Cash"

// PaymentEntry records cash received from or paid to a party.
type PaymentEntry struct {
	ID            snowflake.ID          `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID          `gorm:"not null;index;uniqueIndex:ux_payment_entries_org_name,priority:1" json:"company_id"`
	Name          string                `gorm:"type:text;not null;uniqueIndex:ux_payment_entries_org_name,priority:2" json:"name"`
	PartyType     partydomain.PartyType `gorm:"type:text;not null;index:ix_payment_entries_party,priority:1" json:"party_type"`
	PartyID       snowflake.ID          `gorm:"not null;index:ix_payment_entries_party,priority:2" json:"party_id"`
	PaymentType   PaymentType           `gorm:"type:text;not null" json:"payment_type"`
	ModeOfPayment string                `gorm:"type:text;not null;default:'Cash'" json:"mode_of_payment"`
	PaidAmount    int64                 `gorm:"not null" json:"paid_amount"`
	PostingDate   time.Time             `gorm:"not null;index" json:"posting_date"`
	Docstatus     docstatus.Docstatus   `gorm:"not null;default:0;index" json:"docstatus"`
	Remarks       string                `gorm:"type:text;not null;default:''" json:"remarks"`
	Metadata      datatypes.JSONMap     `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time             `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time             `gorm:"not null" json:"updated_at"`
}

func (PaymentEntry) TableName() string { return "payment_entries" }

// SignedAmount returns the paid amount as it counts in party statements: payments to
// suppliers and receipts from customers are positive, the opposite direction negative.
func SignedAmount(partyType partydomain.PartyType, paymentType PaymentType, amount int64) int64 {
	switch {
	case partyType == partydomain.PartyTypeSupplier && paymentType == PaymentTypePay,
		partyType == partydomain.PartyTypeCustomer && paymentType == PaymentTypeReceive:
		return amount
	case partyType == partydomain.PartyTypeSupplier && paymentType == PaymentTypeReceive,
		partyType == partydomain.PartyTypeCustomer && paymentType == PaymentTypePay:
		return -amount
	default:
		return 0
	}
}

// Signed returns SignedAmount for the entry.
func (p PaymentEntry) Signed() int64 {
	return SignedAmount(p.PartyType, p.PaymentType, p.PaidAmount)
}
