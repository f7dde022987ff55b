package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
)

// Posting is a balanced set of lines booked for one voucher.
type Posting struct {
	VoucherType VoucherType
	VoucherID   snowflake.ID
	VoucherNo   string
	PostingDate time.Time
	IsOpening   bool
	Remarks     string
	Lines       []PostingLine
}

// PostingLine books Amount on the account identified by AccountCode.
type PostingLine struct {
	AccountCode string
	PartyType   partydomain.PartyType
	PartyID     snowflake.ID
	Direction   LedgerEntryDirection
	Amount      int64
}

// Debit builds a debit line.
func Debit(accountCode string, partyType partydomain.PartyType, partyID snowflake.ID, amount int64) PostingLine {
	return PostingLine{AccountCode: accountCode, PartyType: partyType, PartyID: partyID, Direction: LedgerEntryDirectionDebit, Amount: amount}
}

// Credit builds a credit line.
func Credit(accountCode string, partyType partydomain.PartyType, partyID snowflake.ID, amount int64) PostingLine {
	return PostingLine{AccountCode: accountCode, PartyType: partyType, PartyID: partyID, Direction: LedgerEntryDirectionCredit, Amount: amount}
}

// ValidateBalanced checks that debits equal credits and at least one side is non-zero.
func ValidateBalanced(lines []LedgerEntryLine) error {
	var debit, credit int64
	for _, line := range lines {
		switch line.Direction {
		case LedgerEntryDirectionDebit:
			debit += line.Amount
		case LedgerEntryDirectionCredit:
			credit += line.Amount
		default:
			return ErrInvalidLineDirection
		}
	}
	if debit != credit {
		return ErrUnbalanced
	}
	if debit == 0 {
		return ErrZeroPosting
	}
	return nil
}

// Mirror returns lines with debit and credit swapped.
func Mirror(lines []LedgerEntryLine) []LedgerEntryLine {
	out := make([]LedgerEntryLine, len(lines))
	for i, line := range lines {
		line.Direction = line.Direction.Opposite()
		out[i] = line
	}
	return out
}
