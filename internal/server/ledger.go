package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/smallbiznis/agrimarket/internal/ledger/domain"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
)

func (s *Server) ListLedgerAccounts(c *gin.Context) {
	resp, err := s.ledgerSvc.ListAccounts(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListGLEntries(c *gin.Context) {
	voucherID, err := queryID(c, "voucher_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	partyID, err := queryID(c, "party_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	fromDate, err := queryDate(c, "from_date", false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	toDate, err := queryDate(c, "to_date", true)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	includeCancelled, err := parseOptionalBool(c.Query("include_cancelled"))
	if err != nil {
		AbortWithError(c, newValidationError("include_cancelled", "invalid_include_cancelled", "invalid include_cancelled"))
		return
	}

	resp, err := s.ledgerSvc.ListGLEntries(c.Request.Context(), ledgerdomain.GLFilter{
		VoucherType:      ledgerdomain.VoucherType(strings.TrimSpace(c.Query("voucher_type"))),
		VoucherID:        voucherID,
		PartyType:        partydomain.PartyType(strings.TrimSpace(c.Query("party_type"))),
		PartyID:          partyID,
		AccountCode:      strings.TrimSpace(c.Query("account")),
		FromDate:         fromDate,
		ToDate:           toDate,
		IncludeCancelled: includeCancelled != nil && *includeCancelled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type openingBalancePayload struct {
	ledgerdomain.OpeningBalanceRequest
	PostingDate string `json:"posting_date"`
}

// CreateOpeningBalance books a party or account balance carried over from before the system.
func (s *Server) CreateOpeningBalance(c *gin.Context) {
	var payload openingBalancePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	postingDate, err := parseDate(payload.PostingDate)
	if err != nil {
		AbortWithError(c, newValidationError("posting_date", "invalid_posting_date", "invalid posting_date"))
		return
	}
	req := payload.OpeningBalanceRequest
	req.PostingDate = postingDate
	req.AccountCode = strings.TrimSpace(req.AccountCode)

	resp, err := s.ledgerSvc.PostOpeningBalance(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func isLedgerValidationError(err error) bool {
	return isAny(err,
		ledgerdomain.ErrInvalidOrganization,
		ledgerdomain.ErrInvalidVoucher,
		ledgerdomain.ErrInvalidPostingDate,
		ledgerdomain.ErrInvalidEntryLines,
		ledgerdomain.ErrInvalidAccount,
		ledgerdomain.ErrInvalidLineAmount,
		ledgerdomain.ErrInvalidLineDirection,
		ledgerdomain.ErrPartyRequired,
		ledgerdomain.ErrUnbalanced,
		ledgerdomain.ErrZeroPosting,
		ledgerdomain.ErrInvalidDateRange,
	)
}
