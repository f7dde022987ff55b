package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	paymentdomain "github.com/smallbiznis/agrimarket/internal/payment/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
)

type paymentPayload struct {
	paymentdomain.CreateRequest
	PostingDate string `json:"posting_date"`
}

func (s *Server) CreatePayment(c *gin.Context) {
	var payload paymentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	postingDate, err := parseDate(payload.PostingDate)
	if err != nil {
		AbortWithError(c, newValidationError("posting_date", "invalid_posting_date", "invalid posting_date"))
		return
	}
	req := payload.CreateRequest
	req.PostingDate = postingDate
	req.ModeOfPayment = strings.TrimSpace(req.ModeOfPayment)
	req.Remarks = strings.TrimSpace(req.Remarks)

	resp, err := s.paymentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPayments(c *gin.Context) {
	var query struct {
		pagination.Pagination
		PartyType   string `form:"party_type"`
		PaymentType string `form:"payment_type"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	partyID, err := queryID(c, "party_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	status, err := parseOptionalDocstatus(c.Query("docstatus"))
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

	resp, err := s.paymentSvc.List(c.Request.Context(), paymentdomain.ListRequest{
		Pagination: query.Pagination,
		ListFilter: paymentdomain.ListFilter{
			PartyType:   partydomain.PartyType(strings.TrimSpace(query.PartyType)),
			PartyID:     partyID,
			PaymentType: paymentdomain.PaymentType(strings.TrimSpace(query.PaymentType)),
			Docstatus:   status,
			FromDate:    fromDate,
			ToDate:      toDate,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPayment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SubmitPayment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.Submit(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelPayment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.Cancel(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePayment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.paymentSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isPaymentValidationError(err error) bool {
	return isAny(err,
		paymentdomain.ErrInvalidOrganization,
		paymentdomain.ErrInvalidID,
		paymentdomain.ErrInvalidPartyType,
		paymentdomain.ErrInvalidParty,
		paymentdomain.ErrInvalidPaymentType,
		paymentdomain.ErrInvalidAmount,
		paymentdomain.ErrInvalidDateRange,
	)
}
