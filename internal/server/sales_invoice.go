package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	salesinvoicedomain "github.com/smallbiznis/agrimarket/internal/salesinvoice/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
)

type salesInvoicePayload struct {
	salesinvoicedomain.CreateRequest
	PostingDate string `json:"posting_date"`
}

func (s *Server) CreateSalesInvoice(c *gin.Context) {
	var payload salesInvoicePayload
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
	req.Remarks = strings.TrimSpace(req.Remarks)

	resp, err := s.salesInvoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListSalesInvoices(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	customerID, err := queryID(c, "customer_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	formID, err := queryID(c, "invoice_form_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	status, err := parseOptionalDocstatus(c.Query("docstatus"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	isCommission, err := parseOptionalBool(c.Query("is_commission_invoice"))
	if err != nil {
		AbortWithError(c, newValidationError("is_commission_invoice", "invalid_is_commission_invoice", "invalid is_commission_invoice"))
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

	resp, err := s.salesInvoiceSvc.List(c.Request.Context(), salesinvoicedomain.ListRequest{
		Pagination: page,
		ListFilter: salesinvoicedomain.ListFilter{
			CustomerID:          customerID,
			InvoiceFormID:       formID,
			Docstatus:           status,
			IsCommissionInvoice: isCommission,
			FromDate:            fromDate,
			ToDate:              toDate,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSalesInvoice(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.salesInvoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SubmitSalesInvoice(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.salesInvoiceSvc.Submit(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelSalesInvoice(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.salesInvoiceSvc.Cancel(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteSalesInvoice(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.salesInvoiceSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isSalesInvoiceValidationError(err error) bool {
	return isAny(err,
		salesinvoicedomain.ErrInvalidOrganization,
		salesinvoicedomain.ErrInvalidID,
		salesinvoicedomain.ErrInvalidCustomer,
		salesinvoicedomain.ErrInvalidPartyType,
		salesinvoicedomain.ErrInvalidItemCode,
		salesinvoicedomain.ErrInvalidQty,
		salesinvoicedomain.ErrInvalidRate,
		salesinvoicedomain.ErrInvalidTaxRate,
		salesinvoicedomain.ErrNoItems,
		salesinvoicedomain.ErrZeroTotal,
		salesinvoicedomain.ErrInvalidDateRange,
	)
}
