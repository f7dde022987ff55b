package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoiceformdomain "github.com/smallbiznis/agrimarket/internal/invoiceform/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
)

// invoiceFormPayload accepts posting_date as a plain date.
type invoiceFormPayload struct {
	invoiceformdomain.CreateRequest
	PostingDate string `json:"posting_date"`
}

func (p invoiceFormPayload) toRequest() (invoiceformdomain.CreateRequest, error) {
	postingDate, err := parseDate(p.PostingDate)
	if err != nil {
		return invoiceformdomain.CreateRequest{}, newValidationError("posting_date", "invalid_posting_date", "invalid posting_date")
	}
	req := p.CreateRequest
	req.PostingDate = postingDate
	req.Remarks = strings.TrimSpace(req.Remarks)
	for i := range req.Items {
		req.Items[i].ItemCode = strings.TrimSpace(req.Items[i].ItemCode)
		req.Items[i].ItemName = strings.TrimSpace(req.Items[i].ItemName)
	}
	return req, nil
}

func (s *Server) CreateInvoiceForm(c *gin.Context) {
	var payload invoiceFormPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceFormSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListInvoiceForms(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	supplierID, err := queryID(c, "supplier_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	customerID, err := queryID(c, "customer_id")
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

	resp, err := s.invoiceFormSvc.List(c.Request.Context(), invoiceformdomain.ListRequest{
		Pagination: page,
		ListFilter: invoiceformdomain.ListFilter{
			SupplierID: supplierID,
			CustomerID: customerID,
			Docstatus:  status,
			FromDate:   fromDate,
			ToDate:     toDate,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceForm(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceFormSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoiceForm(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var payload invoiceFormPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceFormSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SubmitInvoiceForm(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceFormSvc.Submit(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelInvoiceForm(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.invoiceFormSvc.Cancel(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteInvoiceForm(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.invoiceFormSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// InvoiceFormPDF streams the printable form.
func (s *Server) InvoiceFormPDF(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	content, err := s.invoiceFormSvc.RenderPDF(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", "invoice-form-"+id.String()+".pdf"))
	c.Data(http.StatusOK, "application/pdf", content)
}

func isInvoiceFormValidationError(err error) bool {
	return isAny(err,
		invoiceformdomain.ErrInvalidOrganization,
		invoiceformdomain.ErrInvalidID,
		invoiceformdomain.ErrInvalidSupplier,
		invoiceformdomain.ErrInvalidCustomer,
		invoiceformdomain.ErrInvalidPamper,
		invoiceformdomain.ErrInvalidItemCustomer,
		invoiceformdomain.ErrInvalidItemPamper,
		invoiceformdomain.ErrInvalidItemCode,
		invoiceformdomain.ErrInvalidQty,
		invoiceformdomain.ErrInvalidPrice,
		invoiceformdomain.ErrInvalidCommissionItem,
		invoiceformdomain.ErrInvalidCommission,
		invoiceformdomain.ErrInvalidPercentage,
		invoiceformdomain.ErrInvalidPostingDate,
		invoiceformdomain.ErrNoItems,
		invoiceformdomain.ErrZeroTotal,
		invoiceformdomain.ErrInvalidDateRange,
	)
}
