package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/agrimarket/internal/authorization"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	reportdomain "github.com/smallbiznis/agrimarket/internal/report/domain"
	"go.uber.org/zap"
)

// reportFormat reads the format query parameter. Rendering files needs the
// report generate permission on top of view and a render token of the company.
func (s *Server) reportFormat(c *gin.Context, allowXLSX bool) (reportdomain.Format, error) {
	format, err := reportdomain.ParseFormat(c.Query("format"))
	if err != nil {
		return "", err
	}
	if format == reportdomain.FormatXLSX && !allowXLSX {
		return "", reportdomain.ErrInvalidFormat
	}
	if format != reportdomain.FormatJSON {
		if err := s.authorizeAction(c, authorization.ObjectReport, authorization.ActionGenerate); err != nil {
			return "", err
		}
		if err := s.allowRender(c); err != nil {
			return "", err
		}
	}
	return format, nil
}

func (s *Server) allowRender(c *gin.Context) error {
	orgID, _ := orgcontext.OrgIDFromContext(c.Request.Context())
	result, err := s.limiter.AllowRender(c.Request.Context(), orgID)
	if err != nil {
		// Rendering stays available when redis is down.
		s.log.Warn("report render limit check failed", zap.Error(err))
		return nil
	}
	if !result.Allowed {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
		return ErrTooManyRequests
	}
	return nil
}

func partyFilterFromQuery(c *gin.Context) (reportdomain.Filter, error) {
	party, err := queryID(c, "party")
	if err != nil {
		return reportdomain.Filter{}, err
	}
	fromDate, err := queryDate(c, "from_date", false)
	if err != nil {
		return reportdomain.Filter{}, err
	}
	toDate, err := queryDate(c, "to_date", false)
	if err != nil {
		return reportdomain.Filter{}, err
	}
	considerDraft, err := parseOptionalBool(c.Query("consider_draft"))
	if err != nil {
		return reportdomain.Filter{}, newValidationError("consider_draft", "invalid_consider_draft", "invalid consider_draft")
	}
	neglectItems, err := parseOptionalBool(c.Query("neglect_items"))
	if err != nil {
		return reportdomain.Filter{}, newValidationError("neglect_items", "invalid_neglect_items", "invalid neglect_items")
	}

	return reportdomain.Filter{
		PartyType:     partydomain.PartyType(strings.TrimSpace(c.Query("party_type"))),
		Party:         party,
		PartyGroup:    strings.TrimSpace(c.Query("party_group")),
		FromDate:      valueOrZero(fromDate),
		ToDate:        valueOrZero(toDate),
		ConsiderDraft: considerDraft != nil && *considerDraft,
		NeglectItems:  neglectItems != nil && *neglectItems,
	}, nil
}

func (s *Server) StatementForms(c *gin.Context) {
	filter, err := partyFilterFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	format, err := s.reportFormat(c, false)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if format == reportdomain.FormatPDF {
		files, err := s.reportSvc.RenderStatementForms(c.Request.Context(), filter)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": files})
		return
	}

	resp, err := s.reportSvc.StatementForms(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DetailedReport(c *gin.Context) {
	filter, err := partyFilterFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	format, err := s.reportFormat(c, false)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if format == reportdomain.FormatPDF {
		files, err := s.reportSvc.RenderDetailedReport(c.Request.Context(), filter)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": files})
		return
	}

	resp, err := s.reportSvc.DetailedReport(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CollectionForm(c *gin.Context) {
	filter, err := partyFilterFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	format, err := s.reportFormat(c, false)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if format == reportdomain.FormatPDF {
		files, err := s.reportSvc.RenderCollectionForm(c.Request.Context(), filter)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": files})
		return
	}

	resp, err := s.reportSvc.CollectionForm(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TrialBalance(c *gin.Context) {
	fromDate, err := queryDate(c, "from_date", false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	toDate, err := queryDate(c, "to_date", false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	format, err := s.reportFormat(c, true)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	filter := reportdomain.TrialBalanceFilter{
		FromDate: valueOrZero(fromDate),
		ToDate:   valueOrZero(toDate),
	}

	if format != reportdomain.FormatJSON {
		files, err := s.reportSvc.RenderTrialBalance(c.Request.Context(), filter, format)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": files})
		return
	}

	resp, err := s.reportSvc.TrialBalance(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ItemsList(c *gin.Context) {
	supplierID, err := queryID(c, "supplier")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	fromDate, err := queryDate(c, "from_date", false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	toDate, err := queryDate(c, "to_date", false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	format, err := s.reportFormat(c, true)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	filter := reportdomain.ItemsListFilter{
		SupplierID:  supplierID,
		InvoiceName: strings.TrimSpace(c.Query("invoice_id")),
		ItemCode:    strings.TrimSpace(c.Query("item_code")),
		FromDate:    valueOrZero(fromDate),
		ToDate:      valueOrZero(toDate),
	}

	if format != reportdomain.FormatJSON {
		files, err := s.reportSvc.RenderItemsList(c.Request.Context(), filter, format)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": files})
		return
	}

	resp, err := s.reportSvc.ItemsList(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isReportValidationError(err error) bool {
	return isAny(err,
		reportdomain.ErrInvalidOrganization,
		reportdomain.ErrInvalidPartyType,
		reportdomain.ErrInvalidDateRange,
		reportdomain.ErrInvalidFilter,
		reportdomain.ErrInvalidFormat,
	)
}
