package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	commissiondomain "github.com/smallbiznis/agrimarket/internal/commission/domain"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
)

func (s *Server) ListPendingCommissions(c *gin.Context) {
	filter, err := commissionFilterFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.commissionSvc.ListPending(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type generateCommissionsPayload struct {
	FromDate  string                `json:"from_date"`
	ToDate    string                `json:"to_date"`
	PartyType partydomain.PartyType `json:"party_type"`
	Party     snowflake.ID          `json:"party"`
	Invoices  []snowflake.ID        `json:"invoices"`
}

// GenerateCommissions creates draft commission sales invoices for the pending forms.
func (s *Server) GenerateCommissions(c *gin.Context) {
	var payload generateCommissionsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	fromDate, err := parseDate(payload.FromDate)
	if err != nil {
		AbortWithError(c, newValidationError("from_date", "invalid_from_date", "invalid from_date"))
		return
	}
	toDate, err := parseDate(payload.ToDate)
	if err != nil {
		AbortWithError(c, newValidationError("to_date", "invalid_to_date", "invalid to_date"))
		return
	}

	resp, err := s.commissionSvc.Generate(c.Request.Context(), commissiondomain.GenerateRequest{
		Filter: commissiondomain.Filter{
			FromDate:  fromDate,
			ToDate:    toDate,
			PartyType: payload.PartyType,
			Party:     payload.Party,
		},
		Invoices: payload.Invoices,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func commissionFilterFromQuery(c *gin.Context) (commissiondomain.Filter, error) {
	party, err := queryID(c, "party")
	if err != nil {
		return commissiondomain.Filter{}, err
	}
	fromDate, err := queryDate(c, "from_date", false)
	if err != nil {
		return commissiondomain.Filter{}, err
	}
	toDate, err := queryDate(c, "to_date", false)
	if err != nil {
		return commissiondomain.Filter{}, err
	}
	return commissiondomain.Filter{
		FromDate:  valueOrZero(fromDate),
		ToDate:    valueOrZero(toDate),
		PartyType: partydomain.PartyType(strings.TrimSpace(c.Query("party_type"))),
		Party:     party,
	}, nil
}

func isCommissionValidationError(err error) bool {
	return isAny(err,
		commissiondomain.ErrInvalidOrganization,
		commissiondomain.ErrInvalidFilter,
		commissiondomain.ErrInvalidDateRange,
	)
}
