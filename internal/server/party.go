package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
)

func (s *Server) CreateCustomer(c *gin.Context) {
	var req partydomain.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.CustomerGroup = strings.TrimSpace(req.CustomerGroup)
	resp, err := s.partySvc.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name          string `form:"name"`
		CustomerGroup string `form:"customer_group"`
		IsFarmer      string `form:"is_farmer"`
		IsCustomer    string `form:"is_customer"`
		IsPamper      string `form:"is_pamper"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	flags := map[string]*bool{}
	for name, raw := range map[string]string{
		"is_farmer":   query.IsFarmer,
		"is_customer": query.IsCustomer,
		"is_pamper":   query.IsPamper,
	} {
		parsed, err := parseOptionalBool(raw)
		if err != nil {
			AbortWithError(c, newValidationError(name, "invalid_"+name, "invalid "+name))
			return
		}
		flags[name] = parsed
	}

	resp, err := s.partySvc.ListCustomers(c.Request.Context(), partydomain.ListCustomerRequest{
		Pagination: query.Pagination,
		ListCustomerFilter: partydomain.ListCustomerFilter{
			Name:          strings.TrimSpace(query.Name),
			CustomerGroup: strings.TrimSpace(query.CustomerGroup),
			IsFarmer:      flags["is_farmer"],
			IsCustomer:    flags["is_customer"],
			IsPamper:      flags["is_pamper"],
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomer(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.partySvc.GetCustomer(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCustomer(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.partySvc.DeleteCustomer(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) CreateSupplier(c *gin.Context) {
	var req partydomain.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.SupplierGroup = strings.TrimSpace(req.SupplierGroup)
	resp, err := s.partySvc.CreateSupplier(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListSuppliers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name          string `form:"name"`
		SupplierGroup string `form:"supplier_group"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.partySvc.ListSuppliers(c.Request.Context(), partydomain.ListSupplierRequest{
		Pagination: query.Pagination,
		ListSupplierFilter: partydomain.ListSupplierFilter{
			Name:          strings.TrimSpace(query.Name),
			SupplierGroup: strings.TrimSpace(query.SupplierGroup),
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSupplier(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.partySvc.GetSupplier(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateSupplierCommissionRequest struct {
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
}

// UpdateSupplierCommission also updates the supplier's farmer customer.
func (s *Server) UpdateSupplierCommission(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var req updateSupplierCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.partySvc.UpdateSupplierCommission(c.Request.Context(), id, req.CommissionPercentage)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteSupplier(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.partySvc.DeleteSupplier(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isPartyValidationError(err error) bool {
	return isAny(err,
		partydomain.ErrInvalidOrganization,
		partydomain.ErrInvalidName,
		partydomain.ErrInvalidPercentage,
		partydomain.ErrInvalidID,
	)
}
