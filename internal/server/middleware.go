package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
)

const (
	HeaderCompany   = "X-Company-ID"
	HeaderActor     = "X-Actor"
	HeaderActorRole = "X-Actor-Role"
)

// CompanyScope puts the requested company on the request context. Requests
// without the header use the configured default company.
func (s *Server) CompanyScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := s.cfg.DefaultCompanyID
		if raw := strings.TrimSpace(c.GetHeader(HeaderCompany)); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed <= 0 {
				AbortWithError(c, ErrInvalidCompany)
				return
			}
			companyID = parsed
		}
		if companyID <= 0 {
			AbortWithError(c, ErrInvalidCompany)
			return
		}

		c.Request = c.Request.WithContext(orgcontext.WithOrgID(c.Request.Context(), companyID))
		c.Next()
	}
}
