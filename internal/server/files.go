package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	filesdomain "github.com/smallbiznis/agrimarket/internal/files/domain"
)

// DownloadFile serves a rendered document or report.
func (s *Server) DownloadFile(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	file, err := s.filesSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func isFileValidationError(err error) bool {
	return isAny(err,
		filesdomain.ErrInvalidOrganization,
		filesdomain.ErrInvalidID,
		filesdomain.ErrInvalidName,
		filesdomain.ErrEmptyContent,
	)
}
