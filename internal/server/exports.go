package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	exportdomain "github.com/tabresto/fiscal/internal/exportjob/domain"
	"github.com/tabresto/fiscal/pkg/db/pagination"
)

func (s *Server) CreateExport(c *gin.Context) {
	var req exportdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.MerchantID = c.Param("merchant_id")

	resp, err := s.exportSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (s *Server) ListExports(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.exportSvc.List(c.Request.Context(), c.Param("merchant_id"), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetExport(c *gin.Context) {
	resp, err := s.exportSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteExport(c *gin.Context) {
	if err := s.exportSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) DownloadExport(c *gin.Context) {
	dl, err := s.exportSvc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	c.Data(http.StatusOK, dl.ContentType, dl.Data)
}
