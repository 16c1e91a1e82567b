package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	settingsdomain "github.com/tabresto/fiscal/internal/fiscalsettings/domain"
)

// GetSettings returns the merchant's fiscal settings, creating an
// unconfigured placeholder on first access.
func (s *Server) GetSettings(c *gin.Context) {
	resp, err := s.settingsSvc.GetOrCreate(c.Request.Context(), c.Param("merchant_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateSettings(c *gin.Context) {
	var req settingsdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.MerchantID = c.Param("merchant_id")

	resp, err := s.settingsSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) UpdateSettings(c *gin.Context) {
	var req settingsdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.MerchantID = c.Param("merchant_id")

	resp, err := s.settingsSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
