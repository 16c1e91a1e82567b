package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	recapdomain "github.com/tabresto/fiscal/internal/recap/domain"
)

func (s *Server) GetRecap(c *gin.Context) {
	year, month, err := parsePeriodParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.recapSvc.Get(c.Request.Context(), c.Param("merchant_id"), year, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GenerateRecap(c *gin.Context) {
	year, month, err := parsePeriodParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.recapSvc.Generate(c.Request.Context(), c.Param("merchant_id"), year, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) RegenerateRecap(c *gin.Context) {
	year, month, err := parsePeriodParams(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.recapSvc.Regenerate(c.Request.Context(), c.Param("merchant_id"), year, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func parsePeriodParams(c *gin.Context) (int, int, error) {
	year, err := parseIntParam(c.Param("year"))
	if err != nil {
		return 0, 0, recapdomain.ErrInvalidPeriod
	}
	month, err := parseIntParam(c.Param("month"))
	if err != nil {
		return 0, 0, recapdomain.ErrInvalidPeriod
	}
	return year, month, nil
}
