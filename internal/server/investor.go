package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	investordomain "github.com/smallbiznis/foundr/internal/investor/domain"
)

func (s *Server) SubmitInvestorInterest(c *gin.Context) {
	var req investordomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ClientIP = c.ClientIP()

	resp, err := s.investorSvc.Submit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
