package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) ListCountries(c *gin.Context) {
	countries, err := s.referenceSvc.ListCountries(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": countries})
}

func (s *Server) SeedCountries(c *gin.Context) {
	result, err := s.referenceSvc.SeedCountries(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.log.Info("country seed requested",
		zap.Int("inserted", result.Inserted),
		zap.Bool("skipped", result.Skipped),
	)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}
