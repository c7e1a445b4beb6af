package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pixelmint/authcore/rate"
)

type quotaResponse struct {
	rate.Status
	IsAuthenticated bool `json:"isAuthenticated"`
}

// handleCheckQuota reports the caller's current quota with no side effect.
func (s *Server) handleCheckQuota(c *gin.Context) {
	identifier, authenticated := s.identity(c)

	status := s.engine.CheckQuota(c.Request.Context(), identifier, authenticated)
	c.JSON(http.StatusOK, quotaResponse{Status: status, IsAuthenticated: authenticated})
}

// handleRecordUsage consumes one unit of generation quota and reports the
// updated view. Quota answers are never errors: a degraded shared backend is
// invisible here.
func (s *Server) handleRecordUsage(c *gin.Context) {
	identifier, authenticated := s.identity(c)

	status := s.engine.RecordUsage(c.Request.Context(), identifier, authenticated)
	c.JSON(http.StatusOK, quotaResponse{Status: status, IsAuthenticated: authenticated})
}
