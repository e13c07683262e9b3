package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecosnap/internal/services"
)

type StatsHandler struct {
	service services.StatsService
	*Responder
}

func NewStatsHandler(service services.StatsService, r *Responder) *StatsHandler {
	return &StatsHandler{service: service, Responder: r}
}

// GET /api/stats/dashboard
func (h *StatsHandler) Dashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, d)
}

// GET /api/stats/reports
func (h *StatsHandler) Reports(c *gin.Context) {
	rs, err := h.service.ReportStats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, rs)
}

// GET /api/stats/users
func (h *StatsHandler) Users(c *gin.Context) {
	us, err := h.service.UserStats(c.Request.Context(), principalFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, us)
}

// GET /api/stats/organizations
func (h *StatsHandler) Organizations(c *gin.Context) {
	out, err := h.service.OrganizationStats(c.Request.Context(), principalFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, out)
}
