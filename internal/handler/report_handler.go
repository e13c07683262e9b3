package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecosnap/internal/models"
	"ecosnap/internal/services"
)

type ReportHandler struct {
	service services.ReportService
	*Responder
}

func NewReportHandler(service services.ReportService, r *Responder) *ReportHandler {
	return &ReportHandler{service: service, Responder: r}
}

type reportQuery struct {
	Status    string   `form:"status"`
	Category  string   `form:"category"`
	Priority  string   `form:"priority"`
	User      string   `form:"user"`
	Lat       *float64 `form:"lat"`
	Lng       *float64 `form:"lng"`
	Latitude  *float64 `form:"latitude"`
	Longitude *float64 `form:"longitude"`
	Radius    float64  `form:"radius"`
	pageQuery
}

// GET /api/reports
func (h *ReportHandler) List(c *gin.Context) {
	var q reportQuery
	if err := bindQuery(c, &q); err != nil {
		h.respondError(c, err)
		return
	}

	page, err := h.service.ListReports(c.Request.Context(), models.ReportFilter{
		Status:     models.ReportStatus(q.Status),
		Category:   models.Category(q.Category),
		Priority:   models.Priority(q.Priority),
		UserID:     q.User,
		Lat:        firstSet(q.Lat, q.Latitude),
		Lon:        firstSet(q.Lng, q.Longitude),
		RadiusKm:   q.Radius,
		Pagination: models.Pagination{Page: q.Page, Limit: q.Limit},
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.list(c, page.Items, len(page.Items), page.Total, page.Page, page.Pages())
}

func firstSet(vs ...*float64) *float64 {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

// GET /api/reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	report, err := h.service.GetReport(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, report)
}

// GET /api/reports/user/:userId
func (h *ReportHandler) ListByUser(c *gin.Context) {
	userID, err := parseID(c, "userId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	reports, err := h.service.ListUserReports(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.list(c, reports, len(reports), int64(len(reports)), 1, 1)
}

// POST /api/reports
func (h *ReportHandler) Create(c *gin.Context) {
	var in models.CreateReportInput
	if err := bindJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	report, err := h.service.CreateReport(c.Request.Context(), principalFrom(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusCreated, "Report created successfully", report)
}

// PUT /api/reports/:id
func (h *ReportHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var in models.UpdateReportInput
	if err := bindJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	report, err := h.service.UpdateReport(c.Request.Context(), principalFrom(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Report updated successfully", report)
}

// DELETE /api/reports/:id
func (h *ReportHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.service.DeleteReport(c.Request.Context(), principalFrom(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Report deleted successfully", nil)
}

// PUT /api/reports/:id/upvote
func (h *ReportHandler) Upvote(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	result, err := h.service.ToggleUpvote(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, result)
}

// PUT /api/reports/:id/citizen-verify
func (h *ReportHandler) CitizenVerify(c *gin.Context) {
	h.transition(c, "Cleanup verified, thank you", h.service.CitizenVerifyCompletion)
}

// PUT /api/reports/:id/verify
func (h *ReportHandler) Verify(c *gin.Context) {
	h.transition(c, "Report verified successfully", h.service.VerifyReport)
}

// PUT /api/reports/:id/unverify
func (h *ReportHandler) Unverify(c *gin.Context) {
	h.transition(c, "Report returned to pending", h.service.UnverifyReport)
}

// PUT /api/reports/:id/reject
func (h *ReportHandler) Reject(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var body struct {
		Reason string `json:"reason" binding:"max=500"`
	}
	if err := bindOptionalJSON(c, &body); err != nil {
		h.respondError(c, err)
		return
	}
	report, err := h.service.RejectReport(c.Request.Context(), principalFrom(c), id, body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Report rejected", report)
}

// PUT /api/reports/:id/assign
func (h *ReportHandler) Assign(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var body struct {
		OrganizationID string `json:"organization_id" binding:"required"`
	}
	if err := bindJSON(c, &body); err != nil {
		h.respondError(c, err)
		return
	}
	orgID, err := primitive.ObjectIDFromHex(body.OrganizationID)
	if err != nil {
		h.respondError(c, models.ErrInvalidID)
		return
	}

	report, order, err := h.service.AssignReport(c.Request.Context(), principalFrom(c), id, orgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Report assigned successfully", gin.H{"report": report, "work_order": order})
}

func (h *ReportHandler) transition(c *gin.Context, msg string, fn func(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Report, error)) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	report, err := fn(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusOK, msg, report)
}
