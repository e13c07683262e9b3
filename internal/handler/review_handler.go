package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecosnap/internal/models"
	"ecosnap/internal/services"
)

type ReviewHandler struct {
	service services.ReviewService
	*Responder
}

func NewReviewHandler(service services.ReviewService, r *Responder) *ReviewHandler {
	return &ReviewHandler{service: service, Responder: r}
}

// POST /api/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	var in models.CreateReviewInput
	if err := bindJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	review, err := h.service.RecordReview(c.Request.Context(), principalFrom(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusCreated, "Review submitted successfully", review)
}

// PUT /api/reviews/:id
func (h *ReviewHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var in models.UpdateReviewInput
	if err := bindJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	review, err := h.service.UpdateReview(c.Request.Context(), principalFrom(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Review updated successfully", review)
}

// DELETE /api/reviews/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.service.DeleteReview(c.Request.Context(), principalFrom(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Review deleted successfully", nil)
}

// PUT /api/reviews/:id/response
func (h *ReviewHandler) Respond(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var body struct {
		Comment string `json:"comment" binding:"required,max=500"`
	}
	if err := bindJSON(c, &body); err != nil {
		h.respondError(c, err)
		return
	}
	review, err := h.service.RespondToReview(c.Request.Context(), principalFrom(c), id, body.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Response added", review)
}

// GET /api/reviews/organization/:orgId
func (h *ReviewHandler) ListForOrganization(c *gin.Context) {
	orgID, err := parseID(c, "orgId")
	if err != nil {
		h.respondError(c, err)
		return
	}
	reviews, err := h.service.ListForOrganization(c.Request.Context(), orgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.list(c, reviews, len(reviews), int64(len(reviews)), 1, 1)
}
