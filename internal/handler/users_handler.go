package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecosnap/internal/models"
	"ecosnap/internal/services"
)

type UserHandler struct {
	service services.UserService
	stats   services.StatsService
	*Responder
}

func NewUserHandler(service services.UserService, stats services.StatsService, r *Responder) *UserHandler {
	return &UserHandler{service: service, stats: stats, Responder: r}
}

// POST /api/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var in models.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.service.Register(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusCreated, "User registered successfully", user)
}

// POST /api/users (admin)
func (h *UserHandler) Create(c *gin.Context) {
	var in models.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.service.CreateUser(c.Request.Context(), principalFrom(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusCreated, "User created successfully", user)
}

// GET /api/users (admin)
func (h *UserHandler) List(c *gin.Context) {
	var q struct {
		Role string `form:"role"`
		pageQuery
	}
	if err := bindQuery(c, &q); err != nil {
		h.respondError(c, err)
		return
	}
	page, err := h.service.ListUsers(c.Request.Context(), principalFrom(c), models.Role(q.Role), q.pagination())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.list(c, page.Items, len(page.Items), page.Total, page.Page, page.Pages())
}

// GET /api/users/leaderboard
func (h *UserHandler) Leaderboard(c *gin.Context) {
	var q struct {
		Limit int64 `form:"limit"`
	}
	if err := bindQuery(c, &q); err != nil {
		h.respondError(c, err)
		return
	}
	entries, err := h.service.Leaderboard(c.Request.Context(), q.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, entries)
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, user)
}

// GET /api/users/:id/stats
func (h *UserHandler) Stats(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	summary, err := h.stats.UserSummary(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.ok(c, http.StatusOK, summary)
}

// PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var in models.UpdateUserInput
	if err := bindJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), principalFrom(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Profile updated successfully", user)
}

// DELETE /api/users/:id (admin)
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), principalFrom(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "User deleted successfully", nil)
}

// PUT /api/users/:id/verification (admin)
func (h *UserHandler) SetVerification(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := bindJSON(c, &body); err != nil {
		h.respondError(c, err)
		return
	}
	user, err := h.service.SetOrganizationVerification(c.Request.Context(), principalFrom(c), id, models.VerificationStatus(body.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.message(c, http.StatusOK, "Verification status updated", user)
}
