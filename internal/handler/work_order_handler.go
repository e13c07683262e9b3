package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecosnap/internal/models"
	"ecosnap/internal/services"
)

type WorkOrderHandler struct {
	service services.WorkOrderService
	*Responder
}

func NewWorkOrderHandler(service services.WorkOrderService, r *Responder) *WorkOrderHandler {
	return &WorkOrderHandler{service: service, Responder: r}
}

// GET /api/work-orders
func (h *WorkOrderHandler) List(c *gin.Context) {
	var q struct {
		Status string `form:"status"`
		pageQuery
	}
	if err := bindQuery(c, &q); err != nil {
		h.respondError(c, err)
		return
	}
	page, err := h.service.List(c.Request.Context(), principalFrom(c), models.WorkOrderStatus(q.Status), q.pagination())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.list(c, page.Items, len(page.Items), page.Total, page.Page, page.Pages())
}

// GET /api/work-orders/:id
func (h *WorkOrderHandler) Get(c *gin.Context) {
	h.act(c, "", h.service.Get)
}

// PUT /api/work-orders/:id/accept
func (h *WorkOrderHandler) Accept(c *gin.Context) {
	h.act(c, "Work order accepted", h.service.Accept)
}

// PUT /api/work-orders/:id/start
func (h *WorkOrderHandler) Start(c *gin.Context) {
	h.act(c, "Work order started", h.service.Start)
}

// PUT /api/work-orders/:id/complete
func (h *WorkOrderHandler) Complete(c *gin.Context) {
	var in models.CompleteWorkOrderInput
	if err := bindOptionalJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	h.act(c, "Work order completed", func(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.WorkOrder, error) {
		return h.service.Complete(ctx, p, id, in)
	})
}

// PUT /api/work-orders/:id/cancel
func (h *WorkOrderHandler) Cancel(c *gin.Context) {
	var body struct {
		Reason string `json:"reason" binding:"max=500"`
	}
	if err := bindOptionalJSON(c, &body); err != nil {
		h.respondError(c, err)
		return
	}
	h.act(c, "Work order cancelled", func(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.WorkOrder, error) {
		return h.service.Cancel(ctx, p, id, body.Reason)
	})
}

// PUT /api/work-orders/:id/pricing
func (h *WorkOrderHandler) UpdatePricing(c *gin.Context) {
	var in models.PricingInput
	if err := bindJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	h.act(c, "Pricing updated", func(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.WorkOrder, error) {
		return h.service.UpdatePricing(ctx, p, id, in)
	})
}

// PUT /api/work-orders/:id/payment
func (h *WorkOrderHandler) UpdatePayment(c *gin.Context) {
	var body struct {
		PaymentStatus string `json:"payment_status" binding:"required"`
	}
	if err := bindJSON(c, &body); err != nil {
		h.respondError(c, err)
		return
	}
	h.act(c, "Payment status updated", func(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.WorkOrder, error) {
		return h.service.UpdatePaymentStatus(ctx, p, id, models.PaymentStatus(body.PaymentStatus))
	})
}

func (h *WorkOrderHandler) act(c *gin.Context, msg string, fn func(context.Context, models.Principal, primitive.ObjectID) (*models.WorkOrder, error)) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	order, err := fn(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if msg == "" {
		h.ok(c, http.StatusOK, order)
		return
	}
	h.message(c, http.StatusOK, msg, order)
}
