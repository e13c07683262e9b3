package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecosnap/internal/models"
)

type WorkOrderService interface {
	Get(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.WorkOrder, error)
	List(ctx context.Context, p models.Principal, status models.WorkOrderStatus, page models.Pagination) (models.Page[models.WorkOrder], error)
	Accept(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.WorkOrder, error)
	Start(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.WorkOrder, error)
	Complete(ctx context.Context, p models.Principal, id primitive.ObjectID, in models.CompleteWorkOrderInput) (*models.WorkOrder, error)
	Cancel(ctx context.Context, p models.Principal, id primitive.ObjectID, reason string) (*models.WorkOrder, error)
	UpdatePricing(ctx context.Context, p models.Principal, id primitive.ObjectID, in models.PricingInput) (*models.WorkOrder, error)
	UpdatePaymentStatus(ctx context.Context, p models.Principal, id primitive.ObjectID, status models.PaymentStatus) (*models.WorkOrder, error)
}

type workOrderService struct {
	orders   WorkOrderRepository
	reports  ReportStatusSync
	notifier Notifier
	now      func() time.Time
}

func NewWorkOrderService(orders WorkOrderRepository, reports ReportStatusSync, notifier Notifier) WorkOrderService {
	return &workOrderService{orders: orders, reports: reports, notifier: notifier, now: time.Now}
}

func (s *workOrderService) Get(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.WorkOrder, error) {
	return s.managed(ctx, p, id)
}

// List returns every work order to admins and only their own to organizations.
func (s *workOrderService) List(ctx context.Context, p models.Principal, status models.WorkOrderStatus, page models.Pagination) (models.Page[models.WorkOrder], error) {
	if status != "" && !status.IsValid() {
		return models.Page[models.WorkOrder]{}, models.NewValidationError(fmt.Sprintf("status %q is not a known work order status", status))
	}
	filter := models.WorkOrderFilter{Status: status, Pagination: models.NewPagination(page.Page, page.Limit)}
	switch p.Role {
	case models.RoleAdmin:
	case models.RoleOrganization:
		orgID := p.ID
		filter.OrganizationID = &orgID
	default:
		return models.Page[models.WorkOrder]{}, fmt.Errorf("%w: work orders are visible to organizations and admins", models.ErrForbidden)
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return models.Page[models.WorkOrder]{}, fmt.Errorf("list work orders: %w", err)
	}
	return models.Page[models.WorkOrder]{Items: orders, Total: total, Pagination: filter.Pagination}, nil
}

func (s *workOrderService) Accept(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.WorkOrder, error) {
	order, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := order.Accept(s.now()); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *workOrderService) Start(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.WorkOrder, error) {
	order, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	prev := *order
	if err := order.Start(s.now()); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	if err := s.reports.MarkInProgress(ctx, order.ReportID); err != nil {
		return nil, s.revert(ctx, prev, order, fmt.Errorf("sync report %s: %w", order.ReportID.Hex(), err))
	}
	return order, nil
}

func (s *workOrderService) Complete(ctx context.Context, p models.Principal, id primitive.ObjectID, in models.CompleteWorkOrderInput) (*models.WorkOrder, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	order, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	prev := *order
	if err := order.Complete(in, s.now()); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	if err := s.reports.MarkCompleted(ctx, order.ReportID, order); err != nil {
		return nil, s.revert(ctx, prev, order, fmt.Errorf("sync report %s: %w", order.ReportID.Hex(), err))
	}
	return order, nil
}

// Cancel is open to the owning organization and to admins; the report goes back to verified.
func (s *workOrderService) Cancel(ctx context.Context, p models.Principal, id primitive.ObjectID, reason string) (*models.WorkOrder, error) {
	order, err := s.managed(ctx, p, id)
	if err != nil {
		return nil, err
	}
	prev := *order
	if err := order.Cancel(p.ID, reason, s.now()); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	if err := s.reports.ReleaseAssignment(ctx, order.ReportID); err != nil {
		return nil, s.revert(ctx, prev, order, fmt.Errorf("release report %s: %w", order.ReportID.Hex(), err))
	}

	if p.IsAdmin() {
		s.notifier.Notify(ctx, Event{
			Type:     EventWorkOrderCancelled,
			UserID:   order.OrganizationID.Hex(),
			Role:     models.RoleOrganization,
			Title:    "Work order cancelled",
			Message:  fmt.Sprintf("Work order %s was cancelled.", order.OrderNumber),
			Metadata: map[string]string{"work_order_id": order.ID.Hex(), "reason": reason},
		})
	}
	return order, nil
}

func (s *workOrderService) UpdatePricing(ctx context.Context, p models.Principal, id primitive.ObjectID, in models.PricingInput) (*models.WorkOrder, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	order, err := s.managed(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.IsOpen() {
		return nil, fmt.Errorf("%w: pricing is frozen once a work order is %s", models.ErrInvalidTransition, order.Status)
	}
	in.Apply(order)
	order.UpdatedAt = s.now()
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *workOrderService) UpdatePaymentStatus(ctx context.Context, p models.Principal, id primitive.ObjectID, status models.PaymentStatus) (*models.WorkOrder, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can change payment status", models.ErrForbidden)
	}
	if !status.IsValid() {
		return nil, models.NewValidationError(fmt.Sprintf("payment_status %q must be one of [pending processing paid failed]", status))
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.SetPaymentStatus(status, s.now())
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// revert writes back the pre-transition state after the report could not follow,
// so the same call can be retried.
func (s *workOrderService) revert(ctx context.Context, prev models.WorkOrder, saved *models.WorkOrder, syncErr error) error {
	prev.Version = saved.Version
	if err := s.orders.Save(ctx, &prev); err != nil {
		return fmt.Errorf("%w (revert work order %s: %v)", syncErr, saved.ID.Hex(), err)
	}
	return syncErr
}

// owned loads a work order the calling organization holds.
func (s *workOrderService) owned(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.WorkOrder, error) {
	if p.Role != models.RoleOrganization {
		return nil, fmt.Errorf("%w: only the assigned organization can do this", models.ErrForbidden)
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Is(order.OrganizationID) {
		return nil, fmt.Errorf("%w: work order belongs to another organization", models.ErrForbidden)
	}
	return order, nil
}

// managed is owned, widened to admins.
func (s *workOrderService) managed(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.WorkOrder, error) {
	if p.IsAdmin() {
		return s.orders.GetByID(ctx, id)
	}
	return s.owned(ctx, p, id)
}
