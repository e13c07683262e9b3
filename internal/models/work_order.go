package models

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkOrderStatus string

const (
	WorkOrderPending    WorkOrderStatus = "pending"
	WorkOrderAccepted   WorkOrderStatus = "accepted"
	WorkOrderInProgress WorkOrderStatus = "in-progress"
	WorkOrderCompleted  WorkOrderStatus = "completed"
	WorkOrderCancelled  WorkOrderStatus = "cancelled"
)

func (s WorkOrderStatus) IsValid() bool {
	switch s {
	case WorkOrderPending, WorkOrderAccepted, WorkOrderInProgress, WorkOrderCompleted, WorkOrderCancelled:
		return true
	}
	return false
}

// IsOpen reports whether pricing may still change.
func (s WorkOrderStatus) IsOpen() bool {
	return s != WorkOrderCompleted && s != WorkOrderCancelled
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentPaid       PaymentStatus = "paid"
	PaymentFailed     PaymentStatus = "failed"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

const DefaultEstimatedHours = 2.0

type Pricing struct {
	BaseRate        float64 `bson:"base_rate"        json:"base_rate"`
	HourlyRate      float64 `bson:"hourly_rate"      json:"hourly_rate"`
	AdditionalCosts float64 `bson:"additional_costs" json:"additional_costs"`
	TotalAmount     float64 `bson:"total_amount"     json:"total_amount"`
}

// Recalculate sets TotalAmount = base + hourly*hours + additional, rounded to cents.
func (p *Pricing) Recalculate(hours float64) {
	total := p.BaseRate + p.HourlyRate*hours + p.AdditionalCosts
	p.TotalAmount = math.Round(total*100) / 100
}

type WorkOrder struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"   json:"id"`
	OrderNumber    string             `bson:"order_number"    json:"order_number"`
	ReportID       primitive.ObjectID `bson:"report_id"       json:"report_id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	AssignedBy     primitive.ObjectID `bson:"assigned_by"     json:"assigned_by"`
	Title          string             `bson:"title"           json:"title"`
	Description    string             `bson:"description"     json:"description"`
	Category       Category           `bson:"category"        json:"category"`
	Priority       Priority           `bson:"priority"        json:"priority"`
	Status         WorkOrderStatus    `bson:"status"          json:"status"`

	EstimatedDuration float64  `bson:"estimated_duration"        json:"estimated_duration"`
	ActualDuration    *float64 `bson:"actual_duration,omitempty" json:"actual_duration,omitempty"`

	AcceptedAt  *time.Time `bson:"accepted_at,omitempty"  json:"accepted_at,omitempty"`
	StartedAt   *time.Time `bson:"started_at,omitempty"   json:"started_at,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	CompletionNotes  string  `bson:"completion_notes,omitempty"  json:"completion_notes,omitempty"`
	CompletionImages []Image `bson:"completion_images,omitempty" json:"completion_images,omitempty"`

	Pricing       Pricing       `bson:"pricing"           json:"pricing"`
	PaymentStatus PaymentStatus `bson:"payment_status"    json:"payment_status"`
	PaidAt        *time.Time    `bson:"paid_at,omitempty" json:"paid_at,omitempty"`

	ReviewID *primitive.ObjectID `bson:"review_id,omitempty" json:"review_id,omitempty"`
	Rating   int                 `bson:"rating,omitempty"    json:"rating,omitempty"`

	CancellationReason string              `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
	CancelledBy        *primitive.ObjectID `bson:"cancelled_by,omitempty"        json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time          `bson:"cancelled_at,omitempty"        json:"cancelled_at,omitempty"`

	Version   int64     `bson:"version"    json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func (w *WorkOrder) transition(from []WorkOrderStatus, to WorkOrderStatus, now time.Time) error {
	for _, s := range from {
		if w.Status == s {
			w.Status = to
			w.UpdatedAt = now
			return nil
		}
	}
	return fmt.Errorf("%w: work order is %s, cannot move to %s", ErrInvalidTransition, w.Status, to)
}

func (w *WorkOrder) Accept(now time.Time) error {
	if err := w.transition([]WorkOrderStatus{WorkOrderPending}, WorkOrderAccepted, now); err != nil {
		return err
	}
	w.AcceptedAt = &now
	return nil
}

func (w *WorkOrder) Start(now time.Time) error {
	if err := w.transition([]WorkOrderStatus{WorkOrderAccepted}, WorkOrderInProgress, now); err != nil {
		return err
	}
	w.StartedAt = &now
	return nil
}

func (w *WorkOrder) Complete(in CompleteWorkOrderInput, now time.Time) error {
	if err := w.transition([]WorkOrderStatus{WorkOrderInProgress}, WorkOrderCompleted, now); err != nil {
		return err
	}
	w.CompletedAt = &now
	if in.ActualDuration > 0 {
		d := in.ActualDuration
		w.ActualDuration = &d
	}
	w.CompletionNotes = in.Notes
	w.CompletionImages = imagesFromURLs(in.Images, now)
	w.Pricing.Recalculate(w.BillableHours())
	return nil
}

func (w *WorkOrder) Cancel(by primitive.ObjectID, reason string, now time.Time) error {
	if err := w.transition([]WorkOrderStatus{WorkOrderPending, WorkOrderAccepted}, WorkOrderCancelled, now); err != nil {
		return err
	}
	w.CancelledBy = &by
	w.CancelledAt = &now
	w.CancellationReason = reason
	return nil
}

func (w *WorkOrder) SetPaymentStatus(status PaymentStatus, now time.Time) {
	w.PaymentStatus = status
	w.UpdatedAt = now
	if status == PaymentPaid {
		w.PaidAt = &now
	} else {
		w.PaidAt = nil
	}
}

// BillableHours prefers the actual duration once it is known.
func (w *WorkOrder) BillableHours() float64 {
	if w.ActualDuration != nil {
		return *w.ActualDuration
	}
	return w.EstimatedDuration
}

// OrderNumber formats the immutable human-facing number, e.g. WO-1718000000000-42.
func OrderNumber(now time.Time, seq int64) string {
	return fmt.Sprintf("WO-%d-%d", now.UnixMilli(), seq)
}

// NewWorkOrder derives a pending work order from an assigned report.
func NewWorkOrder(report *Report, org *User, assignedBy primitive.ObjectID, now time.Time) *WorkOrder {
	w := &WorkOrder{
		ReportID:          report.ID,
		OrganizationID:    org.ID,
		AssignedBy:        assignedBy,
		Title:             report.Title,
		Description:       report.Description,
		Category:          report.Category,
		Priority:          report.Priority,
		Status:            WorkOrderPending,
		EstimatedDuration: DefaultEstimatedHours,
		PaymentStatus:     PaymentPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if org.Organization != nil {
		w.Pricing.BaseRate = org.Organization.Pricing.BaseRate
		w.Pricing.HourlyRate = org.Organization.Pricing.HourlyRate
	}
	w.Pricing.Recalculate(w.BillableHours())
	return w
}

type CompleteWorkOrderInput struct {
	ActualDuration float64  `json:"actual_duration" validate:"gte=0"`
	Notes          string   `json:"notes"           validate:"max=1000"`
	Images         []string `json:"images"          validate:"max=10,dive,url"`
}

func (in CompleteWorkOrderInput) Validate() error {
	return validateStruct(in)
}

type PricingInput struct {
	BaseRate          *float64 `json:"base_rate"          validate:"omitempty,gte=0"`
	HourlyRate        *float64 `json:"hourly_rate"        validate:"omitempty,gte=0"`
	AdditionalCosts   *float64 `json:"additional_costs"   validate:"omitempty,gte=0"`
	EstimatedDuration *float64 `json:"estimated_duration" validate:"omitempty,gt=0"`
}

func (in PricingInput) Validate() error {
	return validateStruct(in)
}

// Apply folds the patch into w and recomputes the total.
func (in PricingInput) Apply(w *WorkOrder) {
	if in.BaseRate != nil {
		w.Pricing.BaseRate = *in.BaseRate
	}
	if in.HourlyRate != nil {
		w.Pricing.HourlyRate = *in.HourlyRate
	}
	if in.AdditionalCosts != nil {
		w.Pricing.AdditionalCosts = *in.AdditionalCosts
	}
	if in.EstimatedDuration != nil {
		w.EstimatedDuration = *in.EstimatedDuration
	}
	w.Pricing.Recalculate(w.BillableHours())
}

type WorkOrderFilter struct {
	OrganizationID *primitive.ObjectID
	Status         WorkOrderStatus
	Pagination
}
