package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecosnap/internal/models"
)

type ReviewService interface {
	RecordReview(ctx context.Context, p models.Principal, in models.CreateReviewInput) (*models.Review, error)
	UpdateReview(ctx context.Context, p models.Principal, id primitive.ObjectID, in models.UpdateReviewInput) (*models.Review, error)
	DeleteReview(ctx context.Context, p models.Principal, id primitive.ObjectID) error
	RespondToReview(ctx context.Context, p models.Principal, id primitive.ObjectID, comment string) (*models.Review, error)
	ListForOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Review, error)
	RecomputeOrganizationRating(ctx context.Context, orgID primitive.ObjectID) (models.Rating, error)
}

type reviewService struct {
	reviews    ReviewRepository
	workOrders WorkOrderRepository
	users      UserRepository
	notifier   Notifier
	log        zerolog.Logger
	now        func() time.Time
}

func NewReviewService(reviews ReviewRepository, workOrders WorkOrderRepository, users UserRepository, notifier Notifier, log zerolog.Logger) ReviewService {
	return &reviewService{
		reviews:    reviews,
		workOrders: workOrders,
		users:      users,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}
}

func (s *reviewService) RecordReview(ctx context.Context, p models.Principal, in models.CreateReviewInput) (*models.Review, error) {
	if p.Role != models.RoleCitizen && !p.IsAdmin() {
		return nil, fmt.Errorf("%w: only citizens can review work orders", models.ErrForbidden)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	workOrderID, _ := primitive.ObjectIDFromHex(in.WorkOrderID)

	order, err := s.workOrders.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.WorkOrderCompleted {
		return nil, fmt.Errorf("%w: only completed work orders can be reviewed", models.ErrInvalidTransition)
	}

	exists, err := s.reviews.ExistsByWorkOrderAndReviewer(ctx, workOrderID, p.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrDuplicateReview
	}

	now := s.now()
	review := &models.Review{
		WorkOrderID:    workOrderID,
		OrganizationID: order.OrganizationID,
		ReviewerID:     p.ID,
		Rating:         in.Rating,
		Title:          strings.TrimSpace(in.Title),
		Comment:        strings.TrimSpace(in.Comment),
		Ratings:        in.Ratings,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	s.linkWorkOrder(ctx, order, review)
	if _, err := s.RecomputeOrganizationRating(ctx, order.OrganizationID); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, Event{
		Type:     EventReviewCreated,
		UserID:   order.OrganizationID.Hex(),
		Role:     models.RoleOrganization,
		Title:    "New review",
		Message:  fmt.Sprintf("Work order %s received a %d-star review.", order.OrderNumber, review.Rating),
		Metadata: map[string]string{"review_id": review.ID.Hex(), "work_order_id": order.ID.Hex()},
	})
	return review, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, p models.Principal, id primitive.ObjectID, in models.UpdateReviewInput) (*models.Review, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Is(review.ReviewerID) {
		return nil, fmt.Errorf("%w: only the reviewer can edit a review", models.ErrForbidden)
	}

	in.Apply(review)
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	if _, err := s.RecomputeOrganizationRating(ctx, review.OrganizationID); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, p models.Principal, id primitive.ObjectID) error {
	if !p.IsAdmin() {
		return fmt.Errorf("%w: only admins can delete reviews", models.ErrForbidden)
	}
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	_, err = s.RecomputeOrganizationRating(ctx, review.OrganizationID)
	return err
}

func (s *reviewService) RespondToReview(ctx context.Context, p models.Principal, id primitive.ObjectID, comment string) (*models.Review, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, models.NewValidationError("comment field is required")
	}
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role != models.RoleOrganization || !p.Is(review.OrganizationID) {
		return nil, fmt.Errorf("%w: only the reviewed organization can respond", models.ErrForbidden)
	}

	review.Response = &models.ReviewResponse{Comment: comment, RespondedAt: s.now()}
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) ListForOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Review, error) {
	return s.reviews.ListByOrganization(ctx, orgID)
}

// RecomputeOrganizationRating re-aggregates every review of the organization
// and overwrites organization.rating with the result.
func (s *reviewService) RecomputeOrganizationRating(ctx context.Context, orgID primitive.ObjectID) (models.Rating, error) {
	rating, err := s.reviews.AggregateRating(ctx, orgID)
	if err != nil {
		return models.Rating{}, fmt.Errorf("aggregate rating: %w", err)
	}
	if err := s.users.SetOrganizationRating(ctx, orgID, rating); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.log.Warn().Str("organization_id", orgID.Hex()).Msg("rating recomputed for a missing organization")
			return rating, nil
		}
		return models.Rating{}, fmt.Errorf("store rating: %w", err)
	}
	return rating, nil
}

func (s *reviewService) linkWorkOrder(ctx context.Context, order *models.WorkOrder, review *models.Review) {
	id := review.ID
	order.ReviewID = &id
	order.Rating = review.Rating
	order.UpdatedAt = s.now()
	if err := s.workOrders.Save(ctx, order); err != nil {
		s.log.Error().Err(err).Str("work_order_id", order.ID.Hex()).Msg("failed to link review to work order")
	}
}
