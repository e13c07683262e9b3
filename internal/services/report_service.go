package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecosnap/internal/models"
)

// ReportService is the report lifecycle engine. Every status change goes through
// a conditional update in the store, and point awards hang off the report's
// points_awarded watermark so they can never be granted twice.
type ReportService interface {
	CreateReport(ctx context.Context, p models.Principal, in models.CreateReportInput) (*models.Report, error)
	GetReport(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	ListReports(ctx context.Context, f models.ReportFilter) (models.Page[models.Report], error)
	ListUserReports(ctx context.Context, userID primitive.ObjectID) ([]models.Report, error)
	UpdateReport(ctx context.Context, p models.Principal, id primitive.ObjectID, in models.UpdateReportInput) (*models.Report, error)
	DeleteReport(ctx context.Context, p models.Principal, id primitive.ObjectID) error

	VerifyReport(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Report, error)
	UnverifyReport(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Report, error)
	RejectReport(ctx context.Context, p models.Principal, id primitive.ObjectID, reason string) (*models.Report, error)
	AssignReport(ctx context.Context, p models.Principal, id, orgID primitive.ObjectID) (*models.Report, *models.WorkOrder, error)
	CitizenVerifyCompletion(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Report, error)
	ToggleUpvote(ctx context.Context, p models.Principal, id primitive.ObjectID) (models.UpvoteResult, error)
}

// ReportStatusSync is the narrow part of the engine the work-order service drives.
type ReportStatusSync interface {
	MarkInProgress(ctx context.Context, reportID primitive.ObjectID) error
	MarkCompleted(ctx context.Context, reportID primitive.ObjectID, w *models.WorkOrder) error
	ReleaseAssignment(ctx context.Context, reportID primitive.ObjectID) error
}

type ReportEngine struct {
	reports    ReportRepository
	users      UserRepository
	workOrders WorkOrderRepository
	notifier   Notifier
	limiter    RateLimiter
	log        zerolog.Logger
	now        func() time.Time
}

func NewReportService(
	reports ReportRepository,
	users UserRepository,
	workOrders WorkOrderRepository,
	notifier Notifier,
	limiter RateLimiter,
	log zerolog.Logger,
) *ReportEngine {
	return &ReportEngine{
		reports:    reports,
		users:      users,
		workOrders: workOrders,
		notifier:   notifier,
		limiter:    limiter,
		log:        log,
		now:        time.Now,
	}
}

func (s *ReportEngine) CreateReport(ctx context.Context, p models.Principal, in models.CreateReportInput) (*models.Report, error) {
	if p.Role != models.RoleCitizen && !p.IsAdmin() {
		return nil, fmt.Errorf("%w: only citizens can submit reports", models.ErrForbidden)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, p.ID.Hex())
		if err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		if !ok {
			return nil, models.ErrRateLimited
		}
	}

	report := in.ToReport(p.ID, s.now())
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	return report, nil
}

func (s *ReportEngine) GetReport(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	return s.reports.IncrementViews(ctx, id)
}

func (s *ReportEngine) ListReports(ctx context.Context, f models.ReportFilter) (models.Page[models.Report], error) {
	if err := f.Validate(); err != nil {
		return models.Page[models.Report]{}, err
	}
	f.Pagination = models.NewPagination(f.Page, f.Limit)

	reports, total, err := s.reports.List(ctx, f)
	if err != nil {
		return models.Page[models.Report]{}, fmt.Errorf("list reports: %w", err)
	}
	return models.Page[models.Report]{Items: reports, Total: total, Pagination: f.Pagination}, nil
}

func (s *ReportEngine) ListUserReports(ctx context.Context, userID primitive.ObjectID) ([]models.Report, error) {
	return s.reports.ListByUser(ctx, userID)
}

func (s *ReportEngine) UpdateReport(ctx context.Context, p models.Principal, id primitive.ObjectID, in models.UpdateReportInput) (*models.Report, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	report, err := s.ownedReport(ctx, p, id)
	if err != nil {
		return nil, err
	}
	in.Apply(report)
	if err := s.reports.UpdateDetails(ctx, report); err != nil {
		return nil, fmt.Errorf("update report: %w", err)
	}
	return report, nil
}

func (s *ReportEngine) DeleteReport(ctx context.Context, p models.Principal, id primitive.ObjectID) error {
	if _, err := s.ownedReport(ctx, p, id); err != nil {
		return err
	}
	return s.reports.Delete(ctx, id)
}

func (s *ReportEngine) VerifyReport(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Report, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can verify reports", models.ErrForbidden)
	}

	report, err := s.reports.MarkVerified(ctx, id, p.ID, s.now())
	if err != nil {
		return nil, err
	}

	awarded, err := s.reports.AwardVerificationPoints(ctx, id, models.VerificationAward)
	if err != nil {
		return nil, fmt.Errorf("award verification points: %w", err)
	}
	if awarded {
		report.PointsAwarded += models.VerificationAward
		s.creditCitizen(ctx, report.UserID, models.VerificationAward, models.CounterReports)
	}

	s.notifier.Notify(ctx, Event{
		Type:     EventReportVerified,
		UserID:   report.UserID.Hex(),
		Role:     models.RoleCitizen,
		Title:    "Report verified",
		Message:  fmt.Sprintf("Your report %q has been verified.", report.Title),
		Metadata: map[string]string{"report_id": report.ID.Hex()},
	})
	return report, nil
}

func (s *ReportEngine) UnverifyReport(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Report, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can unverify reports", models.ErrForbidden)
	}
	return s.reports.MarkUnverified(ctx, id)
}

func (s *ReportEngine) RejectReport(ctx context.Context, p models.Principal, id primitive.ObjectID, reason string) (*models.Report, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can reject reports", models.ErrForbidden)
	}
	report, err := s.reports.MarkRejected(ctx, id, reason)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, Event{
		Type:     EventReportRejected,
		UserID:   report.UserID.Hex(),
		Role:     models.RoleCitizen,
		Title:    "Report rejected",
		Message:  fmt.Sprintf("Your report %q was rejected.", report.Title),
		Metadata: map[string]string{"report_id": report.ID.Hex(), "reason": reason},
	})
	return report, nil
}

func (s *ReportEngine) AssignReport(ctx context.Context, p models.Principal, id, orgID primitive.ObjectID) (*models.Report, *models.WorkOrder, error) {
	if !p.IsAdmin() {
		return nil, nil, fmt.Errorf("%w: only admins can assign reports", models.ErrForbidden)
	}

	org, err := s.users.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: organization %s", models.ErrNotFound, orgID.Hex())
		}
		return nil, nil, err
	}
	if org.Role != models.RoleOrganization {
		return nil, nil, fmt.Errorf("%w: user %s is not an organization", models.ErrInvalidRole, orgID.Hex())
	}
	if org.Organization != nil && org.Organization.Verification.Status == models.VerificationSuspended {
		return nil, nil, fmt.Errorf("%w: organization %s is suspended", models.ErrInvalidRole, orgID.Hex())
	}

	now := s.now()
	report, err := s.reports.MarkAssigned(ctx, id, orgID, now)
	if err != nil {
		return nil, nil, err
	}

	order := models.NewWorkOrder(report, org, p.ID, now)
	if err := s.workOrders.Create(ctx, order); err != nil {
		if _, rerr := s.reports.ReleaseAssignment(ctx, id); rerr != nil {
			s.log.Error().Err(rerr).Str("report_id", id.Hex()).Msg("failed to release assignment after work order error")
		}
		return nil, nil, fmt.Errorf("create work order: %w", err)
	}

	report, err = s.reports.SetWorkOrder(ctx, id, order.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("link work order: %w", err)
	}

	s.notifier.Notify(ctx, Event{
		Type:    EventReportAssigned,
		UserID:  orgID.Hex(),
		Role:    models.RoleOrganization,
		Title:   "New work order",
		Message: fmt.Sprintf("Work order %s has been assigned to you.", order.OrderNumber),
		Metadata: map[string]string{
			"report_id":     report.ID.Hex(),
			"work_order_id": order.ID.Hex(),
		},
	})
	return report, order, nil
}

func (s *ReportEngine) CitizenVerifyCompletion(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Report, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Is(report.UserID) {
		return nil, fmt.Errorf("%w: only the reporter can confirm the cleanup", models.ErrForbidden)
	}
	if report.Status != models.ReportCompleted {
		return nil, fmt.Errorf("%w: report is %s, not completed", models.ErrInvalidTransition, report.Status)
	}
	if report.CitizenVerified {
		return report, nil
	}

	verified, err := s.reports.MarkCitizenVerified(ctx, id, s.now(), models.CompletionBonus)
	if err != nil {
		return nil, fmt.Errorf("citizen verify: %w", err)
	}
	if verified {
		s.creditCitizen(ctx, report.UserID, models.CompletionBonus, models.CounterCleanupVerifications)
	}
	return s.reports.GetByID(ctx, id)
}

func (s *ReportEngine) ToggleUpvote(ctx context.Context, p models.Principal, id primitive.ObjectID) (models.UpvoteResult, error) {
	if p.ID.IsZero() {
		return models.UpvoteResult{}, models.ErrUnauthorized
	}
	report, upvoted, err := s.reports.ToggleUpvote(ctx, id, p.ID)
	if err != nil {
		return models.UpvoteResult{}, err
	}
	return models.UpvoteResult{Upvoted: upvoted, UpvoteCount: len(report.Upvotes)}, nil
}

func (s *ReportEngine) MarkInProgress(ctx context.Context, reportID primitive.ObjectID) error {
	_, err := s.reports.MarkInProgress(ctx, reportID)
	return err
}

func (s *ReportEngine) MarkCompleted(ctx context.Context, reportID primitive.ObjectID, w *models.WorkOrder) error {
	completedAt := s.now()
	if w.CompletedAt != nil {
		completedAt = *w.CompletedAt
	}
	report, err := s.reports.MarkCompleted(ctx, reportID, completedAt, w.CompletionNotes, w.CompletionImages)
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, Event{
		Type:     EventReportCompleted,
		UserID:   report.UserID.Hex(),
		Role:     models.RoleCitizen,
		Title:    "Cleanup completed",
		Message:  fmt.Sprintf("The cleanup for %q is done. Please confirm it.", report.Title),
		Metadata: map[string]string{"report_id": report.ID.Hex(), "work_order_id": w.ID.Hex()},
	})
	return nil
}

func (s *ReportEngine) ReleaseAssignment(ctx context.Context, reportID primitive.ObjectID) error {
	_, err := s.reports.ReleaseAssignment(ctx, reportID)
	return err
}

func (s *ReportEngine) ownedReport(ctx context.Context, p models.Principal, id primitive.ObjectID) (*models.Report, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !p.Is(report.UserID) {
		return nil, fmt.Errorf("%w: report belongs to another user", models.ErrForbidden)
	}
	return report, nil
}

// creditCitizen runs only after the report-side watermark moved; errors are logged, not returned.
func (s *ReportEngine) creditCitizen(ctx context.Context, userID primitive.ObjectID, points int, counter models.CitizenCounter) {
	user, err := s.users.AwardCitizenPoints(ctx, userID, points, counter)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.log.Error().Err(err).Str("user_id", userID.Hex()).Int("points", points).Msg("failed to award points")
		}
		return
	}
	if user.Citizen == nil {
		return
	}
	level, _ := models.CalculateLevel(user.Citizen.Points)
	if err := s.users.SetCitizenProgress(ctx, userID, level, models.EarnedBadges(*user.Citizen)); err != nil {
		s.log.Error().Err(err).Str("user_id", userID.Hex()).Msg("failed to refresh level and badges")
	}
}
