package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecosnap/internal/models"
)

const reportStatsWindow = 30 * 24 * time.Hour

// StatsService computes the read-only rollups. Nothing is cached.
type StatsService interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	ReportStats(ctx context.Context) (*models.ReportStats, error)
	UserStats(ctx context.Context, p models.Principal) (*models.UserStats, error)
	OrganizationStats(ctx context.Context, p models.Principal) (*models.OrganizationStats, error)
	UserSummary(ctx context.Context, userID primitive.ObjectID) (*models.UserSummary, error)
}

type statsService struct {
	stats StatsRepository
	users UserRepository
	now   func() time.Time
}

func NewStatsService(stats StatsRepository, users UserRepository) StatsService {
	return &statsService{stats: stats, users: users, now: time.Now}
}

func (s *statsService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	var (
		d   models.Dashboard
		err error
	)
	if d.Overview.TotalReports, err = s.stats.CountReports(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	if d.Overview.CompletedReports, err = s.stats.CountReports(ctx, bson.M{"status": models.ReportCompleted}); err != nil {
		return nil, fmt.Errorf("count completed reports: %w", err)
	}
	if d.Overview.TotalUsers, err = s.stats.CountUsers(ctx, models.RoleCitizen); err != nil {
		return nil, fmt.Errorf("count citizens: %w", err)
	}
	if d.Overview.TotalOrganizations, err = s.stats.CountUsers(ctx, models.RoleOrganization); err != nil {
		return nil, fmt.Errorf("count organizations: %w", err)
	}
	d.Overview.SuccessRate = models.SuccessRate(d.Overview.CompletedReports, d.Overview.TotalReports)

	if d.ByStatus, err = s.stats.ReportsBy(ctx, "status", nil); err != nil {
		return nil, fmt.Errorf("reports by status: %w", err)
	}
	if d.ByCategory, err = s.stats.ReportsBy(ctx, "category", nil); err != nil {
		return nil, fmt.Errorf("reports by category: %w", err)
	}
	if d.RecentReports, err = s.stats.RecentReports(ctx); err != nil {
		return nil, fmt.Errorf("recent reports: %w", err)
	}
	return &d, nil
}

func (s *statsService) ReportStats(ctx context.Context) (*models.ReportStats, error) {
	var (
		rs  models.ReportStats
		err error
	)
	since := s.now().Add(-reportStatsWindow)
	if rs.ReportsOverTime, err = s.stats.ReportsPerDay(ctx, since); err != nil {
		return nil, fmt.Errorf("reports per day: %w", err)
	}

	avgMillis, err := s.stats.AverageResolutionMillis(ctx)
	if err != nil {
		return nil, fmt.Errorf("average resolution: %w", err)
	}
	rs.AvgResolutionHours = models.MillisToRoundedHours(avgMillis)

	if rs.ByPriority, err = s.stats.ReportsBy(ctx, "priority", nil); err != nil {
		return nil, fmt.Errorf("reports by priority: %w", err)
	}
	if rs.TopReporters, err = s.stats.TopReporters(ctx); err != nil {
		return nil, fmt.Errorf("top reporters: %w", err)
	}
	return &rs, nil
}

func (s *statsService) UserStats(ctx context.Context, p models.Principal) (*models.UserStats, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: user statistics are admin only", models.ErrForbidden)
	}
	var (
		us  models.UserStats
		err error
	)
	if us.UserGrowth, err = s.stats.UsersPerMonth(ctx); err != nil {
		return nil, fmt.Errorf("user growth: %w", err)
	}
	if us.UsersByRole, err = s.stats.UsersByRole(ctx); err != nil {
		return nil, fmt.Errorf("users by role: %w", err)
	}
	if us.TopPointEarners, err = s.stats.TopPointEarners(ctx); err != nil {
		return nil, fmt.Errorf("top point earners: %w", err)
	}
	return &us, nil
}

func (s *statsService) OrganizationStats(ctx context.Context, p models.Principal) (*models.OrganizationStats, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: organization statistics are admin only", models.ErrForbidden)
	}
	var (
		out models.OrganizationStats
		err error
	)
	if out.TopOrganizations, err = s.stats.TopOrganizations(ctx); err != nil {
		return nil, fmt.Errorf("top organizations: %w", err)
	}
	if out.WorkOrdersByStatus, err = s.stats.WorkOrdersByStatus(ctx, nil); err != nil {
		return nil, fmt.Errorf("work orders by status: %w", err)
	}
	if out.TotalRevenue, err = s.stats.TotalRevenue(ctx); err != nil {
		return nil, fmt.Errorf("total revenue: %w", err)
	}
	return &out, nil
}

// UserSummary is the public per-user card: report counts plus the role-specific part.
func (s *statsService) UserSummary(ctx context.Context, userID primitive.ObjectID) (*models.UserSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &models.UserSummary{User: user}
	if summary.TotalReports, err = s.stats.CountReports(ctx, bson.M{"user_id": userID}); err != nil {
		return nil, fmt.Errorf("count user reports: %w", err)
	}
	if summary.ReportsByStatus, err = s.stats.ReportsBy(ctx, "status", bson.M{"user_id": userID}); err != nil {
		return nil, fmt.Errorf("user reports by status: %w", err)
	}

	switch {
	case user.Citizen != nil:
		level, toNext := models.CalculateLevel(user.Citizen.Points)
		summary.Gamification = &models.GamificationStatus{
			UserID:          user.ID,
			Points:          user.Citizen.Points,
			Level:           level,
			PointsToNextLvl: toNext,
			Badges:          user.Citizen.Badges,
		}
	case user.Organization != nil:
		rating := user.Organization.Rating
		summary.Rating = &rating
		if summary.WorkOrders, err = s.stats.WorkOrdersByStatus(ctx, &user.ID); err != nil {
			return nil, fmt.Errorf("organization work orders: %w", err)
		}
	}
	return summary, nil
}
