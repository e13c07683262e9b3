package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecosnap/internal/models"
)

// Store interfaces consumed by the services; internal/repository provides the mongo implementations.

type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int64, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Report, error)
	UpdateDetails(ctx context.Context, report *models.Report) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	MarkVerified(ctx context.Context, id, adminID primitive.ObjectID, at time.Time) (*models.Report, error)
	AwardVerificationPoints(ctx context.Context, id primitive.ObjectID, points int) (bool, error)
	MarkUnverified(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	MarkRejected(ctx context.Context, id primitive.ObjectID, reason string) (*models.Report, error)
	MarkAssigned(ctx context.Context, id, orgID primitive.ObjectID, at time.Time) (*models.Report, error)
	SetWorkOrder(ctx context.Context, id, workOrderID primitive.ObjectID) (*models.Report, error)
	MarkInProgress(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	MarkCompleted(ctx context.Context, id primitive.ObjectID, at time.Time, notes string, images []models.Image) (*models.Report, error)
	ReleaseAssignment(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	MarkCitizenVerified(ctx context.Context, id primitive.ObjectID, at time.Time, bonus int) (bool, error)
	ToggleUpvote(ctx context.Context, id, userID primitive.ObjectID) (*models.Report, bool, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	List(ctx context.Context, role models.Role, p models.Pagination) ([]models.User, int64, error)
	UpdateProfile(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	AwardCitizenPoints(ctx context.Context, id primitive.ObjectID, points int, counter models.CitizenCounter) (*models.User, error)
	SetCitizenProgress(ctx context.Context, id primitive.ObjectID, level int, badges []string) error
	SetOrganizationRating(ctx context.Context, id primitive.ObjectID, rating models.Rating) error
	SetOrganizationVerification(ctx context.Context, id primitive.ObjectID, v models.OrganizationVerification) (*models.User, error)
	Leaderboard(ctx context.Context, limit int64) ([]models.LeaderboardEntry, error)
}

type WorkOrderRepository interface {
	Create(ctx context.Context, w *models.WorkOrder) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.WorkOrder, error)
	List(ctx context.Context, f models.WorkOrderFilter) ([]models.WorkOrder, int64, error)
	Save(ctx context.Context, w *models.WorkOrder) error
}

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ExistsByWorkOrderAndReviewer(ctx context.Context, workOrderID, reviewerID primitive.ObjectID) (bool, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Review, error)
	AggregateRating(ctx context.Context, orgID primitive.ObjectID) (models.Rating, error)
}

type StatsRepository interface {
	CountReports(ctx context.Context, filter bson.M) (int64, error)
	CountUsers(ctx context.Context, role models.Role) (int64, error)
	ReportsBy(ctx context.Context, field string, match bson.M) ([]models.CountBucket, error)
	RecentReports(ctx context.Context) ([]models.Report, error)
	ReportsPerDay(ctx context.Context, since time.Time) ([]models.CountBucket, error)
	AverageResolutionMillis(ctx context.Context) (float64, error)
	TopReporters(ctx context.Context) ([]models.ReporterStat, error)
	UsersPerMonth(ctx context.Context) ([]models.CountBucket, error)
	UsersByRole(ctx context.Context) ([]models.CountBucket, error)
	TopPointEarners(ctx context.Context) ([]models.LeaderboardEntry, error)
	TopOrganizations(ctx context.Context) ([]models.OrganizationRank, error)
	WorkOrdersByStatus(ctx context.Context, orgID *primitive.ObjectID) ([]models.CountBucket, error)
	TotalRevenue(ctx context.Context) (float64, error)
}

type MediaRepository interface {
	Save(ctx context.Context, m *models.Media) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
