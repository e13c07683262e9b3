package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecosnap/internal/models"
)

const (
	recentReportsLimit = 5
	topReportersLimit  = 10
	topOrgsLimit       = 10
	topEarnersLimit    = 10
)

// StatsRepository runs the read-only aggregations behind the admin dashboards.
type StatsRepository struct {
	reports    *mongo.Collection
	users      *mongo.Collection
	workOrders *mongo.Collection
}

func NewStatsRepository(db *mongo.Database) *StatsRepository {
	return &StatsRepository{
		reports:    db.Collection(reportsCollection),
		users:      db.Collection(usersCollection),
		workOrders: db.Collection(workOrdersCollection),
	}
}

func (r *StatsRepository) CountReports(ctx context.Context, filter bson.M) (int64, error) {
	return r.reports.CountDocuments(ctx, filter)
}

func (r *StatsRepository) CountUsers(ctx context.Context, role models.Role) (int64, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	return r.users.CountDocuments(ctx, filter)
}

// ReportsBy groups reports by a top-level field, optionally restricted by match.
func (r *StatsRepository) ReportsBy(ctx context.Context, field string, match bson.M) ([]models.CountBucket, error) {
	return groupCount(ctx, r.reports, match, "$"+field)
}

func (r *StatsRepository) RecentReports(ctx context.Context) ([]models.Report, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(recentReportsLimit)
	cursor, err := r.reports.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// ReportsPerDay buckets reports created since `since` by calendar day (UTC).
func (r *StatsRepository) ReportsPerDay(ctx context.Context, since time.Time) ([]models.CountBucket, error) {
	key := bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$created_at"}}
	return groupCount(ctx, r.reports, bson.M{"created_at": bson.M{"$gte": since}}, key)
}

// AverageResolutionMillis averages completed_at - created_at over completed reports.
func (r *StatsRepository) AverageResolutionMillis(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status":       models.ReportCompleted,
			"completed_at": bson.M{"$exists": true},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"avg": bson.M{"$avg": bson.M{"$subtract": bson.A{"$completed_at", "$created_at"}}},
		}}},
	}
	var rows []struct {
		Avg float64 `bson:"avg"`
	}
	if err := aggregate(ctx, r.reports, pipeline, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Avg, nil
}

func (r *StatsRepository) TopReporters(ctx context.Context) ([]models.ReporterStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$user_id", "report_count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "report_count", Value: -1}}}},
		{{Key: "$limit", Value: topReportersLimit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$project", Value: bson.M{
			"report_count": 1,
			"email":        "$user.email",
			"profile":      "$user.profile",
			"points":       bson.M{"$ifNull": bson.A{"$user.citizen.points", 0}},
		}}},
	}
	stats := []models.ReporterStat{}
	if err := aggregate(ctx, r.reports, pipeline, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// UsersPerMonth buckets user sign-ups by year-month.
func (r *StatsRepository) UsersPerMonth(ctx context.Context) ([]models.CountBucket, error) {
	key := bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$created_at"}}
	return groupCount(ctx, r.users, nil, key)
}

func (r *StatsRepository) UsersByRole(ctx context.Context) ([]models.CountBucket, error) {
	return groupCount(ctx, r.users, nil, "$role")
}

func (r *StatsRepository) TopPointEarners(ctx context.Context) ([]models.LeaderboardEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"role": models.RoleCitizen}}},
		{{Key: "$sort", Value: bson.D{{Key: "citizen.points", Value: -1}}}},
		{{Key: "$limit", Value: topEarnersLimit}},
		{{Key: "$project", Value: leaderboardProjection}},
	}
	entries := []models.LeaderboardEntry{}
	if err := aggregate(ctx, r.users, pipeline, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *StatsRepository) TopOrganizations(ctx context.Context) ([]models.OrganizationRank, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"role": models.RoleOrganization}}},
		{{Key: "$sort", Value: bson.D{{Key: "organization.rating.average", Value: -1}}}},
		{{Key: "$limit", Value: topOrgsLimit}},
		{{Key: "$project", Value: bson.M{
			"email":        1,
			"company_name": "$organization.company_name",
			"rating":       "$organization.rating",
			"capabilities": "$organization.capabilities",
		}}},
	}
	ranks := []models.OrganizationRank{}
	if err := aggregate(ctx, r.users, pipeline, &ranks); err != nil {
		return nil, err
	}
	return ranks, nil
}

// WorkOrdersByStatus groups work orders by status; orgID narrows it to one organization.
func (r *StatsRepository) WorkOrdersByStatus(ctx context.Context, orgID *primitive.ObjectID) ([]models.CountBucket, error) {
	var match bson.M
	if orgID != nil {
		match = bson.M{"organization_id": *orgID}
	}
	return groupCount(ctx, r.workOrders, match, "$status")
}

func (r *StatsRepository) TotalRevenue(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"payment_status": models.PaymentPaid}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$pricing.total_amount"}}}},
	}
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := aggregate(ctx, r.workOrders, pipeline, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func groupCount(ctx context.Context, col *mongo.Collection, match bson.M, key interface{}) ([]models.CountBucket, error) {
	pipeline := mongo.Pipeline{}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.M{"_id": key, "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	)

	buckets := []models.CountBucket{}
	if err := aggregate(ctx, col, pipeline, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

func aggregate(ctx context.Context, col *mongo.Collection, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}
