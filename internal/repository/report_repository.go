package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecosnap/internal/models"
)

const reportsCollection = "reports"

type ReportRepository struct {
	col *mongo.Collection
}

func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{col: db.Collection(reportsCollection)}
}

func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	report.ID = primitive.NewObjectID()
	if report.Upvotes == nil {
		report.Upvotes = []primitive.ObjectID{}
	}
	_, err := r.col.InsertOne(ctx, report)
	return err
}

func (r *ReportRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var report models.Report
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&report); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &report, nil
}

func (r *ReportRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
}

func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int64, error) {
	query := filter.BSON()

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(filter.Skip()).
		SetLimit(filter.Limit)

	reports, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *ReportRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"user_id": userID}, opts)
}

func (r *ReportRepository) UpdateDetails(ctx context.Context, report *models.Report) error {
	report.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"title":       report.Title,
		"description": report.Description,
		"category":    report.Category,
		"priority":    report.Priority,
		"location":    report.Location,
		"updated_at":  report.UpdatedAt,
	}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": report.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ReportRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// MarkVerified is the compare-and-set that flips is_verified false -> true.
func (r *ReportRepository) MarkVerified(ctx context.Context, id, adminID primitive.ObjectID, at time.Time) (*models.Report, error) {
	filter := bson.M{"_id": id, "is_verified": false, "status": models.ReportPending}
	update := bson.M{"$set": bson.M{
		"is_verified": true,
		"verified_by": adminID,
		"verified_at": at,
		"status":      models.ReportVerified,
		"updated_at":  at,
	}}
	return r.conditional(ctx, id, filter, update, "report is not pending verification")
}

// AwardVerificationPoints raises the watermark from zero; false means it was already awarded.
func (r *ReportRepository) AwardVerificationPoints(ctx context.Context, id primitive.ObjectID, points int) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "points_awarded": 0},
		bson.M{"$inc": bson.M{"points_awarded": points}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *ReportRepository) MarkUnverified(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	filter := r.statusFilter(id, models.ReportPending)
	update := bson.M{
		"$set":   bson.M{"is_verified": false, "status": models.ReportPending, "updated_at": time.Now()},
		"$unset": bson.M{"verified_by": "", "verified_at": ""},
	}
	return r.conditional(ctx, id, filter, update, "only verified reports can be unverified")
}

func (r *ReportRepository) MarkRejected(ctx context.Context, id primitive.ObjectID, reason string) (*models.Report, error) {
	filter := r.statusFilter(id, models.ReportRejected)
	update := bson.M{"$set": bson.M{
		"status":           models.ReportRejected,
		"rejection_reason": reason,
		"updated_at":       time.Now(),
	}}
	return r.conditional(ctx, id, filter, update, "report can only be rejected before assignment")
}

func (r *ReportRepository) MarkAssigned(ctx context.Context, id, orgID primitive.ObjectID, at time.Time) (*models.Report, error) {
	filter := r.statusFilter(id, models.ReportAssigned)
	update := bson.M{"$set": bson.M{
		"status":      models.ReportAssigned,
		"assigned_to": orgID,
		"assigned_at": at,
		"updated_at":  at,
	}}
	return r.conditional(ctx, id, filter, update, "only verified reports can be assigned")
}

func (r *ReportRepository) SetWorkOrder(ctx context.Context, id, workOrderID primitive.ObjectID) (*models.Report, error) {
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"work_order_id": workOrderID}})
}

func (r *ReportRepository) MarkInProgress(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	filter := r.statusFilter(id, models.ReportInProgress)
	update := bson.M{"$set": bson.M{"status": models.ReportInProgress, "updated_at": time.Now()}}
	return r.conditional(ctx, id, filter, update, "only assigned reports can start")
}

func (r *ReportRepository) MarkCompleted(ctx context.Context, id primitive.ObjectID, at time.Time, notes string, images []models.Image) (*models.Report, error) {
	filter := r.statusFilter(id, models.ReportCompleted)
	update := bson.M{"$set": bson.M{
		"status":            models.ReportCompleted,
		"completed_at":      at,
		"completion_notes":  notes,
		"completion_images": images,
		"updated_at":        at,
	}}
	return r.conditional(ctx, id, filter, update, "only reports in progress can complete")
}

// ReleaseAssignment returns an assigned report to verified after its work order is cancelled.
func (r *ReportRepository) ReleaseAssignment(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$in": []models.ReportStatus{models.ReportAssigned, models.ReportInProgress}}}
	update := bson.M{
		"$set":   bson.M{"status": models.ReportVerified, "updated_at": time.Now()},
		"$unset": bson.M{"assigned_to": "", "assigned_at": "", "work_order_id": ""},
	}
	return r.conditional(ctx, id, filter, update, "report is not assigned")
}

// MarkCitizenVerified flips citizen_verified once and adds the bonus to the watermark.
func (r *ReportRepository) MarkCitizenVerified(ctx context.Context, id primitive.ObjectID, at time.Time, bonus int) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ReportCompleted, "citizen_verified": false},
		bson.M{
			"$set": bson.M{"citizen_verified": true, "citizen_verified_at": at, "updated_at": at},
			"$inc": bson.M{"points_awarded": bonus},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ToggleUpvote adds userID when absent and removes it otherwise, each as a single guarded update.
func (r *ReportRepository) ToggleUpvote(ctx context.Context, id, userID primitive.ObjectID) (*models.Report, bool, error) {
	report, err := r.findOneAndUpdate(ctx,
		bson.M{"_id": id, "upvotes": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"upvotes": userID}},
	)
	if err == nil {
		return report, true, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, err
	}

	report, err = r.findOneAndUpdate(ctx,
		bson.M{"_id": id, "upvotes": userID},
		bson.M{"$pull": bson.M{"upvotes": userID}},
	)
	if err != nil {
		return nil, false, err
	}
	return report, false, nil
}

func (r *ReportRepository) statusFilter(id primitive.ObjectID, target models.ReportStatus) bson.M {
	return bson.M{"_id": id, "status": bson.M{"$in": models.ReportSourcesFor(target)}}
}

func (r *ReportRepository) conditional(ctx context.Context, id primitive.ObjectID, filter, update bson.M, reason string) (*models.Report, error) {
	report, err := r.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, models.ErrNotFound) {
		return nil, explainMiss(ctx, r.col, id, fmt.Errorf("%w: %s", models.ErrInvalidTransition, reason))
	}
	return report, err
}

func (r *ReportRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Report, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var report models.Report
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&report); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &report, nil
}

func (r *ReportRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Report, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
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
