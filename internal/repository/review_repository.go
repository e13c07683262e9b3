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

const reviewsCollection = "reviews"

type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{col: db.Collection(reviewsCollection)}
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	review.ID = primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateReview
		}
		return err
	}
	return nil
}

func (r *ReviewRepository) ExistsByWorkOrderAndReviewer(ctx context.Context, workOrderID, reviewerID primitive.ObjectID) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{
		"work_order_id": workOrderID,
		"reviewer_id":   reviewerID,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var review models.Review
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &review, nil
}

func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	review.UpdatedAt = time.Now()
	set := bson.M{
		"rating":     review.Rating,
		"title":      review.Title,
		"comment":    review.Comment,
		"ratings":    review.Ratings,
		"updated_at": review.UpdatedAt,
	}
	if review.Response != nil {
		set["response"] = review.Response
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": review.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// AggregateRating re-derives {average, total_reviews} from every review of the organization.
func (r *ReviewRepository) AggregateRating(ctx context.Context, orgID primitive.ObjectID) (models.Rating, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"organization_id": orgID}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$organization_id",
			"average":       bson.M{"$avg": "$rating"},
			"total_reviews": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return models.Rating{}, err
	}
	defer cursor.Close(ctx)

	var rows []models.Rating
	if err := cursor.All(ctx, &rows); err != nil {
		return models.Rating{}, err
	}
	if len(rows) == 0 {
		return models.Rating{}, nil
	}
	return rows[0], nil
}
