package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecosnap/internal/models"
)

const (
	workOrdersCollection = "work_orders"
	orderNumberAttempts  = 3
)

type WorkOrderRepository struct {
	col *mongo.Collection
}

func NewWorkOrderRepository(db *mongo.Database) *WorkOrderRepository {
	return &WorkOrderRepository{col: db.Collection(workOrdersCollection)}
}

// Create assigns the order number from the current count; the unique index
// on order_number rejects a racing insert and we retry with a fresh count.
func (r *WorkOrderRepository) Create(ctx context.Context, w *models.WorkOrder) error {
	w.ID = primitive.NewObjectID()
	w.Version = 0

	var lastErr error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		count, err := r.col.EstimatedDocumentCount(ctx)
		if err != nil {
			return err
		}
		w.OrderNumber = models.OrderNumber(time.Now(), count+1)

		_, err = r.col.InsertOne(ctx, w)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("could not allocate order number: %w", lastErr)
}

func (r *WorkOrderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.WorkOrder, error) {
	var w models.WorkOrder
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&w); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &w, nil
}

func (r *WorkOrderRepository) List(ctx context.Context, f models.WorkOrderFilter) ([]models.WorkOrder, int64, error) {
	filter := bson.M{}
	if f.OrganizationID != nil {
		filter["organization_id"] = *f.OrganizationID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(f.Skip()).
		SetLimit(f.Limit)
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	orders := []models.WorkOrder{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Save replaces the document only if nobody wrote it since it was read.
func (r *WorkOrderRepository) Save(ctx context.Context, w *models.WorkOrder) error {
	expected := w.Version
	next := *w
	next.Version = expected + 1

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": w.ID, "version": expected}, &next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return explainMiss(ctx, r.col, w.ID, models.ErrConflict)
	}
	*w = next
	return nil
}
