package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ecosnap/internal/models"
)

func handleDatabaseError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	return err
}

// explainMiss turns a conditional write that matched nothing into ErrNotFound
// when the document is gone, or into conditionErr when it exists in another state.
func explainMiss(ctx context.Context, col *mongo.Collection, id primitive.ObjectID, conditionErr error) error {
	count, err := col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return models.ErrNotFound
	}
	return conditionErr
}
