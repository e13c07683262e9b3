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

const usersCollection = "users"

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(usersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	u.ID = primitive.NewObjectID()
	u.NormalizeRoleRecord()
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: email %s is already registered", models.ErrDuplicate, u.Email)
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, handleDatabaseError(err)
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context, role models.Role, p models.Pagination) ([]models.User, int64, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(p.Limit)
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateProfile writes the user-editable fields; role, password and points are never touched here.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now()
	set := bson.M{
		"profile":    u.Profile,
		"updated_at": u.UpdatedAt,
	}
	if u.Location != nil {
		set["location"] = u.Location
	}
	if u.Citizen != nil {
		set["citizen.preferences"] = u.Citizen.Preferences
	}
	if u.Organization != nil {
		set["organization.company_name"] = u.Organization.CompanyName
		set["organization.capabilities"] = u.Organization.Capabilities
		set["organization.team_size"] = u.Organization.TeamSize
		set["organization.pricing"] = u.Organization.Pricing
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AwardCitizenPoints increments points and one activity counter, returning the updated user.
func (r *UserRepository) AwardCitizenPoints(ctx context.Context, id primitive.ObjectID, points int, counter models.CitizenCounter) (*models.User, error) {
	inc := bson.M{"citizen.points": points}
	inc["citizen."+string(counter)] = 1
	update := bson.M{
		"$inc": inc,
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "role": models.RoleCitizen}, update, opts).Decode(&user)
	if err != nil {
		return nil, handleDatabaseError(err)
	}
	return &user, nil
}

// SetCitizenProgress stores the derived level and adds badges; badges are never removed.
func (r *UserRepository) SetCitizenProgress(ctx context.Context, id primitive.ObjectID, level int, badges []string) error {
	update := bson.M{"$set": bson.M{"citizen.level": level}}
	if len(badges) > 0 {
		update["$addToSet"] = bson.M{"citizen.badges": bson.M{"$each": badges}}
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "role": models.RoleCitizen}, update)
	return err
}

func (r *UserRepository) SetOrganizationRating(ctx context.Context, id primitive.ObjectID, rating models.Rating) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "role": models.RoleOrganization},
		bson.M{"$set": bson.M{"organization.rating": rating}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetOrganizationVerification(ctx context.Context, id primitive.ObjectID, v models.OrganizationVerification) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"organization.verification": v, "updated_at": time.Now()}}

	var user models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "role": models.RoleOrganization}, update, opts).Decode(&user)
	if err != nil {
		return nil, handleDatabaseError(err)
	}
	return &user, nil
}

func (r *UserRepository) Leaderboard(ctx context.Context, limit int64) ([]models.LeaderboardEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"role": models.RoleCitizen, "is_active": true}}},
		{{Key: "$sort", Value: bson.D{{Key: "citizen.points", Value: -1}, {Key: "created_at", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: leaderboardProjection}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []models.LeaderboardEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

var leaderboardProjection = bson.M{
	"email":         1,
	"profile":       1,
	"points":        "$citizen.points",
	"level":         "$citizen.level",
	"badges":        "$citizen.badges",
	"reports_count": "$citizen.reports_count",
}
