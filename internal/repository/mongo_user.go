package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smartstudy/smartstudy/internal/db"
	"github.com/smartstudy/smartstudy/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	Password       string             `bson:"password"`
	Bio            string             `bson:"bio"`
	Major          string             `bson:"major"`
	ProfilePicture string             `bson:"profilePicture"`
	SavedResources []string           `bson:"savedResources"`
	CreatedAt      time.Time          `bson:"createdAt"`
}

func (d *userDoc) model() *model.User {
	saved := d.SavedResources
	if saved == nil {
		saved = []string{}
	}
	return &model.User{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Email:          d.Email,
		PasswordHash:   d.Password,
		Bio:            d.Bio,
		Major:          d.Major,
		ProfilePicture: d.ProfilePicture,
		SavedResources: saved,
		CreatedAt:      d.CreatedAt,
	}
}

type mongoUserRepository struct {
	users *mongo.Collection
}

func NewMongoUserRepository(mdb *mongo.Database) UserRepository {
	return &mongoUserRepository{users: mdb.Collection(db.UsersCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	doc := userDoc{
		ID:             primitive.NewObjectID(),
		Name:           user.Name,
		Email:          user.Email,
		Password:       user.PasswordHash,
		Bio:            user.Bio,
		Major:          user.Major,
		ProfilePicture: user.ProfilePicture,
		SavedResources: []string{},
		CreatedAt:      user.CreatedAt,
	}

	_, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	user.ID = doc.ID.Hex()
	user.SavedResources = []string{}
	return nil
}

func (r *mongoUserRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoUserRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoUserRepository) Summaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	out := make(map[string]model.UserSummary, len(ids))
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return out, nil
	}

	opts := options.Find().SetProjection(bson.M{"name": 1, "profilePicture": 1})
	cur, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, opts)
	if err != nil {
		return nil, err
	}

	var docs []userDoc
	err = cur.All(ctx, &docs)
	if err != nil {
		return nil, err
	}

	for _, d := range docs {
		out[d.ID.Hex()] = model.UserSummary{ID: d.ID.Hex(), Name: d.Name, ProfilePicture: d.ProfilePicture}
	}
	return out, nil
}

func (r *mongoUserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	return r.updateOne(ctx, user.ID, bson.M{"$set": bson.M{
		"name":  user.Name,
		"bio":   user.Bio,
		"major": user.Major,
	}})
}

func (r *mongoUserRepository) SetProfilePicture(ctx context.Context, id, url string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"profilePicture": url}})
}

func (r *mongoUserRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}

	result, err := r.users.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *mongoUserRepository) ToggleSaved(ctx context.Context, userID, resourceID string) ([]string, bool, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, false, ErrUserNotFound
	}

	saved, err := toggleArray(ctx, r.users, oid, "savedResources", resourceID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, ErrUserNotFound
	}
	if err != nil {
		return nil, false, err
	}
	return saved, contains(saved, resourceID), nil
}

func (r *mongoUserRepository) SavedIDs(ctx context.Context, userID string) ([]string, error) {
	user, err := r.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.SavedResources, nil
}

// toggleArray removes value from the array field when present and appends
// it otherwise, in a single pipeline update. It returns the array after
// the update.
func toggleArray(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, field, value string) ([]string, error) {
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, bson.A{}}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: field, Value: bson.D{{Key: "$cond", Value: bson.D{
			{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{value, current}}}},
			{Key: "then", Value: bson.D{{Key: "$filter", Value: bson.D{
				{Key: "input", Value: current},
				{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", value}}}},
			}}}},
			{Key: "else", Value: bson.D{{Key: "$concatArrays", Value: bson.A{current, bson.A{value}}}}},
		}}}}}}},
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{field: 1})

	var doc bson.M
	err := coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc)
	if err != nil {
		return nil, err
	}

	out := []string{}
	if arr, ok := doc[field].(bson.A); ok {
		for _, v := range arr {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

// objectIDs converts hex ids, skipping malformed ones.
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
