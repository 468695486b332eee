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

type resourceDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Title            string             `bson:"title"`
	Description      string             `bson:"description"`
	Subject          string             `bson:"subject"`
	FileURL          string             `bson:"fileUrl"`
	FileKey          string             `bson:"fileKey"`
	OriginalFileName string             `bson:"originalFileName"`
	MimeType         string             `bson:"mimeType"`
	Size             int64              `bson:"size"`
	CreatedBy        string             `bson:"createdBy"`
	Likes            []string           `bson:"likes"`
	CreatedAt        time.Time          `bson:"createdAt"`
}

func (d *resourceDoc) model() *model.Resource {
	likes := d.Likes
	if likes == nil {
		likes = []string{}
	}
	return &model.Resource{
		ID:               d.ID.Hex(),
		Title:            d.Title,
		Description:      d.Description,
		Subject:          d.Subject,
		FileURL:          d.FileURL,
		FileKey:          d.FileKey,
		OriginalFileName: d.OriginalFileName,
		MimeType:         d.MimeType,
		Size:             d.Size,
		CreatedByID:      d.CreatedBy,
		Likes:            likes,
		CreatedAt:        d.CreatedAt,
	}
}

type mongoResourceRepository struct {
	resources *mongo.Collection
}

func NewMongoResourceRepository(mdb *mongo.Database) ResourceRepository {
	return &mongoResourceRepository{resources: mdb.Collection(db.ResourcesCollection)}
}

func (r *mongoResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = time.Now().UTC()
	}

	doc := resourceDoc{
		ID:               primitive.NewObjectID(),
		Title:            resource.Title,
		Description:      resource.Description,
		Subject:          resource.Subject,
		FileURL:          resource.FileURL,
		FileKey:          resource.FileKey,
		OriginalFileName: resource.OriginalFileName,
		MimeType:         resource.MimeType,
		Size:             resource.Size,
		CreatedBy:        resource.CreatedByID,
		Likes:            []string{},
		CreatedAt:        resource.CreatedAt,
	}

	_, err := r.resources.InsertOne(ctx, doc)
	if err != nil {
		return err
	}

	resource.ID = doc.ID.Hex()
	resource.Likes = []string{}
	return nil
}

func (r *mongoResourceRepository) ByID(ctx context.Context, id string) (*model.Resource, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrResourceNotFound
	}

	var doc resourceDoc
	err = r.resources.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoResourceRepository) List(ctx context.Context) ([]*model.Resource, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoResourceRepository) ByIDs(ctx context.Context, ids []string) ([]*model.Resource, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*model.Resource{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

func (r *mongoResourceRepository) find(ctx context.Context, filter bson.M) ([]*model.Resource, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.resources.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var docs []resourceDoc
	err = cur.All(ctx, &docs)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Resource, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].model())
	}
	return out, nil
}

func (r *mongoResourceRepository) ToggleLike(ctx context.Context, resourceID, userID string) ([]string, bool, error) {
	oid, err := primitive.ObjectIDFromHex(resourceID)
	if err != nil {
		return nil, false, ErrResourceNotFound
	}

	likes, err := toggleArray(ctx, r.resources, oid, "likes", userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, ErrResourceNotFound
	}
	if err != nil {
		return nil, false, err
	}
	return likes, contains(likes, userID), nil
}
