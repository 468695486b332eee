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

type answerDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Text      string             `bson:"text"`
	Author    string             `bson:"author"`
	Upvotes   int                `bson:"upvotes"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type discussionDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Tags      []string           `bson:"tags"`
	Author    string             `bson:"author"`
	Answers   []answerDoc        `bson:"answers"` // newest first
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *discussionDoc) model() *model.Discussion {
	tags := model.Tags(d.Tags)
	if tags == nil {
		tags = model.Tags{}
	}
	return &model.Discussion{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Content:     d.Content,
		Tags:        tags,
		AuthorID:    d.Author,
		AnswerCount: int64(len(d.Answers)),
		CreatedAt:   d.CreatedAt,
		Answers:     answerModels(d.ID.Hex(), d.Answers),
	}
}

func answerModels(discussionID string, docs []answerDoc) []*model.Answer {
	out := make([]*model.Answer, 0, len(docs))
	for i, a := range docs {
		out = append(out, &model.Answer{
			ID:           a.ID.Hex(),
			DiscussionID: discussionID,
			Text:         a.Text,
			AuthorID:     a.Author,
			Upvotes:      a.Upvotes,
			Seq:          int64(len(docs) - i),
			CreatedAt:    a.CreatedAt,
		})
	}
	return out
}

type mongoDiscussionRepository struct {
	discussions *mongo.Collection
}

func NewMongoDiscussionRepository(mdb *mongo.Database) DiscussionRepository {
	return &mongoDiscussionRepository{discussions: mdb.Collection(db.DiscussionsCollection)}
}

func (r *mongoDiscussionRepository) Create(ctx context.Context, discussion *model.Discussion) error {
	if discussion.CreatedAt.IsZero() {
		discussion.CreatedAt = time.Now().UTC()
	}
	if discussion.Tags == nil {
		discussion.Tags = model.Tags{}
	}

	doc := discussionDoc{
		ID:        primitive.NewObjectID(),
		Title:     discussion.Title,
		Content:   discussion.Content,
		Tags:      discussion.Tags,
		Author:    discussion.AuthorID,
		Answers:   []answerDoc{},
		CreatedAt: discussion.CreatedAt,
	}

	_, err := r.discussions.InsertOne(ctx, doc)
	if err != nil {
		return err
	}

	discussion.ID = doc.ID.Hex()
	discussion.Answers = []*model.Answer{}
	return nil
}

func (r *mongoDiscussionRepository) List(ctx context.Context) ([]*model.Discussion, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.discussions.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	var docs []discussionDoc
	err = cur.All(ctx, &docs)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Discussion, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].model())
	}
	return out, nil
}

func (r *mongoDiscussionRepository) ByID(ctx context.Context, id string) (*model.Discussion, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrDiscussionNotFound
	}

	var doc discussionDoc
	err = r.discussions.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDiscussionNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *mongoDiscussionRepository) AddAnswer(ctx context.Context, discussionID string, answer *model.Answer) ([]*model.Answer, error) {
	oid, err := primitive.ObjectIDFromHex(discussionID)
	if err != nil {
		return nil, ErrDiscussionNotFound
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now().UTC()
	}

	doc := answerDoc{
		ID:        primitive.NewObjectID(),
		Text:      answer.Text,
		Author:    answer.AuthorID,
		Upvotes:   answer.Upvotes,
		CreatedAt: answer.CreatedAt,
	}

	update := bson.M{"$push": bson.M{"answers": bson.M{
		"$each":     bson.A{doc},
		"$position": 0,
	}}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"answers": 1})

	var updated discussionDoc
	err = r.discussions.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDiscussionNotFound
	}
	if err != nil {
		return nil, err
	}

	answer.ID = doc.ID.Hex()
	answer.DiscussionID = discussionID
	return answerModels(discussionID, updated.Answers), nil
}
