package repository

import (
	"context"
	"time"

	"healthsurveys/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuestionRepo handles MongoDB operations for the question bank
type QuestionRepo interface {
	Create(ctx context.Context, q *model.Question) error
	GetByID(ctx context.Context, id string) (*model.Question, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.Question, error)
	List(ctx context.Context) ([]*model.Question, error)
	Update(ctx context.Context, q *model.Question) error
	Delete(ctx context.Context, id string) error

	// Upsert is used by the sync importer: insert-or-replace keyed by ID.
	Upsert(ctx context.Context, q *model.Question) error
}

type questionRepo struct {
	collection *mongo.Collection
}

// NewQuestionRepo creates a new question repository
func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		collection: db.Collection("questions"),
	}
}

func (r *questionRepo) Create(ctx context.Context, q *model.Question) error {
	q.CreatedAt = time.Now()
	q.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, q)
	return err
}

func (r *questionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *questionRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*model.Question, error) {
	if len(ids) == 0 {
		return map[string]*model.Question{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	byID := make(map[string]*model.Question, len(ids))
	for cursor.Next(ctx) {
		var q model.Question
		if err := cursor.Decode(&q); err != nil {
			return nil, err
		}
		byID[q.ID] = &q
	}
	return byID, cursor.Err()
}

func (r *questionRepo) List(ctx context.Context) ([]*model.Question, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []*model.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) Update(ctx context.Context, q *model.Question) error {
	q.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": q.ID}, q)
	return err
}

func (r *questionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *questionRepo) Upsert(ctx context.Context, q *model.Question) error {
	q.UpdatedAt = time.Now()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = q.UpdatedAt
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": q.ID}, q,
		options.Replace().SetUpsert(true))
	return err
}
