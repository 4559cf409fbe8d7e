package repository

import (
	"context"
	"time"

	"healthsurveys/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OptionSetRepo handles MongoDB operations for option sets
type OptionSetRepo interface {
	Create(ctx context.Context, set *model.OptionSet) error
	GetByID(ctx context.Context, id string) (*model.OptionSet, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.OptionSet, error)
	List(ctx context.Context) ([]*model.OptionSet, error)
	Update(ctx context.Context, set *model.OptionSet) error
	Delete(ctx context.Context, id string) error
	Upsert(ctx context.Context, set *model.OptionSet) error
}

type optionSetRepo struct {
	collection *mongo.Collection
}

// NewOptionSetRepo creates a new option set repository
func NewOptionSetRepo(db *mongo.Database) OptionSetRepo {
	return &optionSetRepo{
		collection: db.Collection("option_sets"),
	}
}

func (r *optionSetRepo) Create(ctx context.Context, set *model.OptionSet) error {
	set.CreatedAt = time.Now()
	set.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, set)
	return err
}

func (r *optionSetRepo) GetByID(ctx context.Context, id string) (*model.OptionSet, error) {
	var set model.OptionSet
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&set)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func (r *optionSetRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*model.OptionSet, error) {
	if len(ids) == 0 {
		return map[string]*model.OptionSet{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	byID := make(map[string]*model.OptionSet, len(ids))
	for cursor.Next(ctx) {
		var set model.OptionSet
		if err := cursor.Decode(&set); err != nil {
			return nil, err
		}
		byID[set.ID] = &set
	}
	return byID, cursor.Err()
}

func (r *optionSetRepo) List(ctx context.Context) ([]*model.OptionSet, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sets []*model.OptionSet
	if err := cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (r *optionSetRepo) Update(ctx context.Context, set *model.OptionSet) error {
	set.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": set.ID}, set)
	return err
}

func (r *optionSetRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *optionSetRepo) Upsert(ctx context.Context, set *model.OptionSet) error {
	set.UpdatedAt = time.Now()
	if set.CreatedAt.IsZero() {
		set.CreatedAt = set.UpdatedAt
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": set.ID}, set,
		options.Replace().SetUpsert(true))
	return err
}
