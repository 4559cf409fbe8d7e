package repository

import (
	"context"
	"time"

	"healthsurveys/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InstanceRepo handles MongoDB operations for configured DHIS2 instances
type InstanceRepo interface {
	Create(ctx context.Context, inst *model.DHIS2Instance) error
	GetByKey(ctx context.Context, key string) (*model.DHIS2Instance, error)
	List(ctx context.Context) ([]*model.DHIS2Instance, error)
	Update(ctx context.Context, inst *model.DHIS2Instance) error
	Delete(ctx context.Context, key string) error
}

type instanceRepo struct {
	collection *mongo.Collection
}

// NewInstanceRepo creates a new DHIS2 instance repository
func NewInstanceRepo(db *mongo.Database) InstanceRepo {
	return &instanceRepo{
		collection: db.Collection("dhis2_instances"),
	}
}

func (r *instanceRepo) Create(ctx context.Context, inst *model.DHIS2Instance) error {
	inst.CreatedAt = time.Now()
	inst.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, inst)
	return err
}

func (r *instanceRepo) GetByKey(ctx context.Context, key string) (*model.DHIS2Instance, error) {
	var inst model.DHIS2Instance
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&inst)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *instanceRepo) List(ctx context.Context) ([]*model.DHIS2Instance, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var instances []*model.DHIS2Instance
	if err := cursor.All(ctx, &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

func (r *instanceRepo) Update(ctx context.Context, inst *model.DHIS2Instance) error {
	inst.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": inst.Key}, inst)
	return err
}

func (r *instanceRepo) Delete(ctx context.Context, key string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
