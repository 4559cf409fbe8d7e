package repository

import (
	"context"
	"time"

	"healthsurveys/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SyncJobRepo persists metadata import jobs so any process can report
// progress and any client can poll status
type SyncJobRepo interface {
	Create(ctx context.Context, job *model.SyncJob) error
	GetByID(ctx context.Context, id string) (*model.SyncJob, error)
	SetStatus(ctx context.Context, id string, status model.SyncJobStatus, message string) error
	// SetProgress records processed/total. The stored processed counter
	// is monotonic: a smaller value than what is stored is ignored.
	SetProgress(ctx context.Context, id string, processed, total int) error
}

type syncJobRepo struct {
	collection *mongo.Collection
}

// NewSyncJobRepo creates a new sync job repository
func NewSyncJobRepo(db *mongo.Database) SyncJobRepo {
	return &syncJobRepo{
		collection: db.Collection("sync_jobs"),
	}
}

func (r *syncJobRepo) Create(ctx context.Context, job *model.SyncJob) error {
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	_, err := r.collection.InsertOne(ctx, job)
	return err
}

func (r *syncJobRepo) GetByID(ctx context.Context, id string) (*model.SyncJob, error) {
	var job model.SyncJob
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *syncJobRepo) SetStatus(ctx context.Context, id string, status model.SyncJobStatus, message string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":    status,
			"message":   message,
			"updatedAt": time.Now(),
		},
	})
	return err
}

func (r *syncJobRepo) SetProgress(ctx context.Context, id string, processed, total int) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$max": bson.M{"processed": processed},
		"$set": bson.M{
			"total":     total,
			"updatedAt": time.Now(),
		},
	})
	return err
}
