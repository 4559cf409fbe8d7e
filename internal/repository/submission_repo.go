package repository

import (
	"context"
	"time"

	"healthsurveys/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubmissionRepo handles MongoDB operations for regular and tracker
// submissions
type SubmissionRepo interface {
	Create(ctx context.Context, s *model.Submission) error
	GetByUID(ctx context.Context, uid string) (*model.Submission, error)
	ListBySurvey(ctx context.Context, surveyID string) ([]*model.Submission, error)
	Delete(ctx context.Context, uid string) error
	CountBySurvey(ctx context.Context, surveyID string) (int64, error)

	// ExistsForQuestion reports whether any submission answers the
	// question; questions with submissions are immutable.
	ExistsForQuestion(ctx context.Context, questionID string) (bool, error)

	CreateTracker(ctx context.Context, s *model.TrackerSubmission) error
	ListTrackerBySurvey(ctx context.Context, surveyID string) ([]*model.TrackerSubmission, error)
	DeleteTracker(ctx context.Context, uid string) error
}

type submissionRepo struct {
	submissions *mongo.Collection
	tracker     *mongo.Collection
}

// NewSubmissionRepo creates a new submission repository
func NewSubmissionRepo(db *mongo.Database) SubmissionRepo {
	r := &submissionRepo{
		submissions: db.Collection("submissions"),
		tracker:     db.Collection("tracker_submissions"),
	}
	r.ensureIndexes(context.Background())
	return r
}

func (r *submissionRepo) ensureIndexes(ctx context.Context) {
	for _, coll := range []*mongo.Collection{r.submissions, r.tracker} {
		coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "uid", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "surveyId", Value: 1}, {Key: "createdAt", Value: -1}},
		})
	}
	r.submissions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "responses.questionId", Value: 1}},
	})
}

func (r *submissionRepo) Create(ctx context.Context, s *model.Submission) error {
	s.CreatedAt = time.Now()
	_, err := r.submissions.InsertOne(ctx, s)
	return err
}

func (r *submissionRepo) GetByUID(ctx context.Context, uid string) (*model.Submission, error) {
	var s model.Submission
	err := r.submissions.FindOne(ctx, bson.M{"uid": uid}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *submissionRepo) ListBySurvey(ctx context.Context, surveyID string) ([]*model.Submission, error) {
	cursor, err := r.submissions.Find(ctx, bson.M{"surveyId": surveyID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []*model.Submission
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *submissionRepo) Delete(ctx context.Context, uid string) error {
	_, err := r.submissions.DeleteOne(ctx, bson.M{"uid": uid})
	return err
}

func (r *submissionRepo) CountBySurvey(ctx context.Context, surveyID string) (int64, error) {
	return r.submissions.CountDocuments(ctx, bson.M{"surveyId": surveyID})
}

func (r *submissionRepo) ExistsForQuestion(ctx context.Context, questionID string) (bool, error) {
	n, err := r.submissions.CountDocuments(ctx, bson.M{"responses.questionId": questionID},
		options.Count().SetLimit(1))
	return n > 0, err
}

func (r *submissionRepo) CreateTracker(ctx context.Context, s *model.TrackerSubmission) error {
	s.CreatedAt = time.Now()
	_, err := r.tracker.InsertOne(ctx, s)
	return err
}

func (r *submissionRepo) ListTrackerBySurvey(ctx context.Context, surveyID string) ([]*model.TrackerSubmission, error) {
	cursor, err := r.tracker.Find(ctx, bson.M{"surveyId": surveyID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []*model.TrackerSubmission
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *submissionRepo) DeleteTracker(ctx context.Context, uid string) error {
	_, err := r.tracker.DeleteOne(ctx, bson.M{"uid": uid})
	return err
}
