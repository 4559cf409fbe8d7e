package repository

import (
	"context"
	"time"

	"healthsurveys/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SurveyRepo handles MongoDB operations for surveys and their ordered
// question links
type SurveyRepo interface {
	Create(ctx context.Context, survey *model.Survey) error
	GetByID(ctx context.Context, id string) (*model.Survey, error)
	List(ctx context.Context) ([]*model.Survey, error)
	Update(ctx context.Context, survey *model.Survey) error
	Delete(ctx context.Context, id string) error

	// Question links. SetQuestions replaces the whole ordered list;
	// positions are stored 1-based and contiguous in slice order.
	SetQuestions(ctx context.Context, surveyID string, questionIDs []string) error
	GetQuestions(ctx context.Context, surveyID string) ([]model.SurveyQuestion, error)
	FindByQuestionID(ctx context.Context, questionID string) ([]model.SurveyQuestion, error)
}

type surveyRepo struct {
	surveys *mongo.Collection
	links   *mongo.Collection
}

// NewSurveyRepo creates a new survey repository
func NewSurveyRepo(db *mongo.Database) SurveyRepo {
	r := &surveyRepo{
		surveys: db.Collection("surveys"),
		links:   db.Collection("survey_questions"),
	}
	r.ensureIndexes(context.Background())
	return r
}

func (r *surveyRepo) ensureIndexes(ctx context.Context) {
	r.links.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "surveyId", Value: 1}, {Key: "position", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	r.links.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "questionId", Value: 1}},
	})
}

func (r *surveyRepo) Create(ctx context.Context, survey *model.Survey) error {
	survey.CreatedAt = time.Now()
	survey.UpdatedAt = time.Now()
	_, err := r.surveys.InsertOne(ctx, survey)
	return err
}

func (r *surveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	var survey model.Survey
	err := r.surveys.FindOne(ctx, bson.M{"_id": id}).Decode(&survey)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *surveyRepo) List(ctx context.Context) ([]*model.Survey, error) {
	cursor, err := r.surveys.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var surveys []*model.Survey
	if err := cursor.All(ctx, &surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}

func (r *surveyRepo) Update(ctx context.Context, survey *model.Survey) error {
	survey.UpdatedAt = time.Now()
	_, err := r.surveys.ReplaceOne(ctx, bson.M{"_id": survey.ID}, survey)
	return err
}

func (r *surveyRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.links.DeleteMany(ctx, bson.M{"surveyId": id}); err != nil {
		return err
	}
	_, err := r.surveys.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *surveyRepo) SetQuestions(ctx context.Context, surveyID string, questionIDs []string) error {
	if _, err := r.links.DeleteMany(ctx, bson.M{"surveyId": surveyID}); err != nil {
		return err
	}
	if len(questionIDs) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(questionIDs))
	for i, qid := range questionIDs {
		docs = append(docs, model.SurveyQuestion{
			SurveyID:   surveyID,
			QuestionID: qid,
			Position:   i + 1,
		})
	}
	_, err := r.links.InsertMany(ctx, docs)
	return err
}

func (r *surveyRepo) GetQuestions(ctx context.Context, surveyID string) ([]model.SurveyQuestion, error) {
	cursor, err := r.links.Find(ctx, bson.M{"surveyId": surveyID},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var links []model.SurveyQuestion
	if err := cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	return links, nil
}

func (r *surveyRepo) FindByQuestionID(ctx context.Context, questionID string) ([]model.SurveyQuestion, error) {
	cursor, err := r.links.Find(ctx, bson.M{"questionId": questionID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var links []model.SurveyQuestion
	if err := cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	return links, nil
}
